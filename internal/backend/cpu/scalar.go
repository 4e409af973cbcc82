package cpu

import (
	"fmt"

	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.unaryScalar("mul_scalar", x, scalar,
		func(v, s float32) float32 { return v * s },
		func(v, s float64) float64 { return v * s })
}

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.unaryScalar("add_scalar", x, scalar,
		func(v, s float32) float32 { return v + s },
		func(v, s float64) float64 { return v + s })
}

// unaryScalar applies an element-wise op against a scalar operand.
func (cpu *CPUBackend) unaryScalar(name string, x *tensor.RawTensor, scalar any,
	f32 func(v, s float32) float32, f64 func(v, s float64) float64) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	switch x.DType() {
	case tensor.Float32:
		s := toFloat64(name, scalar)
		in, out := x.AsFloat32(), result.AsFloat32()
		for i := range out {
			out[i] = f32(in[i], float32(s))
		}
	case tensor.Float64:
		s := toFloat64(name, scalar)
		in, out := x.AsFloat64(), result.AsFloat64()
		for i := range out {
			out[i] = f64(in[i], s)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}

	return result
}

// toFloat64 normalizes the accepted scalar kinds.
func toFloat64(name string, scalar any) float64 {
	switch s := scalar.(type) {
	case float32:
		return float64(s)
	case float64:
		return s
	case int:
		return float64(s)
	case int32:
		return float64(s)
	default:
		panic(fmt.Sprintf("%s: unsupported scalar type %T", name, scalar))
	}
}
