// Package cpu implements the pure-Go CPU backend.
package cpu

import (
	"fmt"

	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
type CPUBackend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", a, b,
		func(x, y float32) float32 { return x + y },
		func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("sub", a, b,
		func(x, y float32) float32 { return x - y },
		func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", a, b,
		func(x, y float32) float32 { return x * y },
		func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("div", a, b,
		func(x, y float32) float32 { return x / y },
		func(x, y float64) float64 { return x / y })
}

// binary applies a binary element-wise operation with broadcasting.
func (cpu *CPUBackend) binary(name string, a, b *tensor.RawTensor,
	f32 func(x, y float32) float32, f64 func(x, y float64) float64) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", name, a.DType(), b.DType()))
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result, err := tensor.NewRaw(outShape, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	switch a.DType() {
	case tensor.Float32:
		if needsBroadcast {
			binaryBroadcast(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(),
				outShape, a.Shape(), b.Shape(), f32)
		} else {
			binaryVectorized(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), f32)
		}
	case tensor.Float64:
		if needsBroadcast {
			binaryBroadcast(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(),
				outShape, a.Shape(), b.Shape(), f64)
		} else {
			binaryVectorized(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), f64)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}

	return result
}

// binaryVectorized applies op over same-shape operands.
func binaryVectorized[T float32 | float64](out, a, b []T, op func(x, y T) T) {
	for i := range out {
		out[i] = op(a[i], b[i])
	}
}

// binaryBroadcast applies op with general NumPy-style broadcasting.
func binaryBroadcast[T float32 | float64](out, a, b []T, outShape, aShape, bShape tensor.Shape, op func(x, y T) T) {
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)
	outStrides := outShape.ComputeStrides()

	idx := make([]int, len(outShape))
	for i := range out {
		// Unravel flat index into multi-dimensional coordinates.
		rem := i
		for d := range outShape {
			idx[d] = rem / outStrides[d]
			rem %= outStrides[d]
		}

		aIdx, bIdx := 0, 0
		for d := range outShape {
			aIdx += idx[d] * aStrides[d]
			bIdx += idx[d] * bStrides[d]
		}
		out[i] = op(a[aIdx], b[bIdx])
	}
}

// broadcastStrides returns element strides for a source shape broadcast to
// an output shape; broadcast dimensions get stride 0.
func broadcastStrides(src, out tensor.Shape) []int {
	srcStrides := src.ComputeStrides()
	strides := make([]int, len(out))
	offset := len(out) - len(src)
	for d := range out {
		sd := d - offset
		if sd < 0 || src[sd] == 1 {
			strides[d] = 0
		} else {
			strides[d] = srcStrides[sd]
		}
	}
	return strides
}
