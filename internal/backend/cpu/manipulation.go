package cpu

import (
	"fmt"

	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// Reshape returns a view of the tensor with a new shape.
// The total number of elements must match.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if newShape.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v into %v: element count mismatch", t.Shape(), newShape))
	}
	return t.WithShape(newShape)
}

// Transpose permutes the tensor's axes. With no axes given, the order of all
// axes is reversed. The result is materialized in contiguous row-major order.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: expected %d axes, got %d", ndim, len(axes)))
	}

	seen := make([]bool, ndim)
	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			panic(fmt.Sprintf("transpose: invalid axes %v for %dD tensor", axes, ndim))
		}
		seen[ax] = true
		outShape[i] = shape[ax]
	}

	output, err := tensor.NewRaw(outShape, t.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("transpose: failed to create output: %v", err))
	}

	inStrides := shape.ComputeStrides()
	outStrides := outShape.ComputeStrides()

	switch t.DType() {
	case tensor.Float32:
		transposeCopy(output.AsFloat32(), t.AsFloat32(), axes, outShape, inStrides, outStrides)
	case tensor.Float64:
		transposeCopy(output.AsFloat64(), t.AsFloat64(), axes, outShape, inStrides, outStrides)
	case tensor.Int32:
		transposeCopy(output.AsInt32(), t.AsInt32(), axes, outShape, inStrides, outStrides)
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", t.DType()))
	}

	return output
}

func transposeCopy[T float32 | float64 | int32](out, in []T, axes []int, outShape tensor.Shape, inStrides, outStrides []int) {
	idx := make([]int, len(outShape))
	for i := range out {
		rem := i
		for d := range outShape {
			idx[d] = rem / outStrides[d]
			rem %= outStrides[d]
		}

		srcIdx := 0
		for d := range outShape {
			srcIdx += idx[d] * inStrides[axes[d]]
		}
		out[i] = in[srcIdx]
	}
}

// Cat concatenates tensors along a dimension. All tensors must share dtype
// and every dimension except the concatenation one.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: no tensors given")
	}

	first := tensors[0]
	ndim := len(first.Shape())
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("cat: invalid dim %d for %dD tensors", dim, ndim))
	}

	outShape := first.Shape().Clone()
	for i, t := range tensors[1:] {
		s := t.Shape()
		if len(s) != ndim || t.DType() != first.DType() {
			panic(fmt.Sprintf("cat: tensor %d is incompatible with %v", i+1, first.Shape()))
		}
		for d := 0; d < ndim; d++ {
			if d != dim && s[d] != outShape[d] {
				panic(fmt.Sprintf("cat: shape mismatch at dim %d: %v vs %v", d, first.Shape(), s))
			}
		}
		outShape[dim] += s[dim]
	}

	output, err := tensor.NewRaw(outShape, first.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("cat: failed to create output: %v", err))
	}

	// Copy block-wise: outer = product of dims before `dim`,
	// inner = product of dims after `dim` times element size.
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= outShape[d]
	}
	innerBytes := first.DType().Size()
	for d := dim + 1; d < ndim; d++ {
		innerBytes *= outShape[d]
	}

	outData := output.Data()
	outRowBytes := outShape[dim] * innerBytes
	offset := 0
	for _, t := range tensors {
		rowBytes := t.Shape()[dim] * innerBytes
		srcData := t.Data()
		for o := 0; o < outer; o++ {
			copy(outData[o*outRowBytes+offset:o*outRowBytes+offset+rowBytes],
				srcData[o*rowBytes:(o+1)*rowBytes])
		}
		offset += rowBytes
	}

	return output
}
