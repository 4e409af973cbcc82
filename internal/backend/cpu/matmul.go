package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// MatMul performs 2D matrix multiplication: [M, K] @ [K, N] -> [M, N].
//
// The float64 path delegates to gonum's mat.Dense, which carries blocked
// and vectorized kernels; float32 uses a direct loop.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: expected 2D tensors, got %v and %v", aShape, bShape))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: inner dimensions mismatch: %v @ %v", aShape, bShape))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("matmul: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}

	M, K, N := aShape[0], aShape[1], bShape[1]

	result, err := tensor.NewRaw(tensor.Shape{M, N}, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: failed to create result tensor: %v", err))
	}

	switch a.DType() {
	case tensor.Float32:
		matmulFloat32(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), M, K, N)
	case tensor.Float64:
		am := mat.NewDense(M, K, a.AsFloat64())
		bm := mat.NewDense(K, N, b.AsFloat64())
		om := mat.NewDense(M, N, result.AsFloat64())
		om.Mul(am, bm)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}

	return result
}

func matmulFloat32(out, a, b []float32, M, K, N int) {
	for i := 0; i < M; i++ {
		aRow := a[i*K : (i+1)*K]
		outRow := out[i*N : (i+1)*N]
		for k := 0; k < K; k++ {
			av := aRow[k]
			if av == 0 {
				continue
			}
			bRow := b[k*N : (k+1)*N]
			for j := 0; j < N; j++ {
				outRow[j] += av * bRow[j]
			}
		}
	}
}
