package cpu

import (
	"math"

	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// Activations are optional backend capabilities discovered by the nn layer
// via interface assertion, so the core Backend interface stays small.

// ReLU applies f(x) = max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryMath("relu", x, func(v float64) float64 {
		if v > 0 {
			return v
		}
		return 0
	})
}

// Sigmoid applies f(x) = 1 / (1 + exp(-x)) element-wise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryMath("sigmoid", x, sigmoid)
}

// SiLU applies f(x) = x * sigmoid(x) element-wise (a.k.a. swish).
func (cpu *CPUBackend) SiLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryMath("silu", x, func(v float64) float64 {
		return v * sigmoid(v)
	})
}

// LeakyReLU applies f(x) = x for x > 0, negativeSlope*x otherwise.
func (cpu *CPUBackend) LeakyReLU(x *tensor.RawTensor, negativeSlope float64) *tensor.RawTensor {
	return cpu.unaryMath("leaky_relu", x, func(v float64) float64 {
		if v > 0 {
			return v
		}
		return negativeSlope * v
	})
}

func sigmoid(v float64) float64 {
	return 1.0 / (1.0 + math.Exp(-v))
}
