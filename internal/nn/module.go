// Package nn implements the neural network layer modules for torch-ignite.
//
// This package provides the building blocks the model assembler composes
// into a computation graph:
//   - Module interface: base interface for all layers
//   - Parameter: named trainable tensors
//   - Conv: convolution + batch normalization + activation block
//   - Bottleneck, Focus, SPP: composite convolution blocks
//   - Concat, Shortcut: multi-input merge layers
//   - MaxPool, UpSample: spatial layers
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// Module is the base interface for all neural network layers.
//
// Forward is variadic because graph layers may consume several upstream
// outputs (Concat, Shortcut); single-input layers expect exactly one
// argument and panic otherwise. The model assembler guarantees the arity
// matches the resolved source list of each layer.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given its input tensor(s).
	Forward(xs ...*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module,
	// including nested module parameters. Returns an empty slice for
	// modules without trainable parameters.
	Parameters() []*Parameter[B]
}

// Fuser is implemented by modules that can fold their batch normalization
// into convolution weights for faster inference. Fuse must be idempotent.
type Fuser interface {
	Fuse()
}

// single asserts the single-input forward contract.
func single[B tensor.Backend](name string, xs []*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if len(xs) != 1 {
		panic(name + ": expected exactly one input tensor")
	}
	return xs[0]
}
