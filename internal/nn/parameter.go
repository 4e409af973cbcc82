package nn

import (
	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// Parameters are named tensors that an external training driver or
// serializer can traverse and update. The core itself never mutates them
// outside of bias initialization and fusion.
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
}

// NewParameter creates a new trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// NumElements returns the parameter's element count.
func (p *Parameter[B]) NumElements() int {
	return p.tensor.NumElements()
}
