package nn

import (
	"fmt"

	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// Concat concatenates its inputs along a dimension (channel dimension 1 in
// the usual skip-connection case).
//
// Spec args: [dimension]
type Concat[B tensor.Backend] struct {
	dim int
}

// NewConcat creates a Concat layer over the given dimension.
func NewConcat[B tensor.Backend](dim int) *Concat[B] {
	return &Concat[B]{dim: dim}
}

// Forward concatenates all inputs.
func (c *Concat[B]) Forward(xs ...*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if len(xs) < 2 {
		panic("concat: expected at least two input tensors")
	}
	return tensor.Cat(xs, c.dim)
}

// Parameters returns an empty slice (Concat has no trainable parameters).
func (c *Concat[B]) Parameters() []*Parameter[B] {
	return nil
}

// Shortcut sums its inputs element-wise. All inputs must share the same
// shape; the assembler enforces equal channel counts at build time.
type Shortcut[B tensor.Backend] struct{}

// NewShortcut creates a Shortcut layer.
func NewShortcut[B tensor.Backend]() *Shortcut[B] {
	return &Shortcut[B]{}
}

// Forward sums all inputs.
func (s *Shortcut[B]) Forward(xs ...*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if len(xs) < 2 {
		panic("shortcut: expected at least two input tensors")
	}
	out := xs[0]
	for _, x := range xs[1:] {
		if !x.Shape().Equal(out.Shape()) {
			panic(fmt.Sprintf("shortcut: shape mismatch %v vs %v", out.Shape(), x.Shape()))
		}
		out = out.Add(x)
	}
	return out
}

// Parameters returns an empty slice (Shortcut has no trainable parameters).
func (s *Shortcut[B]) Parameters() []*Parameter[B] {
	return nil
}
