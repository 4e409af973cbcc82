package nn

import (
	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// C3 is the CSP bottleneck with three convolutions: the input is split
// through two parallel 1x1 reductions, one side runs a chain of
// full-expansion bottlenecks, and a final 1x1 Conv merges the
// concatenation.
//
// Spec args: [out_channels, depth, shortcut, expansion, activation]
type C3[B tensor.Backend] struct {
	cv1 *Conv[B]
	cv2 *Conv[B]
	cv3 *Conv[B]
	m   []*Bottleneck[B]
}

// NewC3 creates a C3 block with depth inner bottlenecks. The hidden channel
// count is out_channels scaled by expansion (typically 0.5); the inner
// bottlenecks run at full expansion so their shortcut is always available.
func NewC3[B tensor.Backend](inChannels, outChannels, depth int, shortcut bool, expansion float64, activation string, backend B) *C3[B] {
	if expansion <= 0 {
		expansion = 0.5
	}
	if depth < 1 {
		depth = 1
	}
	hidden := int(float64(outChannels) * expansion)
	if hidden < 1 {
		hidden = 1
	}

	m := make([]*Bottleneck[B], depth)
	for i := range m {
		m[i] = NewBottleneck(hidden, hidden, shortcut, 1.0, activation, backend)
	}

	return &C3[B]{
		cv1: NewConv(inChannels, hidden, 1, 1, -1, activation, backend),
		cv2: NewConv(inChannels, hidden, 1, 1, -1, activation, backend),
		cv3: NewConv(2*hidden, outChannels, 1, 1, -1, activation, backend),
		m:   m,
	}
}

// Forward runs the split, the bottleneck chain, and the merge.
func (c *C3[B]) Forward(xs ...*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x := single("c3", xs)

	a := c.cv1.Forward(x)
	for _, b := range c.m {
		a = b.Forward(a)
	}
	b := c.cv2.Forward(x)

	return c.cv3.Forward(tensor.Cat([]*tensor.Tensor[float32, B]{a, b}, 1))
}

// Fuse fuses every inner Conv block.
func (c *C3[B]) Fuse() {
	c.cv1.Fuse()
	c.cv2.Fuse()
	c.cv3.Fuse()
	for _, b := range c.m {
		b.Fuse()
	}
}

// Parameters returns the parameters of every inner block.
func (c *C3[B]) Parameters() []*Parameter[B] {
	params := append(c.cv1.Parameters(), c.cv2.Parameters()...)
	for _, b := range c.m {
		params = append(params, b.Parameters()...)
	}
	return append(params, c.cv3.Parameters()...)
}

// OutChannels returns the number of output channels.
func (c *C3[B]) OutChannels() int {
	return c.cv3.OutChannels()
}

// Depth returns the inner bottleneck count.
func (c *C3[B]) Depth() int {
	return len(c.m)
}
