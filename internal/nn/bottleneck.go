package nn

import (
	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// Bottleneck is the standard residual bottleneck: a 1x1 reduction Conv
// followed by a 3x3 Conv, with an identity shortcut when input and output
// channel counts match.
//
// Spec args: [out_channels, shortcut, expansion, activation]
type Bottleneck[B tensor.Backend] struct {
	cv1      *Conv[B]
	cv2      *Conv[B]
	shortcut bool
}

// NewBottleneck creates a bottleneck block. The hidden channel count is
// out_channels scaled by expansion (typically 0.5). The shortcut is only
// active when inChannels == outChannels.
func NewBottleneck[B tensor.Backend](inChannels, outChannels int, shortcut bool, expansion float64, activation string, backend B) *Bottleneck[B] {
	if expansion <= 0 {
		expansion = 0.5
	}
	hidden := int(float64(outChannels) * expansion)
	if hidden < 1 {
		hidden = 1
	}

	return &Bottleneck[B]{
		cv1:      NewConv(inChannels, hidden, 1, 1, -1, activation, backend),
		cv2:      NewConv(hidden, outChannels, 3, 1, -1, activation, backend),
		shortcut: shortcut && inChannels == outChannels,
	}
}

// Forward runs the two convolutions, adding the input when the shortcut is
// active.
func (b *Bottleneck[B]) Forward(xs ...*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x := single("bottleneck", xs)
	out := b.cv2.Forward(b.cv1.Forward(x))
	if b.shortcut {
		out = out.Add(x)
	}
	return out
}

// Fuse fuses both inner Conv blocks.
func (b *Bottleneck[B]) Fuse() {
	b.cv1.Fuse()
	b.cv2.Fuse()
}

// Parameters returns the parameters of both inner Conv blocks.
func (b *Bottleneck[B]) Parameters() []*Parameter[B] {
	return append(b.cv1.Parameters(), b.cv2.Parameters()...)
}

// OutChannels returns the number of output channels.
func (b *Bottleneck[B]) OutChannels() int {
	return b.cv2.OutChannels()
}
