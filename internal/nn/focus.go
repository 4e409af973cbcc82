package nn

import (
	"fmt"

	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// Focus reduces spatial resolution by gathering every second pixel of a
// [N,C,H,W] tensor into the channel dimension ([N,4C,H/2,W/2]) and running
// a Conv block over the result. H and W must be even.
//
// Spec args: [out_channels, kernel_size, stride, padding, activation]
type Focus[B tensor.Backend] struct {
	conv *Conv[B]
}

// NewFocus creates a Focus block; the inner Conv sees 4*inChannels.
func NewFocus[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding int, activation string, backend B) *Focus[B] {
	return &Focus[B]{
		conv: NewConv(4*inChannels, outChannels, kernelSize, stride, padding, activation, backend),
	}
}

// Forward reduces the image by half and runs the convolution.
func (f *Focus[B]) Forward(xs ...*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x := single("focus", xs)
	return f.conv.Forward(reduceFocus(x))
}

// reduceFocus gathers the four pixel parities into channels:
// [x[::2,::2], x[1::2,::2], x[::2,1::2], x[1::2,1::2]] concatenated on dim 1.
func reduceFocus[B tensor.Backend](x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("focus: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}
	N, C, H, W := shape[0], shape[1], shape[2], shape[3]
	if H%2 != 0 || W%2 != 0 {
		panic(fmt.Sprintf("focus: spatial dimensions must be even, got %dx%d", H, W))
	}

	backend := x.Backend()
	in := x.Data()
	halves := make([]*tensor.Tensor[float32, B], 4)

	// Parity offsets in (row, col) order matching the slicing pattern above.
	offsets := [4][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	for p, off := range offsets {
		half := tensor.Zeros[float32](tensor.Shape{N, C, H / 2, W / 2}, backend)
		out := half.Data()
		i := 0
		for nc := 0; nc < N*C; nc++ {
			plane := in[nc*H*W : (nc+1)*H*W]
			for h := off[0]; h < H; h += 2 {
				row := plane[h*W : (h+1)*W]
				for w := off[1]; w < W; w += 2 {
					out[i] = row[w]
					i++
				}
			}
		}
		halves[p] = half
	}

	return tensor.Cat(halves, 1)
}

// Fuse fuses the inner Conv block.
func (f *Focus[B]) Fuse() {
	f.conv.Fuse()
}

// Parameters returns the inner Conv parameters.
func (f *Focus[B]) Parameters() []*Parameter[B] {
	return f.conv.Parameters()
}

// OutChannels returns the number of output channels.
func (f *Focus[B]) OutChannels() int {
	return f.conv.OutChannels()
}
