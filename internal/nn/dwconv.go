package nn

import (
	"fmt"

	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// DWConv is the depthwise convolution block: a grouped convolution with
// groups = gcd(in_channels, out_channels), followed by BatchNorm2d and an
// activation. With in == out every channel is convolved independently.
//
// Spec args: [out_channels, kernel_size, stride, padding, activation]
type DWConv[B tensor.Backend] struct {
	convs      []*Conv2D[B] // one per group, each in/g -> out/g
	bn         *BatchNorm2d[B]
	activation string

	groups      int
	inPerGroup  int
	outPerGroup int
}

// NewDWConv creates a DWConv block. A negative padding selects autopad.
func NewDWConv[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding int, activation string, backend B) *DWConv[B] {
	if !ValidActivation(activation) {
		panic(fmt.Sprintf("dwconv: unknown activation %q", activation))
	}
	groups := gcd(inChannels, outChannels)

	convs := make([]*Conv2D[B], groups)
	for g := range convs {
		convs[g] = NewConv2D(inChannels/groups, outChannels/groups, kernelSize, stride,
			Autopad(kernelSize, padding), false, backend)
	}

	return &DWConv[B]{
		convs:       convs,
		bn:          NewBatchNorm2d(outChannels, 1e-5, backend),
		activation:  activation,
		groups:      groups,
		inPerGroup:  inChannels / groups,
		outPerGroup: outChannels / groups,
	}
}

// Forward splits the input channels into groups, convolves each group
// independently, and applies batch normalization (unless fused) and the
// activation over the concatenated result.
func (d *DWConv[B]) Forward(xs ...*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x := single("dwconv", xs)

	var out *tensor.Tensor[float32, B]
	if d.groups == 1 {
		out = d.convs[0].Forward(x)
	} else {
		parts := make([]*tensor.Tensor[float32, B], d.groups)
		for g, conv := range d.convs {
			parts[g] = conv.Forward(channelSlice(x, g*d.inPerGroup, (g+1)*d.inPerGroup))
		}
		out = tensor.Cat(parts, 1)
	}

	if d.bn != nil {
		out = d.bn.Forward(out)
	}
	return Activate(d.activation, out)
}

// Fuse folds the batch normalization into the group convolutions, taking
// each group's slice of the per-channel scale and shift.
func (d *DWConv[B]) Fuse() {
	if d.bn == nil {
		return
	}

	scale, shift := d.bn.foldedAffine()
	for g, conv := range d.convs {
		weight := conv.Weight().Tensor()
		wData := weight.Data()
		perFilter := weight.NumElements() / d.outPerGroup

		conv.EnableBias()
		bData := conv.Bias().Tensor().Data()

		for o := 0; o < d.outPerGroup; o++ {
			ch := g*d.outPerGroup + o
			s := scale[ch]
			for i := o * perFilter; i < (o+1)*perFilter; i++ {
				wData[i] *= s
			}
			bData[o] += shift[ch]
		}
	}

	d.bn = nil
}

// Parameters returns the group convolution and (pre-fusion) batch-norm
// parameters.
func (d *DWConv[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, conv := range d.convs {
		params = append(params, conv.Parameters()...)
	}
	if d.bn != nil {
		params = append(params, d.bn.Parameters()...)
	}
	return params
}

// OutChannels returns the number of output channels.
func (d *DWConv[B]) OutChannels() int {
	return d.groups * d.outPerGroup
}

// Groups returns the group count, gcd(in_channels, out_channels).
func (d *DWConv[B]) Groups() int {
	return d.groups
}

// channelSlice copies channels [from, to) of a [N,C,H,W] tensor into a new
// [N, to-from, H, W] tensor. Channel planes are contiguous per batch entry.
func channelSlice[B tensor.Backend](x *tensor.Tensor[float32, B], from, to int) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	N, C, H, W := shape[0], shape[1], shape[2], shape[3]

	out := tensor.Zeros[float32](tensor.Shape{N, to - from, H, W}, x.Backend())
	in := x.Data()
	data := out.Data()

	plane := H * W
	width := (to - from) * plane
	for n := 0; n < N; n++ {
		copy(data[n*width:(n+1)*width], in[(n*C+from)*plane:(n*C+to)*plane])
	}
	return out
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
