package nn

import (
	"fmt"

	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// Conv is the standard convolution block: Conv2D (no bias) followed by
// BatchNorm2d and an activation. It is the fundamental building block of
// the detection architectures this package targets.
//
// Spec args: [out_channels, kernel_size, stride, padding, activation]
type Conv[B tensor.Backend] struct {
	conv       *Conv2D[B]
	bn         *BatchNorm2d[B] // nil after fusion
	activation string

	backend B
}

// Autopad returns the padding that keeps spatial dimensions for stride 1
// ("same" padding): kernel/2. Used when a spec leaves padding unset.
func Autopad(kernelSize, padding int) int {
	if padding < 0 {
		return kernelSize / 2
	}
	return padding
}

// NewConv creates a Conv block. A negative padding selects autopad.
func NewConv[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding int, activation string, backend B) *Conv[B] {
	if !ValidActivation(activation) {
		panic(fmt.Sprintf("conv: unknown activation %q", activation))
	}
	return &Conv[B]{
		conv:       NewConv2D(inChannels, outChannels, kernelSize, stride, Autopad(kernelSize, padding), false, backend),
		bn:         NewBatchNorm2d(outChannels, 1e-5, backend),
		activation: activation,
		backend:    backend,
	}
}

// Forward applies convolution, batch normalization (unless fused), and the
// activation.
func (c *Conv[B]) Forward(xs ...*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x := c.conv.Forward(single("conv", xs))
	if c.bn != nil {
		x = c.bn.Forward(x)
	}
	return Activate(c.activation, x)
}

// Fuse folds the batch normalization into the convolution weights:
//
//	fused_weight = conv_weight * bn_scale / sqrt(bn_running_var + eps)
//	fused_bias   = bn_bias - bn_running_mean * bn_scale / sqrt(bn_running_var + eps)
//
// After fusion the block no longer matches the conv+bn pattern, so calling
// Fuse again is a no-op.
func (c *Conv[B]) Fuse() {
	if c.bn == nil {
		return
	}

	scale, shift := c.bn.foldedAffine()

	weight := c.conv.Weight().Tensor()
	wData := weight.Data()
	outChannels := weight.Shape()[0]
	perFilter := weight.NumElements() / outChannels

	for o := 0; o < outChannels; o++ {
		s := scale[o]
		for i := o * perFilter; i < (o+1)*perFilter; i++ {
			wData[i] *= s
		}
	}

	c.conv.EnableBias()
	bData := c.conv.Bias().Tensor().Data()
	for o := 0; o < outChannels; o++ {
		// Conv had no bias, so the fused bias is exactly the bn shift.
		bData[o] += shift[o]
	}

	c.bn = nil
}

// Parameters returns the convolution and (pre-fusion) batch-norm parameters.
func (c *Conv[B]) Parameters() []*Parameter[B] {
	params := c.conv.Parameters()
	if c.bn != nil {
		params = append(params, c.bn.Parameters()...)
	}
	return params
}

// OutChannels returns the number of output channels.
func (c *Conv[B]) OutChannels() int {
	return c.conv.OutChannels()
}

// Conv2D returns the underlying convolution primitive.
func (c *Conv[B]) Conv2D() *Conv2D[B] {
	return c.conv
}

// BatchNorm returns the batch-norm module, or nil after fusion.
func (c *Conv[B]) BatchNorm() *BatchNorm2d[B] {
	return c.bn
}

// String returns a string representation of the block.
func (c *Conv[B]) String() string {
	act := c.activation
	if act == ActIdentity {
		act = "Identity"
	}
	return fmt.Sprintf("Conv(%s, bn=%v, act=%s)", c.conv, c.bn != nil, act)
}
