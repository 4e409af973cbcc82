package nn

import (
	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// Costed is implemented by modules that can report their computational
// cost. OutputShape infers the output shape for a 4D [N,C,H,W] input
// without running the module; MACs counts multiply-accumulate operations
// for that input. Parameter-free spatial layers report zero MACs.
type Costed interface {
	OutputShape(in tensor.Shape) tensor.Shape
	MACs(in tensor.Shape) int64
}

// OutputShape infers the convolution output shape.
func (c *Conv2D[B]) OutputShape(in tensor.Shape) tensor.Shape {
	outH := (in[2]+2*c.padding-c.kernelSize)/c.stride + 1
	outW := (in[3]+2*c.padding-c.kernelSize)/c.stride + 1
	return tensor.Shape{in[0], c.outChannels, outH, outW}
}

// MACs counts one multiply-accumulate per kernel tap per output element,
// plus one per output element when a bias is present.
func (c *Conv2D[B]) MACs(in tensor.Shape) int64 {
	out := c.OutputShape(in)
	macs := int64(out.NumElements()) * int64(c.inChannels*c.kernelSize*c.kernelSize)
	if c.bias != nil {
		macs += int64(out.NumElements())
	}
	return macs
}

// OutputShape infers the Conv block output shape.
func (c *Conv[B]) OutputShape(in tensor.Shape) tensor.Shape {
	return c.conv.OutputShape(in)
}

// MACs counts the convolution cost plus one per-element affine transform
// for the batch normalization (skipped once fused).
func (c *Conv[B]) MACs(in tensor.Shape) int64 {
	macs := c.conv.MACs(in)
	if c.bn != nil {
		macs += int64(c.conv.OutputShape(in).NumElements())
	}
	return macs
}

// OutputShape infers the bottleneck output shape (spatial preserved).
func (b *Bottleneck[B]) OutputShape(in tensor.Shape) tensor.Shape {
	return b.cv2.OutputShape(b.cv1.OutputShape(in))
}

// MACs counts both inner convolutions plus the shortcut addition.
func (b *Bottleneck[B]) MACs(in tensor.Shape) int64 {
	hidden := b.cv1.OutputShape(in)
	out := b.cv2.OutputShape(hidden)
	macs := b.cv1.MACs(in) + b.cv2.MACs(hidden)
	if b.shortcut {
		macs += int64(out.NumElements())
	}
	return macs
}

// OutputShape infers the Focus output shape.
func (f *Focus[B]) OutputShape(in tensor.Shape) tensor.Shape {
	return f.conv.OutputShape(focusReducedShape(in))
}

// MACs counts the inner convolution over the space-to-channel tensor. The
// gather itself is pure data movement.
func (f *Focus[B]) MACs(in tensor.Shape) int64 {
	return f.conv.MACs(focusReducedShape(in))
}

func focusReducedShape(in tensor.Shape) tensor.Shape {
	return tensor.Shape{in[0], 4 * in[1], in[2] / 2, in[3] / 2}
}

// OutputShape infers the grouped convolution output shape.
func (d *DWConv[B]) OutputShape(in tensor.Shape) tensor.Shape {
	group := d.convs[0].OutputShape(tensor.Shape{in[0], d.inPerGroup, in[2], in[3]})
	return tensor.Shape{in[0], d.groups * d.outPerGroup, group[2], group[3]}
}

// MACs sums the per-group convolution costs plus the batch-norm affine
// transform (skipped once fused).
func (d *DWConv[B]) MACs(in tensor.Shape) int64 {
	groupIn := tensor.Shape{in[0], d.inPerGroup, in[2], in[3]}
	var macs int64
	for _, conv := range d.convs {
		macs += conv.MACs(groupIn)
	}
	if d.bn != nil {
		macs += int64(d.OutputShape(in).NumElements())
	}
	return macs
}

// OutputShape infers the SPP output shape (spatial preserved).
func (s *SPP[B]) OutputShape(in tensor.Shape) tensor.Shape {
	hidden := s.cv1.OutputShape(in)
	cat := tensor.Shape{hidden[0], hidden[1] * (len(s.pools) + 1), hidden[2], hidden[3]}
	return s.cv2.OutputShape(cat)
}

// MACs counts both 1x1 convolutions. Max pooling performs comparisons, not
// multiply-accumulates.
func (s *SPP[B]) MACs(in tensor.Shape) int64 {
	hidden := s.cv1.OutputShape(in)
	cat := tensor.Shape{hidden[0], hidden[1] * (len(s.pools) + 1), hidden[2], hidden[3]}
	return s.cv1.MACs(in) + s.cv2.MACs(cat)
}

// OutputShape infers the SPPF output shape (spatial preserved).
func (s *SPPF[B]) OutputShape(in tensor.Shape) tensor.Shape {
	hidden := s.cv1.OutputShape(in)
	cat := tensor.Shape{hidden[0], hidden[1] * 4, hidden[2], hidden[3]}
	return s.cv2.OutputShape(cat)
}

// MACs counts both 1x1 convolutions, like SPP.
func (s *SPPF[B]) MACs(in tensor.Shape) int64 {
	hidden := s.cv1.OutputShape(in)
	cat := tensor.Shape{hidden[0], hidden[1] * 4, hidden[2], hidden[3]}
	return s.cv1.MACs(in) + s.cv2.MACs(cat)
}

// OutputShape infers the C3 output shape (spatial preserved).
func (c *C3[B]) OutputShape(in tensor.Shape) tensor.Shape {
	hidden := c.cv1.OutputShape(in)
	cat := tensor.Shape{hidden[0], 2 * hidden[1], hidden[2], hidden[3]}
	return c.cv3.OutputShape(cat)
}

// MACs counts both split convolutions, the bottleneck chain, and the merge.
func (c *C3[B]) MACs(in tensor.Shape) int64 {
	macs := c.cv1.MACs(in) + c.cv2.MACs(in)

	shape := c.cv1.OutputShape(in)
	for _, b := range c.m {
		macs += b.MACs(shape)
		shape = b.OutputShape(shape)
	}

	cat := tensor.Shape{shape[0], 2 * shape[1], shape[2], shape[3]}
	return macs + c.cv3.MACs(cat)
}

// OutputShape infers the pooled output shape.
func (m *MaxPool[B]) OutputShape(in tensor.Shape) tensor.Shape {
	outH := (in[2]+2*m.padding-m.kernelSize)/m.stride + 1
	outW := (in[3]+2*m.padding-m.kernelSize)/m.stride + 1
	return tensor.Shape{in[0], in[1], outH, outW}
}

// MACs returns zero: pooling has no multiply-accumulates.
func (m *MaxPool[B]) MACs(in tensor.Shape) int64 {
	return 0
}

// OutputShape infers the upsampled output shape.
func (u *UpSample[B]) OutputShape(in tensor.Shape) tensor.Shape {
	return tensor.Shape{in[0], in[1], in[2] * u.scale, in[3] * u.scale}
}

// MACs returns zero: nearest-neighbor interpolation only copies values.
func (u *UpSample[B]) MACs(in tensor.Shape) int64 {
	return 0
}

// OutputShape walks the chain, advancing the shape through every costed
// module.
func (s *Sequential[B]) OutputShape(in tensor.Shape) tensor.Shape {
	shape := in
	for _, module := range s.modules {
		if c, ok := module.(Costed); ok {
			shape = c.OutputShape(shape)
		}
	}
	return shape
}

// MACs sums the cost of every costed module in the chain.
func (s *Sequential[B]) MACs(in tensor.Shape) int64 {
	var macs int64
	shape := in
	for _, module := range s.modules {
		c, ok := module.(Costed)
		if !ok {
			continue
		}
		macs += c.MACs(shape)
		shape = c.OutputShape(shape)
	}
	return macs
}
