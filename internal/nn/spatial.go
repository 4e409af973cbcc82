package nn

import (
	"fmt"

	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// MaxPool is a 2D max-pooling layer.
//
// Spec args: [kernel_size, stride, padding]
type MaxPool[B tensor.Backend] struct {
	kernelSize int
	stride     int
	padding    int
}

// NewMaxPool creates a MaxPool layer. A negative padding selects autopad,
// a zero stride defaults to the kernel size.
func NewMaxPool[B tensor.Backend](kernelSize, stride, padding int) *MaxPool[B] {
	if stride == 0 {
		stride = kernelSize
	}
	return &MaxPool[B]{
		kernelSize: kernelSize,
		stride:     stride,
		padding:    Autopad(kernelSize, padding),
	}
}

// Forward applies max pooling.
func (m *MaxPool[B]) Forward(xs ...*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x := single("maxpool", xs)
	raw := x.Backend().MaxPool2D(x.Raw(), m.kernelSize, m.stride, m.padding)
	return tensor.New[float32, B](raw, x.Backend())
}

// Parameters returns an empty slice (MaxPool has no trainable parameters).
func (m *MaxPool[B]) Parameters() []*Parameter[B] {
	return nil
}

// UpSample scales spatial dimensions by an integer factor using
// nearest-neighbor interpolation.
//
// Spec args: [scale_factor, mode]
type UpSample[B tensor.Backend] struct {
	scale int
}

// NewUpSample creates an UpSample layer. Only the "nearest" mode is
// supported.
func NewUpSample[B tensor.Backend](scale int, mode string) *UpSample[B] {
	if mode != "" && mode != "nearest" {
		panic(fmt.Sprintf("upsample: unsupported mode %q", mode))
	}
	if scale <= 0 {
		panic(fmt.Sprintf("upsample: invalid scale factor %d", scale))
	}
	return &UpSample[B]{scale: scale}
}

// Forward applies nearest-neighbor upsampling.
func (u *UpSample[B]) Forward(xs ...*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x := single("upsample", xs)
	raw := x.Backend().Upsample2D(x.Raw(), u.scale)
	return tensor.New[float32, B](raw, x.Backend())
}

// Parameters returns an empty slice (UpSample has no trainable parameters).
func (u *UpSample[B]) Parameters() []*Parameter[B] {
	return nil
}
