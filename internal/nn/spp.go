package nn

import (
	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// SPP is the spatial pyramid pooling block: a 1x1 reduction Conv, a set of
// stride-1 max pools with growing kernels run over the same tensor, and a
// 1x1 Conv over the concatenation of the input with every pooled map.
//
// Spec args: [out_channels, [kernel_sizes...], activation]
type SPP[B tensor.Backend] struct {
	cv1   *Conv[B]
	cv2   *Conv[B]
	pools []*MaxPool[B]
}

// NewSPP creates an SPP block. Typical kernel sizes are [5, 9, 13].
func NewSPP[B tensor.Backend](inChannels, outChannels int, kernelSizes []int, activation string, backend B) *SPP[B] {
	if len(kernelSizes) == 0 {
		kernelSizes = []int{5, 9, 13}
	}
	hidden := inChannels / 2
	if hidden < 1 {
		hidden = 1
	}

	pools := make([]*MaxPool[B], len(kernelSizes))
	for i, k := range kernelSizes {
		pools[i] = NewMaxPool[B](k, 1, -1)
	}

	return &SPP[B]{
		cv1:   NewConv(inChannels, hidden, 1, 1, -1, activation, backend),
		cv2:   NewConv(hidden*(len(kernelSizes)+1), outChannels, 1, 1, -1, activation, backend),
		pools: pools,
	}
}

// Forward runs the pyramid pooling.
func (s *SPP[B]) Forward(xs ...*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x := s.cv1.Forward(single("spp", xs))

	gathered := make([]*tensor.Tensor[float32, B], 0, len(s.pools)+1)
	gathered = append(gathered, x)
	for _, pool := range s.pools {
		gathered = append(gathered, pool.Forward(x))
	}

	return s.cv2.Forward(tensor.Cat(gathered, 1))
}

// Fuse fuses both inner Conv blocks.
func (s *SPP[B]) Fuse() {
	s.cv1.Fuse()
	s.cv2.Fuse()
}

// Parameters returns the parameters of both inner Conv blocks.
func (s *SPP[B]) Parameters() []*Parameter[B] {
	return append(s.cv1.Parameters(), s.cv2.Parameters()...)
}

// OutChannels returns the number of output channels.
func (s *SPP[B]) OutChannels() int {
	return s.cv2.OutChannels()
}

// SPPF is the fast variant of SPP: one max pool applied three times in
// sequence instead of three pools with growing kernels. Kernel k run twice
// covers the receptive field of 2k-1, so SPPF(5) matches SPP([5, 9, 13])
// at a fraction of the pooling cost.
//
// Spec args: [out_channels, kernel_size, activation]
type SPPF[B tensor.Backend] struct {
	cv1  *Conv[B]
	cv2  *Conv[B]
	pool *MaxPool[B]
}

// NewSPPF creates an SPPF block. The typical kernel size is 5.
func NewSPPF[B tensor.Backend](inChannels, outChannels, kernelSize int, activation string, backend B) *SPPF[B] {
	if kernelSize <= 0 {
		kernelSize = 5
	}
	hidden := inChannels / 2
	if hidden < 1 {
		hidden = 1
	}

	return &SPPF[B]{
		cv1:  NewConv(inChannels, hidden, 1, 1, -1, activation, backend),
		cv2:  NewConv(hidden*4, outChannels, 1, 1, -1, activation, backend),
		pool: NewMaxPool[B](kernelSize, 1, -1),
	}
}

// Forward runs the pyramid pooling with cascaded pools.
func (s *SPPF[B]) Forward(xs ...*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x := s.cv1.Forward(single("sppf", xs))
	y1 := s.pool.Forward(x)
	y2 := s.pool.Forward(y1)
	y3 := s.pool.Forward(y2)

	return s.cv2.Forward(tensor.Cat([]*tensor.Tensor[float32, B]{x, y1, y2, y3}, 1))
}

// Fuse fuses both inner Conv blocks.
func (s *SPPF[B]) Fuse() {
	s.cv1.Fuse()
	s.cv2.Fuse()
}

// Parameters returns the parameters of both inner Conv blocks.
func (s *SPPF[B]) Parameters() []*Parameter[B] {
	return append(s.cv1.Parameters(), s.cv2.Parameters()...)
}

// OutChannels returns the number of output channels.
func (s *SPPF[B]) OutChannels() int {
	return s.cv2.OutChannels()
}
