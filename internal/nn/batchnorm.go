package nn

import (
	"fmt"
	"math"

	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

// BatchNorm2d normalizes each channel of a 4D tensor using running
// statistics:
//
//	y = (x - running_mean) / sqrt(running_var + eps) * weight + bias
//
// Running statistics are owned by an external training driver; this module
// always normalizes with them, which is the inference-time behavior the
// model builder needs for calibration, decoding, and fusion.
type BatchNorm2d[B tensor.Backend] struct {
	numFeatures int
	eps         float64

	weight      *Parameter[B] // scale, init 1
	bias        *Parameter[B] // shift, init 0
	runningMean *Parameter[B] // init 0
	runningVar  *Parameter[B] // init 1

	backend B
}

// NewBatchNorm2d creates a BatchNorm2d over numFeatures channels.
func NewBatchNorm2d[B tensor.Backend](numFeatures int, eps float64, backend B) *BatchNorm2d[B] {
	if numFeatures <= 0 {
		panic(fmt.Sprintf("batchnorm2d: invalid feature count %d", numFeatures))
	}
	if eps <= 0 {
		eps = 1e-5
	}

	shape := tensor.Shape{numFeatures}
	return &BatchNorm2d[B]{
		numFeatures: numFeatures,
		eps:         eps,
		weight:      NewParameter("weight", Ones(shape, backend)),
		bias:        NewParameter("bias", Zeros(shape, backend)),
		runningMean: NewParameter("running_mean", Zeros(shape, backend)),
		runningVar:  NewParameter("running_var", Ones(shape, backend)),
		backend:     backend,
	}
}

// Forward normalizes the input with the running statistics.
func (bn *BatchNorm2d[B]) Forward(xs ...*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	input := single("batchnorm2d", xs)

	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("batchnorm2d: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}
	if shape[1] != bn.numFeatures {
		panic(fmt.Sprintf("batchnorm2d: input channels %d != expected %d", shape[1], bn.numFeatures))
	}

	// Per-channel affine transform computed once, applied per plane.
	scale, shift := bn.foldedAffine()

	output := tensor.Zeros[float32](shape, bn.backend)
	in := input.Data()
	out := output.Data()

	N, C := shape[0], shape[1]
	plane := shape[2] * shape[3]
	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			s, sh := scale[c], shift[c]
			offset := (n*C + c) * plane
			for i := offset; i < offset+plane; i++ {
				out[i] = in[i]*s + sh
			}
		}
	}

	return output
}

// foldedAffine returns the per-channel scale and shift equivalent to the
// normalization: scale = w / sqrt(var+eps), shift = b - mean*scale.
func (bn *BatchNorm2d[B]) foldedAffine() (scale, shift []float32) {
	w := bn.weight.Tensor().Data()
	b := bn.bias.Tensor().Data()
	mean := bn.runningMean.Tensor().Data()
	variance := bn.runningVar.Tensor().Data()

	scale = make([]float32, bn.numFeatures)
	shift = make([]float32, bn.numFeatures)
	for c := 0; c < bn.numFeatures; c++ {
		s := w[c] / sqrt32(variance[c]+float32(bn.eps))
		scale[c] = s
		shift[c] = b[c] - mean[c]*s
	}
	return scale, shift
}

// Parameters returns all parameters, running statistics included so an
// external serializer can persist them.
func (bn *BatchNorm2d[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{bn.weight, bn.bias, bn.runningMean, bn.runningVar}
}

// NumFeatures returns the channel count.
func (bn *BatchNorm2d[B]) NumFeatures() int {
	return bn.numFeatures
}

// Eps returns the numerical-stability epsilon.
func (bn *BatchNorm2d[B]) Eps() float64 {
	return bn.eps
}

// Weight returns the scale parameter.
func (bn *BatchNorm2d[B]) Weight() *Parameter[B] { return bn.weight }

// Bias returns the shift parameter.
func (bn *BatchNorm2d[B]) Bias() *Parameter[B] { return bn.bias }

// RunningMean returns the running mean parameter.
func (bn *BatchNorm2d[B]) RunningMean() *Parameter[B] { return bn.runningMean }

// RunningVar returns the running variance parameter.
func (bn *BatchNorm2d[B]) RunningVar() *Parameter[B] { return bn.runningVar }
