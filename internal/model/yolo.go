package model

import (
	"fmt"
	"math"

	"github.com/JeiKeiLim/torch-ignite/internal/nn"
	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// calibrationSize is the square dummy-input size used for the stride
// calibration forward pass. Every scale's downsampling factor must divide it.
const calibrationSize = 256

// YOLOHead is the terminal detection layer. Given one feature map per
// detection scale it produces per-anchor box/class predictions: raw
// [batch, anchors, H, W, 5+classes] tensors in training mode, plus a
// decoded and flattened [batch, total, 5+classes] tensor in inference mode.
//
// The head owns one 1x1 projection convolution per scale, the anchor
// geometry, and the per-scale strides measured by a calibration pass.
type YOLOHead[B tensor.Backend] struct {
	numClasses int
	numOutputs int         // 5 + numClasses
	anchors    [][]float64 // per scale, flattened (w, h) pairs in input pixels
	numAnchors int         // anchors per scale

	convs   []*nn.Conv2D[B] // per-scale projections, with bias
	strides []float64       // nil until calibrated

	backend B
}

// NewYOLOHead creates a detection head. anchors holds one flattened
// (w, h, w, h, ...) list per scale and inChannels one channel count per
// scale; their lengths must match and every scale must declare the same
// number of anchor pairs.
func NewYOLOHead[B tensor.Backend](numClasses int, anchors [][]float64, inChannels []int, backend B) (*YOLOHead[B], error) {
	if numClasses <= 0 {
		return nil, &ConfigError{Field: "args", Msg: fmt.Sprintf("invalid class count %d", numClasses)}
	}
	if len(anchors) == 0 || len(anchors) != len(inChannels) {
		return nil, &ConfigError{Field: "args",
			Msg: fmt.Sprintf("anchor scale count %d != head input count %d", len(anchors), len(inChannels))}
	}

	numAnchors := len(anchors[0]) / 2
	for i, a := range anchors {
		if len(a) == 0 || len(a)%2 != 0 || len(a)/2 != numAnchors {
			return nil, &ConfigError{Field: "args", Msg: fmt.Sprintf("scale %d: malformed anchor list of length %d", i, len(a))}
		}
	}

	numOutputs := 5 + numClasses
	convs := make([]*nn.Conv2D[B], len(inChannels))
	for i, ch := range inChannels {
		convs[i] = nn.NewConv2D(ch, numAnchors*numOutputs, 1, 1, 0, true, backend)
	}

	return &YOLOHead[B]{
		numClasses: numClasses,
		numOutputs: numOutputs,
		anchors:    anchors,
		numAnchors: numAnchors,
		convs:      convs,
		backend:    backend,
	}, nil
}

// NumClasses returns the class count.
func (h *YOLOHead[B]) NumClasses() int { return h.numClasses }

// NumScales returns the number of detection scales.
func (h *YOLOHead[B]) NumScales() int { return len(h.convs) }

// NumAnchors returns the anchors per scale.
func (h *YOLOHead[B]) NumAnchors() int { return h.numAnchors }

// Anchors returns the per-scale anchor (w, h) pairs in input pixels.
func (h *YOLOHead[B]) Anchors() [][]float64 { return h.anchors }

// Conv returns the projection convolution for a scale.
func (h *YOLOHead[B]) Conv(scale int) *nn.Conv2D[B] { return h.convs[scale] }

// Calibrated reports whether strides have been measured.
func (h *YOLOHead[B]) Calibrated() bool { return h.strides != nil }

// Strides returns the per-scale downsampling factors, or nil before
// calibration.
func (h *YOLOHead[B]) Strides() []float64 { return h.strides }

// SetStrides records the measured per-scale strides.
func (h *YOLOHead[B]) SetStrides(strides []float64) error {
	if len(strides) != len(h.convs) {
		return &ConfigError{Field: "stride", Msg: fmt.Sprintf("got %d strides for %d scales", len(strides), len(h.convs))}
	}
	h.strides = append([]float64(nil), strides...)
	return nil
}

// ForwardRaw applies the per-scale projections and reshapes each result to
// [batch, anchors, H, W, 5+classes]. This is the training-mode output.
func (h *YOLOHead[B]) ForwardRaw(features []*tensor.Tensor[float32, B]) ([]*tensor.Tensor[float32, B], error) {
	if len(features) != len(h.convs) {
		return nil, fmt.Errorf("yolo head: got %d feature maps for %d scales", len(features), len(h.convs))
	}

	outputs := make([]*tensor.Tensor[float32, B], len(features))
	for i, x := range features {
		p := h.convs[i].Forward(x)

		shape := p.Shape()
		batch, height, width := shape[0], shape[2], shape[3]

		// [N, na*no, H, W] -> [N, na, no, H, W] -> [N, na, H, W, no]
		outputs[i] = p.
			Reshape(batch, h.numAnchors, h.numOutputs, height, width).
			Transpose(0, 1, 3, 4, 2)
	}
	return outputs, nil
}

// Forward produces the detection output. In training mode only the raw
// per-scale tensors are filled; in inference mode the decoded, flattened
// prediction tensor is filled as well. Inference requires calibration.
func (h *YOLOHead[B]) Forward(features []*tensor.Tensor[float32, B], training bool) (*DetectOutput[B], error) {
	raw, err := h.ForwardRaw(features)
	if err != nil {
		return nil, err
	}
	if training {
		return &DetectOutput[B]{Raw: raw}, nil
	}

	if !h.Calibrated() {
		return nil, ErrNotCalibrated
	}

	decoded := make([]*tensor.Tensor[float32, B], len(raw))
	for i, p := range raw {
		decoded[i] = h.decodeScale(p, i)
	}
	return &DetectOutput[B]{
		Decoded: tensor.Cat(decoded, 1),
		Raw:     raw,
	}, nil
}

// decodeScale converts a raw [N, na, H, W, no] tensor into absolute-frame
// predictions [N, na*H*W, no]:
//
//	xy = (2*sigmoid(t_xy) - 0.5 + grid) * stride
//	wh = (2*sigmoid(t_wh))^2 * anchor
//
// with objectness and class scores sigmoid-activated in place. Anchors are
// kept in input pixels, which is the grid-unit anchor scaled by the stride.
func (h *YOLOHead[B]) decodeScale(p *tensor.Tensor[float32, B], scale int) *tensor.Tensor[float32, B] {
	shape := p.Shape()
	batch, na, height, width, no := shape[0], shape[1], shape[2], shape[3], shape[4]
	stride := float32(h.strides[scale])

	out := tensor.Zeros[float32](tensor.Shape{batch, na * height * width, no}, h.backend)
	in := p.Data()
	data := out.Data()

	idx := 0
	for n := 0; n < batch; n++ {
		for a := 0; a < na; a++ {
			anchorW := float32(h.anchors[scale][2*a])
			anchorH := float32(h.anchors[scale][2*a+1])

			for gy := 0; gy < height; gy++ {
				for gx := 0; gx < width; gx++ {
					base := (((n*na+a)*height+gy)*width + gx) * no
					row := data[idx*no : (idx+1)*no]

					for o := 0; o < no; o++ {
						row[o] = sigmoid32(in[base+o])
					}
					row[0] = (row[0]*2 - 0.5 + float32(gx)) * stride
					row[1] = (row[1]*2 - 0.5 + float32(gy)) * stride
					row[2] = (row[2] * 2) * (row[2] * 2) * anchorW
					row[3] = (row[3] * 2) * (row[3] * 2) * anchorH
					idx++
				}
			}
		}
	}

	return out
}

func sigmoid32(v float32) float32 {
	return float32(1.0 / (1.0 + math.Exp(-float64(v))))
}

// BiasInit configures InitializeBiases. ClassProbability and ClassFrequency
// are mutually exclusive; with neither set the uniform log-prior
// ln(1/num_classes) is applied.
type BiasInit struct {
	// ClassProbability applies ln(p / (num_classes - 0.99)) to every
	// class bias.
	ClassProbability *float64

	// ClassFrequency applies the empirical prior ln(freq[c] / sum(freq))
	// per class. Must have num_classes entries.
	ClassFrequency []float64

	// ObjectsPerImage is the expected object count per image (default 8).
	ObjectsPerImage float64

	// ImageSize is the reference image size the object count refers to
	// (default 640).
	ImageSize float64
}

// InitializeBiases seeds the projection biases with detection priors: the
// objectness bias encodes the expected object density per grid cell at each
// scale,
//
//	bias_obj = ln(objects / (image_size/stride)^2)
//
// and the class biases encode a class prior. Requires calibrated strides.
func (h *YOLOHead[B]) InitializeBiases(cfg BiasInit) error {
	if !h.Calibrated() {
		return ErrNotCalibrated
	}
	if cfg.ClassProbability != nil && cfg.ClassFrequency != nil {
		return ErrAmbiguousBiasInit
	}
	if cfg.ClassFrequency != nil && len(cfg.ClassFrequency) != h.numClasses {
		return &ConfigError{Field: "class_frequency",
			Msg: fmt.Sprintf("got %d frequencies for %d classes", len(cfg.ClassFrequency), h.numClasses)}
	}

	objects := cfg.ObjectsPerImage
	if objects <= 0 {
		objects = 8
	}
	imageSize := cfg.ImageSize
	if imageSize <= 0 {
		imageSize = 640
	}

	classBias := make([]float64, h.numClasses)
	switch {
	case cfg.ClassProbability != nil:
		uniform := math.Log(*cfg.ClassProbability / (float64(h.numClasses) - 0.99))
		for c := range classBias {
			classBias[c] = uniform
		}
	case cfg.ClassFrequency != nil:
		total := 0.0
		for _, f := range cfg.ClassFrequency {
			total += f
		}
		for c, f := range cfg.ClassFrequency {
			classBias[c] = math.Log(f / total)
		}
	default:
		// Neutral default: uniform log-prior over classes.
		uniform := math.Log(1.0 / float64(h.numClasses))
		for c := range classBias {
			classBias[c] = uniform
		}
	}

	for i, conv := range h.convs {
		cells := imageSize / h.strides[i]
		objBias := math.Log(objects / (cells * cells))

		bias := conv.Bias().Tensor().Data() // viewed as [na, no]
		for a := 0; a < h.numAnchors; a++ {
			row := bias[a*h.numOutputs : (a+1)*h.numOutputs]
			row[4] += float32(objBias)
			for c := 0; c < h.numClasses; c++ {
				row[5+c] += float32(classBias[c])
			}
		}
	}

	return nil
}

// Fuse is a no-op: head projections carry no batch normalization. Present
// so graph-wide fusion can treat the head like any other layer.
func (h *YOLOHead[B]) Fuse() {}

// Parameters returns the projection parameters of every scale.
func (h *YOLOHead[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, conv := range h.convs {
		params = append(params, conv.Parameters()...)
	}
	return params
}

// DetectOutput is the detection head's output. Raw holds one
// [batch, anchors, H, W, 5+classes] tensor per scale; Decoded holds the
// flattened absolute-frame [batch, total, 5+classes] predictions and is nil
// in training mode.
type DetectOutput[B tensor.Backend] struct {
	Decoded *tensor.Tensor[float32, B]
	Raw     []*tensor.Tensor[float32, B]
}
