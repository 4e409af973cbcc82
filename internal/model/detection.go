package model

import (
	"errors"
	"fmt"

	"github.com/JeiKeiLim/torch-ignite/internal/nn"
	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// DetectionModel is a Model whose terminal layer is a YOLOHead. The head is
// assembled outside the registry because its multi-tensor output does not
// fit the Module contract; its sources follow the same resolution rules as
// every other layer.
type DetectionModel[B tensor.Backend] struct {
	*Model[B]

	head     *YOLOHead[B]
	headFrom []int
	training bool
}

// NewDetectionModel compiles the spec list, whose final entry must be a
// YOLOHead spec of the form [[scale indices...], 1, "YOLOHead",
// [num_classes, anchors]].
//
// The model starts in training mode and uncalibrated; Calibrate (or the
// first InitializeBiases call) measures strides.
func NewDetectionModel[B tensor.Backend](specs []LayerSpec, inputChannels int, registry *Registry[B], backend B) (*DetectionModel[B], error) {
	if len(specs) == 0 {
		return nil, &ConfigError{Msg: "empty layer spec list"}
	}

	headSpec := specs[len(specs)-1]
	headIndex := len(specs)
	if headSpec.Type != HeadType {
		return nil, &ConfigError{Index: headIndex, Field: "type",
			Msg: fmt.Sprintf("final layer must be %s, got %q", HeadType, headSpec.Type)}
	}

	base, err := NewModel(specs[:len(specs)-1], inputChannels, registry, backend)
	if err != nil {
		return nil, err
	}

	headFrom := make([]int, len(headSpec.From))
	inChannels := make([]int, len(headSpec.From))
	for i, src := range headSpec.From {
		resolved := src
		if src < 0 {
			resolved = headIndex + src
		}
		if resolved < 1 || resolved >= headIndex {
			return nil, &ConfigError{Index: headIndex, Field: "source",
				Msg: fmt.Sprintf("source %d resolves to %d, outside defined layers [1, %d]", src, resolved, headIndex-1)}
		}
		headFrom[i] = resolved
		inChannels[i] = base.plan.Layers[resolved-1].OutChannels
		base.plan.Layers[resolved-1].KeepAlive = true
	}

	numClasses, err := intArg(headSpec.Args, 0, -1)
	if err != nil {
		return nil, &ConfigError{Index: headIndex, Field: "args", Err: err}
	}
	anchors, err := anchorsArg(headSpec.Args, 1)
	if err != nil {
		return nil, &ConfigError{Index: headIndex, Field: "args", Err: err}
	}

	head, err := NewYOLOHead(numClasses, anchors, inChannels, backend)
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Index = headIndex
		}
		return nil, err
	}

	return &DetectionModel[B]{
		Model:    base,
		head:     head,
		headFrom: headFrom,
		training: true,
	}, nil
}

// Head returns the detection head.
func (m *DetectionModel[B]) Head() *YOLOHead[B] {
	return m.head
}

// Train switches the model to training mode (raw head outputs).
func (m *DetectionModel[B]) Train() {
	m.training = true
}

// Eval switches the model to inference mode (decoded head outputs).
func (m *DetectionModel[B]) Eval() {
	m.training = false
}

// Training reports whether the model is in training mode.
func (m *DetectionModel[B]) Training() bool {
	return m.training
}

// Forward runs the backbone, gathers the head's feature maps, and applies
// the detection head in the current mode. Inference mode requires
// calibration.
func (m *DetectionModel[B]) Forward(x *tensor.Tensor[float32, B]) (*DetectOutput[B], error) {
	features, err := m.ForwardFeatures(x, m.headFrom)
	if err != nil {
		return nil, err
	}
	return m.head.Forward(features, m.training)
}

// Calibrate measures the per-scale strides with one dummy forward pass:
// stride[i] = calibration_input_size / output_spatial_size[i]. Repeated
// calls remeasure and must produce identical strides for a fixed graph.
func (m *DetectionModel[B]) Calibrate() error {
	dummy := tensor.Zeros[float32](tensor.Shape{1, m.inputChannels, calibrationSize, calibrationSize}, m.backend)
	features, err := m.ForwardFeatures(dummy, m.headFrom)
	if err != nil {
		return fmt.Errorf("calibration pass: %w", err)
	}

	strides := make([]float64, len(features))
	for i, f := range features {
		h := f.Shape()[2]
		if calibrationSize%h != 0 {
			return &ConfigError{Field: "stride",
				Msg: fmt.Sprintf("scale %d output size %d does not divide calibration size %d", i, h, calibrationSize)}
		}
		strides[i] = float64(calibrationSize / h)
	}
	return m.head.SetStrides(strides)
}

// InitializeBiases seeds the head's projection biases with detection
// priors, running the calibration pass first if strides are unknown.
func (m *DetectionModel[B]) InitializeBiases(cfg BiasInit) error {
	if !m.head.Calibrated() {
		if err := m.Calibrate(); err != nil {
			return err
		}
	}
	return m.head.InitializeBiases(cfg)
}

// Parameters returns backbone and head parameters.
func (m *DetectionModel[B]) Parameters() []*nn.Parameter[B] {
	return append(m.Model.Parameters(), m.head.Parameters()...)
}

// Fuse fuses the backbone and delegates to the head (a no-op there).
func (m *DetectionModel[B]) Fuse() {
	m.Model.Fuse()
	m.head.Fuse()
}

// anchorsArg decodes the nested anchor lists from spec args.
func anchorsArg(args []any, i int) ([][]float64, error) {
	if i >= len(args) || args[i] == nil {
		return nil, fmt.Errorf("arg %d: missing anchor lists", i)
	}

	switch v := args[i].(type) {
	case [][]float64:
		return v, nil
	case []any:
		out := make([][]float64, len(v))
		for s, scale := range v {
			list, ok := scale.([]any)
			if !ok {
				return nil, fmt.Errorf("arg %d[%d]: expected anchor list, got %T", i, s, scale)
			}
			pairs := make([]float64, len(list))
			for j, e := range list {
				f, err := floatArg([]any{e}, 0, -1)
				if err != nil {
					return nil, fmt.Errorf("arg %d[%d][%d]: %w", i, s, j, err)
				}
				pairs[j] = f
			}
			out[s] = pairs
		}
		return out, nil
	default:
		return nil, fmt.Errorf("arg %d: expected anchor lists, got %T", i, args[i])
	}
}
