package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for detection-head state handling.
var (
	// ErrNotCalibrated is returned when stride-dependent operations run
	// before the calibration forward pass.
	ErrNotCalibrated = errors.New("detection head is not calibrated: strides unknown")

	// ErrAmbiguousBiasInit is returned when both class_probability and
	// class_frequency are supplied to bias initialization.
	ErrAmbiguousBiasInit = errors.New("bias init: class probability and class frequency are mutually exclusive")
)

// ConfigError reports a malformed or unresolvable architecture spec. It is
// fatal and surfaced at assembly time, naming the offending spec index and
// field.
type ConfigError struct {
	Index int    // 1-based layer-spec index; 0 when not layer-specific
	Field string // offending spec field ("type", "source", "args", ...)
	Msg   string
	Err   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg != "" {
			msg = fmt.Sprintf("%s: %v", msg, e.Err)
		} else {
			msg = e.Err.Error()
		}
	}
	if e.Index > 0 {
		return fmt.Sprintf("config: layer %d, field %q: %s", e.Index, e.Field, msg)
	}
	return fmt.Sprintf("config: %s", msg)
}

// Unwrap returns the wrapped error, if any.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ComputationError reports a failure during a forward pass (shape or dtype
// mismatch inside a layer). It names the offending layer index. The model's
// persistent state is not corrupted; retrying with the same input fails
// identically.
type ComputationError struct {
	LayerIndex int
	Layer      string // layer type name
	Cause      any    // recovered panic value from the layer kernel
}

// Error implements the error interface.
func (e *ComputationError) Error() string {
	return fmt.Sprintf("forward: layer %d (%s): %v", e.LayerIndex, e.Layer, e.Cause)
}
