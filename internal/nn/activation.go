package nn

import (
	"fmt"

	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// Optional backend capabilities for activations, discovered via interface
// assertion so the core tensor.Backend interface stays small.

// ReLUBackend is an interface for backends that support ReLU activation.
type ReLUBackend interface {
	ReLU(*tensor.RawTensor) *tensor.RawTensor
}

// SigmoidBackend is an interface for backends that support Sigmoid activation.
type SigmoidBackend interface {
	Sigmoid(*tensor.RawTensor) *tensor.RawTensor
}

// SiLUBackend is an interface for backends that support SiLU activation.
type SiLUBackend interface {
	SiLU(*tensor.RawTensor) *tensor.RawTensor
}

// LeakyReLUBackend is an interface for backends that support LeakyReLU.
type LeakyReLUBackend interface {
	LeakyReLU(x *tensor.RawTensor, negativeSlope float64) *tensor.RawTensor
}

// Supported activation names for layer specs. An empty name means identity.
const (
	ActReLU      = "ReLU"
	ActSiLU      = "SiLU"
	ActLeakyReLU = "LeakyReLU"
	ActSigmoid   = "Sigmoid"
	ActIdentity  = ""
)

// ValidActivation reports whether name is a known activation.
func ValidActivation(name string) bool {
	switch name {
	case ActReLU, ActSiLU, ActLeakyReLU, ActSigmoid, ActIdentity:
		return true
	}
	return false
}

// Activate applies the named activation via the backend's capability
// interface. Panics if the backend does not support the activation.
func Activate[B tensor.Backend](name string, x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := x.Backend()

	switch name {
	case ActIdentity:
		return x
	case ActReLU:
		if rb, ok := any(backend).(ReLUBackend); ok {
			return tensor.New[float32, B](rb.ReLU(x.Raw()), backend)
		}
	case ActSiLU:
		if sb, ok := any(backend).(SiLUBackend); ok {
			return tensor.New[float32, B](sb.SiLU(x.Raw()), backend)
		}
	case ActLeakyReLU:
		if lb, ok := any(backend).(LeakyReLUBackend); ok {
			return tensor.New[float32, B](lb.LeakyReLU(x.Raw(), 0.1), backend)
		}
	case ActSigmoid:
		if sb, ok := any(backend).(SigmoidBackend); ok {
			return tensor.New[float32, B](sb.Sigmoid(x.Raw()), backend)
		}
	default:
		panic(fmt.Sprintf("activation: unknown name %q", name))
	}

	panic(fmt.Sprintf("activation: backend %s does not implement %s", backend.Name(), name))
}
