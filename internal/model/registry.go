package model

import (
	"fmt"

	"github.com/JeiKeiLim/torch-ignite/internal/nn"
	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// Factory instantiates a layer module given the backend, the resolved input
// channel counts, and the spec args.
type Factory[B tensor.Backend] func(backend B, inChannels []int, args []any) (nn.Module[B], error)

// ChannelFunc computes a layer's output channel count from its resolved
// input channel counts and spec args, without instantiating the module.
type ChannelFunc func(inChannels []int, args []any) (int, error)

// Entry pairs a layer factory with its channel arithmetic.
type Entry[B tensor.Backend] struct {
	Factory  Factory[B]
	Channels ChannelFunc
}

// Registry maps layer type names to constructors. It is populated at
// process start and read-only afterwards; lookups are safe for concurrent
// use once registration is done.
type Registry[B tensor.Backend] struct {
	entries map[string]Entry[B]
}

// NewRegistry creates an empty registry.
func NewRegistry[B tensor.Backend]() *Registry[B] {
	return &Registry[B]{entries: make(map[string]Entry[B])}
}

// Register adds a layer type. Re-registering a name overwrites the entry.
func (r *Registry[B]) Register(name string, entry Entry[B]) {
	r.entries[name] = entry
}

// Resolve returns the entry for a layer type name.
func (r *Registry[B]) Resolve(name string) (Entry[B], error) {
	entry, ok := r.entries[name]
	if !ok {
		return Entry[B]{}, &ConfigError{Field: "type", Msg: fmt.Sprintf("unknown layer type %q", name)}
	}
	return entry, nil
}

// Types returns the registered layer type names.
func (r *Registry[B]) Types() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// DefaultRegistry returns a registry with all built-in layer types.
func DefaultRegistry[B tensor.Backend]() *Registry[B] {
	r := NewRegistry[B]()

	// Conv: [out_channels, kernel_size, stride, padding, activation]
	r.Register("Conv", Entry[B]{
		Factory: func(backend B, inChannels []int, args []any) (nn.Module[B], error) {
			out, err := intArg(args, 0, -1)
			if err != nil {
				return nil, err
			}
			k, err := intArg(args, 1, 1)
			if err != nil {
				return nil, err
			}
			s, err := intArg(args, 2, 1)
			if err != nil {
				return nil, err
			}
			p, err := intArg(args, 3, -1)
			if err != nil {
				return nil, err
			}
			act, err := stringArg(args, 4, nn.ActReLU)
			if err != nil {
				return nil, err
			}
			return nn.NewConv(inChannels[0], out, k, s, p, act, backend), nil
		},
		Channels: firstArgChannels,
	})

	// Bottleneck: [out_channels, shortcut, expansion, activation]
	r.Register("Bottleneck", Entry[B]{
		Factory: func(backend B, inChannels []int, args []any) (nn.Module[B], error) {
			out, err := intArg(args, 0, -1)
			if err != nil {
				return nil, err
			}
			shortcut, err := boolArg(args, 1, true)
			if err != nil {
				return nil, err
			}
			expansion, err := floatArg(args, 2, 0.5)
			if err != nil {
				return nil, err
			}
			act, err := stringArg(args, 3, nn.ActReLU)
			if err != nil {
				return nil, err
			}
			return nn.NewBottleneck(inChannels[0], out, shortcut, expansion, act, backend), nil
		},
		Channels: firstArgChannels,
	})

	// DWConv: [out_channels, kernel_size, stride, padding, activation]
	r.Register("DWConv", Entry[B]{
		Factory: func(backend B, inChannels []int, args []any) (nn.Module[B], error) {
			out, err := intArg(args, 0, -1)
			if err != nil {
				return nil, err
			}
			k, err := intArg(args, 1, 1)
			if err != nil {
				return nil, err
			}
			s, err := intArg(args, 2, 1)
			if err != nil {
				return nil, err
			}
			p, err := intArg(args, 3, -1)
			if err != nil {
				return nil, err
			}
			act, err := stringArg(args, 4, nn.ActReLU)
			if err != nil {
				return nil, err
			}
			return nn.NewDWConv(inChannels[0], out, k, s, p, act, backend), nil
		},
		Channels: firstArgChannels,
	})

	// C3: [out_channels, depth, shortcut, expansion, activation]
	r.Register("C3", Entry[B]{
		Factory: func(backend B, inChannels []int, args []any) (nn.Module[B], error) {
			out, err := intArg(args, 0, -1)
			if err != nil {
				return nil, err
			}
			depth, err := intArg(args, 1, 1)
			if err != nil {
				return nil, err
			}
			shortcut, err := boolArg(args, 2, true)
			if err != nil {
				return nil, err
			}
			expansion, err := floatArg(args, 3, 0.5)
			if err != nil {
				return nil, err
			}
			act, err := stringArg(args, 4, nn.ActReLU)
			if err != nil {
				return nil, err
			}
			return nn.NewC3(inChannels[0], out, depth, shortcut, expansion, act, backend), nil
		},
		Channels: firstArgChannels,
	})

	// Focus: [out_channels, kernel_size, stride, padding, activation]
	r.Register("Focus", Entry[B]{
		Factory: func(backend B, inChannels []int, args []any) (nn.Module[B], error) {
			out, err := intArg(args, 0, -1)
			if err != nil {
				return nil, err
			}
			k, err := intArg(args, 1, 1)
			if err != nil {
				return nil, err
			}
			s, err := intArg(args, 2, 1)
			if err != nil {
				return nil, err
			}
			p, err := intArg(args, 3, -1)
			if err != nil {
				return nil, err
			}
			act, err := stringArg(args, 4, nn.ActReLU)
			if err != nil {
				return nil, err
			}
			return nn.NewFocus(inChannels[0], out, k, s, p, act, backend), nil
		},
		Channels: firstArgChannels,
	})

	// SPP: [out_channels, [kernel_sizes...], activation]
	r.Register("SPP", Entry[B]{
		Factory: func(backend B, inChannels []int, args []any) (nn.Module[B], error) {
			out, err := intArg(args, 0, -1)
			if err != nil {
				return nil, err
			}
			kernels, err := intSliceArg(args, 1, []int{5, 9, 13})
			if err != nil {
				return nil, err
			}
			act, err := stringArg(args, 2, nn.ActReLU)
			if err != nil {
				return nil, err
			}
			return nn.NewSPP(inChannels[0], out, kernels, act, backend), nil
		},
		Channels: firstArgChannels,
	})

	// SPPF: [out_channels, kernel_size, activation]
	r.Register("SPPF", Entry[B]{
		Factory: func(backend B, inChannels []int, args []any) (nn.Module[B], error) {
			out, err := intArg(args, 0, -1)
			if err != nil {
				return nil, err
			}
			k, err := intArg(args, 1, 5)
			if err != nil {
				return nil, err
			}
			act, err := stringArg(args, 2, nn.ActReLU)
			if err != nil {
				return nil, err
			}
			return nn.NewSPPF(inChannels[0], out, k, act, backend), nil
		},
		Channels: firstArgChannels,
	})

	// Concat: [dimension]
	r.Register("Concat", Entry[B]{
		Factory: func(backend B, inChannels []int, args []any) (nn.Module[B], error) {
			dim, err := intArg(args, 0, 1)
			if err != nil {
				return nil, err
			}
			return nn.NewConcat[B](dim), nil
		},
		Channels: func(inChannels []int, args []any) (int, error) {
			sum := 0
			for _, ch := range inChannels {
				sum += ch
			}
			return sum, nil
		},
	})

	// Shortcut: no args; all inputs must share channel counts.
	r.Register("Shortcut", Entry[B]{
		Factory: func(backend B, inChannels []int, args []any) (nn.Module[B], error) {
			return nn.NewShortcut[B](), nil
		},
		Channels: func(inChannels []int, args []any) (int, error) {
			for _, ch := range inChannels[1:] {
				if ch != inChannels[0] {
					return 0, fmt.Errorf("shortcut requires equal input channels, got %v", inChannels)
				}
			}
			return inChannels[0], nil
		},
	})

	// MaxPool: [kernel_size, stride, padding]
	r.Register("MaxPool", Entry[B]{
		Factory: func(backend B, inChannels []int, args []any) (nn.Module[B], error) {
			k, err := intArg(args, 0, 2)
			if err != nil {
				return nil, err
			}
			s, err := intArg(args, 1, 0)
			if err != nil {
				return nil, err
			}
			p, err := intArg(args, 2, 0)
			if err != nil {
				return nil, err
			}
			return nn.NewMaxPool[B](k, s, p), nil
		},
		Channels: passthroughChannels,
	})

	// UpSample: [scale_factor, mode]
	r.Register("UpSample", Entry[B]{
		Factory: func(backend B, inChannels []int, args []any) (nn.Module[B], error) {
			scale, err := intArg(args, 0, 2)
			if err != nil {
				return nil, err
			}
			mode, err := stringArg(args, 1, "nearest")
			if err != nil {
				return nil, err
			}
			return nn.NewUpSample[B](scale, mode), nil
		},
		Channels: passthroughChannels,
	})

	return r
}

func firstArgChannels(inChannels []int, args []any) (int, error) {
	out, err := intArg(args, 0, -1)
	if err != nil {
		return 0, err
	}
	if out <= 0 {
		return 0, fmt.Errorf("invalid output channel count %d", out)
	}
	return out, nil
}

func passthroughChannels(inChannels []int, args []any) (int, error) {
	return inChannels[0], nil
}

// Spec arg accessors. YAML decoding produces int, float64, bool, string,
// and []any values; missing positions fall back to the default. A required
// arg uses an impossible default and is validated by the channel function.

func intArg(args []any, i, def int) (int, error) {
	if i >= len(args) || args[i] == nil {
		return def, nil
	}
	switch v := args[i].(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("arg %d: expected int, got %T", i, args[i])
	}
}

func floatArg(args []any, i int, def float64) (float64, error) {
	if i >= len(args) || args[i] == nil {
		return def, nil
	}
	switch v := args[i].(type) {
	case int:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("arg %d: expected number, got %T", i, args[i])
	}
}

func boolArg(args []any, i int, def bool) (bool, error) {
	if i >= len(args) || args[i] == nil {
		return def, nil
	}
	v, ok := args[i].(bool)
	if !ok {
		return false, fmt.Errorf("arg %d: expected bool, got %T", i, args[i])
	}
	return v, nil
}

func stringArg(args []any, i int, def string) (string, error) {
	if i >= len(args) || args[i] == nil {
		return def, nil
	}
	v, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("arg %d: expected string, got %T", i, args[i])
	}
	return v, nil
}

func intSliceArg(args []any, i int, def []int) ([]int, error) {
	if i >= len(args) || args[i] == nil {
		return def, nil
	}
	switch v := args[i].(type) {
	case []int:
		return v, nil
	case []any:
		out := make([]int, len(v))
		for j, e := range v {
			n, err := intArg([]any{e}, 0, -1)
			if err != nil {
				return nil, fmt.Errorf("arg %d[%d]: %w", i, j, err)
			}
			out[j] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("arg %d: expected int list, got %T", i, args[i])
	}
}
