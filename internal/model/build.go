package model

import (
	"errors"
	"fmt"

	"github.com/JeiKeiLim/torch-ignite/internal/nn"
	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// CompiledLayer is one executable node of the plan. It is created once at
// assembly time; its module is mutated only by training (weight updates) or
// by fusion (structural replacement preserving index and channels).
type CompiledLayer[B tensor.Backend] struct {
	Index       int    // 1-based position in execution order (0 is the input)
	From        []int  // resolved absolute source indices
	Type        string // registered layer type name
	Module      nn.Module[B]
	OutChannels int
	KeepAlive   bool // output cached for a non-adjacent later layer
}

// Plan is the compiled execution plan: ordered layers plus cache metadata.
type Plan[B tensor.Backend] struct {
	Layers []*CompiledLayer[B]

	// lastUse[i] is the index of the last layer consuming output i; -1
	// when nothing consumes it. Drives eager cache eviction.
	lastUse []int
}

// KeepAlive returns the set of layer indices whose outputs must stay cached
// during a forward pass, in execution order.
func (p *Plan[B]) KeepAlive() []int {
	var keep []int
	for _, l := range p.Layers {
		if l.KeepAlive {
			keep = append(keep, l.Index)
		}
	}
	return keep
}

// Compile resolves an ordered LayerSpec sequence into an execution plan.
//
// Channel bookkeeping starts from inputChannels at index 0. Sources resolve
// relative (negative) and absolute indices against previously defined layers
// only; a repeat count > 1 chains copies behind the spec's single index. An
// index enters the keep-alive set iff a later spec references it explicitly,
// i.e. with any source value other than the default -1.
func Compile[B tensor.Backend](specs []LayerSpec, inputChannels int, registry *Registry[B], backend B) (*Plan[B], error) {
	if inputChannels <= 0 {
		return nil, &ConfigError{Field: "input_channel", Msg: fmt.Sprintf("invalid input channel count %d", inputChannels)}
	}

	channels := make([]int, len(specs)+1)
	channels[0] = inputChannels

	plan := &Plan[B]{
		Layers:  make([]*CompiledLayer[B], 0, len(specs)),
		lastUse: make([]int, len(specs)+1),
	}
	for i := range plan.lastUse {
		plan.lastUse[i] = -1
	}
	keepAlive := make([]bool, len(specs)+1)

	for n, spec := range specs {
		index := n + 1

		if len(spec.From) == 0 {
			return nil, &ConfigError{Index: index, Field: "source", Msg: "empty source list"}
		}

		entry, err := registry.Resolve(spec.Type)
		if err != nil {
			var cfgErr *ConfigError
			if errors.As(err, &cfgErr) {
				cfgErr.Index = index
			}
			return nil, err
		}

		from := make([]int, len(spec.From))
		inChannels := make([]int, len(spec.From))
		for i, src := range spec.From {
			resolved := src
			if src < 0 {
				resolved = index + src
			}
			if resolved < 0 || resolved >= index {
				return nil, &ConfigError{Index: index, Field: "source",
					Msg: fmt.Sprintf("source %d resolves to %d, outside defined layers [0, %d]", src, resolved, index-1)}
			}
			from[i] = resolved
			inChannels[i] = channels[resolved]

			// Keep-alive: any explicit (non "-1") reference.
			if src != -1 {
				keepAlive[resolved] = true
			}
			if index > plan.lastUse[resolved] {
				plan.lastUse[resolved] = index
			}
		}

		outChannels, err := entry.Channels(inChannels, spec.Args)
		if err != nil {
			return nil, &ConfigError{Index: index, Field: "args", Err: err}
		}

		module, err := buildModule(entry, spec, inChannels, outChannels, backend)
		if err != nil {
			return nil, &ConfigError{Index: index, Field: "args", Err: err}
		}

		channels[index] = outChannels
		plan.Layers = append(plan.Layers, &CompiledLayer[B]{
			Index:       index,
			From:        from,
			Type:        spec.Type,
			Module:      module,
			OutChannels: outChannels,
		})
	}

	for _, layer := range plan.Layers {
		layer.KeepAlive = keepAlive[layer.Index]
	}

	return plan, nil
}

// buildModule instantiates a spec, chaining repeat-count copies into a
// Sequential recorded under the spec's single index. Copies share type and
// args; each copy's input channel count is the previous copy's output.
func buildModule[B tensor.Backend](entry Entry[B], spec LayerSpec, inChannels []int, outChannels int, backend B) (nn.Module[B], error) {
	repeat := spec.normalizeRepeat()
	if repeat == 1 {
		return entry.Factory(backend, inChannels, spec.Args)
	}
	if len(inChannels) != 1 {
		return nil, fmt.Errorf("repeat count %d requires a single-input layer", repeat)
	}

	chain := nn.NewSequential[B]()
	current := inChannels[0]
	for i := 0; i < repeat; i++ {
		module, err := entry.Factory(backend, []int{current}, spec.Args)
		if err != nil {
			return nil, err
		}
		chain.Add(module)
		current = outChannels
	}
	return chain, nil
}
