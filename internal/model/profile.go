package model

import (
	"fmt"
	"strings"

	"github.com/JeiKeiLim/torch-ignite/internal/nn"
	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// LayerProfile reports one layer's cost: parameter count, multiply-
// accumulate operations, and inferred output shape.
type LayerProfile struct {
	Index    int
	Type     string
	From     []int
	Params   int64
	MACs     int64
	OutShape tensor.Shape
}

// Profile aggregates per-layer costs for one input shape.
type Profile struct {
	Input  tensor.Shape
	Layers []LayerProfile

	TotalParams int64
	TotalMACs   int64
}

// String renders the profile as a table, one row per layer.
func (p *Profile) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%4s  %-12s  %12s  %14s  %s\n", "idx", "type", "params", "MACs", "out shape")
	for _, l := range p.Layers {
		fmt.Fprintf(&b, "%4d  %-12s  %12d  %14d  %v\n", l.Index, l.Type, l.Params, l.MACs, l.OutShape)
	}
	fmt.Fprintf(&b, "total: %d params, %d MACs (input %v)\n", p.TotalParams, p.TotalMACs, p.Input)
	return b.String()
}

// Profile infers every layer's output shape and cost for the given input
// shape without running a forward pass. The input must be [N,C,H,W] with C
// matching the model's input channel count.
func (m *Model[B]) Profile(input tensor.Shape) (*Profile, error) {
	if len(input) != 4 {
		return nil, fmt.Errorf("profile: expected 4D input shape, got %v", input)
	}
	if input[1] != m.inputChannels {
		return nil, fmt.Errorf("profile: input channels %d != model channels %d", input[1], m.inputChannels)
	}

	shapes := make([]tensor.Shape, len(m.plan.Layers)+1)
	shapes[0] = input.Clone()

	prof := &Profile{
		Input:  input.Clone(),
		Layers: make([]LayerProfile, 0, len(m.plan.Layers)),
	}
	for _, layer := range m.plan.Layers {
		in := shapes[layer.From[0]]

		var out tensor.Shape
		var macs int64
		if c, ok := layer.Module.(nn.Costed); ok {
			out = c.OutputShape(in)
			macs = c.MACs(in)
		} else {
			// Merge layers preserve spatial dimensions; the compiler
			// already resolved their output channel count.
			out = tensor.Shape{in[0], layer.OutChannels, in[2], in[3]}
		}
		shapes[layer.Index] = out

		var params int64
		for _, p := range layer.Module.Parameters() {
			params += int64(p.NumElements())
		}

		prof.Layers = append(prof.Layers, LayerProfile{
			Index:    layer.Index,
			Type:     layer.Type,
			From:     layer.From,
			Params:   params,
			MACs:     macs,
			OutShape: out,
		})
		prof.TotalParams += params
		prof.TotalMACs += macs
	}
	return prof, nil
}

// ParameterCount returns the total number of parameter elements.
func (m *Model[B]) ParameterCount() int64 {
	var total int64
	for _, p := range m.Parameters() {
		total += int64(p.NumElements())
	}
	return total
}

// Profile profiles the backbone and appends one row for the detection
// head, covering its per-scale 1x1 convolutions.
func (m *DetectionModel[B]) Profile(input tensor.Shape) (*Profile, error) {
	prof, err := m.Model.Profile(input)
	if err != nil {
		return nil, err
	}

	shapes := make(map[int]tensor.Shape, len(prof.Layers)+1)
	shapes[0] = prof.Input
	for _, l := range prof.Layers {
		shapes[l.Index] = l.OutShape
	}

	var params, macs int64
	for _, p := range m.head.Parameters() {
		params += int64(p.NumElements())
	}
	for i := 0; i < m.head.NumScales(); i++ {
		macs += m.head.Conv(i).MACs(shapes[m.headFrom[i]])
	}

	headIndex := len(prof.Layers) + 1
	prof.Layers = append(prof.Layers, LayerProfile{
		Index:    headIndex,
		Type:     HeadType,
		From:     m.headFrom,
		Params:   params,
		MACs:     macs,
		OutShape: nil,
	})
	prof.TotalParams += params
	prof.TotalMACs += macs
	return prof, nil
}

// ParameterCount returns the total parameter elements, head included.
func (m *DetectionModel[B]) ParameterCount() int64 {
	total := m.Model.ParameterCount()
	for _, p := range m.head.Parameters() {
		total += int64(p.NumElements())
	}
	return total
}
