// Package config loads model architecture descriptions from YAML.
//
// A configuration file describes a model as a flat list of layer rows,
// split into a backbone and an optional head section:
//
//	input_channel: 3
//	depth_multiple: 1.0
//	width_multiple: 1.0
//	backbone:
//	  - [-1, 1, Focus, [16, 3, 1]]
//	  - [-1, 1, Conv, [32, 3, 2]]
//	  - [-1, 3, Bottleneck, [32]]
//	head:
//	  - [[4, 6, 8], 1, YOLOHead, [10, [[10, 13, 16, 30], ...]]]
//
// Each row is [from, repeat, module, args]. depth_multiple scales repeat
// counts, width_multiple scales the channel argument of convolutional
// modules (rounded up to a multiple of 8).
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/JeiKeiLim/torch-ignite/internal/model"
)

// channelWidth is the granularity width-scaled channel counts snap to.
const channelWidth = 8

// Architecture is a parsed and multiple-scaled model description, ready
// for the model assembler.
type Architecture struct {
	InputChannels int
	DepthMultiple float64
	WidthMultiple float64

	// Specs holds the backbone rows followed by the head rows.
	Specs []model.LayerSpec
}

type file struct {
	InputChannel  int     `yaml:"input_channel"`
	DepthMultiple float64 `yaml:"depth_multiple"`
	WidthMultiple float64 `yaml:"width_multiple"`
	Backbone      [][]any `yaml:"backbone"`
	Head          [][]any `yaml:"head"`
}

// Load reads and parses an architecture file.
func Load(path string) (*Architecture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	arch, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return arch, nil
}

// Parse parses YAML bytes into an Architecture, applying the depth and
// width multiples to every row.
func Parse(data []byte) (*Architecture, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if f.InputChannel <= 0 {
		f.InputChannel = 3
	}
	if f.DepthMultiple <= 0 {
		f.DepthMultiple = 1.0
	}
	if f.WidthMultiple <= 0 {
		f.WidthMultiple = 1.0
	}
	if len(f.Backbone) == 0 {
		return nil, &model.ConfigError{Field: "backbone", Msg: "no layers defined"}
	}

	arch := &Architecture{
		InputChannels: f.InputChannel,
		DepthMultiple: f.DepthMultiple,
		WidthMultiple: f.WidthMultiple,
	}

	rows := make([][]any, 0, len(f.Backbone)+len(f.Head))
	rows = append(rows, f.Backbone...)
	rows = append(rows, f.Head...)

	for i, row := range rows {
		spec, err := parseRow(row, i+1)
		if err != nil {
			return nil, err
		}
		scaleSpec(&spec, f.DepthMultiple, f.WidthMultiple)
		arch.Specs = append(arch.Specs, spec)
	}
	return arch, nil
}

// parseRow converts one [from, repeat, module, args] row. index is the
// 1-based layer index used in error reports.
func parseRow(row []any, index int) (model.LayerSpec, error) {
	var spec model.LayerSpec
	if len(row) < 3 || len(row) > 4 {
		return spec, &model.ConfigError{Index: index,
			Msg: fmt.Sprintf("expected [from, repeat, module, args], got %d elements", len(row))}
	}

	from, err := parseFrom(row[0])
	if err != nil {
		return spec, &model.ConfigError{Index: index, Field: "from", Err: err}
	}
	spec.From = from

	repeat, ok := asInt(row[1])
	if !ok {
		return spec, &model.ConfigError{Index: index, Field: "repeat",
			Msg: fmt.Sprintf("expected integer, got %T", row[1])}
	}
	spec.Repeat = repeat

	typ, ok := row[2].(string)
	if !ok {
		return spec, &model.ConfigError{Index: index, Field: "module",
			Msg: fmt.Sprintf("expected string, got %T", row[2])}
	}
	spec.Type = typ

	if len(row) == 4 {
		args, ok := row[3].([]any)
		if !ok {
			return spec, &model.ConfigError{Index: index, Field: "args",
				Msg: fmt.Sprintf("expected list, got %T", row[3])}
		}
		spec.Args = args
	}
	return spec, nil
}

// parseFrom accepts a single source index or a list of them.
func parseFrom(v any) ([]int, error) {
	if idx, ok := asInt(v); ok {
		return []int{idx}, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected integer or list of integers, got %T", v)
	}
	out := make([]int, len(list))
	for i, e := range list {
		idx, ok := asInt(e)
		if !ok {
			return nil, fmt.Errorf("element %d: expected integer, got %T", i, e)
		}
		out[i] = idx
	}
	return out, nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	}
	return 0, false
}

// widthScaled lists module types whose first argument is an output channel
// count subject to width scaling.
var widthScaled = map[string]bool{
	"Conv":       true,
	"DWConv":     true,
	"Bottleneck": true,
	"C3":         true,
	"Focus":      true,
	"SPP":        true,
	"SPPF":       true,
}

// scaleSpec applies the depth multiple to repeat counts above one and the
// width multiple to channel arguments, snapping channels up to a multiple
// of channelWidth.
func scaleSpec(spec *model.LayerSpec, depth, width float64) {
	if spec.Repeat > 1 && depth != 1.0 {
		spec.Repeat = int(math.Round(float64(spec.Repeat) * depth))
		if spec.Repeat < 1 {
			spec.Repeat = 1
		}
	}
	if width != 1.0 && widthScaled[spec.Type] && len(spec.Args) > 0 {
		if ch, ok := asInt(spec.Args[0]); ok {
			spec.Args[0] = makeDivisible(float64(ch)*width, channelWidth)
		}
	}
}

// makeDivisible rounds v up to the nearest multiple of divisor.
func makeDivisible(v float64, divisor int) int {
	return int(math.Ceil(v/float64(divisor))) * divisor
}
