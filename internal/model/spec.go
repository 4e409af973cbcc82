// Package model implements the declarative model builder: a layer registry,
// an assembler that compiles layer specs into an execution plan, a forward
// execution engine, the YOLO detection head, and conv+bn fusion.
package model

// LayerSpec describes one layer of a declarative architecture:
// [source(s), repeat count, layer type, args...].
//
// Sources are indices into the growing layer list, where index 0 is the
// model input; negative values count backward from the spec's own position
// (-1 is the immediately preceding layer). Sources must resolve to
// previously defined layers only. A LayerSpec is immutable once parsed.
type LayerSpec struct {
	From   []int  // one entry for single-input layers, several for merges
	Repeat int    // repeat count; values > 1 chain copies behind one index
	Type   string // registered layer type name
	Args   []any  // layer-type specific parameters
}

// HeadType is the layer type name of the detection head. The head is the
// terminal layer of a detection architecture and is assembled by
// NewDetectionModel rather than by the registry.
const HeadType = "YOLOHead"

// normalizeRepeat clamps the spec's repeat count to at least one.
func (s LayerSpec) normalizeRepeat() int {
	if s.Repeat < 1 {
		return 1
	}
	return s.Repeat
}
