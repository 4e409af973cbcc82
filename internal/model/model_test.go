package model

import (
	"errors"
	"testing"

	"github.com/JeiKeiLim/torch-ignite/internal/backend/cpu"
	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

func newTestModel(t *testing.T, specs []LayerSpec, inputChannels int) *Model[cpuB] {
	t.Helper()
	m, err := NewModel(specs, inputChannels, DefaultRegistry[cpuB](), cpu.New())
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	return m
}

// TestModel_ForwardShape tests the full-plan forward pass.
func TestModel_ForwardShape(t *testing.T) {
	specs := []LayerSpec{
		{From: []int{-1}, Repeat: 1, Type: "Conv", Args: []any{8, 3, 2}},
		{From: []int{-1}, Repeat: 1, Type: "Conv", Args: []any{16, 3, 2}},
	}
	m := newTestModel(t, specs, 3)

	input := tensor.Rand[float32](tensor.Shape{1, 3, 16, 16}, m.backend)
	out, err := m.Forward(input)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	if !out.Shape().Equal(tensor.Shape{1, 16, 4, 4}) {
		t.Errorf("Expected shape {1,16,4,4}, got %v", out.Shape())
	}
}

// TestModel_ForwardDeterministic tests that repeated passes over the same
// input produce identical outputs.
func TestModel_ForwardDeterministic(t *testing.T) {
	specs := []LayerSpec{
		{From: []int{-1}, Repeat: 1, Type: "Conv", Args: []any{8, 3, 2}},
		{From: []int{-1}, Repeat: 2, Type: "Bottleneck", Args: []any{8}},
		{From: []int{-1, 1}, Repeat: 1, Type: "Shortcut"},
	}
	m := newTestModel(t, specs, 3)

	input := tensor.Rand[float32](tensor.Shape{1, 3, 16, 16}, m.backend)
	first, err := m.Forward(input)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	second, err := m.Forward(input)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}

	a, b := first.Data(), second.Data()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Outputs differ at %d: %g vs %g", i, a[i], b[i])
		}
	}
}

// TestModel_ForwardFeatures tests multi-output gathering in request order.
func TestModel_ForwardFeatures(t *testing.T) {
	specs := []LayerSpec{
		{From: []int{-1}, Repeat: 1, Type: "Conv", Args: []any{8, 3, 2}},
		{From: []int{-1}, Repeat: 1, Type: "Conv", Args: []any{16, 3, 2}},
		{From: []int{-1}, Repeat: 1, Type: "Conv", Args: []any{32, 3, 2}},
	}
	m := newTestModel(t, specs, 3)

	input := tensor.Rand[float32](tensor.Shape{1, 3, 32, 32}, m.backend)
	outs, err := m.ForwardFeatures(input, []int{3, 1})
	if err != nil {
		t.Fatalf("ForwardFeatures failed: %v", err)
	}

	if !outs[0].Shape().Equal(tensor.Shape{1, 32, 4, 4}) {
		t.Errorf("Output 0: expected {1,32,4,4}, got %v", outs[0].Shape())
	}
	if !outs[1].Shape().Equal(tensor.Shape{1, 8, 16, 16}) {
		t.Errorf("Output 1: expected {1,8,16,16}, got %v", outs[1].Shape())
	}
}

// TestModel_ForwardFeatures_OutOfRange tests request validation.
func TestModel_ForwardFeatures_OutOfRange(t *testing.T) {
	specs := []LayerSpec{
		{From: []int{-1}, Repeat: 1, Type: "Conv", Args: []any{8}},
	}
	m := newTestModel(t, specs, 3)

	input := tensor.Rand[float32](tensor.Shape{1, 3, 8, 8}, m.backend)
	if _, err := m.ForwardFeatures(input, []int{5}); err == nil {
		t.Error("Expected out-of-range request to fail")
	}
}

// TestModel_SkipConnection tests that a keep-alive source survives until
// its consumer despite eager eviction.
func TestModel_SkipConnection(t *testing.T) {
	specs := []LayerSpec{
		{From: []int{-1}, Repeat: 1, Type: "Conv", Args: []any{8, 3, 1}}, // 1
		{From: []int{-1}, Repeat: 1, Type: "Conv", Args: []any{8, 3, 1}}, // 2
		{From: []int{-1}, Repeat: 1, Type: "Conv", Args: []any{8, 3, 1}}, // 3
		{From: []int{-1, 1}, Repeat: 1, Type: "Shortcut"},                // 4: needs 1
	}
	m := newTestModel(t, specs, 3)

	input := tensor.Rand[float32](tensor.Shape{1, 3, 8, 8}, m.backend)
	out, err := m.Forward(input)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	if !out.Shape().Equal(tensor.Shape{1, 8, 8, 8}) {
		t.Errorf("Expected shape {1,8,8,8}, got %v", out.Shape())
	}
}

// TestModel_ComputationError tests kernel-panic conversion during forward.
func TestModel_ComputationError(t *testing.T) {
	specs := []LayerSpec{
		{From: []int{-1}, Repeat: 1, Type: "Conv", Args: []any{8, 3, 1}},
		{From: []int{-1}, Repeat: 1, Type: "Focus", Args: []any{16, 3}},
	}
	m := newTestModel(t, specs, 3)

	// Odd spatial input trips the Focus parity check at layer 2.
	input := tensor.Rand[float32](tensor.Shape{1, 3, 5, 5}, m.backend)
	_, err := m.Forward(input)
	if err == nil {
		t.Fatal("Expected a computation error")
	}

	var compErr *ComputationError
	if !errors.As(err, &compErr) {
		t.Fatalf("Expected *ComputationError, got %T: %v", err, err)
	}
	if compErr.LayerIndex != 2 {
		t.Errorf("Expected failure at layer 2, got %d", compErr.LayerIndex)
	}
	if compErr.Layer != "Focus" {
		t.Errorf("Expected layer type Focus, got %q", compErr.Layer)
	}

	// The model stays usable: a valid input succeeds afterwards.
	valid := tensor.Rand[float32](tensor.Shape{1, 3, 8, 8}, m.backend)
	if _, err := m.Forward(valid); err != nil {
		t.Errorf("Forward after failure: %v", err)
	}
}

// TestModel_Fuse tests graph-wide fusion equivalence.
func TestModel_Fuse(t *testing.T) {
	specs := []LayerSpec{
		{From: []int{-1}, Repeat: 1, Type: "Conv", Args: []any{8, 3, 2}},
		{From: []int{-1}, Repeat: 2, Type: "Bottleneck", Args: []any{8}},
		{From: []int{-1}, Repeat: 1, Type: "SPP", Args: []any{16}},
	}
	m := newTestModel(t, specs, 3)

	// Nontrivial statistics so fusion has something to fold.
	for _, p := range m.Parameters() {
		data := p.Tensor().Data()
		for i := range data {
			data[i] = float32(i%7)*0.11 + 0.3
		}
	}

	input := tensor.Rand[float32](tensor.Shape{1, 3, 16, 16}, m.backend)
	before, err := m.Forward(input)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}

	m.Fuse()
	after, err := m.Forward(input)
	if err != nil {
		t.Fatalf("Forward after fusion failed: %v", err)
	}

	a, b := after.Data(), before.Data()
	for i := range a {
		diff := float64(a[i] - b[i])
		if diff < 0 {
			diff = -diff
		}
		scale := float64(b[i])
		if scale < 0 {
			scale = -scale
		}
		if scale < 1 {
			scale = 1
		}
		if diff/scale > 1e-6 {
			t.Fatalf("Fusion changed output at %d: %g vs %g", i, a[i], b[i])
		}
	}
}
