package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeiKeiLim/torch-ignite/internal/backend/cpu"
	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// TestModel_Profile tests shape inference and hand-computed layer costs.
func TestModel_Profile(t *testing.T) {
	specs := []LayerSpec{
		{From: []int{-1}, Repeat: 1, Type: "Conv", Args: []any{8, 3, 2}},
		{From: []int{-1}, Repeat: 1, Type: "MaxPool", Args: []any{2, 2, 0}},
		{From: []int{-1}, Repeat: 1, Type: "Conv", Args: []any{16, 3, 1}},
		{From: []int{-1, 2}, Repeat: 1, Type: "Concat"},
	}
	m, err := NewModel(specs, 3, DefaultRegistry[cpuB](), cpu.New())
	require.NoError(t, err)

	prof, err := m.Profile(tensor.Shape{1, 3, 32, 32})
	require.NoError(t, err)
	require.Len(t, prof.Layers, 4)

	// Conv 3->8 k3 s2: weight 8*3*3*3 = 216, bn 4*8 = 32.
	// MACs: 8*16*16 outputs * 27 taps + 2048 bn affine = 57344.
	conv1 := prof.Layers[0]
	assert.Equal(t, int64(248), conv1.Params)
	assert.Equal(t, int64(57344), conv1.MACs)
	assert.True(t, conv1.OutShape.Equal(tensor.Shape{1, 8, 16, 16}))

	pool := prof.Layers[1]
	assert.Zero(t, pool.Params)
	assert.Zero(t, pool.MACs)
	assert.True(t, pool.OutShape.Equal(tensor.Shape{1, 8, 8, 8}))

	// Conv 8->16 k3 s1: weight 1152, bn 64.
	// MACs: 16*8*8 outputs * 72 taps + 1024 bn affine = 74752.
	conv2 := prof.Layers[2]
	assert.Equal(t, int64(1216), conv2.Params)
	assert.Equal(t, int64(74752), conv2.MACs)
	assert.True(t, conv2.OutShape.Equal(tensor.Shape{1, 16, 8, 8}))

	// Concat is not costed: channels come from the compiler, spatial from
	// the first source.
	cat := prof.Layers[3]
	assert.Zero(t, cat.Params)
	assert.Zero(t, cat.MACs)
	assert.True(t, cat.OutShape.Equal(tensor.Shape{1, 24, 8, 8}))

	assert.Equal(t, int64(1464), prof.TotalParams)
	assert.Equal(t, int64(132096), prof.TotalMACs)
	assert.Equal(t, prof.TotalParams, m.ParameterCount())
}

// TestModel_ProfileMatchesForward tests that inferred shapes agree with an
// actual forward pass.
func TestModel_ProfileMatchesForward(t *testing.T) {
	specs := []LayerSpec{
		{From: []int{-1}, Repeat: 1, Type: "Focus", Args: []any{8, 3}},
		{From: []int{-1}, Repeat: 2, Type: "Bottleneck", Args: []any{8}},
		{From: []int{-1}, Repeat: 1, Type: "SPP", Args: []any{16, []any{3, 5}}},
		{From: []int{-1}, Repeat: 1, Type: "UpSample", Args: []any{2}},
	}
	backend := cpu.New()
	m, err := NewModel(specs, 3, DefaultRegistry[cpuB](), backend)
	require.NoError(t, err)

	input := tensor.Rand[float32](tensor.Shape{1, 3, 16, 16}, backend)
	prof, err := m.Profile(input.Shape())
	require.NoError(t, err)

	features, err := m.ForwardFeatures(input, []int{1, 2, 3, 4})
	require.NoError(t, err)
	for i, f := range features {
		assert.True(t, prof.Layers[i].OutShape.Equal(f.Shape()),
			"layer %d: inferred %v, forward %v", i+1, prof.Layers[i].OutShape, f.Shape())
	}
}

// TestModel_ProfileValidation tests input shape checks.
func TestModel_ProfileValidation(t *testing.T) {
	specs := []LayerSpec{
		{From: []int{-1}, Repeat: 1, Type: "Conv", Args: []any{8, 3, 2}},
	}
	m := newTestModel(t, specs, 3)

	_, err := m.Profile(tensor.Shape{3, 32, 32})
	require.Error(t, err)

	_, err = m.Profile(tensor.Shape{1, 4, 32, 32})
	require.Error(t, err)
}

// TestDetectionModel_Profile tests that the head row is appended and its
// projection cost counted.
func TestDetectionModel_Profile(t *testing.T) {
	m := newDetectionTestModel(t, 10)

	prof, err := m.Profile(tensor.Shape{1, 3, 480, 380})
	require.NoError(t, err)

	head := prof.Layers[len(prof.Layers)-1]
	assert.Equal(t, HeadType, head.Type)
	assert.Equal(t, []int{3, 10, 7}, head.From)

	// 1x1 projections to 3 anchors * 15 outputs, with bias:
	// 32->45 (1485) + 64->45 (2925) + 128->45 (5805).
	assert.Equal(t, int64(10215), head.Params)

	// MACs per scale: out elems * (inC + 1 for bias).
	wantMACs := int64(45*60*48*33 + 45*30*24*65 + 45*15*12*129)
	assert.Equal(t, wantMACs, head.MACs)

	assert.Equal(t, prof.TotalParams, m.ParameterCount())
}

// TestProfile_String tests the rendered table.
func TestProfile_String(t *testing.T) {
	specs := []LayerSpec{
		{From: []int{-1}, Repeat: 1, Type: "Conv", Args: []any{8, 3, 2}},
		{From: []int{-1}, Repeat: 1, Type: "MaxPool", Args: []any{2}},
	}
	m := newTestModel(t, specs, 3)

	prof, err := m.Profile(tensor.Shape{1, 3, 16, 16})
	require.NoError(t, err)

	out := prof.String()
	assert.True(t, strings.Contains(out, "type"))
	assert.True(t, strings.Contains(out, "total:"))
	assert.Equal(t, len(prof.Layers)+2, strings.Count(out, "\n"))
}
