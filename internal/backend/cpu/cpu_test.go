package cpu

import (
	"math"
	"testing"

	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

func rawFromFloat32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

func rawFromFloat64(t *testing.T, data []float64, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float64, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	copy(raw.AsFloat64(), data)
	return raw
}

func assertFloat32s(t *testing.T, got, want []float32, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > tol {
			t.Errorf("Element %d: got %g, want %g", i, got[i], want[i])
		}
	}
}

// TestAdd_SameShape tests element-wise addition.
func TestAdd_SameShape(t *testing.T) {
	backend := New()
	a := rawFromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := rawFromFloat32(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

	out := backend.Add(a, b)
	assertFloat32s(t, out.AsFloat32(), []float32{11, 22, 33, 44}, 0)
}

// TestAdd_Broadcast tests addition with NumPy-style broadcasting, the
// [N,C,H,W] + [1,C,1,1] bias pattern included.
func TestAdd_Broadcast(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := rawFromFloat32(t, []float32{10, 20, 30}, tensor.Shape{3})
	out := backend.Add(a, b)
	if !out.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("Expected shape {2,3}, got %v", out.Shape())
	}
	assertFloat32s(t, out.AsFloat32(), []float32{11, 22, 33, 14, 25, 36}, 0)

	x := rawFromFloat32(t, []float32{1, 1, 1, 1, 2, 2, 2, 2}, tensor.Shape{1, 2, 2, 2})
	bias := rawFromFloat32(t, []float32{5, 7}, tensor.Shape{1, 2, 1, 1})
	out = backend.Add(x, bias)
	assertFloat32s(t, out.AsFloat32(), []float32{6, 6, 6, 6, 9, 9, 9, 9}, 0)
}

// TestBinary_Div tests element-wise division.
func TestBinary_Div(t *testing.T) {
	backend := New()
	a := rawFromFloat32(t, []float32{10, 9, 8}, tensor.Shape{3})
	b := rawFromFloat32(t, []float32{2, 3, 4}, tensor.Shape{3})

	out := backend.Div(a, b)
	assertFloat32s(t, out.AsFloat32(), []float32{5, 3, 2}, 1e-6)
}

// TestMatMul_Float32 tests the float32 matrix multiply.
func TestMatMul_Float32(t *testing.T) {
	backend := New()
	a := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := rawFromFloat32(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	out := backend.MatMul(a, b)
	if !out.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("Expected shape {2,2}, got %v", out.Shape())
	}
	assertFloat32s(t, out.AsFloat32(), []float32{58, 64, 139, 154}, 1e-5)
}

// TestMatMul_Float64 tests the float64 path (gonum-backed).
func TestMatMul_Float64(t *testing.T) {
	backend := New()
	a := rawFromFloat64(t, []float64{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := rawFromFloat64(t, []float64{5, 6, 7, 8}, tensor.Shape{2, 2})

	out := backend.MatMul(a, b)
	want := []float64{19, 22, 43, 50}
	got := out.AsFloat64()
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("Element %d: got %g, want %g", i, got[i], want[i])
		}
	}
}

// TestConv2D_Identity tests convolution with a 1x1 identity kernel.
func TestConv2D_Identity(t *testing.T) {
	backend := New()
	input := rawFromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	kernel := rawFromFloat32(t, []float32{1}, tensor.Shape{1, 1, 1, 1})

	out := backend.Conv2D(input, kernel, 1, 0)
	if !out.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Expected shape {1,1,2,2}, got %v", out.Shape())
	}
	assertFloat32s(t, out.AsFloat32(), []float32{1, 2, 3, 4}, 1e-6)
}

// TestConv2D_KnownValues tests a 3x3 box-filter convolution with padding.
func TestConv2D_KnownValues(t *testing.T) {
	backend := New()

	// 3x3 input 1..9, 3x3 all-ones kernel, stride 1, padding 1.
	input := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{1, 1, 3, 3})
	kernel := rawFromFloat32(t, []float32{1, 1, 1, 1, 1, 1, 1, 1, 1}, tensor.Shape{1, 1, 3, 3})

	out := backend.Conv2D(input, kernel, 1, 1)
	if !out.Shape().Equal(tensor.Shape{1, 1, 3, 3}) {
		t.Fatalf("Expected shape {1,1,3,3}, got %v", out.Shape())
	}
	// Each output is the sum of the 3x3 neighborhood with zero padding.
	want := []float32{12, 21, 16, 27, 45, 33, 24, 39, 28}
	assertFloat32s(t, out.AsFloat32(), want, 1e-5)
}

// TestConv2D_Stride tests spatial downsampling.
func TestConv2D_Stride(t *testing.T) {
	backend := New()

	input := rawFromFloat32(t, make([]float32, 1*3*8*8), tensor.Shape{1, 3, 8, 8})
	kernel := rawFromFloat32(t, make([]float32, 16*3*3*3), tensor.Shape{16, 3, 3, 3})

	out := backend.Conv2D(input, kernel, 2, 1)
	if !out.Shape().Equal(tensor.Shape{1, 16, 4, 4}) {
		t.Fatalf("Expected shape {1,16,4,4}, got %v", out.Shape())
	}
}

// TestConv2D_MultiChannel tests channel summation.
func TestConv2D_MultiChannel(t *testing.T) {
	backend := New()

	// Two input channels, 1x1 kernel [2, 3]: out = 2*c0 + 3*c1.
	input := rawFromFloat32(t, []float32{1, 2, 10, 20}, tensor.Shape{1, 2, 1, 2})
	kernel := rawFromFloat32(t, []float32{2, 3}, tensor.Shape{1, 2, 1, 1})

	out := backend.Conv2D(input, kernel, 1, 0)
	assertFloat32s(t, out.AsFloat32(), []float32{32, 64}, 1e-6)
}

// TestConv2D_ShapeMismatchPanics tests the kernel-channel check.
func TestConv2D_ShapeMismatchPanics(t *testing.T) {
	backend := New()
	input := rawFromFloat32(t, make([]float32, 4), tensor.Shape{1, 1, 2, 2})
	kernel := rawFromFloat32(t, make([]float32, 8), tensor.Shape{1, 2, 2, 2})

	defer func() {
		if recover() == nil {
			t.Error("Expected panic on channel mismatch")
		}
	}()
	backend.Conv2D(input, kernel, 1, 0)
}

// TestMaxPool2D_Padding tests that padded positions are ignored.
func TestMaxPool2D_Padding(t *testing.T) {
	backend := New()

	input := rawFromFloat32(t, []float32{-1, -2, -3, -4}, tensor.Shape{1, 1, 2, 2})
	out := backend.MaxPool2D(input, 3, 1, 1)

	if !out.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Expected shape {1,1,2,2}, got %v", out.Shape())
	}
	// All windows contain -1; zero padding must not win over negatives.
	assertFloat32s(t, out.AsFloat32(), []float32{-1, -1, -1, -1}, 0)
}

// TestUpsample2D tests nearest-neighbor upsampling.
func TestUpsample2D(t *testing.T) {
	backend := New()

	input := rawFromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	out := backend.Upsample2D(input, 2)

	if !out.Shape().Equal(tensor.Shape{1, 1, 4, 4}) {
		t.Fatalf("Expected shape {1,1,4,4}, got %v", out.Shape())
	}
	want := []float32{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	}
	assertFloat32s(t, out.AsFloat32(), want, 0)
}

// TestCat_ChannelDim tests concatenation along the channel dimension.
func TestCat_ChannelDim(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	b := rawFromFloat32(t, []float32{5, 6, 7, 8}, tensor.Shape{1, 1, 2, 2})

	out := backend.Cat([]*tensor.RawTensor{a, b}, 1)
	if !out.Shape().Equal(tensor.Shape{1, 2, 2, 2}) {
		t.Fatalf("Expected shape {1,2,2,2}, got %v", out.Shape())
	}
	assertFloat32s(t, out.AsFloat32(), []float32{1, 2, 3, 4, 5, 6, 7, 8}, 0)
}

// TestCat_BatchDim tests concatenation along the outermost dimension.
func TestCat_BatchDim(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, []float32{1, 2}, tensor.Shape{1, 2})
	b := rawFromFloat32(t, []float32{3, 4}, tensor.Shape{1, 2})
	c := rawFromFloat32(t, []float32{5, 6}, tensor.Shape{1, 2})

	out := backend.Cat([]*tensor.RawTensor{a, b, c}, 0)
	if !out.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Expected shape {3,2}, got %v", out.Shape())
	}
	assertFloat32s(t, out.AsFloat32(), []float32{1, 2, 3, 4, 5, 6}, 0)
}

// TestTranspose tests axis permutation.
func TestTranspose(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	out := backend.Transpose(a)
	if !out.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Expected shape {3,2}, got %v", out.Shape())
	}
	assertFloat32s(t, out.AsFloat32(), []float32{1, 4, 2, 5, 3, 6}, 0)
}

// TestTranspose_HeadLayout tests the detection-head permutation
// (0,1,3,4,2) on a 5D tensor.
func TestTranspose_HeadLayout(t *testing.T) {
	backend := New()

	// [1, 1, 2, 1, 2]: predictions-last layout from [.., no=2, h=1, w=2].
	a := rawFromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 1, 2})
	out := backend.Transpose(a, 0, 1, 3, 4, 2)

	if !out.Shape().Equal(tensor.Shape{1, 1, 1, 2, 2}) {
		t.Fatalf("Expected shape {1,1,1,2,2}, got %v", out.Shape())
	}
	// in[0,0,p,0,w] -> out[0,0,0,w,p]
	assertFloat32s(t, out.AsFloat32(), []float32{1, 3, 2, 4}, 0)
}

// TestReshape tests metadata-only reshaping.
func TestReshape(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	out := backend.Reshape(a, tensor.Shape{3, 2})
	if !out.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Expected shape {3,2}, got %v", out.Shape())
	}
	assertFloat32s(t, out.AsFloat32(), []float32{1, 2, 3, 4, 5, 6}, 0)
}

// TestScalarOps tests MulScalar and AddScalar.
func TestScalarOps(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, []float32{1, 2, 3}, tensor.Shape{3})
	assertFloat32s(t, backend.MulScalar(a, float32(2)).AsFloat32(), []float32{2, 4, 6}, 1e-6)
	assertFloat32s(t, backend.AddScalar(a, float32(-1)).AsFloat32(), []float32{0, 1, 2}, 1e-6)
}

// TestMathOps tests element-wise Exp, Log, and Sqrt.
func TestMathOps(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, []float32{0, 1, 2}, tensor.Shape{3})
	exp := backend.Exp(a).AsFloat32()
	want := []float32{1, float32(math.E), float32(math.Exp(2))}
	assertFloat32s(t, exp, want, 1e-5)

	b := rawFromFloat32(t, []float32{1, math.E, 4}, tensor.Shape{3})
	assertFloat32s(t, backend.Log(b).AsFloat32(), []float32{0, 1, float32(math.Log(4))}, 1e-5)

	c := rawFromFloat32(t, []float32{4, 9, 16}, tensor.Shape{3})
	assertFloat32s(t, backend.Sqrt(c).AsFloat32(), []float32{2, 3, 4}, 1e-6)
}

// TestActivations tests the capability-interface activations.
func TestActivations(t *testing.T) {
	backend := New()
	a := rawFromFloat32(t, []float32{-2, 0, 3}, tensor.Shape{3})

	relu := backend.ReLU(a).AsFloat32()
	assertFloat32s(t, relu, []float32{0, 0, 3}, 0)

	sig := backend.Sigmoid(a).AsFloat32()
	for i, x := range []float32{-2, 0, 3} {
		want := 1 / (1 + math.Exp(-float64(x)))
		if math.Abs(float64(sig[i])-want) > 1e-6 {
			t.Errorf("Sigmoid(%g): got %g, want %g", x, sig[i], want)
		}
	}

	silu := backend.SiLU(a).AsFloat32()
	for i, x := range []float32{-2, 0, 3} {
		want := float64(x) / (1 + math.Exp(-float64(x)))
		if math.Abs(float64(silu[i])-want) > 1e-6 {
			t.Errorf("SiLU(%g): got %g, want %g", x, silu[i], want)
		}
	}

	leaky := backend.LeakyReLU(a, 0.1).AsFloat32()
	assertFloat32s(t, leaky, []float32{-0.2, 0, 3}, 1e-6)
}
