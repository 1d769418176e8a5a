package systems

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/retinotectal/config"
)

func TestBuildKernel(t *testing.T) {
	k, err := BuildKernel(1.2, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	if k.Radius != 2 {
		t.Fatalf("Radius = %d, want 2", k.Radius)
	}
	if r, c := k.Weights.Dims(); r != 5 || c != 5 {
		t.Fatalf("Weights dims = %dx%d, want 5x5", r, c)
	}
	if k.Weights.At(2, 2) != 1 {
		t.Errorf("centre weight = %g, want 1", k.Weights.At(2, 2))
	}
	// exp(-4.8) < 0.01 so the axis tips are cut off.
	if k.Weights.At(2, 0) != 0 || k.Weights.At(0, 2) != 0 {
		t.Error("entries below threshold should be zero")
	}

	wantSum := 1 + 4*math.Exp(-1.2) + 4*math.Exp(-2.4)
	if math.Abs(k.Sum-wantSum) > 1e-12 {
		t.Errorf("Sum = %g, want %g", k.Sum, wantSum)
	}
}

func TestBuildKernelErrors(t *testing.T) {
	tests := []struct {
		name             string
		decay, threshold float64
	}{
		{"zero decay", 0, 0.01},
		{"negative decay", -1, 0.01},
		{"zero threshold", 1, 0},
		{"threshold one", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildKernel(tt.decay, tt.threshold); !errors.Is(err, config.ErrConfiguration) {
				t.Errorf("BuildKernel = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestKernelCorrelation(t *testing.T) {
	k, err := BuildKernel(1.2, 0.01)
	if err != nil {
		t.Fatal(err)
	}

	var sq float64
	for _, v := range k.Weights.RawMatrix().Data {
		sq += v * v
	}
	if math.Abs(k.Correlation(0, 0)-sq) > 1e-12 {
		t.Errorf("Correlation(0,0) = %g, want %g", k.Correlation(0, 0), sq)
	}
	if k.Correlation(1, 2) != k.Correlation(-1, -2) {
		t.Error("Correlation should be point symmetric")
	}
	if k.Correlation(1, 0) >= k.Correlation(0, 0) {
		t.Error("Correlation should peak at zero offset")
	}
	if k.Correlation(5, 0) != 0 || k.Correlation(0, -5) != 0 {
		t.Error("Correlation should vanish beyond twice the radius")
	}
}

func TestKernelProject(t *testing.T) {
	k, err := BuildKernel(1.2, 0.01)
	if err != nil {
		t.Fatal(err)
	}

	field := mat.NewDense(7, 9, nil)
	for r := 0; r < 7; r++ {
		for c := 0; c < 9; c++ {
			field.Set(r, c, 2)
		}
	}

	got, err := k.Project(field, 4, 3)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-2*k.Sum) > 1e-12 {
		t.Errorf("Project on constant field = %g, want %g", got, 2*k.Sum)
	}

	for _, p := range [][2]int{{1, 3}, {4, 1}, {7, 3}, {4, 5}} {
		if _, err := k.Project(field, p[0], p[1]); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Project at %v = %v, want ErrOutOfBounds", p, err)
		}
	}
}

func TestKernelForCaches(t *testing.T) {
	a, err := KernelFor(0.7, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	b, err := KernelFor(0.7, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("KernelFor should return the cached kernel")
	}
}
