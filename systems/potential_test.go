package systems

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/retinotectal/components"
	"github.com/pthm-cable/retinotectal/config"
)

func testCalculator(t *testing.T, ch Channels, st Strategy) *Calculator {
	t.Helper()
	k, err := KernelFor(1.2, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	return &Calculator{
		Substrate: newTestSubstrate(t, 6, 12, 2, st),
		Kernel:    k,
		Overlap:   KernelOverlap{Kernel: k},
		Channels:  ch,
		Ramp:      Ramp{Steepness: 4, Shift: 1.75, Height: 50, Total: 1000},
	}
}

func testCone(id int, x, y, ligand, receptor, rho float64) ConeState {
	return NewConeState(
		components.Identity{ID: id, Radius: 2},
		components.Position{X: x, Y: y},
		components.NewSensors(ligand, receptor, rho),
	)
}

var testGradient = Gradient{
	LigandMin: 0.01, LigandMax: 3,
	ReceptorMin: 0.01, ReceptorMax: 3,
	LigandSteepness: 1, ReceptorSteepness: 1,
}

func TestRampCoefficient(t *testing.T) {
	r := Ramp{Steepness: 4, Shift: 1.75, Height: 50, Total: 1000}

	if c := r.Coefficient(0); c > 1e-3 {
		t.Errorf("Coefficient(0) = %g, want ~0", c)
	}
	prev := -1.0
	for step := 0; step <= r.Total; step += 10 {
		c := r.Coefficient(step)
		if c < prev {
			t.Fatalf("Coefficient decreased at step %d: %g < %g", step, c, prev)
		}
		prev = c
	}
	if c := r.Coefficient(r.Total); math.Abs(c-r.Height) > 0.01 {
		t.Errorf("Coefficient(total) = %g, want ~%g", c, r.Height)
	}
}

func TestPotentialAllChannelsOff(t *testing.T) {
	calc := testCalculator(t, Channels{}, testGradient)
	cone := testCone(0, 5, 4, 1.3, 0.7, 0.6)
	others := []ConeState{cone, testCone(1, 6, 4, 2, 2, 1)}

	got, err := calc.Potential(cone, cone.Position, others, 500)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("Potential = %g, want 0", got)
	}
}

func TestPotentialFiberTarget(t *testing.T) {
	ch := Channels{Forward: true, Reverse: true, FT: true}
	st := GapAssay{Begin: 1, End: 0, FirstBlock: config.Ligand, SecondBlock: config.Ligand, FirstBlockConc: 1, SecondBlockConc: 1}
	calc := testCalculator(t, ch, st)
	cone := testCone(0, 6, 4, 1, 1, 1)

	got, err := calc.Potential(cone, cone.Position, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	// Receptor-free field: rev floors, fwd = outerReceptor·Σ K.
	fwd := components.Round6(calc.Kernel.Sum)
	want := math.Abs(math.Log(SignalFloor) - math.Log(fwd))
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Potential = %g, want %g", got, want)
	}
}

func TestPotentialDirectionalToggles(t *testing.T) {
	cone := testCone(0, 6, 4, 1, 1, 1)

	// Every channel on but both directions off: both signals floor.
	calc := testCalculator(t, Channels{FT: true, FF: true, Cis: true}, testGradient)
	got, err := calc.Potential(cone, cone.Position, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("Potential with both directions off = %g, want 0", got)
	}

	// Only one direction: the other is floored, so the potential grows
	// with the remaining signal.
	calc = testCalculator(t, Channels{Forward: true, FT: true}, testGradient)
	left, err := calc.Potential(cone, components.Position{X: 3, Y: 3}, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	right, err := calc.Potential(cone, components.Position{X: 12, Y: 3}, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if right <= left {
		t.Errorf("forward-only potential should rise with ligand: left=%g right=%g", left, right)
	}
}

func TestPotentialCisIsPositionIndependent(t *testing.T) {
	calc := testCalculator(t, Channels{Forward: true, Reverse: true, Cis: true}, testGradient)
	cone := testCone(0, 6, 4, 1.2, 0.4, 0.3)

	for _, pos := range []components.Position{{X: 3, Y: 3}, {X: 10, Y: 5}} {
		got, err := calc.Potential(cone, pos, nil, 0)
		if err != nil {
			t.Fatal(err)
		}
		if got != 0 {
			t.Errorf("cis-only potential at %+v = %g, want 0 (fwd == rev)", pos, got)
		}
	}
}

func TestPotentialFiberFiber(t *testing.T) {
	ch := Channels{Forward: true, Reverse: true, FF: true}
	calc := testCalculator(t, ch, testGradient)

	cone := testCone(0, 6, 4, 1, 2, 1)
	near := testCone(1, 7, 4, 3, 0.5, 1)
	far := testCone(2, 13, 4, 3, 0.5, 1)

	alone, err := calc.Potential(cone, cone.Position, []ConeState{cone, far}, 800)
	if err != nil {
		t.Fatal(err)
	}
	if alone != 0 {
		t.Errorf("potential without overlapping neighbours = %g, want 0", alone)
	}

	fwd, rev, err := calc.Signals(cone, cone.Position, []ConeState{cone, near}, 800)
	if err != nil {
		t.Fatal(err)
	}
	w := calc.Kernel.Correlation(-1, 0)
	coef := calc.Ramp.Coefficient(800)
	if math.Abs(fwd-coef*2*3*w) > 1e-9 {
		t.Errorf("fwd = %g, want %g", fwd, coef*2*3*w)
	}
	if math.Abs(rev-coef*1*0.5*w) > 1e-9 {
		t.Errorf("rev = %g, want %g", rev, coef*1*0.5*w)
	}
}

func TestPotentialNonNegative(t *testing.T) {
	calc := testCalculator(t, Channels{Forward: true, Reverse: true, FF: true, FT: true, Cis: true}, testGradient)
	cones := []ConeState{
		testCone(0, 3, 3, 2.5, 0.1, 0.9),
		testCone(1, 4, 4, 0.1, 2.5, 0.2),
		testCone(2, 12, 5, 1, 1, 0.5),
	}
	for _, c := range cones {
		for step := 0; step <= 1000; step += 250 {
			got, err := calc.Potential(c, c.Position, cones, step)
			if err != nil {
				t.Fatal(err)
			}
			if got < 0 || math.IsNaN(got) {
				t.Errorf("cone %d step %d: potential %g", c.ID, step, got)
			}
		}
	}
}

func TestPotentialOutOfBounds(t *testing.T) {
	calc := testCalculator(t, Channels{Forward: true, FT: true}, testGradient)
	cone := testCone(0, 0, 0, 1, 1, 1)
	if _, err := calc.Potential(cone, cone.Position, nil, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Potential = %v, want ErrOutOfBounds", err)
	}
}

func TestNewCalculatorKernelTooWide(t *testing.T) {
	cfg, err := config.FromMap(map[string]any{config.KeyGCSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	sub := newTestSubstrate(t, 8, 20, 1, testGradient)
	if _, err := NewCalculator(cfg, sub); !errors.Is(err, config.ErrConfiguration) {
		t.Errorf("NewCalculator = %v, want ErrConfiguration", err)
	}
}

func TestCircleIntersection(t *testing.T) {
	tests := []struct {
		d, r1, r2 float64
		want      float64
	}{
		{0, 2, 2, 4 * math.Pi},
		{4, 2, 2, 0},
		{5, 2, 2, 0},
		{0.5, 3, 1, math.Pi},
		// Two unit circles one radius apart: 2π/3 - √3/2.
		{1, 1, 1, 2*math.Pi/3 - math.Sqrt(3)/2},
	}
	for _, tt := range tests {
		if got := CircleIntersection(tt.d, tt.r1, tt.r2); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("CircleIntersection(%g,%g,%g) = %g, want %g", tt.d, tt.r1, tt.r2, got, tt.want)
		}
	}
}

func TestCalculatorFitRadius(t *testing.T) {
	k, err := KernelFor(1.2, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name      string
		overlap   Overlap
		radius    int
		wantReach float64
	}{
		{"circle widens", CircleOverlap{MaxRadius: 2}, 4, 8},
		{"circle keeps larger", CircleOverlap{MaxRadius: 5}, 3, 10},
		{"kernel unchanged", KernelOverlap{Kernel: k}, 9, float64(2 * k.Radius)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Calculator{Overlap: tt.overlap}
			c.FitRadius(tt.radius)
			if got := c.Overlap.Reach(); got != tt.wantReach {
				t.Errorf("Reach() = %v, want %v", got, tt.wantReach)
			}
		})
	}
}
