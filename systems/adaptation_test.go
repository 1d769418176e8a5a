package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/retinotectal/components"
)

func constWindow(n int, v float64) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = v
	}
	return w
}

func TestAdaptationCoefficient(t *testing.T) {
	tests := []struct {
		name   string
		window []float64
		mu     float64
		want   float64
	}{
		{"zero potentials", constWindow(10, 0), 0.09, 1},
		{"constant", constWindow(10, 2), 0.09, components.Round6(1 - math.Log(1.18))},
		// Σk|w_k|/Σk = (2·3)/3 = 2
		{"recency weighted", []float64{0, 3}, 0.5, components.Round6(1 - math.Log(2))},
		{"sign ignored", []float64{-2, -2}, 0.09, components.Round6(1 - math.Log(1.18))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AdaptationCoefficient(tt.window, tt.mu); got != tt.want {
				t.Errorf("AdaptationCoefficient = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestAdaptDesensitizes(t *testing.T) {
	p := AdaptationParams{Mu: 0.09, Lambda: 0.002}
	s := components.NewSensors(1, 1, 0.7)
	a := components.NewAdaptation()
	window := constWindow(10, 2)

	prevRho := s.Rho
	prevDelta := math.Inf(1)
	for tick := 0; tick < 200; tick++ {
		if !Adapt(p, window, &s, &a) {
			t.Fatal("Adapt refused a full window")
		}
		if a.Coefficient >= 1 {
			t.Fatalf("tick %d: coefficient %g, want < 1", tick, a.Coefficient)
		}
		delta := math.Abs(s.Rho - prevRho)
		if delta > prevDelta+2e-6 {
			t.Fatalf("tick %d: rho step grew from %g to %g", tick, prevDelta, delta)
		}
		prevRho, prevDelta = s.Rho, delta
	}

	// Fixed point of rho' = rho·c + λ(1-rho).
	c := AdaptationCoefficient(window, p.Mu)
	want := p.Lambda / (1 - c + p.Lambda)
	if math.Abs(s.Rho-want) > 1e-4 {
		t.Errorf("rho settled at %g, want ~%g", s.Rho, want)
	}
	if s.Rho >= 0.7 {
		t.Error("constant stimulation should desensitize")
	}
}

func TestAdaptResensitizes(t *testing.T) {
	p := AdaptationParams{Mu: 0.09, Lambda: 0.05}
	s := components.NewSensors(2, 3, 0.1)
	a := components.NewAdaptation()
	window := constWindow(5, 0)

	prev := s.Rho
	for tick := 0; tick < 100; tick++ {
		Adapt(p, window, &s, &a)
		if s.Rho < prev || s.Rho > 1 || s.Rho < 0 {
			t.Fatalf("tick %d: rho %g after %g", tick, s.Rho, prev)
		}
		prev = s.Rho
	}
	if s.Rho < 0.9 {
		t.Errorf("rho = %g, want recovery toward 1", s.Rho)
	}
	if math.Abs(s.OuterReceptor-components.Round6(3*s.Rho)) > 1e-9 {
		t.Error("sensors not recomputed from the new rho")
	}
}

func TestAdaptClampsAtZero(t *testing.T) {
	p := AdaptationParams{Mu: 10, Lambda: 0}
	s := components.NewSensors(1, 1, 0.5)
	a := components.NewAdaptation()

	Adapt(p, constWindow(3, 5), &s, &a)
	if s.Rho != 0 {
		t.Errorf("rho = %g, want clamp at 0", s.Rho)
	}
}

func TestAdaptEmptyWindow(t *testing.T) {
	s := components.NewSensors(1, 1, 0.5)
	a := components.NewAdaptation()
	if Adapt(AdaptationParams{Mu: 1, Lambda: 1}, nil, &s, &a) {
		t.Error("Adapt should refuse an empty window")
	}
	if s.Rho != 0.5 || a.Coefficient != 1 {
		t.Error("Adapt modified state for an empty window")
	}
}
