package systems

import (
	"math"

	"github.com/pthm-cable/retinotectal/components"
)

// AdaptationParams holds the desensitization constants.
type AdaptationParams struct {
	Mu     float64
	Lambda float64
}

// AdaptationCoefficient returns 1 - ln(1 + mu·Σk|w_k|/Σk), rounded to 6
// decimals. window is ordered oldest to newest; weight k runs 1..len.
func AdaptationCoefficient(window []float64, mu float64) float64 {
	var weighted, weights float64
	for i, v := range window {
		k := float64(i + 1)
		weighted += k * math.Abs(v)
		weights += k
	}
	if weights == 0 {
		return 1
	}
	return components.Round6(1 - math.Log(1+mu*weighted/weights))
}

// ResetForce returns the resensitizing term lambda·(1-rho).
func ResetForce(rho, lambda float64) float64 {
	return lambda * (1 - rho)
}

// Adapt applies one adaptation tick to a cone. An empty window means the
// history is still too short; the cone is left untouched and Adapt returns false.
func Adapt(p AdaptationParams, window []float64, s *components.Sensors, a *components.Adaptation) bool {
	if len(window) == 0 {
		return false
	}
	a.Coefficient = AdaptationCoefficient(window, p.Mu)
	a.ResetForce = ResetForce(s.Rho, p.Lambda)
	rho := components.Round6(math.Max(0, s.Rho*a.Coefficient+a.ResetForce))
	s.SetRho(rho)
	return true
}
