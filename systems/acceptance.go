package systems

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/retinotectal/config"
)

// Acceptance maps a potential difference (candidate minus current) to the
// probability of taking the move. Implementations are monotone
// non-increasing in delta, return 0.5 at zero and stay inside (0,1).
type Acceptance interface {
	Probability(delta float64) float64
}

// LogisticAcceptance accepts with 1/(1+exp(delta/sigma)).
type LogisticAcceptance struct {
	dist distuv.Logistic
}

// NewLogisticAcceptance returns a logistic rule of scale sigma.
func NewLogisticAcceptance(sigma float64) LogisticAcceptance {
	return LogisticAcceptance{dist: distuv.Logistic{Mu: 0, S: sigma}}
}

func (l LogisticAcceptance) Probability(delta float64) float64 {
	// Symmetric about zero, so CDF(-x) is the survival function.
	return l.dist.CDF(-delta)
}

// GaussianAcceptance accepts with the normal survival function of delta.
type GaussianAcceptance struct {
	dist distuv.Normal
}

// NewGaussianAcceptance returns a gaussian rule of width sigma.
func NewGaussianAcceptance(sigma float64) GaussianAcceptance {
	return GaussianAcceptance{dist: distuv.Normal{Mu: 0, Sigma: sigma}}
}

func (g GaussianAcceptance) Probability(delta float64) float64 {
	return g.dist.Survival(delta)
}

// StrictDescent accepts only moves that lower the potential.
type StrictDescent struct{}

func (StrictDescent) Probability(delta float64) float64 {
	if delta < 0 {
		return 1
	}
	return 0
}

// NewAcceptance returns the rule selected by the movement configuration.
func NewAcceptance(mv config.MovementConfig) (Acceptance, error) {
	if mv.Force {
		return StrictDescent{}, nil
	}
	switch mv.Acceptance {
	case config.AcceptanceLogistic:
		return NewLogisticAcceptance(mv.Sigma), nil
	case config.AcceptanceGaussian:
		return NewGaussianAcceptance(mv.Sigma), nil
	default:
		return nil, fmt.Errorf("%w: unknown acceptance %q", config.ErrConfiguration, mv.Acceptance)
	}
}

// Accept decides a move given a uniform draw u in [0,1).
func Accept(rule Acceptance, current, candidate, u float64) bool {
	if _, ok := rule.(StrictDescent); ok {
		return candidate < current
	}
	return u < rule.Probability(candidate-current)
}
