package simulation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/retinotectal/config"
)

// TwoPhaseResult holds both runs of a sequential-cohort experiment.
type TwoPhaseResult struct {
	First  *Result
	Second *Result
}

// RunTwoPhase grows a first cohort with first, then freezes and marks the
// part of it selected by keep (a gc_scope keyword) and grows a second
// cohort from second alongside it. Second cohort IDs continue after the
// first cohort's. opts.Output and opts.SnapshotDir apply to the second run.
func RunTwoPhase(ctx context.Context, first, second *config.Config, keep string, opts Options) (*TwoPhaseResult, error) {
	firstOpts := opts
	firstOpts.Output = nil
	firstOpts.SnapshotDir = ""

	sim1, err := Build(first, firstOpts)
	if err != nil {
		return nil, fmt.Errorf("building first cohort: %w", err)
	}
	defer sim1.Close()

	res1, err := sim1.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("running first cohort: %w", err)
	}

	adopted := make([]ConeSpec, 0, len(res1.Cones))
	nextID := 0
	for _, c := range res1.Cones {
		adopted = append(adopted, ConeSpec{
			ID:       c.ID,
			X:        c.Position.X,
			Y:        c.Position.Y,
			Radius:   c.Radius,
			Ligand:   c.Sensors.Ligand,
			Receptor: c.Sensors.Receptor,
			Rho:      c.Sensors.Rho,
			Origin:   c.Origin,
			Frozen:   true,
			Marked:   true,
		})
		nextID = max(nextID, c.ID+1)
	}
	adopted, err = ScopeCones(adopted, keep)
	if err != nil {
		return nil, err
	}

	sub, err := BuildSubstrate(second)
	if err != nil {
		return nil, fmt.Errorf("building second substrate: %w", err)
	}
	fresh, err := InitialCones(second)
	if err != nil {
		return nil, err
	}
	for i := range fresh {
		fresh[i].ID = nextID + i
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("second cohort", "frozen", len(adopted), "growing", len(fresh))

	sim2, err := New(second, sub, append(adopted, fresh...), opts)
	if err != nil {
		return nil, fmt.Errorf("building second cohort: %w", err)
	}
	defer sim2.Close()

	res2, err := sim2.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("running second cohort: %w", err)
	}
	return &TwoPhaseResult{First: res1, Second: res2}, nil
}

// ExpansionResult compares an ablated mapping with the intact baseline.
type ExpansionResult struct {
	Baseline *Result
	Ablated  *Result

	BaselineCorrelation float64
	AblatedCorrelation  float64

	// SpreadRatio is the ablated projection's tectal spread over the
	// baseline's. Above 1 means the surviving cones expanded.
	SpreadRatio float64
}

// RunExpansion runs cfg as given (its gc_scope and substrate_scope select
// the ablation) and the same configuration with both scopes full.
// opts.Output applies to the ablated run.
func RunExpansion(ctx context.Context, cfg *config.Config, opts Options) (*ExpansionResult, error) {
	baseCfg, err := cfg.With(map[string]any{
		config.KeyGCScope:        config.ScopeFull,
		config.KeySubstrateScope: config.ScopeFull,
	})
	if err != nil {
		return nil, err
	}

	baseOpts := opts
	baseOpts.Output = nil
	baseOpts.SnapshotDir = ""
	base, err := runOnce(ctx, baseCfg, baseOpts)
	if err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}

	ablated, err := runOnce(ctx, cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("ablated: %w", err)
	}

	out := &ExpansionResult{
		Baseline:            base,
		Ablated:             ablated,
		BaselineCorrelation: base.MappingCorrelation(),
		AblatedCorrelation:  ablated.MappingCorrelation(),
	}
	if spread := base.Spread(); spread > 0 {
		out.SpreadRatio = ablated.Spread() / spread
	}
	return out, nil
}

func runOnce(ctx context.Context, cfg *config.Config, opts Options) (*Result, error) {
	sim, err := Build(cfg, opts)
	if err != nil {
		return nil, err
	}
	defer sim.Close()
	return sim.Run(ctx)
}
