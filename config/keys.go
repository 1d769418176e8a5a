package config

// SubstrateType names a substrate generation strategy.
type SubstrateType string

const (
	ContinuousGradients SubstrateType = "continuous_gradients"
	Wedges              SubstrateType = "wedges"
	Stripe              SubstrateType = "stripe"
	Gap                 SubstrateType = "gap"
	GapInverted         SubstrateType = "gap_inv"
)

// BlockType is the signal carried by a gap assay block.
type BlockType string

const (
	Ligand   BlockType = "ligand"
	Receptor BlockType = "receptor"
)

// Cone scopes select a half of the retinal population.
const (
	ScopeFull     = "full"
	ScopeNasal    = "nasal"
	ScopeTemporal = "temporal"
)

// Substrate scopes select a half of the tectal field.
const (
	ScopeAnterior  = "anterior"
	ScopePosterior = "posterior"
)

// Acceptance rules.
const (
	AcceptanceLogistic = "logistic"
	AcceptanceGaussian = "gaussian"
)

// Fiber-fiber overlap formulations.
const (
	OverlapKernel = "kernel"
	OverlapCircle = "circle"
)

// Flat parameter keys. These match the yaml tags of the Config sections
// and are the keys accepted by FromMap, With and sweep files.
const (
	KeyGCCount  = "gc_count"
	KeyGCSize   = "gc_size"
	KeyStepSize = "step_size"
	KeyStepNum  = "step_num"
	KeySeed     = "seed"
	KeyWorkers  = "workers"

	KeyXStepPossibility = "x_step_possibility"
	KeyYStepPossibility = "y_step_possibility"
	KeySigma            = "sigma"
	KeyForce            = "force"
	KeyAcceptance       = "acceptance"

	KeyForwardSig       = "forward_sig"
	KeyReverseSig       = "reverse_sig"
	KeyFFInter          = "ff_inter"
	KeyFTInter          = "ft_inter"
	KeyCisInter         = "cis_inter"
	KeySigmoidSteepness = "sigmoid_steepness"
	KeySigmoidShift     = "sigmoid_shift"
	KeySigmoidHeight    = "sigmoid_height"
	KeyFFOverlap        = "ff_overlap"
	KeyKernelDecay      = "kernel_decay"
	KeyKernelThreshold  = "kernel_threshold"

	KeyReceptorDecay  = "receptor_decay"
	KeyLigandDecay    = "ligand_decay"
	KeyReceptorFactor = "gc_r_factor"
	KeyLigandFactor   = "gc_l_factor"
	KeyReceptorShift  = "gc_r_shift"
	KeyLigandShift    = "gc_l_shift"
	KeyRho            = "rho"
	KeyGCScope        = "gc_scope"

	KeyAdaptationEnabled = "adaptation_enabled"
	KeyAdaptationMu      = "adaptation_mu"
	KeyAdaptationLambda  = "adaptation_lambda"
	KeyAdaptationHistory = "adaptation_history"

	KeySubstrateType  = "substrate_type"
	KeyRows           = "rows"
	KeyCols           = "cols"
	KeySubstrateScope = "substrate_scope"

	KeyGradLigandMin         = "cont_grad_l_min"
	KeyGradLigandMax         = "cont_grad_l_max"
	KeyGradReceptorMin       = "cont_grad_r_min"
	KeyGradReceptorMax       = "cont_grad_r_max"
	KeyGradLigandSteepness   = "cont_grad_l_steepness"
	KeyGradReceptorSteepness = "cont_grad_r_steepness"

	KeyWedgeNarrowEdge = "wedge_narrow_edge"
	KeyWedgeWideEdge   = "wedge_wide_edge"

	KeyStripeForward      = "stripe_fwd"
	KeyStripeReverse      = "stripe_rew"
	KeyStripeLigandConc   = "stripe_ligand_conc"
	KeyStripeReceptorConc = "stripe_receptor_conc"
	KeyStripeWidth        = "stripe_width"

	KeyGapBegin           = "gap_begin"
	KeyGapEnd             = "gap_end"
	KeyGapFirstBlock      = "gap_first_block"
	KeyGapSecondBlock     = "gap_second_block"
	KeyGapFirstBlockConc  = "gap_first_block_conc"
	KeyGapSecondBlockConc = "gap_second_block_conc"

	KeyInterimResults = "interim_results"
	KeyStatsWindow    = "stats_window"
)
