package engine

// PivotPickingStrategy selects how the simplex picks an entering/leaving
// variable during a pivot step.
type PivotPickingStrategy int

const (
	// Dantzig picks the non-basic with the most negative reduced cost.
	Dantzig PivotPickingStrategy = iota
	// Blands picks the lowest-indexed eligible variable, guaranteeing
	// termination at the cost of throughput; the search driver also switches
	// to it once a single feasibility restoration needs more than 4×rows
	// consecutive pivots.
	Blands
	// SteepestEdge weighs reduced cost by the norm of the pivot column.
	SteepestEdge
)

func (p PivotPickingStrategy) String() string {
	switch p {
	case Dantzig:
		return "DANTZIG"
	case Blands:
		return "BLANDS"
	case SteepestEdge:
		return "STEEPEST_EDGE"
	default:
		return "UNKNOWN"
	}
}

// BranchingHeuristic selects which piecewise constraint and phase the
// search driver splits on when the LP is feasible but piecewise
// constraints remain violated.
type BranchingHeuristic int

const (
	// Topological picks the earliest unresolved constraint in declaration
	// order (suited to layered neural-network encodings).
	Topological BranchingHeuristic = iota
	// Polarity combines phase balance and learned-clause activity
	// (VSIDS-like).
	Polarity
	// PseudoImpact uses the SoI manager's recorded impact of flipping each
	// constraint's phase.
	PseudoImpact
	// LargestInterval picks the participating variable with the largest
	// current bound interval (input splitting).
	LargestInterval
)

func (b BranchingHeuristic) String() string {
	switch b {
	case Topological:
		return "TOPOLOGICAL"
	case Polarity:
		return "POLARITY"
	case PseudoImpact:
		return "PSEUDO_IMPACT"
	case LargestInterval:
		return "LARGEST_INTERVAL"
	default:
		return "UNKNOWN"
	}
}

// Config is the engine's immutable configuration, threaded through every
// subsystem at construction time. There is no global/mutable configuration
// state anywhere in the package; every comparison that needs a tolerance or
// a cap reads it from the Config reachable from the owning Engine.
type Config struct {
	// SimplexTolerance is the numeric slack used for every bound/equality
	// comparison throughout the engine.
	SimplexTolerance float64

	// PivotPickingStrategy selects the entering-variable rule.
	PivotPickingStrategy PivotPickingStrategy

	// RowTighteningSaturationCap bounds the number of saturation passes the
	// row bound tightener performs per simplex round.
	RowTighteningSaturationCap int

	// RefactorizationEtaThreshold is the number of eta updates after which
	// the basis factorization is rebuilt from scratch.
	RefactorizationEtaThreshold int

	// DegradationThreshold is the absolute residual ||Ax||∞ above which the
	// degradation checker requests refactorization.
	DegradationThreshold float64

	// ConstraintViolationSplitThreshold is accepted and defaulted but not
	// read by the search driver: no per-constraint violation count is kept,
	// and case splits start only when SoI stalls (DeepSoIRejectionThreshold).
	ConstraintViolationSplitThreshold int

	// DeepSoIRejectionThreshold is how many consecutive phase-flip
	// proposals SoI may have rejected before it surrenders to the driver.
	DeepSoIRejectionThreshold int

	// RestartSequence selects the Luby restart sequence's base unit (number
	// of conflicts before the first restart).
	RestartSequence int

	// BranchingHeuristic selects the case-split selection strategy.
	BranchingHeuristic BranchingHeuristic

	// ProduceProofs requests proof-certificate emission. Proof production
	// is delegated to an external collaborator and is not implemented here;
	// NewEngine rejects Config values with ProduceProofs set to true.
	ProduceProofs bool

	// TimeoutSeconds is the wall-clock budget for Engine.Solve. Zero means
	// no timeout.
	TimeoutSeconds float64
}

// DefaultConfig returns the configuration used when the caller does not
// supply one, matching the defaults enumerated in the specification.
func DefaultConfig() *Config {
	return &Config{
		SimplexTolerance:                  1e-9,
		PivotPickingStrategy:              Dantzig,
		RowTighteningSaturationCap:        20,
		RefactorizationEtaThreshold:       100,
		DegradationThreshold:              1e-2,
		ConstraintViolationSplitThreshold: 20,
		DeepSoIRejectionThreshold:         20,
		RestartSequence:                   512,
		BranchingHeuristic:                Topological,
		ProduceProofs:                     false,
		TimeoutSeconds:                    0,
	}
}

// validate checks the configuration for self-consistency.
func (c *Config) validate() error {
	if c.ProduceProofs {
		return ErrProofsUnsupported
	}
	if c.SimplexTolerance <= 0 {
		return &InvariantViolation{Detail: "SimplexTolerance must be positive"}
	}
	if c.RowTighteningSaturationCap < 0 {
		return &InvariantViolation{Detail: "RowTighteningSaturationCap must be non-negative"}
	}
	if c.RefactorizationEtaThreshold <= 0 {
		return &InvariantViolation{Detail: "RefactorizationEtaThreshold must be positive"}
	}
	return nil
}
