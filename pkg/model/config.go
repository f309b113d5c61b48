package model

import "time"

// SolveConfig bounds one solve run. Every knob of the acceptance schedule is
// configuration rather than a constant so callers can tune it per deployment.
type SolveConfig struct {
	TimeBudget         time.Duration
	Seed               int64
	Restarts           int
	Patience           int // consecutive non-improving iterations before convergence
	MaxIterations      uint64
	InitialTemperature float64
	CoolingRate        float64 // geometric decay factor applied per iteration
	CohesionWeight     float64 // weight given to cohesion terms derived from peer wishes
}

func DefaultSolveConfig() SolveConfig {
	return SolveConfig{
		TimeBudget:         10 * time.Second,
		Seed:               1,
		Restarts:           4,
		Patience:           2000,
		MaxIterations:      200000,
		InitialTemperature: 10.0,
		CoolingRate:        0.995,
		CohesionWeight:     1.0,
	}
}

// SnapshotConfig is the optional solve configuration an ingestion
// collaborator may embed in the input snapshot. Unset (zero) fields keep the
// value they overlay; callers may still override the result explicitly.
type SnapshotConfig struct {
	TimeBudgetSeconds   float64 `mapstructure:"timeBudgetSeconds"`
	RandomSeed          int64   `mapstructure:"randomSeed"`
	RestartCount        int     `mapstructure:"restartCount"`
	ConvergencePatience int     `mapstructure:"convergencePatience"`
}

func (snapshot SnapshotConfig) Apply(base SolveConfig) SolveConfig {
	if snapshot.TimeBudgetSeconds > 0 {
		base.TimeBudget = time.Duration(snapshot.TimeBudgetSeconds * float64(time.Second))
	}
	if snapshot.RandomSeed != 0 {
		base.Seed = snapshot.RandomSeed
	}
	if snapshot.RestartCount > 0 {
		base.Restarts = snapshot.RestartCount
	}
	if snapshot.ConvergencePatience > 0 {
		base.Patience = snapshot.ConvergencePatience
	}
	return base
}

func (config SolveConfig) Validate() error {
	if config.TimeBudget <= 0 {
		return &ConfigurationError{Field: "timeBudget", Detail: "must be positive"}
	} else if config.Restarts < 1 {
		return &ConfigurationError{Field: "restarts", Detail: "must be at least 1"}
	} else if config.Patience < 1 {
		return &ConfigurationError{Field: "patience", Detail: "must be at least 1"}
	} else if config.CoolingRate <= 0 || config.CoolingRate >= 1 {
		return &ConfigurationError{Field: "coolingRate", Detail: "must be strictly between 0 and 1"}
	} else if config.InitialTemperature < 0 {
		return &ConfigurationError{Field: "initialTemperature", Detail: "must not be negative"}
	} else if config.CohesionWeight < 0 {
		return &ConfigurationError{Field: "cohesionWeight", Detail: "must not be negative"}
	}
	return nil
}
