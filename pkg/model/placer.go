package model

import (
	"github.com/schulplan/placement/pkg/search"
)

// Placer is the engine's single entry operation: solve one snapshot under one
// configuration. Infeasible models yield both a structured Result and an
// *InfeasibleModelError, so callers can branch without parsing messages.
type Placer interface {
	Place(input ModelInput, config SolveConfig) (Result, error)
}

type placer struct {
	engine search.Engine
}

func NewPlacer(engine search.Engine) Placer {
	return &placer{engine: engine}
}

func (placer *placer) Place(input ModelInput, config SolveConfig) (Result, error) {
	//** Reject malformed configuration before touching the model
	if err := config.Validate(); err != nil {
		return Result{}, err
	}

	//** Compile and validate the snapshot
	compiled, err := compile(input, config)
	if err != nil {
		return Result{}, err
	}

	//** Prove infeasibility cheaply before any search iteration runs
	if reasons := checkFeasibility(compiled); len(reasons) > 0 {
		result := Result{
			Placements:      unassignedPlacements(input.Items),
			Quality:         0,
			Termination:     "infeasible",
			Infeasibilities: reasons,
		}
		return result, &InfeasibleModelError{Reasons: reasons}
	}

	//** Search
	outcome, err := placer.engine.Search(newPlacementProblem(compiled), search.Config{
		TimeBudget:         config.TimeBudget,
		Seed:               config.Seed,
		Restarts:           config.Restarts,
		Patience:           config.Patience,
		MaxIterations:      config.MaxIterations,
		InitialTemperature: config.InitialTemperature,
		CoolingRate:        config.CoolingRate,
	})
	if err != nil {
		return Result{}, err
	}

	//** Assemble the output contract
	return assembleResult(compiled, outcome)
}

func unassignedPlacements(items []Item) []Placement {
	placements := make([]Placement, len(items))
	for i, item := range items {
		placements[i] = Placement{ItemId: item.Id}
	}
	return placements
}
