package search

import (
	"fmt"
	"math/rand"
	"time"
)

// Evaluation is the verdict over one candidate assignment. Score already
// includes the hard-violation penalty, so a single float comparison orders
// candidates; HardViolations is kept separate because feasible candidates
// dominate infeasible ones regardless of score.
type Evaluation struct {
	Score          float64
	SoftScore      float64
	HardViolations int
	SlotViolations []int // per-slot hard-violation counts, indexed like the assignment
}

// Move describes a change over a handful of assignment slots. An empty move
// means the problem could not produce a neighbor this iteration.
type Move struct {
	Slots  []int
	Values []int
}

func (move Move) Empty() bool {
	return len(move.Slots) == 0
}

// Problem is the contract a domain must satisfy to be searched. An assignment
// is a slice of slot values; Unassigned marks a slot with no value. All
// methods must be safe to call concurrently on independent assignment copies.
type Problem interface {
	Size() int

	// Seed produces a valid starting assignment. It is not expected to be
	// good, only to respect per-slot domains and capacities.
	Seed(rng *rand.Rand) []int

	// Neighbor proposes a single move over the current assignment. The
	// evaluation of the current assignment is provided so implementations can
	// target slots with remaining violations first.
	Neighbor(rng *rand.Rand, current []int, eval Evaluation) Move

	Evaluate(assignment []int) Evaluation
}

// Unassigned is the slot value for "no placement".
const Unassigned = -1

type Termination int

const (
	Converged Termination = iota
	TimedOut
)

var terminationNames = map[Termination]string{
	Converged: "converged",
	TimedOut:  "timedout",
}

func (termination Termination) String() string {
	return terminationNames[termination]
}

type Outcome struct {
	Best        []int
	Evaluation  Evaluation
	Termination Termination
	Iterations  uint64 // summed across restarts
	Restarts    int
}

type Config struct {
	TimeBudget         time.Duration
	Seed               int64
	Restarts           int
	Patience           int // consecutive non-improving iterations before a restart converges
	MaxIterations      uint64
	InitialTemperature float64
	CoolingRate        float64
}

func (config Config) validate() error {
	if config.TimeBudget <= 0 {
		return fmt.Errorf("time budget must be positive: %v", config.TimeBudget)
	} else if config.Restarts < 1 {
		return fmt.Errorf("restart count must be at least 1: %v", config.Restarts)
	} else if config.Patience < 1 {
		return fmt.Errorf("patience must be at least 1: %v", config.Patience)
	} else if config.CoolingRate <= 0 || config.CoolingRate >= 1 {
		return fmt.Errorf("cooling rate must be strictly between 0 and 1: %v", config.CoolingRate)
	} else if config.InitialTemperature < 0 {
		return fmt.Errorf("initial temperature must not be negative: %v", config.InitialTemperature)
	}
	return nil
}

type Engine interface {
	Search(problem Problem, config Config) (Outcome, error)
}
