package search

import (
	"math"
	"math/rand"
	"slices"
	"sync"
	"time"
)

type annealingEngine struct{}

// NewAnnealingEngine returns an Engine running simulated-annealing local
// search over independent parallel restarts. Restart i draws its randomness
// from config.Seed + i, and the winner among restarts is picked by a total
// order (feasibility, score, restart index), so identical inputs yield
// identical outcomes no matter how the goroutines interleave.
func NewAnnealingEngine() Engine {
	return &annealingEngine{}
}

// bestCell is the only state shared between restarts: a slot holding the best
// assignment published so far, exchanged under a mutex on improvement.
type bestCell struct {
	mutex      sync.Mutex
	assignment []int
	eval       Evaluation
	restart    int
	filled     bool
}

// offer replaces the cell content if the candidate wins the total order.
func (cell *bestCell) offer(assignment []int, eval Evaluation, restart int) {
	cell.mutex.Lock()
	defer cell.mutex.Unlock()

	if cell.filled && !wins(eval, restart, cell.eval, cell.restart) {
		return
	}
	cell.assignment = slices.Clone(assignment)
	cell.eval = eval
	cell.restart = restart
	cell.filled = true
}

// dominates reports whether evaluation a strictly beats b: feasible candidates
// beat infeasible ones regardless of score, otherwise the higher score wins.
func dominates(a, b Evaluation) bool {
	aFeasible, bFeasible := a.HardViolations == 0, b.HardViolations == 0
	if aFeasible != bFeasible {
		return aFeasible
	}
	return a.Score > b.Score
}

// wins extends dominates into a total order using the restart index, so equal
// candidates from different restarts resolve the same way every run.
func wins(a Evaluation, aRestart int, b Evaluation, bRestart int) bool {
	if dominates(a, b) {
		return true
	} else if dominates(b, a) {
		return false
	}
	return aRestart < bRestart
}

type restartOutcome struct {
	termination Termination
	iterations  uint64
}

func (engine *annealingEngine) Search(problem Problem, config Config) (Outcome, error) {
	if err := config.validate(); err != nil {
		return Outcome{}, err
	}

	deadline := time.Now().Add(config.TimeBudget)
	cell := &bestCell{}
	outcomes := make([]restartOutcome, config.Restarts)

	var waitGroup sync.WaitGroup
	for restart := 0; restart < config.Restarts; restart++ {
		waitGroup.Add(1)
		go func(restart int) {
			defer waitGroup.Done()
			outcomes[restart] = engine.run(problem, config, restart, deadline, cell)
		}(restart)
	}
	waitGroup.Wait()

	outcome := Outcome{
		Best:        cell.assignment,
		Evaluation:  cell.eval,
		Termination: Converged,
		Restarts:    config.Restarts,
	}
	for _, restartOutcome := range outcomes {
		outcome.Iterations += restartOutcome.iterations
		if restartOutcome.termination == TimedOut {
			outcome.Termination = TimedOut
		}
	}
	return outcome, nil
}

// run executes one restart: seed, then anneal until the deadline, the
// iteration cap, or the patience threshold is hit. Each accept/reject decision
// completes before the deadline is re-checked, so a restart never stops
// mid-evaluation.
func (engine *annealingEngine) run(problem Problem, config Config, restart int, deadline time.Time, cell *bestCell) restartOutcome {
	rng := rand.New(rand.NewSource(config.Seed + int64(restart)))

	current := problem.Seed(rng)
	currentEval := problem.Evaluate(current)

	best := slices.Clone(current)
	bestEval := currentEval
	cell.offer(best, bestEval, restart)

	temperature := config.InitialTemperature
	noImprovement := 0
	var iterations uint64

	for {
		if time.Now().After(deadline) {
			return restartOutcome{termination: TimedOut, iterations: iterations}
		} else if config.MaxIterations > 0 && iterations >= config.MaxIterations {
			return restartOutcome{termination: Converged, iterations: iterations}
		} else if noImprovement >= config.Patience {
			return restartOutcome{termination: Converged, iterations: iterations}
		}
		iterations++

		move := problem.Neighbor(rng, current, currentEval)
		if move.Empty() {
			noImprovement++
			continue
		}

		neighbor := slices.Clone(current)
		for i, slot := range move.Slots {
			neighbor[slot] = move.Values[i]
		}
		neighborEval := problem.Evaluate(neighbor)

		// No tie-break among equal-score neighbors is needed here: Neighbor
		// already proposes moves for the worst-violating slot first
		delta := neighborEval.Score - currentEval.Score
		accept := delta > 0
		if !accept && temperature > 0 {
			// Boltzmann acceptance of non-improving moves to escape local optima
			accept = rng.Float64() < math.Exp(delta/temperature)
		}

		if accept {
			current = neighbor
			currentEval = neighborEval

			if dominates(currentEval, bestEval) {
				best = slices.Clone(current)
				bestEval = currentEval
				cell.offer(best, bestEval, restart)
				noImprovement = 0
			} else {
				noImprovement++
			}
		} else {
			noImprovement++
		}

		temperature *= config.CoolingRate
	}
}
