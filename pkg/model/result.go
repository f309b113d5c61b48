package model

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/schulplan/placement/pkg/search"
)

// Placement is one item's final outcome. ResourceId is empty exactly when
// Assigned is false.
type Placement struct {
	ItemId     string
	ResourceId string
	Assigned   bool
}

// Result is the contract with the notification and persistence collaborators.
type Result struct {
	Placements      []Placement
	Feasible        bool
	Quality         float64 // soft satisfaction normalized against the weight total, in [0, 1]
	Unmet           []Violation
	Termination     string
	Infeasibilities []InfeasibilityReason
	Overload        *OverloadDiagnosis
	Suggestions     map[string][]string // unassigned item id -> alternative resources, preferred first
	Warnings        []string
	Iterations      uint64
	Restarts        int
}

// assembleResult converts the best assignment the search found into the output
// contract. Placed items are guaranteed violation-free: any assignment still
// carrying hard violations is stripped by iteratively unassigning the
// worst-violating item, so conflicts surface as explicit unassignments rather
// than as silently broken placements.
func assembleResult(compiled *compiledModel, outcome search.Outcome) (Result, error) {
	items, resources := compiled.input.Items, compiled.input.Resources
	evaluator := newStandardEvaluator(compiled)

	assignment := slices.Clone(outcome.Best)
	if assignment == nil {
		assignment = make([]int, len(items))
		for item := range assignment {
			assignment[item] = search.Unassigned
		}
	}

	//** Strip placements that still violate hard constraints
	evaluation := evaluator.Evaluate(assignment)
	for hasPlacedViolation(evaluation, assignment) {
		worst, worstViolations := -1, 0
		for item, violations := range evaluation.ItemViolations {
			if assignment[item] != search.Unassigned && violations > worstViolations {
				worst, worstViolations = item, violations
			}
		}
		assignment[worst] = search.Unassigned
		evaluation = evaluator.Evaluate(assignment)
	}

	//** Placements
	placements := make([]Placement, len(items))
	for item, resource := range assignment {
		placements[item] = Placement{ItemId: items[item].Id}
		if resource != search.Unassigned {
			placements[item].ResourceId = resources[resource].Id
			placements[item].Assigned = true
		}
	}

	result := Result{
		Placements:  placements,
		Feasible:    evaluation.HardViolations == 0,
		Quality:     quality(compiled, evaluation),
		Unmet:       lo.Filter(evaluation.Violations, func(violation Violation, _ int) bool { return !violation.Constraint.Hard() }),
		Termination: outcome.Termination.String(),
		Iterations:  outcome.Iterations,
		Restarts:    outcome.Restarts,
	}

	if outcome.Termination == search.TimedOut {
		result.Warnings = append(result.Warnings, "time budget exhausted before convergence")
	}

	//** Explain unassigned items
	unassigned := lo.Filter(placements, func(placement Placement, _ int) bool { return !placement.Assigned })
	if len(unassigned) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("partial result: %v of %v items could not be placed", len(unassigned), len(items)))

		diagnosis, err := diagnoseOverload(compiled)
		if err != nil {
			return Result{}, err
		}
		result.Overload = diagnosis
		result.Suggestions = suggestAlternatives(compiled, assignment)
	}

	return result, nil
}

// hasPlacedViolation reports whether any hard violation involves a placed
// item. Violations of unassigned items are expected and not stripped.
func hasPlacedViolation(evaluation Evaluation, assignment []int) bool {
	for item, violations := range evaluation.ItemViolations {
		if assignment[item] != search.Unassigned && violations > 0 {
			return true
		}
	}
	return false
}

func quality(compiled *compiledModel, evaluation Evaluation) float64 {
	if compiled.totalSoftWeight == 0 {
		return 1
	}
	return max(0, min(1, evaluation.SoftScore/compiled.totalSoftWeight))
}

// suggestAlternatives lists, per unassigned item, the resources it could move
// into without breaking a hard constraint given the current placements.
// Preferred resources come first so the upstream form can offer the best
// alternatives to the participant.
func suggestAlternatives(compiled *compiledModel, assignment []int) map[string][]string {
	items, resources := compiled.input.Items, compiled.input.Resources

	occupancy := make([]int, len(resources))
	for _, resource := range assignment {
		if resource != search.Unassigned {
			occupancy[resource]++
		}
	}

	suggestions := make(map[string][]string)
	for item, assigned := range assignment {
		if assigned != search.Unassigned {
			continue
		}

		alternatives := make([]int, 0)
		for resource := range resources {
			if !compiled.admissible[item][resource] || occupancy[resource] >= compiled.capacities[resource] {
				continue
			}
			if collides(compiled, assignment, item, resource) {
				continue
			}
			alternatives = append(alternatives, resource)
		}

		preferred := lo.FilterMap(compiled.preferences, func(preference preferenceSpec, _ int) (int, bool) {
			return preference.resource, preference.item == item
		})
		slices.SortStableFunc(alternatives, func(a, b int) int {
			aPreferred, bPreferred := slices.Contains(preferred, a), slices.Contains(preferred, b)
			if aPreferred != bPreferred {
				if aPreferred {
					return -1
				}
				return 1
			}
			return a - b
		})

		suggestions[items[item].Id] = lo.Map(alternatives, func(resource int, _ int) string {
			return resources[resource].Id
		})
	}

	return suggestions
}

// collides reports whether placing item into resource would break a pairing or
// participant constraint against the items already placed.
func collides(compiled *compiledModel, assignment []int, item, resource int) bool {
	for _, pair := range compiled.apartPairs {
		if partner, ok := pairPartner(pair, item); ok && assignment[partner] == resource {
			return true
		}
	}
	for _, pair := range compiled.togetherPairs {
		partner, ok := pairPartner(pair, item)
		if ok && assignment[partner] != search.Unassigned && assignment[partner] != resource {
			return true
		}
	}
	for other, otherResource := range assignment {
		if otherResource == search.Unassigned || !compiled.sharesParticipant[item][other] {
			continue
		}
		if (compiled.noOverlap[resource] || compiled.noOverlap[otherResource]) && compiled.overlaps[resource][otherResource] {
			return true
		}
	}
	return false
}
