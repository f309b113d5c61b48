package model

import (
	"math/rand"

	"github.com/schulplan/placement/pkg/search"
)

const neighborAttempts = 8

// placementProblem adapts a compiled model to the search engine: assignment
// slot i holds the resource index of item i, or search.Unassigned. Relocations
// only target resources with spare capacity and swaps preserve occupancy, so
// no resource ever exceeds its capacity during search.
type placementProblem struct {
	compiled  *compiledModel
	evaluator *standardEvaluator
}

func newPlacementProblem(compiled *compiledModel) *placementProblem {
	return &placementProblem{
		compiled:  compiled,
		evaluator: newStandardEvaluator(compiled),
	}
}

func (problem *placementProblem) Size() int {
	return len(problem.compiled.input.Items)
}

// Seed greedily places items in a per-run random order, each into the
// admissible resource with the best marginal gain. Items left without an
// admissible resource with room stay unassigned for the search to resolve.
func (problem *placementProblem) Seed(rng *rand.Rand) []int {
	compiled := problem.compiled
	totalItems, totalResources := len(compiled.input.Items), len(compiled.input.Resources)

	assignment := make([]int, totalItems)
	for item := range assignment {
		assignment[item] = search.Unassigned
	}
	occupancy := make([]int, totalResources)

	for _, item := range rng.Perm(totalItems) {
		bestResource, bestGain := search.Unassigned, 0.0
		for resource := 0; resource < totalResources; resource++ {
			if !compiled.admissible[item][resource] || occupancy[resource] >= compiled.capacities[resource] {
				continue
			}
			gain := problem.marginal(item, resource, assignment)
			if bestResource == search.Unassigned || gain > bestGain {
				bestResource, bestGain = resource, gain
			}
		}
		if bestResource != search.Unassigned {
			assignment[item] = bestResource
			occupancy[bestResource]++
		}
	}

	return assignment
}

// marginal estimates the score change of placing item into resource given the
// partial assignment built so far. It is a cheap local estimate, not a full
// evaluation: pairing conflicts weigh a full hard penalty so the seed avoids
// them whenever it can.
func (problem *placementProblem) marginal(item, resource int, assignment []int) float64 {
	compiled := problem.compiled
	gain := 0.0

	for _, preference := range compiled.preferences {
		if preference.item == item && preference.resource == resource {
			gain += preference.weight
		}
	}

	for _, pair := range compiled.togetherPairs {
		partner, ok := pairPartner(pair, item)
		if !ok || assignment[partner] == search.Unassigned {
			continue
		}
		if assignment[partner] == resource {
			gain += compiled.hardPenalty
		} else {
			gain -= compiled.hardPenalty
		}
	}
	for _, pair := range compiled.apartPairs {
		if partner, ok := pairPartner(pair, item); ok && assignment[partner] == resource {
			gain -= compiled.hardPenalty
		}
	}

	for other, otherResource := range assignment {
		if otherResource == search.Unassigned || !compiled.sharesParticipant[item][other] {
			continue
		}
		if (compiled.noOverlap[resource] || compiled.noOverlap[otherResource]) && compiled.overlaps[resource][otherResource] {
			gain -= compiled.hardPenalty
		}
	}

	for _, cohesion := range compiled.cohesions {
		colocated := 0
		member := false
		for _, candidate := range cohesion.members {
			if candidate == item {
				member = true
			} else if assignment[candidate] == resource {
				colocated++
			}
		}
		if member && colocated > 0 {
			gain += cohesion.weight * float64(colocated) / float64(len(cohesion.members)-1)
		}
	}

	return gain
}

// Neighbor proposes one move targeting the worst-off item first: among items
// with the most remaining hard violations, pick one at random and either
// relocate it into spare capacity or swap it with another item.
func (problem *placementProblem) Neighbor(rng *rand.Rand, current []int, eval search.Evaluation) search.Move {
	compiled := problem.compiled
	totalItems, totalResources := len(compiled.input.Items), len(compiled.input.Resources)
	if totalItems < 1 {
		return search.Move{}
	}

	//** Target selection
	worst, candidates := 0, make([]int, 0)
	for item, violations := range eval.SlotViolations {
		if violations > worst {
			worst = violations
			candidates = candidates[:0]
		}
		if violations == worst && worst > 0 {
			candidates = append(candidates, item)
		}
	}
	var item int
	if worst > 0 {
		item = candidates[rng.Intn(len(candidates))]
	} else {
		item = rng.Intn(totalItems)
	}

	//** Occupancy under the current assignment
	occupancy := make([]int, totalResources)
	for _, resource := range current {
		if resource != search.Unassigned {
			occupancy[resource]++
		}
	}

	//** Relocate into spare capacity
	if rng.Float64() < 0.5 || totalItems < 2 {
		openResources := make([]int, 0, totalResources)
		for resource := 0; resource < totalResources; resource++ {
			if resource == current[item] || !compiled.admissible[item][resource] || occupancy[resource] >= compiled.capacities[resource] {
				continue
			}
			openResources = append(openResources, resource)
		}
		if len(openResources) > 0 {
			resource := openResources[rng.Intn(len(openResources))]
			return search.Move{Slots: []int{item}, Values: []int{resource}}
		}
	}

	//** Swap with another item
	for i := 0; i < neighborAttempts; i++ {
		other := rng.Intn(totalItems)
		if other == item || current[other] == current[item] {
			continue
		}
		if current[other] != search.Unassigned && !compiled.admissible[item][current[other]] {
			continue
		}
		if current[item] != search.Unassigned && !compiled.admissible[other][current[item]] {
			continue
		}
		return search.Move{
			Slots:  []int{item, other},
			Values: []int{current[other], current[item]},
		}
	}

	return search.Move{}
}

func (problem *placementProblem) Evaluate(assignment []int) search.Evaluation {
	evaluation := problem.evaluator.Evaluate(assignment)
	return search.Evaluation{
		Score:          evaluation.Score,
		SoftScore:      evaluation.SoftScore,
		HardViolations: evaluation.HardViolations,
		SlotViolations: evaluation.ItemViolations,
	}
}

func pairPartner(pair [2]int, item int) (int, bool) {
	if pair[0] == item {
		return pair[1], true
	} else if pair[1] == item {
		return pair[0], true
	}
	return 0, false
}
