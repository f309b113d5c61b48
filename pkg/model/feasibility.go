package model

import (
	"fmt"

	"github.com/samber/lo"
)

type InfeasibilityKind string

const (
	CapacityShortfall    InfeasibilityKind = "capacity-shortfall"
	ContradictoryPairing InfeasibilityKind = "contradictory-pairing"
	NoAdmissibleResource InfeasibilityKind = "no-admissible-resource"
	ParticipantConflict  InfeasibilityKind = "participant-conflict"
)

// InfeasibilityReason names one structural impossibility proven before search.
type InfeasibilityReason struct {
	Kind        InfeasibilityKind
	ItemIds     []string
	ResourceIds []string
	Detail      string
}

// checkFeasibility runs the cheap structural proofs of infeasibility so a
// doomed model never burns the search budget. It returns every reason it can
// find rather than the first one, since callers relax constraints in bulk.
func checkFeasibility(compiled *compiledModel) []InfeasibilityReason {
	items := compiled.input.Items
	reasons := make([]InfeasibilityReason, 0)

	//** Total capacity must cover the item count
	totalCapacity := lo.Sum(compiled.capacities)
	if totalCapacity < len(items) {
		reasons = append(reasons, InfeasibilityReason{
			Kind:   CapacityShortfall,
			Detail: fmt.Sprintf("total capacity %v cannot hold %v items", totalCapacity, len(items)),
		})
	}

	//** Together components must not contain an apart pair
	components := newUnionFind(len(items))
	for _, pair := range compiled.togetherPairs {
		components.union(pair[0], pair[1])
	}
	for _, pair := range compiled.apartPairs {
		if components.find(pair[0]) != components.find(pair[1]) {
			continue
		}
		reasons = append(reasons, InfeasibilityReason{
			Kind:    ContradictoryPairing,
			ItemIds: []string{items[pair[0]].Id, items[pair[1]].Id},
			Detail:  fmt.Sprintf("items %v and %v are transitively together yet constrained apart", items[pair[0]].Id, items[pair[1]].Id),
		})
	}

	//** Every item needs at least one admissible resource with room
	for item := range items {
		admissibleIds := compiled.admissibleResourceIds(item)
		if len(admissibleIds) > 0 {
			continue
		}
		reasons = append(reasons, InfeasibilityReason{
			Kind:    NoAdmissibleResource,
			ItemIds: []string{items[item].Id},
			Detail:  fmt.Sprintf("item %v has no admissible resource with capacity", items[item].Id),
		})
	}

	//** Items sharing a participant need one collision-free placement pair
	for i := 0; i < len(items) - 1; i++ {
		for j := i + 1; j < len(items); j++ {
			if !compiled.sharesParticipant[i][j] || compiled.collisionFreePairExists(i, j) {
				continue
			}
			reasons = append(reasons, InfeasibilityReason{
				Kind:    ParticipantConflict,
				ItemIds: []string{items[i].Id, items[j].Id},
				Detail:  fmt.Sprintf("items %v and %v share a participant and every admissible placement pair collides", items[i].Id, items[j].Id),
			})
		}
	}

	return reasons
}

// collisionFreePairExists reports whether items a and b have at least one pair
// of admissible resources they can occupy without a participant collision. The
// collision predicate is the same one the evaluator scores, so this only
// proves infeasibility for assignments the evaluator would indeed reject.
func (compiled *compiledModel) collisionFreePairExists(a, b int) bool {
	totalResources := len(compiled.input.Resources)
	for resourceA := 0; resourceA < totalResources; resourceA++ {
		if !compiled.admissible[a][resourceA] || compiled.capacities[resourceA] == 0 {
			continue
		}
		for resourceB := 0; resourceB < totalResources; resourceB++ {
			if !compiled.admissible[b][resourceB] || compiled.capacities[resourceB] == 0 {
				continue
			}
			if resourceA == resourceB && compiled.capacities[resourceA] < 2 {
				continue
			}
			if (compiled.noOverlap[resourceA] || compiled.noOverlap[resourceB]) && compiled.overlaps[resourceA][resourceB] {
				continue
			}
			return true
		}
	}
	return false
}

func (compiled *compiledModel) admissibleResourceIds(item int) []string {
	ids := make([]string, 0)
	for resource, admissible := range compiled.admissible[item] {
		if !admissible || compiled.capacities[resource] == 0 {
			continue
		}
		ids = append(ids, compiled.input.Resources[resource].Id)
	}
	return ids
}
