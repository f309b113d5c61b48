package model

import (
	"fmt"
	"slices"

	"github.com/schulplan/placement/pkg/search"
)

// Violation is one broken constraint in a candidate assignment. Hard kinds
// carry the items and resource involved; soft kinds additionally carry the
// residual penalty still available by satisfying them.
type Violation struct {
	Constraint ConstraintKind
	ItemIds    []string
	ResourceId string
	Penalty    float64
	Detail     string
}

type Evaluation struct {
	Violations     []Violation
	HardViolations int
	SoftScore      float64
	Score          float64
	ItemViolations []int // per-item hard-violation counts, for repair targeting
}

// standardEvaluator scores candidate assignments against the compiled model.
// Evaluate is pure and re-entrant: it reads only the compiled model and the
// assignment it is given, so restarts may call it concurrently on independent
// assignment copies.
type standardEvaluator struct {
	compiled *compiledModel
}

func newStandardEvaluator(compiled *compiledModel) *standardEvaluator {
	return &standardEvaluator{compiled: compiled}
}

func (evaluator *standardEvaluator) Evaluate(assignment []int) Evaluation {
	compiled := evaluator.compiled
	items, resources := compiled.input.Items, compiled.input.Resources

	evaluation := Evaluation{
		Violations:     make([]Violation, 0),
		ItemViolations: make([]int, len(items)),
	}

	//** Compute occupancy
	occupants := make([][]int, len(resources))
	for item, resource := range assignment {
		if resource == search.Unassigned {
			continue
		}
		occupants[resource] = append(occupants[resource], item)
	}

	//** Unassigned items
	for item, resource := range assignment {
		if resource != search.Unassigned {
			continue
		}
		evaluation.addHard(Violation{
			Constraint: UnassignedItem,
			ItemIds:    []string{items[item].Id},
			Detail:     fmt.Sprintf("item %v is unassigned", items[item].Id),
		}, item)
	}

	//** Together and apart pairs
	for _, pair := range compiled.togetherPairs {
		a, b := assignment[pair[0]], assignment[pair[1]]
		if a == search.Unassigned || b == search.Unassigned || a == b {
			continue
		}
		evaluation.addHard(Violation{
			Constraint: Together,
			ItemIds:    []string{items[pair[0]].Id, items[pair[1]].Id},
			Detail:     fmt.Sprintf("items %v and %v must share a resource", items[pair[0]].Id, items[pair[1]].Id),
		}, pair[0], pair[1])
	}
	for _, pair := range compiled.apartPairs {
		a, b := assignment[pair[0]], assignment[pair[1]]
		if a == search.Unassigned || a != b {
			continue
		}
		evaluation.addHard(Violation{
			Constraint: Apart,
			ItemIds:    []string{items[pair[0]].Id, items[pair[1]].Id},
			ResourceId: resources[a].Id,
			Detail:     fmt.Sprintf("items %v and %v must not share a resource", items[pair[0]].Id, items[pair[1]].Id),
		}, pair[0], pair[1])
	}

	//** Admissibility
	for item, resource := range assignment {
		if resource == search.Unassigned || compiled.admissible[item][resource] {
			continue
		}
		evaluation.addHard(Violation{
			Constraint: Availability,
			ItemIds:    []string{items[item].Id},
			ResourceId: resources[resource].Id,
			Detail:     fmt.Sprintf("item %v is unavailable for resource %v", items[item].Id, resources[resource].Id),
		}, item)
	}

	//** Capacity
	for resource, resourceOccupants := range occupants {
		if len(resourceOccupants) <= compiled.capacities[resource] {
			continue
		}
		evaluation.addHard(Violation{
			Constraint: Capacity,
			ItemIds:    evaluator.itemIds(resourceOccupants),
			ResourceId: resources[resource].Id,
			Detail:     fmt.Sprintf("resource %v holds %v items over capacity %v", resources[resource].Id, len(resourceOccupants), compiled.capacities[resource]),
		}, resourceOccupants...)
	}

	//** Participant collisions on no-overlap resources
	for i := 0; i < len(items) - 1; i++ {
		if assignment[i] == search.Unassigned {
			continue
		}
		for j := i + 1; j < len(items); j++ {
			if assignment[j] == search.Unassigned || !compiled.sharesParticipant[i][j] {
				continue
			}
			a, b := assignment[i], assignment[j]
			if (!compiled.noOverlap[a] && !compiled.noOverlap[b]) || !compiled.overlaps[a][b] {
				continue
			}
			evaluation.addHard(Violation{
				Constraint: NoOverlap,
				ItemIds:    []string{items[i].Id, items[j].Id},
				ResourceId: resources[a].Id,
				Detail:     fmt.Sprintf("items %v and %v share a participant across overlapping slots %v and %v", items[i].Id, items[j].Id, resources[a].Id, resources[b].Id),
			}, i, j)
		}
	}

	//** Soft objectives
	for _, balance := range compiled.balances {
		evaluation.addSoft(evaluator.evaluateBalance(balance, assignment))
	}
	for _, preference := range compiled.preferences {
		evaluation.addSoft(evaluator.evaluatePreference(preference, assignment))
	}
	for _, cohesion := range compiled.cohesions {
		evaluation.addSoft(evaluator.evaluateCohesion(cohesion, assignment))
	}

	evaluation.Score = evaluation.SoftScore - compiled.hardPenalty*float64(evaluation.HardViolations)
	return evaluation
}

// evaluateBalance scores how evenly (or, in concentrate mode, how tightly) the
// members carrying the watched attribute value spread over the watched
// resources. Satisfaction is linear in the spread so search gets a gradient.
func (evaluator *standardEvaluator) evaluateBalance(balance balanceSpec, assignment []int) (float64, Violation) {
	counts := make(map[int]int)
	total := 0
	for _, member := range balance.members {
		resource := assignment[member]
		if resource == search.Unassigned || !slices.Contains(balance.resources, resource) {
			continue
		}
		counts[resource]++
		total++
	}

	if total == 0 {
		return balance.weight, Violation{}
	}

	maxCount, minCount := 0, total
	for _, resource := range balance.resources {
		count := counts[resource]
		maxCount = max(maxCount, count)
		minCount = min(minCount, count)
	}

	var satisfaction float64
	if balance.concentrate {
		satisfaction = balance.weight * float64(maxCount) / float64(total)
	} else {
		satisfaction = balance.weight * (1 - float64(maxCount-minCount)/float64(total))
	}

	violation := Violation{}
	if satisfaction < balance.weight {
		mode := "spread"
		if balance.concentrate {
			mode = "concentration"
		}
		violation = Violation{
			Constraint: Balance,
			Penalty:    balance.weight - satisfaction,
			Detail:     fmt.Sprintf("imperfect %v of %v=%v (counts range %v..%v)", mode, balance.attribute, balance.value, minCount, maxCount),
		}
	}
	return satisfaction, violation
}

func (evaluator *standardEvaluator) evaluatePreference(preference preferenceSpec, assignment []int) (float64, Violation) {
	items, resources := evaluator.compiled.input.Items, evaluator.compiled.input.Resources

	if assignment[preference.item] == preference.resource {
		return preference.weight, Violation{}
	}
	return 0, Violation{
		Constraint: Preference,
		ItemIds:    []string{items[preference.item].Id},
		ResourceId: resources[preference.resource].Id,
		Penalty:    preference.weight,
		Detail:     fmt.Sprintf("item %v missed preferred resource %v", items[preference.item].Id, resources[preference.resource].Id),
	}
}

// evaluateCohesion rewards the largest co-located share of the group:
// (largest subgroup - 1) / (group size - 1), so a fully grouped set scores the
// whole weight and a fully scattered one scores nothing.
func (evaluator *standardEvaluator) evaluateCohesion(cohesion cohesionSpec, assignment []int) (float64, Violation) {
	counts := make(map[int]int)
	largest := 0
	for _, member := range cohesion.members {
		resource := assignment[member]
		if resource == search.Unassigned {
			continue
		}
		counts[resource]++
		largest = max(largest, counts[resource])
	}

	satisfaction := 0.0
	if largest > 1 {
		satisfaction = cohesion.weight * float64(largest-1) / float64(len(cohesion.members)-1)
	}

	violation := Violation{}
	if satisfaction < cohesion.weight {
		violation = Violation{
			Constraint: Cohesion,
			ItemIds:    evaluator.itemIds(cohesion.members),
			Penalty:    cohesion.weight - satisfaction,
			Detail:     fmt.Sprintf("peer group of %v only co-locates %v members", len(cohesion.members), max(largest, 1)),
		}
	}
	return satisfaction, violation
}

func (evaluator *standardEvaluator) itemIds(items []int) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, evaluator.compiled.input.Items[item].Id)
	}
	return ids
}

func (evaluation *Evaluation) addHard(violation Violation, items ...int) {
	evaluation.Violations = append(evaluation.Violations, violation)
	evaluation.HardViolations++
	for _, item := range items {
		evaluation.ItemViolations[item]++
	}
}

func (evaluation *Evaluation) addSoft(satisfaction float64, violation Violation) {
	evaluation.SoftScore += satisfaction
	if violation.Constraint != "" {
		evaluation.Violations = append(evaluation.Violations, violation)
	}
}
