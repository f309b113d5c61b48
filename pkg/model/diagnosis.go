package model

import (
	"fmt"

	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

// OverloadDiagnosis pinpoints structural overload left after search: which
// items cannot all be placed, how many can, and which resources saturate.
type OverloadDiagnosis struct {
	ItemIds     []string
	ResourceIds []string
	Placeable   int
	Detail      string
}

// diagnoseOverload matches items against seat units (one per unit of resource
// capacity) and reports when the largest matching cannot cover every item. A
// no-overlap resource whose admissible items all contend for one participant
// contributes a single seat, since only one of them can ever hold it.
func diagnoseOverload(compiled *compiledModel) (*OverloadDiagnosis, error) {
	items, resources := compiled.input.Items, compiled.input.Resources
	totalItems := len(items)
	if totalItems == 0 {
		return nil, nil
	}

	//** Build seat units
	seatResources := make([]int, 0)
	for resource := range resources {
		seats := min(compiled.capacities[resource], totalItems)
		if compiled.noOverlap[resource] && compiled.mutuallyContending(resource) {
			seats = min(seats, 1)
		}
		for i := 0; i < seats; i++ {
			seatResources = append(seatResources, resource)
		}
	}

	//** Largest matching between items and seats
	neighbours := func(itemAny any, seatAny any) (bool, error) {
		item := itemAny.(int)
		seat := seatAny.(int)
		return compiled.admissible[item][seatResources[seat]], nil
	}

	itemsAny := lo.Map(lo.Range(totalItems), func(item int, _ int) any { return item })
	seatsAny := lo.Map(lo.Range(len(seatResources)), func(seat int, _ int) any { return seat })

	graph, err := bipartitegraph.NewBipartiteGraph(itemsAny, seatsAny, neighbours)
	if err != nil {
		return nil, err
	}

	matching := graph.LargestMatching()
	if len(matching) >= totalItems {
		return nil, nil
	}

	//** Name the unplaceable items and the saturated resources
	matched := make([]bool, totalItems)
	saturated := make(map[int]bool)
	for _, edge := range matching {
		item, seat := edge.Node1, edge.Node2-totalItems
		matched[item] = true
		saturated[seatResources[seat]] = true
	}

	diagnosis := &OverloadDiagnosis{
		Placeable: len(matching),
		Detail:    fmt.Sprintf("at most %v of %v items can be placed", len(matching), totalItems),
	}
	for item := range items {
		if !matched[item] {
			diagnosis.ItemIds = append(diagnosis.ItemIds, items[item].Id)
		}
	}
	for resource := range resources {
		if saturated[resource] {
			diagnosis.ResourceIds = append(diagnosis.ResourceIds, resources[resource].Id)
		}
	}

	return diagnosis, nil
}

// mutuallyContending reports whether every pair of items admissible to the
// resource shares a participant, i.e. at most one of them can ever occupy it.
func (compiled *compiledModel) mutuallyContending(resource int) bool {
	admissibleItems := make([]int, 0)
	for item := range compiled.input.Items {
		if compiled.admissible[item][resource] {
			admissibleItems = append(admissibleItems, item)
		}
	}
	if len(admissibleItems) < 2 {
		return false
	}

	for i := 0; i < len(admissibleItems) - 1; i++ {
		for j := i + 1; j < len(admissibleItems); j++ {
			if !compiled.sharesParticipant[admissibleItems[i]][admissibleItems[j]] {
				return false
			}
		}
	}
	return true
}
