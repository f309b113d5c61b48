package model

import (
	"fmt"

	"github.com/samber/lo"
)

type balanceSpec struct {
	attribute   string
	value       string
	resources   []int
	members     []int
	weight      float64
	concentrate bool
}

type preferenceSpec struct {
	item     int
	resource int
	weight   float64
}

type cohesionSpec struct {
	members []int
	weight  float64
}

// compiledModel is the indexed, validated form of a ModelInput. Everything the
// evaluator needs per iteration is precomputed here once per solve run; the
// struct is read-only after compile, so restarts can share it freely.
type compiledModel struct {
	input ModelInput

	itemIndex     map[string]int
	resourceIndex map[string]int

	capacities        []int    // effective capacity per resource; unbounded becomes len(items)
	admissible        [][]bool // admissible[item][resource]
	overlaps          [][]bool // overlaps[resource][resource], from availability windows
	noOverlap         []bool
	sharesParticipant [][]bool

	togetherPairs [][2]int
	apartPairs    [][2]int

	balances    []balanceSpec
	preferences []preferenceSpec
	cohesions   []cohesionSpec

	totalSoftWeight float64
	hardPenalty     float64
}

func compile(input ModelInput, config SolveConfig) (*compiledModel, error) {
	compiled := &compiledModel{
		input:         input,
		itemIndex:     make(map[string]int),
		resourceIndex: make(map[string]int),
	}

	//** Index items and resources
	for i, item := range input.Items {
		if item.Id == "" {
			return nil, &ConfigurationError{Field: fmt.Sprintf("items[%v].id", i), Detail: "must not be empty"}
		}
		if _, ok := compiled.itemIndex[item.Id]; ok {
			return nil, &ConfigurationError{Field: fmt.Sprintf("items[%v].id", i), Detail: fmt.Sprintf("duplicate item id %v", item.Id)}
		}
		compiled.itemIndex[item.Id] = i
	}
	for i, resource := range input.Resources {
		if resource.Id == "" {
			return nil, &ConfigurationError{Field: fmt.Sprintf("resources[%v].id", i), Detail: "must not be empty"}
		}
		if _, ok := compiled.resourceIndex[resource.Id]; ok {
			return nil, &ConfigurationError{Field: fmt.Sprintf("resources[%v].id", i), Detail: fmt.Sprintf("duplicate resource id %v", resource.Id)}
		}
		compiled.resourceIndex[resource.Id] = i
	}

	totalItems, totalResources := len(input.Items), len(input.Resources)

	//** Initialize effective capacities (unbounded caps at the item count)
	compiled.capacities = lo.Map(input.Resources, func(resource Resource, _ int) int {
		if resource.Capacity < 0 || resource.Capacity > totalItems {
			return totalItems
		}
		return resource.Capacity
	})

	//** Initialize admissibility (all resources admissible until constrained)
	compiled.admissible = make([][]bool, totalItems)
	for item := range compiled.admissible {
		compiled.admissible[item] = make([]bool, totalResources)
		for resource := range compiled.admissible[item] {
			compiled.admissible[item][resource] = true
		}
	}

	//** Precompute window overlaps
	compiled.overlaps = make([][]bool, totalResources)
	for i, resource := range input.Resources {
		compiled.overlaps[i] = make([]bool, totalResources)
		for j, other := range input.Resources {
			compiled.overlaps[i][j] = resource.Overlaps(other)
		}
	}
	compiled.noOverlap = make([]bool, totalResources)

	//** Precompute shared participants
	compiled.sharesParticipant = make([][]bool, totalItems)
	for i := range compiled.sharesParticipant {
		compiled.sharesParticipant[i] = make([]bool, totalItems)
	}
	for i := 0; i < totalItems - 1; i++ {
		for j := i + 1; j < totalItems; j++ {
			if lo.Some(input.Items[i].Participants, input.Items[j].Participants) {
				compiled.sharesParticipant[i][j] = true
				compiled.sharesParticipant[j][i] = true
			}
		}
	}

	//** Compile constraints
	for i, constraint := range input.Constraints {
		field := fmt.Sprintf("constraints[%v]", i)

		items, err := compiled.resolveItems(constraint.Items, field)
		if err != nil {
			return nil, err
		}

		switch constraint.Kind {
		case Together, Apart:
			if len(items) != 2 || items[0] == items[1] {
				return nil, &ConfigurationError{Field: field, Detail: fmt.Sprintf("%v requires exactly two distinct items", constraint.Kind)}
			}
			pair := [2]int{min(items[0], items[1]), max(items[0], items[1])}
			if constraint.Kind == Together {
				compiled.togetherPairs = append(compiled.togetherPairs, pair)
			} else {
				compiled.apartPairs = append(compiled.apartPairs, pair)
			}

		case Capacity:
			resource, err := compiled.resolveResource(constraint.Resource, field)
			if err != nil {
				return nil, err
			}
			if constraint.Max < 0 {
				return nil, &ConfigurationError{Field: field, Detail: "capacity max must not be negative"}
			}
			compiled.capacities[resource] = min(compiled.capacities[resource], constraint.Max)

		case Availability:
			if len(items) != 1 {
				return nil, &ConfigurationError{Field: field, Detail: "availability requires exactly one item"}
			}
			resource, err := compiled.resolveResource(constraint.Resource, field)
			if err != nil {
				return nil, err
			}
			compiled.admissible[items[0]][resource] = false

		case NoOverlap:
			resource, err := compiled.resolveResource(constraint.Resource, field)
			if err != nil {
				return nil, err
			}
			compiled.noOverlap[resource] = true

		case Balance:
			if constraint.Attribute == "" {
				return nil, &ConfigurationError{Field: field, Detail: "balance requires an attribute"}
			}
			if constraint.Weight <= 0 {
				return nil, &ConfigurationError{Field: field, Detail: "soft constraints require a positive weight"}
			}
			resources, err := compiled.resolveResources(constraint.Resources, field)
			if err != nil {
				return nil, err
			}
			if len(resources) == 0 {
				resources = lo.Range(totalResources)
			}
			members := lo.FilterMap(input.Items, func(item Item, index int) (int, bool) {
				return index, item.Attributes[constraint.Attribute] == constraint.Value
			})
			compiled.balances = append(compiled.balances, balanceSpec{
				attribute:   constraint.Attribute,
				value:       constraint.Value,
				resources:   resources,
				members:     members,
				weight:      constraint.Weight,
				concentrate: constraint.Concentrate,
			})
			compiled.totalSoftWeight += constraint.Weight

		case Preference:
			if len(items) != 1 {
				return nil, &ConfigurationError{Field: field, Detail: "preference requires exactly one item"}
			}
			resource, err := compiled.resolveResource(constraint.Resource, field)
			if err != nil {
				return nil, err
			}
			if constraint.Weight <= 0 {
				return nil, &ConfigurationError{Field: field, Detail: "soft constraints require a positive weight"}
			}
			compiled.preferences = append(compiled.preferences, preferenceSpec{
				item:     items[0],
				resource: resource,
				weight:   constraint.Weight,
			})
			compiled.totalSoftWeight += constraint.Weight

		case Cohesion:
			if len(items) < 2 {
				return nil, &ConfigurationError{Field: field, Detail: "cohesion requires at least two items"}
			}
			if constraint.Weight <= 0 {
				return nil, &ConfigurationError{Field: field, Detail: "soft constraints require a positive weight"}
			}
			compiled.cohesions = append(compiled.cohesions, cohesionSpec{
				members: items,
				weight:  constraint.Weight,
			})
			compiled.totalSoftWeight += constraint.Weight

		default:
			return nil, &ConfigurationError{Field: field, Detail: fmt.Sprintf("unknown constraint kind %v", constraint.Kind)}
		}
	}

	//** Compile mutual peer wishes into cohesion objectives
	if config.CohesionWeight > 0 {
		for _, group := range DerivePeerGroups(input) {
			members := lo.Map(group, func(id string, _ int) int { return compiled.itemIndex[id] })
			compiled.cohesions = append(compiled.cohesions, cohesionSpec{
				members: members,
				weight:  config.CohesionWeight,
			})
			compiled.totalSoftWeight += config.CohesionWeight
		}
	}

	// Penalty per hard violation exceeds any achievable soft gain, so search
	// never trades a hard violation for soft score
	compiled.hardPenalty = compiled.totalSoftWeight + 1

	return compiled, nil
}

func (compiled *compiledModel) resolveItems(ids []string, field string) ([]int, error) {
	items := make([]int, 0, len(ids))
	for _, id := range ids {
		item, ok := compiled.itemIndex[id]
		if !ok {
			return nil, &ConfigurationError{Field: field, Detail: fmt.Sprintf("unknown item %v", id)}
		}
		items = append(items, item)
	}
	return items, nil
}

func (compiled *compiledModel) resolveResource(id string, field string) (int, error) {
	resource, ok := compiled.resourceIndex[id]
	if !ok {
		return 0, &ConfigurationError{Field: field, Detail: fmt.Sprintf("unknown resource %v", id)}
	}
	return resource, nil
}

func (compiled *compiledModel) resolveResources(ids []string, field string) ([]int, error) {
	resources := make([]int, 0, len(ids))
	for _, id := range ids {
		resource, err := compiled.resolveResource(id, field)
		if err != nil {
			return nil, err
		}
		resources = append(resources, resource)
	}
	return resources, nil
}
