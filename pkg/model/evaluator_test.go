package model

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"

	"github.com/schulplan/placement/pkg/search"
)

func mustCompile(t *testing.T, input ModelInput) *compiledModel {
	compiled, err := compile(input, DefaultSolveConfig())
	assert.NoError(t, err)
	return compiled
}

func violationKinds(evaluation Evaluation) []ConstraintKind {
	return lo.Map(evaluation.Violations, func(violation Violation, _ int) ConstraintKind {
		return violation.Constraint
	})
}

func TestEvaluatePairings(t *testing.T) {
	//** Arrange
	input := ModelInput{
		Items:     []Item{{Id: "s1"}, {Id: "s2"}, {Id: "s3"}, {Id: "s4"}},
		Resources: []Resource{{Id: "a", Capacity: 4}, {Id: "b", Capacity: 4}},
		Constraints: []Constraint{
			{Kind: Together, Items: []string{"s1", "s2"}},
			{Kind: Apart, Items: []string{"s3", "s4"}},
		},
	}
	evaluator := newStandardEvaluator(mustCompile(t, input))

	//** Act
	broken := evaluator.Evaluate([]int{0, 1, 0, 0})
	satisfied := evaluator.Evaluate([]int{0, 0, 0, 1})

	//** Assert
	assert.Equal(t, 2, broken.HardViolations)
	assert.ElementsMatch(t, []ConstraintKind{Together, Apart}, violationKinds(broken))
	assert.Equal(t, []int{1, 1, 1, 1}, broken.ItemViolations)

	assert.Equal(t, 0, satisfied.HardViolations)
	assert.Empty(t, satisfied.Violations)
}

func TestEvaluateCapacityAndAdmissibility(t *testing.T) {
	//** Arrange
	input := ModelInput{
		Items:     []Item{{Id: "s1"}, {Id: "s2"}, {Id: "s3"}},
		Resources: []Resource{{Id: "a", Capacity: 2}, {Id: "b", Capacity: 2}},
		Constraints: []Constraint{
			{Kind: Availability, Items: []string{"s3"}, Resource: "b"},
		},
	}
	evaluator := newStandardEvaluator(mustCompile(t, input))

	//** Act
	overfull := evaluator.Evaluate([]int{0, 0, 0})
	inadmissible := evaluator.Evaluate([]int{0, 0, 1})

	//** Assert
	assert.Equal(t, 1, overfull.HardViolations)
	assert.Equal(t, []ConstraintKind{Capacity}, violationKinds(overfull))

	assert.Equal(t, 1, inadmissible.HardViolations)
	assert.Equal(t, []ConstraintKind{Availability}, violationKinds(inadmissible))
	assert.Equal(t, []int{0, 0, 1}, inadmissible.ItemViolations)
}

func TestEvaluateParticipantCollisions(t *testing.T) {
	//** Arrange
	input := ModelInput{
		Items: []Item{
			{Id: "m1", Participants: []string{"teacher-koch", "family-a"}},
			{Id: "m2", Participants: []string{"teacher-koch", "family-b"}},
			{Id: "m3", Participants: []string{"teacher-lange", "family-c"}},
		},
		Resources: []Resource{
			{Id: "slot-1", Capacity: 2, Start: 0, End: 15},
			{Id: "slot-2", Capacity: 2, Start: 15, End: 30},
		},
		Constraints: []Constraint{
			{Kind: NoOverlap, Resource: "slot-1"},
			{Kind: NoOverlap, Resource: "slot-2"},
		},
	}
	evaluator := newStandardEvaluator(mustCompile(t, input))

	//** Act
	colliding := evaluator.Evaluate([]int{0, 0, 1})
	disjoint := evaluator.Evaluate([]int{0, 1, 0})

	//** Assert
	assert.Equal(t, 1, colliding.HardViolations)
	assert.Equal(t, []ConstraintKind{NoOverlap}, violationKinds(colliding))
	assert.Equal(t, []int{1, 1, 0}, colliding.ItemViolations)

	assert.Equal(t, 0, disjoint.HardViolations)
}

func TestEvaluateUnassigned(t *testing.T) {
	//** Arrange
	input := ModelInput{
		Items:     []Item{{Id: "s1"}, {Id: "s2"}},
		Resources: []Resource{{Id: "a", Capacity: 2}},
	}
	evaluator := newStandardEvaluator(mustCompile(t, input))

	//** Act
	evaluation := evaluator.Evaluate([]int{0, search.Unassigned})

	//** Assert
	assert.Equal(t, 1, evaluation.HardViolations)
	assert.Equal(t, []ConstraintKind{UnassignedItem}, violationKinds(evaluation))
	assert.Equal(t, []int{0, 1}, evaluation.ItemViolations)
}

func TestEvaluateBalance(t *testing.T) {
	//** Arrange
	items := make([]Item, 0, 10)
	for i := 0; i < 10; i++ {
		gender := "f"
		if i >= 6 {
			gender = "m"
		}
		items = append(items, Item{Id: itemId(i), Attributes: map[string]string{"gender": gender}})
	}
	input := ModelInput{
		Items:     items,
		Resources: []Resource{{Id: "a", Capacity: 10}, {Id: "b", Capacity: 10}},
		Constraints: []Constraint{
			{Kind: Balance, Attribute: "gender", Value: "f", Weight: 2},
		},
	}
	evaluator := newStandardEvaluator(mustCompile(t, input))

	//** Act
	balanced := evaluator.Evaluate([]int{0, 0, 0, 1, 1, 1, 0, 0, 1, 1})   // f split 3/3
	lopsided := evaluator.Evaluate([]int{0, 0, 0, 0, 0, 1, 1, 1, 1, 1})   // f split 5/1
	collapsed := evaluator.Evaluate([]int{0, 0, 0, 0, 0, 0, 1, 1, 1, 1}) // f split 6/0

	//** Assert
	assert.InDelta(t, 2.0, balanced.SoftScore, 1e-9)
	assert.Empty(t, balanced.Violations)

	assert.InDelta(t, 2.0*(1-4.0/6.0), lopsided.SoftScore, 1e-9)
	assert.Equal(t, []ConstraintKind{Balance}, violationKinds(lopsided))
	assert.InDelta(t, 2.0-lopsided.SoftScore, lopsided.Violations[0].Penalty, 1e-9)

	assert.InDelta(t, 0.0, collapsed.SoftScore, 1e-9)
}

func TestEvaluateBalanceConcentrate(t *testing.T) {
	//** Arrange
	input := ModelInput{
		Items: []Item{
			{Id: "s1", Attributes: map[string]string{"designation": "DaZ"}},
			{Id: "s2", Attributes: map[string]string{"designation": "DaZ"}},
			{Id: "s3", Attributes: map[string]string{"designation": "DaZ"}},
			{Id: "s4"},
		},
		Resources: []Resource{{Id: "a", Capacity: 4}, {Id: "b", Capacity: 4}},
		Constraints: []Constraint{
			{Kind: Balance, Attribute: "designation", Value: "DaZ", Weight: 3, Concentrate: true},
		},
	}
	evaluator := newStandardEvaluator(mustCompile(t, input))

	//** Act
	gathered := evaluator.Evaluate([]int{0, 0, 0, 1})
	scattered := evaluator.Evaluate([]int{0, 0, 1, 1})

	//** Assert
	assert.InDelta(t, 3.0, gathered.SoftScore, 1e-9)
	assert.InDelta(t, 3.0*2.0/3.0, scattered.SoftScore, 1e-9)
}

func TestEvaluatePreferenceAndCohesion(t *testing.T) {
	//** Arrange
	input := ModelInput{
		Items:     []Item{{Id: "s1"}, {Id: "s2"}, {Id: "s3"}},
		Resources: []Resource{{Id: "a", Capacity: 3}, {Id: "b", Capacity: 3}},
		Constraints: []Constraint{
			{Kind: Preference, Items: []string{"s1"}, Resource: "a", Weight: 1},
			{Kind: Cohesion, Items: []string{"s1", "s2", "s3"}, Weight: 2},
		},
	}
	evaluator := newStandardEvaluator(mustCompile(t, input))

	//** Act
	full := evaluator.Evaluate([]int{0, 0, 0})
	split := evaluator.Evaluate([]int{1, 1, 0})

	//** Assert
	assert.InDelta(t, 3.0, full.SoftScore, 1e-9)
	assert.Empty(t, full.Violations)

	// s1 misses its preference, and only two of three peers share a resource
	assert.InDelta(t, 2.0*0.5, split.SoftScore, 1e-9)
	assert.ElementsMatch(t, []ConstraintKind{Preference, Cohesion}, violationKinds(split))
}

func TestHardPenaltyDominatesSoftGain(t *testing.T) {
	//** Arrange
	input := ModelInput{
		Items:     []Item{{Id: "s1"}, {Id: "s2"}},
		Resources: []Resource{{Id: "a", Capacity: 2}, {Id: "b", Capacity: 2}},
		Constraints: []Constraint{
			{Kind: Apart, Items: []string{"s1", "s2"}},
			{Kind: Cohesion, Items: []string{"s1", "s2"}, Weight: 100},
		},
	}
	evaluator := newStandardEvaluator(mustCompile(t, input))

	//** Act
	violating := evaluator.Evaluate([]int{0, 0}) // full cohesion, broken apart
	lawful := evaluator.Evaluate([]int{0, 1})    // no cohesion, apart satisfied

	//** Assert
	assert.Greater(t, lawful.Score, violating.Score)
}

func itemId(i int) string {
	return "s" + string(rune('0'+i/10)) + string(rune('0'+i%10))
}
