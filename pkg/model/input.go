package model

import (
	"encoding/json"
	"os"

	"github.com/mitchellh/mapstructure"
)

// Item is an entity to be placed: a student, a meeting request, anything the
// ingestion layer hands over. Items are immutable during solving.
type Item struct {
	Id           string
	Attributes   map[string]string
	Participants []string // people whose time the item claims (slot scheduling)
}

// Resource is a placement target: a class, a time slot. Capacity below zero
// means unbounded. Start/End describe an availability window in minutes since
// some epoch the caller picks; Start == End means the resource has no window.
type Resource struct {
	Id       string
	Capacity int
	Start    int64
	End      int64
}

func (resource Resource) HasWindow() bool {
	return resource.Start != resource.End
}

// Overlaps reports whether two availability windows intersect. A resource
// always overlaps itself; windowless resources overlap nothing else.
func (resource Resource) Overlaps(other Resource) bool {
	if resource.Id == other.Id {
		return true
	}
	if !resource.HasWindow() || !other.HasWindow() {
		return false
	}
	return resource.Start < other.End && other.Start < resource.End
}

type ConstraintKind string

const (
	// Hard kinds: any violation makes the result infeasible.
	Together     ConstraintKind = "together"
	Apart        ConstraintKind = "apart"
	Capacity     ConstraintKind = "capacity"
	Availability ConstraintKind = "availability" // item barred from resource
	NoOverlap    ConstraintKind = "nooverlap"

	// Soft kinds: weighted objectives.
	Balance    ConstraintKind = "balance"
	Preference ConstraintKind = "preference"
	Cohesion   ConstraintKind = "cohesion"

	// UnassignedItem is not a declarable kind; it tags the violation reported
	// for every item the solver could not place.
	UnassignedItem ConstraintKind = "unassigned"
)

func (kind ConstraintKind) Hard() bool {
	switch kind {
	case Together, Apart, Capacity, Availability, NoOverlap, UnassignedItem:
		return true
	}
	return false
}

// Constraint is a closed tagged union over the kinds above. Which fields are
// meaningful depends on Kind:
//
//	together/apart: Items (exactly two)
//	capacity:       Resource, Max
//	availability:   Items (one), Resource
//	nooverlap:      Resource
//	balance:        Attribute, Value, Resources (empty = all), Weight, Concentrate
//	preference:     Items (one), Resource, Weight
//	cohesion:       Items (two or more), Weight
type Constraint struct {
	Kind        ConstraintKind
	Items       []string
	Resource    string
	Resources   []string
	Attribute   string
	Value       string
	Max         int
	Weight      float64
	Concentrate bool
}

// ModelInput is the snapshot contract with the ingestion collaborator.
// PeerPreferences optionally carries raw peer wishes (item id -> wished item
// ids); mutual wishes are compiled into cohesion constraints before solving.
// Config optionally embeds the solve configuration in the snapshot itself.
type ModelInput struct {
	Items           []Item
	Resources       []Resource
	Constraints     []Constraint
	PeerPreferences map[string][]string `mapstructure:"peerPreferences"`
	Config          *SnapshotConfig     `mapstructure:"config"`
}

func InputFromJson(file string) (ModelInput, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return ModelInput{}, err
	}

	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return ModelInput{}, err
	}

	var input ModelInput
	if err := mapstructure.Decode(inputJson, &input); err != nil {
		return ModelInput{}, err
	}

	return input, nil
}
