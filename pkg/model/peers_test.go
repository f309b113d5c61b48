package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerivePeerGroups(t *testing.T) {
	//** Arrange
	input := ModelInput{
		Items: []Item{{Id: "s1"}, {Id: "s2"}, {Id: "s3"}, {Id: "s4"}, {Id: "s5"}},
		PeerPreferences: map[string][]string{
			"s1": {"s2"},
			"s2": {"s1", "s3"},
			"s3": {"s2"},
			"s4": {"s5"},     // one-sided, no group
			"s5": {"ghost"},  // unknown target, ignored
		},
	}

	//** Act
	groups := DerivePeerGroups(input)

	//** Assert
	assert.Equal(t, [][]string{{"s1", "s2", "s3"}}, groups)
}

func TestDerivePeerGroupsEmpty(t *testing.T) {
	//** Arrange
	input := ModelInput{
		Items: []Item{{Id: "s1"}, {Id: "s2"}},
		PeerPreferences: map[string][]string{
			"s1": {"s2"},
		},
	}

	//** Act
	groups := DerivePeerGroups(input)

	//** Assert
	assert.Empty(t, groups)
}

func TestMutualPreferenceDensity(t *testing.T) {
	//** Arrange
	input := ModelInput{
		Items: []Item{{Id: "s1"}, {Id: "s2"}, {Id: "s3"}},
		PeerPreferences: map[string][]string{
			"s1": {"s2"},
			"s2": {"s1"},
			"s3": {"s1"},
		},
	}

	//** Act
	density := MutualPreferenceDensity(input)

	//** Assert
	// Three wishes total, the s1~s2 pair is mutual in both directions
	assert.InDelta(t, 2.0/3.0, density, 1e-9)
}

func TestMutualPreferenceDensityNoWishes(t *testing.T) {
	assert.Zero(t, MutualPreferenceDensity(ModelInput{Items: []Item{{Id: "s1"}}}))
}
