package model

import (
	"slices"

	"github.com/samber/lo"
)

// DerivePeerGroups connects items whose peer wishes are mutual (each names the
// other) and returns the connected components with at least two members. Wishes
// naming unknown items are ignored rather than rejected, since wish lists come
// from free-form forms upstream. Output order is deterministic: groups sorted
// by their first member, members sorted within each group.
func DerivePeerGroups(input ModelInput) [][]string {
	itemIndex := make(map[string]int)
	for i, item := range input.Items {
		itemIndex[item.Id] = i
	}

	//** Union items over mutual wishes
	components := newUnionFind(len(input.Items))
	for id, wishes := range input.PeerPreferences {
		item, ok := itemIndex[id]
		if !ok {
			continue
		}
		for _, wishedId := range wishes {
			wished, ok := itemIndex[wishedId]
			if !ok || wished == item {
				continue
			}
			if slices.Contains(input.PeerPreferences[wishedId], id) {
				components.union(item, wished)
			}
		}
	}

	//** Collect components with at least two members
	membersByRoot := make(map[int][]string)
	for i, item := range input.Items {
		root := components.find(i)
		membersByRoot[root] = append(membersByRoot[root], item.Id)
	}

	groups := make([][]string, 0)
	for _, members := range membersByRoot {
		if len(members) < 2 {
			continue
		}
		slices.Sort(members)
		groups = append(groups, members)
	}
	slices.SortFunc(groups, func(a, b []string) int {
		return slices.Compare(a, b)
	})

	return groups
}

// MutualPreferenceDensity reports the share of peer wishes that are
// reciprocated, in [0, 1]. A low density warns that cohesion objectives will
// not carry much signal for this snapshot.
func MutualPreferenceDensity(input ModelInput) float64 {
	itemIds := lo.Map(input.Items, func(item Item, _ int) string { return item.Id })

	total, mutual := 0, 0
	for id, wishes := range input.PeerPreferences {
		if !slices.Contains(itemIds, id) {
			continue
		}
		for _, wishedId := range wishes {
			if wishedId == id || !slices.Contains(itemIds, wishedId) {
				continue
			}
			total++
			if slices.Contains(input.PeerPreferences[wishedId], id) {
				mutual++
			}
		}
	}

	if total == 0 {
		return 0
	}
	return float64(mutual) / float64(total)
}

// unionFind over item indexes, used for peer-group derivation and for the
// together/apart contradiction check.
type unionFind struct {
	parents []int
}

func newUnionFind(size int) *unionFind {
	parents := make([]int, size)
	for i := range parents {
		parents[i] = i
	}
	return &unionFind{parents: parents}
}

func (components *unionFind) find(i int) int {
	for components.parents[i] != i {
		components.parents[i] = components.parents[components.parents[i]]
		i = components.parents[i]
	}
	return i
}

func (components *unionFind) union(i, j int) {
	rootI, rootJ := components.find(i), components.find(j)
	if rootI == rootJ {
		return
	}
	if rootJ < rootI {
		rootI, rootJ = rootJ, rootI
	}
	// Smaller root wins so component representatives are input-order stable
	components.parents[rootJ] = rootI
}
