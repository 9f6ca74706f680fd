package dedupe

import (
	"sort"

	"github.com/filesweep/filesweep/internal/types"
)

// assembleResult shapes the union-find partition into the externally consumed
// report. Pure transformation: groups ordered by descending confidence (ties
// by ascending primary identifier), members in input batch order, ungrouped
// files in input batch order.
func assembleResult(req *types.BatchRequest, uf *unionFind, edges []triggerEdge, stats types.BatchStats) *types.BatchResult {
	// Collect members per set, preserving input order within each set
	sets := make(map[int][]int)
	for i := range req.Files {
		root := uf.find(i)
		sets[root] = append(sets[root], i)
	}

	// Group confidence is the minimum combined score among the edges that
	// actually merged two sets; the group is only as confident as its weakest
	// link
	confidence := make(map[int]float64)
	for _, edge := range edges {
		root := uf.find(edge.a)
		if cur, ok := confidence[root]; !ok || edge.combined < cur {
			confidence[root] = edge.combined
		}
	}

	var groups []types.DuplicateGroup
	grouped := make(map[int]bool)
	for root, members := range sets {
		if len(members) < 2 {
			continue
		}

		primary := members[0]
		var total int64
		for _, idx := range members {
			total += req.Files[idx].Size
			// Largest file wins; earliest batch position breaks ties
			if req.Files[idx].Size > req.Files[primary].Size {
				primary = idx
			}
			grouped[idx] = true
		}

		ids := make([]string, len(members))
		for k, idx := range members {
			ids[k] = req.Files[idx].ID
		}

		groups = append(groups, types.DuplicateGroup{
			Members:     ids,
			Primary:     req.Files[primary].ID,
			Confidence:  confidence[root],
			TotalSize:   total,
			SpaceWasted: total - req.Files[primary].Size,
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Confidence != groups[j].Confidence {
			return groups[i].Confidence > groups[j].Confidence
		}
		return groups[i].Primary < groups[j].Primary
	})

	var ungrouped []string
	for i := range req.Files {
		if !grouped[i] {
			ungrouped = append(ungrouped, req.Files[i].ID)
		}
	}

	stats.GroupCount = len(groups)
	for i := range groups {
		stats.DuplicateFiles += len(groups[i].Members)
		stats.SpaceWasted += groups[i].SpaceWasted
	}

	return &types.BatchResult{
		BatchID:   req.BatchID,
		Groups:    groups,
		Ungrouped: ungrouped,
		Stats:     stats,
	}
}
