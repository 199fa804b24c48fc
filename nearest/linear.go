package nearest

import (
	"context"

	"go.viam.com/dbcbs/utils"
)

const neighborsBeforeParallelization = 1000

type entry struct {
	id    int
	state []float64
}

type linearIndex struct {
	metric  Metric
	entries []entry
}

func newLinearIndex(metric Metric) *linearIndex {
	return &linearIndex{metric: metric}
}

func (li *linearIndex) Add(id int, state []float64) {
	li.entries = append(li.entries, entry{id: id, state: state})
}

func (li *linearIndex) Len() int {
	return len(li.entries)
}

// scan returns the neighbors accepted by keep. Large indexes are split over the available cores.
func (li *linearIndex) scan(query []float64, keep func(dist float64) bool) []Neighbor {
	if len(li.entries) <= neighborsBeforeParallelization {
		var found []Neighbor
		for _, e := range li.entries {
			if dist := li.metric(query, e.state); keep(dist) {
				found = append(found, Neighbor{ID: e.id, Dist: dist})
			}
		}
		return found
	}

	var groups [][]Neighbor
	//nolint:errcheck
	utils.GroupWorkParallel(
		context.Background(),
		len(li.entries),
		func(numGroups int) {
			groups = make([][]Neighbor, numGroups)
		},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			local := make([]Neighbor, 0, groupSize)
			return func(memberNum, workNum int) {
					e := li.entries[workNum]
					if dist := li.metric(query, e.state); keep(dist) {
						local = append(local, Neighbor{ID: e.id, Dist: dist})
					}
				}, func() {
					groups[groupNum] = local
				}
		},
	)
	var found []Neighbor
	for _, g := range groups {
		found = append(found, g...)
	}
	return found
}

func (li *linearIndex) NearestR(query []float64, r float64) []Neighbor {
	found := li.scan(query, func(dist float64) bool { return dist <= r })
	sortNeighbors(found)
	return found
}

func (li *linearIndex) NearestK(query []float64, k int) []Neighbor {
	if k <= 0 {
		return nil
	}
	found := li.scan(query, func(float64) bool { return true })
	sortNeighbors(found)
	if len(found) > k {
		found = found[:k]
	}
	return found
}

func (li *linearIndex) Nearest(query []float64) (Neighbor, bool) {
	found := li.NearestK(query, 1)
	if len(found) == 0 {
		return Neighbor{}, false
	}
	return found[0], true
}
