package nearest

import (
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// squaredSlack widens radius queries so rounding in the squared distance never drops a point the
// metric places on the boundary.
const squaredSlack = 1e-9

// kdPoint is a state stored in the k-d tree. Distance is the squared Euclidean distance, which
// is what the tree's pruning expects.
type kdPoint struct {
	coords []float64
	id     int
}

func (p kdPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.coords[d] - c.(kdPoint).coords[d]
}

func (p kdPoint) Dims() int {
	return len(p.coords)
}

func (p kdPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(kdPoint)
	var sum float64
	for i, v := range p.coords {
		diff := v - q.coords[i]
		sum += diff * diff
	}
	return sum
}

type kdPoints []kdPoint

func (p kdPoints) Index(i int) kdtree.Comparable {
	return p[i]
}

func (p kdPoints) Len() int {
	return len(p)
}

func (p kdPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}

func (p kdPoints) Pivot(d kdtree.Dim) int {
	sort.Slice(p, func(i, j int) bool {
		return p[i].coords[d] < p[j].coords[d]
	})
	return len(p) / 2
}

// kdIndex reports distances through metric so that results match the linear index exactly.
type kdIndex struct {
	tree   *kdtree.Tree
	metric Metric
}

func newKDIndex(metric Metric) *kdIndex {
	return &kdIndex{tree: &kdtree.Tree{}, metric: metric}
}

func buildKDIndex(states [][]float64, metric Metric) *kdIndex {
	points := make(kdPoints, len(states))
	for i, s := range states {
		points[i] = kdPoint{coords: s, id: i}
	}
	if len(points) == 0 {
		return newKDIndex(metric)
	}
	return &kdIndex{tree: kdtree.New(points, false), metric: metric}
}

func (ki *kdIndex) Add(id int, state []float64) {
	ki.tree.Insert(kdPoint{coords: state, id: id}, false)
}

func (ki *kdIndex) Len() int {
	return ki.tree.Count
}

func (ki *kdIndex) collect(query []float64, keeper kdtree.Heap) []Neighbor {
	found := make([]Neighbor, 0, len(keeper))
	for _, cd := range keeper {
		// keepers are seeded with a sentinel that carries no point
		if cd.Comparable == nil {
			continue
		}
		p := cd.Comparable.(kdPoint)
		found = append(found, Neighbor{ID: p.id, Dist: ki.metric(query, p.coords)})
	}
	sortNeighbors(found)
	return found
}

func (ki *kdIndex) NearestR(query []float64, r float64) []Neighbor {
	if ki.tree.Count == 0 || r < 0 {
		return nil
	}
	keeper := kdtree.NewDistKeeper(r * r * (1 + squaredSlack))
	ki.tree.NearestSet(keeper, kdPoint{coords: query})
	found := ki.collect(query, keeper.Heap)
	kept := found[:0]
	for _, n := range found {
		if n.Dist <= r {
			kept = append(kept, n)
		}
	}
	return kept
}

func (ki *kdIndex) NearestK(query []float64, k int) []Neighbor {
	if ki.tree.Count == 0 || k <= 0 {
		return nil
	}
	keeper := kdtree.NewNKeeper(k)
	ki.tree.NearestSet(keeper, kdPoint{coords: query})
	found := ki.collect(query, keeper.Heap)
	if len(found) < k {
		return found
	}
	// the keeper breaks ties at the k-th distance arbitrarily; fetch all of them so ids decide
	found = ki.NearestR(query, found[len(found)-1].Dist)
	return found[:k]
}

func (ki *kdIndex) Nearest(query []float64) (Neighbor, bool) {
	found := ki.NearestK(query, 1)
	if len(found) == 0 {
		return Neighbor{}, false
	}
	return found[0], true
}
