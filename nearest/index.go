// Package nearest provides the spatial indexes the planners use to find motion primitives and
// explored states close to a query state.
package nearest

import (
	"sort"
)

// Metric measures the distance between two states.
type Metric func(a, b []float64) float64

// Neighbor is a query result: the id the state was added under and its distance to the query.
type Neighbor struct {
	ID   int
	Dist float64
}

// Index is a nearest neighbor index over states. Queries return neighbors sorted by ascending
// distance, ties broken by ascending id. Add must not run concurrently with anything else;
// queries may run concurrently with each other.
type Index interface {
	Add(id int, state []float64)
	// NearestK returns the k closest states, or all of them if fewer are indexed.
	NearestK(query []float64, k int) []Neighbor
	// NearestR returns every state within distance r of the query, boundary included.
	NearestR(query []float64, r float64) []Neighbor
	// Nearest returns the closest state; ok is false when the index is empty.
	Nearest(query []float64) (Neighbor, bool)
	Len() int
}

// New returns an empty index. Euclidean metrics over the raw state vector are served by a k-d
// tree; any other metric falls back to a linear scan that parallelizes once the index is large.
func New(metric Metric, euclidean bool) Index {
	if euclidean {
		return newKDIndex(metric)
	}
	return newLinearIndex(metric)
}

// Build returns an index holding states[i] under id i. Euclidean trees built this way are
// balanced.
func Build(states [][]float64, metric Metric, euclidean bool) Index {
	if euclidean {
		return buildKDIndex(states, metric)
	}
	idx := newLinearIndex(metric)
	for i, s := range states {
		idx.Add(i, s)
	}
	return idx
}

func sortNeighbors(neighbors []Neighbor) {
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Dist != neighbors[j].Dist {
			return neighbors[i].Dist < neighbors[j].Dist
		}
		return neighbors[i].ID < neighbors[j].ID
	})
}
