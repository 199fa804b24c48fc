package collision

import (
	"sort"
)

// Object is a geometry tagged with the robot that owns it. Pairs of objects with the same owner
// are never reported.
type Object struct {
	Geometry Geometry
	Owner    int
}

// Pair holds the indices of two colliding objects. A precedes B in sweep order.
type Pair struct {
	A int
	B int
}

// SweepAndPrune returns every colliding pair of objects with different owners. Objects are swept
// in ascending (AABB min X, index) order and a pair is reported when its second member is reached,
// so the output is sorted by the sweep position of B, then of A.
func SweepAndPrune(objects []Object) ([]Pair, error) {
	boxes := make([]AABB, len(objects))
	order := make([]int, len(objects))
	for i, o := range objects {
		if err := checkFinite(o.Geometry); err != nil {
			return nil, err
		}
		boxes[i] = o.Geometry.AABB()
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if boxes[a].Min.X != boxes[b].Min.X {
			return boxes[a].Min.X < boxes[b].Min.X
		}
		return a < b
	})

	var pairs []Pair
	active := make([]int, 0, len(objects))
	for _, idx := range order {
		minX := boxes[idx].Min.X
		kept := active[:0]
		for _, other := range active {
			if boxes[other].Max.X >= minX {
				kept = append(kept, other)
			}
		}
		active = kept

		for _, other := range active {
			if objects[other].Owner == objects[idx].Owner || !boxes[other].Overlaps(boxes[idx]) {
				continue
			}
			hit, err := objects[other].Geometry.CollidesWith(objects[idx].Geometry)
			if err != nil {
				return nil, err
			}
			if hit {
				pairs = append(pairs, Pair{A: other, B: idx})
			}
		}
		active = append(active, idx)
	}
	return pairs, nil
}
