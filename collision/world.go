package collision

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// World is the static environment: workspace bounds and fixed obstacles. It is read only once
// built and may be shared between planners.
type World struct {
	Bounds    AABB
	obstacles []Geometry
	boxes     []AABB
}

// NewWorld builds a world from its bounds and obstacles.
func NewWorld(minPt, maxPt r3.Vector, obstacles []Geometry) (*World, error) {
	if minPt.X > maxPt.X || minPt.Y > maxPt.Y || minPt.Z > maxPt.Z {
		return nil, errors.Wrapf(ErrDegenerateGeometry, "world bounds min %v exceed max %v", minPt, maxPt)
	}
	w := &World{Bounds: AABB{Min: minPt, Max: maxPt}}
	for _, o := range obstacles {
		if err := checkFinite(o); err != nil {
			return nil, err
		}
		w.obstacles = append(w.obstacles, o)
		w.boxes = append(w.boxes, o.AABB())
	}
	return w, nil
}

// Obstacles returns the static obstacles.
func (w *World) Obstacles() []Geometry {
	return w.obstacles
}

// Collides reports whether any of the shapes intersects a static obstacle.
func (w *World) Collides(shapes []Geometry) (bool, error) {
	for _, s := range shapes {
		if err := checkFinite(s); err != nil {
			return false, err
		}
		box := s.AABB()
		for i, o := range w.obstacles {
			if !w.boxes[i].Overlaps(box) {
				continue
			}
			hit, err := s.CollidesWith(o)
			if err != nil {
				return false, err
			}
			if hit {
				return true, nil
			}
		}
	}
	return false, nil
}

// TranslateAll returns copies of the shapes shifted by offset. The input is left untouched.
func TranslateAll(shapes []Geometry, offset r3.Vector) []Geometry {
	moved := make([]Geometry, len(shapes))
	for i, s := range shapes {
		moved[i] = s.Translate(offset)
	}
	return moved
}
