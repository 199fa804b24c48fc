package collision

import "github.com/golang/geo/r3"

// AABB is a world axis aligned bounding box.
type AABB struct {
	Min r3.Vector
	Max r3.Vector
}

// Overlaps reports whether the two boxes share at least one point.
func (a AABB) Overlaps(b AABB) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y &&
		a.Min.Z <= b.Max.Z && b.Min.Z <= a.Max.Z
}

// Contains reports whether pt lies inside the box, boundary included.
func (a AABB) Contains(pt r3.Vector) bool {
	return pt.X >= a.Min.X && pt.X <= a.Max.X &&
		pt.Y >= a.Min.Y && pt.Y <= a.Max.Y &&
		pt.Z >= a.Min.Z && pt.Z <= a.Max.Z
}
