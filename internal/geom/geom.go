// Package geom provides the small amount of planar geometry the roof
// pipeline needs: polygon area/perimeter/centroid, point-to-polygon and
// polygon-to-polygon distances, all in a projected metric frame.
package geom

import "math"

// Point is a position in a projected metric coordinate system (meters).
type Point struct {
	X float64
	Y float64
}

// Distance returns the Euclidean distance to another point.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Ring is a closed polygon ring. The closing edge from the last vertex back
// to the first is implicit; callers must not repeat the first vertex.
type Ring []Point

// signedArea uses the shoelace formula. Positive for counterclockwise
// winding, negative for clockwise.
func (r Ring) signedArea() float64 {
	n := len(r)
	if n < 3 {
		return 0
	}
	area := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += r[i].X * r[j].Y
		area -= r[j].X * r[i].Y
	}
	return area / 2
}

// Area returns the unsigned area in m².
func (r Ring) Area() float64 {
	return math.Abs(r.signedArea())
}

// Perimeter returns the total edge length in meters, including the
// implicit closing edge.
func (r Ring) Perimeter() float64 {
	n := len(r)
	if n < 2 {
		return 0
	}
	total := 0.0
	for i := 0; i < n; i++ {
		total += r[i].Distance(r[(i+1)%n])
	}
	return total
}

// Centroid returns the area-weighted centroid, falling back to the vertex
// average for degenerate rings.
func (r Ring) Centroid() Point {
	n := len(r)
	if n == 0 {
		return Point{}
	}
	a := r.signedArea()
	if n < 3 || math.Abs(a) < 1e-12 {
		sum := Point{}
		for _, v := range r {
			sum.X += v.X
			sum.Y += v.Y
		}
		return Point{sum.X / float64(n), sum.Y / float64(n)}
	}
	cx, cy := 0.0, 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := r[i].X*r[j].Y - r[j].X*r[i].Y
		cx += (r[i].X + r[j].X) * cross
		cy += (r[i].Y + r[j].Y) * cross
	}
	f := 1.0 / (6.0 * a)
	return Point{cx * f, cy * f}
}

// Contains reports whether the point is inside the ring, using ray casting.
func (r Ring) Contains(pt Point) bool {
	n := len(r)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi := r[i]
		vj := r[j]
		if (vi.Y > pt.Y) != (vj.Y > pt.Y) &&
			pt.X < (vj.X-vi.X)*(pt.Y-vi.Y)/(vj.Y-vi.Y)+vi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}

// DistanceToPoint returns the distance from the ring's boundary or interior
// to a point: zero when the point lies inside, otherwise the minimum
// distance to any edge.
func (r Ring) DistanceToPoint(pt Point) float64 {
	if r.Contains(pt) {
		return 0
	}
	n := len(r)
	if n == 0 {
		return math.Inf(1)
	}
	if n == 1 {
		return r[0].Distance(pt)
	}
	minDist := math.Inf(1)
	for i := 0; i < n; i++ {
		d := segmentDistance(pt, r[i], r[(i+1)%n])
		if d < minDist {
			minDist = d
		}
	}
	return minDist
}

// DistanceToRing returns the minimum distance between two rings, zero when
// they overlap or one contains the other.
func (r Ring) DistanceToRing(o Ring) float64 {
	if len(r) == 0 || len(o) == 0 {
		return math.Inf(1)
	}
	// Overlap: one ring holds a vertex of the other, or their boundaries
	// cross. The vertex check alone misses crossings where neither ring
	// contains any vertex of the other.
	if r.Contains(o[0]) || o.Contains(r[0]) || r.crossesRing(o) {
		return 0
	}
	minDist := math.Inf(1)
	for _, v := range o {
		if d := r.DistanceToPoint(v); d < minDist {
			minDist = d
		}
	}
	for _, v := range r {
		if d := o.DistanceToPoint(v); d < minDist {
			minDist = d
		}
	}
	return minDist
}

// crossesRing reports whether any edge of r strictly crosses an edge of o.
// Touching edges are left to the distance computation, which yields zero
// for them anyway.
func (r Ring) crossesRing(o Ring) bool {
	for i := range r {
		a, b := r[i], r[(i+1)%len(r)]
		for j := range o {
			c, d := o[j], o[(j+1)%len(o)]
			if segmentsCross(a, b, c, d) {
				return true
			}
		}
	}
	return false
}

// segmentsCross reports a proper intersection of segments ab and cd.
func segmentsCross(a, b, c, d Point) bool {
	o1 := cross(a, b, c)
	o2 := cross(a, b, d)
	o3 := cross(c, d, a)
	o4 := cross(c, d, b)
	return (o1 > 0) != (o2 > 0) && (o3 > 0) != (o4 > 0)
}

// cross is the z component of (b-a) × (c-a).
func cross(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// segmentDistance returns the distance from p to the segment ab.
func segmentDistance(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return p.Distance(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.Distance(Point{a.X + t*dx, a.Y + t*dy})
}

// BufferArea returns the area of the ring dilated by radius meters,
// using the exact formula for convex shapes (A + P·r + πr²). Building
// footprints are close enough to convex that the approximation error is
// negligible for density estimation.
func (r Ring) BufferArea(radius float64) float64 {
	return r.Area() + r.Perimeter()*radius + math.Pi*radius*radius
}
