package geom

import (
	"math"
	"testing"
)

func square(cx, cy, side float64) Ring {
	h := side / 2
	return Ring{
		{cx - h, cy - h},
		{cx + h, cy - h},
		{cx + h, cy + h},
		{cx - h, cy + h},
	}
}

func TestRingArea(t *testing.T) {
	tests := []struct {
		name string
		ring Ring
		want float64
	}{
		{"unit square", square(0, 0, 1), 1},
		{"10m square", square(5, 5, 10), 100},
		{"triangle", Ring{{0, 0}, {4, 0}, {0, 3}}, 6},
		{"clockwise square", Ring{{0, 0}, {0, 1}, {1, 1}, {1, 0}}, 1},
		{"degenerate", Ring{{0, 0}, {1, 1}}, 0},
	}

	for _, tt := range tests {
		if got := tt.ring.Area(); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: Area = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRingPerimeter(t *testing.T) {
	if got := square(0, 0, 10).Perimeter(); math.Abs(got-40) > 1e-9 {
		t.Errorf("Perimeter = %v, want 40", got)
	}
	tri := Ring{{0, 0}, {3, 0}, {3, 4}}
	if got := tri.Perimeter(); math.Abs(got-12) > 1e-9 {
		t.Errorf("triangle Perimeter = %v, want 12", got)
	}
}

func TestRingCentroid(t *testing.T) {
	c := square(10, 20, 4).Centroid()
	if math.Abs(c.X-10) > 1e-9 || math.Abs(c.Y-20) > 1e-9 {
		t.Errorf("Centroid = %+v, want (10, 20)", c)
	}
}

func TestRingContains(t *testing.T) {
	sq := square(0, 0, 10)
	if !sq.Contains(Point{0, 0}) {
		t.Error("center should be inside")
	}
	if !sq.Contains(Point{4.9, 4.9}) {
		t.Error("near corner should be inside")
	}
	if sq.Contains(Point{6, 0}) {
		t.Error("outside point reported inside")
	}
}

func TestDistanceToPoint(t *testing.T) {
	sq := square(0, 0, 10)

	if got := sq.DistanceToPoint(Point{0, 0}); got != 0 {
		t.Errorf("inside point distance = %v, want 0", got)
	}
	if got := sq.DistanceToPoint(Point{15, 0}); math.Abs(got-10) > 1e-9 {
		t.Errorf("distance = %v, want 10", got)
	}
	// Diagonal from the corner (5,5).
	want := math.Sqrt(2) * 5
	if got := sq.DistanceToPoint(Point{10, 10}); math.Abs(got-want) > 1e-9 {
		t.Errorf("corner distance = %v, want %v", got, want)
	}
}

func TestDistanceToRing(t *testing.T) {
	a := square(0, 0, 10)
	b := square(25, 0, 10) // gap of 10m edge to edge
	if got := a.DistanceToRing(b); math.Abs(got-10) > 1e-9 {
		t.Errorf("distance = %v, want 10", got)
	}

	overlapping := square(3, 0, 10)
	if got := a.DistanceToRing(overlapping); got != 0 {
		t.Errorf("overlapping rings distance = %v, want 0", got)
	}

	contained := square(0, 0, 2)
	if got := a.DistanceToRing(contained); got != 0 {
		t.Errorf("contained ring distance = %v, want 0", got)
	}
}

func TestDistanceToRingCrossing(t *testing.T) {
	// Two rectangles crossing in a plus sign: every vertex of each ring
	// lies outside the other, only their edges intersect.
	tall := Ring{{-1, -5}, {1, -5}, {1, 5}, {-1, 5}}
	wide := Ring{{-5, -1}, {5, -1}, {5, 1}, {-5, 1}}

	if got := tall.DistanceToRing(wide); got != 0 {
		t.Errorf("crossing rings distance = %v, want 0", got)
	}
	if got := wide.DistanceToRing(tall); got != 0 {
		t.Errorf("crossing rings distance (reversed) = %v, want 0", got)
	}
}

func TestBufferArea(t *testing.T) {
	sq := square(0, 0, 10)
	want := 100 + 40*40 + math.Pi*40*40
	if got := sq.BufferArea(40); math.Abs(got-want) > 1e-6 {
		t.Errorf("BufferArea = %v, want %v", got, want)
	}
}

func TestLambert93Origin(t *testing.T) {
	// The false origin is exact at the projection center.
	p := Lambert93(46.5, 3.0)
	if math.Abs(p.X-700000) > 1e-3 || math.Abs(p.Y-6600000) > 1e-3 {
		t.Errorf("origin projects to %+v, want (700000, 6600000)", p)
	}
}

func TestLambert93Paris(t *testing.T) {
	// Central Paris; reference coordinates accurate to a few meters, the
	// tolerance guards against gross projection errors only.
	p := Lambert93(48.8566, 2.3522)
	if math.Abs(p.X-652000) > 3000 || math.Abs(p.Y-6862000) > 3000 {
		t.Errorf("Paris projects to %+v, want about (652000, 6862000)", p)
	}
	if p.X >= 700000 {
		t.Error("Paris is west of the central meridian, easting should be < 700000")
	}
	if p.Y <= 6600000 {
		t.Error("Paris is north of the origin parallel, northing should be > 6600000")
	}
}

func TestLambert93LocalScale(t *testing.T) {
	// One millidegree of latitude is about 111.2m of meridian arc; the
	// projection's scale distortion inside France stays under a percent.
	a := Lambert93(45.7640, 4.8357) // Lyon
	b := Lambert93(45.7650, 4.8357)
	d := a.Distance(b)
	if d < 110 || d > 112.5 {
		t.Errorf("projected millidegree span = %v m, want about 111.2", d)
	}
}
