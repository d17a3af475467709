// Package roof picks the footprint matching a query address and estimates
// how much of it can carry panels.
package roof

import (
	"fmt"
	"math"

	"github.com/mlecomte/toitsol/internal/geom"
	"github.com/mlecomte/toitsol/internal/osm"
)

const (
	// DefaultMaxDistanceM bounds how far the nearest footprint may be from
	// the geocoded point. Beyond this the address is considered unmapped
	// rather than silently attributed to a neighboring building.
	DefaultMaxDistanceM = 50.0

	// DefaultMinAreaM2 rejects sheds and garages mistakenly matched as the
	// main roof.
	DefaultMinAreaM2 = 15.0
)

// NoBuildingFoundError means no polygonal candidates existed within the
// search radius.
type NoBuildingFoundError struct {
	RadiusM float64
}

func (e *NoBuildingFoundError) Error() string {
	return fmt.Sprintf("no building footprint within %.0fm of the address", e.RadiusM)
}

func (e *NoBuildingFoundError) UserMessage() string {
	return "Aucun bâtiment cartographié n'a été trouvé à proximité de cette adresse. Essayez une autre adresse."
}

// BuildingTooFarError means the nearest candidate exceeds the distance
// threshold.
type BuildingTooFarError struct {
	DistanceM float64
	MaxM      float64
}

func (e *BuildingTooFarError) Error() string {
	return fmt.Sprintf("nearest building is %.0fm away (max %.0fm)", e.DistanceM, e.MaxM)
}

func (e *BuildingTooFarError) UserMessage() string {
	return "Le bâtiment le plus proche est trop éloigné du point géocodé : il ne s'agit probablement pas de votre adresse. Essayez une adresse plus précise."
}

// RoofTooSmallError means the selected footprint is below the minimum
// viable panel area.
type RoofTooSmallError struct {
	AreaM2 float64
	MinM2  float64
}

func (e *RoofTooSmallError) Error() string {
	return fmt.Sprintf("selected roof is %.0fm² (min %.0fm²)", e.AreaM2, e.MinM2)
}

func (e *RoofTooSmallError) UserMessage() string {
	return fmt.Sprintf("Le toit détecté ne fait que %.0f m², trop petit pour une installation viable.", e.AreaM2)
}

// Candidate is a footprint projected into the Lambert-93 metric frame.
type Candidate struct {
	Source osm.Footprint
	Rings  []geom.Ring
}

// Area returns the total footprint area in m² across all rings.
func (c Candidate) Area() float64 {
	total := 0.0
	for _, r := range c.Rings {
		total += r.Area()
	}
	return total
}

// Perimeter returns the total outer perimeter in meters.
func (c Candidate) Perimeter() float64 {
	total := 0.0
	for _, r := range c.Rings {
		total += r.Perimeter()
	}
	return total
}

// DistanceToPoint returns the minimum distance from any ring to the point.
func (c Candidate) DistanceToPoint(p geom.Point) float64 {
	minDist := math.Inf(1)
	for _, r := range c.Rings {
		if d := r.DistanceToPoint(p); d < minDist {
			minDist = d
		}
	}
	return minDist
}

// DistanceTo returns the minimum distance between two candidates' rings.
func (c Candidate) DistanceTo(o Candidate) float64 {
	minDist := math.Inf(1)
	for _, r := range c.Rings {
		for _, or := range o.Rings {
			if d := r.DistanceToRing(or); d < minDist {
				minDist = d
			}
		}
	}
	return minDist
}

// Project converts a footprint's WGS84 rings into the metric frame.
func Project(fp osm.Footprint) Candidate {
	c := Candidate{Source: fp}
	for _, ring := range fp.Rings {
		projected := make(geom.Ring, len(ring))
		for i, v := range ring {
			projected[i] = geom.Lambert93(v.Lat, v.Lon)
		}
		c.Rings = append(c.Rings, projected)
	}
	return c
}

// Selection is the chosen roof along with the full projected candidate set
// for downstream density and neighbor computations.
type Selection struct {
	Roof       Candidate
	RoofIndex  int
	DistanceM  float64
	Point      geom.Point // query point, projected
	Candidates []Candidate
}

// Neighbors returns all candidates except the selected roof.
func (s *Selection) Neighbors() []Candidate {
	out := make([]Candidate, 0, len(s.Candidates)-1)
	for i, c := range s.Candidates {
		if i != s.RoofIndex {
			out = append(out, c)
		}
	}
	return out
}

// Options bound the selection sanity checks.
type Options struct {
	SearchRadiusM float64 // reported in NoBuildingFoundError
	MaxDistanceM  float64
	MinAreaM2     float64
}

// Select projects all footprints and the query point into Lambert-93 and
// picks the footprint nearest the point. The first minimum wins ties.
func Select(footprints []osm.Footprint, lat, lon float64, opts Options) (*Selection, error) {
	if opts.MaxDistanceM <= 0 {
		opts.MaxDistanceM = DefaultMaxDistanceM
	}
	if opts.MinAreaM2 <= 0 {
		opts.MinAreaM2 = DefaultMinAreaM2
	}

	if len(footprints) == 0 {
		return nil, &NoBuildingFoundError{RadiusM: opts.SearchRadiusM}
	}

	pt := geom.Lambert93(lat, lon)

	sel := &Selection{
		Point:      pt,
		RoofIndex:  -1,
		DistanceM:  math.Inf(1),
		Candidates: make([]Candidate, 0, len(footprints)),
	}
	for i, fp := range footprints {
		c := Project(fp)
		sel.Candidates = append(sel.Candidates, c)
		if d := c.DistanceToPoint(pt); d < sel.DistanceM {
			sel.DistanceM = d
			sel.RoofIndex = i
		}
	}

	if sel.DistanceM > opts.MaxDistanceM {
		return nil, &BuildingTooFarError{DistanceM: sel.DistanceM, MaxM: opts.MaxDistanceM}
	}

	sel.Roof = sel.Candidates[sel.RoofIndex]
	if area := sel.Roof.Area(); area < opts.MinAreaM2 {
		return nil, &RoofTooSmallError{AreaM2: area, MinM2: opts.MinAreaM2}
	}

	return sel, nil
}
