package roof

// CoverageEstimate is the usable-fraction verdict for a selected roof.
// Ratio covers obstructions intrinsic to the roof (chimneys, edges,
// geometry); Shade covers masking by the surrounding built environment.
// The two compose multiplicatively: usable = area × Ratio × Shade.
type CoverageEstimate struct {
	Ratio       float64
	Shade       float64
	Policy      string
	Compactness float64
	Density     float64
}

// CoveragePolicy derives a coverage estimate from a roof selection.
type CoveragePolicy interface {
	Estimate(sel *Selection) CoverageEstimate
}

// FixedRatio assumes a constant usable fraction, an average across all
// roof types.
type FixedRatio struct {
	Ratio float64
}

// DefaultFixedRatio is the historical market-average assumption.
func DefaultFixedRatio() FixedRatio {
	return FixedRatio{Ratio: 0.50}
}

func (p FixedRatio) Estimate(sel *Selection) CoverageEstimate {
	return CoverageEstimate{
		Ratio:       p.Ratio,
		Shade:       1.0,
		Policy:      "fixed",
		Compactness: Compactness(sel.Roof),
	}
}

// CompactnessBand maps a lower compactness bound to a usable ratio.
type CompactnessBand struct {
	MinCompactness float64
	Ratio          float64
}

// CompactnessBased derives the ratio from the footprint's shape:
// compactness = area / perimeter². Simple rectangular roofs score high and
// keep most of their surface; complex shapes carry more edges and
// obstructions per unit area.
type CompactnessBased struct {
	// Bands are evaluated top-down; the first band whose bound is met
	// decides. The final band should have bound zero as the catch-all.
	Bands []CompactnessBand
}

// DefaultCompactnessBased returns the calibrated lookup table. A perfect
// square scores 1/16 = 0.0625; long or jagged footprints fall under 0.03.
func DefaultCompactnessBased() CompactnessBased {
	return CompactnessBased{Bands: []CompactnessBand{
		{MinCompactness: 0.05, Ratio: 0.65},
		{MinCompactness: 0.03, Ratio: 0.50},
		{MinCompactness: 0, Ratio: 0.35},
	}}
}

// Compactness returns area / perimeter² for a candidate, zero for
// degenerate geometry.
func Compactness(c Candidate) float64 {
	p := c.Perimeter()
	if p <= 0 {
		return 0
	}
	return c.Area() / (p * p)
}

func (p CompactnessBased) Estimate(sel *Selection) CoverageEstimate {
	compactness := Compactness(sel.Roof)
	ratio := 0.35
	for _, band := range p.Bands {
		if compactness >= band.MinCompactness {
			ratio = band.Ratio
			break
		}
	}
	return CoverageEstimate{
		Ratio:       ratio,
		Shade:       1.0,
		Policy:      "compactness",
		Compactness: compactness,
	}
}

// DensityStep maps a built-density upper bound to a shade multiplier.
type DensityStep struct {
	MaxDensity float64
	Shade      float64
}

// DensityShaded wraps another coverage policy and adds a shade multiplier
// estimated from built density around the roof: the summed area of
// neighboring footprints within a buffer, over the buffer area. Denser
// surroundings mean more masking.
type DensityShaded struct {
	Coverage CoveragePolicy
	BufferM  float64
	// Steps are evaluated in order; the first step whose bound exceeds the
	// density decides. A final catch-all step uses +Inf or any bound ≥ 1.
	Steps      []DensityStep
	FloorShade float64 // used when no step matches
}

// DefaultDensityShaded composes the compactness table with the calibrated
// density step function (open countryside 1.0 down to 0.65 in dense
// urban fabric).
func DefaultDensityShaded() DensityShaded {
	return DensityShaded{
		Coverage: DefaultCompactnessBased(),
		BufferM:  40,
		Steps: []DensityStep{
			{MaxDensity: 0.10, Shade: 1.0},
			{MaxDensity: 0.25, Shade: 0.9},
			{MaxDensity: 0.40, Shade: 0.8},
		},
		FloorShade: 0.65,
	}
}

func (p DensityShaded) Estimate(sel *Selection) CoverageEstimate {
	est := p.Coverage.Estimate(sel)
	est.Policy = "density"
	est.Density = p.builtDensity(sel)

	est.Shade = p.FloorShade
	for _, step := range p.Steps {
		if est.Density < step.MaxDensity {
			est.Shade = step.Shade
			break
		}
	}
	return est
}

// builtDensity sums the area of neighbors whose footprint comes within
// BufferM of the roof, over the buffer area. A neighbor intersects the
// buffer polygon exactly when its distance to the roof is at most the
// buffer radius, so the buffer geometry itself is never constructed.
func (p DensityShaded) builtDensity(sel *Selection) float64 {
	bufferArea := 0.0
	for _, r := range sel.Roof.Rings {
		bufferArea += r.BufferArea(p.BufferM)
	}
	if bufferArea <= 0 {
		return 0
	}

	builtArea := 0.0
	for _, n := range sel.Neighbors() {
		if sel.Roof.DistanceTo(n) <= p.BufferM {
			builtArea += n.Area()
		}
	}
	return builtArea / bufferArea
}

// PolicyByName returns the default-configured policy for a configuration
// name, falling back to compactness for unknown names.
func PolicyByName(name string) CoveragePolicy {
	switch name {
	case "fixed":
		return DefaultFixedRatio()
	case "density":
		return DefaultDensityShaded()
	default:
		return DefaultCompactnessBased()
	}
}
