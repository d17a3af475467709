package roof

// FloorPolicy is the neighbor-count story heuristic: fewer than
// NeighborThreshold buildings nearby suggests a low-density area of
// detached two-story houses, and the footprint area is multiplied
// accordingly.
//
// The threshold and multiplier are rough, acknowledged-uncertain defaults
// with no empirical calibration behind them. The policy ships disabled and
// must be enabled explicitly; treat its output as a low-confidence upper
// bound, not a measurement.
type FloorPolicy struct {
	// NeighborThreshold: below this many neighboring buildings the area
	// multiplier applies.
	NeighborThreshold int
	// Multiplier scales the footprint area when the threshold is met.
	Multiplier float64
}

// DefaultFloorPolicy returns the historical defaults (30 neighbors, 2×).
func DefaultFloorPolicy() FloorPolicy {
	return FloorPolicy{NeighborThreshold: 30, Multiplier: 2.0}
}

// AreaMultiplier returns the multiplier to apply to the roof area for a
// given neighbor count, 1.0 when the heuristic does not trigger.
func (p FloorPolicy) AreaMultiplier(neighborCount int) float64 {
	if neighborCount < p.NeighborThreshold {
		return p.Multiplier
	}
	return 1.0
}
