package kernel

// Pattern generation (C3, spec §4.3). Each mode is a pure function from
// (mode, steps, pulses, rotation, tension bucket, density bucket) to a
// RhythmPattern — testable property #3 (determinism).

// tensionBucket/densityBucket quantize a [0,1] value into 10 integer
// buckets, the discretization spec's determinism property is stated over.
func tensionBucket(t float64) int { return clampInt(int(t*10), 0, 9) }
func densityBucket(d float64) int { return clampInt(int(d*10), 0, 9) }

// bjorklundPattern distributes `pulses` onsets as evenly as possible across
// `steps` slots using the Bjorklund algorithm, grounded on the reference
// Euclidean-rhythm generator in the example pack (bjorklund() in
// luisgizirian-lab-audio's euclidgen tool), generalized to return a bool
// vector instead of int. Rotation is applied separately by rotatePattern.
func bjorklundPattern(steps, pulses int) []bool {
	hits := make([]bool, steps)
	if steps <= 0 {
		return hits
	}
	pulses = clampInt(pulses, 0, steps)
	if pulses == 0 {
		return hits
	}
	if pulses == steps {
		for i := range hits {
			hits[i] = true
		}
		return hits
	}

	groups := make([][]bool, steps)
	for i := 0; i < steps; i++ {
		groups[i] = []bool{i < pulses}
	}

	for {
		count := 0
		for i := 0; i < len(groups)-1; i++ {
			last := len(groups) - 1
			if len(groups[i]) == 1 && len(groups[last]) == 1 && groups[i][0] != groups[last][0] {
				groups[i] = append(groups[i], groups[last][0])
				groups = groups[:last]
				count++
			}
		}
		if count == 0 {
			break
		}
	}

	out := make([]bool, 0, steps)
	for _, g := range groups {
		out = append(out, g...)
	}
	// Bjorklund's recursion can leave a short remainder; pad defensively so
	// callers always see exactly `steps` entries (never observed in
	// practice for steps>0, but this keeps the invariant airtight).
	for len(out) < steps {
		out = append(out, false)
	}
	return out[:steps]
}

func rotatePattern(hits []bool, rotation int) []bool {
	n := len(hits)
	if n == 0 {
		return hits
	}
	rotation = ((rotation % n) + n) % n
	if rotation == 0 {
		return hits
	}
	out := make([]bool, n)
	for i, v := range hits {
		out[(i+rotation)%n] = v
	}
	return out
}

func generateEvenPattern(spec RhythmSpec) RhythmPattern {
	hits := bjorklundPattern(spec.Steps, spec.Pulses)
	hits = rotatePattern(hits, spec.Rotation)
	return RhythmPattern{Steps: spec.Steps, Hits: hits}
}

// generateBalancedPolygonPattern superimposes up to maxPolygons regular
// polygons inscribed on `steps` vertices. The polygon count is chosen from
// the density bucket (denser => more superimposed polygons); the whole
// union is phase-rotated by `rotation` (tension).
func generateBalancedPolygonPattern(spec RhythmSpec, densityBkt, maxPolygons int) RhythmPattern {
	steps := spec.Steps
	hits := make([]bool, steps)
	if steps <= 0 {
		return RhythmPattern{Steps: steps, Hits: hits}
	}

	count := 1 + (densityBkt * (maxPolygons - 1) / 9)
	if count < 1 {
		count = 1
	}
	if count > maxPolygons {
		count = maxPolygons
	}

	// Polygon sizes are spec.Pulses (at least 2) and the next count-1
	// integers; each polygon's k-th vertex lands on step k*steps/size.
	base := spec.Pulses
	if base < 2 {
		base = 2
	}
	for p := 0; p < count; p++ {
		size := base + p
		if size < 2 {
			size = 2
		}
		for k := 0; k < size; k++ {
			pos := (k * steps) / size
			if pos >= 0 && pos < steps {
				hits[pos] = true
			}
		}
	}

	hits = rotatePattern(hits, spec.Rotation)
	return RhythmPattern{Steps: steps, Hits: hits}
}

// grooveFamily is a fixed kick/snare/hat-shaped onset skeleton selected by
// density bucket; groove-template mode picks one and layers a ghost-note
// mask plus end-of-cycle fill zone scaled by tension.
func grooveFamily(densityBkt int) []bool {
	// Three skeletons of increasing activity, each tiled/truncated to the
	// requested step count by the caller.
	sparse := []bool{true, false, false, false, false, false, true, false, false, false, false, false}
	medium := []bool{true, false, false, true, false, false, true, false, true, false, false, false}
	busy := []bool{true, false, true, true, false, true, true, false, true, true, false, true}

	switch {
	case densityBkt < 3:
		return sparse
	case densityBkt < 7:
		return medium
	default:
		return busy
	}
}

func generateGroovePattern(spec RhythmSpec, densityBkt, tensionBkt int) RhythmPattern {
	steps := spec.Steps
	hits := make([]bool, steps)
	if steps <= 0 {
		return RhythmPattern{Steps: steps, Hits: hits}
	}
	family := grooveFamily(densityBkt)
	for i := 0; i < steps; i++ {
		hits[i] = family[i%len(family)]
	}

	// Ghost-note mask: fill in off-family steps at low probability-by-
	// construction positions once tension crosses the midpoint; determinism
	// requires this be purely a function of tensionBkt, not live randomness.
	if tensionBkt >= 5 {
		for i := 0; i < steps; i++ {
			if !hits[i] && i%2 == 1 {
				hits[i] = true
			}
		}
	}

	// Fill zone: the last quarter of the cycle gets maximally dense onsets
	// once tension is high, the classic "fill into the next bar" shape.
	if tensionBkt >= 7 {
		start := steps - steps/4
		for i := start; i < steps; i++ {
			hits[i] = true
		}
	}

	hits = rotatePattern(hits, spec.Rotation)
	return RhythmPattern{Steps: steps, Hits: hits}
}

// GeneratePattern dispatches to the selected mode. Inconsistent inputs
// (pulses > steps after morphing) are silently clamped upstream by the
// mapper; this function never surfaces a fault (spec §4.3 failure
// semantics, §7).
func GeneratePattern(mode RhythmMode, spec RhythmSpec, tension, density float64, maxPolygons int) RhythmPattern {
	spec.Pulses = clampInt(spec.Pulses, 0, spec.Steps)
	if spec.Steps > 0 {
		spec.Rotation = ((spec.Rotation % spec.Steps) + spec.Steps) % spec.Steps
	}

	switch mode {
	case RhythmBalancedPolygon:
		return generateBalancedPolygonPattern(spec, densityBucket(density), maxPolygons)
	case RhythmGroove:
		return generateGroovePattern(spec, densityBucket(density), tensionBucket(tension))
	default:
		return generateEvenPattern(spec)
	}
}
