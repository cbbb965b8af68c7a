package kernel

// VossMcCartney generates 1/f ("pink") noise in [-1,1] by summing a small
// bank of white-noise generators, each updated at half the rate of the last
// — the classic Voss-McCartney trick. Used as the melodic generator's
// low-frequency fractal contour bias (spec §4.5).
type VossMcCartney struct {
	values [numVossRows]float64
	sum    float64
	tick   uint64
}

const numVossRows = 5

// NewVossMcCartney seeds every row from rnd so the generator starts at a
// stable, non-zero value rather than ramping up from silence.
func NewVossMcCartney(rnd *rng) *VossMcCartney {
	v := &VossMcCartney{}
	for i := range v.values {
		v.values[i] = rnd.Uniform(-1, 1)
		v.sum += v.values[i]
	}
	return v
}

// Next advances the generator by one step and returns the new value in
// roughly [-1,1]. Row i updates once every 2^i steps, which is what gives
// the sum its 1/f spectral falloff.
func (v *VossMcCartney) Next(rnd *rng) float64 {
	v.tick++
	for i := 0; i < numVossRows; i++ {
		period := uint64(1) << uint(i)
		if v.tick%period == 0 {
			v.sum -= v.values[i]
			v.values[i] = rnd.Uniform(-1, 1)
			v.sum += v.values[i]
		}
	}
	return v.sum / numVossRows
}

// State/SetState expose the generator's value for look-ahead cloning.
func (v *VossMcCartney) State() VossMcCartney    { return *v }
func (v *VossMcCartney) SetState(s VossMcCartney) { *v = s }
