package kernel

import "math/rand"

// splitmix64 is a tiny, deterministic PRNG source used for every randomized
// decision in the kernel (humanization, progression tie-breaks). It holds
// its entire state in one uint64, so cloning it for look-ahead simulation
// (spec §4.8, §9 "PRNGs") is a plain value copy — no allocation, no shared
// state with the live kernel.
type splitmix64 struct {
	state uint64
}

func newSplitmix64(seed uint64) *splitmix64 {
	return &splitmix64{state: seed}
}

func (s *splitmix64) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Uint64 implements rand.Source64.
func (s *splitmix64) Uint64() uint64 { return s.next() }

// Int63 implements rand.Source.
func (s *splitmix64) Int63() int64 { return int64(s.next() >> 1) }

// Seed implements rand.Source.
func (s *splitmix64) Seed(seed int64) { s.state = uint64(seed) }

// rng is the kernel-owned PRNG: a math/rand.Rand over our cloneable source.
// rand.Rand itself carries no heap-backed state beyond the source, so
// cloning is src-copy + one small struct allocation done only at Clone()
// time (off the audio thread, see lookahead.go) rather than per sample.
type rng struct {
	src *splitmix64
	r   *rand.Rand
}

func newRNG(seed uint64) *rng {
	src := newSplitmix64(seed)
	return &rng{src: src, r: rand.New(src)}
}

// clone returns an independent rng with identical future output.
func (g *rng) clone() *rng {
	srcCopy := *g.src
	return &rng{src: &srcCopy, r: rand.New(&srcCopy)}
}

// Float64 returns a uniform value in [0,1).
func (g *rng) Float64() float64 { return g.r.Float64() }

// Uniform returns a uniform value in [lo,hi).
func (g *rng) Uniform(lo, hi float64) float64 { return lo + g.r.Float64()*(hi-lo) }

// Intn returns a uniform value in [0,n).
func (g *rng) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return g.r.Intn(n)
}
