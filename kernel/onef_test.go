package kernel

import "testing"

func TestVossMcCartneyStaysBounded(t *testing.T) {
	rnd := newRNG(42)
	v := NewVossMcCartney(rnd)
	for i := 0; i < 10000; i++ {
		x := v.Next(rnd)
		if x < -1.01 || x > 1.01 {
			t.Fatalf("value out of expected range at step %d: %f", i, x)
		}
	}
}

func TestVossMcCartneyCloneTracksOriginal(t *testing.T) {
	rnd := newRNG(9)
	v := NewVossMcCartney(rnd)
	for i := 0; i < 5; i++ {
		v.Next(rnd)
	}

	snapshot := v.State()
	clone := &VossMcCartney{}
	clone.SetState(snapshot)
	rndClone := rnd.clone()

	for i := 0; i < 20; i++ {
		a := v.Next(rnd)
		b := clone.Next(rndClone)
		if a != b {
			t.Fatalf("clone diverged at step %d: %f vs %f", i, a, b)
		}
	}
}
