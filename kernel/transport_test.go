package kernel

import "testing"

// TestEventRingOverflowDropsOldestAndCounts is spec scenario S5: once full,
// each further push drops exactly one (the oldest) and increments Drops by
// exactly one, never blocking.
func TestEventRingOverflowDropsOldestAndCounts(t *testing.T) {
	ring := NewEventRing(4)
	for i := 0; i < 4; i++ {
		ring.Push(AudioEvent{Step: uint32(i)})
	}
	if ring.Drops() != 0 {
		t.Fatalf("unexpected drops before overflow: %d", ring.Drops())
	}

	for i := 4; i < 10; i++ {
		ring.Push(AudioEvent{Step: uint32(i)})
		if want := uint64(i - 3); ring.Drops() != want {
			t.Fatalf("after push %d: drops = %d, want %d", i, ring.Drops(), want)
		}
	}

	// Remaining events should be the most recent 4, in order.
	for want := uint32(6); want <= 9; want++ {
		e, ok := ring.Pop()
		if !ok {
			t.Fatalf("expected an event for step %d", want)
		}
		if e.Step != want {
			t.Fatalf("ordering broken after overflow: got step %d, want %d", e.Step, want)
		}
	}
	if _, ok := ring.Pop(); ok {
		t.Fatalf("ring should be empty now")
	}
}

func TestEventRingPreservesFIFOOrder(t *testing.T) {
	ring := NewEventRing(16)
	for i := 0; i < 10; i++ {
		ring.Push(AudioEvent{Step: uint32(i)})
	}
	for i := 0; i < 10; i++ {
		e, ok := ring.Pop()
		if !ok || e.Step != uint32(i) {
			t.Fatalf("expected step %d, got %+v ok=%v", i, e, ok)
		}
	}
}

func TestTargetBufferReadReturnsLatestWrite(t *testing.T) {
	tb := NewTargetBuffer(EngineParams{Arousal: 0.1})
	tb.Write(EngineParams{Arousal: 0.9, Valence: -0.5, Density: 0.2, Tension: 0.7})
	got := tb.Read()
	want := EngineParams{Arousal: 0.9, Valence: -0.5, Density: 0.2, Tension: 0.7}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestHarmonyRingDropsOldestOnOverflow(t *testing.T) {
	ring := NewHarmonyRing(2)
	ring.Push(HarmonyState{MeasureNumber: 1})
	ring.Push(HarmonyState{MeasureNumber: 2})
	ring.Push(HarmonyState{MeasureNumber: 3})

	first, ok := ring.Pop()
	if !ok || first.MeasureNumber != 2 {
		t.Fatalf("expected oldest surviving entry to be measure 2, got %+v ok=%v", first, ok)
	}
}
