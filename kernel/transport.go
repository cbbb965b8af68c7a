package kernel

import "sync/atomic"

// Cross-thread transport (C7, spec §4.7): a lock-free target snapshot plus
// two single-producer/single-consumer event rings. The control thread calls
// TargetBuffer.Write and the ring Pop methods; the audio thread calls
// TargetBuffer.Read and the ring Push methods. No other synchronization
// exists between the two, matching the shared-resource policy of spec §5.

// TargetBuffer carries the latest EngineParams from the control thread to
// the audio thread. The spec calls for a triple buffer; this realizes the
// same contract — writer publishes whenever it likes, reader atomically
// picks up the latest full snapshot once per block, never blocking and
// never tearing a read — with a single atomic pointer swap instead of
// manual slot bookkeeping, the same technique as the pack's lock-free
// atomic.Pointer[SoundChip] swap in IntuitionEngine's oto player. The
// allocation this costs (one small struct per Write) happens on the control
// thread, which spec §5 permits; Read only dereferences, so the audio
// thread never allocates.
type TargetBuffer struct {
	ptr atomic.Pointer[EngineParams]
}

// NewTargetBuffer seeds the buffer so the very first Read never sees a nil
// snapshot.
func NewTargetBuffer(initial EngineParams) *TargetBuffer {
	tb := &TargetBuffer{}
	v := initial
	tb.ptr.Store(&v)
	return tb
}

// Write publishes a new target snapshot. Safe to call from the control
// thread at any rate; concurrent writes collapse to whichever lands last.
func (tb *TargetBuffer) Write(v EngineParams) {
	cp := v
	tb.ptr.Store(&cp)
}

// Read returns the most recently published snapshot. Called once per block
// by the audio thread.
func (tb *TargetBuffer) Read() EngineParams {
	p := tb.ptr.Load()
	if p == nil {
		return EngineParams{}
	}
	return *p
}

// EventRing is a fixed-capacity SPSC ring of AudioEvents. Push is called
// only from the audio thread and never blocks: on overflow it discards the
// oldest queued event and increments Drops (spec §4.7, "bounded drop").
type EventRing struct {
	buf   []AudioEvent
	head  atomic.Uint64
	tail  atomic.Uint64
	drops atomic.Uint64
}

// NewEventRing preallocates a ring of the given capacity; this allocation
// happens once, at kernel construction, off the audio thread.
func NewEventRing(capacity int) *EventRing {
	if capacity < 1 {
		capacity = 1
	}
	return &EventRing{buf: make([]AudioEvent, capacity)}
}

// Push enqueues e. head is owned exclusively by the consumer (Pop); Push
// only ever loads it to decide whether this write overruns an unread entry,
// never stores to it — only tail is producer-owned. On overrun the oldest
// entry is overwritten in place and Drops is incremented; Pop notices it
// has fallen behind on its own next call and skips forward accordingly.
func (r *EventRing) Push(e AudioEvent) {
	cap64 := uint64(len(r.buf))
	tail := r.tail.Load()
	r.buf[tail%cap64] = e
	r.tail.Store(tail + 1)

	head := r.head.Load()
	if tail+1-head > cap64 {
		r.drops.Add(1)
	}
}

// Pop dequeues the oldest pending event, called from the consumer thread.
// If the producer has lapped the consumer (tail-head > capacity), the
// consumer jumps its own head forward to the oldest surviving entry rather
// than relying on the producer to have advanced head itself.
func (r *EventRing) Pop() (AudioEvent, bool) {
	cap64 := uint64(len(r.buf))
	head := r.head.Load()
	tail := r.tail.Load()
	if tail-head > cap64 {
		head = tail - cap64
	}
	if head >= tail {
		return AudioEvent{}, false
	}
	e := r.buf[head%cap64]
	r.head.Store(head + 1)
	return e, true
}

// Drops returns the number of events discarded for overflow so far.
func (r *EventRing) Drops() uint64 { return r.drops.Load() }

// HarmonyRing is a fixed-capacity SPSC ring of HarmonyState snapshots, at
// most one push per step, consumed by UI/visualization.
type HarmonyRing struct {
	buf  []HarmonyState
	head atomic.Uint64
	tail atomic.Uint64
}

func NewHarmonyRing(capacity int) *HarmonyRing {
	if capacity < 1 {
		capacity = 1
	}
	return &HarmonyRing{buf: make([]HarmonyState, capacity)}
}

// Push enqueues s, overwriting the oldest snapshot on overflow (harmony-state
// history beyond UI display depth is not worth a drop counter of its own).
// As in EventRing.Push, only tail is producer-owned; head is never written
// here.
func (r *HarmonyRing) Push(s HarmonyState) {
	cap64 := uint64(len(r.buf))
	tail := r.tail.Load()
	r.buf[tail%cap64] = s
	r.tail.Store(tail + 1)
}

// Pop dequeues the oldest pending snapshot, jumping head forward itself if
// Push has lapped it (see EventRing.Pop).
func (r *HarmonyRing) Pop() (HarmonyState, bool) {
	cap64 := uint64(len(r.buf))
	head := r.head.Load()
	tail := r.tail.Load()
	if tail-head > cap64 {
		head = tail - cap64
	}
	if head >= tail {
		return HarmonyState{}, false
	}
	s := r.buf[head%cap64]
	r.head.Store(head + 1)
	return s, true
}
