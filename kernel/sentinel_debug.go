//go:build harmonium_debug

package kernel

import (
	"fmt"
	"runtime"
)

// allocSentinel wraps one Kernel.Block call with a MemStats.Mallocs
// before/after comparison and panics if the count moved, which is the
// practical Go-idiomatic realization of spec §4.7's "allocation sentinel
// that wraps the allocator and panics on any heap operation" — Go offers no
// hook to intercept the allocator itself, so this samples runtime stats
// around the guarded region instead. Built only under the harmonium_debug
// tag; never present in a release build, and never used in a hot sub-block
// loop since ReadMemStats itself is relatively expensive.
type allocSentinel struct {
	mallocs uint64
}

func newAllocSentinel() allocSentinel { return allocSentinel{} }

func (s *allocSentinel) begin() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	s.mallocs = m.Mallocs
}

func (s *allocSentinel) end() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	if m.Mallocs != s.mallocs {
		panic(fmt.Sprintf("harmonium: heap allocation on audio thread (%d mallocs)", m.Mallocs-s.mallocs))
	}
}
