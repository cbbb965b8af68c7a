//go:build !harmonium_debug

package kernel

// allocSentinel is a no-op outside debug builds; see sentinel_debug.go for
// the harmonium_debug variant that actually guards the non-allocation
// invariant (spec §4.7, "debug-only allocation sentinel").
type allocSentinel struct{}

func newAllocSentinel() allocSentinel { return allocSentinel{} }

func (s *allocSentinel) begin() {}
func (s *allocSentinel) end()   {}
