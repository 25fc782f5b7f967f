// Package actiontag allocates the integer tags attached to SDK-issued actions.
//
// The robot reserves [FirstTag, LastTag] for tags chosen by the SDK; it echoes
// a tag back on the matching completion so callers can correlate responses.
// The allocator walks that range and wraps, so a tag is unique only among
// roughly a million consecutive allocations.
package actiontag

import "sync/atomic"

// Tag range reserved for SDK actions.
const (
	FirstTag = 2000001
	LastTag  = 3000000

	// InvalidTag is never returned by Next.
	InvalidTag = -1
)

// Allocator hands out action tags. The zero value is not ready; use New.
//
// Thread Safety:
//   - Next is safe for concurrent use.
type Allocator struct {
	last atomic.Int64
}

// New returns an allocator whose first Next returns FirstTag.
func New() *Allocator {
	a := &Allocator{}
	a.last.Store(InvalidTag)
	return a
}

// Next returns the next tag, wrapping to FirstTag after LastTag.
func (a *Allocator) Next() int {
	for {
		cur := a.last.Load()
		next := cur + 1
		if cur < FirstTag || next > LastTag {
			next = FirstTag
		}
		if a.last.CompareAndSwap(cur, next) {
			return int(next)
		}
	}
}
