// Package notify provides the lock-free multicast slot behind property-changed
// notification on compiled models.
//
// Observers live in an immutable slice published through an atomic pointer.
// Add and Remove build a new slice and compare-and-swap it in, retrying with
// the freshly observed slice on contention. Fire loads the slice once and
// invokes observers without holding any lock, so an observer may add or
// remove observers (itself included) while being invoked.
package notify

import (
	"sync/atomic"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

type observer struct {
	id core.Subscription
	fn core.PropertyChangedFunc
}

// Slot is a multicast property-changed observer list.
// The zero value is ready to use. A Slot must not be copied after first use.
type Slot struct {
	observers atomic.Pointer[[]observer]
	nextID    atomic.Uint64
}

// Add registers fn and returns its subscription. A nil fn is ignored and
// yields the zero Subscription.
func (s *Slot) Add(fn core.PropertyChangedFunc) core.Subscription {
	if fn == nil {
		return 0
	}
	id := core.Subscription(s.nextID.Add(1))

	for {
		current := s.observers.Load()
		var n int
		if current != nil {
			n = len(*current)
		}
		combined := make([]observer, n, n+1)
		if current != nil {
			copy(combined, *current)
		}
		combined = append(combined, observer{id: id, fn: fn})

		if s.observers.CompareAndSwap(current, &combined) {
			return id
		}
	}
}

// Remove unregisters the subscription. Returns false if it was not registered.
func (s *Slot) Remove(sub core.Subscription) bool {
	if sub == 0 {
		return false
	}

	for {
		current := s.observers.Load()
		if current == nil {
			return false
		}

		idx := -1
		for i, o := range *current {
			if o.id == sub {
				idx = i
				break
			}
		}
		if idx < 0 {
			return false
		}

		var next *[]observer
		if len(*current) > 1 {
			remaining := make([]observer, 0, len(*current)-1)
			remaining = append(remaining, (*current)[:idx]...)
			remaining = append(remaining, (*current)[idx+1:]...)
			next = &remaining
		}

		if s.observers.CompareAndSwap(current, next) {
			return true
		}
	}
}

// Fire invokes every registered observer once, in registration order.
func (s *Slot) Fire(sender core.Model, property string) {
	current := s.observers.Load()
	if current == nil {
		return
	}
	for _, o := range *current {
		o.fn(sender, property)
	}
}

// Len returns the number of registered observers.
func (s *Slot) Len() int {
	current := s.observers.Load()
	if current == nil {
		return 0
	}
	return len(*current)
}
