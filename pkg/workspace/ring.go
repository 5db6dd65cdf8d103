package workspace

// ring is an ordered buffer holding at most cap items; pushing onto a full
// ring evicts the oldest item.
type ring[T any] struct {
	items []T
	cap   int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &ring[T]{items: make([]T, 0, capacity), cap: capacity}
}

func (r *ring[T]) push(v T) {
	if len(r.items) == r.cap {
		copy(r.items, r.items[1:])
		r.items[len(r.items)-1] = v
		return
	}
	r.items = append(r.items, v)
}

// removeLast deletes the newest item matching fn, returning whether one was found.
func (r *ring[T]) removeLast(fn func(T) bool) bool {
	for i := len(r.items) - 1; i >= 0; i-- {
		if fn(r.items[i]) {
			copy(r.items[i:], r.items[i+1:])
			var zero T
			r.items[len(r.items)-1] = zero
			r.items = r.items[:len(r.items)-1]
			return true
		}
	}
	return false
}

func (r *ring[T]) last() (T, bool) {
	if len(r.items) == 0 {
		var zero T
		return zero, false
	}
	return r.items[len(r.items)-1], true
}

func (r *ring[T]) len() int {
	return len(r.items)
}

// snapshot returns a copy of the items, oldest first.
func (r *ring[T]) snapshot() []T {
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}
