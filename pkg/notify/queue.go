package notify

// Queue is an ordered FIFO of pending outbound payloads. It decouples the
// monitor's decisions from delivery: the monitor appends, the owning service
// drains at send time. Not safe for concurrent use; a check cycle is
// single-threaded and queues are never shared across cycles.
type Queue[T any] struct {
	items []T
}

// Enqueue appends an item to the tail.
func (q *Queue[T]) Enqueue(item T) {
	q.items = append(q.items, item)
}

// Drain removes and returns all items in insertion order, leaving the
// queue empty.
func (q *Queue[T]) Drain() []T {
	items := q.items
	q.items = nil
	return items
}

// Items returns a copy of the pending items without consuming them.
func (q *Queue[T]) Items() []T {
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}

// Len returns the number of pending items.
func (q *Queue[T]) Len() int {
	return len(q.items)
}
