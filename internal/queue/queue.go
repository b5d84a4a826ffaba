// Package queue contains a FIFO queue used by grammar analysis worklists.
package queue

// Queue is a FIFO queue, zero value is an empty queue.
type Queue[T any] struct {
	items []T
	head  int
}

// New creates a queue containing items.
func New[T any](items ...T) *Queue[T] {
	q := &Queue[T]{items: make([]T, 0, len(items))}
	q.items = append(q.items, items...)
	return q
}

func (q *Queue[T]) IsEmpty() bool {
	return q.head == len(q.items)
}

func (q *Queue[T]) Len() int {
	return len(q.items) - q.head
}

// Append adds item to the tail of the queue.
func (q *Queue[T]) Append(items ...T) *Queue[T] {
	if q.head > 0 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	q.items = append(q.items, items...)
	return q
}

// First removes and returns the head item, returns false if the queue is empty.
func (q *Queue[T]) First() (T, bool) {
	var zero T
	if q.IsEmpty() {
		return zero, false
	}

	item := q.items[q.head]
	q.items[q.head] = zero
	q.head++
	return item, true
}
