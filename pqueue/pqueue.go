// Package pqueue implements a binary min-heap whose entries are addressed by a stable integer id,
// so that an entry's priority can be changed or the entry removed after it was pushed.
package pqueue

import (
	"container/heap"
)

// Less orders two items; the item for which Less returns true is popped first.
type Less[T any] func(a, b T) bool

type entry[T any] struct {
	id           int
	item         T
	indexInQueue int
}

type entries[T any] struct {
	items []*entry[T]
	less  Less[T]
}

func (e entries[T]) Len() int           { return len(e.items) }
func (e entries[T]) Less(i, j int) bool { return e.less(e.items[i].item, e.items[j].item) }
func (e entries[T]) Swap(i, j int) {
	e.items[i], e.items[j] = e.items[j], e.items[i]
	e.items[i].indexInQueue = i
	e.items[j].indexInQueue = j
}

func (e *entries[T]) Push(x any) {
	ent := x.(*entry[T])
	ent.indexInQueue = len(e.items)
	e.items = append(e.items, ent)
}

func (e *entries[T]) Pop() any {
	old := e.items
	n := len(old)
	ent := old[n-1]
	old[n-1] = nil
	e.items = old[:n-1]
	ent.indexInQueue = -1
	return ent
}

// Queue is an indexed priority queue. It is not safe for concurrent use.
type Queue[T any] struct {
	heap entries[T]
	byID map[int]*entry[T]
}

// New returns an empty queue ordered by less.
func New[T any](less Less[T]) *Queue[T] {
	return &Queue[T]{heap: entries[T]{less: less}, byID: map[int]*entry[T]{}}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return q.heap.Len()
}

// Contains reports whether an item with the given id is queued.
func (q *Queue[T]) Contains(id int) bool {
	_, ok := q.byID[id]
	return ok
}

// Push queues item under id. If the id is already queued its item is replaced and the heap
// restored, which is how decrease-key is done.
func (q *Queue[T]) Push(id int, item T) {
	if ent, ok := q.byID[id]; ok {
		ent.item = item
		heap.Fix(&q.heap, ent.indexInQueue)
		return
	}
	ent := &entry[T]{id: id, item: item}
	q.byID[id] = ent
	heap.Push(&q.heap, ent)
}

// Fix restores the heap after the priority of the item queued under id changed in place. It
// returns false if the id is not queued.
func (q *Queue[T]) Fix(id int) bool {
	ent, ok := q.byID[id]
	if !ok {
		return false
	}
	heap.Fix(&q.heap, ent.indexInQueue)
	return true
}

// Peek returns the minimum item without removing it.
func (q *Queue[T]) Peek() (int, T, bool) {
	if q.heap.Len() == 0 {
		var zero T
		return 0, zero, false
	}
	ent := q.heap.items[0]
	return ent.id, ent.item, true
}

// Pop removes and returns the minimum item.
func (q *Queue[T]) Pop() (int, T, bool) {
	if q.heap.Len() == 0 {
		var zero T
		return 0, zero, false
	}
	ent := heap.Pop(&q.heap).(*entry[T])
	delete(q.byID, ent.id)
	return ent.id, ent.item, true
}

// Remove drops the item queued under id, returning false if there was none.
func (q *Queue[T]) Remove(id int) (T, bool) {
	ent, ok := q.byID[id]
	if !ok {
		var zero T
		return zero, false
	}
	heap.Remove(&q.heap, ent.indexInQueue)
	delete(q.byID, id)
	return ent.item, true
}

// Items returns the queued items in heap order, which is unspecified beyond the first element.
func (q *Queue[T]) Items() []T {
	out := make([]T, len(q.heap.items))
	for i, ent := range q.heap.items {
		out[i] = ent.item
	}
	return out
}
