// Package queue provides the bounded priority queue used to collect the
// k nearest candidates during a brute-force scan.
package queue

import "container/heap"

// Compile time check to ensure PriorityQueue satisfies the heap interface.
var _ heap.Interface = (*PriorityQueue)(nil)

// Item is a candidate row position with its distance to the query.
type Item struct {
	Position int     // Row position in the embedding table.
	Distance float32 // Distance is the priority of the item in the queue.
}

// PriorityQueue is a max heap over Items: the farthest candidate is on top.
//
// Ties on Distance are ordered by Position, so for equal distances the lower
// row position is considered nearer. This keeps results deterministic.
type PriorityQueue struct {
	items []Item
}

// NewMax initializes a new priority queue with maximum priority.
func NewMax(capacity int) *PriorityQueue {
	return &PriorityQueue{
		items: make([]Item, 0, capacity),
	}
}

// nearer reports whether a ranks before b in ascending neighbour order.
func nearer(a, b Item) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Position < b.Position
}

// Len returns the number of elements in the priority queue.
func (pq *PriorityQueue) Len() int { return len(pq.items) }

// Less reports whether the element with index i should sort before the element with index j.
func (pq *PriorityQueue) Less(i, j int) bool {
	return nearer(pq.items[j], pq.items[i])
}

// Swap swaps the elements with indexes i and j.
func (pq *PriorityQueue) Swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
}

// Push adds an element to the priority queue.
func (pq *PriorityQueue) Push(x any) {
	pq.items = append(pq.items, x.(Item))
}

// Pop removes and returns the top element.
func (pq *PriorityQueue) Pop() any {
	old := pq.items
	n := len(old)
	item := old[n-1]
	old[n-1] = Item{}
	pq.items = old[:n-1]
	return item
}

// Top returns the farthest element without removing it.
func (pq *PriorityQueue) Top() (Item, bool) {
	if len(pq.items) == 0 {
		return Item{}, false
	}
	return pq.items[0], true
}

// Offer pushes item while keeping at most limit entries. Once full, item
// replaces the current farthest entry if it is nearer.
func (pq *PriorityQueue) Offer(item Item, limit int) {
	if pq.Len() < limit {
		heap.Push(pq, item)
		return
	}
	farthest, ok := pq.Top()
	if ok && nearer(item, farthest) {
		pq.items[0] = item
		heap.Fix(pq, 0)
	}
}

// Drain empties the queue and returns its items nearest first.
func (pq *PriorityQueue) Drain() []Item {
	out := make([]Item, pq.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(pq).(Item)
	}
	return out
}
