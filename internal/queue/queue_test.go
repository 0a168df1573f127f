package queue

import (
	"container/heap"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityQueue_MaxOrder(t *testing.T) {
	pq := NewMax(4)
	heap.Push(pq, Item{Position: 1, Distance: 3})
	heap.Push(pq, Item{Position: 2, Distance: 1})
	heap.Push(pq, Item{Position: 3, Distance: 2})

	top, ok := pq.Top()
	require.True(t, ok)
	assert.Equal(t, 1, top.Position)

	var got []int
	for pq.Len() > 0 {
		got = append(got, heap.Pop(pq).(Item).Position)
	}
	assert.Equal(t, []int{1, 3, 2}, got)
}

func TestPriorityQueue_OfferKeepsNearest(t *testing.T) {
	pq := NewMax(3)
	for i, d := range []float32{9, 1, 7, 3, 5, 0} {
		pq.Offer(Item{Position: i, Distance: d}, 3)
	}

	items := pq.Drain()
	require.Len(t, items, 3)
	assert.Equal(t, []int{5, 1, 3}, []int{items[0].Position, items[1].Position, items[2].Position})
	assert.Equal(t, 0, pq.Len())
}

func TestPriorityQueue_TiesByPosition(t *testing.T) {
	pq := NewMax(2)
	pq.Offer(Item{Position: 4, Distance: 1}, 2)
	pq.Offer(Item{Position: 2, Distance: 1}, 2)
	pq.Offer(Item{Position: 0, Distance: 1}, 2)

	items := pq.Drain()
	require.Len(t, items, 2)
	assert.Equal(t, 0, items[0].Position)
	assert.Equal(t, 2, items[1].Position)
}

func TestPriorityQueue_TopEmpty(t *testing.T) {
	_, ok := NewMax(0).Top()
	assert.False(t, ok)
}
