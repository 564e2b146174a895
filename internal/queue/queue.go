// Package queue orders monitored targets for the scheduler. Ordering is a
// total order on the status tier only, with pinned targets ahead of
// everything else; ties keep insertion order. The queue is rebuilt
// wholesale each cycle rather than resorted incrementally: tiers move every
// cycle and a full rebuild is cheap at hundreds to low thousands of
// targets.
package queue

import (
	"sort"

	"github.com/pagemend/pagemend/internal/model"
)

// Item is a snapshot of a monitored target sufficient for ranking
type Item struct {
	URL    string
	Title  string
	Status model.Status
	Pinned bool

	seq int
}

// Queue is a sorted buffer of target snapshots
type Queue struct {
	items []Item
	next  int
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{}
}

// Enqueue adds one item and restores ordering.
func (q *Queue) Enqueue(item Item) {
	item.seq = q.next
	q.next++
	q.items = append(q.items, item)
	q.sort()
}

// EnqueueMany adds a batch of items and restores ordering once.
func (q *Queue) EnqueueMany(items []Item) {
	for _, item := range items {
		item.seq = q.next
		q.next++
		q.items = append(q.items, item)
	}
	q.sort()
}

// Dequeue removes and returns the highest-priority item.
func (q *Queue) Dequeue() (Item, bool) {
	if len(q.items) == 0 {
		return Item{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Peek returns the highest-priority item without removing it.
func (q *Queue) Peek() (Item, bool) {
	if len(q.items) == 0 {
		return Item{}, false
	}
	return q.items[0], true
}

// Size returns the number of queued items.
func (q *Queue) Size() int {
	return len(q.items)
}

// Clear empties the queue and resets insertion order.
func (q *Queue) Clear() {
	q.items = nil
	q.next = 0
}

// All returns the queued items in priority order.
func (q *Queue) All() []Item {
	out := make([]Item, len(q.items))
	copy(out, q.items)
	return out
}

// sort orders pinned items first (in their given order), then everything
// else by status tier, stable within a tier.
func (q *Queue) sort() {
	sort.SliceStable(q.items, func(i, j int) bool {
		a, b := q.items[i], q.items[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		if a.Pinned {
			return a.seq < b.seq
		}
		if a.Status.Rank() != b.Status.Rank() {
			return a.Status.Rank() < b.Status.Rank()
		}
		return a.seq < b.seq
	})
}
