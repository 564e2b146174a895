package queue

import (
	"testing"

	"github.com/pagemend/pagemend/internal/model"
)

func TestQueue_TierOrdering(t *testing.T) {
	q := New()
	q.EnqueueMany([]Item{
		{URL: "m", Status: model.StatusMedium},
		{URL: "c", Status: model.StatusCritical},
		{URL: "ok", Status: model.StatusHealthy},
		{URL: "h", Status: model.StatusHigh},
	})

	var got []string
	for {
		item, ok := q.Dequeue()
		if !ok {
			break
		}
		got = append(got, item.URL)
	}

	want := []string{"c", "h", "m", "ok"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dequeue order %v, want %v", got, want)
		}
	}
}

func TestQueue_StableTies(t *testing.T) {
	q := New()
	q.Enqueue(Item{URL: "first", Status: model.StatusHigh})
	q.Enqueue(Item{URL: "second", Status: model.StatusHigh})
	q.Enqueue(Item{URL: "third", Status: model.StatusHigh})

	a, _ := q.Dequeue()
	b, _ := q.Dequeue()
	c, _ := q.Dequeue()
	if a.URL != "first" || b.URL != "second" || c.URL != "third" {
		t.Errorf("ties must keep insertion order, got %s %s %s", a.URL, b.URL, c.URL)
	}
}

func TestQueue_PinnedAheadOfEverything(t *testing.T) {
	q := New()
	q.EnqueueMany([]Item{
		{URL: "critical", Status: model.StatusCritical},
		{URL: "pin-b", Status: model.StatusHealthy, Pinned: true},
		{URL: "pin-a", Status: model.StatusMedium, Pinned: true},
	})

	first, _ := q.Dequeue()
	second, _ := q.Dequeue()
	third, _ := q.Dequeue()

	// Pinned targets lead in operator-given order, even a healthy one
	// ahead of an unpinned critical target.
	if first.URL != "pin-b" || second.URL != "pin-a" || third.URL != "critical" {
		t.Errorf("got %s, %s, %s", first.URL, second.URL, third.URL)
	}
}

func TestQueue_PeekAndSize(t *testing.T) {
	q := New()
	if _, ok := q.Peek(); ok {
		t.Error("peek on empty queue must report empty")
	}
	if _, ok := q.Dequeue(); ok {
		t.Error("dequeue on empty queue must report empty")
	}

	q.Enqueue(Item{URL: "a", Status: model.StatusMedium})
	q.Enqueue(Item{URL: "b", Status: model.StatusCritical})

	top, ok := q.Peek()
	if !ok || top.URL != "b" {
		t.Errorf("peek = %v/%v, want b", top.URL, ok)
	}
	if q.Size() != 2 {
		t.Errorf("size = %d, want 2", q.Size())
	}

	q.Clear()
	if q.Size() != 0 {
		t.Errorf("size after clear = %d", q.Size())
	}
}

func TestQueue_AllReturnsPriorityOrder(t *testing.T) {
	q := New()
	q.EnqueueMany([]Item{
		{URL: "h", Status: model.StatusHealthy},
		{URL: "c", Status: model.StatusCritical},
	})

	all := q.All()
	if len(all) != 2 || all[0].URL != "c" {
		t.Errorf("All() = %v", all)
	}
	if q.Size() != 2 {
		t.Error("All() must not consume the queue")
	}
}
