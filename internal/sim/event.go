package sim

import (
	"container/heap"

	"github.com/ssdfair/ssdsim/pkg/models"
)

// Event is a completion notification: a request dispatched to a channel
// becomes due at Time, at which point its bytes are handed to the metrics
// aggregator. The core carries no other event type — arrivals are driven
// directly off the sorted trace, not through the queue.
type Event struct {
	Time    float64
	Request models.Request
	seq     int64
}

// eventHeap implements container/heap.Interface, ordering by Time and
// breaking ties by insertion sequence so equal-time events stay FIFO.
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(*Event))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// EventQueue is a min-heap of completion events ordered by time, with FIFO
// tie-break among equal times. It is not safe for concurrent use: the
// core is single-threaded by design (spec.md §5).
type EventQueue struct {
	h       eventHeap
	nextSeq int64
}

// NewEventQueue returns an empty EventQueue.
func NewEventQueue() *EventQueue {
	eq := &EventQueue{}
	heap.Init(&eq.h)
	return eq
}

// Push schedules an event at the given time carrying req.
func (eq *EventQueue) Push(t float64, req models.Request) {
	e := &Event{Time: t, Request: req, seq: eq.nextSeq}
	eq.nextSeq++
	heap.Push(&eq.h, e)
}

// Pop removes and returns the earliest event. Pop on an empty queue
// panics; callers must check Empty first.
func (eq *EventQueue) Pop() *Event {
	return heap.Pop(&eq.h).(*Event)
}

// Peek returns the earliest event without removing it, or nil if the
// queue is empty.
func (eq *EventQueue) Peek() *Event {
	if len(eq.h) == 0 {
		return nil
	}
	return eq.h[0]
}

// Empty reports whether the queue holds no events.
func (eq *EventQueue) Empty() bool {
	return len(eq.h) == 0
}

// Len returns the number of pending events.
func (eq *EventQueue) Len() int {
	return len(eq.h)
}
