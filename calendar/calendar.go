// Package calendar implements the event calendar (C1): an ordered set of
// future device callbacks keyed by logical time, with a fixed deterministic
// tiebreaker for events that land on the same tick.
package calendar

import "container/heap"

// Event is a future device callback. Handler is invoked, unmodified and with
// the same payload pointer, by the runtime when the event's Time has been
// reached. The calendar orders events by Time, breaking ties by insertion
// order; it never changes Time, Handler or Payload once an Event has been
// scheduled.
type Event struct {
	Time    uint64
	Handler func(Event)
	Payload any

	seq   uint64
	index int
}

// Calendar is the C1 contract: Schedule, Cancel, Peek, PopDue. All operations
// are O(log n) and total — none of them can fail.
type Calendar struct {
	heap    eventHeap
	nextSeq uint64
}

// New creates an empty Calendar.
func New() *Calendar {
	c := &Calendar{}
	heap.Init(&c.heap)

	return c
}

// Schedule inserts e into the calendar and returns a handle that Cancel
// accepts. Re-inserting a handle that is already scheduled is undefined;
// callers must Cancel first.
func (c *Calendar) Schedule(e Event) *Event {
	e.seq = c.nextSeq
	c.nextSeq++

	he := &e
	heap.Push(&c.heap, he)

	return he
}

// Cancel removes e from the calendar if present; it is a no-op otherwise.
func (c *Calendar) Cancel(e *Event) {
	if e.index < 0 || e.index >= len(c.heap) || c.heap[e.index] != e {
		return
	}

	heap.Remove(&c.heap, e.index)
	e.index = -1
}

// Peek returns the smallest-time event without removing it, and whether the
// calendar is non-empty.
func (c *Calendar) Peek() (*Event, bool) {
	if len(c.heap) == 0 {
		return nil, false
	}

	return c.heap[0], true
}

// Len returns the number of events currently scheduled.
func (c *Calendar) Len() int {
	return len(c.heap)
}

// PopDue removes and returns the smallest-time event iff its time is <= now;
// otherwise it returns false and leaves the calendar untouched.
func (c *Calendar) PopDue(now uint64) (*Event, bool) {
	if len(c.heap) == 0 {
		return nil, false
	}

	if c.heap[0].Time > now {
		return nil, false
	}

	e := heap.Pop(&c.heap).(*Event)
	e.index = -1

	return e, true
}

// eventHeap orders by (Time, seq): strict by time, ties broken by insertion
// order. This is the one fixed tiebreaker spec §3 requires; it is never
// observable except through the order in which same-time events fire.
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}

	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x any) {
	e := x.(*Event)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]

	return e
}
