// Package ticker implements the fabric's cycle-count scheduler (spec.md
// §4.I): an ordered queue of callbacks each due at a future cycle count,
// drained in fire-order on every Tick. The shape follows the teacher's
// devices.PITDevice (devices/pit.go), which likewise counts down a cycle
// budget and invokes a callback when it expires, generalized from one
// fixed countdown to an arbitrary number of independently scheduled
// entries so RTC0 and other peripherals can each own their own future
// callback.
package ticker

import "golang.org/x/exp/constraints"

// Callback is invoked when its scheduled cycle has been reached. It may
// call Ticker.Schedule again to reschedule itself.
type Callback func(ctx any)

type entry struct {
	fireAt uint64
	seq    uint64
	cb     Callback
	ctx    any
}

// Ticker is a min-heap of entries ordered by fire cycle, ties broken by
// insertion order (spec.md §4.I).
type Ticker struct {
	cycle   uint64
	nextSeq uint64
	heap    []entry
}

// New creates a ticker with its cycle counter at 0.
func New() *Ticker {
	return &Ticker{}
}

// Cycle reports the current cycle counter.
func (t *Ticker) Cycle() uint64 { return t.cycle }

// Schedule queues cb to fire once the cycle counter reaches fireAt. If
// fireAt has already passed, it fires on the very next Tick.
func (t *Ticker) Schedule(fireAt uint64, cb Callback, ctx any) {
	t.push(entry{fireAt: fireAt, seq: t.nextSeq, cb: cb, ctx: ctx})
	t.nextSeq++
}

// Tick advances the cycle counter by one and dispatches every callback
// whose fire cycle has been reached, in (fireAt, insertion order). Each
// entry is popped before its callback runs, so the callback may call
// Schedule again to reschedule itself without disturbing the heap it was
// popped from.
func (t *Ticker) Tick() {
	t.cycle++
	for len(t.heap) > 0 && t.heap[0].fireAt <= t.cycle {
		e := t.pop()
		e.cb(e.ctx)
	}
}

// Reset zeroes the cycle counter and drops every pending callback. Unlike
// a peripheral reset, nothing re-schedules itself automatically —
// callers that need a recurring tick (e.g. RTC0) re-arm it after Reset,
// the same way real hardware requires a fresh TASKS_START.
func (t *Ticker) Reset() {
	t.cycle = 0
	t.nextSeq = 0
	t.heap = t.heap[:0]
}

// less is the generic unsigned comparison entryLess applies to the fire
// cycle and then the insertion sequence; push and pop sift by entryLess.
func less[T constraints.Unsigned](a, b T) bool { return a < b }

func (t *Ticker) push(e entry) {
	t.heap = append(t.heap, e)
	i := len(t.heap) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if entryLess(t.heap[i], t.heap[parent]) {
			t.heap[i], t.heap[parent] = t.heap[parent], t.heap[i]
			i = parent
			continue
		}
		break
	}
}

func (t *Ticker) pop() entry {
	top := t.heap[0]
	last := len(t.heap) - 1
	t.heap[0] = t.heap[last]
	t.heap = t.heap[:last]
	i := 0
	for {
		left, right := 2*i+1, 2*i+2
		smallest := i
		if left < len(t.heap) && entryLess(t.heap[left], t.heap[smallest]) {
			smallest = left
		}
		if right < len(t.heap) && entryLess(t.heap[right], t.heap[smallest]) {
			smallest = right
		}
		if smallest == i {
			break
		}
		t.heap[i], t.heap[smallest] = t.heap[smallest], t.heap[i]
		i = smallest
	}
	return top
}

func entryLess(a, b entry) bool {
	if a.fireAt != b.fireAt {
		return less(a.fireAt, b.fireAt)
	}
	return less(a.seq, b.seq)
}

// Len reports the number of pending callbacks, for tests asserting
// nothing leaks across reschedules.
func (t *Ticker) Len() int { return len(t.heap) }
