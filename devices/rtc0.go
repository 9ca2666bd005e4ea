package devices

import (
	"pinetime/peripheral"
	"pinetime/ppi"
	"pinetime/ticker"
)

// RTC0 implements the first real-time counter peripheral (nRF52832
// instance id 11, spec.md §3): a LFCLK-driven up-counter gated by
// TASKS_START/STOP/CLEAR, with per-tick and overflow events and four
// compare channels. It is the Go generalization of the teacher's
// devices.RTCDevice (devices/rtc.go) — that device derives its register
// values from host wall-clock time; this one instead derives COUNTER
// from the fabric's own ticker.Ticker, since spec.md §8 scenario 2
// requires the counter to advance deterministically across soc.Step
// calls rather than off the host clock.
type RTC0 struct {
	p  *ppi.PPI
	tk *ticker.Ticker

	running   bool
	counter   uint32
	prescaler uint32
	cc        [4]uint32
	inten     uint32
}

// Register offsets within RTC0's 4 KiB window, abridged to the subset
// this repo models.
const (
	rtcTasksStart = 0x000
	rtcTasksStop  = 0x004
	rtcTasksClear = 0x00C
	rtcEventsTick = 0x100
	rtcEventsOvr  = 0x104
	rtcEventsCC0  = 0x140
	rtcEventsCC1  = 0x144
	rtcEventsCC2  = 0x148
	rtcEventsCC3  = 0x14C
	rtcINTENSET   = 0x304
	rtcINTENCLR   = 0x308
	rtcPrescaler  = 0x508
	rtcCC0        = 0x540
	rtcCC1        = 0x544
	rtcCC2        = 0x548
	rtcCC3        = 0x54C
)

// Task/event indices, by the same (offset&0xFF)/4 rule clock.go uses.
const (
	taskRTCStart = (rtcTasksStart & 0xFF) / 4
	taskRTCStop  = (rtcTasksStop & 0xFF) / 4
	taskRTCClear = (rtcTasksClear & 0xFF) / 4
	eventRTCTick = (rtcEventsTick & 0xFF) / 4
	eventRTCOvr  = (rtcEventsOvr & 0xFF) / 4
	eventRTCCC0  = (rtcEventsCC0 & 0xFF) / 4
)

// NewRTC0 creates an RTC0 peripheral driven by tk and registered with p
// under devices.IDRTC0.
func NewRTC0(p *ppi.PPI, tk *ticker.Ticker) *RTC0 {
	r := &RTC0{p: p, tk: tk}
	p.AddPeripheral(IDRTC0, r.handleTask)
	return r
}

func (r *RTC0) handleTask(taskIndex uint8) {
	switch int(taskIndex) {
	case taskRTCStart:
		r.start()
	case taskRTCStop:
		r.running = false
	case taskRTCClear:
		r.counter = 0
	}
}

func (r *RTC0) start() {
	if r.running {
		return
	}
	r.running = true
	r.scheduleNext()
}

func (r *RTC0) scheduleNext() {
	period := uint64(r.prescaler) + 1
	r.tk.Schedule(r.tk.Cycle()+period, func(ctx any) { r.onTick() }, nil)
}

func (r *RTC0) onTick() {
	if !r.running {
		return
	}
	r.counter++
	if r.counter == 0 {
		r.fireEvent(eventRTCOvr)
	}
	r.fireEvent(eventRTCTick)
	for ch := 0; ch < 4; ch++ {
		if r.counter == r.cc[ch] {
			r.fireEvent(eventRTCCC0 + ch)
		}
	}
	r.scheduleNext()
}

func (r *RTC0) fireEvent(idx int) {
	pend := r.inten&(1<<uint(idx)) != 0
	r.p.SetEventBit(IDRTC0, uint8(idx), true)
	r.p.FireEvent(IDRTC0, uint8(idx), pend)
}

// Counter reports the current free-running counter value, for tests
// asserting scenario 2's "RTC0 starts, COUNTER begins ticking".
func (r *RTC0) Counter() uint32 { return r.counter }

// Operation implements peripheral.Peripheral.
func (r *RTC0) Operation(offset uint32, value *uint32, op peripheral.OpKind) peripheral.Result {
	if op == peripheral.Reset {
		r.reset()
		return peripheral.OK
	}
	if !peripheral.OnlyWord(op) {
		return peripheral.Unhandled
	}

	switch offset {
	case rtcTasksStart:
		if op.IsWrite() && *value != 0 {
			r.p.FireTask(IDRTC0, taskRTCStart)
		} else if op.IsRead() {
			*value = 0
		}
		return peripheral.OK
	case rtcTasksStop:
		if op.IsWrite() && *value != 0 {
			r.p.FireTask(IDRTC0, taskRTCStop)
		} else if op.IsRead() {
			*value = 0
		}
		return peripheral.OK
	case rtcTasksClear:
		if op.IsWrite() && *value != 0 {
			r.p.FireTask(IDRTC0, taskRTCClear)
		} else if op.IsRead() {
			*value = 0
		}
		return peripheral.OK

	case rtcEventsTick:
		return r.accessEvent(eventRTCTick, value, op)
	case rtcEventsOvr:
		return r.accessEvent(eventRTCOvr, value, op)
	case rtcEventsCC0:
		return r.accessEvent(eventRTCCC0, value, op)
	case rtcEventsCC1:
		return r.accessEvent(eventRTCCC0+1, value, op)
	case rtcEventsCC2:
		return r.accessEvent(eventRTCCC0+2, value, op)
	case rtcEventsCC3:
		return r.accessEvent(eventRTCCC0+3, value, op)

	case rtcINTENSET:
		if op.IsWrite() {
			peripheral.INTENSET(&r.inten, *value)
		} else {
			*value = r.inten
		}
		return peripheral.OK
	case rtcINTENCLR:
		if op.IsWrite() {
			peripheral.INTENCLR(&r.inten, *value)
		} else {
			*value = r.inten
		}
		return peripheral.OK

	case rtcPrescaler:
		if op.IsWrite() {
			r.prescaler = *value & 0x0FFFFF
		} else {
			*value = r.prescaler
		}
		return peripheral.OK

	case rtcCC0:
		return r.accessCC(0, value, op)
	case rtcCC1:
		return r.accessCC(1, value, op)
	case rtcCC2:
		return r.accessCC(2, value, op)
	case rtcCC3:
		return r.accessCC(3, value, op)
	}
	return peripheral.Unhandled
}

func (r *RTC0) accessEvent(idx int, value *uint32, op peripheral.OpKind) peripheral.Result {
	if op.IsWrite() {
		if *value&1 == 0 {
			r.p.ClearEvent(IDRTC0, uint8(idx))
		} else {
			r.p.SetEventBit(IDRTC0, uint8(idx), true)
		}
		return peripheral.OK
	}
	if r.p.EventIsSet(IDRTC0, uint8(idx)) {
		*value = 1
	} else {
		*value = 0
	}
	return peripheral.OK
}

func (r *RTC0) accessCC(ch int, value *uint32, op peripheral.OpKind) peripheral.Result {
	if op.IsWrite() {
		r.cc[ch] = *value & 0x00FFFFFF
	} else {
		*value = r.cc[ch]
	}
	return peripheral.OK
}

func (r *RTC0) reset() {
	r.running = false
	r.counter = 0
	r.prescaler = 0
	for i := range r.cc {
		r.cc[i] = 0
	}
	r.inten = 0
	r.p.ClearEvent(IDRTC0, eventRTCTick)
	r.p.ClearEvent(IDRTC0, eventRTCOvr)
	for ch := 0; ch < 4; ch++ {
		r.p.ClearEvent(IDRTC0, uint8(eventRTCCC0+ch))
	}
}
