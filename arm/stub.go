package arm

import (
	"fmt"
	"log"

	"pinetime/memory"
	"pinetime/peripheral"
)

// resetVectorSP and resetVectorPC are the offsets of the initial stack
// pointer and initial program counter within the Cortex-M reset vector
// table at address 0.
const (
	resetVectorSP = 0x00000000
	resetVectorPC = 0x00000004
)

// numRegs is r0-r12, sp, lr, pc.
const numRegs = 16

const (
	regSP = 13
	regLR = 14
	regPC = 15
)

// pendingException records one exception's priority so Step can service
// the highest-priority (lowest numeric value) one first, matching NVIC
// priority ordering.
type pendingException struct {
	number   uint16
	priority uint8
}

// Stub is a deterministic arm.CPU that advances a program counter and
// services pended exceptions without decoding any instruction. It exists
// so the SoC step loop, memory router, and peripherals are fully testable
// end to end (spec.md §8 scenario 1's cold-boot, scenario 6's interrupt
// delivery) without a real Thumb-2 decoder, which spec.md §1 places out
// of scope. A real decoder implementing arm.CPU can replace this without
// any other package change.
type Stub struct {
	mem   *memory.Router
	regs  [numRegs]uint32
	xpsr  uint32
	ctrl  uint32
	Debug bool

	pending    []pendingException
	priorities map[uint16]uint8

	// LastServiced is the exception number the most recent Step serviced,
	// or false if none was pending. Tests read this to assert delivery
	// order and priority without a real NVIC to query.
	LastServiced   uint16
	LastServicedOK bool
}

// NewStub creates a stub CPU that loads/stores through mem.
func NewStub(mem *memory.Router) *Stub {
	s := &Stub{mem: mem, priorities: make(map[uint16]uint8)}
	s.Reset()
	return s
}

// Reset loads SP and PC from the reset vector table at address 0, zeroes
// the remaining registers, and clears pending exceptions, matching a
// Cortex-M's documented reset behavior.
func (s *Stub) Reset() {
	for i := range s.regs {
		s.regs[i] = 0
	}
	if sp, err := s.MemReadWord(resetVectorSP); err == nil {
		s.regs[regSP] = sp
	}
	if pc, err := s.MemReadWord(resetVectorPC); err == nil {
		s.regs[regPC] = pc
	}
	s.xpsr = 0
	s.ctrl = 0
	s.pending = s.pending[:0]
	s.LastServiced = 0
	s.LastServicedOK = false
	if s.Debug {
		log.Printf("arm: reset, SP=0x%08X PC=0x%08X", s.regs[regSP], s.regs[regPC])
	}
}

// Step services the highest-priority pending exception (if any), then
// advances PC by one Thumb halfword. No instruction is actually decoded.
func (s *Stub) Step() error {
	s.LastServicedOK = false
	if len(s.pending) > 0 {
		best := 0
		for i := 1; i < len(s.pending); i++ {
			if s.pending[i].priority < s.pending[best].priority {
				best = i
			}
		}
		ex := s.pending[best]
		s.pending = append(s.pending[:best], s.pending[best+1:]...)
		s.LastServiced = ex.number
		s.LastServicedOK = true
		if s.Debug {
			log.Printf("arm: servicing exception %d at priority 0x%02X", ex.number, ex.priority)
		}
	}
	s.regs[regPC] += 2
	return nil
}

// PendException marks exception n pending at its last-assigned priority
// (0xE0 — the nRF52832 default for a CPU implementing three priority
// bits — if none was ever set).
func (s *Stub) PendException(n uint16) {
	for _, p := range s.pending {
		if p.number == n {
			return
		}
	}
	prio, ok := s.priorities[n]
	if !ok {
		prio = 0xE0
	}
	s.pending = append(s.pending, pendingException{number: n, priority: prio})
}

// SetExceptionPriority assigns exception n's NVIC priority for future
// PendException calls.
func (s *Stub) SetExceptionPriority(n uint16, p uint8) {
	s.priorities[n] = p
}

// RegRead/RegWrite access the 16 general-purpose registers by index.
func (s *Stub) RegRead(n int) uint32 {
	if n < 0 || n >= numRegs {
		return 0
	}
	return s.regs[n]
}

func (s *Stub) RegWrite(n int, v uint32) {
	if n < 0 || n >= numRegs {
		return
	}
	s.regs[n] = v
}

// SysRegRead/SysRegWrite access the handful of special registers a stub
// needs to round-trip for tests; an unknown name reads back 0.
func (s *Stub) SysRegRead(name string) uint32 {
	switch name {
	case "xpsr":
		return s.xpsr
	case "control":
		return s.ctrl
	default:
		return 0
	}
}

func (s *Stub) SysRegWrite(name string, v uint32) {
	switch name {
	case "xpsr":
		s.xpsr = v
	case "control":
		s.ctrl = v
	}
}

func (s *Stub) MemReadWord(addr uint32) (uint32, error) {
	var v uint32
	err := s.mem.Access(addr, peripheral.ReadWord, &v)
	return v, err
}

func (s *Stub) MemReadHalf(addr uint32) (uint16, error) {
	var v uint32
	err := s.mem.Access(addr, peripheral.ReadHalf, &v)
	return uint16(v), err
}

func (s *Stub) MemReadByte(addr uint32) (uint8, error) {
	var v uint32
	err := s.mem.Access(addr, peripheral.ReadByte, &v)
	return uint8(v), err
}

func (s *Stub) MemWriteWord(addr uint32, v uint32) error {
	return s.mem.Access(addr, peripheral.WriteWord, &v)
}

func (s *Stub) MemWriteHalf(addr uint32, v uint16) error {
	vv := uint32(v)
	return s.mem.Access(addr, peripheral.WriteHalf, &vv)
}

func (s *Stub) MemWriteByte(addr uint32, v uint8) error {
	vv := uint32(v)
	return s.mem.Access(addr, peripheral.WriteByte, &vv)
}

func (s *Stub) String() string {
	return fmt.Sprintf("arm.Stub(pc=0x%08X, %d pending)", s.regs[regPC], len(s.pending))
}
