// Package arm defines the consumed interface to the ARM Cortex-M4
// instruction decoder/executor (spec.md §1, §6): the core fabric drives
// memory, PPI, and bus state but never decodes Thumb-2 itself, the same
// boundary the teacher draws around KVM — core_engine never implements
// x86 instruction execution, it calls thin wrapper functions in
// hypervisor/ (DoKVMCreateVCPU, DoKVMGetSregs, ...) into a collaborator
// it does not own. CPU is that same kind of seam for this repo, sized to
// spec.md §6's consumed-interface list.
package arm

// CPU is the external collaborator the SoC step loop and PPI drive.
// Nothing in this package decodes an instruction; a real implementation
// lives outside this module's scope (spec.md §1's Out of scope).
type CPU interface {
	// MemReadWord/Half/Byte and MemWriteWord/Half/Byte route through the
	// fabric's memory router, not a bus owned by the CPU itself — the
	// CPU calls back into the router for every load/store.
	MemReadWord(addr uint32) (uint32, error)
	MemReadHalf(addr uint32) (uint16, error)
	MemReadByte(addr uint32) (uint8, error)
	MemWriteWord(addr uint32, v uint32) error
	MemWriteHalf(addr uint32, v uint16) error
	MemWriteByte(addr uint32, v uint8) error

	// RegRead/RegWrite access the 16 general-purpose Cortex-M registers
	// (r0-r12, sp, lr, pc).
	RegRead(n int) uint32
	RegWrite(n int, v uint32)

	// SysRegRead/SysRegWrite access special registers (xPSR, PRIMASK,
	// CONTROL, ...).
	SysRegRead(name string) uint32
	SysRegWrite(name string, v uint32)

	// PendException marks exception number n pending; it takes effect at
	// the next Step boundary rather than interrupting the instruction in
	// flight (spec.md §5's ordering guarantee 2).
	PendException(n uint16)
	// SetExceptionPriority assigns exception n's NVIC priority.
	SetExceptionPriority(n uint16, p uint8)

	// Reset returns the CPU to its post-reset state: PC loaded from the
	// vector table, registers zeroed, no exception pending.
	Reset()
	// Step executes (or, for a stub, simulates executing) one
	// instruction, servicing any pending exception first.
	Step() error
}
