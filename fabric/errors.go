// Package fabric holds the small error taxonomy shared across the memory
// router, bus controllers, and slave devices (spec.md §7). Keeping these
// in their own package avoids every component importing every other
// component just to report a BusFault or a protocol violation.
package fabric

import "fmt"

// BusFault is returned by the memory router when an access targets an
// unmapped address, a misaligned word/half access, or a peripheral that
// returns Unhandled. memory.Router.Access returns it as a Go error. No
// component in this module converts it into an ARM bus-fault exception;
// an error returned by the CPU's Step is returned by soc.Step unchanged.
type BusFault struct {
	Address uint32
	Reason  string
}

func (e *BusFault) Error() string {
	return fmt.Sprintf("fabric: bus fault at 0x%08X: %s", e.Address, e.Reason)
}

// ProtocolViolation is the panic value for fatal, unmodeled-hardware
// conditions, raised by the SPI flash for an unsupported opcode, a
// command buffer overflow, an out-of-bounds address or a PP/SE without
// WEL set. spec.md §7
// treats these as an invariant that the outer emulation has diverged from
// real hardware, where continuing is meaningless — the idiomatic Go
// analogue of the original C's abort() is a panic, not a returned error.
type ProtocolViolation struct {
	Component string
	Reason    string
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("fabric: protocol violation in %s: %s", e.Component, e.Reason)
}

// Raise panics with a ProtocolViolation for component, formatted reason.
func Raise(component, format string, args ...any) {
	panic(&ProtocolViolation{Component: component, Reason: fmt.Sprintf(format, args...)})
}

// ErrNoSlaveSelected is returned by the SPI bus controller when a
// transfer is attempted with no (or more than one) slave selected; the
// I2C controller instead drops a transaction to an unknown address. Unlike
// BusFault and ProtocolViolation this is not fatal — spec.md §7 says a
// well-behaved master treats it as a stall.
var ErrNoSlaveSelected = fmt.Errorf("fabric: no slave selected")
