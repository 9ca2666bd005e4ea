package devices

import "pinetime/peripheral"

// Stub registers offsets this repo's minimal peripherals handle: the two
// interrupt-enable registers every peripheral exposes (spec.md §4.C) and
// nothing else. Every other offset is Unhandled, which keeps the
// peripheral's 4 KiB window fully populated (no address in it is
// unmapped) without claiming any device-specific register semantics this
// repo hasn't modeled.
const (
	stubINTENSET = 0x304
	stubINTENCLR = 0x308
)

// Stub is a minimal peripheral implementing only reset and INTEN, for the
// nRF52832 peripherals spec.md leaves as "follows the same shape" — the
// entries of soc.DefaultStubTable, including every SPIM/TWIM instance.
// It keeps the memory map populated: INTENSET/INTENCLR accesses succeed,
// while an access to any other offset returns Unhandled and so becomes
// a bus fault at the router. Its shape is grounded on
// original_source's dcb.c: a tiny struct, a reset default, a couple of
// handled offsets, UNHANDLED otherwise.
type Stub struct {
	Name  string
	inten uint32
}

// NewStub creates a minimal peripheral identified by name (used only for
// String/debugging; it claims no instance id of its own in the PPI since
// it registers no task handler).
func NewStub(name string) *Stub {
	return &Stub{Name: name}
}

// Operation implements peripheral.Peripheral.
func (s *Stub) Operation(offset uint32, value *uint32, op peripheral.OpKind) peripheral.Result {
	if op == peripheral.Reset {
		s.inten = 0
		return peripheral.OK
	}
	if !peripheral.OnlyWord(op) {
		return peripheral.Unhandled
	}
	switch offset {
	case stubINTENSET:
		if op.IsWrite() {
			peripheral.INTENSET(&s.inten, *value)
		} else {
			*value = s.inten
		}
		return peripheral.OK
	case stubINTENCLR:
		if op.IsWrite() {
			peripheral.INTENCLR(&s.inten, *value)
		} else {
			*value = s.inten
		}
		return peripheral.OK
	}
	return peripheral.Unhandled
}

func (s *Stub) String() string { return "devices.Stub(" + s.Name + ")" }
