// Package memory implements the fabric's memory region router (spec.md
// §4.B): a singly linked list of non-overlapping address ranges, each
// either a backing byte buffer or a peripheral operation callback, walked
// linearly to dispatch a CPU access. The linked-list shape is a direct
// port of the teacher's devices.IOBus (devices/iobus.go), generalized
// from a map keyed by 16-bit port to a list of ranges keyed by 32-bit
// base+length, because spec.md §9 rules out a hash map for range queries.
package memory

import (
	"fmt"
	"unsafe"

	"pinetime/fabric"
	"pinetime/peripheral"

	"golang.org/x/exp/constraints"
)

// region is one entry in the router's linked list. Exactly one of buf or
// op is set.
type region struct {
	base, length uint32
	buf          []byte
	writable     bool
	op           peripheral.Peripheral
	next         *region
}

func (r *region) contains(addr uint32) bool {
	return addr >= r.base && addr < r.base+r.length
}

// Router dispatches word/half/byte accesses to the region that contains
// the target address.
type Router struct {
	head *region
	tail *region
}

// New creates an empty router.
func New() *Router {
	return &Router{}
}

func (r *Router) overlaps(base, length uint32) bool {
	end := base + length
	for cur := r.head; cur != nil; cur = cur.next {
		curEnd := cur.base + cur.length
		if base < curEnd && cur.base < end {
			return true
		}
	}
	return false
}

func (r *Router) append(reg *region) {
	if r.head == nil {
		r.head = reg
		r.tail = reg
		return
	}
	r.tail.next = reg
	r.tail = reg
}

// MapBacked registers a byte-buffer-backed region, e.g. flash or SRAM.
// Regions may never overlap; MapBacked refuses to register one that does.
func (r *Router) MapBacked(base uint32, buf []byte, writable bool) error {
	length := uint32(len(buf))
	if r.overlaps(base, length) {
		return fmt.Errorf("memory: region [0x%08X, 0x%08X) overlaps an existing region", base, base+length)
	}
	r.append(&region{base: base, length: length, buf: buf, writable: writable})
	return nil
}

// MapOp registers an operation-callback region, e.g. a peripheral's 4 KiB
// MMIO window.
func (r *Router) MapOp(base, length uint32, op peripheral.Peripheral) error {
	if r.overlaps(base, length) {
		return fmt.Errorf("memory: region [0x%08X, 0x%08X) overlaps an existing region", base, base+length)
	}
	r.append(&region{base: base, length: length, op: op})
	return nil
}

// checkAlign reports whether addr satisfies the alignment required for a
// T-sized access: word accesses must be 4-aligned, half 2-aligned, byte
// any. A single generic helper over the unsigned access-size types avoids
// hand-duplicating the same modulus check per width.
func checkAlign[T constraints.Unsigned]() func(addr uint32) bool {
	var zero T
	align := uint32(unsafe.Sizeof(zero))
	return func(addr uint32) bool {
		if align <= 1 {
			return true
		}
		return addr%align == 0
	}
}

// Access dispatches a single operation to the region containing address,
// returning BusFault for unmapped addresses, misaligned word/half
// accesses, or a peripheral returning Unhandled.
func (r *Router) Access(address uint32, op peripheral.OpKind, value *uint32) error {
	if !alignedFor(op, address) {
		return &fabric.BusFault{Address: address, Reason: "misaligned access"}
	}

	for cur := r.head; cur != nil; cur = cur.next {
		if !cur.contains(address) {
			continue
		}
		if cur.op != nil {
			res := cur.op.Operation(address-cur.base, value, op)
			if res == peripheral.Unhandled {
				return &fabric.BusFault{Address: address, Reason: "peripheral returned UNHANDLED"}
			}
			return nil
		}
		return accessBacked(cur, address, op, value)
	}
	return &fabric.BusFault{Address: address, Reason: "unmapped address"}
}

var (
	wordAligned = checkAlign[uint32]()
	halfAligned = checkAlign[uint16]()
	byteAligned = checkAlign[uint8]()
)

func alignedFor(op peripheral.OpKind, address uint32) bool {
	switch op.Size() {
	case 4:
		return wordAligned(address)
	case 2:
		return halfAligned(address)
	default:
		return byteAligned(address)
	}
}

func accessBacked(r *region, address uint32, op peripheral.OpKind, value *uint32) error {
	off := address - r.base
	size := uint32(op.Size())
	if size == 0 || off+size > r.length {
		return &fabric.BusFault{Address: address, Reason: "access exceeds region bounds"}
	}
	if op.IsWrite() {
		if !r.writable {
			return &fabric.BusFault{Address: address, Reason: "write to read-only region"}
		}
		v := *value
		for i := uint32(0); i < size; i++ {
			r.buf[off+i] = byte(v >> (8 * i))
		}
		return nil
	}
	var v uint32
	for i := uint32(0); i < size; i++ {
		v |= uint32(r.buf[off+i]) << (8 * i)
	}
	*value = v
	return nil
}

// ResetAll invokes every operation-backed region with op_kind = Reset.
// Backed (byte-buffer) regions are untouched, matching spec.md §4.B —
// the flash image in program ROM must be re-presented verbatim.
func (r *Router) ResetAll() {
	var dummy uint32
	for cur := r.head; cur != nil; cur = cur.next {
		if cur.op != nil {
			cur.op.Operation(0, &dummy, peripheral.Reset)
		}
	}
}
