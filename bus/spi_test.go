package bus_test

import (
	"errors"
	"testing"

	"pinetime/bus"
	"pinetime/fabric"
	"pinetime/pin"
)

type recordingSlave struct {
	selected   bool
	selCount   int
	lastWrite  []byte
	readReturn []byte
}

func (s *recordingSlave) Write(data []byte) {
	s.lastWrite = append([]byte(nil), data...)
}

func (s *recordingSlave) Read(n int) []byte {
	if n > len(s.readReturn) {
		n = len(s.readReturn)
	}
	return s.readReturn[:n]
}

func (s *recordingSlave) CSChanged(selected bool) {
	s.selected = selected
	s.selCount++
}

func TestSPISelectsSlaveOnCSLow(t *testing.T) {
	pins := pin.New()
	ram := make([]byte, 0x100)
	b := bus.NewSPI(pins, ram)

	slave := &recordingSlave{}
	b.AddSlave(5, slave)
	pins.Set(5, pin.High)

	pins.Set(5, pin.Low)
	if !slave.selected {
		t.Fatalf("expected slave selected once CS pin 5 goes low")
	}
	if _, ok := b.ActiveSlave(); !ok {
		t.Fatalf("expected an active slave")
	}
}

func TestSPIWriteReadRoundTrip(t *testing.T) {
	pins := pin.New()
	ram := make([]byte, 0x100)
	ram[0x10] = 0xDE
	ram[0x11] = 0xAD
	b := bus.NewSPI(pins, ram)

	slave := &recordingSlave{readReturn: []byte{0xBE, 0xEF}}
	b.AddSlave(5, slave)
	pins.Set(5, pin.High)
	pins.Set(5, pin.Low)

	b.QueueTx(0x10, 2)
	b.StartRx(0x20, 2)
	if err := b.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(slave.lastWrite) != 2 || slave.lastWrite[0] != 0xDE || slave.lastWrite[1] != 0xAD {
		t.Fatalf("expected slave to see the whole write frame, got %v", slave.lastWrite)
	}
	if ram[0x20] != 0xBE || ram[0x21] != 0xEF {
		t.Fatalf("expected rx bytes [BE EF] written to ram, got %v", ram[0x20:0x22])
	}
}

func TestSPINoSlaveSelectedWhenCSHigh(t *testing.T) {
	pins := pin.New()
	ram := make([]byte, 0x100)
	b := bus.NewSPI(pins, ram)
	slave := &recordingSlave{}
	b.AddSlave(5, slave)
	pins.Set(5, pin.High)

	b.QueueTx(0, 1)
	b.StartRx(0, 1)
	err := b.Step()
	if !errors.Is(err, fabric.ErrNoSlaveSelected) {
		t.Fatalf("expected ErrNoSlaveSelected, got %v", err)
	}
}

func TestSPIDoubleSelectedYieldsNoSlave(t *testing.T) {
	pins := pin.New()
	ram := make([]byte, 0x100)
	b := bus.NewSPI(pins, ram)

	a := &recordingSlave{}
	c := &recordingSlave{}
	pins.Set(5, pin.High)
	b.AddSlave(5, a)
	b.AddSlave(5, c)

	pins.Set(5, pin.Low)

	if _, ok := b.ActiveSlave(); ok {
		t.Fatalf("expected no active slave when two slaves share CS pin 5")
	}
	if a.selected || c.selected {
		t.Fatalf("expected neither slave's CSChanged(true) called when both share the pin")
	}

	b.QueueTx(0, 1)
	b.StartRx(0, 1)
	err := b.Step()
	if !errors.Is(err, fabric.ErrNoSlaveSelected) {
		t.Fatalf("expected ErrNoSlaveSelected for doubly-selected CS pin, got %v", err)
	}
	if a.lastWrite != nil || c.lastWrite != nil {
		t.Fatalf("expected no slave callback invoked")
	}
}

func TestSPICSChangedFiresOnDeselect(t *testing.T) {
	pins := pin.New()
	ram := make([]byte, 0x10)
	b := bus.NewSPI(pins, ram)
	slave := &recordingSlave{}
	// Drive CS high before registering: a floating pin reads low, so
	// registering on it would select the slave immediately.
	pins.Set(5, pin.High)
	b.AddSlave(5, slave)

	pins.Set(5, pin.Low)
	pins.Set(5, pin.High)

	if slave.selected {
		t.Fatalf("expected slave deselected after CS pin raised")
	}
	if slave.selCount != 2 {
		t.Fatalf("expected CSChanged called twice (select, deselect), got %d", slave.selCount)
	}
}
