// Package bus implements the SPI and I2C controllers that marshal bytes
// between master peripherals and pluggable slave devices (spec.md §4.E,
// §4.F). Slave selection — CS pin for SPI, address phase for I2C — and
// the queue/step transfer loop are the Go generalization of the teacher's
// devices.IOBus (devices/iobus.go): a small registry walked to find the
// device that owns the current transaction, plus a single dispatch entry
// point. The whole-frame Write/Read slave contract mirrors
// original_source's spi_slave_t exactly (spi_write_f/spi_read_f take the
// entire buffer in one call, not one byte at a time).
package bus

import (
	"pinetime/fabric"
	"pinetime/pin"
)

// Slave is a device addressable on the SPI bus by chip-select pin.
type Slave interface {
	// Write delivers the accumulated transmit bytes for the current
	// frame in one call.
	Write(data []byte)
	// Read returns up to n bytes in response to the current frame.
	Read(n int) []byte
	// CSChanged notifies the slave that it has been selected or
	// deselected.
	CSChanged(selected bool)
}

type spiSlaveEntry struct {
	csPin uint8
	slave Slave
}

// SPI is the SPI bus controller: one master peripheral's tx/rx requests
// shuttled to whichever slave's CS pin currently reads low.
type SPI struct {
	pins *pin.Matrix
	ram  []byte

	slaves []spiSlaveEntry
	active int // index into slaves, or -1 if none selected

	txQueue []byte
	rxAddr  uint32
	rxLen   uint32
}

// NewSPI creates an SPI controller over pins (for CS observation) and ram
// (the shared SRAM buffer DMA reads/writes target).
func NewSPI(pins *pin.Matrix, ram []byte) *SPI {
	return &SPI{pins: pins, ram: ram, active: -1}
}

// AddSlave registers a slave on csPin. Multiple slaves may share a CS pin
// (spec.md §8 scenario 5's deliberate misconfiguration); selection then
// yields NoSlaveSelected rather than an error at registration time.
func (s *SPI) AddSlave(csPin uint8, slave Slave) {
	s.slaves = append(s.slaves, spiSlaveEntry{csPin: csPin, slave: slave})
	s.pins.Subscribe(csPin, func(p uint8, st pin.State) { s.recomputeSelection() })
	s.recomputeSelection()
}

// recomputeSelection finds the single slave (if any) whose CS pin reads
// low, notifying CSChanged on the outgoing and incoming slave when the
// selection actually changes.
func (s *SPI) recomputeSelection() {
	lowCount := 0
	newActive := -1
	for i, e := range s.slaves {
		if s.pins.IsLow(e.csPin) {
			lowCount++
			newActive = i
		}
	}
	if lowCount != 1 {
		newActive = -1
	}
	if newActive == s.active {
		return
	}
	if s.active >= 0 && s.active < len(s.slaves) {
		s.slaves[s.active].slave.CSChanged(false)
	}
	s.active = newActive
	if s.active >= 0 {
		s.slaves[s.active].slave.CSChanged(true)
	}
}

// QueueTx reads size bytes from ram starting at address and appends them
// to the frame's accumulated transmit buffer.
func (s *SPI) QueueTx(address, size uint32) {
	s.txQueue = append(s.txQueue, s.ram[address:address+size]...)
}

// StartRx directs the next Step's received bytes to be written into ram
// starting at address.
func (s *SPI) StartRx(address, size uint32) {
	s.rxAddr = address
	s.rxLen = size
}

// Step delivers the accumulated transmit queue and/or requested receive
// length to the selected slave in one call each, then clears both. It
// returns fabric.ErrNoSlaveSelected if zero or more than one CS pin reads
// low and there was queued work to perform; with nothing queued, Step is
// a no-op regardless of selection.
func (s *SPI) Step() error {
	if len(s.txQueue) == 0 && s.rxLen == 0 {
		return nil
	}
	if s.active < 0 {
		s.txQueue = s.txQueue[:0]
		s.rxLen = 0
		return fabric.ErrNoSlaveSelected
	}
	slave := s.slaves[s.active].slave

	if len(s.txQueue) > 0 {
		slave.Write(s.txQueue)
		s.txQueue = s.txQueue[:0]
	}
	if s.rxLen > 0 {
		got := slave.Read(int(s.rxLen))
		copy(s.ram[s.rxAddr:int(s.rxAddr)+len(got)], got)
		s.rxLen = 0
	}
	return nil
}

// ActiveSlave reports the currently selected slave's index, or false if
// none (or more than one) is selected.
func (s *SPI) ActiveSlave() (int, bool) {
	if s.active < 0 {
		return 0, false
	}
	return s.active, true
}
