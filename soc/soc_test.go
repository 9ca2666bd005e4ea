package soc_test

import (
	"testing"

	"pinetime/arm"
	"pinetime/peripheral"
	"pinetime/pin"
	"pinetime/soc"
)

// Scenario 1: cold boot. Construct SoC with an empty program, Step 1000
// times. No panic fires; the stub CPU's PC advances; no bus faults.
func TestColdBoot(t *testing.T) {
	s, err := soc.New(soc.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stub := s.CPU.(*arm.Stub)
	startPC := stub.RegRead(15)

	for i := 0; i < 1000; i++ {
		if err := s.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	if stub.RegRead(15) == startPC {
		t.Fatalf("PC did not advance over 1000 steps")
	}
}

// Scenario 2: LFCLK start via PPI. Channel 0 wires CLOCK's
// EVENTS_LFCLKSTARTED to RTC0's TASKS_START; writing
// TASKS_LFCLKSTART=1 should start LFCLK and, through the channel,
// RTC0's counter.
func TestLFCLKStartViaPPI(t *testing.T) {
	s, err := soc.New(soc.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	clockBase := addrOf(devicesCLOCKID())
	rtcBase := addrOf(devicesRTC0ID())

	eepAddr := clockBase | 0x104
	tepAddr := rtcBase | 0x000
	if res := s.PPI.Operation(0x510, &eepAddr, peripheral.WriteWord); res != peripheral.OK {
		t.Fatalf("write EEP: %v", res)
	}
	if res := s.PPI.Operation(0x514, &tepAddr, peripheral.WriteWord); res != peripheral.OK {
		t.Fatalf("write TEP: %v", res)
	}
	enable := uint32(1)
	if res := s.PPI.Operation(0x504, &enable, peripheral.WriteWord); res != peripheral.OK {
		t.Fatalf("enable channel 0: %v", res)
	}

	start := uint32(1)
	if res := s.Clock.Operation(0x008, &start, peripheral.WriteWord); res != peripheral.OK {
		t.Fatalf("TASKS_LFCLKSTART: %v", res)
	}

	var stat uint32
	s.Clock.Operation(0x418, &stat, peripheral.ReadWord)
	if stat != 0x10001 {
		t.Fatalf("LFCLKSTAT = 0x%X, want 0x10001", stat)
	}
	var ev uint32
	s.Clock.Operation(0x104, &ev, peripheral.ReadWord)
	if ev != 1 {
		t.Fatalf("EVENTS_LFCLKSTARTED = %d, want 1", ev)
	}

	for i := 0; i < 5; i++ {
		s.Step()
	}
	if s.RTC0.Counter() == 0 {
		t.Fatalf("RTC0 did not start counting after PPI-dispatched TASKS_START")
	}
}

// Scenario 3: flash WREN+PP+READ through the SPI bus's chip-select pin.
func TestFlashWrenPPRead(t *testing.T) {
	s, err := soc.New(soc.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	lowerCS(s)
	writeSPIFrame(t, s, []byte{0x06})
	raiseCS(s)

	lowerCS(s)
	writeSPIFrame(t, s, []byte{0x02, 0x00, 0x10, 0x00, 0xDE, 0xAD, 0xBE, 0xEF})
	raiseCS(s)

	if s.Flash.WIP() {
		t.Fatalf("WIP should be 0 after raising CS")
	}

	lowerCS(s)
	writeSPIFrame(t, s, []byte{0x03, 0x00, 0x10, 0x00})
	copyToSRAM(s, 0x1000, make([]byte, 4))
	s.SPI.StartRx(0x1000, 4)
	if err := s.SPI.Step(); err != nil {
		t.Fatalf("read step: %v", err)
	}
	raiseCS(s)

	got := s.ReadSRAM(0x1000, 4)
	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %x, want %x", got, want)
		}
	}
}

// Scenario 4: sector erase boundary.
func TestSectorEraseBoundary(t *testing.T) {
	s, err := soc.New(soc.Config{ExternalFlashSize: 8 * 1024 * 1024, ExternalFlashSectorSize: 0x1000})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	lowerCS(s)
	writeSPIFrame(t, s, []byte{0x06})
	raiseCS(s)
	lowerCS(s)
	writeSPIFrame(t, s, []byte{0x02, 0x00, 0x20, 0x00, 0x01})
	raiseCS(s)

	lowerCS(s)
	writeSPIFrame(t, s, []byte{0x06})
	raiseCS(s)
	lowerCS(s)
	writeSPIFrame(t, s, []byte{0x20, 0x00, 0x10, 0x00}) // SE 0x1000
	raiseCS(s)

	lowerCS(s)
	writeSPIFrame(t, s, []byte{0x03, 0x00, 0x20, 0x00})
	copyToSRAM(s, 0x1000, make([]byte, 1))
	s.SPI.StartRx(0x1000, 1)
	s.SPI.Step()
	raiseCS(s)
	if got := s.ReadSRAM(0x1000, 1); got[0] != 0x01 {
		t.Fatalf("0x2000 byte = 0x%X, want 0x01 (unaffected by SE 0x1000)", got[0])
	}

	lowerCS(s)
	writeSPIFrame(t, s, []byte{0x06})
	raiseCS(s)
	lowerCS(s)
	writeSPIFrame(t, s, []byte{0x20, 0x00, 0x20, 0x00}) // SE 0x2000
	raiseCS(s)

	lowerCS(s)
	writeSPIFrame(t, s, []byte{0x03, 0x00, 0x20, 0x00})
	copyToSRAM(s, 0x1000, make([]byte, 0x10))
	s.SPI.StartRx(0x1000, 0x10)
	s.SPI.Step()
	raiseCS(s)
	got := s.ReadSRAM(0x1000, 0x10)
	for _, b := range got {
		if b != 0xFF {
			t.Fatalf("byte in erased sector = 0x%X, want 0xFF", b)
		}
	}
}

// Scenario 5: two slaves sharing a CS pin stall the SPI bus.
func TestDoubleSelectedSPIStalls(t *testing.T) {
	s, err := soc.New(soc.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	second := struct {
		writes int
	}{}
	s.SPI.AddSlave(soc.SPIFlashCS, recordingSlave{&second.writes})

	lowerCS(s)
	copyToSRAM(s, 0x2000, []byte{0x9F})
	s.SPI.QueueTx(0x2000, 1)
	err = s.SPI.Step()
	if err == nil {
		t.Fatalf("expected NoSlaveSelected with two slaves on one CS pin")
	}
	if second.writes != 0 {
		t.Fatalf("second slave should not have been written to")
	}
}

type recordingSlave struct{ writes *int }

func (r recordingSlave) Write(data []byte) { *r.writes++ }
func (r recordingSlave) Read(n int) []byte { return make([]byte, n) }
func (r recordingSlave) CSChanged(bool)    {}

// Scenario 6: interrupt pending via PPI services the CLOCK IRQ at its
// default priority on the next CPU step.
func TestInterruptPendingViaPPI(t *testing.T) {
	s, err := soc.New(soc.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mask := uint32(1 << 1) // bit matching EVENTS_LFCLKSTARTED's index
	s.Clock.Operation(0x304, &mask, peripheral.WriteWord)

	start := uint32(1)
	s.Clock.Operation(0x008, &start, peripheral.WriteWord)

	stub := s.CPU.(*arm.Stub)
	stub.Step()
	if !stub.LastServicedOK || stub.LastServiced != devicesCLOCKID() {
		t.Fatalf("expected CLOCK IRQ (id %d) serviced, got %d (ok=%v)", devicesCLOCKID(), stub.LastServiced, stub.LastServicedOK)
	}
}

func TestResetReturnsToDefaultsButKeepsFlashImage(t *testing.T) {
	s, err := soc.New(soc.Config{Program: []byte{0x11, 0x22, 0x33, 0x44}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	mask := uint32(1)
	s.Clock.Operation(0x304, &mask, peripheral.WriteWord)

	s.Reset()

	var inten uint32
	s.Clock.Operation(0x304, &inten, peripheral.ReadWord)
	if inten != 0 {
		t.Fatalf("INTEN after reset = 0x%X, want 0", inten)
	}

	word, err := s.CPU.MemReadWord(soc.FlashBase)
	if err != nil {
		t.Fatalf("read flash after reset: %v", err)
	}
	if word != 0x44332211 {
		t.Fatalf("flash word 0 after reset = 0x%X, want 0x44332211", word)
	}
}

// --- helpers ---

func devicesCLOCKID() uint16 { return 0 }
func devicesRTC0ID() uint16  { return 11 }

func addrOf(id uint16) uint32 {
	return 0x40000000 | (uint32(id) << 12)
}

func lowerCS(s *soc.SoC) { s.Pins.Set(soc.SPIFlashCS, pin.Low) }
func raiseCS(s *soc.SoC) { s.Pins.Set(soc.SPIFlashCS, pin.High) }

func copyToSRAM(s *soc.SoC, addr uint32, data []byte) {
	for i, b := range data {
		s.WriteSRAMByte(addr+uint32(i), b)
	}
}

func writeSPIFrame(t *testing.T, s *soc.SoC, frame []byte) {
	t.Helper()
	base := uint32(0x3000)
	copyToSRAM(s, base, frame)
	s.SPI.QueueTx(base, uint32(len(frame)))
	if err := s.SPI.Step(); err != nil {
		t.Fatalf("SPI step: %v", err)
	}
}
