// Package soc assembles the fabric — memory router, pin matrix, PPI,
// SPI/I2C buses, ticker, the CLOCK/GPIO/RTC0 peripherals, the stub
// peripheral table, and the attached slave devices — into one aggregate
// and drives it through the deterministic step loop spec.md §4.J
// describes. Construction order follows spec.md §2's dependency table
// (pin -> memory -> peripheral -> PPI -> {bus, ticker} -> {flash,
// devices} -> step loop); the step loop's ordering itself
// (ticker -> SPI -> I2C -> CPU) is taken verbatim from spec.md §4.J,
// generalizing the teacher's VirtualMachine.Run (virtual_machine.go),
// which likewise owns every subsystem and drives one fixed per-iteration
// order across its VCPUs.
package soc

import (
	"log"

	"pinetime/arm"
	"pinetime/bus"
	"pinetime/devices"
	"pinetime/fabric"
	"pinetime/flash"
	"pinetime/memory"
	"pinetime/pin"
	"pinetime/ppi"
	"pinetime/ticker"
)

const (
	defaultExternalFlashSize       = 8 * 1024 * 1024
	defaultExternalFlashSectorSize = 4096
)

// SoC is the PineTime nRF52832 system aggregate. Every field is owned by
// SoC and lives until the SoC is dropped (spec.md §3's lifecycle note);
// Reset returns all of it to a defined state without reallocating.
type SoC struct {
	cfg Config

	Mem    *memory.Router
	Pins   *pin.Matrix
	PPI    *ppi.PPI
	Ticker *ticker.Ticker
	SPI    *bus.SPI
	I2C    *bus.I2C
	CPU    arm.CPU

	Clock *devices.Clock
	GPIO  *devices.GPIO
	RTC0  *devices.RTC0
	Flash *flash.Flash

	Touch         *devices.Touch
	Accelerometer *devices.Accelerometer
	HeartRate     *devices.HeartRate

	stubs []*devices.Stub

	sram []byte

	Debug bool
}

// New constructs a complete SoC from cfg. Every peripheral and memory
// region is wired and mapped before return; Step is immediately safe to
// call.
func New(cfg Config) (*SoC, error) {
	s := &SoC{cfg: cfg, Debug: cfg.Debug}

	s.Mem = memory.New()
	s.Pins = pin.New()
	s.Ticker = ticker.New()
	s.sram = make([]byte, SRAMSize)

	program := padTo(cfg.Program, FlashSize, 0xFF)
	if err := s.Mem.MapBacked(FlashBase, program, false); err != nil {
		return nil, err
	}
	if err := s.Mem.MapBacked(SRAMBase, s.sram, true); err != nil {
		return nil, err
	}
	if err := s.Mem.MapBacked(FICRBase, padTo(cfg.FICR, BlobWindow, 0x00), false); err != nil {
		return nil, err
	}
	if err := s.Mem.MapBacked(UICRBase, padTo(cfg.UICR, BlobWindow, 0xFF), false); err != nil {
		return nil, err
	}
	if err := s.Mem.MapBacked(SecretBase, padTo(cfg.Secret, BlobWindow, 0x00), false); err != nil {
		return nil, err
	}

	s.CPU = arm.NewStub(s.Mem)
	if stub, ok := s.CPU.(*arm.Stub); ok {
		stub.Debug = cfg.Debug
	}

	s.PPI = ppi.New(s.CPU.(ppi.ExceptionSink))
	if err := s.Mem.MapOp(PPIBase, 0x1000, s.PPI); err != nil {
		return nil, err
	}

	s.Clock = devices.NewClock(s.PPI)
	s.Clock.Debug = cfg.Debug
	if err := s.Mem.MapOp(devices.MMIOBase(devices.IDPowerClock), 0x1000, s.Clock); err != nil {
		return nil, err
	}

	s.GPIO = devices.NewGPIO(s.Pins)
	if err := s.Mem.MapOp(GPIOBase, 0x1000, s.GPIO); err != nil {
		return nil, err
	}

	s.RTC0 = devices.NewRTC0(s.PPI, s.Ticker)
	if err := s.Mem.MapOp(devices.MMIOBase(devices.IDRTC0), 0x1000, s.RTC0); err != nil {
		return nil, err
	}

	stubTable := cfg.Stubs
	if stubTable == nil {
		stubTable = DefaultStubTable
	}
	for _, e := range stubTable {
		stub := devices.NewStub(e.Name)
		s.stubs = append(s.stubs, stub)
		if err := s.Mem.MapOp(devices.MMIOBase(e.ID), 0x1000, stub); err != nil {
			return nil, err
		}
	}

	s.SPI = bus.NewSPI(s.Pins, s.sram)
	s.I2C = bus.NewI2C(s.sram)

	flashSize := cfg.ExternalFlashSize
	if flashSize == 0 {
		flashSize = defaultExternalFlashSize
	}
	sectorSize := cfg.ExternalFlashSectorSize
	if sectorSize == 0 {
		sectorSize = defaultExternalFlashSectorSize
	}
	s.Flash = flash.New(flashSize, sectorSize)
	s.SPI.AddSlave(SPIFlashCS, s.Flash)

	s.Touch = devices.NewTouch()
	s.Accelerometer = devices.NewAccelerometer()
	s.HeartRate = devices.NewHeartRate()
	s.I2C.AddSlave(devices.AddrTouch, s.Touch)
	s.I2C.AddSlave(devices.AddrAccel, s.Accelerometer)
	s.I2C.AddSlave(devices.AddrHeartRt, s.HeartRate)

	return s, nil
}

// ReadSRAM copies n bytes out of the shared SRAM buffer starting at
// addr, the same DMA target the SPI and I2C buses read from and write
// into. It exists for tests and a front end inspecting DMA results
// without going through the memory router's alignment rules.
func (s *SoC) ReadSRAM(addr uint32, n int) []byte {
	return append([]byte(nil), s.sram[addr:addr+uint32(n)]...)
}

// WriteSRAMByte writes one byte directly into the shared SRAM buffer,
// the same buffer QueueTx/StartRx/StartWrite/StartRead address into.
func (s *SoC) WriteSRAMByte(addr uint32, v byte) {
	s.sram[addr] = v
}

// Step performs one deterministic tick: ticker, then SPI, then I2C, then
// the CPU, per spec.md §4.J — peripherals advance before the CPU
// observes their results, preserving causality for tight polling loops.
// A stalled SPI/I2C transfer (fabric.ErrNoSlaveSelected, or an I2C
// transaction still stretching its clock) is not an error from Step's
// point of view: an SPI stall is logged under Debug, an I2C stall is not
// reported at all, and the loop continues.
func (s *SoC) Step() error {
	s.Ticker.Tick()

	if err := s.SPI.Step(); err != nil {
		if err == fabric.ErrNoSlaveSelected {
			if s.Debug {
				log.Printf("soc: SPI step stalled: %v", err)
			}
		} else {
			return err
		}
	}

	s.I2C.Step()

	return s.CPU.Step()
}

// Reset returns every component to its defined default state without
// reallocating (spec.md §3): op-region peripherals reset via
// Mem.ResetAll, the pin matrix and ticker reset directly, and the CPU
// re-loads its vector table — the flash image itself is untouched and
// re-presented verbatim, exactly as spec.md §4.B requires.
func (s *SoC) Reset() {
	s.Mem.ResetAll()
	s.Pins.Reset()
	s.Ticker.Reset()
	s.Flash.Reset()
	s.Touch.Reset()
	s.Accelerometer.Reset()
	s.HeartRate.Reset()
	s.CPU.Reset()
	if s.Debug {
		log.Println("soc: reset complete")
	}
}
