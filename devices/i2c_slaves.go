package devices

// I2C addresses PineTime's firmware talks to, per original_source's
// pinetime.c wiring (spec.md §6, SPEC_FULL.md §[NEW]L).
const (
	AddrTouch   = 0x15 // cst816s capacitive touch controller
	AddrAccel   = 0x18 // bma425 accelerometer
	AddrHeartRt = 0x44 // hrs3300 heart-rate sensor
)

// registerDevice is the shared shape behind the three I2C slaves below:
// a byte-addressed register file where the first byte of a write
// transaction selects the register pointer (the common I2C
// register-pointer convention real sensor datasheets use), subsequent
// write bytes store starting there, and a read returns bytes starting
// from the pointer without requiring a fresh write first. This is the
// Go generalization of the teacher's devices.KeyboardDevice
// (devices/keyboard.go) — its simplest buffered device, a small byte
// buffer drained by sequential reads — widened from one fixed buffer to
// an addressable register file since these sensors are polled by
// register, not read as a single stream.
type registerDevice struct {
	name string
	regs [256]byte
	ptr  uint8
}

func (d *registerDevice) Write(data []byte) {
	if len(data) == 0 {
		return
	}
	d.ptr = data[0]
	for _, b := range data[1:] {
		d.regs[d.ptr] = b
		d.ptr++
	}
}

func (d *registerDevice) Read(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = d.regs[d.ptr]
		d.ptr++
	}
	return out
}

// SetRegister lets the front end (or a test) poke a sensor reading into
// the register file, e.g. a simulated touch coordinate or heart rate
// sample, without going through the I2C bus itself.
func (d *registerDevice) SetRegister(offset uint8, v byte) { d.regs[offset] = v }

// Reset returns the register file to its post-construction defaults
// (chip ID byte rewritten to the chip ID, everything else zeroed) and rewinds the
// pointer, matching spec.md §3's non-reallocating reset discipline.
func (d *registerDevice) reset(chipIDReg uint8, chipID byte) {
	for i := range d.regs {
		d.regs[i] = 0
	}
	d.regs[chipIDReg] = chipID
	d.ptr = 0
}

// Touch implements the cst816s capacitive touch controller's minimum
// viable register surface: a chip-ID register and a gesture/coordinate
// data register a test or front end can set via SetRegister.
type Touch struct{ registerDevice }

const touchChipIDReg = 0xA7
const touchChipID = 0xB5

// NewTouch creates a cst816s-shaped I2C slave.
func NewTouch() *Touch {
	t := &Touch{}
	t.Reset()
	return t
}

// Reset returns the device to its chip-ID-only default state.
func (t *Touch) Reset() { t.reset(touchChipIDReg, touchChipID) }

// Accelerometer implements the bma425's minimum viable register surface:
// a chip-ID register and X/Y/Z data registers.
type Accelerometer struct{ registerDevice }

const accelChipIDReg = 0x00
const accelChipID = 0x13

// NewAccelerometer creates a bma425-shaped I2C slave.
func NewAccelerometer() *Accelerometer {
	a := &Accelerometer{}
	a.Reset()
	return a
}

// Reset returns the device to its chip-ID-only default state.
func (a *Accelerometer) Reset() { a.reset(accelChipIDReg, accelChipID) }

// HeartRate implements the hrs3300's minimum viable register surface: a
// chip-ID/part-id register and a raw PPG sample register.
type HeartRate struct{ registerDevice }

const hrsChipIDReg = 0x00
const hrsChipID = 0x21

// NewHeartRate creates an hrs3300-shaped I2C slave.
func NewHeartRate() *HeartRate {
	h := &HeartRate{}
	h.Reset()
	return h
}

// Reset returns the device to its chip-ID-only default state.
func (h *HeartRate) Reset() { h.reset(hrsChipIDReg, hrsChipID) }
