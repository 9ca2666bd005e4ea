package soc

import "pinetime/devices"

// PPIBase is the PPI's own fixed 4 KiB register window, per the
// nRF52832 peripheral address map (it is not instance-id addressed like
// the other peripherals — spec.md §4.D gives its register offsets but
// not its base; this repo fixes it at the real silicon's address so a
// program image built against a real nRF52832 linker script still
// resolves PPI accesses correctly).
const PPIBase = 0x4001F000

// GPIOBase is the single GPIO port's fixed address (spec.md §6).
const GPIOBase = 0x50000000

// StubEntry names one minimal stub peripheral's instance id and label.
// SoC.New registers one devices.Stub per entry so every address in that
// peripheral's 4 KiB window is handled (Unhandled only for genuinely
// unmodeled registers, never for the whole window), matching
// SPEC_FULL.md §[NEW]K's "keep the memory map fully populated" goal.
type StubEntry struct {
	ID   uint8
	Name string
}

// DefaultStubTable is the nRF52832 peripheral set this repo does not
// build out to full register semantics, per original_source's
// src/nrf52832.c peripheral enumeration (SPEC_FULL.md §[NEW]K). CLOCK
// (id 0), RTC0 (id 11), and GPIO occupy their own addresses outside this
// table with full semantics; everything else here gets reset + INTEN +
// UNHANDLED-otherwise coverage.
var DefaultStubTable = []StubEntry{
	{devices.IDRadio, "RADIO"},
	{devices.IDSPIM0TWIM0, "SPIM0_TWIM0"},
	{devices.IDSPIM1TWIM1, "SPIM1_TWIM1"},
	{devices.IDGPIOTE, "GPIOTE"},
	{devices.IDSAADC, "SAADC"},
	{devices.IDTimer0, "TIMER0"},
	{devices.IDTimer1, "TIMER1"},
	{devices.IDTimer2, "TIMER2"},
	{devices.IDTemp, "TEMP"},
	{devices.IDRNG, "RNG"},
	{devices.IDCCMAAR, "CCM_AAR"},
	{devices.IDWDT, "WDT"},
	{devices.IDRTC1, "RTC1"},
	{devices.IDComp, "COMP_LPCOMP"},
	{devices.IDSPIM2, "SPIM2"},
	{devices.IDRTC2, "RTC2"},
	{devices.IDTimer3, "TIMER3"},
	{devices.IDTimer4, "TIMER4"},
}
