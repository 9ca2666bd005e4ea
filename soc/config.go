package soc

// Memory map constants, per spec.md §6.
const (
	FlashBase   = 0x00000000
	FlashSize   = 0x00080000 // 512 KiB internal program flash
	SRAMBase    = 0x20000000
	SRAMSize    = 0x00010000 // 64 KiB
	FICRBase    = 0x10000000
	UICRBase    = 0x10001000
	SecretBase  = 0xF0000000
	BlobWindow  = 0x1000 // FICR/UICR/secret are each one 4 KiB window
	SPIFlashCS  = 5       // chip-select pin the external SPI-NOR flash is wired to, matching spec.md §8 scenario 3
)

// Config is the SoC constructor's input, the same "plain struct passed
// by value" shape as the teacher's
// NewVirtualMachine(memSize uint64, numVCPUs int, enableDebug bool) — no
// config-file parser, since the front end (out of scope here) owns
// argument parsing.
type Config struct {
	// Program is the image loaded at FlashBase, padded with 0xFF to
	// FlashSize (spec.md §6). A nil or short Program is accepted —
	// scenario 1's cold boot uses an empty program.
	Program []byte

	// FICR, UICR, Secret are opaque read-only blobs captured from a real
	// device (spec.md §6); each is padded/truncated to exactly
	// BlobWindow bytes. Nil is accepted: FICR and Secret then read as all
	// 0x00, UICR as all 0xFF.
	FICR, UICR, Secret []byte

	// ExternalFlashSize and ExternalFlashSectorSize size the SPI-NOR
	// flash slave attached at SPIFlashCS. Defaults (8 MiB / 4 KiB
	// sectors) are used when either is zero, matching spec.md §8
	// scenario 3.
	ExternalFlashSize       uint32
	ExternalFlashSectorSize uint32

	// Stubs overrides DefaultStubTable; nil selects the default.
	Stubs []StubEntry

	// Debug gates log.Printf diagnostics across the SoC and its
	// peripherals, the same Debug-bool-gates-log.Printf pattern as the
	// teacher's VirtualMachine.Debug (virtual_machine.go, vcpu.go).
	Debug bool
}

func padTo(data []byte, size int, fill byte) []byte {
	out := make([]byte, size)
	for i := range out {
		out[i] = fill
	}
	copy(out, data)
	return out
}
