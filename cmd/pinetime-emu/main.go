// Command pinetime-emu drives the PineTime fabric headlessly: it loads a
// program image, builds an SoC, and loops Step until the image runs out
// of budget or the process is interrupted. It mirrors the shape (not the
// KVM specifics) of the teacher's boot-binary loading logic in
// virtual_machine.go's NewVirtualMachine, which tries one hardcoded path
// then a fallback before giving up — this command does the analogous
// os.ReadFile-or-fail, since there is no graphical front end in this
// repo's scope (spec.md §1).
package main

import (
	"flag"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"pinetime/soc"
)

// manifest is the optional YAML peripheral-table override SPEC_FULL.md's
// DOMAIN STACK section describes: a data-driven list of stub peripherals
// to register, replacing soc.DefaultStubTable's hardcoded Go table with
// a file a user can edit without recompiling.
type manifest struct {
	Stubs []struct {
		ID   uint8  `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"stubs"`
}

func loadManifest(path string) ([]soc.StubEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	entries := make([]soc.StubEntry, len(m.Stubs))
	for i, s := range m.Stubs {
		entries[i] = soc.StubEntry{ID: s.ID, Name: s.Name}
	}
	return entries, nil
}

func main() {
	program := flag.String("program", "", "path to a flat program image to load at 0x00000000")
	steps := flag.Uint64("steps", 1_000_000, "number of soc.Step calls to run")
	manifestPath := flag.String("peripherals", "", "optional YAML peripheral manifest overriding the default stub table")
	debug := flag.Bool("debug", false, "enable verbose peripheral/step logging")
	flag.Parse()

	cfg := soc.Config{Debug: *debug}

	if *program != "" {
		data, err := os.ReadFile(*program)
		if err != nil {
			log.Fatalf("pinetime-emu: reading program image: %v", err)
		}
		cfg.Program = data
	}

	if *manifestPath != "" {
		entries, err := loadManifest(*manifestPath)
		if err != nil {
			log.Fatalf("pinetime-emu: loading peripheral manifest: %v", err)
		}
		cfg.Stubs = entries
	}

	s, err := soc.New(cfg)
	if err != nil {
		log.Fatalf("pinetime-emu: constructing SoC: %v", err)
	}

	for i := uint64(0); i < *steps; i++ {
		if err := s.Step(); err != nil {
			log.Fatalf("pinetime-emu: step %d: %v", i, err)
		}
	}
}
