// Package loader maps RISC-V ELF executables into guest physical
// memory.
package loader

import (
	"bytes"
	"debug/elf"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"

	"github.com/riscv-software-src/riscv-unified-db-sub002/pkg/mem"
)

// Program describes a loaded executable.
type Program struct {
	// Entry is the initial program counter.
	Entry uint64
	// Digest identifies the executable image; snapshots are keyed by
	// it so restores cannot cross binaries.
	Digest [32]byte
	// Symbols maps defined global symbols to their addresses.
	Symbols map[string]uint64
}

// ElfError reports an unusable ELF image: malformed, truncated, or
// built for the wrong machine. Callers can distinguish it from I/O
// failures with errors.As.
type ElfError struct {
	Err error
}

func (e *ElfError) Error() string { return "elf: " + e.Err.Error() }

func (e *ElfError) Unwrap() error { return e.Err }

func elfErrorf(format string, args ...interface{}) error {
	return &ElfError{Err: fmt.Errorf(format, args...)}
}

// Load reads the ELF executable at path and maps its loadable segments
// into m.
func Load(path string, m *mem.Memory) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	p, err := Parse(data, m)
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", path, err)
	}
	return p, nil
}

// Parse maps the loadable segments of the ELF image data into m and
// returns the program description.
func Parse(data []byte, m *mem.Memory) (*Program, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, &ElfError{Err: err}
	}
	defer f.Close()

	if f.Machine != elf.EM_RISCV {
		return nil, elfErrorf("not a RISC-V executable (machine %v)", f.Machine)
	}
	if f.Type != elf.ET_EXEC {
		return nil, elfErrorf("not a static executable (type %v)", f.Type)
	}
	if f.Data != elf.ELFDATA2LSB {
		return nil, elfErrorf("unsupported byte order %v", f.Data)
	}

	p := &Program{
		Entry:   f.Entry,
		Digest:  blake2b.Sum256(data),
		Symbols: map[string]uint64{},
	}

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Memsz == 0 {
			continue
		}
		seg := make([]byte, prog.Memsz)
		if _, err := io.ReadFull(prog.Open(), seg[:prog.Filesz]); err != nil {
			return nil, elfErrorf("segment at %#x: %w", prog.Vaddr, err)
		}
		m.WriteInit(prog.Vaddr, seg)
		access := mem.ReadOnly
		if prog.Flags&elf.PF_W != 0 {
			access = mem.ReadWrite
		}
		m.SetAccess(prog.Vaddr, prog.Memsz, access)
	}

	syms, err := f.Symbols()
	if err != nil && err != elf.ErrNoSymbols {
		return nil, &ElfError{Err: err}
	}
	for _, s := range syms {
		if s.Section == elf.SHN_UNDEF || s.Name == "" {
			continue
		}
		p.Symbols[s.Name] = s.Value
	}
	return p, nil
}
