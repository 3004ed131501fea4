// Package mem provides the byte-granular physical memory a hart reads and
// writes. Storage is a sparse page map with per-page access rights;
// accesses outside the configured physical address space or against the
// access rights fail with an AccessFault the run loop turns into an
// architectural exception.
package mem

import (
	"encoding/binary"
	"fmt"
)

const PageSize = 1 << 12

// Access is the permission of a page.
type Access int

const (
	NoAccess Access = iota
	ReadOnly
	ReadWrite
)

// AccessFault reports a failed access.
type AccessFault struct {
	Addr  uint64
	Write bool
}

func (e *AccessFault) Error() string {
	kind := "load"
	if e.Write {
		kind = "store"
	}
	return fmt.Sprintf("mem: %s access fault at %#x", kind, e.Addr)
}

// Memory is the physical memory of one machine. It is not safe for
// concurrent use; each hart's run loop owns its accesses.
type Memory struct {
	paMask uint64
	pages  map[uint64][]byte
	access map[uint64]Access
	dirty  map[uint64]bool
}

// New creates an empty memory with the given physical address width in
// bits. Addresses with bits above the width fault.
func New(paBits uint) *Memory {
	mask := ^uint64(0)
	if paBits < 64 {
		mask = 1<<paBits - 1
	}
	return &Memory{
		paMask: mask,
		pages:  make(map[uint64][]byte),
		access: make(map[uint64]Access),
		dirty:  make(map[uint64]bool),
	}
}

func (m *Memory) page(addr uint64) uint64 { return addr / PageSize }

// SetAccess sets the permission of every page overlapping [addr,
// addr+length).
func (m *Memory) SetAccess(addr, length uint64, a Access) {
	if length == 0 {
		return
	}
	for p := m.page(addr); p <= m.page(addr + length - 1); p++ {
		m.access[p] = a
	}
}

// data returns the backing page, allocating it on first touch.
func (m *Memory) data(page uint64) []byte {
	d, ok := m.pages[page]
	if !ok {
		d = make([]byte, PageSize)
		m.pages[page] = d
	}
	return d
}

func (m *Memory) checkRange(addr uint64, n int, write bool) error {
	if n == 0 {
		return nil
	}
	end := addr + uint64(n) - 1
	if end < addr || end&^m.paMask != 0 {
		return &AccessFault{Addr: addr, Write: write}
	}
	for p := m.page(addr); p <= m.page(end); p++ {
		a := m.access[p]
		if a == NoAccess || (write && a == ReadOnly) {
			return &AccessFault{Addr: p * PageSize, Write: write}
		}
	}
	return nil
}

// ReadBytes copies n bytes starting at addr.
func (m *Memory) ReadBytes(addr uint64, n int) ([]byte, error) {
	if err := m.checkRange(addr, n, false); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	for i := 0; i < n; {
		p := m.page(addr + uint64(i))
		off := int((addr + uint64(i)) % PageSize)
		c := copy(out[i:], m.data(p)[off:])
		i += c
	}
	return out, nil
}

// WriteBytes stores b starting at addr.
func (m *Memory) WriteBytes(addr uint64, b []byte) error {
	if err := m.checkRange(addr, len(b), true); err != nil {
		return err
	}
	m.writeRaw(addr, b)
	return nil
}

func (m *Memory) writeRaw(addr uint64, b []byte) {
	for i := 0; i < len(b); {
		p := m.page(addr + uint64(i))
		off := int((addr + uint64(i)) % PageSize)
		c := copy(m.data(p)[off:], b[i:])
		m.dirty[p] = true
		i += c
	}
}

// Read loads a 1-, 2-, 4-, or 8-byte value in the given byte order.
func (m *Memory) Read(addr uint64, size int, order binary.ByteOrder) (uint64, error) {
	b, err := m.ReadBytes(addr, size)
	if err != nil {
		return 0, err
	}
	return decode(b, order), nil
}

// Write stores the low size bytes of v in the given byte order.
func (m *Memory) Write(addr uint64, size int, order binary.ByteOrder, v uint64) error {
	b := make([]byte, 8)
	order.PutUint64(b, v)
	if order == binary.ByteOrder(binary.BigEndian) {
		b = b[8-size:]
	} else {
		b = b[:size]
	}
	return m.WriteBytes(addr, b)
}

func decode(b []byte, order binary.ByteOrder) uint64 {
	var v uint64
	if order == binary.ByteOrder(binary.BigEndian) {
		for _, x := range b {
			v = v<<8 | uint64(x)
		}
		return v
	}
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// WriteInit loads image bytes without an access check, allocating pages as
// read-write. Loaders adjust permissions afterwards with SetAccess.
func (m *Memory) WriteInit(addr uint64, b []byte) {
	if len(b) == 0 {
		return
	}
	for p := m.page(addr); p <= m.page(addr + uint64(len(b)) - 1); p++ {
		if _, ok := m.access[p]; !ok {
			m.access[p] = ReadWrite
		}
	}
	m.writeRaw(addr, b)
}

// DirtyPages returns the page numbers written since the last ClearDirty,
// for checkpointing.
func (m *Memory) DirtyPages() []uint64 {
	out := make([]uint64, 0, len(m.dirty))
	for p := range m.dirty {
		out = append(out, p)
	}
	return out
}

// ClearDirty resets the dirty set.
func (m *Memory) ClearDirty() {
	m.dirty = make(map[uint64]bool)
}

// PageBytes returns a copy of the page's content.
func (m *Memory) PageBytes(page uint64) []byte {
	out := make([]byte, PageSize)
	copy(out, m.pages[page])
	return out
}

// RestorePage overwrites a page's content, preserving its access rights.
func (m *Memory) RestorePage(page uint64, b []byte) {
	copy(m.data(page), b)
}
