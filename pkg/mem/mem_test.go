package mem

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestReadWriteSizes(t *testing.T) {
	m := New(32)
	m.SetAccess(0x1000, 0x1000, ReadWrite)

	if err := m.Write(0x1000, 8, binary.LittleEndian, 0x1122334455667788); err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		addr uint64
		size int
		want uint64
	}{
		{0x1000, 1, 0x88},
		{0x1000, 2, 0x7788},
		{0x1000, 4, 0x55667788},
		{0x1000, 8, 0x1122334455667788},
		{0x1003, 2, 0x4455},
	}
	for _, tc := range cases {
		got, err := m.Read(tc.addr, tc.size, binary.LittleEndian)
		if err != nil {
			t.Fatal(err)
		}
		if got != tc.want {
			t.Errorf("Read(%#x, %d) = %#x, want %#x", tc.addr, tc.size, got, tc.want)
		}
	}
}

func TestBigEndian(t *testing.T) {
	m := New(32)
	m.SetAccess(0, PageSize, ReadWrite)
	if err := m.Write(0x10, 4, binary.BigEndian, 0xdeadbeef); err != nil {
		t.Fatal(err)
	}
	b, err := m.ReadBytes(0x10, 4)
	if err != nil {
		t.Fatal(err)
	}
	if b[0] != 0xde || b[3] != 0xef {
		t.Fatalf("big-endian bytes = %x", b)
	}
	got, err := m.Read(0x10, 4, binary.BigEndian)
	if err != nil || got != 0xdeadbeef {
		t.Fatalf("Read = %#x, %v", got, err)
	}
	// The same bytes read little-endian swap.
	got, _ = m.Read(0x10, 4, binary.LittleEndian)
	if got != 0xefbeadde {
		t.Fatalf("little-endian reread = %#x", got)
	}
}

func TestCrossPageAccess(t *testing.T) {
	m := New(32)
	m.SetAccess(0, 2*PageSize, ReadWrite)
	addr := uint64(PageSize - 3)
	if err := m.Write(addr, 8, binary.LittleEndian, 0x0102030405060708); err != nil {
		t.Fatal(err)
	}
	got, err := m.Read(addr, 8, binary.LittleEndian)
	if err != nil || got != 0x0102030405060708 {
		t.Fatalf("cross-page read = %#x, %v", got, err)
	}
}

func TestAccessFaults(t *testing.T) {
	m := New(32)
	m.SetAccess(0x1000, PageSize, ReadOnly)

	var fault *AccessFault
	if err := m.Write(0x1000, 4, binary.LittleEndian, 1); !errors.As(err, &fault) || !fault.Write {
		t.Errorf("store to read-only: %v", err)
	}
	if _, err := m.Read(0x5000, 4, binary.LittleEndian); !errors.As(err, &fault) || fault.Write {
		t.Errorf("load from unmapped: %v", err)
	}
	// Beyond the physical address width.
	if _, err := m.Read(1<<32+0x1000, 4, binary.LittleEndian); !errors.As(err, &fault) {
		t.Errorf("load past PA width: %v", err)
	}
	if _, err := m.Read(0x1000, 4, binary.LittleEndian); err != nil {
		t.Errorf("read-only load: %v", err)
	}
}

func TestWriteInitAndDirty(t *testing.T) {
	m := New(32)
	m.WriteInit(0x2000, []byte{1, 2, 3})
	m.SetAccess(0x2000, PageSize, ReadOnly)
	got, err := m.Read(0x2000, 2, binary.LittleEndian)
	if err != nil || got != 0x0201 {
		t.Fatalf("init read = %#x, %v", got, err)
	}
	m.ClearDirty()
	m.SetAccess(0x3000, PageSize, ReadWrite)
	if err := m.Write(0x3000, 1, binary.LittleEndian, 0xff); err != nil {
		t.Fatal(err)
	}
	d := m.DirtyPages()
	if len(d) != 1 || d[0] != 0x3000/PageSize {
		t.Fatalf("dirty pages = %v", d)
	}
	b := m.PageBytes(d[0])
	if b[0] != 0xff {
		t.Fatalf("page bytes = %x", b[:4])
	}
}
