package hart

import "testing"

func TestBlockLifecycle(t *testing.T) {
	b := NewBlock()
	if b.StartPC() != sentinelPC {
		t.Fatalf("fresh block bound to %#x", b.StartPC())
	}

	b.Recycle(0x1000)
	if b.StartPC() != 0x1000 || b.Size() != 0 {
		t.Fatalf("after recycle: start %#x size %d", b.StartPC(), b.Size())
	}

	first := b.AllocInst()
	first.Op, first.PC = OpAddi, 0x1000
	second := b.AllocInst()
	second.Op, second.PC = OpJal, 0x1004
	if b.Size() != 2 {
		t.Fatalf("size = %d, want 2", b.Size())
	}

	b.Reset()
	if got := b.Pop(); got.PC != 0x1000 || got.Op != OpAddi {
		t.Errorf("first pop = %+v", got)
	}
	if got := b.Pop(); got.PC != 0x1004 || got.Op != OpJal {
		t.Errorf("second pop = %+v", got)
	}
}

func TestBlockPopWrapsPastEnd(t *testing.T) {
	b := NewBlock()
	b.Recycle(0x2000)
	in := b.AllocInst()
	in.PC = 0x2000

	b.Reset()
	b.Pop()
	if got := b.Pop(); got.PC != 0x2000 {
		t.Errorf("over-pop returned %#x, want wrap to first slot", got.PC)
	}
}

func TestBlockPopEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("pop on empty block did not panic")
		}
	}()
	b := NewBlock()
	b.Recycle(0x1000)
	b.Pop()
}

func TestBlockFull(t *testing.T) {
	b := NewBlock()
	b.Recycle(0)
	for i := 0; i < MaxBlockSize; i++ {
		if b.Full() {
			t.Fatalf("full after %d of %d slots", i, MaxBlockSize)
		}
		b.AllocInst()
	}
	if !b.Full() {
		t.Fatal("not full at capacity")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("alloc on full block did not panic")
		}
	}()
	b.AllocInst()
}

func TestCacheIndexing(t *testing.T) {
	c := NewCache()

	b := c.Get(0x1000)
	if b != &c.blocks[0x400] {
		t.Errorf("pc 0x1000 mapped to slot %p, want index 0x400", b)
	}

	// Low two bits never affect the index.
	if c.Get(0x1002) != b {
		t.Error("pc 0x1002 mapped to a different slot than 0x1000")
	}

	// Addresses one cache span apart collide.
	alias := uint64(0x1000 + CacheSize*4)
	if c.Get(alias) != b {
		t.Errorf("pc %#x did not alias slot of 0x1000", alias)
	}
}

func TestCacheHitRequiresStartPC(t *testing.T) {
	c := NewCache()

	b := c.Get(0x1000)
	if b.StartPC() == 0x1000 {
		t.Fatal("unbound slot claims residency")
	}
	b.Recycle(0x1000)
	if got := c.Get(0x1000); got.StartPC() != 0x1000 {
		t.Fatalf("rebound slot start = %#x", got.StartPC())
	}

	// An aliasing address finds the slot occupied by someone else.
	alias := uint64(0x1000 + CacheSize*4)
	if got := c.Get(alias); got.StartPC() == alias {
		t.Error("aliasing pc reported as resident")
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache()
	c.Get(0x1000).Recycle(0x1000)
	c.Get(0x2000).Recycle(0x2000)

	c.Invalidate()
	if c.Get(0x1000).StartPC() != sentinelPC || c.Get(0x2000).StartPC() != sentinelPC {
		t.Error("invalidate left a bound slot")
	}
}
