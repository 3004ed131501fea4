package hart

// MaxBlockSize caps how many decoded instructions one basic block holds.
const MaxBlockSize = 40

// sentinelPC marks a block that maps no guest address. It is not 4-byte
// aligned, so no fetch address ever matches it.
const sentinelPC = ^uint64(0)

// Block is one decoded basic block: a straight-line run of instructions
// ending at the first control transfer (or when the slot array fills).
// Blocks are recycled in place; Recycle rebinds a block to a new start
// address without reallocating.
type Block struct {
	startPC uint64
	size    int
	head    int
	slots   [MaxBlockSize]Inst
}

// NewBlock returns an unbound block.
func NewBlock() *Block {
	return &Block{startPC: sentinelPC}
}

// StartPC returns the guest address of the block's first instruction, or
// sentinelPC when the block is unbound.
func (b *Block) StartPC() uint64 {
	return b.startPC
}

// Size returns the number of decoded instructions in the block.
func (b *Block) Size() int {
	return b.size
}

// Full reports whether no further instruction slot is available.
func (b *Block) Full() bool {
	return b.size == MaxBlockSize
}

// Recycle rebinds the block to start at pc, discarding all decoded
// instructions and resetting the execution cursor.
func (b *Block) Recycle(pc uint64) {
	b.startPC = pc
	b.size = 0
	b.head = 0
}

// Invalidate unbinds the block so no fetch address matches it.
func (b *Block) Invalidate() {
	b.startPC = sentinelPC
	b.size = 0
	b.head = 0
}

// AllocInst appends a slot to the block and returns it for the decoder
// to fill. It panics when the block is full; callers check Full first.
func (b *Block) AllocInst() *Inst {
	if b.size == MaxBlockSize {
		panic("hart: alloc on full block")
	}
	in := &b.slots[b.size]
	b.size++
	return in
}

// Reset rewinds the execution cursor to the first instruction.
func (b *Block) Reset() {
	b.head = 0
}

// Pop returns the instruction under the cursor and advances it. Popping
// past the end wraps the cursor back to the start; popping an empty
// block panics.
func (b *Block) Pop() *Inst {
	if b.size == 0 {
		panic("hart: pop on empty block")
	}
	if b.head >= b.size {
		b.head = 0
	}
	in := &b.slots[b.head]
	b.head++
	return in
}

// CacheSize is the number of direct-mapped block slots. It must be a
// power of two; the index mask depends on it.
const CacheSize = 2048

// Compile-time assertion: CacheSize is a power of two.
const _ = uint64(0) - uint64(CacheSize&(CacheSize-1))

// Cache is a direct-mapped basic-block cache indexed by bits [12:2] of
// the fetch address. Distinct addresses sharing an index evict each
// other; lookups never miss structurally, they return the resident
// block for the caller to check StartPC against.
type Cache struct {
	blocks [CacheSize]Block
}

// NewCache returns a cache with every slot unbound.
func NewCache() *Cache {
	c := &Cache{}
	c.Invalidate()
	return c
}

// Get returns the block slot that pc maps to. The caller compares the
// block's StartPC to pc to distinguish a hit from a stale resident.
func (c *Cache) Get(pc uint64) *Block {
	return &c.blocks[(pc>>2)&(CacheSize-1)]
}

// Invalidate unbinds every slot. Used for fence.i and whenever guest
// code pages change under the cache.
func (c *Cache) Invalidate() {
	for i := range c.blocks {
		c.blocks[i].Invalidate()
	}
}
