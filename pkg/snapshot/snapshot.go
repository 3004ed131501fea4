// Package snapshot checkpoints hart state to a PebbleDB store so long
// runs can be suspended and resumed. Snapshots are keyed by the program
// image digest and the retired-instruction count, which makes a restore
// against the wrong binary structurally impossible.
package snapshot

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/cockroachdb/pebble"

	"github.com/riscv-software-src/riscv-unified-db-sub002/pkg/bits"
	"github.com/riscv-software-src/riscv-unified-db-sub002/pkg/hart"
)

// Store is a PebbleDB-backed snapshot repository.
type Store struct {
	db *pebble.DB
}

// Open opens (creating if needed) the snapshot database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// State is one captured checkpoint: the architectural register state
// plus every memory page written since the memory's dirty set was last
// cleared.
type State struct {
	Digest  [32]byte
	PC      uint64
	Instret uint64
	Regs    [32]uint64
	Pages   map[uint64][]byte
}

// Capture snapshots h. The caller supplies the digest of the loaded
// program image.
func Capture(h *hart.Hart, digest [32]byte) *State {
	st := &State{
		Digest:  digest,
		PC:      h.PC(),
		Instret: h.Instret(),
		Pages:   map[uint64][]byte{},
	}
	for i := range st.Regs {
		st.Regs[i] = h.Reg(i).Uint64()
	}
	m := h.Memory()
	for _, p := range m.DirtyPages() {
		st.Pages[p] = m.PageBytes(p)
	}
	return st
}

// Apply restores the checkpoint onto h. The hart must have been
// constructed over the same program image the checkpoint was captured
// from; page contents are overlaid, access rights are kept.
func (st *State) Apply(h *hart.Hart) {
	h.SetPC(st.PC)
	h.SetInstret(st.Instret)
	xlen := bits.Width(h.XLEN())
	for i, v := range st.Regs {
		h.SetReg(i, bits.New(xlen, v))
	}
	m := h.Memory()
	for p, b := range st.Pages {
		m.RestorePage(p, b)
	}
	h.InvalidateCache()
}

const (
	tagMeta = 0x00
	tagPage = 0x01
)

// makeKey builds a snapshot key: the image digest, the big-endian
// instruction count so iteration order matches execution order, and a
// record tag.
func makeKey(digest [32]byte, instret uint64, tag byte) []byte {
	key := make([]byte, 0, 41+8)
	key = append(key, digest[:]...)
	key = binary.BigEndian.AppendUint64(key, instret)
	return append(key, tag)
}

func makePageKey(digest [32]byte, instret, page uint64) []byte {
	return binary.BigEndian.AppendUint64(makeKey(digest, instret, tagPage), page)
}

// Save writes the checkpoint atomically.
func (s *Store) Save(st *State) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	if err := batch.Set(makeKey(st.Digest, st.Instret, tagMeta), encodeMeta(st), nil); err != nil {
		return err
	}
	for p, b := range st.Pages {
		if err := batch.Set(makePageKey(st.Digest, st.Instret, p), b, nil); err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

// Load reads the checkpoint for digest at the given retired-instruction
// count.
func (s *Store) Load(digest [32]byte, instret uint64) (*State, error) {
	raw, closer, err := s.db.Get(makeKey(digest, instret, tagMeta))
	if err != nil {
		return nil, fmt.Errorf("snapshot at instret %d: %w", instret, err)
	}
	st, pages, err := decodeMeta(raw)
	closer.Close()
	if err != nil {
		return nil, err
	}
	st.Digest = digest
	st.Pages = make(map[uint64][]byte, len(pages))

	for _, p := range pages {
		raw, closer, err := s.db.Get(makePageKey(digest, instret, p))
		if err != nil {
			return nil, fmt.Errorf("snapshot page %#x: %w", p, err)
		}
		b := make([]byte, len(raw))
		copy(b, raw)
		closer.Close()
		st.Pages[p] = b
	}
	return st, nil
}

// List returns the retired-instruction counts of every checkpoint
// stored for digest, in ascending order.
func (s *Store) List(digest [32]byte) ([]uint64, error) {
	lower := makeKey(digest, 0, tagMeta)
	upper := makeKey(digest, ^uint64(0), tagPage)
	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []uint64
	for it.First(); it.Valid(); it.Next() {
		key := it.Key()
		if len(key) == 41 && key[40] == tagMeta {
			out = append(out, binary.BigEndian.Uint64(key[32:40]))
		}
	}
	return out, it.Error()
}

// Delete removes a checkpoint and its pages.
func (s *Store) Delete(digest [32]byte, instret uint64) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	if err := batch.Delete(makeKey(digest, instret, tagMeta), nil); err != nil {
		return err
	}
	lower := makePageKey(digest, instret, 0)
	upper := makePageKey(digest, instret, ^uint64(0))
	if err := batch.DeleteRange(lower, append(upper, 0xff), nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

// metaVersion guards the record layout.
const metaVersion = 1

func encodeMeta(st *State) []byte {
	buf := make([]byte, 0, 1+8+8+32*8+4+8*len(st.Pages))
	buf = append(buf, metaVersion)
	buf = binary.LittleEndian.AppendUint64(buf, st.PC)
	buf = binary.LittleEndian.AppendUint64(buf, st.Instret)
	for _, r := range st.Regs {
		buf = binary.LittleEndian.AppendUint64(buf, r)
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(st.Pages)))
	pages := make([]uint64, 0, len(st.Pages))
	for p := range st.Pages {
		pages = append(pages, p)
	}
	slices.Sort(pages)
	for _, p := range pages {
		buf = binary.LittleEndian.AppendUint64(buf, p)
	}
	return buf
}

func decodeMeta(raw []byte) (*State, []uint64, error) {
	const fixed = 1 + 8 + 8 + 32*8 + 4
	if len(raw) < fixed {
		return nil, nil, fmt.Errorf("snapshot record truncated (%d bytes)", len(raw))
	}
	if raw[0] != metaVersion {
		return nil, nil, fmt.Errorf("snapshot record version %d not supported", raw[0])
	}
	st := &State{}
	st.PC = binary.LittleEndian.Uint64(raw[1:])
	st.Instret = binary.LittleEndian.Uint64(raw[9:])
	for i := range st.Regs {
		st.Regs[i] = binary.LittleEndian.Uint64(raw[17+8*i:])
	}
	n := int(binary.LittleEndian.Uint32(raw[fixed-4:]))
	if len(raw) != fixed+8*n {
		return nil, nil, fmt.Errorf("snapshot record length %d does not match %d pages", len(raw), n)
	}
	pages := make([]uint64, n)
	for i := range pages {
		pages[i] = binary.LittleEndian.Uint64(raw[fixed+8*i:])
	}
	return st, pages, nil
}
