// Package hart executes RISC-V guest code one basic block at a time.
// Instructions are fetched and decoded into a direct-mapped block cache
// and replayed from it until control leaves the block.
package hart

import (
	"encoding/binary"
	"errors"
	"log"

	"github.com/riscv-software-src/riscv-unified-db-sub002/pkg/bits"
	"github.com/riscv-software-src/riscv-unified-db-sub002/pkg/config"
	"github.com/riscv-software-src/riscv-unified-db-sub002/pkg/mem"
)

// Hart is a single machine-mode hart. It is not safe for concurrent
// use.
type Hart struct {
	cfg   *config.Config
	mem   *mem.Memory
	cache *Cache
	dec   decoder

	xlen  bits.Width
	pc    uint64
	regs  [32]bits.Int
	order binary.ByteOrder

	instret uint64
	cause   uint64
	tval    uint64

	trace *log.Logger
}

// New returns a hart over m configured by cfg. The configuration
// fixes XLEN, data endianness and the decoded extension set for the
// hart's lifetime.
func New(cfg *config.Config, m *mem.Memory) *Hart {
	h := &Hart{
		cfg:   cfg,
		mem:   m,
		cache: NewCache(),
		xlen:  bits.Width(cfg.MXLEN),
	}
	h.order = binary.LittleEndian
	if cfg.MBigEndian {
		h.order = binary.BigEndian
	}
	h.dec = decoder{
		rv64: cfg.MXLEN == 64,
		hasM: cfg.ExtensionSatisfies("M", ">= 2.0"),
		hasC: cfg.ExtensionSatisfies("C", ">= 2.0"),
	}
	for i := range h.regs {
		h.regs[i] = bits.New(h.xlen, 0)
	}
	return h
}

// PC returns the current program counter.
func (h *Hart) PC() uint64 { return h.pc }

// SetPC redirects the hart to pc. The block cache stays valid; stale
// residents are detected by start-address comparison.
func (h *Hart) SetPC(pc uint64) { h.pc = pc }

// Instret returns the number of retired instructions.
func (h *Hart) Instret() uint64 { return h.instret }

// SetInstret overwrites the retired-instruction counter. Used when
// restoring a checkpoint.
func (h *Hart) SetInstret(n uint64) { h.instret = n }

// Reg returns register i as an XLEN-wide unsigned value.
func (h *Hart) Reg(i int) bits.Int { return h.reg(uint8(i)) }

// SetReg writes register i. Writes to x0 are discarded.
func (h *Hart) SetReg(i int, v bits.Int) { h.setReg(uint8(i), v) }

// Memory returns the hart's physical memory.
func (h *Hart) Memory() *mem.Memory { return h.mem }

// XLEN returns the register width in bits.
func (h *Hart) XLEN() int { return int(h.xlen) }

// Cause returns the architectural cause code of the last exception.
func (h *Hart) Cause() uint64 { return h.cause }

// Tval returns the trap value of the last exception: the faulting
// address, or the raw encoding for illegal instructions.
func (h *Hart) Tval() uint64 { return h.tval }

// InvalidateCache unbinds every cached block. Callers must invalidate
// after writing guest code pages outside the hart's own stores.
func (h *Hart) InvalidateCache() { h.cache.Invalidate() }

// SetTrace installs a per-instruction trace logger, or removes it when
// l is nil.
func (h *Hart) SetTrace(l *log.Logger) { h.trace = l }

// Run executes instructions until a stop condition or until maxInst
// instructions have executed; maxInst zero means no budget. The
// program counter is left at the instruction that stopped the run for
// negative reasons and for Ebreak, and past it for Wfi and Pause.
func (h *Hart) Run(maxInst uint64) StopReason {
	executed := uint64(0)
	for {
		if r := h.runBB(maxInst, &executed); r != stopNone {
			return r
		}
	}
}

// RunBB executes through the end of the current basic block: control
// returns as soon as the PC leaves the block's straight-line region.
// A clean exit at the block boundary reports InstLimitReached; any
// other stop condition is returned as from Run.
func (h *Hart) RunBB() StopReason {
	executed := uint64(0)
	if r := h.runBB(0, &executed); r != stopNone {
		return r
	}
	return InstLimitReached
}

// Step executes at most one instruction.
func (h *Hart) Step() StopReason {
	return h.Run(1)
}

// runBB replays the cached block at the current PC, refilling it if
// stale, until control leaves the block or a stop condition is hit.
// stopNone means a clean exit at the block boundary.
func (h *Hart) runBB(maxInst uint64, executed *uint64) StopReason {
	b := h.cache.Get(h.pc)
	if b.StartPC() != h.pc {
		if r := h.refill(b, h.pc); r != stopNone {
			return r
		}
	} else {
		b.Reset()
	}
	for b.Size() > 0 {
		if maxInst != 0 && *executed == maxInst {
			return InstLimitReached
		}
		in := b.Pop()
		if h.trace != nil {
			h.trace.Printf("pc=%#x raw=%#08x", in.PC, in.Raw)
		}
		r := handlers[in.Op](h, in)
		(*executed)++
		if r != Exception {
			h.instret++
		}
		if r != stopNone {
			return r
		}
		if h.pc != in.PC+uint64(in.Len) {
			break
		}
		if b.head == b.size {
			break
		}
	}
	return stopNone
}

// ErrIllegalEncoding reports an encoding the hart's decoder does not
// recognize under its configured extension set.
var ErrIllegalEncoding = errors.New("hart: illegal instruction encoding")

// Decode decodes enc as if fetched from pc, without executing it or
// touching the block cache. Compressed encodings are taken from the
// low parcel of enc.
func (h *Hart) Decode(pc uint64, enc uint32) (Inst, error) {
	var in Inst
	if IsCompressed(uint16(enc)) {
		h.dec.DecodeCompressed(&in, pc, uint16(enc))
	} else {
		h.dec.Decode(&in, pc, enc)
	}
	if in.Op == OpIllegal {
		return in, ErrIllegalEncoding
	}
	return in, nil
}

// refill rebinds b to start at pc and decodes forward until a block
// terminator, a full block, or a fetch fault. A fault before the first
// instruction decodes is raised immediately; a later fault truncates
// the block and is raised when execution reaches the fault address.
func (h *Hart) refill(b *Block, pc uint64) StopReason {
	b.Recycle(pc)
	for !b.Full() {
		var in Inst
		if r := h.fetchDecode(&in, pc); r != stopNone {
			if b.Size() == 0 {
				b.Invalidate()
				return r
			}
			break
		}
		*b.AllocInst() = in
		pc += uint64(in.Len)
		if in.EndsBlock() {
			break
		}
	}
	b.Reset()
	return stopNone
}

// fetchDecode reads the encoding at pc and decodes it into in.
// Instruction parcels are always fetched little-endian.
func (h *Hart) fetchDecode(in *Inst, pc uint64) StopReason {
	parcel, err := h.mem.Read(pc, 2, binary.LittleEndian)
	if err != nil {
		return h.exception(CauseFetchAccessFault, pc)
	}
	if IsCompressed(uint16(parcel)) {
		h.dec.DecodeCompressed(in, pc, uint16(parcel))
		return stopNone
	}
	hi, err := h.mem.Read(pc+2, 2, binary.LittleEndian)
	if err != nil {
		return h.exception(CauseFetchAccessFault, pc+2)
	}
	h.dec.Decode(in, pc, uint32(hi)<<16|uint32(parcel))
	return stopNone
}
