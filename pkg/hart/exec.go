package hart

import (
	"github.com/riscv-software-src/riscv-unified-db-sub002/pkg/bits"
)

// handler executes one decoded instruction. It updates the program
// counter itself and returns stopNone to continue, or the reason the
// run loop must hand control back.
type handler func(h *Hart, in *Inst) StopReason

var handlers [numOpcodes]handler

func init() {
	handlers = [numOpcodes]handler{
		OpIllegal: execIllegal,

		OpLui:   execLui,
		OpAuipc: execAuipc,
		OpJal:   execJal,
		OpJalr:  execJalr,

		OpBeq:  branch(func(c int) bool { return c == 0 }, false),
		OpBne:  branch(func(c int) bool { return c != 0 }, false),
		OpBlt:  branch(func(c int) bool { return c < 0 }, true),
		OpBge:  branch(func(c int) bool { return c >= 0 }, true),
		OpBltu: branch(func(c int) bool { return c < 0 }, false),
		OpBgeu: branch(func(c int) bool { return c >= 0 }, false),

		OpLb:  load(1, true),
		OpLh:  load(2, true),
		OpLw:  load(4, true),
		OpLd:  load(8, true),
		OpLbu: load(1, false),
		OpLhu: load(2, false),
		OpLwu: load(4, false),
		OpSb:  store(1),
		OpSh:  store(2),
		OpSw:  store(4),
		OpSd:  store(8),

		OpAddi:  aluImm(func(h *Hart, a, b bits.Int) bits.Int { return a.Add(b) }),
		OpSlti:  execSlti,
		OpSltiu: execSltiu,
		OpXori:  aluImm(func(h *Hart, a, b bits.Int) bits.Int { return a.Xor(b) }),
		OpOri:   aluImm(func(h *Hart, a, b bits.Int) bits.Int { return a.Or(b) }),
		OpAndi:  aluImm(func(h *Hart, a, b bits.Int) bits.Int { return a.And(b) }),
		OpSlli:  execSlli,
		OpSrli:  execSrli,
		OpSrai:  execSrai,
		OpAddiw: execAddiw,
		OpSlliw: execSlliw,
		OpSrliw: execSrliw,
		OpSraiw: execSraiw,

		OpAdd:  alu(func(h *Hart, a, b bits.Int) bits.Int { return a.Add(b) }),
		OpSub:  alu(func(h *Hart, a, b bits.Int) bits.Int { return a.Sub(b) }),
		OpSll:  alu(func(h *Hart, a, b bits.Int) bits.Int { return a.Shl(h.shamt(b)) }),
		OpSlt:  execSlt,
		OpSltu: execSltu,
		OpXor:  alu(func(h *Hart, a, b bits.Int) bits.Int { return a.Xor(b) }),
		OpSrl:  alu(func(h *Hart, a, b bits.Int) bits.Int { return a.Shr(h.shamt(b)) }),
		OpSra:  alu(func(h *Hart, a, b bits.Int) bits.Int { return a.Signed().Sra(h.shamt(b)) }),
		OpOr:   alu(func(h *Hart, a, b bits.Int) bits.Int { return a.Or(b) }),
		OpAnd:  alu(func(h *Hart, a, b bits.Int) bits.Int { return a.And(b) }),
		OpAddw: aluW(func(h *Hart, a, b bits.Int) bits.Int { return a.Add(b) }),
		OpSubw: aluW(func(h *Hart, a, b bits.Int) bits.Int { return a.Sub(b) }),
		OpSllw: aluW(func(h *Hart, a, b bits.Int) bits.Int { return a.Shl(shamt32(b)) }),
		OpSrlw: aluW(func(h *Hart, a, b bits.Int) bits.Int { return a.Shr(shamt32(b)) }),
		OpSraw: aluW(func(h *Hart, a, b bits.Int) bits.Int { return a.Signed().Sra(shamt32(b)) }),

		OpMul:    alu(func(h *Hart, a, b bits.Int) bits.Int { return a.Mul(b) }),
		OpMulh:   mulHigh(true, true),
		OpMulhsu: mulHigh(true, false),
		OpMulhu:  mulHigh(false, false),
		OpDiv:    divide(true, true),
		OpDivu:   divide(true, false),
		OpRem:    divide(false, true),
		OpRemu:   divide(false, false),
		OpMulw:   aluW(func(h *Hart, a, b bits.Int) bits.Int { return a.Mul(b) }),
		OpDivw:   divideW(true, true),
		OpDivuw:  divideW(true, false),
		OpRemw:   divideW(false, true),
		OpRemuw:  divideW(false, false),

		OpFence:  execFence,
		OpFenceI: execFenceI,
		OpEcall:  execEcall,
		OpEbreak: execEbreak,
		OpWfi:    execWfi,
		OpPause:  execPause,
	}
}

// reg reads register i at XLEN width. x0 always reads as zero.
func (h *Hart) reg(i uint8) bits.Int {
	if i == 0 {
		return bits.New(h.xlen, 0)
	}
	return h.regs[i]
}

// setReg writes v to register i, truncating or extending to XLEN.
// Writes to x0 are discarded.
func (h *Hart) setReg(i uint8, v bits.Int) {
	if i == 0 {
		return
	}
	h.regs[i] = v.Convert(h.xlen).Unsigned()
}

func (h *Hart) regU(i uint8) uint64 { return h.reg(i).Uint64() }

// next advances the program counter past in.
func (h *Hart) next(in *Inst) {
	h.pc = in.PC + uint64(in.Len)
}

// jump redirects control to target. With the C extension 2-byte
// alignment always holds; without it a misaligned target traps, or
// surfaces as UnpredictableBehavior when the configuration suppresses
// the trap, since the fetch pipeline cannot execute from it.
func (h *Hart) jump(target uint64) StopReason {
	if !h.dec.hasC && target&0b11 != 0 {
		if h.cfg.AllowMisalignedFetch {
			h.pc = target
			return UnpredictableBehavior
		}
		return h.exception(CauseMisalignedFetch, target)
	}
	h.pc = target
	return stopNone
}

func (h *Hart) exception(cause, tval uint64) StopReason {
	h.cause = cause
	h.tval = tval
	return Exception
}

// shamt masks a shift operand down to the XLEN-dependent amount.
func (h *Hart) shamt(b bits.Int) bits.Int {
	return bits.New(h.xlen, b.Uint64()&uint64(h.xlen-1))
}

func shamt32(b bits.Int) bits.Int {
	return bits.New(32, b.Uint64()&31)
}

func execIllegal(h *Hart, in *Inst) StopReason {
	return h.exception(CauseIllegalInstruction, uint64(in.Raw))
}

func execLui(h *Hart, in *Inst) StopReason {
	h.setReg(in.Rd, bits.NewSigned(h.xlen, in.Imm))
	h.next(in)
	return stopNone
}

func execAuipc(h *Hart, in *Inst) StopReason {
	h.setReg(in.Rd, bits.New(h.xlen, in.PC+uint64(in.Imm)))
	h.next(in)
	return stopNone
}

func execJal(h *Hart, in *Inst) StopReason {
	link := in.PC + uint64(in.Len)
	r := h.jump(in.PC + uint64(in.Imm))
	if r == stopNone {
		h.setReg(in.Rd, bits.New(h.xlen, link))
	}
	return r
}

func execJalr(h *Hart, in *Inst) StopReason {
	link := in.PC + uint64(in.Len)
	target := (h.regU(in.Rs1) + uint64(in.Imm)) &^ 1
	r := h.jump(target)
	if r == stopNone {
		h.setReg(in.Rd, bits.New(h.xlen, link))
	}
	return r
}

func branch(take func(int) bool, signed bool) handler {
	return func(h *Hart, in *Inst) StopReason {
		a, b := h.reg(in.Rs1), h.reg(in.Rs2)
		if signed {
			a, b = a.Signed(), b.Signed()
		}
		if take(a.Cmp(b)) {
			return h.jump(in.PC + uint64(in.Imm))
		}
		h.next(in)
		return stopNone
	}
}

func load(size int, signed bool) handler {
	return func(h *Hart, in *Inst) StopReason {
		addr := h.regU(in.Rs1) + uint64(in.Imm)
		if addr&uint64(size-1) != 0 && !h.cfg.AllowMisaligned {
			return h.exception(CauseMisalignedLoad, addr)
		}
		v, err := h.mem.Read(addr, size, h.order)
		if err != nil {
			return h.exception(CauseLoadAccessFault, addr)
		}
		val := bits.New(bits.Width(size*8), v)
		if signed {
			val = val.Signed()
		}
		h.setReg(in.Rd, val)
		h.next(in)
		return stopNone
	}
}

func store(size int) handler {
	return func(h *Hart, in *Inst) StopReason {
		addr := h.regU(in.Rs1) + uint64(in.Imm)
		if addr&uint64(size-1) != 0 && !h.cfg.AllowMisaligned {
			return h.exception(CauseMisalignedStore, addr)
		}
		if err := h.mem.Write(addr, size, h.order, h.regU(in.Rs2)); err != nil {
			return h.exception(CauseStoreAccessFault, addr)
		}
		h.next(in)
		return stopNone
	}
}

func aluImm(op func(h *Hart, a, b bits.Int) bits.Int) handler {
	return func(h *Hart, in *Inst) StopReason {
		h.setReg(in.Rd, op(h, h.reg(in.Rs1), bits.NewSigned(h.xlen, in.Imm)))
		h.next(in)
		return stopNone
	}
}

func alu(op func(h *Hart, a, b bits.Int) bits.Int) handler {
	return func(h *Hart, in *Inst) StopReason {
		h.setReg(in.Rd, op(h, h.reg(in.Rs1), h.reg(in.Rs2)))
		h.next(in)
		return stopNone
	}
}

// aluW applies op on the low 32 bits and sign-extends to XLEN.
func aluW(op func(h *Hart, a, b bits.Int) bits.Int) handler {
	return func(h *Hart, in *Inst) StopReason {
		a := h.reg(in.Rs1).Convert(32)
		b := h.reg(in.Rs2).Convert(32)
		h.setReg(in.Rd, op(h, a, b).Convert(32).Signed())
		h.next(in)
		return stopNone
	}
}

func (h *Hart) setFlag(rd uint8, cond bool) {
	v := uint64(0)
	if cond {
		v = 1
	}
	h.setReg(rd, bits.New(h.xlen, v))
}

func execSlt(h *Hart, in *Inst) StopReason {
	h.setFlag(in.Rd, h.reg(in.Rs1).Signed().Lt(h.reg(in.Rs2).Signed()))
	h.next(in)
	return stopNone
}

func execSltu(h *Hart, in *Inst) StopReason {
	h.setFlag(in.Rd, h.reg(in.Rs1).Lt(h.reg(in.Rs2)))
	h.next(in)
	return stopNone
}

func execSlti(h *Hart, in *Inst) StopReason {
	h.setFlag(in.Rd, h.reg(in.Rs1).Signed().Lt(bits.NewSigned(h.xlen, in.Imm)))
	h.next(in)
	return stopNone
}

func execSltiu(h *Hart, in *Inst) StopReason {
	h.setFlag(in.Rd, h.reg(in.Rs1).Lt(bits.NewSigned(h.xlen, in.Imm).Unsigned()))
	h.next(in)
	return stopNone
}

func execSlli(h *Hart, in *Inst) StopReason {
	h.setReg(in.Rd, h.reg(in.Rs1).Shl(bits.New(h.xlen, uint64(in.Imm))))
	h.next(in)
	return stopNone
}

func execSrli(h *Hart, in *Inst) StopReason {
	h.setReg(in.Rd, h.reg(in.Rs1).Shr(bits.New(h.xlen, uint64(in.Imm))))
	h.next(in)
	return stopNone
}

func execSrai(h *Hart, in *Inst) StopReason {
	h.setReg(in.Rd, h.reg(in.Rs1).Signed().Sra(bits.New(h.xlen, uint64(in.Imm))))
	h.next(in)
	return stopNone
}

func execAddiw(h *Hart, in *Inst) StopReason {
	v := h.reg(in.Rs1).Convert(32).Add(bits.NewSigned(32, in.Imm).Unsigned())
	h.setReg(in.Rd, v.Signed())
	h.next(in)
	return stopNone
}

func execSlliw(h *Hart, in *Inst) StopReason {
	v := h.reg(in.Rs1).Convert(32).Shl(bits.New(32, uint64(in.Imm)))
	h.setReg(in.Rd, v.Convert(32).Signed())
	h.next(in)
	return stopNone
}

func execSrliw(h *Hart, in *Inst) StopReason {
	v := h.reg(in.Rs1).Convert(32).Shr(bits.New(32, uint64(in.Imm)))
	h.setReg(in.Rd, v.Signed())
	h.next(in)
	return stopNone
}

func execSraiw(h *Hart, in *Inst) StopReason {
	v := h.reg(in.Rs1).Convert(32).Signed().Sra(bits.New(32, uint64(in.Imm)))
	h.setReg(in.Rd, v.Signed())
	h.next(in)
	return stopNone
}

// mulHigh computes the upper XLEN bits of the 2*XLEN-bit product.
func mulHigh(s1, s2 bool) handler {
	return func(h *Hart, in *Inst) StopReason {
		a, b := h.reg(in.Rs1), h.reg(in.Rs2)
		if s1 {
			a = a.Signed()
		}
		if s2 {
			b = b.Signed()
		}
		p := a.MulWide(b).Signed()
		hi := p.Sra(bits.New(p.Width(), uint64(h.xlen)))
		h.setReg(in.Rd, hi)
		h.next(in)
		return stopNone
	}
}

// divide implements div/rem with the architectural special cases:
// division by zero yields all-ones quotient and the dividend as
// remainder; the most-negative-by-minus-one overflow wraps.
func divide(quotient, signed bool) handler {
	return func(h *Hart, in *Inst) StopReason {
		a, b := h.reg(in.Rs1), h.reg(in.Rs2)
		if signed {
			a, b = a.Signed(), b.Signed()
		}
		h.setReg(in.Rd, divResult(h.xlen, a, b, quotient))
		h.next(in)
		return stopNone
	}
}

func divideW(quotient, signed bool) handler {
	return func(h *Hart, in *Inst) StopReason {
		a := h.reg(in.Rs1).Convert(32)
		b := h.reg(in.Rs2).Convert(32)
		if signed {
			a, b = a.Signed(), b.Signed()
		}
		h.setReg(in.Rd, divResult(32, a, b, quotient).Convert(32).Signed())
		h.next(in)
		return stopNone
	}
}

func divResult(w bits.Width, a, b bits.Int, quotient bool) bits.Int {
	var res bits.Int
	var err error
	if quotient {
		res, err = a.Div(b)
		if err != nil {
			return bits.NewSigned(w, -1)
		}
	} else {
		res, err = a.Rem(b)
		if err != nil {
			return a
		}
	}
	return res
}

func execFence(h *Hart, in *Inst) StopReason {
	h.next(in)
	return stopNone
}

// execFenceI flushes every decoded block so stores to instruction
// memory become visible to subsequent fetches.
func execFenceI(h *Hart, in *Inst) StopReason {
	h.cache.Invalidate()
	h.next(in)
	return stopNone
}

// execEcall implements the bare-metal exit convention: syscall 93
// terminates the run with the guest's status in a0. Every other call
// number traps as an environment call.
func execEcall(h *Hart, in *Inst) StopReason {
	if h.regU(17) == sysExit {
		if h.regU(10) == 0 {
			return ExitSuccess
		}
		return ExitFailure
	}
	return h.exception(CauseEcallFromM, 0)
}

const sysExit = 93

func execEbreak(h *Hart, in *Inst) StopReason {
	return Ebreak
}

func execWfi(h *Hart, in *Inst) StopReason {
	h.next(in)
	return Wfi
}

func execPause(h *Hart, in *Inst) StopReason {
	h.next(in)
	return Pause
}
