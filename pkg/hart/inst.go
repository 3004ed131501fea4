package hart

import "unsafe"

// Opcode identifies a decoded operation. Compressed encodings decode to
// the same opcodes as their 32-bit counterparts; executors never see the
// encoding form.
type Opcode uint8

const (
	OpIllegal Opcode = iota

	OpLui
	OpAuipc
	OpJal
	OpJalr

	OpBeq
	OpBne
	OpBlt
	OpBge
	OpBltu
	OpBgeu

	OpLb
	OpLh
	OpLw
	OpLd
	OpLbu
	OpLhu
	OpLwu
	OpSb
	OpSh
	OpSw
	OpSd

	OpAddi
	OpSlti
	OpSltiu
	OpXori
	OpOri
	OpAndi
	OpSlli
	OpSrli
	OpSrai
	OpAddiw
	OpSlliw
	OpSrliw
	OpSraiw

	OpAdd
	OpSub
	OpSll
	OpSlt
	OpSltu
	OpXor
	OpSrl
	OpSra
	OpOr
	OpAnd
	OpAddw
	OpSubw
	OpSllw
	OpSrlw
	OpSraw

	OpMul
	OpMulh
	OpMulhsu
	OpMulhu
	OpDiv
	OpDivu
	OpRem
	OpRemu
	OpMulw
	OpDivw
	OpDivuw
	OpRemw
	OpRemuw

	OpFence
	OpFenceI
	OpEcall
	OpEbreak
	OpWfi
	OpPause

	numOpcodes
)

// SizeOfInst bounds the storage footprint of one decoded instruction;
// the basic-block slot array is parameterized by it.
const SizeOfInst = 32

// Inst is one decoded instruction. The flat operand form keeps every
// decoded variant inside a fixed-size slot.
type Inst struct {
	PC  uint64
	Raw uint32
	Imm int64
	Op  Opcode
	Rd  uint8
	Rs1 uint8
	Rs2 uint8
	// Len is the encoding length in bytes: 2 or 4.
	Len uint8
}

// Compile-time assertion: every decoded form fits its block slot.
const _ = SizeOfInst - unsafe.Sizeof(Inst{})

// blockTerminators marks opcodes that end a basic block: control
// transfers, trap-raising instructions, hint halts, and decode-visible
// state changes.
var blockTerminators = [numOpcodes]bool{
	OpIllegal: true,
	OpJal:     true,
	OpJalr:    true,
	OpBeq:     true,
	OpBne:     true,
	OpBlt:     true,
	OpBge:     true,
	OpBltu:    true,
	OpBgeu:    true,
	OpFenceI:  true,
	OpEcall:   true,
	OpEbreak:  true,
	OpWfi:     true,
	OpPause:   true,
}

// EndsBlock reports whether no instruction may follow in the same basic
// block.
func (in *Inst) EndsBlock() bool {
	return blockTerminators[in.Op]
}
