package hart

// decoder turns raw parcels into Inst slots. Extension availability is
// fixed at construction; instructions from absent extensions decode to
// OpIllegal and trap at execution.
type decoder struct {
	rv64 bool
	hasM bool
	hasC bool
}

// IsCompressed reports whether the 16-bit parcel begins a compressed
// encoding. Parcels with both low bits set begin a 32-bit encoding.
func IsCompressed(parcel uint16) bool {
	return parcel&0b11 != 0b11
}

func signExtend(v uint32, bits uint) int64 {
	shift := 64 - bits
	return int64(uint64(v)<<shift) >> shift
}

// immI extracts the I-type immediate, sign-extended.
func immI(raw uint32) int64 {
	return signExtend(raw>>20, 12)
}

// immS extracts the S-type immediate, sign-extended.
func immS(raw uint32) int64 {
	v := (raw>>25)<<5 | raw>>7&0x1f
	return signExtend(v, 12)
}

// immB extracts the B-type immediate, sign-extended. Bit 0 is zero.
func immB(raw uint32) int64 {
	v := (raw>>31)<<12 |
		(raw>>7&0x1)<<11 |
		(raw>>25&0x3f)<<5 |
		(raw>>8&0xf)<<1
	return signExtend(v, 13)
}

// immU extracts the U-type immediate with its low 12 bits zero.
func immU(raw uint32) int64 {
	return int64(int32(raw & 0xfffff000))
}

// immJ extracts the J-type immediate, sign-extended. Bit 0 is zero.
func immJ(raw uint32) int64 {
	v := (raw>>31)<<20 |
		(raw>>12&0xff)<<12 |
		(raw>>20&0x1)<<11 |
		(raw>>21&0x3ff)<<1
	return signExtend(v, 21)
}

func rd(raw uint32) uint8  { return uint8(raw>>7&0x1f) }
func rs1(raw uint32) uint8 { return uint8(raw>>15&0x1f) }
func rs2(raw uint32) uint8 { return uint8(raw>>20&0x1f) }

// Decode fills in from the raw 32-bit encoding at pc. Unsupported or
// malformed encodings leave Op as OpIllegal.
func (d *decoder) Decode(in *Inst, pc uint64, raw uint32) {
	*in = Inst{PC: pc, Raw: raw, Op: OpIllegal, Len: 4}

	switch raw & 0x7f {
	case 0b0110111:
		in.Op, in.Rd, in.Imm = OpLui, rd(raw), immU(raw)
	case 0b0010111:
		in.Op, in.Rd, in.Imm = OpAuipc, rd(raw), immU(raw)
	case 0b1101111:
		in.Op, in.Rd, in.Imm = OpJal, rd(raw), immJ(raw)
	case 0b1100111:
		if raw>>12&0x7 == 0 {
			in.Op, in.Rd, in.Rs1, in.Imm = OpJalr, rd(raw), rs1(raw), immI(raw)
		}
	case 0b1100011:
		ops := [8]Opcode{OpBeq, OpBne, OpIllegal, OpIllegal, OpBlt, OpBge, OpBltu, OpBgeu}
		if op := ops[raw>>12&0x7]; op != OpIllegal {
			in.Op, in.Rs1, in.Rs2, in.Imm = op, rs1(raw), rs2(raw), immB(raw)
		}
	case 0b0000011:
		d.decodeLoad(in, raw)
	case 0b0100011:
		d.decodeStore(in, raw)
	case 0b0010011:
		d.decodeOpImm(in, raw)
	case 0b0011011:
		if d.rv64 {
			d.decodeOpImm32(in, raw)
		}
	case 0b0110011:
		d.decodeOp(in, raw)
	case 0b0111011:
		if d.rv64 {
			d.decodeOp32(in, raw)
		}
	case 0b0001111:
		switch {
		case raw == 0x0100000f:
			in.Op = OpPause
		case raw>>12&0x7 == 0b000:
			in.Op = OpFence
		case raw>>12&0x7 == 0b001:
			in.Op = OpFenceI
		}
	case 0b1110011:
		switch raw {
		case 0x00000073:
			in.Op = OpEcall
		case 0x00100073:
			in.Op = OpEbreak
		case 0x10500073:
			in.Op = OpWfi
		}
	}
}

func (d *decoder) decodeLoad(in *Inst, raw uint32) {
	var op Opcode
	switch raw >> 12 & 0x7 {
	case 0b000:
		op = OpLb
	case 0b001:
		op = OpLh
	case 0b010:
		op = OpLw
	case 0b011:
		if !d.rv64 {
			return
		}
		op = OpLd
	case 0b100:
		op = OpLbu
	case 0b101:
		op = OpLhu
	case 0b110:
		if !d.rv64 {
			return
		}
		op = OpLwu
	default:
		return
	}
	in.Op, in.Rd, in.Rs1, in.Imm = op, rd(raw), rs1(raw), immI(raw)
}

func (d *decoder) decodeStore(in *Inst, raw uint32) {
	var op Opcode
	switch raw >> 12 & 0x7 {
	case 0b000:
		op = OpSb
	case 0b001:
		op = OpSh
	case 0b010:
		op = OpSw
	case 0b011:
		if !d.rv64 {
			return
		}
		op = OpSd
	default:
		return
	}
	in.Op, in.Rs1, in.Rs2, in.Imm = op, rs1(raw), rs2(raw), immS(raw)
}

func (d *decoder) decodeOpImm(in *Inst, raw uint32) {
	shamtMax := uint32(31)
	if d.rv64 {
		shamtMax = 63
	}
	var op Opcode
	imm := immI(raw)
	switch raw >> 12 & 0x7 {
	case 0b000:
		op = OpAddi
	case 0b010:
		op = OpSlti
	case 0b011:
		op = OpSltiu
	case 0b100:
		op = OpXori
	case 0b110:
		op = OpOri
	case 0b111:
		op = OpAndi
	case 0b001:
		shamt := raw >> 20 & 0x3f
		if raw>>26 != 0 || shamt > shamtMax {
			return
		}
		op, imm = OpSlli, int64(shamt)
	case 0b101:
		shamt := raw >> 20 & 0x3f
		switch raw >> 26 {
		case 0b000000:
			op = OpSrli
		case 0b010000:
			op = OpSrai
		default:
			return
		}
		if shamt > shamtMax {
			return
		}
		imm = int64(shamt)
	}
	in.Op, in.Rd, in.Rs1, in.Imm = op, rd(raw), rs1(raw), imm
}

func (d *decoder) decodeOpImm32(in *Inst, raw uint32) {
	var op Opcode
	imm := immI(raw)
	switch raw >> 12 & 0x7 {
	case 0b000:
		op = OpAddiw
	case 0b001:
		if raw>>25 != 0 {
			return
		}
		op, imm = OpSlliw, int64(raw>>20&0x1f)
	case 0b101:
		switch raw >> 25 {
		case 0b0000000:
			op = OpSrliw
		case 0b0100000:
			op = OpSraiw
		default:
			return
		}
		imm = int64(raw>>20&0x1f)
	default:
		return
	}
	in.Op, in.Rd, in.Rs1, in.Imm = op, rd(raw), rs1(raw), imm
}

func (d *decoder) decodeOp(in *Inst, raw uint32) {
	var op Opcode
	f3 := raw >> 12 & 0x7
	switch raw >> 25 {
	case 0b0000000:
		ops := [8]Opcode{OpAdd, OpSll, OpSlt, OpSltu, OpXor, OpSrl, OpOr, OpAnd}
		op = ops[f3]
	case 0b0100000:
		switch f3 {
		case 0b000:
			op = OpSub
		case 0b101:
			op = OpSra
		default:
			return
		}
	case 0b0000001:
		if !d.hasM {
			return
		}
		ops := [8]Opcode{OpMul, OpMulh, OpMulhsu, OpMulhu, OpDiv, OpDivu, OpRem, OpRemu}
		op = ops[f3]
	default:
		return
	}
	in.Op, in.Rd, in.Rs1, in.Rs2 = op, rd(raw), rs1(raw), rs2(raw)
}

func (d *decoder) decodeOp32(in *Inst, raw uint32) {
	var op Opcode
	f3 := raw >> 12 & 0x7
	switch raw >> 25 {
	case 0b0000000:
		switch f3 {
		case 0b000:
			op = OpAddw
		case 0b001:
			op = OpSllw
		case 0b101:
			op = OpSrlw
		default:
			return
		}
	case 0b0100000:
		switch f3 {
		case 0b000:
			op = OpSubw
		case 0b101:
			op = OpSraw
		default:
			return
		}
	case 0b0000001:
		if !d.hasM {
			return
		}
		switch f3 {
		case 0b000:
			op = OpMulw
		case 0b100:
			op = OpDivw
		case 0b101:
			op = OpDivuw
		case 0b110:
			op = OpRemw
		case 0b111:
			op = OpRemuw
		default:
			return
		}
	default:
		return
	}
	in.Op, in.Rd, in.Rs1, in.Rs2 = op, rd(raw), rs1(raw), rs2(raw)
}

// DecodeCompressed fills in from a 16-bit parcel by expanding the
// supported RVC subset to its base-ISA form. When the C extension is
// absent every 16-bit parcel is illegal.
func (d *decoder) DecodeCompressed(in *Inst, pc uint64, parcel uint16) {
	*in = Inst{PC: pc, Raw: uint32(parcel), Op: OpIllegal, Len: 2}
	if !d.hasC || parcel == 0 {
		return
	}

	r := uint32(parcel)
	f3 := r >> 13 & 0x7
	switch r & 0b11 {
	case 0b00:
		rdp := uint8(r>>2&0x7) + 8
		rs1p := uint8(r>>7&0x7) + 8
		switch f3 {
		case 0b000: // c.addi4spn
			imm := (r>>7&0xf)<<6 |
				(r>>11&0x3)<<4 |
				(r>>5&0x1)<<3 |
				(r>>6&0x1)<<2
			if imm == 0 {
				return
			}
			in.Op, in.Rd, in.Rs1, in.Imm = OpAddi, rdp, 2, int64(imm)
		case 0b010: // c.lw
			imm := (r>>5&0x1)<<6 | (r>>10&0x7)<<3 | (r>>6&0x1)<<2
			in.Op, in.Rd, in.Rs1, in.Imm = OpLw, rdp, rs1p, int64(imm)
		case 0b011: // c.ld
			if !d.rv64 {
				return
			}
			imm := (r>>5&0x3)<<6 | (r>>10&0x7)<<3
			in.Op, in.Rd, in.Rs1, in.Imm = OpLd, rdp, rs1p, int64(imm)
		case 0b110: // c.sw
			imm := (r>>5&0x1)<<6 | (r>>10&0x7)<<3 | (r>>6&0x1)<<2
			in.Op, in.Rs1, in.Rs2, in.Imm = OpSw, rs1p, rdp, int64(imm)
		case 0b111: // c.sd
			if !d.rv64 {
				return
			}
			imm := (r>>5&0x3)<<6 | (r>>10&0x7)<<3
			in.Op, in.Rs1, in.Rs2, in.Imm = OpSd, rs1p, rdp, int64(imm)
		}
	case 0b01:
		switch f3 {
		case 0b000: // c.addi (c.nop when rd=0)
			reg := rd(r)
			imm := signExtend((r>>12&0x1)<<5|r>>2&0x1f, 6)
			in.Op, in.Rd, in.Rs1, in.Imm = OpAddi, reg, reg, imm
		case 0b001: // c.addiw (rv64) / c.jal (rv32)
			if d.rv64 {
				reg := rd(r)
				if reg == 0 {
					return
				}
				imm := signExtend((r>>12&0x1)<<5|r>>2&0x1f, 6)
				in.Op, in.Rd, in.Rs1, in.Imm = OpAddiw, reg, reg, imm
			} else {
				in.Op, in.Rd, in.Imm = OpJal, 1, cjImm(r)
			}
		case 0b010: // c.li
			imm := signExtend((r>>12&0x1)<<5|r>>2&0x1f, 6)
			in.Op, in.Rd, in.Rs1, in.Imm = OpAddi, rd(r), 0, imm
		case 0b011:
			reg := rd(r)
			if reg == 2 { // c.addi16sp
				imm := signExtend((r>>12&0x1)<<9|
					(r>>3&0x3)<<7|
					(r>>5&0x1)<<6|
					(r>>2&0x1)<<5|
					(r>>6&0x1)<<4, 10)
				if imm == 0 {
					return
				}
				in.Op, in.Rd, in.Rs1, in.Imm = OpAddi, 2, 2, imm
			} else { // c.lui
				imm := signExtend((r>>12&0x1)<<17|(r>>2&0x1f)<<12, 18)
				if imm == 0 {
					return
				}
				in.Op, in.Rd, in.Imm = OpLui, reg, imm
			}
		case 0b100:
			d.decodeCompressedALU(in, r)
		case 0b101: // c.j
			in.Op, in.Rd, in.Imm = OpJal, 0, cjImm(r)
		case 0b110: // c.beqz
			in.Op, in.Rs1, in.Rs2, in.Imm = OpBeq, uint8(r>>7&0x7)+8, 0, cbImm(r)
		case 0b111: // c.bnez
			in.Op, in.Rs1, in.Rs2, in.Imm = OpBne, uint8(r>>7&0x7)+8, 0, cbImm(r)
		}
	case 0b10:
		switch f3 {
		case 0b000: // c.slli
			reg := rd(r)
			shamt := (r>>12&0x1)<<5 | r>>2&0x1f
			if !d.rv64 && shamt > 31 {
				return
			}
			in.Op, in.Rd, in.Rs1, in.Imm = OpSlli, reg, reg, int64(shamt)
		case 0b010: // c.lwsp
			reg := rd(r)
			if reg == 0 {
				return
			}
			imm := (r>>2&0x3)<<6 | (r>>12&0x1)<<5 | (r>>4&0x7)<<2
			in.Op, in.Rd, in.Rs1, in.Imm = OpLw, reg, 2, int64(imm)
		case 0b011: // c.ldsp
			reg := rd(r)
			if !d.rv64 || reg == 0 {
				return
			}
			imm := (r>>2&0x7)<<6 | (r>>12&0x1)<<5 | (r>>5&0x3)<<3
			in.Op, in.Rd, in.Rs1, in.Imm = OpLd, reg, 2, int64(imm)
		case 0b100:
			reg := rd(r)
			src := uint8(r>>2&0x1f)
			if r>>12&0x1 == 0 {
				if src == 0 { // c.jr
					if reg == 0 {
						return
					}
					in.Op, in.Rd, in.Rs1, in.Imm = OpJalr, 0, reg, 0
				} else { // c.mv
					in.Op, in.Rd, in.Rs1, in.Rs2 = OpAdd, reg, 0, src
				}
			} else {
				switch {
				case reg == 0 && src == 0: // c.ebreak
					in.Op = OpEbreak
				case src == 0: // c.jalr
					in.Op, in.Rd, in.Rs1, in.Imm = OpJalr, 1, reg, 0
				default: // c.add
					in.Op, in.Rd, in.Rs1, in.Rs2 = OpAdd, reg, reg, src
				}
			}
		case 0b110: // c.swsp
			imm := (r>>7&0x3)<<6 | (r>>9&0xf)<<2
			in.Op, in.Rs1, in.Rs2, in.Imm = OpSw, 2, uint8(r>>2&0x1f), int64(imm)
		case 0b111: // c.sdsp
			if !d.rv64 {
				return
			}
			imm := (r>>7&0x7)<<6 | (r>>10&0x7)<<3
			in.Op, in.Rs1, in.Rs2, in.Imm = OpSd, 2, uint8(r>>2&0x1f), int64(imm)
		}
	}
}

func (d *decoder) decodeCompressedALU(in *Inst, r uint32) {
	reg := uint8(r>>7&0x7) + 8
	switch r >> 10 & 0x3 {
	case 0b00: // c.srli
		shamt := (r>>12&0x1)<<5 | r>>2&0x1f
		if !d.rv64 && shamt > 31 {
			return
		}
		in.Op, in.Rd, in.Rs1, in.Imm = OpSrli, reg, reg, int64(shamt)
	case 0b01: // c.srai
		shamt := (r>>12&0x1)<<5 | r>>2&0x1f
		if !d.rv64 && shamt > 31 {
			return
		}
		in.Op, in.Rd, in.Rs1, in.Imm = OpSrai, reg, reg, int64(shamt)
	case 0b10: // c.andi
		imm := signExtend((r>>12&0x1)<<5|r>>2&0x1f, 6)
		in.Op, in.Rd, in.Rs1, in.Imm = OpAndi, reg, reg, imm
	case 0b11:
		src := uint8(r>>2&0x7) + 8
		if r>>12&0x1 == 0 {
			ops := [4]Opcode{OpSub, OpXor, OpOr, OpAnd}
			in.Op = ops[r>>5&0x3]
		} else {
			if !d.rv64 {
				return
			}
			switch r >> 5 & 0x3 {
			case 0b00:
				in.Op = OpSubw
			case 0b01:
				in.Op = OpAddw
			default:
				return
			}
		}
		in.Rd, in.Rs1, in.Rs2 = reg, reg, src
	}
}

// cjImm extracts the CJ-format jump offset.
func cjImm(r uint32) int64 {
	v := (r>>12&0x1)<<11 |
		(r>>8&0x1)<<10 |
		(r>>9&0x3)<<8 |
		(r>>6&0x1)<<7 |
		(r>>7&0x1)<<6 |
		(r>>2&0x1)<<5 |
		(r>>11&0x1)<<4 |
		(r>>3&0x7)<<1
	return signExtend(v, 12)
}

// cbImm extracts the CB-format branch offset.
func cbImm(r uint32) int64 {
	v := (r>>12&0x1)<<8 |
		(r>>5&0x3)<<6 |
		(r>>2&0x1)<<5 |
		(r>>10&0x3)<<3 |
		(r>>3&0x3)<<1
	return signExtend(v, 9)
}
