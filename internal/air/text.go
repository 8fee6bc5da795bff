package air

import (
	"fmt"
	"strings"
)

// Text renders a full instruction sequence in the textual IR form described
// by spec.md 6, one instruction per line.
func Text(instructions []Instruction) string {
	var b strings.Builder
	for _, inst := range instructions {
		b.WriteString(inst.Text())
		b.WriteByte('\n')
	}
	return b.String()
}

// Text renders a single instruction. Labels render as `name:` with no
// leading indentation; every other opcode renders as `OP operands`.
func (i Instruction) Text() string {
	switch i.Op {
	case OpADD:
		return fmt.Sprintf("ADD %%%d, %%%d, %%%d", i.Rd, i.Rx, i.Ry)
	case OpSUB:
		return fmt.Sprintf("SUB %%%d, %%%d, %%%d", i.Rd, i.Rx, i.Ry)
	case OpMUL:
		return fmt.Sprintf("MUL %%%d, %%%d, %%%d", i.Rd, i.Rx, i.Ry)
	case OpDIV:
		return fmt.Sprintf("DIV %%%d, %%%d, %%%d", i.Rd, i.Rx, i.Ry)
	case OpCON:
		return fmt.Sprintf("CONST %%%d, =%#x", i.Rd, i.Const)
	case OpMOV:
		return fmt.Sprintf("MOV %%%d, %%%d", i.Rd, i.Rx)
	case OpNOT:
		return fmt.Sprintf("NOT %%%d, %%%d", i.Rd, i.Rx)
	case OpCMP:
		return fmt.Sprintf("CMP %%%d, %%%d", i.Rx, i.Ry)
	case OpCHK:
		return fmt.Sprintf("CHK %s", i.Flag)
	case OpBRA:
		return fmt.Sprintf("BRA %s", i.Label)
	case OpLBL:
		return fmt.Sprintf("%s:", i.Label)
	case OpYLD:
		return fmt.Sprintf("YLD %%%d", i.Rx)
	case OpSTR:
		return fmt.Sprintf("STR %%%d, %s", i.Rx, addrText(i.Ry, i.Mode))
	case OpLDR:
		return fmt.Sprintf("LDR %%%d, %s", i.Rd, addrText(i.Ry, i.Mode))
	default:
		return "???"
	}
}

// addrText renders the four STR/LDR addressing-mode forms:
//
//	Plain:      [%addr]
//	Offset:     [%addr, %ofs]
//	PreOffset:  [%addr, %ofs]!
//	PostOffset: [%addr], %ofs
func addrText(addr Register, mode AddressingMode) string {
	switch mode.Kind {
	case Plain:
		return fmt.Sprintf("[%%%d]", addr)
	case Offset:
		return fmt.Sprintf("[%%%d, %%%d]", addr, mode.Reg)
	case PreOffset:
		return fmt.Sprintf("[%%%d, %%%d]!", addr, mode.Reg)
	case PostOffset:
		return fmt.Sprintf("[%%%d], %%%d", addr, mode.Reg)
	default:
		return fmt.Sprintf("[%%%d]", addr)
	}
}
