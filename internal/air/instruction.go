// Package air implements AIR ("Assembly Intermediate Representation"), the
// flat register-machine instruction sequence that internal/vm executes.
package air

import "github.com/loomlang/loom/internal/span"

// Register names a virtual register, allocated monotonically starting at 0.
// Registers are never reused or freed.
type Register uint32

// Flag is a condition-code bit set by CMP and tested by CHK. Al is always
// set (at VM init, permanently); Nv is never set and is treated as a
// synthetic "never" probe rather than a real bit in the mask.
type Flag int

const (
	Al Flag = iota
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	Nv
)

func (f Flag) String() string {
	switch f {
	case Al:
		return "al"
	case Eq:
		return "eq"
	case Ne:
		return "ne"
	case Lt:
		return "lt"
	case Le:
		return "le"
	case Gt:
		return "gt"
	case Ge:
		return "ge"
	case Nv:
		return "nv"
	default:
		return "?"
	}
}

// Negate returns the flag testing the opposite condition, used by while-loop
// lowering to invert a comparison's hint into its loop-exit test.
func (f Flag) Negate() Flag {
	switch f {
	case Al:
		return Nv
	case Nv:
		return Al
	case Eq:
		return Ne
	case Ne:
		return Eq
	case Lt:
		return Ge
	case Ge:
		return Lt
	case Gt:
		return Le
	case Le:
		return Gt
	default:
		return Nv
	}
}

// bit returns the mask bit this flag occupies, or 0 for the synthetic Nv
// flag, which is never set in the VM's flag mask.
func (f Flag) bit() uint16 {
	switch f {
	case Al:
		return 1 << 0
	case Eq:
		return 1 << 1
	case Ne:
		return 1 << 2
	case Lt:
		return 1 << 3
	case Le:
		return 1 << 4
	case Gt:
		return 1 << 5
	case Ge:
		return 1 << 6
	default:
		return 0
	}
}

// Bit exposes the flag's mask bit for internal/vm's flag-register logic.
func (f Flag) Bit() uint16 { return f.bit() }

// AddressingMode controls how an address register combines with an offset
// register during a STR/LDR.
type AddressingMode struct {
	Kind AddressingKind
	Reg  Register // meaningful for Offset/PreOffset/PostOffset
}

type AddressingKind int

const (
	Plain AddressingKind = iota
	Offset
	PreOffset
	PostOffset
)

// Op identifies an AIR instruction's opcode.
type Op int

const (
	OpADD Op = iota
	OpSUB
	OpMUL
	OpDIV
	OpCON
	OpMOV
	OpNOT
	OpCMP
	OpCHK
	OpBRA
	OpLBL
	OpYLD
	OpSTR
	OpLDR
)

// Instruction is a single AIR operation, span-tagged from the AST node that
// produced it (compound instructions inherit joined spans).
type Instruction struct {
	Op   Op
	Span span.Span

	Rd, Rx, Ry Register
	Const      uint32
	Flag       Flag
	// Hint records the flag that a CMP's source comparison operator stands
	// for (set by the generator when it lowers the comparison), so the
	// flag-hint scan can recover it from the instructions alone. Unused by
	// every other opcode.
	Hint    Flag
	HasHint bool
	Label   string
	Mode    AddressingMode
}

func newInst(op Op, sp span.Span) Instruction {
	return Instruction{Op: op, Span: sp}
}

func ADD(rd, rx, ry Register, sp span.Span) Instruction {
	i := newInst(OpADD, sp)
	i.Rd, i.Rx, i.Ry = rd, rx, ry
	return i
}

func SUB(rd, rx, ry Register, sp span.Span) Instruction {
	i := newInst(OpSUB, sp)
	i.Rd, i.Rx, i.Ry = rd, rx, ry
	return i
}

func MUL(rd, rx, ry Register, sp span.Span) Instruction {
	i := newInst(OpMUL, sp)
	i.Rd, i.Rx, i.Ry = rd, rx, ry
	return i
}

func DIV(rd, rx, ry Register, sp span.Span) Instruction {
	i := newInst(OpDIV, sp)
	i.Rd, i.Rx, i.Ry = rd, rx, ry
	return i
}

func CON(rd Register, value uint32, sp span.Span) Instruction {
	i := newInst(OpCON, sp)
	i.Rd, i.Const = rd, value
	return i
}

func MOV(rd, rx Register, sp span.Span) Instruction {
	i := newInst(OpMOV, sp)
	i.Rd, i.Rx = rd, rx
	return i
}

func NOT(rd, rx Register, sp span.Span) Instruction {
	i := newInst(OpNOT, sp)
	i.Rd, i.Rx = rd, rx
	return i
}

// CMP compares rx and ry and, if hint is given, records the author's
// intended flag for later flag-hint discovery.
func CMP(rx, ry Register, hint Flag, hasHint bool, sp span.Span) Instruction {
	i := newInst(OpCMP, sp)
	i.Rx, i.Ry = rx, ry
	i.Hint, i.HasHint = hint, hasHint
	return i
}

func CHK(f Flag, sp span.Span) Instruction {
	i := newInst(OpCHK, sp)
	i.Flag = f
	return i
}

func BRA(label string, sp span.Span) Instruction {
	i := newInst(OpBRA, sp)
	i.Label = label
	return i
}

func LBL(label string, sp span.Span) Instruction {
	i := newInst(OpLBL, sp)
	i.Label = label
	return i
}

func YLD(rx Register, sp span.Span) Instruction {
	i := newInst(OpYLD, sp)
	i.Rx = rx
	return i
}

func STR(rsrc, raddr Register, mode AddressingMode, sp span.Span) Instruction {
	i := newInst(OpSTR, sp)
	i.Rx, i.Ry = rsrc, raddr
	i.Mode = mode
	return i
}

func LDR(rdst, raddr Register, mode AddressingMode, sp span.Span) Instruction {
	i := newInst(OpLDR, sp)
	i.Rd, i.Ry = rdst, raddr
	i.Mode = mode
	return i
}

// OutputRegister returns the register this instruction writes a
// value-producing result to, or (0, false) for instructions with no output
// (CMP, CHK, BRA, LBL, YLD, STR).
func (i Instruction) OutputRegister() (Register, bool) {
	switch i.Op {
	case OpADD, OpSUB, OpMUL, OpDIV, OpCON, OpMOV, OpNOT, OpLDR:
		return i.Rd, true
	default:
		return 0, false
	}
}
