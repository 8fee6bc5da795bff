package vm

import (
	"github.com/loomlang/loom/internal/air"
	"github.com/loomlang/loom/internal/diagnostic"
)

// step executes the instruction at pc and advances it, returning false once
// the instruction stream is exhausted. CHK and BRA may move pc themselves
// from inside process; step's own advance always runs afterward, so a branch
// to a label lands one past the label (the label itself is a no-op marker)
// and a taken CHK skip compounds with step's advance to skip a full
// instruction.
func (m *VM) step() (bool, *diagnostic.RuntimeFault) {
	if m.pc >= len(m.instructions) {
		return false, nil
	}

	inst := m.instructions[m.pc]
	if fault := m.process(inst); fault != nil {
		return false, fault
	}
	m.pc++
	return true, nil
}

func (m *VM) process(inst air.Instruction) *diagnostic.RuntimeFault {
	switch inst.Op {
	case air.OpADD:
		x, err := m.get(inst.Rx)
		if err != nil {
			return err
		}
		y, err := m.get(inst.Ry)
		if err != nil {
			return err
		}
		m.save(inst.Rd, x+y)

	case air.OpSUB:
		x, err := m.get(inst.Rx)
		if err != nil {
			return err
		}
		y, err := m.get(inst.Ry)
		if err != nil {
			return err
		}
		m.save(inst.Rd, x-y)

	case air.OpMUL:
		x, err := m.get(inst.Rx)
		if err != nil {
			return err
		}
		y, err := m.get(inst.Ry)
		if err != nil {
			return err
		}
		m.save(inst.Rd, x*y)

	case air.OpDIV:
		x, err := m.get(inst.Rx)
		if err != nil {
			return err
		}
		y, err := m.get(inst.Ry)
		if err != nil {
			return err
		}
		if y == 0 {
			return &diagnostic.RuntimeFault{Kind: diagnostic.DivisionByZero, PC: m.pc}
		}
		m.save(inst.Rd, x/y)

	case air.OpCON:
		m.save(inst.Rd, inst.Const)

	case air.OpMOV:
		x, err := m.get(inst.Rx)
		if err != nil {
			return err
		}
		m.save(inst.Rd, x)

	case air.OpNOT:
		x, err := m.get(inst.Rx)
		if err != nil {
			return err
		}
		m.save(inst.Rd, ^x)

	case air.OpCMP:
		x, err := m.get(inst.Rx)
		if err != nil {
			return err
		}
		y, err := m.get(inst.Ry)
		if err != nil {
			return err
		}
		m.setFlags(x, y)

	case air.OpCHK:
		if !m.flagSet(inst.Flag) {
			m.pc++
		}

	case air.OpBRA:
		idx, ok := m.labels[inst.Label]
		if !ok {
			return &diagnostic.RuntimeFault{Kind: diagnostic.MissingBranchTarget, PC: m.pc}
		}
		m.pc = idx

	case air.OpLBL:
		// marker only

	case air.OpYLD:
		x, err := m.get(inst.Rx)
		if err != nil {
			return err
		}
		m.out.send(yieldMessage(x))

	case air.OpSTR:
		x, err := m.get(inst.Rx)
		if err != nil {
			return err
		}
		return m.store(inst.Ry, x, inst.Mode)

	case air.OpLDR:
		val, err := m.load(inst.Ry, inst.Mode)
		if err != nil {
			return err
		}
		m.save(inst.Rd, val)
	}

	return nil
}

// get reads a register, faulting if it was never written. The interpreter
// never zero-initializes registers implicitly: reading one before a CON/MOV
// /arithmetic write targets it is a program bug surfaced as a fault rather
// than silently treated as zero.
func (m *VM) get(r air.Register) (uint32, *diagnostic.RuntimeFault) {
	v, ok := m.registers[r]
	if !ok {
		return 0, &diagnostic.RuntimeFault{Kind: diagnostic.UninitialisedRegister, PC: m.pc, Register: int(r)}
	}
	return v, nil
}

func (m *VM) save(r air.Register, v uint32) {
	m.registers[r] = v
}

// setFlags ORs the appropriate condition bits into the flag mask for the
// comparison of x and y. Flags accumulate across the whole run and are never
// cleared; a later CHK can observe a condition set by an earlier CMP even if
// the current values no longer satisfy it.
func (m *VM) setFlags(x, y uint32) {
	if x == y {
		m.flags |= air.Eq.Bit()
	}
	if x != y {
		m.flags |= air.Ne.Bit()
	}
	if x < y {
		m.flags |= air.Lt.Bit()
	}
	if x <= y {
		m.flags |= air.Le.Bit()
	}
	if x > y {
		m.flags |= air.Gt.Bit()
	}
	if x >= y {
		m.flags |= air.Ge.Bit()
	}
}

// flagSet reports whether flag is currently set. Nv is a synthetic "never"
// probe: it occupies no real bit and always reads false.
func (m *VM) flagSet(f air.Flag) bool {
	if f == air.Nv {
		return false
	}
	return m.flags&f.Bit() != 0
}

// addrOf resolves the effective address for a STR/LDR given its base
// register and addressing mode, applying PreOffset's immediate write-back.
// PostOffset's write-back happens after the access completes, in the
// caller.
func (m *VM) addrOf(base air.Register, mode air.AddressingMode) (uint32, *diagnostic.RuntimeFault) {
	baseVal, err := m.get(base)
	if err != nil {
		return 0, err
	}

	switch mode.Kind {
	case air.Plain, air.PostOffset:
		return baseVal, nil
	case air.Offset:
		ofs, err := m.get(mode.Reg)
		if err != nil {
			return 0, err
		}
		return baseVal + ofs, nil
	case air.PreOffset:
		ofs, err := m.get(mode.Reg)
		if err != nil {
			return 0, err
		}
		addr := baseVal + ofs
		m.save(base, addr)
		return addr, nil
	default:
		return baseVal, nil
	}
}

func (m *VM) postWriteback(base air.Register, mode air.AddressingMode) *diagnostic.RuntimeFault {
	if mode.Kind != air.PostOffset {
		return nil
	}
	baseVal, err := m.get(base)
	if err != nil {
		return err
	}
	ofs, err := m.get(mode.Reg)
	if err != nil {
		return err
	}
	m.save(base, baseVal+ofs)
	return nil
}

// store writes value to memory at the address resolved from base/mode,
// encoded big-endian across 4 bytes.
func (m *VM) store(base air.Register, value uint32, mode air.AddressingMode) *diagnostic.RuntimeFault {
	addr, err := m.addrOf(base, mode)
	if err != nil {
		return err
	}
	if err := m.boundsCheck(addr); err != nil {
		return err
	}

	a := int(addr)
	m.memory[a] = byte(value >> 24)
	m.memory[a+1] = byte(value >> 16)
	m.memory[a+2] = byte(value >> 8)
	m.memory[a+3] = byte(value)

	return m.postWriteback(base, mode)
}

// load reads a big-endian uint32 from the address resolved from base/mode.
func (m *VM) load(base air.Register, mode air.AddressingMode) (uint32, *diagnostic.RuntimeFault) {
	addr, err := m.addrOf(base, mode)
	if err != nil {
		return 0, err
	}
	if err := m.boundsCheck(addr); err != nil {
		return 0, err
	}

	a := int(addr)
	val := uint32(m.memory[a])<<24 | uint32(m.memory[a+1])<<16 | uint32(m.memory[a+2])<<8 | uint32(m.memory[a+3])

	if err := m.postWriteback(base, mode); err != nil {
		return 0, err
	}
	return val, nil
}

func (m *VM) boundsCheck(addr uint32) *diagnostic.RuntimeFault {
	if int(addr)+4 > len(m.memory) {
		return &diagnostic.RuntimeFault{Kind: diagnostic.MemoryOutOfBounds, PC: m.pc, Address: int(addr)}
	}
	return nil
}
