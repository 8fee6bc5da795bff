package air

// Block is a sequence of AIR instructions plus a designated output
// register: the register holding the value that a consumer of the block
// should read. Blocks concatenate; the result's output register is the
// last non-empty one encountered, matching the lowering algorithm's
// "last value-producing instruction wins" rule.
type Block struct {
	instructions []Instruction
	output       Register
	hasOutput    bool
}

// EmptyBlock returns a Block with no instructions and no output register,
// the identity element for Append/Extend.
func EmptyBlock() Block {
	return Block{}
}

// NewBlock wraps a single instruction, deriving its output register.
func NewBlock(inst Instruction) Block {
	b := Block{instructions: []Instruction{inst}}
	if reg, ok := inst.OutputRegister(); ok {
		b.output, b.hasOutput = reg, true
	}
	return b
}

// FromInstructions builds a Block from an already-built instruction slice,
// scanning from the end for the last value-producing instruction.
func FromInstructions(instructions []Instruction) Block {
	b := Block{instructions: instructions}
	for i := len(instructions) - 1; i >= 0; i-- {
		if reg, ok := instructions[i].OutputRegister(); ok {
			b.output, b.hasOutput = reg, true
			break
		}
	}
	return b
}

// Append adds inst to the block, updating the output register if inst
// produces one.
func (b *Block) Append(inst Instruction) {
	if reg, ok := inst.OutputRegister(); ok {
		b.output, b.hasOutput = reg, true
	}
	b.instructions = append(b.instructions, inst)
}

// Extend appends every instruction in other to b, taking other's output
// register if it has one and otherwise keeping b's.
func (b *Block) Extend(other Block) {
	b.instructions = append(b.instructions, other.instructions...)
	if other.hasOutput {
		b.output, b.hasOutput = other.output, true
	}
}

// OutputRegister returns the block's output register, if any.
func (b Block) OutputRegister() (Register, bool) {
	return b.output, b.hasOutput
}

// SetOutputRegister overrides the block's output register directly, used
// when a caller (e.g. array-literal lowering) wants to suppress the natural
// last-write output in favor of no output at all, or a specific one.
func (b *Block) SetOutputRegister(reg Register, has bool) {
	b.output, b.hasOutput = reg, has
}

// LatestFlagHint scans the block's instructions in reverse and returns the
// flag hint of the most recent CMP, or (Nv, false) if none exists. Nv is the
// documented sentinel for "no comparison happened" (spec's Open Questions:
// CHK with no preceding CMP uses the never-true flag).
func (b Block) LatestFlagHint() (Flag, bool) {
	for i := len(b.instructions) - 1; i >= 0; i-- {
		inst := b.instructions[i]
		if inst.Op == OpCMP && inst.HasHint {
			return inst.Hint, true
		}
	}
	return Nv, false
}

// Instructions returns the block's instruction sequence.
func (b Block) Instructions() []Instruction {
	return b.instructions
}
