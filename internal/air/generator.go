package air

import (
	"github.com/google/uuid"

	"github.com/loomlang/loom/internal/ast"
	"github.com/loomlang/loom/internal/diagnostic"
)

const wordSize = 4

// Generator holds the stateful bookkeeping needed to lower an AST into a
// flat AIR instruction sequence: the next free virtual register, the next
// free memory address, and the two binding tables (scalar variables to
// registers, array variables to base addresses).
type Generator struct {
	nextReg     Register
	nextMemAddr uint32

	variables map[string]Register
	pointers  map[string]uint32
}

// NewGenerator returns a Generator with empty bindings starting register
// and memory allocation at zero.
func NewGenerator() *Generator {
	return &Generator{
		variables: make(map[string]Register),
		pointers:  make(map[string]uint32),
	}
}

func (g *Generator) allocReg() Register {
	r := g.nextReg
	g.nextReg++
	return r
}

// GenerateProgram lowers a full statement list into a flat instruction
// sequence, concatenating each statement's block in order.
func (g *Generator) GenerateProgram(stmts []ast.Statement) ([]Instruction, error) {
	var out []Instruction
	for _, stmt := range stmts {
		block, err := g.lowerStatement(stmt)
		if err != nil {
			return nil, err
		}
		out = append(out, block.Instructions()...)
	}
	return out, nil
}

func (g *Generator) lowerStatement(stmt ast.Statement) (Block, error) {
	switch stmt.Kind {
	case ast.StmtLet:
		return g.lowerLet(stmt.Let)
	case ast.StmtMutate:
		return g.lowerMutate(stmt.Mutate)
	case ast.StmtExpr:
		return g.lowerExpr(stmt.Expr)
	case ast.StmtIf:
		return g.lowerIf(stmt.If)
	case ast.StmtWhile:
		return g.lowerWhile(stmt.While)
	case ast.StmtYield:
		return g.lowerYield(stmt.Expr)
	default:
		panic("lowerStatement: unknown statement kind")
	}
}

// lowerLet implements spec.md 4.4's `let v := e` rule: if e is an array
// literal, the base address is captured *before* lowering the array's
// elements (so it reflects the address at the start of allocation), and v
// is bound as a pointer rather than a register variable. Otherwise e is
// lowered normally and v is bound to its output register; an expression
// producing no value is a NullValueExpression.
func (g *Generator) lowerLet(l ast.Let) (Block, error) {
	if l.Value.Kind == ast.ExprArray {
		g.pointers[l.Variable] = g.nextMemAddr
		block, err := g.lowerExpr(l.Value)
		if err != nil {
			return Block{}, err
		}
		return block, nil
	}

	block, err := g.lowerExpr(l.Value)
	if err != nil {
		return Block{}, err
	}
	reg, ok := block.OutputRegister()
	if !ok {
		return Block{}, &diagnostic.LowerError{Kind: diagnostic.NullValueExpression, Span: l.Span}
	}
	g.variables[l.Variable] = reg
	return block, nil
}

func (g *Generator) lowerMutate(m ast.Mutate) (Block, error) {
	reg, ok := g.variables[m.Variable]
	if !ok {
		return Block{}, &diagnostic.LowerError{Kind: diagnostic.UninitialisedVariable, Span: m.Span, Name: m.Variable}
	}
	block, err := g.lowerExpr(m.Value)
	if err != nil {
		return Block{}, err
	}
	valueReg, ok := block.OutputRegister()
	if !ok {
		return Block{}, &diagnostic.LowerError{Kind: diagnostic.NullValueExpression, Span: m.Span}
	}
	block.Append(MOV(reg, valueReg, m.Span))
	return block, nil
}

func (g *Generator) lowerYield(expr *ast.Expression) (Block, error) {
	block, err := g.lowerExpr(expr)
	if err != nil {
		return Block{}, err
	}
	if reg, ok := block.OutputRegister(); ok {
		block.Append(YLD(reg, expr.Span))
	}
	return block, nil
}

// lowerIf implements spec.md 4.4's if-lowering: lower the condition, emit a
// CHK on its flag hint (or Nv if the condition contained no comparison,
// making the body permanently dead — the documented sentinel), a BRA to the
// body label, and a BRA to an end label placed after the body. When the
// condition holds, CHK falls through into the branch to the body; when it
// doesn't, CHK skips that branch and the next BRA jumps past the body
// entirely.
func (g *Generator) lowerIf(i ast.If) (Block, error) {
	block, err := g.lowerExpr(i.Condition)
	if err != nil {
		return Block{}, err
	}

	hint, ok := block.LatestFlagHint()
	if !ok {
		hint = Nv
	}
	label := uuid.NewString() + "-if"
	endLabel := uuid.NewString() + "-if-end"

	block.Append(CHK(hint, i.Span))
	block.Append(BRA(label, i.Span))
	block.Append(BRA(endLabel, i.Span))
	block.Append(LBL(label, i.Span))

	for _, stmt := range i.Body {
		bodyBlock, err := g.lowerStatement(stmt)
		if err != nil {
			return Block{}, err
		}
		block.Extend(bodyBlock)
	}
	block.Append(LBL(endLabel, i.Span))
	return block, nil
}

// lowerWhile implements spec.md 4.4's while-lowering: a condition label,
// the condition, a CHK on the *negated* flag hint that exits the loop when
// the condition no longer holds, the body, and an unconditional branch back
// to the condition label. This differs from the original Rust
// implementation (which emits a dangling BRA to a loop label that is never
// defined, an apparent bug); the clean, self-consistent algorithm spec.md
// describes is implemented here instead.
func (g *Generator) lowerWhile(w ast.While) (Block, error) {
	condLabel := uuid.NewString() + "-check-condition"
	breakLabel := uuid.NewString() + "-break"

	block := NewBlock(LBL(condLabel, w.Span))

	condBlock, err := g.lowerExpr(w.Condition)
	if err != nil {
		return Block{}, err
	}
	block.Extend(condBlock)

	// With no comparison the hint is Nv, so the exit test is CHK al: the
	// loop always exits before its body runs.
	hint, ok := condBlock.LatestFlagHint()
	if !ok {
		hint = Nv
	}

	block.Append(CHK(hint.Negate(), w.Span))
	block.Append(BRA(breakLabel, w.Span))

	for _, stmt := range w.Body {
		bodyBlock, err := g.lowerStatement(stmt)
		if err != nil {
			return Block{}, err
		}
		block.Extend(bodyBlock)
	}

	block.Append(BRA(condLabel, w.Span))
	block.Append(LBL(breakLabel, w.Span))
	block.SetOutputRegister(0, false)
	return block, nil
}

func (g *Generator) lowerExpr(e *ast.Expression) (Block, error) {
	switch e.Kind {
	case ast.ExprLiteral:
		return g.lowerLiteral(e.Literal)

	case ast.ExprIdentifier:
		reg, ok := g.variables[e.Identifier.Name]
		if !ok {
			return Block{}, &diagnostic.LowerError{
				Kind: diagnostic.UninitialisedVariable, Span: e.Span, Name: e.Identifier.Name,
			}
		}
		b := EmptyBlock()
		b.SetOutputRegister(reg, true)
		return b, nil

	case ast.ExprGroup:
		return g.lowerExpr(e.Inner)

	case ast.ExprUnary:
		return g.lowerUnary(e)

	case ast.ExprBinary:
		return g.lowerBinary(e)

	case ast.ExprArray:
		return g.lowerArray(e)

	case ast.ExprIndex:
		return g.lowerIndex(e)

	default:
		panic("lowerExpr: unknown expression kind")
	}
}

func (g *Generator) lowerLiteral(lit ast.Literal) (Block, error) {
	rd := g.allocReg()
	var value uint32
	switch lit.Kind {
	case ast.LitBool:
		if lit.Bool {
			value = 1
		}
	case ast.LitChar:
		value = uint32(lit.Ch)
	case ast.LitNumber:
		value = uint32(lit.Num)
	}
	return NewBlock(CON(rd, value, lit.Span)), nil
}

func (g *Generator) lowerUnary(e *ast.Expression) (Block, error) {
	inner, err := g.lowerExpr(e.Inner)
	if err != nil {
		return Block{}, err
	}
	innerOut, ok := inner.OutputRegister()
	if !ok {
		return Block{}, &diagnostic.LowerError{Kind: diagnostic.NullValueExpression, Span: e.Span}
	}

	switch e.Op {
	case ast.Not:
		rd := g.allocReg()
		inner.Append(NOT(rd, innerOut, e.Span))
		return inner, nil
	case ast.Minus:
		rz := g.allocReg()
		rd := g.allocReg()
		inner.Append(CON(rz, 0, e.Span))
		inner.Append(SUB(rd, rz, innerOut, e.Span))
		return inner, nil
	default:
		return Block{}, &diagnostic.ParseError{Kind: diagnostic.InvalidUnaryOperator, Span: e.Span}
	}
}

func (g *Generator) lowerBinary(e *ast.Expression) (Block, error) {
	left, err := g.lowerExpr(e.Left)
	if err != nil {
		return Block{}, err
	}
	right, err := g.lowerExpr(e.Right)
	if err != nil {
		return Block{}, err
	}
	leftOut, ok := left.OutputRegister()
	if !ok {
		return Block{}, &diagnostic.LowerError{Kind: diagnostic.NullValueExpression, Span: e.Left.Span}
	}
	rightOut, ok := right.OutputRegister()
	if !ok {
		return Block{}, &diagnostic.LowerError{Kind: diagnostic.NullValueExpression, Span: e.Right.Span}
	}

	block := left
	block.Extend(right)

	if hint, isComparison := comparisonFlag(e.Op); isComparison {
		block.Append(CMP(leftOut, rightOut, hint, true, e.Span))
		block.SetOutputRegister(0, false)
		return block, nil
	}

	rd := g.allocReg()
	switch e.Op {
	case ast.Plus:
		block.Append(ADD(rd, leftOut, rightOut, e.Span))
	case ast.Minus:
		block.Append(SUB(rd, leftOut, rightOut, e.Span))
	case ast.Multiply:
		block.Append(MUL(rd, leftOut, rightOut, e.Span))
	case ast.Divide:
		block.Append(DIV(rd, leftOut, rightOut, e.Span))
	default:
		return Block{}, &diagnostic.ParseError{Kind: diagnostic.InvalidBinaryOperator, Span: e.Span}
	}
	return block, nil
}

// comparisonFlag maps a comparison OperatorType to the flag hint recorded on
// its CMP. The parser stores no hint on the AST; the hint is derived here,
// at lowering time, from the operator alone.
func comparisonFlag(op ast.OperatorType) (Flag, bool) {
	switch op {
	case ast.LessThan:
		return Lt, true
	case ast.LessThanEq:
		return Le, true
	case ast.GreaterThan:
		return Gt, true
	case ast.GreaterThanEq:
		return Ge, true
	case ast.Equal:
		return Eq, true
	case ast.NotEqual:
		return Ne, true
	default:
		return Nv, false
	}
}

// lowerArray implements spec.md 4.4's array-literal rule: rbase holds the
// current heap address, rofs holds the word size, and each element is
// stored then the base pointer post-incremented. The block's output
// register is cleared: the caller (lowerLet) is expected to bind the
// variable name as a pointer rather than consume a value here.
func (g *Generator) lowerArray(e *ast.Expression) (Block, error) {
	base := g.nextMemAddr
	g.nextMemAddr += uint32(len(e.Elements)) * wordSize

	rbase := g.allocReg()
	rofs := g.allocReg()
	block := NewBlock(CON(rbase, base, e.Span))
	block.Append(CON(rofs, wordSize, e.Span))

	mode := AddressingMode{Kind: PostOffset, Reg: rofs}
	for _, elem := range e.Elements {
		elemBlock, err := g.lowerExpr(elem)
		if err != nil {
			return Block{}, err
		}
		elemOut, ok := elemBlock.OutputRegister()
		if !ok {
			return Block{}, &diagnostic.LowerError{Kind: diagnostic.NullValueExpression, Span: elem.Span}
		}
		block.Extend(elemBlock)
		block.Append(STR(elemOut, rbase, mode, elem.Span))
	}

	block.SetOutputRegister(0, false)
	return block, nil
}

// lowerIndex implements spec.md 4.4's array-index rule: resolve the
// variable's base address, compute index*wordSize, and LDR the element.
func (g *Generator) lowerIndex(e *ast.Expression) (Block, error) {
	base, ok := g.pointers[e.Identifier.Name]
	if !ok {
		return Block{}, &diagnostic.LowerError{
			Kind: diagnostic.UninitialisedPointer, Span: e.Span, Name: e.Identifier.Name,
		}
	}

	idxBlock, err := g.lowerExpr(e.Index)
	if err != nil {
		return Block{}, err
	}
	idxOut, ok := idxBlock.OutputRegister()
	if !ok {
		return Block{}, &diagnostic.LowerError{Kind: diagnostic.NullValueExpression, Span: e.Index.Span}
	}

	rbase := g.allocReg()
	rword := g.allocReg()
	ri := g.allocReg()
	rdata := g.allocReg()

	block := NewBlock(CON(rbase, base, e.Span))
	block.Extend(idxBlock)
	block.Append(CON(rword, wordSize, e.Span))
	block.Append(MUL(ri, idxOut, rword, e.Span))
	block.Append(LDR(rdata, rbase, AddressingMode{Kind: Offset, Reg: ri}, e.Span))
	block.SetOutputRegister(rdata, true)
	return block, nil
}
