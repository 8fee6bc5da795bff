package air

import (
	"testing"

	"github.com/loomlang/loom/internal/lexer"
	"github.com/loomlang/loom/internal/parser"
	"github.com/loomlang/loom/internal/span"
)

func zeroSpan() span.Span { return span.New(0, 0) }

func TestFlagNegateIsInvolution(t *testing.T) {
	for _, f := range []Flag{Al, Nv, Eq, Ne, Lt, Ge, Gt, Le} {
		if f.Negate().Negate() != f {
			t.Fatalf("Negate should be its own inverse, broke on %s", f)
		}
	}
}

func TestBlockOutputRegisterTracksLastWrite(t *testing.T) {
	b := NewBlock(CON(0, 5, zeroSpan()))
	b.Append(CON(1, 7, zeroSpan()))
	b.Append(CMP(0, 1, Lt, true, zeroSpan())) // CMP has no output register

	reg, ok := b.OutputRegister()
	if !ok || reg != 1 {
		t.Fatalf("expected output register to remain 1 after a non-output instruction, got (%d, %v)", reg, ok)
	}
}

func TestLatestFlagHintReturnsMostRecentCMP(t *testing.T) {
	b := NewBlock(CMP(0, 1, Lt, true, zeroSpan()))
	b.Append(CMP(0, 1, Eq, true, zeroSpan()))

	hint, ok := b.LatestFlagHint()
	if !ok || hint != Eq {
		t.Fatalf("expected latest hint Eq, got (%s, %v)", hint, ok)
	}
}

func lower(t *testing.T, src string) []Instruction {
	t.Helper()
	toks, err := lexer.Run(src)
	if err != nil {
		t.Fatalf("lexing %q: %v", src, err)
	}
	stmts, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parsing %q: %v", src, err)
	}
	instrs, err := NewGenerator().GenerateProgram(stmts)
	if err != nil {
		t.Fatalf("lowering %q: %v", src, err)
	}
	return instrs
}

func TestLowerYieldLiteral(t *testing.T) {
	instrs := lower(t, "yield 5;")
	if len(instrs) != 2 || instrs[0].Op != OpCON || instrs[1].Op != OpYLD {
		t.Fatalf("expected CON then YLD, got %+v", instrs)
	}
}

func TestLowerIfEmitsCheckBranchLabel(t *testing.T) {
	instrs := lower(t, "let r := 1;\nif r < 5 { yield r; }")
	var sawCHK, sawBRA, sawLBL bool
	for _, i := range instrs {
		switch i.Op {
		case OpCHK:
			sawCHK = true
		case OpBRA:
			sawBRA = true
		case OpLBL:
			sawLBL = true
		}
	}
	if !sawCHK || !sawBRA || !sawLBL {
		t.Fatalf("expected CHK/BRA/LBL in if-lowering, got %+v", instrs)
	}
}

func TestLowerWhileDefinesConditionAndBreakLabels(t *testing.T) {
	instrs := lower(t, "let r := 1;\nwhile r < 5 { r := r + 1; }")
	labels := map[string]bool{}
	for _, i := range instrs {
		if i.Op == OpLBL {
			labels[i.Label] = true
		}
	}
	if len(labels) != 2 {
		t.Fatalf("expected exactly 2 labels (condition + break), got %d: %+v", len(labels), labels)
	}

	// every BRA target must resolve to a defined label somewhere in the program
	defined := map[string]bool{}
	for _, i := range instrs {
		if i.Op == OpLBL {
			defined[i.Label] = true
		}
	}
	for _, i := range instrs {
		if i.Op == OpBRA && !defined[i.Label] {
			t.Fatalf("BRA target %q is never defined by a matching LBL", i.Label)
		}
	}
}

func TestLowerArrayAllocatesAndStores(t *testing.T) {
	instrs := lower(t, "let x := [1,2,3];\nlet y := x[1];\nyield y;")
	var strCount, ldrCount int
	for _, i := range instrs {
		if i.Op == OpSTR {
			strCount++
		}
		if i.Op == OpLDR {
			ldrCount++
		}
	}
	if strCount != 3 {
		t.Fatalf("expected 3 STR instructions for a 3-element array, got %d", strCount)
	}
	if ldrCount != 1 {
		t.Fatalf("expected 1 LDR instruction for the index expression, got %d", ldrCount)
	}
}

func TestLowerMutateOfUndeclaredVariableErrors(t *testing.T) {
	toks, err := lexer.Run("x := 5;")
	if err != nil {
		t.Fatalf("lexing: %v", err)
	}
	stmts, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	if _, err := NewGenerator().GenerateProgram(stmts); err == nil {
		t.Fatal("expected an uninitialised-variable error")
	}
}

