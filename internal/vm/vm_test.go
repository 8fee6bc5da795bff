package vm

import (
	"context"
	"testing"
	"time"

	"github.com/loomlang/loom/internal/air"
	"github.com/loomlang/loom/internal/lexer"
	"github.com/loomlang/loom/internal/parser"
	"github.com/loomlang/loom/internal/span"
)

func zeroSpan() span.Span { return span.New(0, 0) }

func lower(t *testing.T, src string) []air.Instruction {
	t.Helper()
	toks, err := lexer.Run(src)
	if err != nil {
		t.Fatalf("lexing %q: %v", src, err)
	}
	stmts, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parsing %q: %v", src, err)
	}
	instrs, err := air.NewGenerator().GenerateProgram(stmts)
	if err != nil {
		t.Fatalf("lowering %q: %v", src, err)
	}
	return instrs
}

// drain runs a VM to completion on a background goroutine and collects every
// message, failing the test if it doesn't finish within the timeout.
func drain(t *testing.T, instrs []air.Instruction) []Message {
	t.Helper()
	m, ch := New(instrs, DefaultConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go m.Run(ctx)

	var out []Message
	for msg := range ch {
		out = append(out, msg)
		if msg.Kind == MsgDone {
			break
		}
	}
	if ctx.Err() != nil {
		t.Fatalf("VM did not finish within the timeout: %v", ctx.Err())
	}
	return out
}

func lastYield(t *testing.T, msgs []Message) uint32 {
	t.Helper()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Kind == MsgYield {
			return msgs[i].Value
		}
	}
	t.Fatal("expected at least one yield message")
	return 0
}

func TestYieldLiteral(t *testing.T) {
	msgs := drain(t, lower(t, "yield 5;"))
	if got := lastYield(t, msgs); got != 5 {
		t.Fatalf("expected yield 5, got %d", got)
	}
	if msgs[len(msgs)-1].Kind != MsgDone {
		t.Fatalf("expected the last message to be Done, got %+v", msgs[len(msgs)-1])
	}
}

func TestArithmeticWrapsModulo2To32(t *testing.T) {
	// 4294967295 + 1 should wrap to 0 under unsigned 32-bit arithmetic.
	msgs := drain(t, lower(t, "let x := 4294967295 + 1;\nyield x;"))
	if got := lastYield(t, msgs); got != 0 {
		t.Fatalf("expected wraparound to 0, got %d", got)
	}
}

func TestDivisionByZeroFaults(t *testing.T) {
	msgs := drain(t, lower(t, "let x := 1 / 0;\nyield x;"))
	var fault *Message
	for i := range msgs {
		if msgs[i].Kind == MsgFault {
			fault = &msgs[i]
		}
	}
	if fault == nil {
		t.Fatalf("expected a division-by-zero fault, got %+v", msgs)
	}
}

func TestIfTakesBranchWhenConditionHolds(t *testing.T) {
	msgs := drain(t, lower(t, "let r := 1;\nif r < 5 { yield 42; }\nyield 7;"))
	var yields []uint32
	for _, m := range msgs {
		if m.Kind == MsgYield {
			yields = append(yields, m.Value)
		}
	}
	if len(yields) != 2 || yields[0] != 42 || yields[1] != 7 {
		t.Fatalf("expected yields [42 7], got %v", yields)
	}
}

func TestIfSkipsBranchWhenConditionFails(t *testing.T) {
	msgs := drain(t, lower(t, "let r := 10;\nif r < 5 { yield 42; }\nyield 7;"))
	var yields []uint32
	for _, m := range msgs {
		if m.Kind == MsgYield {
			yields = append(yields, m.Value)
		}
	}
	if len(yields) != 1 || yields[0] != 7 {
		t.Fatalf("expected the if-body to be skipped, yields %v", yields)
	}
}

func TestWhileLoopsUntilConditionFails(t *testing.T) {
	msgs := drain(t, lower(t, "let r := 0;\nwhile r < 3 { yield r; r := r + 1; }"))
	var yields []uint32
	for _, m := range msgs {
		if m.Kind == MsgYield {
			yields = append(yields, m.Value)
		}
	}
	if len(yields) != 3 || yields[0] != 0 || yields[1] != 1 || yields[2] != 2 {
		t.Fatalf("expected yields [0 1 2], got %v", yields)
	}
}

func TestArrayRoundTripsThroughMemory(t *testing.T) {
	msgs := drain(t, lower(t, "let xs := [10, 20, 30];\nlet y := xs[2];\nyield y;"))
	if got := lastYield(t, msgs); got != 30 {
		t.Fatalf("expected yield 30, got %d", got)
	}
}

func TestFlagAccumulationPersistsAcrossComparisons(t *testing.T) {
	// Once `eq` is set by the first comparison it must still read as set
	// after a second, unrelated comparison: flags never clear.
	m, _ := New([]air.Instruction{
		air.CON(0, 5, zeroSpan()),
		air.CON(1, 5, zeroSpan()),
		air.CMP(0, 1, air.Eq, true, zeroSpan()),
		air.CON(2, 1, zeroSpan()),
		air.CON(3, 2, zeroSpan()),
		air.CMP(2, 3, air.Lt, true, zeroSpan()),
	}, DefaultConfig())

	for {
		more, fault := m.step()
		if fault != nil {
			t.Fatalf("unexpected fault: %v", fault)
		}
		if !more {
			break
		}
	}

	if !m.flagSet(air.Eq) {
		t.Fatal("expected eq to remain set after a later, unrelated comparison")
	}
	if !m.flagSet(air.Lt) {
		t.Fatal("expected lt to be set by the second comparison")
	}
	if !m.flagSet(air.Al) {
		t.Fatal("expected al to always be set")
	}
	if m.flagSet(air.Nv) {
		t.Fatal("nv must never read as set")
	}
}

func TestUninitialisedRegisterFaults(t *testing.T) {
	m, _ := New([]air.Instruction{
		air.YLD(9, zeroSpan()),
	}, DefaultConfig())

	_, fault := m.step()
	if fault == nil {
		t.Fatal("expected an uninitialised-register fault")
	}
	if fault.Register != 9 {
		t.Fatalf("expected fault to name register 9, got %d", fault.Register)
	}
}

// TestBranchSkipsOverDeadCode exercises the raw-AIR scenario `BRA label;
// CON %0,5; YLD %0; LBL label; CON %0,17; YLD %0`, hand-assembled since no
// source syntax branches without a preceding CMP/CHK pair: it must yield
// only 17, skipping the dead CON/YLD pair the branch jumps over.
func TestBranchSkipsOverDeadCode(t *testing.T) {
	instrs := []air.Instruction{
		air.BRA("label", zeroSpan()),
		air.CON(0, 5, zeroSpan()),
		air.YLD(0, zeroSpan()),
		air.LBL("label", zeroSpan()),
		air.CON(0, 17, zeroSpan()),
		air.YLD(0, zeroSpan()),
	}
	msgs := drain(t, instrs)
	if got := lastYield(t, msgs); got != 17 {
		t.Fatalf("expected yield 17, got %d", got)
	}
	var yieldCount int
	for _, m := range msgs {
		if m.Kind == MsgYield {
			yieldCount++
		}
	}
	if yieldCount != 1 {
		t.Fatalf("expected exactly 1 yield (dead code skipped), got %d", yieldCount)
	}
}

// TestChannelBackpressureDoesNotDropMessages forces a VM to produce many more
// messages than the channel's capacity while the test drains it
// concurrently, so a send must block for backpressure rather than silently
// drop anything once some past-capacity count of in-flight messages is
// reached.
func TestChannelBackpressureDoesNotDropMessages(t *testing.T) {
	const n = 200
	cfg := DefaultConfig()
	cfg.ChannelCapacity = 4

	m, ch := New(lower(t, "let r := 0;\nwhile r < 200 { yield r; r := r + 1; }"), cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go m.Run(ctx)

	var yields []uint32
	for msg := range ch {
		if msg.Kind == MsgYield {
			yields = append(yields, msg.Value)
		}
		if msg.Kind == MsgDone {
			break
		}
	}

	if len(yields) != n {
		t.Fatalf("expected %d yields, got %d", n, len(yields))
	}
	for i, v := range yields {
		if v != uint32(i) {
			t.Fatalf("expected yields in order 0..%d, got %v at index %d", n-1, v, i)
		}
	}
}

func TestMissingBranchTargetFaults(t *testing.T) {
	m, _ := New([]air.Instruction{
		air.BRA("nowhere", zeroSpan()),
	}, DefaultConfig())

	_, fault := m.step()
	if fault == nil {
		t.Fatal("expected a missing-branch-target fault")
	}
}
