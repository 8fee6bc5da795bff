// Package pipeline threads source text through the lex, parse, lower, and
// run stages as a single staged value, the way the host interpreter's own
// build pipeline advances a tagged value through Text -> Tokens ->
// SyntaxTree -> IntermediateRepr before finally running it. Each stage
// method only succeeds from the stage it expects, returning ErrWrongStage
// otherwise.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/loomlang/loom/internal/air"
	"github.com/loomlang/loom/internal/ast"
	"github.com/loomlang/loom/internal/diagnostic"
	"github.com/loomlang/loom/internal/lexer"
	"github.com/loomlang/loom/internal/parser"
	"github.com/loomlang/loom/internal/token"
	"github.com/loomlang/loom/internal/vm"
)

// Stage names the shape of data a Pipeline currently holds.
type Stage int

const (
	StageText Stage = iota
	StageTokens
	StageSyntaxTree
	StageIntermediateRepr
)

func (s Stage) String() string {
	switch s {
	case StageText:
		return "text"
	case StageTokens:
		return "tokens"
	case StageSyntaxTree:
		return "syntax tree"
	case StageIntermediateRepr:
		return "intermediate representation"
	default:
		return "unknown stage"
	}
}

// ErrWrongStage is returned when a stage method is invoked against a
// Pipeline that isn't holding the data it requires.
type ErrWrongStage struct {
	Want, Have Stage
}

func (e *ErrWrongStage) Error() string {
	return fmt.Sprintf("expected a pipeline at stage %s, found %s", e.Want, e.Have)
}

// Pipeline carries the original source alongside whichever stage's output
// has been computed so far, plus an optional VM configuration threaded
// through to Run.
type Pipeline struct {
	Source string
	Config *vm.Config

	stage  Stage
	tokens []token.Token
	stmts  []ast.Statement
	instrs []air.Instruction
}

// FromText starts a pipeline from source text already in memory.
func FromText(source string) Pipeline {
	return Pipeline{Source: source, stage: StageText}
}

// FromFile reads path and starts a pipeline from its contents.
func FromFile(path string) (Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return FromText(string(data)), nil
}

// FromReader drains r (typically os.Stdin) and starts a pipeline from it.
func FromReader(r io.Reader) (Pipeline, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Pipeline{}, fmt.Errorf("reading input: %w", err)
	}
	return FromText(string(data)), nil
}

// WithConfig attaches a VM configuration to be used once Run is reached.
// Valid at any stage before the pipeline has been run.
func (p Pipeline) WithConfig(cfg vm.Config) Pipeline {
	p.Config = &cfg
	return p
}

// Lex tokenizes the pipeline's source text.
func (p Pipeline) Lex() (Pipeline, error) {
	if p.stage != StageText {
		return Pipeline{}, &ErrWrongStage{Want: StageText, Have: p.stage}
	}
	toks, err := lexer.Run(p.Source)
	if err != nil {
		return Pipeline{}, err
	}
	p.tokens = toks
	p.stage = StageTokens
	return p, nil
}

// Tokens returns the pipeline's token stream, once lexed.
func (p Pipeline) Tokens() ([]token.Token, error) {
	if p.stage < StageTokens {
		return nil, &ErrWrongStage{Want: StageTokens, Have: p.stage}
	}
	return p.tokens, nil
}

// Parse builds a syntax tree from the pipeline's token stream.
func (p Pipeline) Parse() (Pipeline, error) {
	if p.stage != StageTokens {
		return Pipeline{}, &ErrWrongStage{Want: StageTokens, Have: p.stage}
	}
	stmts, err := parser.Parse(p.tokens)
	if err != nil {
		return Pipeline{}, err
	}
	p.stmts = stmts
	p.stage = StageSyntaxTree
	return p, nil
}

// Statements returns the pipeline's syntax tree, once parsed.
func (p Pipeline) Statements() ([]ast.Statement, error) {
	if p.stage < StageSyntaxTree {
		return nil, &ErrWrongStage{Want: StageSyntaxTree, Have: p.stage}
	}
	return p.stmts, nil
}

// Build lowers the pipeline's syntax tree to AIR instructions.
func (p Pipeline) Build() (Pipeline, error) {
	if p.stage != StageSyntaxTree {
		return Pipeline{}, &ErrWrongStage{Want: StageSyntaxTree, Have: p.stage}
	}
	instrs, err := air.NewGenerator().GenerateProgram(p.stmts)
	if err != nil {
		return Pipeline{}, err
	}
	p.instrs = instrs
	p.stage = StageIntermediateRepr
	return p, nil
}

// Instructions returns the pipeline's lowered AIR, once built.
func (p Pipeline) Instructions() ([]air.Instruction, error) {
	if p.stage < StageIntermediateRepr {
		return nil, &ErrWrongStage{Want: StageIntermediateRepr, Have: p.stage}
	}
	return p.instrs, nil
}

// Run starts a VM over the pipeline's AIR on a dedicated goroutine and
// returns the channel its messages arrive on, mirroring the host
// interpreter's thread::spawn(move || vm.run()) plus an mpsc receiver: the
// caller drains the channel while the machine runs concurrently.
func (p Pipeline) Run(ctx context.Context) (<-chan vm.Message, error) {
	if p.stage != StageIntermediateRepr {
		return nil, &ErrWrongStage{Want: StageIntermediateRepr, Have: p.stage}
	}

	cfg := vm.DefaultConfig()
	if p.Config != nil {
		cfg = *p.Config
	}

	machine, ch := vm.New(p.instrs, cfg)
	go machine.Run(ctx)
	return ch, nil
}

// RunToCompletion drives Run to its Done message, invoking onYield for every
// yielded value in arrival order. It returns the fault the VM reported, if
// any, as a plain error.
func RunToCompletion(ctx context.Context, p Pipeline, onYield func(uint32)) error {
	ch, err := p.Run(ctx)
	if err != nil {
		return err
	}

	var fault *diagnostic.RuntimeFault
	for msg := range ch {
		switch msg.Kind {
		case vm.MsgYield:
			onYield(msg.Value)
		case vm.MsgFault:
			fault = msg.Fault
		case vm.MsgDone:
			if fault != nil {
				return fault
			}
			return nil
		}
	}
	return nil
}
