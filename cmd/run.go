package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loomlang/loom/internal/air"
	"github.com/loomlang/loom/internal/diagnostic"
	"github.com/loomlang/loom/internal/pipeline"
	"github.com/loomlang/loom/internal/vm"
)

var (
	flagMemorySize int
	flagStdin      bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "lex, parse, build, and run a Loom program",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().IntVarP(&flagMemorySize, "memory-size", "m", vm.DefaultMemorySize, "virtual machine memory size in bytes (must be a positive multiple of 4)")
	runCmd.Flags().BoolVar(&flagStdin, "stdin", false, "read the program from standard input instead of a file")
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := vm.ValidateMemorySize(flagMemorySize); err != nil {
		return err
	}

	p, source, err := loadPipeline(args, flagStdin)
	if err != nil {
		return err
	}

	cfg := vm.DefaultConfig()
	cfg.MemorySize = flagMemorySize
	cfg.Verbosity = verbosity()

	built, err := buildPipeline(p)
	if err != nil {
		fmt.Fprint(os.Stderr, diagnostic.Render(err, source))
		return err
	}
	built = built.WithConfig(cfg)

	if flagVeryVerbose {
		instrs, _ := built.Instructions()
		fmt.Print(air.Text(instrs))
	}

	ctx := context.Background()
	runErr := pipeline.RunToCompletion(ctx, built, func(v uint32) {
		if !flagQuiet {
			fmt.Printf("yield: %d\n", v)
		}
	})
	if flagVerbose || flagVeryVerbose {
		fmt.Println("done")
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		return runErr
	}
	return nil
}

// loadPipeline resolves the program's source text from either stdin or the
// single positional file argument, returning both the started pipeline and
// the raw source text (needed later to render diagnostics with context).
func loadPipeline(args []string, stdin bool) (pipeline.Pipeline, string, error) {
	if stdin {
		p, err := pipeline.FromReader(os.Stdin)
		if err != nil {
			return pipeline.Pipeline{}, "", err
		}
		return p, p.Source, nil
	}

	if len(args) != 1 {
		return pipeline.Pipeline{}, "", fmt.Errorf("expected exactly one file argument, or --stdin")
	}

	p, err := pipeline.FromFile(args[0])
	if err != nil {
		return pipeline.Pipeline{}, "", err
	}
	return p, p.Source, nil
}

// buildPipeline runs a pipeline through lex, parse, and build.
func buildPipeline(p pipeline.Pipeline) (pipeline.Pipeline, error) {
	p, err := p.Lex()
	if err != nil {
		return pipeline.Pipeline{}, err
	}
	p, err = p.Parse()
	if err != nil {
		return pipeline.Pipeline{}, err
	}
	p, err = p.Build()
	if err != nil {
		return pipeline.Pipeline{}, err
	}
	return p, nil
}
