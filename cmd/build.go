package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loomlang/loom/internal/air"
	"github.com/loomlang/loom/internal/diagnostic"
	"github.com/loomlang/loom/internal/pipeline"
)

var buildCmd = &cobra.Command{
	Use:   "build <file>",
	Short: "lex, parse, and lower a Loom program, printing its IR",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	p, err := pipeline.FromFile(args[0])
	if err != nil {
		return err
	}

	built, err := buildPipeline(p)
	if err != nil {
		fmt.Fprint(os.Stderr, diagnostic.Render(err, p.Source))
		return err
	}

	instrs, err := built.Instructions()
	if err != nil {
		return err
	}
	fmt.Print(air.Text(instrs))
	return nil
}
