package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loomlang/loom/internal/diagnostic"
	"github.com/loomlang/loom/internal/pipeline"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "lex and parse a Loom program, printing each top-level statement",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	p, err := pipeline.FromFile(args[0])
	if err != nil {
		return err
	}

	p, err = p.Lex()
	if err != nil {
		fmt.Fprint(os.Stderr, diagnostic.Render(err, p.Source))
		return err
	}
	parsed, err := p.Parse()
	if err != nil {
		fmt.Fprint(os.Stderr, diagnostic.Render(err, p.Source))
		return err
	}

	stmts, err := parsed.Statements()
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		fmt.Printf("%+v\n", stmt)
	}
	return nil
}
