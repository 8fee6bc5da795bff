package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loomlang/loom/internal/diagnostic"
	"github.com/loomlang/loom/internal/pipeline"
	"github.com/loomlang/loom/internal/token"
)

var lexCmd = &cobra.Command{
	Use:   "lex <file>",
	Short: "lex a Loom program, printing its tokens with brace and semicolon line breaks",
	Args:  cobra.ExactArgs(1),
	RunE:  runLex,
}

func runLex(cmd *cobra.Command, args []string) error {
	p, err := pipeline.FromFile(args[0])
	if err != nil {
		return err
	}

	lexed, err := p.Lex()
	if err != nil {
		fmt.Fprint(os.Stderr, diagnostic.Render(err, p.Source))
		return err
	}

	toks, err := lexed.Tokens()
	if err != nil {
		return err
	}

	indent := 0
	for _, tok := range toks {
		fmt.Printf("%s ", tok)
		switch tok.Kind {
		case token.Semicolon:
			fmt.Printf("\n%s", strings.Repeat("\t", indent))
		case token.LeftBrace:
			indent++
			fmt.Printf("\n%s", strings.Repeat("\t", indent))
		case token.RightBrace:
			if indent > 0 {
				indent--
			}
			fmt.Printf("\n%s", strings.Repeat("\t", indent))
		}
	}
	fmt.Println()
	return nil
}
