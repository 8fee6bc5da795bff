// Package cmd wires the toolchain's cobra subcommand tree: run, build, lex,
// parse, and repl (reserved). main.go shrinks to calling cmd.Execute().
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loomlang/loom/internal/diagnostic"
)

var (
	flagQuiet       bool
	flagVerbose     bool
	flagVeryVerbose bool
	flagLogPath     string
)

var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "Loom: lex, parse, build, and run Loom programs",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return configureLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress the yielded-value echo")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "print Done/shutdown transitions")
	rootCmd.PersistentFlags().BoolVar(&flagVeryVerbose, "vv", false, "also echo the IR textual form before running")
	rootCmd.PersistentFlags().StringVarP(&flagLogPath, "log", "l", "", "redirect operational logging to this file")

	rootCmd.AddCommand(runCmd, buildCmd, lexCmd, parseCmd, replCmd)
}

func verbosity() diagnostic.Verbosity {
	switch {
	case flagVeryVerbose:
		return diagnostic.VeryVerbose
	case flagVerbose:
		return diagnostic.Verbose
	case flagQuiet:
		return diagnostic.Quiet
	default:
		return diagnostic.Default
	}
}

func configureLogging() error {
	if flagLogPath == "" {
		diagnostic.Configure(verbosity(), nil)
		return nil
	}

	f, err := diagnostic.OpenLogFile(flagLogPath)
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", flagLogPath, err)
	}
	diagnostic.Configure(verbosity(), f)
	return nil
}

// Execute runs the command tree, recovering from any panic that escapes a
// subcommand as a last-resort safety net so the process always exits
// cleanly with a message rather than a stack trace, mirroring the teacher's
// top-level recover() around its execution loop.
func Execute() (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "internal error: %v\n", r)
			code = 1
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}
