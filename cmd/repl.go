package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "interactive REPL (reserved, not yet implemented)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return errors.New("repl: not implemented")
	},
}
