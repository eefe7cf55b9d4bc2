package main

import (
	"os"

	"github.com/aretw0/nodeflow/internal/cli"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List run records from the configured run store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.History(cmd.Context(), cfg, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
