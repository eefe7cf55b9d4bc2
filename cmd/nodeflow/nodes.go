package main

import (
	"os"

	"github.com/aretw0/nodeflow/internal/cli"
	"github.com/aretw0/nodeflow/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List registered node types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ListNodes(cmd.Context(), cfg, os.Stdout)
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe NAME",
	Short: "Describe a node type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")
		render := tui.NewRenderer()
		if raw {
			render = nil
		}
		return cli.DescribeNode(cmd.Context(), cfg, args[0], os.Stdout, render)
	},
}

func init() {
	rootCmd.AddCommand(nodesCmd)
	nodesCmd.AddCommand(describeCmd)

	describeCmd.Flags().Bool("raw", false, "Print markdown without terminal styling")
}
