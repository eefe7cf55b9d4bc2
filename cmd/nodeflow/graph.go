package main

import (
	"os"

	"github.com/aretw0/nodeflow/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [workflow.yaml]",
	Short: "Export the workflow wiring as a Mermaid diagram",
	Long: `Outputs a Mermaid diagram (graph TD) of the workflow steps and the
output positions wired between them. --run highlights a stored run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID, _ := cmd.Flags().GetString("run")
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		return cli.Graph(cmd.Context(), cfg, path, runID, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("run", "", "Run ID whose steps are highlighted")
}
