package main

import (
	"context"
	"os"

	"github.com/aretw0/nodeflow/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [workflow.yaml]",
	Short: "Run a workflow once",
	Long: `Bootstraps the host runtime, loads plugin nodes and executes the workflow.
Without an argument the embedded text-to-image workflow runs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		quiet, _ := cmd.Flags().GetBool("quiet")
		debug, _ := cmd.Flags().GetBool("debug")

		opts := cli.RunOptions{
			Config: cfg,
			DryRun: dryRun,
			Debug:  debug,
			Quiet:  quiet,
			Out:    os.Stdout,
		}
		if len(args) > 0 {
			opts.WorkflowPath = args[0]
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()
		return cli.RunWorkflow(ctx, opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("iterations", 0, "Override the number of body iterations")
	runCmd.Flags().Bool("dry-run", false, "Bootstrap, load plugins and validate without running")
	runCmd.Flags().BoolP("quiet", "q", false, "Print nothing but errors")
	runCmd.Flags().String("metrics-addr", "", "Serve /metrics and /healthz on this address during the run")
}
