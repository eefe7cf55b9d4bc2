package main

import (
	"fmt"
	"os"

	"github.com/aretw0/nodeflow/internal/cli"
	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find NAME",
	Short: "Find the nearest ancestor directory containing NAME",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		found, err := cli.FindPath(args[0], from, os.Stdout)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%s not found in any parent directory", args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().String("from", "", "Directory to start from (default: working directory)")
}
