package main

import (
	"fmt"

	"github.com/aretw0/nodeflow"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of nodeflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("nodeflow version %s\n", nodeflow.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
