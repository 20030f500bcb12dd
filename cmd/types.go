package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oncall-tools/rca-cli/internal/prompt"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List available analysis types",
	Run: func(cmd *cobra.Command, args []string) {
		for _, t := range prompt.NewManager(cfg.Prompts.Dir).Available() {
			fmt.Println(t)
		}
	},
}

func init() {
	rootCmd.AddCommand(typesCmd)
}
