package main

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that every configured component is usable",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		eng, _, closeFn, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		checks := eng.Validate(ctx)

		names := make([]string, 0, len(checks))
		for name := range checks {
			names = append(names, name)
		}
		sort.Strings(names)

		ok := true
		for _, name := range names {
			mark := "ok"
			if !checks[name] {
				mark = "FAIL"
				ok = false
			}
			fmt.Printf("%-20s %s\n", name, mark)
		}
		if !ok {
			return eris.New("configuration validation failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
