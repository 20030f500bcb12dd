package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oncall-tools/rca-cli/internal/analysis"
	"github.com/oncall-tools/rca-cli/internal/store"
)

var (
	historyType  string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List saved analyses, or print one as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if len(args) == 1 {
			rec, err := st.GetAnalysis(ctx, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		}

		filter := store.Filter{Limit: historyLimit}
		if historyType != "" {
			typ, err := analysis.ParseType(historyType)
			if err != nil {
				return err
			}
			filter.Type = typ
		}

		records, err := st.ListAnalyses(ctx, filter)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("no analyses recorded")
			return nil
		}

		for _, r := range records {
			degraded := ""
			if r.Result.Degraded() {
				degraded = " [degraded]"
			}
			fmt.Printf("%s  %-22s %-10s %s%s\n",
				r.CreatedAt.Format("2006-01-02 15:04"),
				r.Type, r.Provider, r.Issue, degraded)
			fmt.Printf("  id: %s\n", r.ID)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVarP(&historyType, "type", "t", "", "filter by analysis type")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "max records to list")
	rootCmd.AddCommand(historyCmd)
}
