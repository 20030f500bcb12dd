package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oncall-tools/rca-cli/internal/analysis"
	"github.com/oncall-tools/rca-cli/internal/engine"
)

var (
	analyzeType     string
	analyzeIssue    string
	analyzeFiles    []string
	analyzeURLs     []string
	analyzeTickets  []string
	analyzeExtra    string
	analyzeProvider string
	analyzeModel    string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run an analysis over the given sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		typ, err := analysis.ParseType(analyzeType)
		if err != nil {
			return err
		}

		eng, _, closeFn, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		rec, err := eng.Generate(ctx, engine.GenerateRequest{
			Type:    typ,
			Issue:   analyzeIssue,
			Files:   analyzeFiles,
			URLs:    analyzeURLs,
			Tickets: analyzeTickets,
			Extra:   analyzeExtra,
			Options: engine.Options{
				Provider:    analyzeProvider,
				Model:       analyzeModel,
				Temperature: cfg.Generation.Temperature,
			},
		})
		if err != nil {
			return err
		}

		fmt.Printf("Analysis %s complete (provider: %s)\n", rec.ID, rec.Provider)
		if rec.Result.Degraded() {
			fmt.Println("Warning: response parsing degraded; see raw_response in the JSON report")
		}
		if summary := rec.Result.String(analysis.FieldExecutiveSummary); summary != "" {
			fmt.Printf("\n%s\n\n", summary)
		}
		if rec.ReportPath != "" {
			fmt.Printf("JSON report: %s\n", rec.ReportPath)
		}
		if rec.DocumentPath != "" {
			fmt.Printf("Document:    %s\n", rec.DocumentPath)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeType, "type", "t", "formal", "analysis type")
	analyzeCmd.Flags().StringVarP(&analyzeIssue, "issue", "i", "", "issue description")
	analyzeCmd.Flags().StringArrayVarP(&analyzeFiles, "file", "f", nil, "source file (repeatable)")
	analyzeCmd.Flags().StringArrayVarP(&analyzeURLs, "url", "u", nil, "source URL (repeatable)")
	analyzeCmd.Flags().StringArrayVar(&analyzeTickets, "ticket", nil, "source ticket ID (repeatable)")
	analyzeCmd.Flags().StringVar(&analyzeExtra, "context", "", "additional context text")
	analyzeCmd.Flags().StringVar(&analyzeProvider, "provider", "", "preferred llm provider")
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "", "model override")
	rootCmd.AddCommand(analyzeCmd)
}
