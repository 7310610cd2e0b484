package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

// ListCmd creates the list command.
func ListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List indexed resumes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			summaries, err := app.Query.ListDocuments(ctx)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("no resumes indexed")
				return nil
			}

			for _, d := range summaries {
				fmt.Printf("%-40s %-6s %3d chunks  %s  %s\n",
					d.Name, d.Format, d.ChunkCount,
					d.LastUpdated.Local().Format(time.DateTime), d.DocumentID)
			}
			return nil
		},
	}
}

// StatsCmd creates the stats command.
func StatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			stats, err := app.Query.Stats(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("location:  %s\n", stats.Location)
			fmt.Printf("documents: %d\n", stats.TotalDocuments)
			fmt.Printf("chunks:    %d\n", stats.TotalChunks)

			formats := make([]string, 0, len(stats.Formats))
			for f := range stats.Formats {
				formats = append(formats, f)
			}
			sort.Strings(formats)
			for _, f := range formats {
				fmt.Printf("  %-6s %d\n", f, stats.Formats[f])
			}
			return nil
		},
	}
}

// DeleteCmd creates the delete command.
func DeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Remove an indexed resume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Query.DeleteDocument(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}
