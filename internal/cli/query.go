package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// QueryCmd creates the query command.
func QueryCmd() *cobra.Command {
	var documentID string

	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Ask a question over the indexed resumes",
		Long: `Answer a natural-language question from the indexed resume content.

Pass --document to restrict retrieval to one resume.

Examples:
  resumeintel query "who has Kubernetes experience?"
  resumeintel query "what was her last role?" --document Jane_Doe_abc12345`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.Query.Query(ctx, strings.Join(args, " "), documentID)
			if err != nil {
				return err
			}

			fmt.Println(result.Answer)
			if len(result.Sources) > 0 {
				fmt.Println("\nsources:")
				for _, src := range result.Sources {
					fmt.Printf("  %s (distance %.3f): %s\n",
						src.Chunk.DocumentName, src.Distance, src.Chunk.Preview)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&documentID, "document", "", "Restrict retrieval to one document ID")

	return cmd
}
