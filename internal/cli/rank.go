package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sagecor-solutions/resumeintel/internal/domain"
)

// RankCmd creates the rank command.
func RankCmd() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "rank <requirements>",
		Short: "Rank candidates against a job description",
		Long: `Score every retrieved candidate against the given requirements and
print them best first.

Examples:
  resumeintel rank "senior Go engineer with Kubernetes"
  resumeintel rank "data scientist, 5+ years Python" --top 10`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.Ranking.Rank(ctx, strings.Join(args, " "), top)
			if err != nil {
				return err
			}
			if len(result.Results) == 0 {
				fmt.Println("no candidates found")
				return nil
			}

			fmt.Printf("ranked %d of %d candidates\n\n", len(result.Results), result.TotalCandidates)
			for i, rr := range result.Results {
				marker := ""
				if rr.ScoreSource == domain.ScoreSourceFallback {
					marker = " (estimated)"
				}
				fmt.Printf("%d. %s  %.1f/10%s\n", i+1, rr.CandidateName, rr.Score, marker)
				fmt.Printf("   %s, %d matching chunks\n", rr.DocumentName, rr.MatchingChunkCount)
				if rr.Rationale != "" {
					fmt.Printf("   %s\n", rr.Rationale)
				}
				for _, e := range rr.Extracts {
					fmt.Printf("   > %s\n", e)
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 0, "Maximum candidates to return (default 5)")

	return cmd
}
