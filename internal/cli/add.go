package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sagecor-solutions/resumeintel/internal/service"
)

// AddCmd creates the add command.
func AddCmd() *cobra.Command {
	var (
		name  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Ingest one resume file",
		Long: `Ingest one resume into the vector store.

The document's identity is derived from its filename, so re-adding the same
file is a no-op unless --force is set. Use --name when the file on disk has
a transient name, such as a download.

Examples:
  resumeintel add resumes/Jane_Doe.txt
  resumeintel add /tmp/tmpx8f3k2.txt --name Jane_Doe.txt
  resumeintel add resumes/Jane_Doe.txt --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.Ingest.IngestDocument(ctx, service.IngestInput{
				Path:         args[0],
				DeclaredName: name,
				Force:        force,
			})
			if err != nil {
				return err
			}

			if result.Skipped {
				fmt.Printf("skipped %s: already indexed as %s\n", args[0], result.DocumentID)
				return nil
			}
			fmt.Printf("indexed %s as %s (%d chunks)\n", result.CanonicalName, result.DocumentID, result.ChunksWritten)
			if result.Degraded {
				fmt.Println("warning: no reliable filename was available, identity was synthesized from the path")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Declared filename overriding the on-disk name")
	cmd.Flags().BoolVar(&force, "force", false, "Re-ingest even if the document is already indexed")

	return cmd
}
