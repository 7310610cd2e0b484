package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// DirCmd creates the dir command.
func DirCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "dir <directory>",
		Short: "Ingest every supported resume in a directory",
		Long: `Walk a directory and ingest every file with a supported extension.

A file that fails to ingest is reported and the batch continues. Already
indexed documents are skipped unless --force is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.Ingest.IngestDirectory(ctx, args[0], force)
			if err != nil {
				return err
			}

			fmt.Printf("processed %d files, skipped %d, wrote %d chunks\n",
				result.FilesProcessed, result.FilesSkipped, result.ChunksWritten)
			for _, fe := range result.Errors {
				fmt.Printf("failed %s: %v\n", fe.Path, fe.Err)
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d files failed", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-ingest documents that are already indexed")

	return cmd
}
