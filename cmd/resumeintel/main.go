package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagecor-solutions/resumeintel/internal/cli"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "resumeintel",
		Short: "Resume search and candidate ranking over a local vector store",
		Long: `resumeintel indexes resumes into a vector store and answers questions
and ranking queries over them.

Environment variables:
  RESUMEINTEL_OPENAI_API_KEY   OpenAI API key (required)
  RESUMEINTEL_STORE_LOCATION   Store directory or postgres:// URL (default: ./resume_vectordb)
  RESUMEINTEL_COLLECTION       Collection name (default: resumes)`,
		Version: version,
	}

	rootCmd.AddCommand(cli.AddCmd())
	rootCmd.AddCommand(cli.DirCmd())
	rootCmd.AddCommand(cli.ListCmd())
	rootCmd.AddCommand(cli.StatsCmd())
	rootCmd.AddCommand(cli.DeleteCmd())
	rootCmd.AddCommand(cli.QueryCmd())
	rootCmd.AddCommand(cli.RankCmd())
	rootCmd.AddCommand(cli.WatchCmd())
	rootCmd.AddCommand(cli.ServeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
