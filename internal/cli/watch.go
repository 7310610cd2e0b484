package cli

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sagecor-solutions/resumeintel/internal/jobs"
)

// WatchCmd creates the watch command.
func WatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [directory]",
		Short: "Poll a directory and ingest new resumes",
		Long: `Poll a directory on an interval and ingest any supported file that is
not yet indexed. The directory defaults to RESUMEINTEL_WATCH_DIR.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			dir := app.Config.WatchDir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return fmt.Errorf("no directory given and RESUMEINTEL_WATCH_DIR is not set")
			}

			watcher := jobs.NewWatcher(app.Ingest, dir, app.WatchInterval())
			go watcher.Start(ctx)
			log.Printf("watching %s every %s", dir, app.WatchInterval())

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			watcher.Stop()
			return nil
		},
	}
}
