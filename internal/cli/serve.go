package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagecor-solutions/resumeintel/internal/api/handlers"
	"github.com/sagecor-solutions/resumeintel/internal/jobs"
	"github.com/sagecor-solutions/resumeintel/internal/server"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the resume intelligence API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := NewApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	cfg := app.Config
	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	var watcher *jobs.Watcher
	if cfg.WatchDir != "" {
		watcher = jobs.NewWatcher(app.Ingest, cfg.WatchDir, app.WatchInterval())
		go watcher.Start(ctx)
		log.Printf("watching %s every %s", cfg.WatchDir, app.WatchInterval())
	}

	router := server.NewRouter(server.RouterConfig{
		ResumeHandler:  handlers.NewResumeHandler(app.Ingest),
		QueryHandler:   handlers.NewQueryHandler(app.Query),
		RankingHandler: handlers.NewRankingHandler(app.Ranking),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if watcher != nil {
		watcher.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Println("server stopped")
	return nil
}
