// Package jobs runs the background watch worker that ingests resume files
// dropped into a directory.
package jobs

import (
	"context"
	"log"
	"time"

	"github.com/sagecor-solutions/resumeintel/internal/service"
)

// DirectoryIngester runs one batch ingest pass over a directory.
type DirectoryIngester interface {
	IngestDirectory(ctx context.Context, dir string, force bool) (*service.DirectoryResult, error)
}

// Watcher polls a directory and ingests any supported files it finds.
// Ingestion is idempotent, so already-indexed files are cheap no-ops on every
// pass.
type Watcher struct {
	ingester     DirectoryIngester
	dir          string
	pollInterval time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
}

// NewWatcher creates a watcher for dir.
func NewWatcher(ingester DirectoryIngester, dir string, pollInterval time.Duration) *Watcher {
	return &Watcher{
		ingester:     ingester,
		dir:          dir,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start begins the polling loop and blocks until the context is cancelled or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("watch: watching %s every %v", w.dir, w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Println("watch: stopped, context cancelled")
			return
		case <-w.stopChan:
			log.Println("watch: stopped, stop signal received")
			return
		case <-ticker.C:
			res, err := w.ingester.IngestDirectory(ctx, w.dir, false)
			if err != nil {
				log.Printf("watch: scan of %s failed: %v", w.dir, err)
				continue
			}
			if res.FilesProcessed > 0 || len(res.Errors) > 0 {
				log.Printf("watch: ingested %d files (%d chunks, %d errors)",
					res.FilesProcessed, res.ChunksWritten, len(res.Errors))
			}
		}
	}
}

// Stop gracefully stops the watcher.
func (w *Watcher) Stop() {
	close(w.stopChan)
	<-w.doneChan
	log.Println("watch: shutdown complete")
}
