// Package watch re-ingests the corpus when PDF files in it change. A
// re-ingest replays the request that built the current index, so uploads
// survive corpus changes and uploads-only indexes are left alone.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before re-ingesting.
const DefaultDebounce = 2 * time.Second

// retryDelay is used when an ingest is already running.
const retryDelay = 500 * time.Millisecond

// ErrMissingPipeline is returned when no pipeline is given.
var ErrMissingPipeline = errors.New("watch: pipeline service is required")

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the settle delay.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithIngestHook registers a callback invoked after every re-ingest.
func WithIngestHook(fn func(domain.IngestReport, error)) Option {
	return func(w *Watcher) {
		w.onIngest = fn
	}
}

// Watcher replays the last ingest after PDF files in a directory are
// created, written, renamed or removed.
type Watcher struct {
	pipeline driving.PipelineService
	dir      string
	debounce time.Duration
	onIngest func(domain.IngestReport, error)

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a watcher for dir.
func New(pipeline driving.PipelineService, dir string, opts ...Option) (*Watcher, error) {
	if pipeline == nil {
		return nil, ErrMissingPipeline
	}
	if dir == "" {
		return nil, fmt.Errorf("%w: corpus directory is required", domain.ErrConfiguration)
	}

	w := &Watcher{
		pipeline: pipeline,
		dir:      dir,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Debug("watching %s for PDF changes", w.dir)

	fire := make(chan struct{}, 1)
	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !Relevant(event) {
				continue
			}
			logger.Debug("corpus change: %s %s", event.Op, filepath.Base(event.Name))
			w.schedule(fire, w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)

		case <-fire:
			w.reingest(ctx, fire)
		}
	}
}

func (w *Watcher) reingest(ctx context.Context, fire chan struct{}) {
	report, err := w.pipeline.Reingest(ctx)
	switch {
	case errors.Is(err, domain.ErrIngestInProgress):
		w.schedule(fire, retryDelay)
		return
	case errors.Is(err, domain.ErrReingestSkipped):
		logger.Info("corpus changed, index is uploads-only; not re-ingesting")
	case err != nil:
		logger.Warn("re-ingest failed, keeping previous index: %v", err)
	default:
		logger.Info("re-ingested %d documents into %d chunks", report.Documents, report.Chunks)
	}
	if w.onIngest != nil {
		w.onIngest(report, err)
	}
}

// schedule (re)arms the debounce timer. Each call pushes the deadline out.
func (w *Watcher) schedule(fire chan<- struct{}, after time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(after, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// Relevant reports whether an event concerns a PDF and changes content.
// Chmod-only events are ignored.
func Relevant(event fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(event.Name), ".pdf") {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
