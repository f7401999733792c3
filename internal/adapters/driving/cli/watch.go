package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/quern-dev/quern/internal/core/domain"
	"github.com/quern-dev/quern/internal/core/ports/driving"
	"github.com/quern-dev/quern/internal/logger"
)

var (
	watchLabel    string
	watchSettle   time.Duration
	watchExisting bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and ingest files as they appear",
	Long: `Watches a directory tree and ingests every file that is created or
modified under it. Each file becomes a document whose source label is
its path, so rewriting a file supersedes its previous chunks.

Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchLabel, "label", "l", "", "source label override (defaults to file path)")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", 500*time.Millisecond, "quiet period before a changed file is ingested")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "also ingest files already present at startup")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	dir := filepath.Clean(args[0])
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("watch target must be a directory")
	}

	w, err := newDirWatcher(dir, ingestService, watchLabel, watchSettle)
	if err != nil {
		return err
	}
	defer w.Close()

	if watchExisting {
		if err := w.ingestExisting(cmd.Context(), cmd); err != nil {
			return err
		}
	}

	cmd.Printf("Watching %s (ctrl+c to stop)\n", dir)
	return w.run(cmd.Context(), cmd)
}

// dirWatcher ingests files on filesystem events, coalescing bursts of
// writes to the same path into a single ingestion per settle period.
type dirWatcher struct {
	watcher *fsnotify.Watcher
	ingest  driving.Ingestor
	root    string
	label   string
	settle  time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer

	results chan watchResult
}

type watchResult struct {
	path string
	id   string
	err  error
}

func newDirWatcher(root string, ingest driving.Ingestor, label string, settle time.Duration) (*dirWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &dirWatcher{
		watcher: watcher,
		ingest:  ingest,
		root:    root,
		label:   label,
		settle:  settle,
		pending: make(map[string]*time.Timer),
		results: make(chan watchResult, 16),
	}

	// Watch the full tree; fsnotify does not recurse on its own
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if isHidden(d.Name()) && path != root {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return nil, err
	}

	return w, nil
}

func (w *dirWatcher) Close() error {
	return w.watcher.Close()
}

func (w *dirWatcher) run(ctx context.Context, cmd *cobra.Command) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case res := <-w.results:
			if res.err != nil {
				cmd.PrintErrf("ingest %s: %v\n", res.path, res.err)
			} else {
				cmd.Printf("%s  %s\n", res.id, res.path)
			}

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: %v", err)
		}
	}
}

// handleEvent schedules ingestion for created or written files and
// extends the watch into newly created directories.
func (w *dirWatcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}

	if info.IsDir() {
		if event.Has(fsnotify.Create) && !isHidden(filepath.Base(event.Name)) {
			if err := w.watcher.Add(event.Name); err != nil {
				logger.Warn("watch %s: %v", event.Name, err)
			}
		}
		return
	}

	if isHidden(filepath.Base(event.Name)) {
		return
	}

	w.schedule(ctx, event.Name)
}

// schedule (re)arms the settle timer for a path. Rapid successive
// writes keep pushing the ingestion back until the file goes quiet.
func (w *dirWatcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.settle)
		return
	}

	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		id, err := w.ingestFile(ctx, path)
		select {
		case w.results <- watchResult{path: path, id: id, err: err}:
		case <-ctx.Done():
		}
	})
}

func (w *dirWatcher) ingestFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	label := w.label
	if label == "" {
		label = path
	}

	doc := &domain.Document{
		ID:          watchDocumentID(path),
		SourceLabel: label,
		Provenance:  domain.ProvenanceOriginal,
		Content:     string(data),
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := w.ingest.Ingest(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID, nil
}

// watchDocumentID derives a stable document ID from a file path, so a
// rewrite of the same file supersedes its earlier chunks instead of
// accumulating a new document per write.
func watchDocumentID(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+abs)).String()
}

// ingestExisting walks the tree once and ingests every regular file.
func (w *dirWatcher) ingestExisting(ctx context.Context, cmd *cobra.Command) error {
	return filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if isHidden(d.Name()) && path != w.root {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(d.Name()) {
			return nil
		}

		id, ingestErr := w.ingestFile(ctx, path)
		if ingestErr != nil {
			cmd.PrintErrf("ingest %s: %v\n", path, ingestErr)
			return nil
		}
		cmd.Printf("%s  %s\n", id, path)
		return nil
	})
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
