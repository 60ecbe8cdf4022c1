package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [packages...]",
		Short: "Regenerate models when contract sources change",
		Long: `Generate once, then watch the package directories and regenerate
whenever a Go source file changes. Bursts of changes are coalesced using
the debounce interval (watch.debounce in the config file).

Press Ctrl+C to stop.`,
		Example: `  # Watch the configured packages
  modelgen watch

  # Watch with a longer debounce
  modelgen watch ./models --debounce 1s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args)
		},
	}

	cmd.Flags().Duration("debounce", 0, "Quiet period before regenerating")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cc := NewCommandContext(cmd)
	out := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd.SetContext(ctx)

	rebuild := func() ([]string, error) {
		results, err := cc.generate(cmd, args, false)
		if err != nil {
			return nil, err
		}
		printResults(out, results, false)
		dirs := make([]string, 0, len(results))
		for _, r := range results {
			dirs = append(dirs, filepath.Dir(r.File))
		}
		return dirs, nil
	}

	dirs, err := rebuild()
	if err != nil {
		return err
	}

	w, err := newWatcher(dirs, cc.Cfg.Output, cc.Cfg.Watch.Debounce, rebuild, cc.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	_, _ = fmt.Fprintf(out, "Watching %d packages. Press Ctrl+C to stop\n", len(dirs))
	return w.Run(ctx)
}

// watcher regenerates when Go sources in the watched directories change.
type watcher struct {
	fs       *fsnotify.Watcher
	watched  map[string]bool
	output   string
	debounce time.Duration
	rebuild  func() ([]string, error)
	logger   *slog.Logger
}

func newWatcher(dirs []string, output string, debounce time.Duration, rebuild func() ([]string, error), logger *slog.Logger) (*watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w := &watcher{
		fs:       fs,
		watched:  make(map[string]bool),
		output:   output,
		debounce: debounce,
		rebuild:  rebuild,
		logger:   logger,
	}
	if err := w.add(dirs); err != nil {
		_ = fs.Close()
		return nil, err
	}
	return w, nil
}

func (w *watcher) add(dirs []string) error {
	for _, dir := range dirs {
		if w.watched[dir] {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.watched[dir] = true
		w.logger.Debug("watching directory", slog.String("dir", dir))
	}
	return nil
}

// relevant reports whether ev touches a contract source.
func (w *watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(ev.Name)
	return strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		!strings.HasPrefix(name, ".") &&
		name != w.output
}

// Run processes events until ctx is done. Rebuilds run on the calling goroutine.
func (w *watcher) Run(ctx context.Context) error {
	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("change detected", slog.String("file", ev.Name), slog.String("op", ev.Op.String()))
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			dirs, err := w.rebuild()
			if err != nil {
				w.logger.Error("rebuild failed", slog.String("error", err.Error()))
				continue
			}
			if err := w.add(dirs); err != nil {
				w.logger.Warn("failed to watch new package", slog.String("error", err.Error()))
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("watcher overflow, regenerating")
				select {
				case fire <- struct{}{}:
				default:
				}
				continue
			}
			w.logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

// Close stops watching.
func (w *watcher) Close() error {
	return w.fs.Close()
}
