package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/roach88/contentpipe/internal/project"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	BuildOptions
	Debounce time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{BuildOptions: BuildOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "watch [project]",
		Short: "Rebuild a content project whenever its files change",
		Long: `Build the project, then watch its directory tree and rebuild after
every burst of changes. The output and intermediate directories are not
watched. Failed builds are reported and watching continues.

Example:
  contentpipe watch
  contentpipe watch ./game --debounce 500ms`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd, args, opts.RootOptions)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, e, opts)
		},
	}

	addProjectFlags(cmd)
	cmd.Flags().Bool("rebuild", false, "ignore the asset cache")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 200*time.Millisecond, "quiet period before a rebuild starts")

	return cmd
}

func runWatch(ctx context.Context, e *env, opts *WatchOptions) error {
	build := func(ctx context.Context) error {
		p, err := e.cfg.LoadProject()
		if err != nil {
			e.logger.Error("failed to reload project", "err", err)
			return nil
		}
		e.project = p
		err = runBuild(ctx, e, &opts.BuildOptions)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if GetExitCode(err) == ExitFailure {
			e.logger.Warn("build finished with errors", "err", err)
			return nil
		}
		return err
	}

	if err := build(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	w, err := newWatcher(e.project, opts.Debounce, e.logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to watch project", err)
	}
	defer w.close()

	e.logger.Info("watching for changes", "root", e.project.Root)
	err = w.run(ctx, build)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// watcher turns file system events below a project root into debounced
// change notifications.
type watcher struct {
	root     string
	ignored  []string
	debounce time.Duration
	fs       *fsnotify.Watcher
	logger   *log.Logger
}

func newWatcher(p *project.Project, debounce time.Duration, logger *log.Logger) (*watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &watcher{
		root:     p.Root,
		ignored:  []string{p.OutputDir, p.IntermediateDir},
		debounce: debounce,
		fs:       fs,
		logger:   logger,
	}
	if err := w.addRecursive(p.Root); err != nil {
		fs.Close()
		return nil, err
	}
	return w, nil
}

func (w *watcher) close() error {
	return w.fs.Close()
}

// addRecursive watches dir and every directory below it that is not
// ignored.
func (w *watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && !w.relevant(path) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

// relevant reports whether a change to path can affect the build.
func (w *watcher) relevant(path string) bool {
	for _, dir := range w.ignored {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return false
		}
	}
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") && !strings.HasPrefix(base, ".contentpipe") {
		return false
	}
	return !strings.HasSuffix(base, "~")
}

// run calls onChange after every burst of relevant events until ctx is
// done or onChange fails.
func (w *watcher) run(ctx context.Context, onChange func(context.Context) error) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case e, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(e.Name) {
				continue
			}
			if e.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(e.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(e.Name); err != nil {
						w.logger.Warn("failed to watch directory", "dir", e.Name, "err", err)
					}
				}
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("change", "file", e.Name, "op", e.Op.String())
			pending = true
			timer.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "err", err)

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			if err := onChange(ctx); err != nil {
				return err
			}
		}
	}
}
