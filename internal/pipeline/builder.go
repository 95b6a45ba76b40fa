package pipeline

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/roach88/contentpipe/internal/buildcache"
	"github.com/roach88/contentpipe/internal/cache"
	"github.com/roach88/contentpipe/internal/content"
	"github.com/roach88/contentpipe/internal/logging"
	"github.com/roach88/contentpipe/internal/project"
	"github.com/roach88/contentpipe/internal/store"
)

// Status is the outcome of one asset.
type Status string

const (
	StatusBuilt   Status = "built"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
	StatusIgnored Status = "ignored"
)

// AssetResult describes what a build did with one asset.
type AssetResult struct {
	BuildFile string
	Status    Status
	// Output is the content file path, set for built and skipped assets.
	Output string
	// Types are the generated types the asset owns after the build.
	Types []string
	// Removed are generated types dropped as orphans.
	Removed []string
}

// Result summarizes a build.
type Result struct {
	BuildID    string
	StartedAt  time.Time
	FinishedAt time.Time
	Assets     []AssetResult
	// Retired are generated types removed because their build-file left
	// the project.
	Retired []string
	// Purged are dangling markers removed at bootstrap.
	Purged   []buildcache.Marker
	Messages []Message
}

// Count returns how many assets ended with status s.
func (r *Result) Count(s Status) int {
	n := 0
	for _, a := range r.Assets {
		if a.Status == s {
			n++
		}
	}
	return n
}

// Failed reports whether any asset failed.
func (r *Result) Failed() bool {
	return r.Count(StatusFailed) > 0
}

// Builder runs builds. A Builder may run several builds in sequence but
// not concurrently.
type Builder struct {
	handlers []Handler
	registry *content.Registry
	ids      BuildIDGenerator
	buildID  string
	clock    Clock
	logger   *log.Logger
	reporter Reporter
	noCache  bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger build messages are mirrored to.
func WithLogger(l *log.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithReporter forwards every build message to r.
func WithReporter(r Reporter) Option {
	return func(b *Builder) { b.reporter = r }
}

// WithHandlers replaces the default effect handler.
func WithHandlers(h ...Handler) Option {
	return func(b *Builder) { b.handlers = h }
}

// WithContentRegistry sets the content writer table.
func WithContentRegistry(r *content.Registry) Option {
	return func(b *Builder) { b.registry = r }
}

// WithBuildIDs sets the build id source.
func WithBuildIDs(g BuildIDGenerator) Option {
	return func(b *Builder) { b.ids = g }
}

// WithBuildID pins the id of every build.
func WithBuildID(id string) Option {
	return func(b *Builder) { b.buildID = id }
}

// WithClock sets the clock build timestamps are taken from.
func WithClock(c Clock) Option {
	return func(b *Builder) { b.clock = c }
}

// WithoutCache disables the incremental asset cache: every asset is
// rebuilt and no entries are written.
func WithoutCache() Option {
	return func(b *Builder) { b.noCache = true }
}

// New creates a Builder. By default it handles effect descriptions with
// DeclaredBackend and writes content with the standard registry.
func New(opts ...Option) (*Builder, error) {
	b := &Builder{
		ids:   UUIDv7Generator{},
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logging.OrDiscard(b.logger)
	if b.handlers == nil {
		b.handlers = []Handler{EffectHandler(DeclaredBackend{})}
	}
	if b.registry == nil {
		reg, err := content.NewStandardRegistry()
		if err != nil {
			return nil, err
		}
		b.registry = reg
	}
	return b, nil
}

// Registry returns the content registry outputs are written with.
func (b *Builder) Registry() *content.Registry {
	return b.registry
}

func (b *Builder) handlerFor(path string) (Handler, bool) {
	for _, h := range b.handlers {
		if h.Importer.CanImport(path) {
			return h, true
		}
	}
	return Handler{}, false
}

// Build builds every asset of p. Asset failures are reported and counted
// in the result; the returned error is reserved for failures of the
// build's own state and for cancellation, which stops before the next
// asset but still saves the host image.
func (b *Builder) Build(ctx context.Context, p *project.Project) (*Result, error) {
	buildID := b.buildID
	if buildID == "" {
		buildID = b.ids.Generate()
	}
	logger := b.logger.With("build", buildID)
	collector := NewCollector(logger, b.reporter)

	res := &Result{BuildID: buildID, StartedAt: b.clock()}

	s, err := openSession(ctx, p, buildID, !b.noCache, logger)
	if err != nil {
		return nil, err
	}
	defer s.close()

	for _, m := range s.ledger.PurgeDangling() {
		collector.Report(Message{
			File:     m.BuildFile,
			Text:     fmt.Sprintf("removed marker for missing generated type %s", m.TypeName),
			Severity: SeverityWarning,
		})
		res.Purged = append(res.Purged, m)
	}
	s.types.Restore()

	var cancelled error
	for _, a := range p.Assets {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		res.Assets = append(res.Assets, b.buildAsset(ctx, s, p, a, buildID, collector, logger))
	}

	if cancelled == nil {
		retired, err := b.retire(s, p, logger)
		res.Retired = retired
		if err != nil {
			return nil, err
		}
	}

	// The image is saved even after cancellation so that the markers
	// match the types written so far.
	saveCtx := context.WithoutCancel(ctx)
	if err := s.save(saveCtx); err != nil {
		return nil, err
	}

	res.FinishedAt = b.clock()
	res.Messages = collector.Messages()
	if err := s.store.RecordBuild(saveCtx, record(res)); err != nil {
		return nil, err
	}

	logger.Info("build finished",
		"built", res.Count(StatusBuilt),
		"skipped", res.Count(StatusSkipped),
		"failed", res.Count(StatusFailed),
		"elapsed", res.FinishedAt.Sub(res.StartedAt))
	return res, cancelled
}

// buildAsset is the per-asset error boundary: every failure, including a
// panic in a handler, becomes an Error message for the asset.
func (b *Builder) buildAsset(ctx context.Context, s *session, p *project.Project, a project.Asset, buildID string, report Reporter, logger *log.Logger) (ar AssetResult) {
	ar = AssetResult{BuildFile: a.BuildFile, Status: StatusFailed}
	logger = logger.With("file", a.BuildFile)

	fail := func(err error) {
		ar.Status = StatusFailed
		ar.Output = ""
		report.Report(Message{File: a.BuildFile, Text: err.Error(), Severity: SeverityError})
		if s.cache != nil {
			if err := s.cache.Delete(a.BuildFile); err != nil {
				logger.Warn("failed to drop cache entry", "err", err)
			}
		}
	}
	defer func() {
		if r := recover(); r != nil {
			fail(fmt.Errorf("internal error: %v", r))
		}
	}()

	h, ok := b.handlerFor(a.Path)
	if !ok {
		report.Report(Message{File: a.BuildFile, Text: "no importer for this file type", Severity: SeverityWarning})
		ar.Status = StatusIgnored
		return ar
	}

	imp, err := h.Importer.Import(ctx, a.Path)
	if err != nil {
		fail(fmt.Errorf("import: %w", err))
		return ar
	}

	params := maps.Clone(a.Params)
	if params == nil {
		params = make(map[string]string)
	}
	params["handler"] = h.Name
	params["namespace"] = p.Namespace
	hash, err := cache.HashSource(a.Path, imp.Dependencies, params)
	if err != nil {
		fail(err)
		return ar
	}

	out := p.OutputPath(a.BuildFile, content.FileExtension)
	if entry := b.upToDate(s, a.BuildFile, hash, out, logger); entry != nil {
		ar.Status = StatusSkipped
		ar.Output = out
		ar.Types = entry.Types
		logger.Debug("asset up to date", "cached_build", entry.BuildID)
		return ar
	}

	if c := s.ledger.Consistency(a.BuildFile); c.State == buildcache.Inconsistent {
		report.Report(Message{
			File:     a.BuildFile,
			Text:     "generated types come from different builds; regenerating all of them",
			Severity: SeverityWarning,
		})
	}

	container := s.types.GetOrCreate(a.BuildFile, buildID)
	pc := &ProcessContext{
		Context:   ctx,
		Asset:     a,
		BuildID:   buildID,
		Namespace: p.Namespace,
		Module:    s.mod,
		Container: container,
		Logger:    logger,
		reporter:  report,
		claims: func(fullName string) (string, bool) {
			owner, ok := s.types.Owner(fullName)
			if !ok || owner.BuildFile == a.BuildFile {
				return "", false
			}
			if _, inProject := p.Asset(owner.BuildFile); !inProject {
				return "", false
			}
			return owner.BuildFile, true
		},
	}
	value, err := h.Processor.Process(pc, imp.Value)
	if err != nil {
		fail(fmt.Errorf("process: %w", err))
		return ar
	}

	stale, err := container.RemoveStale(buildID)
	for _, t := range stale {
		ar.Removed = append(ar.Removed, t.FullName())
		logger.Debug("removed orphaned type", "type", t.FullName())
	}
	if err != nil {
		fail(err)
		return ar
	}

	if err := content.Save(out, b.registry, value); err != nil {
		fail(fmt.Errorf("write: %w", err))
		return ar
	}

	for _, t := range container.Items() {
		ar.Types = append(ar.Types, t.FullName())
	}
	ar.Output = out
	ar.Status = StatusBuilt

	if s.cache != nil {
		rel, _ := filepath.Rel(p.OutputDir, out)
		err := s.cache.Put(cache.Entry{
			Hash:      hash,
			BuildFile: a.BuildFile,
			BuildID:   buildID,
			Types:     ar.Types,
			Output:    filepath.ToSlash(rel),
			Timestamp: b.clock(),
		})
		if err != nil {
			logger.Warn("failed to write cache entry", "err", err)
		}
	}
	logger.Debug("asset built", "output", out, "types", len(ar.Types))
	return ar
}

// upToDate returns the cache entry when the asset can be skipped: same
// input hash, every marker of the build-file carries the entry's build
// id, every recorded type is still in the host module and owned by this
// build-file, and the output exists.
func (b *Builder) upToDate(s *session, buildFile, hash, out string, logger *log.Logger) *cache.Entry {
	if s.cache == nil {
		return nil
	}
	entry, err := s.cache.Get(buildFile, hash)
	if err != nil {
		logger.Warn("cache read failed", "err", err)
		return nil
	}
	if entry == nil {
		return nil
	}
	if len(entry.Types) > 0 {
		prev, ok := s.ledger.PreviousBuildID(buildFile)
		if !ok || prev != entry.BuildID {
			return nil
		}
	}
	for _, name := range entry.Types {
		owner, ok := s.types.Owner(name)
		if !ok || owner.BuildFile != buildFile || !s.mod.HasType(name) {
			return nil
		}
	}
	if _, err := os.Stat(out); err != nil {
		return nil
	}
	return entry
}

// retire empties the containers of build-files that left the project and
// deletes their outputs and cache entries.
func (b *Builder) retire(s *session, p *project.Project, logger *log.Logger) ([]string, error) {
	keep := p.BuildFiles()
	removed, err := s.types.RetainOnly(keep)
	var names []string
	for _, t := range removed {
		names = append(names, t.FullName())
		logger.Info("removed generated type of retired build-file", "type", t.FullName())
	}
	if err != nil {
		return names, err
	}

	if s.cache == nil {
		return names, nil
	}
	files, err := s.cache.BuildFiles()
	if err != nil {
		return names, err
	}
	for _, f := range files {
		if slices.Contains(keep, f) {
			continue
		}
		if entry, err := s.cache.Lookup(f); err == nil && entry != nil && entry.Output != "" {
			out := filepath.Join(p.OutputDir, filepath.FromSlash(entry.Output))
			if err := os.Remove(out); err != nil && !errors.Is(err, os.ErrNotExist) {
				logger.Warn("failed to remove retired output", "output", out, "err", err)
			}
		}
		if err := s.cache.Delete(f); err != nil {
			return names, err
		}
	}
	return names, nil
}

func record(res *Result) store.Build {
	rec := store.Build{
		ID:         res.BuildID,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Assets:     len(res.Assets),
		Skipped:    res.Count(StatusSkipped),
		Errors:     countSeverity(res.Messages, SeverityError),
		Warnings:   countSeverity(res.Messages, SeverityWarning),
	}
	for _, a := range res.Assets {
		o := store.AssetOutcome{BuildFile: a.BuildFile, Status: string(a.Status)}
		for _, m := range res.Messages {
			if m.File == a.BuildFile && m.Severity == SeverityError {
				o.Message = m.Text
				break
			}
		}
		rec.Outcomes = append(rec.Outcomes, o)
	}
	return rec
}

func countSeverity(msgs []Message, s Severity) int {
	n := 0
	for _, m := range msgs {
		if m.Severity == s {
			n++
		}
	}
	return n
}
