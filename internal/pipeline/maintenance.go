package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/roach88/contentpipe/internal/buildcache"
	"github.com/roach88/contentpipe/internal/content"
	"github.com/roach88/contentpipe/internal/corelib"
	"github.com/roach88/contentpipe/internal/ir"
	"github.com/roach88/contentpipe/internal/logging"
	"github.com/roach88/contentpipe/internal/module"
	"github.com/roach88/contentpipe/internal/project"
	"github.com/roach88/contentpipe/internal/store"
)

// CleanResult lists what Clean removed.
type CleanResult struct {
	Types   []string
	Outputs []string
}

// Clean removes the generated types, markers, outputs and cache entries
// of buildFile, or of every build-file when buildFile is empty.
func Clean(ctx context.Context, p *project.Project, buildFile string, logger *log.Logger) (*CleanResult, error) {
	logger = logging.OrDiscard(logger)
	s, err := openSession(ctx, p, "", true, logger)
	if err != nil {
		return nil, err
	}
	defer s.close()

	s.types.Restore()
	res := &CleanResult{}

	for _, c := range s.types.Containers() {
		if buildFile != "" && c.BuildFile != buildFile {
			continue
		}
		removed, err := c.Clear()
		for _, t := range removed {
			res.Types = append(res.Types, t.FullName())
		}
		if err != nil {
			return res, fmt.Errorf("clean %s: %w", c.BuildFile, err)
		}
	}

	files := []string{buildFile}
	if buildFile == "" {
		if files, err = s.cache.BuildFiles(); err != nil {
			return res, err
		}
		for _, a := range p.Assets {
			files = append(files, a.BuildFile)
		}
	}
	seen := make(map[string]bool)
	for _, f := range files {
		out := p.OutputPath(f, content.FileExtension)
		if entry, err := s.cache.Lookup(f); err == nil && entry != nil && entry.Output != "" {
			out = filepath.Join(p.OutputDir, filepath.FromSlash(entry.Output))
		}
		if seen[out] {
			continue
		}
		seen[out] = true
		if err := os.Remove(out); err == nil {
			res.Outputs = append(res.Outputs, out)
		} else if !errors.Is(err, os.ErrNotExist) {
			return res, fmt.Errorf("remove output: %w", err)
		}
		if err := s.cache.Delete(f); err != nil {
			return res, err
		}
	}

	if err := s.save(ctx); err != nil {
		return res, err
	}
	logger.Info("cleaned", "types", len(res.Types), "outputs", len(res.Outputs))
	return res, nil
}

// MarkerInfo is one ledger marker with the state of its type.
type MarkerInfo struct {
	TypeName    string
	BuildID     string
	Fingerprint string
	// Dangling is set when the type is missing from the host module.
	Dangling bool
}

// FileInfo groups the markers of one build-file.
type FileInfo struct {
	BuildFile   string
	Consistency buildcache.Consistency
	Markers     []MarkerInfo
}

// LedgerReport describes the ledger of a project's host image.
type LedgerReport struct {
	Module string
	Files  []FileInfo
	// Purged lists the dangling markers removed when purging.
	Purged []buildcache.Marker
	Builds []store.Build
}

// InspectLedger reports the markers of p's host image grouped by
// build-file, with type fingerprints and the recent build history. With
// purge set, dangling markers are removed and the image is saved.
func InspectLedger(ctx context.Context, p *project.Project, purge bool, history int, logger *log.Logger) (*LedgerReport, error) {
	logger = logging.OrDiscard(logger)
	s, err := openSession(ctx, p, "", false, logger)
	if err != nil {
		return nil, err
	}
	defer s.close()

	rep := &LedgerReport{Module: s.mod.Name}
	for _, f := range s.ledger.BuildFiles() {
		fi := FileInfo{BuildFile: f, Consistency: s.ledger.Consistency(f)}
		for _, m := range s.ledger.MarkersFor(f) {
			mi := MarkerInfo{TypeName: m.TypeName, BuildID: m.BuildID}
			if t := s.mod.Type(m.TypeName); t != nil {
				if mi.Fingerprint, err = ir.TypeFingerprint(t); err != nil {
					return nil, err
				}
			} else {
				mi.Dangling = true
			}
			fi.Markers = append(fi.Markers, mi)
		}
		rep.Files = append(rep.Files, fi)
	}

	if purge {
		rep.Purged = s.ledger.PurgeDangling()
		if len(rep.Purged) > 0 {
			if err := s.save(ctx); err != nil {
				return nil, err
			}
		}
	}

	if rep.Builds, err = s.store.Builds(ctx, history); err != nil {
		return nil, err
	}
	return rep, nil
}

// OpenModule loads p's host image without bootstrapping a ledger. A
// project that was never built yields an empty module.
func OpenModule(ctx context.Context, p *project.Project) (*module.Module, error) {
	if _, err := os.Stat(p.HostPath()); errors.Is(err, os.ErrNotExist) {
		return module.New(p.Name, corelib.New()), nil
	}
	st, err := store.Open(p.HostPath())
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.LoadModule(ctx, p.Name, corelib.New())
}
