package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/roach88/contentpipe/internal/buildcache"
	"github.com/roach88/contentpipe/internal/cache"
	"github.com/roach88/contentpipe/internal/corelib"
	"github.com/roach88/contentpipe/internal/gentypes"
	"github.com/roach88/contentpipe/internal/module"
	"github.com/roach88/contentpipe/internal/project"
	"github.com/roach88/contentpipe/internal/store"
)

// session is the persistent state of one project opened for a build or
// a maintenance command.
type session struct {
	store  *store.Store
	cache  *cache.Cache
	mod    *module.Module
	ledger *buildcache.Ledger
	types  *gentypes.Registry
}

// openSession loads the host image of p and bootstraps the ledger and
// containers over it. The cache is opened only when withCache is set.
func openSession(ctx context.Context, p *project.Project, buildID string, withCache bool, logger *log.Logger) (*session, error) {
	if err := os.MkdirAll(p.IntermediateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create intermediate directory: %w", err)
	}

	st, err := store.Open(p.HostPath())
	if err != nil {
		return nil, fmt.Errorf("open host image: %w", err)
	}
	s := &session{store: st}

	if s.mod, err = st.LoadModule(ctx, p.Name, corelib.New()); err != nil {
		s.close()
		return nil, fmt.Errorf("load host image: %w", err)
	}
	if s.ledger, err = buildcache.New(s.mod, buildID, logger); err != nil {
		s.close()
		return nil, err
	}
	s.types = gentypes.NewRegistry(s.mod, s.ledger, logger)

	if withCache {
		if s.cache, err = cache.Open(p.IntermediateDir); err != nil {
			s.close()
			return nil, err
		}
	}
	return s, nil
}

func (s *session) save(ctx context.Context) error {
	if err := s.store.SaveModule(ctx, s.mod); err != nil {
		return fmt.Errorf("save host image: %w", err)
	}
	return nil
}

func (s *session) close() error {
	var errs []error
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	errs = append(errs, s.store.Close())
	return errors.Join(errs...)
}
