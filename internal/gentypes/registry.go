// Package gentypes tracks generated types per build-file. Adding or
// removing a type through a Container is the only way generated types
// enter or leave the host module, and every such mutation is bracketed by
// the matching marker update in the ledger.
//
// Ordering: Add stamps the marker before inserting the type; Remove drops
// the type before dropping the marker. A crash between the two steps
// therefore leaves a dangling marker, which the ledger can detect, never
// an unmarked type, which would be mistaken for hand-written code.
package gentypes

import (
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/roach88/contentpipe/internal/buildcache"
	"github.com/roach88/contentpipe/internal/ir"
	"github.com/roach88/contentpipe/internal/logging"
	"github.com/roach88/contentpipe/internal/module"
)

var (
	ErrUnsupportedChange = errors.New("unsupported container change")
	ErrNotInContainer    = errors.New("type not in container")
)

// Registry owns one Container per build-file and the global index from
// generated type name to owning container. It is not safe for concurrent
// use.
type Registry struct {
	mod        *module.Module
	ledger     *buildcache.Ledger
	containers map[string]*Container
	order      []string
	index      map[string]*Container
	logger     *log.Logger
}

// NewRegistry creates an empty registry over a host module and its ledger.
func NewRegistry(mod *module.Module, ledger *buildcache.Ledger, logger *log.Logger) *Registry {
	return &Registry{
		mod:        mod,
		ledger:     ledger,
		containers: make(map[string]*Container),
		index:      make(map[string]*Container),
		logger:     logging.OrDiscard(logger),
	}
}

// GetOrCreate returns the container for buildFile, creating it on first
// use. An existing container is rebound to buildID.
func (r *Registry) GetOrCreate(buildFile, buildID string) *Container {
	if c, ok := r.containers[buildFile]; ok {
		c.BuildID = buildID
		return c
	}
	c := &Container{BuildFile: buildFile, BuildID: buildID, reg: r}
	r.containers[buildFile] = c
	r.order = append(r.order, buildFile)
	return c
}

// Container returns the container for buildFile if one exists.
func (r *Registry) Container(buildFile string) (*Container, bool) {
	c, ok := r.containers[buildFile]
	return c, ok
}

// Containers returns the containers in creation order.
func (r *Registry) Containers() []*Container {
	out := make([]*Container, 0, len(r.order))
	for _, f := range r.order {
		out = append(out, r.containers[f])
	}
	return out
}

// Owner returns the container holding the generated type fullName.
func (r *Registry) Owner(fullName string) (*Container, bool) {
	c, ok := r.index[fullName]
	return c, ok
}

// Ledger returns the marker ledger the registry keeps in step.
func (r *Registry) Ledger() *buildcache.Ledger {
	return r.ledger
}

// Restore rebuilds containers from the ledger's markers so that types
// generated by earlier builds can be found and removed. Types already
// indexed are skipped; markers without a type are ignored (see
// Ledger.PurgeDangling).
func (r *Registry) Restore() int {
	restored := 0
	for _, m := range r.ledger.Markers() {
		if _, ok := r.index[m.TypeName]; ok {
			continue
		}
		t := r.mod.Type(m.TypeName)
		if t == nil {
			continue
		}
		c, ok := r.containers[m.BuildFile]
		if !ok {
			c = r.GetOrCreate(m.BuildFile, m.BuildID)
		}
		c.items = append(c.items, t)
		r.index[m.TypeName] = c
		restored++
	}
	r.logger.Debug("restored generated types", "count", restored)
	return restored
}

// RetainOnly empties every container whose build-file is not in keep and
// returns the removed types.
func (r *Registry) RetainOnly(keep []string) ([]*ir.TypeDef, error) {
	var removed []*ir.TypeDef
	for _, c := range r.Containers() {
		if slices.Contains(keep, c.BuildFile) {
			continue
		}
		items, err := c.Clear()
		removed = append(removed, items...)
		if err != nil {
			return removed, fmt.Errorf("retain: %w", err)
		}
	}
	return removed, nil
}
