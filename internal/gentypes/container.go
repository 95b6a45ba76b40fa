package gentypes

import (
	"fmt"
	"slices"

	"github.com/roach88/contentpipe/internal/ir"
)

// ChangeKind names a mutation shape of a container.
type ChangeKind int

const (
	ChangeAdd ChangeKind = iota
	ChangeRemove
	ChangeReplace
	ChangeMove
	ChangeReset
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdd:
		return "add"
	case ChangeRemove:
		return "remove"
	case ChangeReplace:
		return "replace"
	case ChangeMove:
		return "move"
	case ChangeReset:
		return "reset"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// Change is a requested container mutation.
type Change struct {
	Kind  ChangeKind
	Items []*ir.TypeDef
}

// Container is the insertion-ordered set of types generated from one
// build-file.
type Container struct {
	BuildFile string
	BuildID   string

	reg   *Registry
	items []*ir.TypeDef
}

// Items returns the types in insertion order.
func (c *Container) Items() []*ir.TypeDef {
	return slices.Clone(c.items)
}

func (c *Container) Len() int {
	return len(c.items)
}

// Contains reports whether a type with this full name is in the container.
func (c *Container) Contains(fullName string) bool {
	return c.indexOf(fullName) >= 0
}

func (c *Container) indexOf(fullName string) int {
	return slices.IndexFunc(c.items, func(t *ir.TypeDef) bool {
		return t.FullName() == fullName
	})
}

// Apply performs an add or remove change. Every other kind fails with
// ErrUnsupportedChange before anything is touched.
func (c *Container) Apply(ch Change) error {
	switch ch.Kind {
	case ChangeAdd:
		return c.Add(ch.Items...)
	case ChangeRemove:
		return c.Remove(ch.Items...)
	default:
		return fmt.Errorf("%s on %s: %w", ch.Kind, c.BuildFile, ErrUnsupportedChange)
	}
}

// Add inserts types. For each one: a host type with the same full name is
// removed first, then the marker is stamped, then the type is inserted and
// indexed.
func (c *Container) Add(types ...*ir.TypeDef) error {
	for _, t := range types {
		if err := c.add(t); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) add(t *ir.TypeDef) error {
	r := c.reg
	name := t.FullName()

	if r.mod.HasType(name) {
		if err := c.evict(name); err != nil {
			return fmt.Errorf("add %s: %w", name, err)
		}
	}

	r.ledger.UpdateOrCreate(c.BuildFile, t)
	if err := r.mod.AddType(t); err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	c.items = append(c.items, t)
	r.index[name] = c
	return nil
}

// evict removes a stale host type that collides with a type being added.
func (c *Container) evict(name string) error {
	r := c.reg
	owner, owned := r.index[name]
	switch {
	case !owned:
		r.logger.Debug("replacing unowned type", "type", name, "file", c.BuildFile)
		r.mod.RemoveTypeByName(name)
	case owner == c:
		// Same key: the marker is rewritten by the upsert that follows.
		r.mod.RemoveTypeByName(name)
		c.drop(c.indexOf(name))
	default:
		r.logger.Debug("type moved between build-files", "type", name, "from", owner.BuildFile, "to", c.BuildFile)
		stale := owner.items[owner.indexOf(name)]
		if err := owner.Remove(stale); err != nil {
			return err
		}
	}
	return nil
}

// Remove takes types out of the container, the host module and the
// ledger.
func (c *Container) Remove(types ...*ir.TypeDef) error {
	for _, t := range types {
		if err := c.remove(t); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) remove(t *ir.TypeDef) error {
	r := c.reg
	name := t.FullName()
	i := c.indexOf(name)
	if i < 0 {
		return fmt.Errorf("remove %s from %s: %w", name, c.BuildFile, ErrNotInContainer)
	}

	r.mod.RemoveTypeByName(name)
	if err := r.ledger.Remove(c.BuildFile, t); err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	c.drop(i)
	return nil
}

// drop forgets item i without touching the host or the ledger.
func (c *Container) drop(i int) {
	delete(c.reg.index, c.items[i].FullName())
	c.items = slices.Delete(c.items, i, i+1)
}

// Clear removes every type and returns them.
func (c *Container) Clear() ([]*ir.TypeDef, error) {
	items := c.Items()
	for i, t := range items {
		if err := c.remove(t); err != nil {
			return items[:i], err
		}
	}
	return items, nil
}

// RemoveStale removes the types whose marker carries a build id other than
// buildID and returns them.
func (c *Container) RemoveStale(buildID string) ([]*ir.TypeDef, error) {
	var stale []*ir.TypeDef
	for _, t := range c.items {
		m, ok := c.reg.ledger.Lookup(c.BuildFile, t.FullName())
		if !ok || m.BuildID != buildID {
			stale = append(stale, t)
		}
	}
	for _, t := range stale {
		if _, ok := c.reg.ledger.Lookup(c.BuildFile, t.FullName()); !ok {
			// No marker to drop; remove the type alone.
			c.reg.mod.RemoveTypeByName(t.FullName())
			c.drop(c.indexOf(t.FullName()))
			continue
		}
		if err := c.remove(t); err != nil {
			return stale, err
		}
	}
	return stale, nil
}
