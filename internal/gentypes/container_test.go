package gentypes

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contentpipe/internal/buildcache"
	"github.com/roach88/contentpipe/internal/corelib"
	"github.com/roach88/contentpipe/internal/ir"
	"github.com/roach88/contentpipe/internal/module"
)

type fixture struct {
	host   *module.Module
	ledger *buildcache.Ledger
	reg    *Registry
}

func newFixture(t *testing.T, host *module.Module, buildID string) fixture {
	t.Helper()
	if host == nil {
		host = module.New("Game.Content", corelib.New())
	}
	ledger, err := buildcache.New(host, buildID, nil)
	require.NoError(t, err)
	return fixture{host: host, ledger: ledger, reg: NewRegistry(host, ledger, nil)}
}

func genType(name string) *ir.TypeDef {
	return ir.NewType("Game.Effects", name, corelib.Effect)
}

// generated returns the host type names and marker type names for one
// build-file.
func (f fixture) generated(buildFile string) (types, markers []string) {
	for _, m := range f.ledger.MarkersFor(buildFile) {
		markers = append(markers, m.TypeName)
	}
	c, ok := f.reg.Container(buildFile)
	if ok {
		for _, t := range c.Items() {
			if f.host.HasType(t.FullName()) {
				types = append(types, t.FullName())
			}
		}
	}
	sort.Strings(types)
	sort.Strings(markers)
	return types, markers
}

func TestAddRemoveSymmetry(t *testing.T) {
	f := newFixture(t, nil, "b1")
	c := f.reg.GetOrCreate("a.fx", "b1")

	a, b, d := genType("A"), genType("B"), genType("D")
	require.NoError(t, c.Add(a, b))
	require.NoError(t, c.Add(d))
	require.NoError(t, c.Remove(b))

	types, markers := f.generated("a.fx")
	assert.Equal(t, []string{"Game.Effects.A", "Game.Effects.D"}, types)
	assert.Equal(t, types, markers)
	assert.False(t, f.host.HasType("Game.Effects.B"))

	owner, ok := f.reg.Owner("Game.Effects.A")
	require.True(t, ok)
	assert.Same(t, c, owner)
	_, ok = f.reg.Owner("Game.Effects.B")
	assert.False(t, ok)
}

func TestAddReplacesCollidingType(t *testing.T) {
	host := module.New("Game.Content", corelib.New())
	first := newFixture(t, host, "b1")
	require.NoError(t, first.reg.GetOrCreate("a.fx", "b1").Add(genType("A")))

	second := newFixture(t, host, "b2")
	second.reg.Restore()
	fresh := genType("A")
	require.NoError(t, second.reg.GetOrCreate("a.fx", "b2").Add(fresh))

	count := 0
	for _, typ := range host.Types() {
		if typ.FullName() == "Game.Effects.A" {
			count++
			assert.Same(t, fresh, typ)
		}
	}
	assert.Equal(t, 1, count)

	m, ok := second.ledger.Lookup("a.fx", "Game.Effects.A")
	require.True(t, ok)
	assert.Equal(t, "b2", m.BuildID)
	assert.Len(t, host.AttributesOf(buildcache.FullName), 1)
}

func TestAddReplacesUnownedType(t *testing.T) {
	f := newFixture(t, nil, "b1")
	require.NoError(t, f.host.AddType(genType("A")))

	fresh := genType("A")
	require.NoError(t, f.reg.GetOrCreate("a.fx", "b1").Add(fresh))
	assert.Same(t, fresh, f.host.Type("Game.Effects.A"))
}

func TestAddMovesTypeBetweenBuildFiles(t *testing.T) {
	f := newFixture(t, nil, "b1")
	a := f.reg.GetOrCreate("a.fx", "b1")
	b := f.reg.GetOrCreate("b.fx", "b1")
	require.NoError(t, a.Add(genType("Shared")))

	require.NoError(t, b.Add(genType("Shared")))

	assert.Zero(t, a.Len())
	assert.Equal(t, 1, b.Len())
	assert.Empty(t, f.ledger.MarkersFor("a.fx"))
	assert.Len(t, f.ledger.MarkersFor("b.fx"), 1)
}

func TestReAddSameTypeIsIdempotent(t *testing.T) {
	f := newFixture(t, nil, "b1")
	c := f.reg.GetOrCreate("a.fx", "b1")
	a := genType("A")
	require.NoError(t, c.Add(a))
	require.NoError(t, c.Add(a))

	assert.Equal(t, 1, c.Len())
	assert.Len(t, f.ledger.MarkersFor("a.fx"), 1)
}

func TestApplyRejectsUnsupportedChanges(t *testing.T) {
	f := newFixture(t, nil, "b1")
	c := f.reg.GetOrCreate("a.fx", "b1")

	for _, kind := range []ChangeKind{ChangeReplace, ChangeMove, ChangeReset} {
		t.Run(kind.String(), func(t *testing.T) {
			err := c.Apply(Change{Kind: kind, Items: []*ir.TypeDef{genType("A")}})
			assert.ErrorIs(t, err, ErrUnsupportedChange)
			assert.Zero(t, c.Len())
			assert.False(t, f.host.HasType("Game.Effects.A"))
		})
	}

	require.NoError(t, c.Apply(Change{Kind: ChangeAdd, Items: []*ir.TypeDef{genType("A")}}))
	require.NoError(t, c.Apply(Change{Kind: ChangeRemove, Items: []*ir.TypeDef{genType("A")}}))
	assert.Zero(t, c.Len())
}

func TestRemoveUnknownType(t *testing.T) {
	f := newFixture(t, nil, "b1")
	err := f.reg.GetOrCreate("a.fx", "b1").Remove(genType("A"))
	assert.ErrorIs(t, err, ErrNotInContainer)
}

func TestRemoveStale(t *testing.T) {
	host := module.New("Game.Content", corelib.New())
	first := newFixture(t, host, "b1")
	require.NoError(t, first.reg.GetOrCreate("a.fx", "b1").Add(genType("A"), genType("Old")))

	second := newFixture(t, host, "b2")
	assert.Equal(t, 2, second.reg.Restore())
	c := second.reg.GetOrCreate("a.fx", "b2")
	require.NoError(t, c.Add(genType("A")))

	stale, err := c.RemoveStale("b2")
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "Game.Effects.Old", stale[0].FullName())

	types, markers := second.generated("a.fx")
	assert.Equal(t, []string{"Game.Effects.A"}, types)
	assert.Equal(t, types, markers)
}

func TestRetainOnly(t *testing.T) {
	f := newFixture(t, nil, "b1")
	require.NoError(t, f.reg.GetOrCreate("a.fx", "b1").Add(genType("A")))
	require.NoError(t, f.reg.GetOrCreate("gone.fx", "b1").Add(genType("Gone")))

	removed, err := f.reg.RetainOnly([]string{"a.fx"})
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, "Game.Effects.Gone", removed[0].FullName())
	assert.False(t, f.host.HasType("Game.Effects.Gone"))
	assert.Empty(t, f.ledger.MarkersFor("gone.fx"))
	assert.True(t, f.host.HasType("Game.Effects.A"))
}

func TestGetOrCreateReturnsSameContainer(t *testing.T) {
	f := newFixture(t, nil, "b1")
	c1 := f.reg.GetOrCreate("a.fx", "b1")
	c2 := f.reg.GetOrCreate("a.fx", "b2")
	assert.Same(t, c1, c2)
	assert.Equal(t, "b2", c2.BuildID)
	assert.Len(t, f.reg.Containers(), 1)
}
