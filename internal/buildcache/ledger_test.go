package buildcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contentpipe/internal/corelib"
	"github.com/roach88/contentpipe/internal/ir"
	"github.com/roach88/contentpipe/internal/module"
)

func newHost() *module.Module {
	return module.New("Game.Content", corelib.New())
}

func genType(name string) *ir.TypeDef {
	return ir.NewType("Game.Effects", name, corelib.Effect)
}

func TestBootstrapSynthesizesMarkerType(t *testing.T) {
	host := newHost()
	l, err := New(host, "b1", nil)
	require.NoError(t, err)

	typ := host.Type(FullName)
	require.NotNil(t, typ)
	assert.Equal(t, ir.TypeAttribute, typ.BaseType)
	assert.NotNil(t, typ.Property("BuildId"))
	assert.NotNil(t, typ.Property("BuildFile"))
	assert.NotNil(t, typ.Property("TypeName"))

	ctor := l.Constructor()
	assert.Equal(t, FullName, ctor.DeclaringType.FullName)
	assert.Equal(t, []ir.TypeRef{ir.TypeString, ir.TypeString, ir.TypeString}, ctor.Params)

	require.Len(t, typ.CustomAttributes, 1)
	usage := typ.CustomAttributes[0]
	assert.Equal(t, corelib.AttributeUsage, usage.AttributeType())
	assert.Equal(t, []ir.Value{ir.Int(corelib.AttributeTargetsAssembly)}, usage.Args)
}

func TestBootstrapReusesExistingType(t *testing.T) {
	host := newHost()
	_, err := New(host, "b1", nil)
	require.NoError(t, err)
	_, err = New(host, "b2", nil)
	require.NoError(t, err)

	count := 0
	for _, typ := range host.Types() {
		if typ.FullName() == FullName {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestUpdateOrCreateIsIdempotent(t *testing.T) {
	host := newHost()
	basic := genType("Basic")

	first, err := New(host, "b1", nil)
	require.NoError(t, err)
	first.UpdateOrCreate("effects/basic.fx", basic)

	second, err := New(host, "b2", nil)
	require.NoError(t, err)
	second.UpdateOrCreate("effects/basic.fx", basic)
	second.UpdateOrCreate("effects/basic.fx", basic)

	attrs := host.AttributesOf(FullName)
	require.Len(t, attrs, 1)
	assert.Equal(t, []ir.Value{ir.String("b2"), ir.String("effects/basic.fx"), ir.String("Game.Effects.Basic")}, attrs[0].Args)

	m, ok := second.Lookup("effects/basic.fx", "Game.Effects.Basic")
	require.True(t, ok)
	assert.Equal(t, "b2", m.BuildID)
}

func TestRemove(t *testing.T) {
	host := newHost()
	l, err := New(host, "b1", nil)
	require.NoError(t, err)
	basic := genType("Basic")

	err = l.Remove("effects/basic.fx", basic)
	assert.ErrorIs(t, err, ErrMarkerNotFound)

	l.UpdateOrCreate("effects/basic.fx", basic)
	require.NoError(t, l.Remove("effects/basic.fx", basic))
	assert.Empty(t, host.AttributesOf(FullName))
	assert.Empty(t, l.Markers())

	err = l.Remove("effects/basic.fx", basic)
	assert.ErrorIs(t, err, ErrMarkerNotFound)
}

func TestConsistencyAtBootstrap(t *testing.T) {
	tests := []struct {
		name     string
		ids      []string
		want     State
		wantID   string
		wantPrev bool
	}{
		{"no markers", nil, Unknown, "", false},
		{"all agree", []string{"b1", "b1", "b1"}, Consistent, "b1", true},
		{"disagree", []string{"b1", "b2"}, Inconsistent, "", false},
		{"disagree then agree", []string{"b1", "b2", "b1"}, Inconsistent, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := newHost()
			seed, err := New(host, "seed", nil)
			require.NoError(t, err)
			for i, id := range tt.ids {
				host.AddAttribute(&ir.CustomAttribute{
					Constructor: seed.Constructor(),
					Args:        []ir.Value{ir.String(id), ir.String("a.fx"), ir.String(string(rune('A' + i)))},
				})
			}

			l, err := New(host, "next", nil)
			require.NoError(t, err)

			c := l.Consistency("a.fx")
			assert.Equal(t, tt.want, c.State)
			assert.Equal(t, tt.wantID, c.BuildID)
			id, ok := l.PreviousBuildID("a.fx")
			assert.Equal(t, tt.wantPrev, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestConsistencyIsPerBuildFile(t *testing.T) {
	host := newHost()
	l, err := New(host, "b1", nil)
	require.NoError(t, err)
	l.UpdateOrCreate("a.fx", genType("A"))

	other, err := New(host, "b2", nil)
	require.NoError(t, err)
	other.UpdateOrCreate("b.fx", genType("B"))

	reloaded, err := New(host, "b3", nil)
	require.NoError(t, err)
	assert.Equal(t, Consistency{State: Consistent, BuildID: "b1"}, reloaded.Consistency("a.fx"))
	assert.Equal(t, Consistency{State: Consistent, BuildID: "b2"}, reloaded.Consistency("b.fx"))
	assert.Equal(t, []string{"a.fx", "b.fx"}, reloaded.BuildFiles())
}

func TestDanglingMarkers(t *testing.T) {
	host := newHost()
	l, err := New(host, "b1", nil)
	require.NoError(t, err)

	present := genType("Present")
	require.NoError(t, host.AddType(present))
	l.UpdateOrCreate("a.fx", present)
	l.UpdateOrCreate("a.fx", genType("Gone"))

	dangling := l.Dangling()
	require.Len(t, dangling, 1)
	assert.Equal(t, "Game.Effects.Gone", dangling[0].TypeName)

	purged := l.PurgeDangling()
	assert.Equal(t, dangling, purged)
	assert.Empty(t, l.Dangling())
	assert.Len(t, l.MarkersFor("a.fx"), 1)
	assert.Len(t, host.AttributesOf(FullName), 1)
}

func TestDuplicateMarkersDroppedAtBootstrap(t *testing.T) {
	host := newHost()
	seed, err := New(host, "b1", nil)
	require.NoError(t, err)
	for _, id := range []string{"b1", "b2"} {
		host.AddAttribute(&ir.CustomAttribute{
			Constructor: seed.Constructor(),
			Args:        []ir.Value{ir.String(id), ir.String("a.fx"), ir.String("Game.Effects.A")},
		})
	}

	l, err := New(host, "b3", nil)
	require.NoError(t, err)
	assert.Len(t, l.Markers(), 1)
	assert.Len(t, host.AttributesOf(FullName), 1)
	assert.Equal(t, Consistency{State: Consistent, BuildID: "b1"}, l.Consistency("a.fx"))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unknown", Unknown.String())
	assert.Equal(t, "consistent", Consistent.String())
	assert.Equal(t, "inconsistent", Inconsistent.String())
}
