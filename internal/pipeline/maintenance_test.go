package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contentpipe/internal/buildcache"
	"github.com/roach88/contentpipe/internal/corelib"
	"github.com/roach88/contentpipe/internal/store"
	"github.com/roach88/contentpipe/internal/testutil"
)

func TestClean_SingleBuildFile(t *testing.T) {
	root := testutil.LitProject(t)
	testutil.WriteFiles(t, root, map[string]string{
		"effects/glow.fx.cue": "effect: name: \"glow\"\n" + testutil.LitEffect,
	})
	p := loadProject(t, root)
	build(t, p, "build-1")

	res, err := Clean(context.Background(), p, litBuildFile, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Game.LitEffect"}, res.Types)
	assert.Equal(t, []string{filepath.Join(p.OutputDir, "effects", "lit.ecf")}, res.Outputs)

	mod, err := OpenModule(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, mod.HasType("Game.LitEffect"))
	assert.True(t, mod.HasType("Game.GlowEffect"))
	assert.Equal(t, []buildcache.Marker{
		{BuildID: "build-1", BuildFile: "effects/glow.fx.cue", TypeName: "Game.GlowEffect"},
	}, markers(t, p))

	// The cleaned asset is rebuilt, the other one stays cached.
	next := build(t, p, "build-2")
	status := map[string]Status{}
	for _, a := range next.Assets {
		status[a.BuildFile] = a.Status
	}
	assert.Equal(t, StatusSkipped, status["effects/glow.fx.cue"])
	assert.Equal(t, StatusBuilt, status[litBuildFile])
}

func TestClean_Everything(t *testing.T) {
	p := loadProject(t, testutil.LitProject(t))
	build(t, p, "build-1")

	res, err := Clean(context.Background(), p, "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Game.LitEffect"}, res.Types)
	require.Len(t, res.Outputs, 1)

	_, err = os.Stat(res.Outputs[0])
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, markers(t, p))
}

func TestClean_EmptyProjectState(t *testing.T) {
	p := loadProject(t, testutil.LitProject(t))

	res, err := Clean(context.Background(), p, "", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Types)
	assert.Empty(t, res.Outputs)
}

func TestInspectLedger(t *testing.T) {
	p := loadProject(t, testutil.LitProject(t))
	build(t, p, "build-1")

	rep, err := InspectLedger(context.Background(), p, false, 10, nil)
	require.NoError(t, err)

	assert.Equal(t, "Game", rep.Module)
	require.Len(t, rep.Files, 1)
	f := rep.Files[0]
	assert.Equal(t, litBuildFile, f.BuildFile)
	assert.Equal(t, buildcache.Consistency{State: buildcache.Consistent, BuildID: "build-1"}, f.Consistency)
	require.Len(t, f.Markers, 1)
	assert.Equal(t, "Game.LitEffect", f.Markers[0].TypeName)
	assert.Len(t, f.Markers[0].Fingerprint, 64)
	assert.False(t, f.Markers[0].Dangling)
	assert.Empty(t, rep.Purged)
	require.Len(t, rep.Builds, 1)
}

func TestInspectLedger_PurgesDangling(t *testing.T) {
	p := loadProject(t, testutil.LitProject(t))
	build(t, p, "build-1")

	st, err := store.Open(p.HostPath())
	require.NoError(t, err)
	mod, err := st.LoadModule(context.Background(), p.Name, corelib.New())
	require.NoError(t, err)
	require.True(t, mod.RemoveTypeByName("Game.LitEffect"))
	require.NoError(t, st.SaveModule(context.Background(), mod))
	require.NoError(t, st.Close())

	rep, err := InspectLedger(context.Background(), p, false, 0, nil)
	require.NoError(t, err)
	assert.True(t, rep.Files[0].Markers[0].Dangling)
	assert.Empty(t, rep.Purged)
	assert.Len(t, markers(t, p), 1, "inspection without purge leaves the image alone")

	rep, err = InspectLedger(context.Background(), p, true, 0, nil)
	require.NoError(t, err)
	require.Len(t, rep.Purged, 1)
	assert.Equal(t, "Game.LitEffect", rep.Purged[0].TypeName)
	assert.Empty(t, markers(t, p))
}
