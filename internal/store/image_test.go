package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contentpipe/internal/buildcache"
	"github.com/roach88/contentpipe/internal/corelib"
	"github.com/roach88/contentpipe/internal/ir"
	"github.com/roach88/contentpipe/internal/logging"
)

func TestSaveLoadModule_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	mod := createTestModule(t)

	require.NoError(t, s.SaveModule(ctx, mod))

	loaded, err := s.LoadModule(ctx, "Game", corelib.New())
	require.NoError(t, err)

	require.Len(t, loaded.Types(), len(mod.Types()))
	for i, want := range mod.Types() {
		got := loaded.Types()[i]
		assert.Equal(t, want.FullName(), got.FullName())

		wantFP, err := ir.TypeFingerprint(want)
		require.NoError(t, err)
		gotFP, err := ir.TypeFingerprint(got)
		require.NoError(t, err)
		assert.Equal(t, wantFP, gotFP, "fingerprint of %s", want.FullName())
	}

	glow := loaded.Type("Game.Effects.Glow")
	require.NotNil(t, glow)
	require.NotNil(t, glow.Property("Intensity"))
	assert.Same(t, glow.Method("get_Intensity", nil), glow.Property("Intensity").Getter)
	assert.NotNil(t, loaded.Type("Game.Effects.Glow/Pass"))

	name, ok, err := s.ModuleName(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Game", name)
}

func TestSaveLoadModule_MarkersSurvive(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.SaveModule(ctx, createTestModule(t)))

	loaded, err := s.LoadModule(ctx, "Game", corelib.New())
	require.NoError(t, err)

	ledger, err := buildcache.New(loaded, "build-2", logging.Discard())
	require.NoError(t, err)

	m, ok := ledger.Lookup("effects/glow.fx.cue", "Game.Effects.Glow")
	require.True(t, ok)
	assert.Equal(t, "build-1", m.BuildID)
	assert.Empty(t, ledger.Dangling())
}

func TestSaveModule_ReplacesImage(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	mod := createTestModule(t)
	require.NoError(t, s.SaveModule(ctx, mod))

	require.True(t, mod.RemoveTypeByName("Game.Effects.Glow"))
	require.NoError(t, s.SaveModule(ctx, mod))

	fps, err := s.TypeFingerprints(ctx)
	require.NoError(t, err)
	assert.NotContains(t, fps, "Game.Effects.Glow")
	assert.Contains(t, fps, buildcache.FullName)
}

func TestLoadModule_Empty(t *testing.T) {
	s := createTestStore(t)

	mod, err := s.LoadModule(context.Background(), "Game")
	require.NoError(t, err)
	assert.Empty(t, mod.Types())
	assert.Empty(t, mod.Attributes())

	_, ok, err := s.ModuleName(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadModule_CorruptRecord(t *testing.T) {
	s := createTestStore(t)
	_, err := s.db.Exec(`INSERT INTO types (seq, full_name, fingerprint, record) VALUES (0, 'Bad', 'x', '{not json')`)
	require.NoError(t, err)

	_, err = s.LoadModule(context.Background(), "Game")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal Bad")
}

func TestRecordBuild_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordBuild(ctx, Build{
		ID:         "b1",
		StartedAt:  start,
		FinishedAt: start.Add(time.Second),
		Assets:     2,
		Outcomes: []AssetOutcome{
			{BuildFile: "b.fx.cue", Status: "built"},
			{BuildFile: "a.fx.cue", Status: "failed", Message: "no technique"},
		},
	}))
	require.NoError(t, s.RecordBuild(ctx, Build{
		ID:         "b2",
		StartedAt:  start.Add(time.Minute),
		FinishedAt: start.Add(time.Minute),
		Skipped:    2,
	}))

	builds, err := s.Builds(ctx, 0)
	require.NoError(t, err)
	require.Len(t, builds, 2)
	assert.Equal(t, "b2", builds[0].ID)
	assert.Equal(t, 2, builds[0].Skipped)
	assert.Empty(t, builds[0].Outcomes)

	assert.Equal(t, "b1", builds[1].ID)
	assert.True(t, builds[1].StartedAt.Equal(start))
	assert.Equal(t, []AssetOutcome{
		{BuildFile: "a.fx.cue", Status: "failed", Message: "no technique"},
		{BuildFile: "b.fx.cue", Status: "built"},
	}, builds[1].Outcomes)

	latest, err := s.Builds(ctx, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "b2", latest[0].ID)
}

func TestRecordBuild_DuplicateID(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	now := time.Now()

	require.NoError(t, s.RecordBuild(ctx, Build{ID: "dup", StartedAt: now, FinishedAt: now}))
	assert.Error(t, s.RecordBuild(ctx, Build{ID: "dup", StartedAt: now, FinishedAt: now}))
}
