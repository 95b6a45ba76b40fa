package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "lit.fx.cue")
	shader := filepath.Join(dir, "lit.vert")
	require.NoError(t, os.WriteFile(src, []byte("effect: {}"), 0o644))
	require.NoError(t, os.WriteFile(shader, []byte("void main() {}"), 0o644))

	params := map[string]string{"namespace": "Game", "debug": "false"}

	hash1, err := HashSource(src, []string{shader}, params)
	require.NoError(t, err)
	assert.NotEmpty(t, hash1)

	hash2, err := HashSource(src, []string{shader}, map[string]string{"debug": "false", "namespace": "Game"})
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2, "parameter order must not matter")

	require.NoError(t, os.WriteFile(shader, []byte("void main() { discard; }"), 0o644))
	hash3, err := HashSource(src, []string{shader}, params)
	require.NoError(t, err)
	assert.NotEqual(t, hash1, hash3, "dependency change must change the hash")

	hash4, err := HashSource(src, []string{shader}, map[string]string{"namespace": "Other", "debug": "false"})
	require.NoError(t, err)
	assert.NotEqual(t, hash3, hash4, "parameter change must change the hash")

	_, err = HashSource(filepath.Join(dir, "missing.fx.cue"), nil, nil)
	assert.Error(t, err)
}

func TestCache_PutGet(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	defer c.Close()

	entry := Entry{
		Hash:      "abc",
		BuildFile: "effects/lit.fx.cue",
		BuildID:   "build-1",
		Types:     []string{"Game.Effects.Lit"},
		Output:    "effects/lit.ecf",
	}
	require.NoError(t, c.Put(entry))

	got, err := c.Get("effects/lit.fx.cue", "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "build-1", got.BuildID)
	assert.Equal(t, []string{"Game.Effects.Lit"}, got.Types)
	assert.False(t, got.Timestamp.IsZero())

	miss, err := c.Get("effects/lit.fx.cue", "other")
	require.NoError(t, err)
	assert.Nil(t, miss, "hash mismatch is a miss")

	miss, err = c.Get("effects/none.fx.cue", "abc")
	require.NoError(t, err)
	assert.Nil(t, miss)

	stale, err := c.Lookup("effects/lit.fx.cue")
	require.NoError(t, err)
	require.NotNil(t, stale)
	assert.Equal(t, "abc", stale.Hash)
}

func TestCache_DeleteAndClear(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, c.Put(Entry{Hash: "1", BuildFile: "b.fx.cue"}))
	require.NoError(t, c.Put(Entry{Hash: "2", BuildFile: "a.fx.cue"}))

	files, err := c.BuildFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.fx.cue", "b.fx.cue"}, files)

	require.NoError(t, c.Delete("a.fx.cue"))
	require.NoError(t, c.Delete("never.fx.cue"))
	n, err := c.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, c.Clear())
	n, err = c.Len()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	require.NoError(t, c.Close())

	// Entries persist across reopen.
	c, err = Open(dir)
	require.NoError(t, err)
	require.NoError(t, c.Put(Entry{Hash: "3", BuildFile: "c.fx.cue"}))
	require.NoError(t, c.Close())

	c, err = Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	got, err := c.Get("c.fx.cue", "3")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
