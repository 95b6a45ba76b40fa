package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "contentpipe", root.Use)
	assert.True(t, root.SilenceErrors)

	persistent := []struct{ name, short, def string }{
		{"verbose", "v", "false"},
		{"format", "", "text"},
		{"config", "", ""},
		{"log-level", "", ""},
	}
	for _, p := range persistent {
		f := root.PersistentFlags().Lookup(p.name)
		require.NotNil(t, f, "--%s", p.name)
		assert.Equal(t, p.short, f.Shorthand, "--%s", p.name)
		assert.Equal(t, p.def, f.DefValue, "--%s", p.name)
	}

	commands := map[string][]string{
		"build":   {"output", "intermediate", "namespace", "rebuild", "build-id"},
		"clean":   {"output", "intermediate", "file"},
		"ledger":  {"purge", "history"},
		"inspect": {"source", "project"},
		"watch":   {"rebuild", "debounce"},
	}
	for name, flags := range commands {
		t.Run(name, func(t *testing.T) {
			sub, _, err := root.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
			for _, f := range flags {
				assert.NotNil(t, sub.Flags().Lookup(f), "%s --%s", name, f)
			}
		})
	}
}

func TestFormatFlag(t *testing.T) {
	for _, f := range []string{"text", "json"} {
		assert.True(t, isValidFormat(f), f)
	}
	for _, f := range []string{"xml", "", "TEXT"} {
		assert.False(t, isValidFormat(f), f)
	}

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "yaml", "build", "."})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
