package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootRegistersSubcommands(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	for _, name := range []string{"serve", "backfill", "poll", "search", "migrate"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestSearchRequiresPrompt(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	root.SetArgs([]string{"search"})
	err := root.Execute()
	require.Error(t, err)
}

func TestMigrateRejectsNegativeDown(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	root.SetArgs([]string{"migrate", "--down=-1"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--down must be positive")
}
