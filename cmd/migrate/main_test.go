package main

import (
	"context"
	"database/sql"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-planner-api/migrations"
)

func TestRunPassesCommandAndArgs(t *testing.T) {
	original := gooseRunFunc
	t.Cleanup(func() { gooseRunFunc = original })

	var gotCommand, gotDir string
	var gotArgs []string
	gooseRunFunc = func(_ context.Context, command string, _ *sql.DB, dir string, args ...string) error {
		gotCommand, gotDir, gotArgs = command, dir, args
		return nil
	}

	require.NoError(t, run(context.Background(), nil, []string{"up-to", "2"}))
	assert.Equal(t, "up-to", gotCommand)
	assert.Equal(t, ".", gotDir)
	assert.Equal(t, []string{"2"}, gotArgs)
}

func TestRunRequiresCommand(t *testing.T) {
	assert.Error(t, run(context.Background(), nil, nil))
}

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	assert.Len(t, files, 3)
}
