package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/what-to-watch/internal/repository/sqlite"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoadOpinionsCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data", "db.sqlite3")
	t.Setenv("DATABASE_URI", dbPath)
	t.Setenv("LOG_LEVEL", "error")

	csvPath := filepath.Join(dir, "opinions.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"title,text,source\n"+
			"Dune,Great movie,http://example.com\n"+
			"Heat,Best shootout ever filmed,\n"), 0o644))

	out, err := runCLI(t, "load-opinions", csvPath)
	require.NoError(t, err)
	assert.Equal(t, "Загружено мнений: 2\n", out)

	db, err := sqlite.New(dbPath)
	require.NoError(t, err)
	defer db.Close()
	n, err := db.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLoadOpinionsCommand_ReportsPartialLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_URI", filepath.Join(dir, "db.sqlite3"))
	t.Setenv("LOG_LEVEL", "error")

	csvPath := filepath.Join(dir, "opinions.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"title,text\nDune,Great movie\nDune,Great movie\n"), 0o644))

	out, err := runCLI(t, "load-opinions", csvPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Contains(t, out, "Загружено мнений: 1")
}

func TestLoadOpinionsCommand_MissingFile(t *testing.T) {
	t.Setenv("DATABASE_URI", filepath.Join(t.TempDir(), "db.sqlite3"))

	_, err := runCLI(t, "load-opinions", filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestServeCommand_RequiresSecret(t *testing.T) {
	t.Setenv("DATABASE_URI", filepath.Join(t.TempDir(), "db.sqlite3"))
	t.Setenv("SECRET_KEY", "")

	_, err := runCLI(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET_KEY")
}
