package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/omnikeys/internal/karabiner"
	"github.com/roach88/omnikeys/internal/store"
)

// seedHistory records one good and one failed build and returns the database
// path and the good build's ID.
func seedHistory(t *testing.T) (db, okID string) {
	t.Helper()
	dir := t.TempDir()
	db = filepath.Join(dir, "history.db")

	good := writeFile(t, dir, "keys.toml", keysTOML)
	out, err := execute(NewCompileCommand(&RootOptions{Format: "json"}), good, "--history", db)
	require.NoError(t, err)
	var resp struct {
		Data CompileResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	bad := writeFile(t, dir, "bad.toml", ambiguousTOML)
	_, err = execute(NewCompileCommand(&RootOptions{Format: "text"}), bad, "--history", db)
	require.Error(t, err)

	return db, resp.Data.BuildID
}

func TestHistoryList(t *testing.T) {
	db, okID := seedHistory(t)

	out, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, okID)
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "bad.toml")
}

func TestHistoryListJSONNewestFirst(t *testing.T) {
	db, okID := seedHistory(t)

	out, err := execute(NewHistoryCommand(&RootOptions{Format: "json"}), "--db", db, "--limit", "0")
	require.NoError(t, err)

	var resp struct {
		Data HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Builds, 2)
	assert.Equal(t, store.StatusFailed, resp.Data.Builds[0].Status)
	assert.Equal(t, okID, resp.Data.Builds[1].ID)
}

func TestHistoryListLimit(t *testing.T) {
	db, _ := seedHistory(t)

	out, err := execute(NewHistoryCommand(&RootOptions{Format: "json"}), "--db", db, "--limit", "1")
	require.NoError(t, err)

	var resp struct {
		Data HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Len(t, resp.Data.Builds, 1)
}

func TestHistoryEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	out, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No builds recorded.")
}

func TestHistoryShow(t *testing.T) {
	db, okID := seedHistory(t)

	out, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}), "show", okID, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Build "+okID)
	assert.Contains(t, out, "description:  Test keys")
	assert.Contains(t, out, "status:       ok")
}

func TestHistoryShowArtifact(t *testing.T) {
	db, okID := seedHistory(t)

	out, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}), "show", okID, "--db", db, "--artifact")
	require.NoError(t, err)

	var rule karabiner.Rule
	require.NoError(t, json.Unmarshal([]byte(out), &rule))
	assert.Equal(t, "Test keys", rule.Description)
}

func TestHistoryShowFailedBuild(t *testing.T) {
	db, _ := seedHistory(t)

	out, err := execute(NewHistoryCommand(&RootOptions{Format: "json"}), "--db", db, "--limit", "1")
	require.NoError(t, err)
	var resp struct {
		Data HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	failedID := resp.Data.Builds[0].ID

	out, err = execute(NewHistoryCommand(&RootOptions{Format: "text"}), "show", failedID, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "status:       failed")
	assert.Contains(t, out, "E201")

	_, err = execute(NewHistoryCommand(&RootOptions{Format: "text"}), "show", failedID, "--db", db, "--artifact")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistoryShowNotFound(t *testing.T) {
	db, _ := seedHistory(t)

	out, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}), "show", "no-such-build", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestHistoryRequiresDB(t *testing.T) {
	_, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
}

func TestHistoryListFilters(t *testing.T) {
	db, okID := seedHistory(t)

	out, err := execute(NewHistoryCommand(&RootOptions{Format: "json"}), "--db", db, "--status", "ok")
	require.NoError(t, err)
	var resp struct {
		Data HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Builds, 1)
	assert.Equal(t, okID, resp.Data.Builds[0].ID)

	good := resp.Data.Builds[0].ConfigPath
	out, err = execute(NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db, "--config", good)
	require.NoError(t, err)
	assert.Contains(t, out, okID)
	assert.NotContains(t, out, "bad.toml")

	_, err = execute(NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db, "--status", "maybe")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
