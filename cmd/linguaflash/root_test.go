package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vytor/linguaflash/internal/models"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), errOut.String())
	return out.String()
}

func TestCLI_LearnerWorkflow(t *testing.T) {
	t.Chdir(t.TempDir())
	dbPath := filepath.Join(t.TempDir(), "cli.db")

	id := strings.TrimSpace(run(t, "--db", dbPath, "learner", "create", "--name", "Ana", "--language", "es"))
	require.NotEmpty(t, id)

	var st models.LearnerState
	require.NoError(t, json.Unmarshal([]byte(run(t, "--db", dbPath, "learner", "show", id)), &st))
	assert.Equal(t, "Ana", st.Profile.Name)
	assert.Len(t, st.Lessons, 3)

	due := run(t, "--db", dbPath, "due", id, "--limit", "2")
	assert.Contains(t, due, "CARD")
	assert.Equal(t, 3, strings.Count(due, "\n"))

	list := run(t, "--db", dbPath, "learner", "list")
	assert.Contains(t, list, id)

	assert.Contains(t, run(t, "--db", dbPath, "reevaluate"), "0 achievements earned")
	assert.Contains(t, run(t, "--db", dbPath, "languages"), "coming soon")
}

func TestCLI_InvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WORKER_SHARDS", "0")

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"languages"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
