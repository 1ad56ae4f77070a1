package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqlitestore "github.com/PabloGalante/noto-agent/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/noto-agent/internal/app/intent"
	"github.com/PabloGalante/noto-agent/internal/app/scheduler"
	"github.com/PabloGalante/noto-agent/internal/domain"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(io.Discard)
	RootCmd.SetArgs(args)
	require.NoError(t, RootCmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestChatPersistsAcrossInvocations(t *testing.T) {
	t.Setenv("NOTO_STORAGE_BACKEND", "sqlite")
	t.Setenv("NOTO_SQLITE_PATH", filepath.Join(t.TempDir(), "noto.db"))
	t.Setenv("NOTO_PROACTIVE_ENABLED", "false")

	out := run(t, "chat", "-c", "General", "gasté 2999 pesos en una papa")
	assert.Equal(t, intent.ClarificationPrompt+"\n", out)

	out = run(t, "chat", "-c", "General", "sí, en gastos")
	assert.Contains(t, out, "Gastos")

	var mems []domain.Memory
	require.NoError(t, json.Unmarshal([]byte(run(t, "search", "-c", "", "papa")), &mems))
	require.Len(t, mems, 1)
	assert.Equal(t, "Gastos", mems[0].Category)

	var res scheduler.SweepResult
	require.NoError(t, json.Unmarshal([]byte(run(t, "sweep")), &res))
	assert.Zero(t, res.ProcessedReminders)
	assert.Equal(t, scheduler.ReasonDisabled, res.ProactiveChat.Reason)
}

func TestBuildRejectsUnknownBackendEarly(t *testing.T) {
	t.Setenv("NOTO_STORAGE_BACKEND", "postgres")

	RootCmd.SetOut(io.Discard)
	RootCmd.SetErr(io.Discard)
	RootCmd.SetArgs([]string{"sweep"})
	assert.Error(t, RootCmd.ExecuteContext(context.Background()))
}

func TestPersonaPersists(t *testing.T) {
	t.Setenv("NOTO_STORAGE_BACKEND", "sqlite")
	path := filepath.Join(t.TempDir(), "noto.db")
	t.Setenv("NOTO_SQLITE_PATH", path)
	t.Setenv("NOTO_LLM", "mock")

	before := strings.TrimSpace(run(t, "persona"))

	updated := strings.TrimSpace(run(t, "persona", "-e", "holaa q onda", "-e", "dale, mañana vemos"))
	assert.NotEmpty(t, updated)
	assert.NotEqual(t, before, updated)

	store, err := sqlitestore.Open(path)
	require.NoError(t, err)
	defer store.Close()
	stored, err := store.GetPersona(context.Background())
	require.NoError(t, err)
	assert.Equal(t, updated, stored)
}
