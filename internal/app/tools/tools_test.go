package tools_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/noto-agent/internal/adapters/storage/memory"
	"github.com/PabloGalante/noto-agent/internal/app/tools"
	"github.com/PabloGalante/noto-agent/internal/domain"
)

func newSet(store *memory.Store) *tools.Set {
	policy := domain.NewCategoryPolicy(domain.DefaultCategories)
	return tools.NewSet(
		tools.NewSaveNote(store, policy),
		tools.NewSearchNotes(store, time.UTC),
		tools.NewSearchReminders(store, time.UTC),
	)
}

func TestSpecsOrder(t *testing.T) {
	set := newSet(memory.NewStore())

	var names []string
	for _, s := range set.Specs() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"save_note", "search_notes", "search_reminders"}, names)
}

func TestSaveThenSearchRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	set := newSet(store)

	out, err := set.Call(ctx, tools.ToolContext{}, tools.SaveNoteName, map[string]any{
		"summary":  "X",
		"category": "Ideas",
	})
	require.NoError(t, err)
	assert.Equal(t, "Nota guardada en la categoría Ideas.", out)

	mems, err := store.SearchMemories(ctx, domain.MemoryQuery{Query: "X"})
	require.NoError(t, err)
	require.Len(t, mems, 1)
	assert.Equal(t, "X", mems[0].Summary)
	assert.Equal(t, "Ideas", mems[0].Category)

	found, err := set.Call(ctx, tools.ToolContext{}, tools.SearchNotesName, map[string]any{"query": "X"})
	require.NoError(t, err)
	assert.Contains(t, found, "- X (Ideas, ")
}

func TestSaveNoteDefaults(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	set := newSet(store)

	out, err := set.Call(ctx, tools.ToolContext{}, tools.SaveNoteName, map[string]any{"summary": "sin categoría"})
	require.NoError(t, err)
	assert.Equal(t, "Nota guardada en la categoría General.", out)

	out, err = set.Call(ctx, tools.ToolContext{}, tools.SaveNoteName, map[string]any{
		"summary":  "fuera de la lista",
		"category": "viajes",
	})
	require.NoError(t, err)
	assert.Equal(t, "Nota guardada en la categoría General.", out)

	_, err = set.Call(ctx, tools.ToolContext{}, tools.SaveNoteName, map[string]any{"summary": "  "})
	assert.ErrorIs(t, err, tools.ErrInvalidArgs)

	mems, err := store.SearchMemories(ctx, domain.MemoryQuery{})
	require.NoError(t, err)
	assert.Len(t, mems, 2)
}

func TestCommitSavesNoteWithReminder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	conv, err := store.GetOrCreateConversation(ctx, "General")
	require.NoError(t, err)
	save := tools.NewSaveNote(store, domain.NewCategoryPolicy(domain.DefaultCategories))

	at := time.Now().Add(time.Hour)
	mem, rem, err := save.Commit(ctx, domain.NewNote{
		ConversationID: conv.ID,
		Summary:        "  Pagar la luz ",
		Category:       "viajes",
		Reminder:       &domain.NewReminder{Text: "Pagar la luz", TriggerAt: at},
	})
	require.NoError(t, err)
	assert.Equal(t, "Pagar la luz", mem.Summary)
	assert.Equal(t, "General", mem.Category, "outside the allow-list")
	require.NotNil(t, rem)
	assert.Equal(t, conv.ID, rem.ConversationID)

	_, _, err = save.Commit(ctx, domain.NewNote{ConversationID: conv.ID, Summary: " "})
	assert.ErrorIs(t, err, tools.ErrInvalidArgs)
	_, _, err = save.Commit(ctx, domain.NewNote{
		ConversationID: conv.ID,
		Summary:        "x",
		Reminder:       &domain.NewReminder{TriggerAt: at},
	})
	assert.ErrorIs(t, err, tools.ErrInvalidArgs)

	mems, err := store.SearchMemories(ctx, domain.MemoryQuery{})
	require.NoError(t, err)
	assert.Len(t, mems, 1)
}

type failingMemories struct{}

func (failingMemories) CreateMemory(context.Context, string, string) (*domain.Memory, error) {
	return nil, errors.New("connection refused")
}

func (failingMemories) SaveNote(context.Context, domain.NewNote) (*domain.Memory, *domain.Reminder, error) {
	return nil, nil, errors.New("connection refused")
}

func (failingMemories) SearchMemories(context.Context, domain.MemoryQuery) ([]*domain.Memory, error) {
	return nil, errors.New("connection refused")
}

func TestStoreFailuresAreStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	policy := domain.NewCategoryPolicy(nil)

	_, err := tools.NewSaveNote(failingMemories{}, policy).Call(ctx, tools.ToolContext{}, map[string]any{"summary": "x"})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	_, _, err = tools.NewSaveNote(failingMemories{}, policy).Commit(ctx, domain.NewNote{ConversationID: "c", Summary: "x"})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	_, err = tools.NewSearchNotes(failingMemories{}, nil).Call(ctx, tools.ToolContext{}, map[string]any{"query": "x"})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestSearchNotesEmptyQueryAndSentinel(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	search := tools.NewSearchNotes(store, time.UTC)

	out, err := search.Call(ctx, tools.ToolContext{}, map[string]any{"query": "nada"})
	require.NoError(t, err)
	assert.Equal(t, tools.NoNotesFound, out)

	for i := range 25 {
		_, err := store.CreateMemory(ctx, fmt.Sprintf("nota %02d", i), "General")
		require.NoError(t, err)
	}

	mems, err := search.Search(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, mems, domain.DefaultSearchLimit)
	assert.Equal(t, "nota 24", mems[0].Summary)
	assert.Equal(t, "nota 05", mems[len(mems)-1].Summary)
}

func TestSearchAnyFallsBackToKeywords(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	search := tools.NewSearchNotes(store, time.UTC)

	_, err := store.CreateMemory(ctx, "Gasté 2999 pesos en una papa", "Gastos")
	require.NoError(t, err)
	_, err = store.CreateMemory(ctx, "Receta de papa al horno", "Recetas")
	require.NoError(t, err)

	mems, err := search.SearchAny(ctx, "papa de ayer", "")
	require.NoError(t, err)
	require.Len(t, mems, 2)
	assert.Equal(t, "Receta de papa al horno", mems[0].Summary)

	mems, err = search.SearchAny(ctx, "papa de ayer", "gastos")
	require.NoError(t, err)
	require.Len(t, mems, 1)
	assert.Equal(t, "Gastos", mems[0].Category)
}

func TestKeywords(t *testing.T) {
	assert.Equal(t, []string{"papa", "ayer"}, tools.Keywords("¿La papa de AYER? papa"))
}

func TestSearchReminders(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	set := newSet(store)

	out, err := set.Call(ctx, tools.ToolContext{}, tools.SearchRemindersName, nil)
	require.NoError(t, err)
	assert.Equal(t, tools.NoPendingReminders, out)

	conv, err := store.GetOrCreateConversation(ctx, "Recordatorios")
	require.NoError(t, err)
	at := time.Date(2030, 5, 4, 17, 0, 0, 0, time.UTC)
	_, err = store.CreateReminder(ctx, "Llamar al dentista", at, conv.ID)
	require.NoError(t, err)

	out, err = set.Call(ctx, tools.ToolContext{}, tools.SearchRemindersName, nil)
	require.NoError(t, err)
	assert.Equal(t, "Estos son tus recordatorios pendientes:\n- Llamar al dentista (04/05/2030 17:00)", out)
}

func TestUnknownTool(t *testing.T) {
	_, err := newSet(memory.NewStore()).Call(context.Background(), tools.ToolContext{}, "delete_everything", nil)
	assert.ErrorIs(t, err, tools.ErrUnknownTool)
}
