// Package storetest holds the behavior every domain.Store backend must share.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/noto-agent/internal/domain"
)

// Run exercises a fresh store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) domain.Store) {
	t.Helper()

	t.Run("conversation per category", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		first, err := s.GetOrCreateConversation(ctx, "gastos")
		require.NoError(t, err)
		again, err := s.GetOrCreateConversation(ctx, "GASTOS")
		require.NoError(t, err)

		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, "Gastos", first.Title)
		assert.Equal(t, "Se ha creado un nuevo chat para Gastos.", first.LastMessage)
		assert.False(t, first.Pinned)

		general, err := s.GetOrCreateConversation(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultCategory, general.Title)
		assert.True(t, general.Pinned)

		list, err := s.ListConversations(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, general.ID, list[0].ID, "pinned conversation first")
	})

	t.Run("unknown conversation", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		_, err := s.GetConversation(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = s.AppendMessage(ctx, "missing", domain.SenderUser, "hola")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("messages", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		conv, err := s.GetOrCreateConversation(ctx, "General")
		require.NoError(t, err)

		for i := range 5 {
			sender := domain.SenderUser
			if i%2 == 1 {
				sender = domain.SenderBot
			}
			_, err := s.AppendMessage(ctx, conv.ID, sender, fmt.Sprintf("m%d", i))
			require.NoError(t, err)
		}

		all, err := s.ListMessages(ctx, conv.ID, 0)
		require.NoError(t, err)
		require.Len(t, all, 5)
		assert.Equal(t, "m0", all[0].Text)
		assert.Equal(t, domain.SenderBot, all[1].Sender)

		last, err := s.ListMessages(ctx, conv.ID, 2)
		require.NoError(t, err)
		require.Len(t, last, 2)
		assert.Equal(t, "m3", last[0].Text)
		assert.Equal(t, "m4", last[1].Text)

		got, err := s.GetConversation(ctx, conv.ID)
		require.NoError(t, err)
		assert.Equal(t, "m4", got.LastMessage)
	})

	t.Run("pending state", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		conv, err := s.GetOrCreateConversation(ctx, "General")
		require.NoError(t, err)

		state := domain.PendingState{
			Pending:   domain.PendingAwaitingSaveConfirmation,
			Statement: "gasté 2999 pesos en una papa",
		}
		require.NoError(t, s.SetPending(ctx, conv.ID, state))

		got, err := s.GetConversation(ctx, conv.ID)
		require.NoError(t, err)
		assert.Equal(t, state.Pending, got.Pending)
		assert.Equal(t, state.Statement, got.PendingStatement)

		require.NoError(t, s.SetPending(ctx, conv.ID, domain.PendingState{}))
		got, err = s.GetConversation(ctx, conv.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PendingNone, got.Pending)
		assert.Empty(t, got.PendingStatement)
	})

	t.Run("memories", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		_, err := s.CreateMemory(ctx, "Gasté 2999 pesos en una papa", "gastos")
		require.NoError(t, err)
		_, err = s.CreateMemory(ctx, "App para regar plantas", "Ideas")
		require.NoError(t, err)
		_, err = s.CreateMemory(ctx, "Compré PAPAS fritas", "Gastos")
		require.NoError(t, err)

		recent, err := s.SearchMemories(ctx, domain.MemoryQuery{})
		require.NoError(t, err)
		require.Len(t, recent, 3)
		assert.Equal(t, "Compré PAPAS fritas", recent[0].Summary, "newest first")

		papa, err := s.SearchMemories(ctx, domain.MemoryQuery{Query: "papa"})
		require.NoError(t, err)
		require.Len(t, papa, 2)
		assert.Equal(t, "Gastos", papa[1].Category)

		ideas, err := s.SearchMemories(ctx, domain.MemoryQuery{Category: "ideas"})
		require.NoError(t, err)
		require.Len(t, ideas, 1)

		limited, err := s.SearchMemories(ctx, domain.MemoryQuery{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, limited, 1)

		none, err := s.SearchMemories(ctx, domain.MemoryQuery{Query: "bicicleta"})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("search ignores accents", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		_, err := s.CreateMemory(ctx, "Café con Ana en la Alameda", "Eventos")
		require.NoError(t, err)

		for _, q := range []string{"cafe", "CAFÉ", "café con ana"} {
			got, err := s.SearchMemories(ctx, domain.MemoryQuery{Query: q})
			require.NoError(t, err)
			assert.Len(t, got, 1, q)
		}
	})

	t.Run("save note", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		conv, err := s.GetOrCreateConversation(ctx, "General")
		require.NoError(t, err)
		require.NoError(t, s.SetPending(ctx, conv.ID, domain.PendingState{
			Pending:   domain.PendingAwaitingSaveConfirmation,
			Statement: "llamar a mamá mañana",
		}))

		at := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
		mem, rem, err := s.SaveNote(ctx, domain.NewNote{
			ConversationID: conv.ID,
			Summary:        "Llamar a mamá mañana",
			Category:       "recordatorios",
			Reminder:       &domain.NewReminder{Text: "Llamar a mamá", TriggerAt: at},
		})
		require.NoError(t, err)
		assert.Equal(t, "Recordatorios", mem.Category)
		require.NotNil(t, rem)
		assert.Equal(t, conv.ID, rem.ConversationID)

		got, err := s.GetConversation(ctx, conv.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PendingNone, got.Pending)
		assert.Empty(t, got.PendingStatement)

		mems, err := s.SearchMemories(ctx, domain.MemoryQuery{})
		require.NoError(t, err)
		require.Len(t, mems, 1)
		pending, err := s.ListPendingReminders(ctx, 0)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.True(t, pending[0].TriggerAt.Equal(at))

		mem, rem, err = s.SaveNote(ctx, domain.NewNote{ConversationID: conv.ID, Summary: "Sin recordatorio"})
		require.NoError(t, err)
		assert.Nil(t, rem)
		assert.Equal(t, "General", mem.Category)
	})

	t.Run("save note writes nothing for an unknown conversation", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		_, _, err := s.SaveNote(ctx, domain.NewNote{
			ConversationID: "missing",
			Summary:        "Pagar la luz",
			Category:       "Tareas",
			Reminder:       &domain.NewReminder{Text: "Pagar la luz", TriggerAt: time.Now().Add(time.Hour)},
		})
		require.ErrorIs(t, err, domain.ErrNotFound)

		mems, err := s.SearchMemories(ctx, domain.MemoryQuery{})
		require.NoError(t, err)
		assert.Empty(t, mems)
		pending, err := s.ListPendingReminders(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("search caps at default page size", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		for i := range domain.DefaultSearchLimit + 5 {
			_, err := s.CreateMemory(ctx, fmt.Sprintf("nota %02d", i), "General")
			require.NoError(t, err)
		}
		got, err := s.SearchMemories(ctx, domain.MemoryQuery{})
		require.NoError(t, err)
		require.Len(t, got, domain.DefaultSearchLimit)
		assert.Equal(t, fmt.Sprintf("nota %02d", domain.DefaultSearchLimit+4), got[0].Summary)
	})

	t.Run("reminders", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		conv, err := s.GetOrCreateConversation(ctx, "Recordatorios")
		require.NoError(t, err)

		now := time.Now().UTC().Truncate(time.Second)
		late, err := s.CreateReminder(ctx, "llamar a mamá", now.Add(2*time.Hour), conv.ID)
		require.NoError(t, err)
		soon, err := s.CreateReminder(ctx, "sacar la basura", now.Add(time.Hour), conv.ID)
		require.NoError(t, err)

		due, err := s.ListDueReminders(ctx, now)
		require.NoError(t, err)
		assert.Empty(t, due)

		pending, err := s.ListPendingReminders(ctx, 0)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, soon.ID, pending[0].ID, "ordered by trigger time")

		due, err = s.ListDueReminders(ctx, now.Add(3*time.Hour))
		require.NoError(t, err)
		require.Len(t, due, 2)

		require.NoError(t, s.MarkProcessed(ctx, []domain.ReminderID{soon.ID}))
		due, err = s.ListDueReminders(ctx, now.Add(3*time.Hour))
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, late.ID, due[0].ID)
		assert.True(t, due[0].TriggerAt.Equal(now.Add(2*time.Hour)))
	})

	t.Run("app state", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		st, err := s.GetAppState(ctx)
		require.NoError(t, err)
		assert.True(t, st.LastProactiveMessageAt.IsZero())

		at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		require.NoError(t, s.SetAppState(ctx, domain.AppState{
			LastProactiveMessageAt:     at,
			LastProactiveIntervalHours: 7.5,
		}))

		st, err = s.GetAppState(ctx)
		require.NoError(t, err)
		assert.True(t, st.LastProactiveMessageAt.Equal(at))
		assert.InDelta(t, 7.5, st.LastProactiveIntervalHours, 0.0001)
	})

	t.Run("persona", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		p, err := s.GetPersona(ctx)
		require.NoError(t, err)
		assert.Empty(t, p)

		require.NoError(t, s.SetPersona(ctx, "Cercano y breve."))
		require.NoError(t, s.SetAppState(ctx, domain.AppState{LastProactiveIntervalHours: 3}))

		p, err = s.GetPersona(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Cercano y breve.", p, "pacing writes leave the persona alone")

		require.NoError(t, s.SetPersona(ctx, "Formal."))
		p, err = s.GetPersona(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Formal.", p)
	})
}
