package conversation_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/noto-agent/internal/adapters/storage/memory"
	"github.com/PabloGalante/noto-agent/internal/app/conversation"
	"github.com/PabloGalante/noto-agent/internal/app/intent"
	"github.com/PabloGalante/noto-agent/internal/domain"
)

// Monday, 10:00 UTC
var monday = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	svc   *conversation.Service
}

func newFixture(t *testing.T, resolver intent.Resolver) *fixture {
	return newFixtureWithStore(t, resolver, nil)
}

// newFixtureWithStore lets wrap put a decorator between the service and the store.
func newFixtureWithStore(t *testing.T, resolver intent.Resolver, wrap func(*memory.Store) domain.Store) *fixture {
	t.Helper()
	policy := domain.NewCategoryPolicy(domain.DefaultCategories)
	if resolver == nil {
		resolver = intent.NewRuleResolver(policy, time.UTC)
	}
	store := memory.NewStore()
	store.SetClock(func() time.Time { return monday })
	var backing domain.Store = store
	if wrap != nil {
		backing = wrap(store)
	}
	return &fixture{
		store: store,
		svc: conversation.NewService(backing, resolver, policy,
			conversation.WithClock(func() time.Time { return monday }),
			conversation.WithLocation(time.UTC),
		),
	}
}

func (f *fixture) send(t *testing.T, id domain.ConversationID, texts ...string) *conversation.SendMessageOutput {
	t.Helper()
	out, err := f.svc.SendMessage(context.Background(), conversation.SendMessageInput{
		ConversationID: id,
		Texts:          texts,
	})
	require.NoError(t, err)
	require.NotNil(t, out.BotMessage)
	return out
}

func (f *fixture) general(t *testing.T) *domain.Conversation {
	t.Helper()
	conv, err := f.svc.StartConversation(context.Background(), domain.DefaultCategory)
	require.NoError(t, err)
	return conv
}

func (f *fixture) memories(t *testing.T) []*domain.Memory {
	t.Helper()
	mems, err := f.store.SearchMemories(context.Background(), domain.MemoryQuery{})
	require.NoError(t, err)
	return mems
}

func TestSmallTalkStoresNothing(t *testing.T) {
	f := newFixture(t, nil)
	conv := f.general(t)

	out := f.send(t, conv.ID, "hola")

	assert.Equal(t, intent.ActionConverse, out.Decision.Action)
	assert.Equal(t, domain.SenderBot, out.BotMessage.Sender)
	assert.Empty(t, f.memories(t))

	_, msgs, err := f.svc.GetTimeline(context.Background(), conv.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hola", msgs[0].Text)
}

func TestClarifyThenConfirmWithCategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	conv := f.general(t)

	out := f.send(t, conv.ID, "gasté 2999 pesos en una papa")
	assert.Equal(t, intent.ClarificationPrompt, out.BotMessage.Text)
	assert.Empty(t, f.memories(t))

	got, err := f.store.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PendingAwaitingSaveConfirmation, got.Pending)
	assert.Equal(t, "gasté 2999 pesos en una papa", got.PendingStatement)

	out = f.send(t, conv.ID, "sí, en gastos")
	assert.Equal(t, intent.ActionSave, out.Decision.Action)

	mems := f.memories(t)
	require.Len(t, mems, 1)
	assert.Equal(t, "Gastos", mems[0].Category)
	assert.Contains(t, mems[0].Summary, "2999 pesos en una papa")

	got, err = f.store.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PendingNone, got.Pending)
	assert.Empty(t, got.PendingStatement)

	gastos, err := f.store.GetOrCreateConversation(ctx, "Gastos")
	require.NoError(t, err)
	msgs, err := f.store.ListMessages(ctx, gastos.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Nota guardada: "+mems[0].Summary, msgs[0].Text)
}

func TestSaveInOwnCategorySkipsNotification(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	ideas, err := f.svc.StartConversation(ctx, "ideas")
	require.NoError(t, err)

	f.send(t, ideas.ID, "guarda en ideas: una app para regar plantas")

	mems := f.memories(t)
	require.Len(t, mems, 1)
	assert.Equal(t, "Ideas", mems[0].Category)

	msgs, err := f.store.ListMessages(ctx, ideas.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2, "user turn and bot reply only")
}

func TestExplicitReminderCreatesReminder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	conv := f.general(t)

	out := f.send(t, conv.ID, "recuérdame llamar a mamá mañana a las 5")
	assert.Equal(t, "¡Listo! Te lo recordaré el 03/03 a las 17:00.", out.BotMessage.Text)

	rems, err := f.store.ListPendingReminders(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rems, 1)
	assert.Equal(t, "Llamar a mamá", rems[0].Text)
	assert.Equal(t, conv.ID, rems[0].ConversationID)
	assert.Len(t, f.memories(t), 1)

	out = f.send(t, conv.ID, "¿cuáles son mis recordatorios?")
	assert.Equal(t, intent.TargetReminders, out.Decision.Target)
	assert.Equal(t, "Estos son tus recordatorios pendientes:\n- Llamar a mamá (03/03/2026 17:00)", out.BotMessage.Text)
}

func TestRetrievalComposesReply(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	conv := f.general(t)

	_, err := f.store.CreateMemory(ctx, "Gasté 2999 pesos en una papa", "Gastos")
	require.NoError(t, err)

	out := f.send(t, conv.ID, "¿cuánto gasté en la papa de ayer?")
	assert.Equal(t, intent.ActionRetrieve, out.Decision.Action)
	assert.Equal(t, "Esto es lo que encontré:\n- Gasté 2999 pesos en una papa (Gastos, 02/03/2026)", out.BotMessage.Text)

	out = f.send(t, conv.ID, "busca la bicicleta")
	assert.Equal(t, "No encontré notas guardadas que coincidan con tu búsqueda.", out.BotMessage.Text)
}

func TestBatchedTextsResolveAsOneTurn(t *testing.T) {
	f := newFixture(t, nil)
	conv := f.general(t)

	out := f.send(t, conv.ID, "gasté 2999 pesos", "  ", "en una papa")

	require.Len(t, out.UserMessages, 2)
	assert.Equal(t, intent.ClarificationPrompt, out.BotMessage.Text)

	got, err := f.store.GetConversation(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "gasté 2999 pesos\nen una papa", got.PendingStatement)
}

type failingResolver struct{ err error }

func (r failingResolver) Resolve(context.Context, intent.Turn) (intent.Decision, error) {
	return intent.Decision{}, r.err
}

func TestFailedTurnAppendsApology(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, failingResolver{err: fmt.Errorf("%w: boom", domain.ErrGenerationFailure)})
	conv := f.general(t)

	out, err := f.svc.SendMessage(ctx, conversation.SendMessageInput{
		ConversationID: conv.ID,
		Texts:          []string{"guarda que mañana hay feria"},
	})
	require.ErrorIs(t, err, domain.ErrGenerationFailure)
	require.NotNil(t, out)
	assert.Equal(t, conversation.Apology, out.BotMessage.Text)
	assert.Empty(t, f.memories(t))

	rems, err := f.store.ListPendingReminders(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, rems)
}

func TestSendMessageRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	conv := f.general(t)

	_, err := f.svc.SendMessage(ctx, conversation.SendMessageInput{ConversationID: conv.ID, Texts: []string{" "}})
	assert.ErrorIs(t, err, conversation.ErrEmptyMessage)

	_, err = f.svc.SendMessage(ctx, conversation.SendMessageInput{ConversationID: "missing", Texts: []string{"hola"}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListConversationsPinsGeneral(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.svc.StartConversation(ctx, "Gastos")
	require.NoError(t, err)
	general := f.general(t)

	convs, err := f.svc.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, general.ID, convs[0].ID)
}

type fixedResolver struct{ d intent.Decision }

func (r fixedResolver) Resolve(context.Context, intent.Turn) (intent.Decision, error) {
	return r.d, nil
}

func TestInvalidDecisionIsNotApplied(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixedResolver{d: intent.Decision{
		Action:   intent.ActionSave,
		Reply:    "¡Listo!",
		Summary:  "Pagar la luz",
		Category: "Tareas",
		Reminder: &intent.ReminderRequest{Text: "Pagar la luz", RemindAt: monday.AddDate(-255, 0, 0)},
	}})
	conv := f.general(t)

	out, err := f.svc.SendMessage(ctx, conversation.SendMessageInput{
		ConversationID: conv.ID,
		Texts:          []string{"recuérdame pagar la luz"},
	})
	require.ErrorIs(t, err, domain.ErrMalformedOutput)
	assert.Equal(t, conversation.Apology, out.BotMessage.Text)
	assert.Empty(t, f.memories(t))

	rems, err := f.store.ListPendingReminders(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, rems)
}

func TestHugeRelativeReminderNeverLandsInThePast(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	conv := f.general(t)

	for _, in := range []string{
		"recuérdame en 9999999999 horas pagar la luz",
		"recuérdame en 3000000 semanas renovar el pasaporte",
	} {
		f.send(t, conv.ID, in)
	}

	due, err := f.store.ListDueReminders(ctx, monday)
	require.NoError(t, err)
	assert.Empty(t, due)

	rems, err := f.store.ListPendingReminders(ctx, 0)
	require.NoError(t, err)
	for _, r := range rems {
		assert.True(t, r.TriggerAt.After(monday), r.Text)
	}
}

type failingNotes struct{ *memory.Store }

func (failingNotes) SaveNote(context.Context, domain.NewNote) (*domain.Memory, *domain.Reminder, error) {
	return nil, nil, fmt.Errorf("%w: disk full", domain.ErrStoreUnavailable)
}

func TestFailedSaveWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixtureWithStore(t, nil, func(s *memory.Store) domain.Store { return failingNotes{s} })
	conv := f.general(t)

	out, err := f.svc.SendMessage(ctx, conversation.SendMessageInput{
		ConversationID: conv.ID,
		Texts:          []string{"recuérdame llamar a mamá mañana a las 5"},
	})
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, conversation.Apology, out.BotMessage.Text)
	assert.Empty(t, f.memories(t))
	rems, err := f.store.ListPendingReminders(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, rems)

	// a failed confirmation keeps the question open so "sí" can be retried
	f.send(t, conv.ID, "gasté 2999 pesos en una papa")
	_, err = f.svc.SendMessage(ctx, conversation.SendMessageInput{
		ConversationID: conv.ID,
		Texts:          []string{"sí, en gastos"},
	})
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Empty(t, f.memories(t))

	got, err := f.store.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PendingAwaitingSaveConfirmation, got.Pending)
	assert.Equal(t, "gasté 2999 pesos en una papa", got.PendingStatement)
}
