package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/noto-agent/internal/adapters/storage/memory"
	"github.com/PabloGalante/noto-agent/internal/app/scheduler"
	"github.com/PabloGalante/noto-agent/internal/domain"
)

// Monday, 10:00 UTC
var monday = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

var proactive = scheduler.Proactive{
	Enabled:   true,
	WakeStart: 8,
	WakeEnd:   22,
	Base:      6 * time.Hour,
	Jitter:    6 * time.Hour,
}

type fixedOpener string

func (o fixedOpener) Open(context.Context) (string, error) { return string(o), nil }

func newSweeper(store *memory.Store, now *time.Time, p scheduler.Proactive) *scheduler.Sweeper {
	return scheduler.NewSweeper(store, fixedOpener("¿Qué tal tu día?"), p,
		scheduler.WithClock(func() time.Time { return *now }),
		scheduler.WithRand(func() float64 { return 0.5 }),
	)
}

func TestSweepDeliversDueRemindersOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	now := monday
	off := proactive
	off.Enabled = false
	s := newSweeper(store, &now, off)

	conv, err := store.GetOrCreateConversation(ctx, "Recordatorios")
	require.NoError(t, err)
	_, err = store.CreateReminder(ctx, "Llamar a mamá", monday.Add(-time.Minute), conv.ID)
	require.NoError(t, err)
	_, err = store.CreateReminder(ctx, "Sacar la basura", monday.Add(time.Hour), conv.ID)
	require.NoError(t, err)

	res, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ProcessedReminders)
	assert.Equal(t, scheduler.ProactiveChat{Reason: scheduler.ReasonDisabled}, res.ProactiveChat)

	msgs, err := store.ListMessages(ctx, conv.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Llamar a mamá", msgs[0].Text)
	assert.Equal(t, domain.SenderBot, msgs[0].Sender)

	res, err = s.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.ProcessedReminders, "second sweep processes nothing")

	now = monday.Add(2 * time.Hour)
	res, err = s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ProcessedReminders)
}

func TestProactiveChatPacing(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	now := monday
	s := newSweeper(store, &now, proactive)

	res, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, scheduler.ProactiveChat{Sent: true, Reason: scheduler.ReasonSent}, res.ProactiveChat)

	general, err := store.GetOrCreateConversation(ctx, domain.DefaultCategory)
	require.NoError(t, err)
	msgs, err := store.ListMessages(ctx, general.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "¿Qué tal tu día?", msgs[0].Text)

	st, err := store.GetAppState(ctx)
	require.NoError(t, err)
	assert.True(t, st.LastProactiveMessageAt.Equal(monday))
	assert.InDelta(t, 9.0, st.LastProactiveIntervalHours, 0.0001, "base + 0.5 * jitter")

	now = monday.Add(8 * time.Hour)
	res, err = s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, scheduler.ReasonIntervalNotElapsed, res.ProactiveChat.Reason)
	assert.False(t, res.ProactiveChat.Sent)

	now = monday.Add(9 * time.Hour)
	res, err = s.Sweep(ctx)
	require.NoError(t, err)
	assert.True(t, res.ProactiveChat.Sent)
}

func TestProactiveChatWakeWindow(t *testing.T) {
	ctx := context.Background()
	buenosAires, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	require.NoError(t, err)

	for _, tt := range []struct {
		name string
		at   time.Time
		want string
	}{
		{"before wake", time.Date(2026, 3, 2, 7, 59, 0, 0, buenosAires), scheduler.ReasonOutsideWakeWindow},
		{"at wake", time.Date(2026, 3, 2, 8, 0, 0, 0, buenosAires), scheduler.ReasonSent},
		{"last hour", time.Date(2026, 3, 2, 21, 59, 0, 0, buenosAires), scheduler.ReasonSent},
		{"at sleep", time.Date(2026, 3, 2, 22, 0, 0, 0, buenosAires), scheduler.ReasonOutsideWakeWindow},
	} {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			now := tt.at.UTC()
			s := scheduler.NewSweeper(store, fixedOpener("hola"), proactive,
				scheduler.WithClock(func() time.Time { return now }),
				scheduler.WithLocation(buenosAires),
			)

			res, err := s.Sweep(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.ProactiveChat.Reason)
		})
	}
}

type scriptedGenerator struct {
	text string
	err  error
	reqs []domain.GenerationRequest
}

func (g *scriptedGenerator) Generate(_ context.Context, req domain.GenerationRequest) (*domain.GenerationResponse, error) {
	g.reqs = append(g.reqs, req)
	if g.err != nil {
		return nil, g.err
	}
	return &domain.GenerationResponse{Text: g.text}, nil
}

func TestGenerativeOpener(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	_, err := store.CreateMemory(ctx, "App para regar plantas", "Ideas")
	require.NoError(t, err)

	gen := &scriptedGenerator{text: "  ¿Avanzaste con la app de plantas?  "}
	o := scheduler.NewGenerativeOpener(gen, store, nil, fixedOpener("fallback"))

	text, err := o.Open(ctx)
	require.NoError(t, err)
	assert.Equal(t, "¿Avanzaste con la app de plantas?", text)
	require.Len(t, gen.reqs, 1)
	assert.Contains(t, gen.reqs[0].System, "App para regar plantas (Ideas)")

	gen.err = errors.New("quota exceeded")
	text, err = o.Open(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fallback", text)
}

func TestStaticOpenerDefaults(t *testing.T) {
	text, err := scheduler.NewStaticOpener([]string{" ", ""}).Open(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, text)

	text, err = scheduler.NewStaticOpener([]string{"¿Todo bien?"}).Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "¿Todo bien?", text)
}
