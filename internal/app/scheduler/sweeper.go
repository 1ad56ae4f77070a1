// Package scheduler delivers due reminders and paces proactive openers.
// It has no timer of its own: an external trigger calls Sweep.
package scheduler

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/PabloGalante/noto-agent/internal/domain"
	"github.com/PabloGalante/noto-agent/internal/observability"
)

// Reasons reported for the proactive step of a sweep.
const (
	ReasonSent               = "sent"
	ReasonOutsideWakeWindow  = "outside_wake_window"
	ReasonIntervalNotElapsed = "interval_not_elapsed"
	ReasonDisabled           = "disabled"
)

type SweepResult struct {
	ProcessedReminders int           `json:"processedReminders"`
	ProactiveChat      ProactiveChat `json:"proactiveChat"`
}

type ProactiveChat struct {
	Sent   bool   `json:"sent"`
	Reason string `json:"reason"`
}

// Proactive configures the unsolicited openers.
type Proactive struct {
	Enabled   bool
	WakeStart int // first local hour openers may be sent
	WakeEnd   int // exclusive
	Base      time.Duration
	Jitter    time.Duration
}

type Sweeper struct {
	store     domain.Store
	opener    Opener
	proactive Proactive
	loc       *time.Location
	now       func() time.Time
	rand      func() float64
}

type Option func(*Sweeper)

func WithLocation(loc *time.Location) Option {
	return func(s *Sweeper) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

// WithRand replaces the [0,1) source used to draw the next interval.
func WithRand(f func() float64) Option {
	return func(s *Sweeper) { s.rand = f }
}

func NewSweeper(store domain.Store, opener Opener, proactive Proactive, opts ...Option) *Sweeper {
	s := &Sweeper{
		store:     store,
		opener:    opener,
		proactive: proactive,
		loc:       time.UTC,
		now:       time.Now,
		rand:      rand.Float64,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep runs one pass. Delivery is at least once: a reminder whose
// MarkProcessed fails is delivered again by the next sweep.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	log := observability.LoggerFromContext(ctx).With("component", "scheduler")
	now := s.now()

	processed, err := s.deliverReminders(ctx, now)
	if err != nil {
		return SweepResult{}, err
	}

	chat, err := s.proactiveChat(ctx, now)
	if err != nil {
		return SweepResult{ProcessedReminders: processed}, err
	}

	log.Info("sweep completed",
		"processed_reminders", processed,
		"proactive_sent", chat.Sent,
		"proactive_reason", chat.Reason,
	)
	return SweepResult{ProcessedReminders: processed, ProactiveChat: chat}, nil
}

func (s *Sweeper) deliverReminders(ctx context.Context, now time.Time) (int, error) {
	log := observability.LoggerFromContext(ctx)

	due, err := s.store.ListDueReminders(ctx, now)
	if err != nil {
		log.Error("failed to list due reminders", "error", err)
		return 0, err
	}

	processed := 0
	for _, r := range due {
		if _, err := s.store.AppendMessage(ctx, r.ConversationID, domain.SenderBot, r.Text); err != nil {
			log.Error("failed to deliver reminder", "reminder_id", r.ID, "error", err)
			continue
		}
		if err := s.store.MarkProcessed(ctx, []domain.ReminderID{r.ID}); err != nil {
			log.Error("failed to mark reminder processed", "reminder_id", r.ID, "error", err)
			continue
		}
		processed++
	}
	return processed, nil
}

func (s *Sweeper) proactiveChat(ctx context.Context, now time.Time) (ProactiveChat, error) {
	if !s.proactive.Enabled {
		return ProactiveChat{Reason: ReasonDisabled}, nil
	}
	if h := now.In(s.loc).Hour(); h < s.proactive.WakeStart || h >= s.proactive.WakeEnd {
		return ProactiveChat{Reason: ReasonOutsideWakeWindow}, nil
	}

	state, err := s.store.GetAppState(ctx)
	if err != nil {
		return ProactiveChat{}, err
	}
	if !state.LastProactiveMessageAt.IsZero() {
		interval := time.Duration(state.LastProactiveIntervalHours * float64(time.Hour))
		if now.Sub(state.LastProactiveMessageAt) < interval {
			return ProactiveChat{Reason: ReasonIntervalNotElapsed}, nil
		}
	}

	text, err := s.opener.Open(ctx)
	if err != nil {
		return ProactiveChat{}, err
	}
	general, err := s.store.GetOrCreateConversation(ctx, domain.DefaultCategory)
	if err != nil {
		return ProactiveChat{}, err
	}
	if _, err := s.store.AppendMessage(ctx, general.ID, domain.SenderBot, text); err != nil {
		return ProactiveChat{}, err
	}

	next := s.proactive.Base + time.Duration(s.rand()*float64(s.proactive.Jitter))
	if err := s.store.SetAppState(ctx, domain.AppState{
		LastProactiveMessageAt:     now,
		LastProactiveIntervalHours: next.Hours(),
	}); err != nil {
		return ProactiveChat{}, err
	}
	return ProactiveChat{Sent: true, Reason: ReasonSent}, nil
}
