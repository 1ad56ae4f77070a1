package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/PabloGalante/noto-agent/internal/domain"
)

func (s *Store) CreateReminder(
	ctx context.Context,
	text string,
	triggerAt time.Time,
	conversationID domain.ConversationID,
) (*domain.Reminder, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	rem := s.newReminder(text, triggerAt, conversationID)
	if err := insertReminder(ctx, s.db, rem); err != nil {
		return nil, err
	}
	return rem, nil
}

func (s *Store) newReminder(text string, triggerAt time.Time, conversationID domain.ConversationID) *domain.Reminder {
	now := s.now()
	return &domain.Reminder{
		ID:             domain.ReminderID(s.newID(now)),
		ConversationID: conversationID,
		Text:           text,
		TriggerAt:      triggerAt,
		CreatedAt:      now,
	}
}

func insertReminder(ctx context.Context, db execer, rem *domain.Reminder) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO reminders (id, conversation_id, text, trigger_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		string(rem.ID), string(rem.ConversationID), rem.Text, formatTime(rem.TriggerAt), formatTime(rem.CreatedAt))
	if err != nil {
		return unavailable("insert reminder", err)
	}
	return nil
}

func (s *Store) ListDueReminders(ctx context.Context, now time.Time) ([]*domain.Reminder, error) {
	return s.queryReminders(ctx,
		`WHERE processed = 0 AND trigger_at <= ? ORDER BY trigger_at, rowid`, formatTime(now))
}

func (s *Store) ListPendingReminders(ctx context.Context, limit int) ([]*domain.Reminder, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.queryReminders(ctx,
		`WHERE processed = 0 ORDER BY trigger_at, rowid LIMIT ?`, limit)
}

func (s *Store) MarkProcessed(ctx context.Context, ids []domain.ReminderID) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `UPDATE reminders SET processed = 1 WHERE id = ?`, string(id)); err != nil {
			return unavailable("mark processed", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return unavailable("commit processed", err)
	}
	return nil
}

func (s *Store) queryReminders(ctx context.Context, clause string, args ...any) ([]*domain.Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, text, trigger_at, processed, created_at FROM reminders `+clause, args...)
	if err != nil {
		return nil, unavailable("list reminders", err)
	}
	defer rows.Close()

	var out []*domain.Reminder
	for rows.Next() {
		var id, convID, triggerAt, createdAt string
		r := &domain.Reminder{}
		if err := rows.Scan(&id, &convID, &r.Text, &triggerAt, &r.Processed, &createdAt); err != nil {
			return nil, unavailable("scan reminder", err)
		}
		r.ID = domain.ReminderID(id)
		r.ConversationID = domain.ConversationID(convID)
		if r.TriggerAt, err = parseTime(triggerAt); err != nil {
			return nil, unavailable("scan reminder", err)
		}
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, unavailable("scan reminder", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list reminders", err)
	}
	return out, nil
}

func (s *Store) GetAppState(ctx context.Context) (*domain.AppState, error) {
	var (
		lastAt   sql.NullString
		interval float64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT last_proactive_message_at, last_proactive_interval_hours FROM app_state WHERE id = 1`).
		Scan(&lastAt, &interval)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.AppState{}, nil
	}
	if err != nil {
		return nil, unavailable("get app state", err)
	}

	st := &domain.AppState{LastProactiveIntervalHours: interval}
	if lastAt.Valid && lastAt.String != "" {
		if st.LastProactiveMessageAt, err = parseTime(lastAt.String); err != nil {
			return nil, unavailable("get app state", err)
		}
	}
	return st, nil
}

func (s *Store) SetAppState(ctx context.Context, state domain.AppState) error {
	var lastAt sql.NullString
	if !state.LastProactiveMessageAt.IsZero() {
		lastAt = sql.NullString{String: formatTime(state.LastProactiveMessageAt), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO app_state (id, last_proactive_message_at, last_proactive_interval_hours) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   last_proactive_message_at = excluded.last_proactive_message_at,
		   last_proactive_interval_hours = excluded.last_proactive_interval_hours`,
		lastAt, state.LastProactiveIntervalHours)
	if err != nil {
		return unavailable("set app state", err)
	}
	return nil
}

const personaKey = "persona"

func (s *Store) GetPersona(ctx context.Context) (string, error) {
	var persona string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, personaKey).Scan(&persona)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", unavailable("get persona", err)
	}
	return persona, nil
}

func (s *Store) SetPersona(ctx context.Context, persona string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		personaKey, persona)
	if err != nil {
		return unavailable("set persona", err)
	}
	return nil
}
