package sqlite

import (
	"context"
	"fmt"

	"github.com/PabloGalante/noto-agent/internal/domain"
)

// SaveNote writes the memory, clears the conversation's pending state and
// writes the reminder in one transaction.
func (s *Store) SaveNote(ctx context.Context, note domain.NewNote) (*domain.Memory, *domain.Reminder, error) {
	mem := s.newMemory(note.Summary, note.Category)
	var rem *domain.Reminder
	if r := note.Reminder; r != nil {
		rem = s.newReminder(r.Text, r.TriggerAt, note.ConversationID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, unavailable("begin", err)
	}
	defer tx.Rollback()

	if err := insertMemory(ctx, tx, mem); err != nil {
		return nil, nil, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE conversations SET pending = ?, pending_statement = '' WHERE id = ?`,
		string(domain.PendingNone), string(note.ConversationID))
	if err != nil {
		return nil, nil, unavailable("clear pending", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil, fmt.Errorf("conversation %s: %w", note.ConversationID, domain.ErrNotFound)
	}

	if rem != nil {
		if err := insertReminder(ctx, tx, rem); err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, unavailable("commit note", err)
	}
	return mem, rem, nil
}
