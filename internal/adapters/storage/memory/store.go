// Package memory is a non-persistent domain.Store for development and tests.
package memory

import (
	"sync"
	"time"

	"github.com/PabloGalante/noto-agent/internal/domain"
	"github.com/PabloGalante/noto-agent/internal/ids"
)

// Store keeps everything in mutex-guarded maps. It is NOT persistent and is
// only suitable for development / local mode.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	conversations map[domain.ConversationID]*domain.Conversation
	byCategory    map[string]domain.ConversationID
	messages      map[domain.ConversationID][]*domain.Message
	memories      []*domain.Memory
	reminders     []*domain.Reminder
	appState      domain.AppState
	persona       string
}

var _ domain.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		now:           time.Now,
		conversations: make(map[domain.ConversationID]*domain.Conversation),
		byCategory:    make(map[string]domain.ConversationID),
		messages:      make(map[domain.ConversationID][]*domain.Message),
	}
}

// SetClock overrides the time source used for CreatedAt fields.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Close() error { return nil }

func (s *Store) newID() string {
	return ids.NewAt(s.now())
}
