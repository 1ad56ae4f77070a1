// Package firestore is the hosted domain.Store used in gcp mode.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/PabloGalante/noto-agent/internal/domain"
	"github.com/PabloGalante/noto-agent/internal/textfold"
)

type Store struct {
	client *firestore.Client
	suffix string
	now    func() time.Time
}

var _ domain.Store = (*Store)(nil)

// NewStore creates a Firestore store.
// Uses the project passed (NOTO_GCP_PROJECT). suffix is appended to every
// top-level collection name so data versions can live side by side.
func NewStore(ctx context.Context, projectID, suffix string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client, suffix: suffix, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) col(name string) *firestore.CollectionRef {
	return s.client.Collection(name + s.suffix)
}

func (s *Store) conversationDoc(id domain.ConversationID) *firestore.DocumentRef {
	return s.col("conversations").Doc(string(id))
}

func (s *Store) messagesCol(id domain.ConversationID) *firestore.CollectionRef {
	return s.conversationDoc(id).Collection("messages")
}

func (s *Store) appStateDoc() *firestore.DocumentRef {
	return s.col("app_state").Doc("proactive")
}

func (s *Store) personaDoc() *firestore.DocumentRef {
	return s.col("app_state").Doc("persona")
}

// conversationID is deterministic per category so concurrent creators
// converge on one document.
func conversationID(title string) domain.ConversationID {
	return domain.ConversationID(strings.ReplaceAll(textfold.Fold(title), "/", "-"))
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: firestore %s: %w", domain.ErrStoreUnavailable, op, err)
}

func notFound(id domain.ConversationID) error {
	return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
}

// collect drains an iterator, decoding each snapshot with decode.
func collect[T any](iter *firestore.DocumentIterator, decode func(*firestore.DocumentSnapshot) (T, error)) ([]T, error) {
	defer iter.Stop()

	var out []T
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		v, err := decode(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type conversationDoc struct {
	Title            string    `firestore:"title"`
	LastMessage      string    `firestore:"last_message"`
	LastMessageAt    time.Time `firestore:"last_message_at"`
	Pinned           bool      `firestore:"pinned"`
	CreatedAt        time.Time `firestore:"created_at"`
	Pending          string    `firestore:"pending"`
	PendingStatement string    `firestore:"pending_statement"`
}

type messageDoc struct {
	Sender    string    `firestore:"sender"`
	Text      string    `firestore:"text"`
	CreatedAt time.Time `firestore:"created_at"`
}

type memoryDoc struct {
	Summary   string    `firestore:"summary"`
	Category  string    `firestore:"category"`
	CreatedAt time.Time `firestore:"created_at"`
}

type reminderDoc struct {
	ConversationID string    `firestore:"conversation_id"`
	Text           string    `firestore:"text"`
	TriggerAt      time.Time `firestore:"trigger_at"`
	Processed      bool      `firestore:"processed"`
	CreatedAt      time.Time `firestore:"created_at"`
}

type personaDoc struct {
	Text string `firestore:"text"`
}

type appStateDoc struct {
	LastProactiveMessageAt     time.Time `firestore:"last_proactive_message_at"`
	LastProactiveIntervalHours float64   `firestore:"last_proactive_interval_hours"`
}

func decodeConversation(snap *firestore.DocumentSnapshot) (*domain.Conversation, error) {
	var doc conversationDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode conversationDoc: %w", err)
	}
	return &domain.Conversation{
		ID:               domain.ConversationID(snap.Ref.ID),
		Title:            doc.Title,
		LastMessage:      doc.LastMessage,
		LastMessageAt:    doc.LastMessageAt,
		Pinned:           doc.Pinned,
		CreatedAt:        doc.CreatedAt,
		Pending:          domain.PendingClarification(doc.Pending),
		PendingStatement: doc.PendingStatement,
	}, nil
}

func decodeMemory(snap *firestore.DocumentSnapshot) (*domain.Memory, error) {
	var doc memoryDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode memoryDoc: %w", err)
	}
	return &domain.Memory{
		ID:        domain.MemoryID(snap.Ref.ID),
		Summary:   doc.Summary,
		Category:  doc.Category,
		CreatedAt: doc.CreatedAt,
	}, nil
}

func decodeReminder(snap *firestore.DocumentSnapshot) (*domain.Reminder, error) {
	var doc reminderDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode reminderDoc: %w", err)
	}
	return &domain.Reminder{
		ID:             domain.ReminderID(snap.Ref.ID),
		ConversationID: domain.ConversationID(doc.ConversationID),
		Text:           doc.Text,
		TriggerAt:      doc.TriggerAt,
		Processed:      doc.Processed,
		CreatedAt:      doc.CreatedAt,
	}, nil
}
