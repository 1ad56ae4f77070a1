package domain

import (
	"context"
	"time"
)

// Generator is the hosted generation backend. A response carries either
// text or tool-invocation requests; callers must handle both.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResponse, error)
}

// GenerationRequest is everything a backend needs for one call.
type GenerationRequest struct {
	System  string
	History []ChatTurn
	Input   string
	Now     time.Time

	Tools       []ToolSpec
	ToolResults []ToolResult // results of earlier rounds of the same turn, in order

	// JSONOutput asks the backend for a JSON object instead of prose.
	JSONOutput bool
}

// GenerationResponse is either Text or ToolCalls.
type GenerationResponse struct {
	Text      string
	ToolCalls []ToolCall
}

// ToolSpec declares a tool to the backend.
type ToolSpec struct {
	Name        string
	Description string
	Params      []ToolParam
}

// ToolParam is a string-typed tool argument.
type ToolParam struct {
	Name        string
	Description string
	Required    bool
}

// ToolCall is a tool invocation requested by the backend.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult pairs a call with what the tool answered.
type ToolResult struct {
	Call   ToolCall
	Output string
}

// ConversationStore persists conversations and their dialogue state.
type ConversationStore interface {
	GetOrCreateConversation(ctx context.Context, category string) (*Conversation, error)
	GetConversation(ctx context.Context, id ConversationID) (*Conversation, error)
	// ListConversations returns pinned conversations first, then most recent.
	ListConversations(ctx context.Context) ([]*Conversation, error)
	SetPending(ctx context.Context, id ConversationID, state PendingState) error
}

// MessageStore persists messages. Appending also bumps the conversation's last message.
type MessageStore interface {
	AppendMessage(ctx context.Context, conversationID ConversationID, sender Sender, text string) (*Message, error)
	// ListMessages returns the last `limit` messages in ascending order. limit <= 0 means all.
	ListMessages(ctx context.Context, conversationID ConversationID, limit int) ([]*Message, error)
}

// MemoryStore is the append-only fact store.
type MemoryStore interface {
	CreateMemory(ctx context.Context, summary, category string) (*Memory, error)
	// SearchMemories returns matches ordered newest first.
	SearchMemories(ctx context.Context, q MemoryQuery) ([]*Memory, error)
}

// NoteStore commits a saved note: the Memory, its optional Reminder and the
// cleared clarification state of the conversation. All or nothing.
type NoteStore interface {
	SaveNote(ctx context.Context, note NewNote) (*Memory, *Reminder, error)
}

// ReminderStore persists reminders.
type ReminderStore interface {
	CreateReminder(ctx context.Context, text string, triggerAt time.Time, conversationID ConversationID) (*Reminder, error)
	ListDueReminders(ctx context.Context, now time.Time) ([]*Reminder, error)
	// ListPendingReminders returns unprocessed reminders ordered by trigger time.
	ListPendingReminders(ctx context.Context, limit int) ([]*Reminder, error)
	MarkProcessed(ctx context.Context, ids []ReminderID) error
}

// AppStateStore persists app-wide singletons: proactive-chat pacing and the
// bot persona. Each is written independently of the other.
type AppStateStore interface {
	GetAppState(ctx context.Context) (*AppState, error)
	SetAppState(ctx context.Context, state AppState) error
	// GetPersona returns "" until a persona has been stored.
	GetPersona(ctx context.Context) (string, error)
	SetPersona(ctx context.Context, persona string) error
}

// Store is the full persistence contract.
type Store interface {
	ConversationStore
	MessageStore
	MemoryStore
	NoteStore
	ReminderStore
	AppStateStore
	Close() error
}
