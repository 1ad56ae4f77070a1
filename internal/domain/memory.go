package domain

import "time"

// Memory is a fact the user asked Noto to keep. Memories are never updated.
type Memory struct {
	ID        MemoryID  `json:"id"`
	Summary   string    `json:"summary"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// Reminder is delivered as a bot message once TriggerAt has passed.
type Reminder struct {
	ID             ReminderID     `json:"id"`
	ConversationID ConversationID `json:"conversation_id"`
	Text           string         `json:"text"`
	TriggerAt      time.Time      `json:"trigger_at"`
	Processed      bool           `json:"processed"`
	CreatedAt      time.Time      `json:"created_at"`
}

// NewNote is everything a saved note persists at once.
type NewNote struct {
	// ConversationID is where the note was asked for; its clarification state is cleared.
	ConversationID ConversationID
	Summary        string
	Category       string
	Reminder       *NewReminder
}

// NewReminder is the optional time-bound part of a NewNote.
type NewReminder struct {
	Text      string
	TriggerAt time.Time
}

// AppState paces the unsolicited bot openers. There is exactly one.
type AppState struct {
	LastProactiveMessageAt     time.Time `json:"last_proactive_message_at"`
	LastProactiveIntervalHours float64   `json:"last_proactive_interval_hours"`
}

// MemoryQuery filters SearchMemories. Empty Query means "most recent".
type MemoryQuery struct {
	Query    string
	Category string
	Limit    int
}

// DefaultSearchLimit is the page size of memory searches.
const DefaultSearchLimit = 20
