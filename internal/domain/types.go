package domain

import "time"

type ConversationID string
type MessageID string
type MemoryID string
type ReminderID string

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

type Timestamp = time.Time
