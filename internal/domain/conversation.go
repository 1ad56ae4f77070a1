package domain

// Conversation groups the messages of one category chat ("General", "Gastos", ...).
type Conversation struct {
	ID            ConversationID
	Title         string
	LastMessage   string
	LastMessageAt Timestamp
	Pinned        bool
	CreatedAt     Timestamp

	// Short-horizon dialogue state, transitioned by the conversation service
	Pending          PendingClarification
	PendingStatement string
}

// Message represents any message in a conversation timeline (user or bot)
type Message struct {
	ID             MessageID
	ConversationID ConversationID
	Sender         Sender
	Text           string
	CreatedAt      Timestamp
}

// PendingClarification is the question the bot is waiting an answer for.
type PendingClarification string

const (
	PendingNone                     PendingClarification = ""
	PendingAwaitingSaveConfirmation PendingClarification = "awaiting_save_confirmation"
	PendingAwaitingContext          PendingClarification = "awaiting_context"
)

// PendingState is persisted alongside a Conversation.
type PendingState struct {
	Pending   PendingClarification
	Statement string
}

// ChatRole is the role of a turn as seen by a generation backend.
type ChatRole string

const (
	ChatRoleUser  ChatRole = "user"
	ChatRoleModel ChatRole = "model"
)

// ChatTurn is one entry of a formatted history.
type ChatTurn struct {
	Role    ChatRole
	Content string
}

// ConversationCreatedText is the LastMessage of a freshly created conversation.
func ConversationCreatedText(title string) string {
	return "Se ha creado un nuevo chat para " + title + "."
}
