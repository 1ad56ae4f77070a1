// Package conversation runs one user turn end to end: persist, resolve,
// apply the decision, reply.
package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PabloGalante/noto-agent/internal/app/history"
	"github.com/PabloGalante/noto-agent/internal/app/intent"
	"github.com/PabloGalante/noto-agent/internal/app/tools"
	"github.com/PabloGalante/noto-agent/internal/domain"
	"github.com/PabloGalante/noto-agent/internal/observability"
)

// Apology is the bot turn appended when a turn fails.
const Apology = "Lo siento, tuve un problema para procesar tu mensaje. ¿Puedes intentarlo de nuevo?"

const defaultHistoryLimit = 10

var ErrEmptyMessage = errors.New("empty message")

type Service struct {
	store    domain.Store
	resolver intent.Resolver
	now      func() time.Time
	loc      *time.Location

	historyLimit int

	saveNote  *tools.SaveNote
	notes     *tools.SearchNotes
	reminders *tools.SearchReminders
}

type Option func(*Service)

// WithHistoryLimit sets how many earlier messages the resolver sees.
func WithHistoryLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithLocation sets the zone used to render dates in replies.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	store domain.Store,
	resolver intent.Resolver,
	policy domain.CategoryPolicy,
	opts ...Option,
) *Service {
	s := &Service{
		store:        store,
		resolver:     resolver,
		now:          time.Now,
		loc:          time.UTC,
		historyLimit: defaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.saveNote = tools.NewSaveNote(store, policy)
	s.notes = tools.NewSearchNotes(store, s.loc)
	s.reminders = tools.NewSearchReminders(store, s.loc)
	return s
}

// StartConversation returns the conversation of category, creating it on first use.
func (s *Service) StartConversation(ctx context.Context, category string) (*domain.Conversation, error) {
	log := observability.LoggerFromContext(ctx).With("category", category)

	conv, err := s.store.GetOrCreateConversation(ctx, category)
	if err != nil {
		log.Error("failed to get or create conversation", "error", err)
		return nil, err
	}

	log.Info("conversation ready", "conversation_id", conv.ID)
	return conv, nil
}

func (s *Service) ListConversations(ctx context.Context) ([]*domain.Conversation, error) {
	convs, err := s.store.ListConversations(ctx)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to list conversations", "error", err)
		return nil, err
	}
	return convs, nil
}

type SendMessageInput struct {
	ConversationID domain.ConversationID
	// Texts are persisted one message each and resolved as a single turn.
	Texts []string
}

type SendMessageOutput struct {
	UserMessages []*domain.Message
	BotMessage   *domain.Message
	Decision     intent.Decision
}

// SendMessage handles one turn. When resolution or its side effects fail the
// apology is appended as the bot reply and returned alongside the error.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	texts := make([]string, 0, len(in.Texts))
	for _, t := range in.Texts {
		if t = strings.TrimSpace(t); t != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return nil, ErrEmptyMessage
	}

	conv, err := s.store.GetConversation(ctx, in.ConversationID)
	if err != nil {
		return nil, err
	}

	ctx = observability.WithConversationID(ctx, string(conv.ID))
	log := observability.LoggerFromContext(ctx).With("category", conv.Title)
	log.Info("sending message", "parts", len(texts))

	out := &SendMessageOutput{}
	for _, t := range texts {
		msg, err := s.store.AppendMessage(ctx, conv.ID, domain.SenderUser, t)
		if err != nil {
			log.Error("failed to append user message", "error", err)
			return nil, err
		}
		out.UserMessages = append(out.UserMessages, msg)
	}

	input := strings.Join(texts, "\n")
	msgs, err := s.store.ListMessages(ctx, conv.ID, s.historyLimit+len(texts))
	if err != nil {
		log.Error("failed to load history", "error", err)
		return s.fail(ctx, conv.ID, out, err)
	}

	turn := intent.Turn{
		ConversationID:       conv.ID,
		Input:                input,
		History:              history.Format(msgs, input),
		Pending:              conv.Pending,
		PendingStatement:     conv.PendingStatement,
		ConversationCategory: conv.Title,
		Now:                  s.now(),
	}

	d, err := s.resolver.Resolve(ctx, turn)
	if err != nil {
		log.Error("resolver failed", "error", err)
		return s.fail(ctx, conv.ID, out, err)
	}
	log.Info("turn resolved", "action", d.Action, "category", d.Category)

	// nothing is written for a decision that is not actionable now
	if err := d.Validate(turn.Now); err != nil {
		log.Error("resolver returned an invalid decision", "action", d.Action, "error", err)
		return s.fail(ctx, conv.ID, out, err)
	}

	if d, err = s.apply(ctx, conv, d); err != nil {
		log.Error("failed to apply decision", "action", d.Action, "error", err)
		return s.fail(ctx, conv.ID, out, err)
	}

	// a save clears the pending state in the same write as the note
	if d.Action != intent.ActionSave {
		if err := s.store.SetPending(ctx, conv.ID, d.PendingAfter(turn)); err != nil {
			log.Error("failed to persist pending state", "error", err)
			return s.fail(ctx, conv.ID, out, err)
		}
	}

	bot, err := s.store.AppendMessage(ctx, conv.ID, domain.SenderBot, d.Reply)
	if err != nil {
		log.Error("failed to append bot message", "error", err)
		return nil, err
	}
	out.BotMessage = bot
	out.Decision = d

	log.Info("send message completed")
	return out, nil
}

// apply runs the side effects of d and fills in a retrieval reply.
func (s *Service) apply(ctx context.Context, conv *domain.Conversation, d intent.Decision) (intent.Decision, error) {
	switch d.Action {
	case intent.ActionSave:
		note := domain.NewNote{ConversationID: conv.ID, Summary: d.Summary, Category: d.Category}
		if r := d.Reminder; r != nil {
			note.Reminder = &domain.NewReminder{Text: r.Text, TriggerAt: r.RemindAt}
		}
		mem, _, err := s.saveNote.Commit(ctx, note)
		if err != nil {
			return d, err
		}
		d.Category = mem.Category
		s.notifyCategory(ctx, conv, mem)

	case intent.ActionRetrieve:
		if d.Reply != "" {
			break
		}
		reply, err := s.retrieve(ctx, d)
		if err != nil {
			return d, err
		}
		d.Reply = reply
	}
	return d, nil
}

func (s *Service) retrieve(ctx context.Context, d intent.Decision) (string, error) {
	if d.Target == intent.TargetReminders {
		rems, err := s.reminders.Pending(ctx)
		if err != nil {
			return "", err
		}
		return tools.RenderReminders(rems, s.loc), nil
	}

	mems, err := s.notes.SearchAny(ctx, d.Query, d.Category)
	if err != nil {
		return "", err
	}
	return tools.RenderMemories(mems, s.loc), nil
}

// notifyCategory leaves a trace of the note in its category conversation.
// The memory is already stored, so failures here are only logged.
func (s *Service) notifyCategory(ctx context.Context, from *domain.Conversation, mem *domain.Memory) {
	if domain.NormalizeCategory(from.Title) == mem.Category {
		return
	}
	log := observability.LoggerFromContext(ctx).With("target_category", mem.Category)

	target, err := s.store.GetOrCreateConversation(ctx, mem.Category)
	if err != nil {
		log.Warn("failed to open category conversation", "error", err)
		return
	}
	if _, err := s.store.AppendMessage(ctx, target.ID, domain.SenderBot, "Nota guardada: "+mem.Summary); err != nil {
		log.Warn("failed to notify category conversation", "error", err)
	}
}

// fail appends the apology as the bot turn and returns cause.
func (s *Service) fail(ctx context.Context, id domain.ConversationID, out *SendMessageOutput, cause error) (*SendMessageOutput, error) {
	bot, err := s.store.AppendMessage(ctx, id, domain.SenderBot, Apology)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to append apology", "error", err)
		return nil, errors.Join(cause, err)
	}
	out.BotMessage = bot
	return out, cause
}

// GetTimeline returns the conversation with its last limit messages (all when limit <= 0).
func (s *Service) GetTimeline(
	ctx context.Context,
	id domain.ConversationID,
	limit int,
) (*domain.Conversation, []*domain.Message, error) {
	log := observability.LoggerFromContext(ctx).With(
		"conversation_id", id,
		"limit", limit,
	)

	conv, err := s.store.GetConversation(ctx, id)
	if err != nil {
		log.Error("failed to get conversation", "error", err)
		return nil, nil, err
	}

	msgs, err := s.store.ListMessages(ctx, id, limit)
	if err != nil {
		log.Error("failed to get messages", "error", err)
		return nil, nil, err
	}

	log.Info("fetched conversation timeline", "message_count", len(msgs))
	return conv, msgs, nil
}
