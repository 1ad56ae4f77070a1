// Package intent decides, for every user turn, which one of five things
// Noto does: converse, ask to save, save, ask for context or retrieve.
package intent

import (
	"context"
	"fmt"
	"time"

	"github.com/PabloGalante/noto-agent/internal/app/history"
	"github.com/PabloGalante/noto-agent/internal/domain"
)

// Fixed utterances. ClarificationPrompt must match byte for byte.
const (
	ClarificationPrompt = "Entendido. ¿Quieres que guarde esta información?"
	ContextPrompt       = "De acuerdo. Si quieres que guarde esta información, dame un poco más de contexto o dime en qué categoría la pongo (por ejemplo, Gastos, Ideas, etc.) para que sea más fácil encontrarla después."
	DeclineReply        = "De acuerdo, no lo guardaré."
)

type Action string

const (
	ActionConverse      Action = "converse"
	ActionAskToSave     Action = "ask_to_save"
	ActionSave          Action = "save"
	ActionAskForContext Action = "ask_for_context"
	ActionRetrieve      Action = "retrieve"
)

func (a Action) Valid() bool {
	switch a {
	case ActionConverse, ActionAskToSave, ActionSave, ActionAskForContext, ActionRetrieve:
		return true
	}
	return false
}

// Target selects what a retrieval looks at.
type Target string

const (
	TargetNotes     Target = "notes"
	TargetReminders Target = "reminders"
)

// ReminderRequest is the time-bound part of a Save.
type ReminderRequest struct {
	Text     string
	RemindAt time.Time
}

// Decision is the outcome of one turn. Only the fields of its Action are meaningful:
//
//	converse         Reply
//	ask_to_save      Reply == ClarificationPrompt
//	save             Reply, Summary, Category, optional Reminder
//	ask_for_context  Reply == ContextPrompt
//	retrieve         Query, Category (filter), Target; Reply when already composed
type Decision struct {
	Action   Action
	Reply    string
	Summary  string
	Category string
	Query    string
	Target   Target
	Reminder *ReminderRequest
}

// Validate checks the decision is actionable at now.
func (d Decision) Validate(now time.Time) error {
	if !d.Action.Valid() {
		return fmt.Errorf("%w: unknown action %q", domain.ErrMalformedOutput, d.Action)
	}
	if d.Reply == "" && d.Action != ActionRetrieve {
		return fmt.Errorf("%w: missing reply for %s", domain.ErrMalformedOutput, d.Action)
	}
	if d.Action != ActionSave {
		if d.Reminder != nil || d.Summary != "" {
			return fmt.Errorf("%w: %s carries save data", domain.ErrMalformedOutput, d.Action)
		}
		return nil
	}
	if d.Summary == "" {
		return fmt.Errorf("%w: save without summary", domain.ErrMalformedOutput)
	}
	if r := d.Reminder; r != nil {
		if r.Text == "" {
			return fmt.Errorf("%w: reminder without text", domain.ErrMalformedOutput)
		}
		if !r.RemindAt.After(now) {
			return fmt.Errorf("%w: reminder at %s is not in the future", domain.ErrMalformedOutput, r.RemindAt.Format(time.RFC3339))
		}
	}
	return nil
}

// PendingAfter is the clarification state a conversation moves to after d.
func (d Decision) PendingAfter(turn Turn) domain.PendingState {
	switch d.Action {
	case ActionAskToSave:
		return domain.PendingState{Pending: domain.PendingAwaitingSaveConfirmation, Statement: turn.Input}
	case ActionAskForContext:
		return domain.PendingState{Pending: domain.PendingAwaitingContext, Statement: turn.Statement()}
	default:
		return domain.PendingState{}
	}
}

// Turn is everything a resolver sees.
type Turn struct {
	ConversationID       domain.ConversationID
	Input                string
	History              []domain.ChatTurn // excludes Input
	Pending              domain.PendingClarification
	PendingStatement     string
	ConversationCategory string
	Now                  time.Time
}

// Statement is the user statement a pending clarification is about.
func (t Turn) Statement() string {
	if t.PendingStatement != "" {
		return t.PendingStatement
	}
	return history.LookbackStatement(t.History, t.Pending)
}

// Resolver picks exactly one Decision per turn.
type Resolver interface {
	Resolve(ctx context.Context, turn Turn) (Decision, error)
}

// PersonaSource yields the persona in effect when a prompt is built.
type PersonaSource interface {
	Current(ctx context.Context) string
}

// StaticPersona never changes.
type StaticPersona string

func (p StaticPersona) Current(context.Context) string { return string(p) }

func currentPersona(ctx context.Context, p PersonaSource) string {
	if p == nil {
		return ""
	}
	return p.Current(ctx)
}

// Replier produces free-form small-talk replies.
type Replier interface {
	Reply(ctx context.Context, turn Turn) (string, error)
}
