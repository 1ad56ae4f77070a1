// Package history turns stored messages into the role-tagged sequence a
// generation backend (or the rule resolver) consumes.
package history

import (
	"strings"

	"github.com/PabloGalante/noto-agent/internal/domain"
)

// Format maps bot->model and user->user, keeping order.
//
// When currentInput is non-empty the caller sends it separately, so the
// trailing user entry is dropped. Earlier trailing user entries are dropped
// too while their text is part of currentInput (batched turns join several
// user messages into one input).
func Format(msgs []*domain.Message, currentInput string) []domain.ChatTurn {
	turns := make([]domain.ChatTurn, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		role := domain.ChatRoleUser
		if m.Sender == domain.SenderBot {
			role = domain.ChatRoleModel
		}
		turns = append(turns, domain.ChatTurn{Role: role, Content: m.Text})
	}

	if currentInput == "" {
		return turns
	}

	if n := len(turns); n > 0 && turns[n-1].Role == domain.ChatRoleUser {
		turns = turns[:n-1]
	}
	for n := len(turns); n > 0; n = len(turns) {
		last := turns[n-1]
		if last.Role != domain.ChatRoleUser || !strings.Contains(currentInput, last.Content) {
			break
		}
		turns = turns[:n-1]
	}
	return turns
}

// LastModelTurn returns the most recent bot utterance, or "".
func LastModelTurn(turns []domain.ChatTurn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == domain.ChatRoleModel {
			return turns[i].Content
		}
	}
	return ""
}

// LookbackStatement recovers the user statement that opened a clarification
// when the conversation did not store it. turns must not contain the current input.
//
//	awaiting confirmation: [... user:statement, model:clarification]
//	awaiting context:      [... user:statement, model:clarification, user:yes, model:context?]
func LookbackStatement(turns []domain.ChatTurn, pending domain.PendingClarification) string {
	var modelTurnsBack int
	switch pending {
	case domain.PendingAwaitingSaveConfirmation:
		modelTurnsBack = 1
	case domain.PendingAwaitingContext:
		modelTurnsBack = 2
	default:
		return ""
	}

	seen := 0
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role != domain.ChatRoleModel {
			continue
		}
		seen++
		if seen < modelTurnsBack {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if turns[j].Role == domain.ChatRoleUser {
				return turns[j].Content
			}
		}
		return ""
	}
	return ""
}
