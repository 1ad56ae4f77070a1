package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PabloGalante/noto-agent/internal/domain"
)

const (
	SaveNoteName        = "save_note"
	SearchNotesName     = "search_notes"
	SearchRemindersName = "search_reminders"
)

var (
	ErrUnknownTool = errors.New("unknown tool")
	ErrInvalidArgs = errors.New("invalid tool arguments")
)

// ToolContext brings metadata of the call to the tool
type ToolContext struct {
	ConversationID domain.ConversationID
	RequestID      string
	Now            time.Time
}

// Tool represents a capability the generation backend can invoke.
// Input is the generic argument map decoded from the backend; output is
// the text handed back to it.
type Tool interface {
	Spec() domain.ToolSpec
	Call(ctx context.Context, tctx ToolContext, input map[string]any) (string, error)
}

// Set is an ordered registry of tools.
type Set struct {
	order []string
	tools map[string]Tool
}

func NewSet(tools ...Tool) *Set {
	s := &Set{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		name := t.Spec().Name
		if _, dup := s.tools[name]; !dup {
			s.order = append(s.order, name)
		}
		s.tools[name] = t
	}
	return s
}

// Specs returns the schemas exposed to the generation backend, in registration order.
func (s *Set) Specs() []domain.ToolSpec {
	out := make([]domain.ToolSpec, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tools[name].Spec())
	}
	return out
}

func (s *Set) Get(name string) (Tool, bool) {
	t, ok := s.tools[name]
	return t, ok
}

// Call dispatches to the named tool.
func (s *Set) Call(ctx context.Context, tctx ToolContext, name string, input map[string]any) (string, error) {
	t, ok := s.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t.Call(ctx, tctx, input)
}

// --- internal helpers --- //

func getString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// storeErr makes sure persistence failures carry domain.ErrStoreUnavailable.
func storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) || errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
