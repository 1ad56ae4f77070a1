package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/noto-agent/internal/app/tools"
	"github.com/PabloGalante/noto-agent/internal/domain"
	"github.com/PabloGalante/noto-agent/internal/observability"
)

const defaultMaxToolRounds = 4

// stagedNoteOutput is what a staged save_note call answers to the backend.
const stagedNoteOutput = "Nota preparada. Se guardará cuando respondas con action \"save\"."

// GenerativeResolver delegates the decision ladder to a generation backend and
// validates the structured answer before anything acts on it. Search tools run
// live during the tool loop; save_note calls are only staged.
type GenerativeResolver struct {
	gen       domain.Generator
	tools     *tools.Set
	policy    domain.CategoryPolicy
	persona   PersonaSource
	loc       *time.Location
	maxRounds int
}

type GenerativeOption func(*GenerativeResolver)

// WithPersona makes every prompt open with the persona p currently holds.
func WithPersona(p PersonaSource) GenerativeOption {
	return func(r *GenerativeResolver) { r.persona = p }
}

func WithMaxToolRounds(n int) GenerativeOption {
	return func(r *GenerativeResolver) {
		if n > 0 {
			r.maxRounds = n
		}
	}
}

func NewGenerativeResolver(
	gen domain.Generator,
	set *tools.Set,
	policy domain.CategoryPolicy,
	loc *time.Location,
	opts ...GenerativeOption,
) *GenerativeResolver {
	if loc == nil {
		loc = time.UTC
	}
	r := &GenerativeResolver{
		gen:       gen,
		tools:     set,
		policy:    policy,
		loc:       loc,
		maxRounds: defaultMaxToolRounds,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// modelOutput is the JSON object the backend must answer with.
type modelOutput struct {
	Action             string `json:"action"`
	ChatbotResponse    string `json:"chatbotResponse"`
	InformationSummary string `json:"informationSummary"`
	Category           string `json:"category"`
	Query              string `json:"query"`
	Reminder           *struct {
		Text     string `json:"text"`
		RemindAt string `json:"remindAt"`
	} `json:"reminder"`
}

type stagedNote struct {
	summary  string
	category string
}

func (r *GenerativeResolver) Resolve(ctx context.Context, turn Turn) (Decision, error) {
	log := observability.LoggerFromContext(ctx)
	if turn.Now.IsZero() {
		turn.Now = time.Now()
	}

	req := domain.GenerationRequest{
		System:     ResolverPrompt(currentPersona(ctx, r.persona), r.policy.Names(), turn, r.loc),
		History:    turn.History,
		Input:      turn.Input,
		Now:        turn.Now,
		JSONOutput: true,
	}
	if r.tools != nil {
		req.Tools = r.tools.Specs()
	}
	tctx := tools.ToolContext{
		ConversationID: turn.ConversationID,
		RequestID:      observability.RequestIDFromContext(ctx),
		Now:            turn.Now,
	}

	var (
		staged          *stagedNote
		searchedReminds bool
	)
	for round := 0; ; round++ {
		resp, err := r.gen.Generate(ctx, req)
		if err != nil {
			return Decision{}, fmt.Errorf("%w: %w", domain.ErrGenerationFailure, err)
		}
		if resp == nil {
			return Decision{}, fmt.Errorf("%w: nil response", domain.ErrGenerationFailure)
		}
		if len(resp.ToolCalls) == 0 {
			d, err := r.decode(resp.Text, staged, turn)
			if err != nil {
				log.Warn("generative resolver output rejected", "error", err, "round", round)
				return Decision{}, err
			}
			if searchedReminds && d.Action == ActionRetrieve {
				d.Target = TargetReminders
			}
			return d, nil
		}
		if round >= r.maxRounds {
			return Decision{}, fmt.Errorf("%w: more than %d tool rounds", domain.ErrGenerationFailure, r.maxRounds)
		}

		for _, call := range resp.ToolCalls {
			log.Debug("tool requested", "tool", call.Name, "round", round)

			var output string
			switch call.Name {
			case tools.SaveNoteName:
				staged = &stagedNote{
					summary:  strings.TrimSpace(argString(call.Args, "summary")),
					category: argString(call.Args, "category"),
				}
				output = stagedNoteOutput
			default:
				if call.Name == tools.SearchRemindersName {
					searchedReminds = true
				}
				output, err = r.callTool(ctx, tctx, call)
				if err != nil {
					return Decision{}, err
				}
			}
			req.ToolResults = append(req.ToolResults, domain.ToolResult{Call: call, Output: output})
		}
	}
}

// callTool runs a live tool. Persistence failures abort the turn; any other
// failure is reported back to the backend as the tool output.
func (r *GenerativeResolver) callTool(ctx context.Context, tctx tools.ToolContext, call domain.ToolCall) (string, error) {
	if r.tools == nil {
		return "Error: " + tools.ErrUnknownTool.Error(), nil
	}
	out, err := r.tools.Call(ctx, tctx, call.Name, call.Args)
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "", err
	default:
		return "Error: " + err.Error(), nil
	}
}

func (r *GenerativeResolver) decode(raw string, staged *stagedNote, turn Turn) (Decision, error) {
	body := extractJSON(raw)
	if body == "" {
		return Decision{}, fmt.Errorf("%w: empty response", domain.ErrGenerationFailure)
	}

	var out modelOutput
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return Decision{}, fmt.Errorf("%w: %w", domain.ErrMalformedOutput, err)
	}
	reply := strings.TrimSpace(out.ChatbotResponse)
	if reply == "" {
		return Decision{}, fmt.Errorf("%w: missing chatbotResponse", domain.ErrMalformedOutput)
	}

	d := Decision{
		Action: Action(strings.ToLower(strings.TrimSpace(out.Action))),
		Reply:  reply,
		Target: TargetNotes,
	}
	switch d.Action {
	case ActionAskToSave:
		d.Reply = ClarificationPrompt
	case ActionAskForContext:
		d.Reply = ContextPrompt
	case ActionRetrieve:
		d.Query = strings.TrimSpace(out.Query)
	case ActionSave:
		summary, category := strings.TrimSpace(out.InformationSummary), out.Category
		if staged != nil {
			if summary == "" {
				summary = staged.summary
			}
			if strings.TrimSpace(category) == "" {
				category = staged.category
			}
		}
		d.Summary = capitalize(summary)
		d.Category = r.policy.Resolve(category)

		if rem := out.Reminder; rem != nil && (rem.Text != "" || rem.RemindAt != "") {
			at, err := parseRemindAt(rem.RemindAt, r.loc)
			if err != nil {
				return Decision{}, fmt.Errorf("%w: reminder.remindAt: %w", domain.ErrMalformedOutput, err)
			}
			what := strings.TrimSpace(rem.Text)
			if what == "" {
				what = d.Summary
			}
			d.Reminder = &ReminderRequest{Text: what, RemindAt: at}
		}
	}

	if err := d.Validate(turn.Now); err != nil {
		return Decision{}, err
	}
	return d, nil
}

// extractJSON strips code fences and any prose around the outermost object.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start, end := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

func parseRemindAt(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", s, loc)
}

func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// GenerativeReplier answers small talk through the generation backend.
type GenerativeReplier struct {
	gen     domain.Generator
	persona PersonaSource
}

func NewGenerativeReplier(gen domain.Generator, persona PersonaSource) *GenerativeReplier {
	return &GenerativeReplier{gen: gen, persona: persona}
}

func (g *GenerativeReplier) Reply(ctx context.Context, turn Turn) (string, error) {
	resp, err := g.gen.Generate(ctx, domain.GenerationRequest{
		System:  SmallTalkPrompt(currentPersona(ctx, g.persona)),
		History: turn.History,
		Input:   turn.Input,
		Now:     turn.Now,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailure, err)
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return "", fmt.Errorf("%w: empty reply", domain.ErrGenerationFailure)
	}
	return strings.TrimSpace(resp.Text), nil
}
