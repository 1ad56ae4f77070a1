package intent

import (
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/noto-agent/internal/domain"
)

const defaultPersona = `You are "Noto", a friendly and helpful assistant that remembers things for the user.
Your responses must always be in Spanish. Be brief and natural.`

const resolverInstructions = `
Your primary goal is to have natural conversations and save information ONLY when the user wants it saved.
Pay close attention to the conversation history: the context of the current request is almost always there.

For every user message pick EXACTLY ONE action, checking them in this order:

1. "retrieve": the user asks about something stored before ("¿cuánto gasté...?", "¿qué dije de...?",
   "busca...", "¿recuerdas...?", "mis gastos", "¿cuáles son mis recordatorios?").
   Use search_notes for notes and search_reminders for reminders, then answer from the results in
   chatbotResponse. Never save anything. Set "query" to the search you ran.
2. "save" (explicit): the user tells you to save or remember something ("guarda", "recuerda", "anota",
   "remind me") and says what. Fill informationSummary with a concise factual summary, without the
   directive verb, and category. If a future time is mentioned, also fill reminder.text and
   reminder.remindAt (RFC 3339, computed from the current time below). Confirm briefly in chatbotResponse.
3. Answer to a pending clarification (see PENDING STATE below):
   - awaiting_save_confirmation and the user agrees ("sí", "dale", "ok"):
     if they name a category, or the current chat category is not General, action "save" with the
     pending statement as informationSummary; otherwise action "ask_for_context".
   - awaiting_context: action "save" using the pending statement plus the new context.
   - the user declines ("no", "olvídalo"): action "converse", acknowledge briefly.
4. "ask_to_save": the user states a concrete fact (an expense, an appointment, an idea) without asking
   to save it. Do not call any tool. chatbotResponse must be exactly:
   "` + ClarificationPrompt + `"
5. "converse": greetings, laughter, thanks, anything else. Do not call any tool.

Never call save_note unless the action is "save". Never give opinions or advice about the facts.

Reply ONLY with a JSON object, no prose and no code fences:
{
  "action": "converse" | "ask_to_save" | "save" | "ask_for_context" | "retrieve",
  "chatbotResponse": "texto para el usuario",
  "informationSummary": "solo para save",
  "category": "solo para save",
  "query": "solo para retrieve",
  "reminder": {"text": "...", "remindAt": "2025-01-02T15:04:05-03:00"}
}
Omit the fields that do not apply.`

const smallTalkInstructions = `
The user is just chatting. Answer naturally in one or two short sentences in Spanish.
Do not offer to save anything and do not invent facts about the user.`

const openerInstructions = `
It's time for you to start a conversation with the user. Be engaging and natural, not robotic.
If recent notes are listed below, you may ask a relevant follow-up question about one of them.
Otherwise ask a general, friendly question. Answer with a single short message in Spanish, nothing else.`

// ResolverPrompt builds the system instruction of the generative resolver.
func ResolverPrompt(persona string, categories []string, turn Turn, loc *time.Location) string {
	if persona == "" {
		persona = defaultPersona
	}
	if loc == nil {
		loc = time.UTC
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(persona))
	b.WriteString("\n")
	b.WriteString(resolverInstructions)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "CURRENT TIME: %s\n", turn.Now.In(loc).Format(time.RFC3339))
	fmt.Fprintf(&b, "CATEGORIES: %s\n", strings.Join(categories, ", "))
	fmt.Fprintf(&b, "CURRENT CHAT CATEGORY: %s\n", domain.NormalizeCategory(turn.ConversationCategory))

	switch turn.Pending {
	case domain.PendingAwaitingSaveConfirmation, domain.PendingAwaitingContext:
		fmt.Fprintf(&b, "PENDING STATE: %s\n", turn.Pending)
		if st := turn.Statement(); st != "" {
			fmt.Fprintf(&b, "PENDING STATEMENT: %q\n", st)
		}
	default:
		b.WriteString("PENDING STATE: none\n")
	}
	return b.String()
}

// SmallTalkPrompt is the system instruction for plain conversation.
func SmallTalkPrompt(persona string) string {
	if persona == "" {
		persona = defaultPersona
	}
	return strings.TrimSpace(persona) + "\n" + smallTalkInstructions
}

// OpenerPrompt is the system instruction for a proactive opener.
func OpenerPrompt(persona string, recent []*domain.Memory) string {
	if persona == "" {
		persona = defaultPersona
	}
	var b strings.Builder
	b.WriteString(strings.TrimSpace(persona))
	b.WriteString("\n")
	b.WriteString(openerInstructions)
	if len(recent) > 0 {
		b.WriteString("\n\nRecent notes:\n")
		for _, m := range recent {
			fmt.Fprintf(&b, "- %s (%s)\n", m.Summary, m.Category)
		}
	}
	return b.String()
}
