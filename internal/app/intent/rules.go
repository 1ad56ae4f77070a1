package intent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/noto-agent/internal/domain"
	"github.com/PabloGalante/noto-agent/internal/textfold"
)

// RuleResolver is the deterministic, lexical implementation of the decision
// ladder. The first branch that matches wins:
//
//  1. retrieval question
//  2. explicit save or reminder directive with content
//  3. answer to a pending clarification (confirm, give context, or decline)
//  4. new statement of fact, which is asked about before saving
//  5. anything else is conversation
type RuleResolver struct {
	lex     *lexicon
	policy  domain.CategoryPolicy
	loc     *time.Location
	replier Replier
}

type RuleOption func(*RuleResolver)

// WithReplier makes small talk replies come from r instead of canned text.
func WithReplier(r Replier) RuleOption {
	return func(rr *RuleResolver) { rr.replier = r }
}

func NewRuleResolver(policy domain.CategoryPolicy, loc *time.Location, opts ...RuleOption) *RuleResolver {
	if loc == nil {
		loc = time.UTC
	}
	r := &RuleResolver{
		lex:    newLexicon(policy),
		policy: policy,
		loc:    loc,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RuleResolver) Resolve(ctx context.Context, turn Turn) (Decision, error) {
	input := strings.TrimSpace(turn.Input)
	if turn.Now.IsZero() {
		turn.Now = time.Now()
	}
	t := newText(input)

	if d, ok := r.retrieval(t, turn); ok {
		return d, nil
	}
	if d, ok := r.explicitSave(t, turn); ok {
		return d, nil
	}

	switch turn.Pending {
	case domain.PendingAwaitingSaveConfirmation:
		if d, ok := r.confirmation(t, turn); ok {
			return d, nil
		}
	case domain.PendingAwaitingContext:
		if d, ok := r.contextReply(t, turn); ok {
			return d, nil
		}
	}

	if r.isStatement(t, turn.Now) {
		return Decision{Action: ActionAskToSave, Reply: ClarificationPrompt}, nil
	}
	return r.converse(ctx, turn, t)
}

// --- 1. retrieval --- //

func (r *RuleResolver) retrieval(t text, turn Turn) (Decision, bool) {
	_, _, directive := t.find(directiveRe)

	strong := t.has(retrievalPhrases...) && !t.has("cuanto antes")
	if !strong && !directive {
		strong = retrievalLeads[r.leadWord(t)]
	}
	if !strong && t.has("recuerdas") && !t.has("me recuerdas") {
		strong = true
	}

	// "mis gastos" alone is a lookup; "mis gastos de hoy fueron 300" is a statement
	bare := turn.Pending == domain.PendingNone && len(t.words()) <= 3 &&
		!strings.ContainsAny(t.String(), "0123456789")
	weak := false
	if !strong && !directive && (t.isQuestion() || bare) {
		_, _, mine := t.find(r.lex.myCatsRe)
		weak = mine || t.has(reminderWords...) ||
			(t.isQuestion() && t.has(pastReferences...))
	}
	if !strong && !weak {
		return Decision{}, false
	}

	d := Decision{Action: ActionRetrieve, Target: TargetNotes}
	if t.has(reminderWords...) {
		d.Target = TargetReminders
		return d, true
	}

	var terms []string
	for _, w := range strings.Fields(t.String()) {
		folded := strings.Trim(textfold.Fold(w), "¿?¡!.,;:\"'()")
		switch {
		case folded == "":
		case r.lex.isCategoryWord(folded):
			if d.Category == "" {
				d.Category = r.lex.category(folded)
			}
		case queryStopwords[folded]:
		default:
			terms = append(terms, strings.Trim(w, "¿?¡!.,;:\"'()"))
		}
	}
	d.Query = strings.Join(terms, " ")
	return d, true
}

func (r *RuleResolver) leadWord(t text) string {
	for _, w := range t.words() {
		if !leadFillers[w] {
			return w
		}
	}
	return ""
}

// --- 2. explicit directive --- //

func (r *RuleResolver) explicitSave(t text, turn Turn) (Decision, bool) {
	ds, subs, ok := t.find(directiveRe)
	if !ok {
		return Decision{}, false
	}
	// "guárdalo" while something is pending refers to the pending statement.
	if turn.Pending == domain.PendingAwaitingContext ||
		(turn.Pending != domain.PendingNone && pronounDirective(subs[0])) {
		return Decision{}, false
	}
	remind := false
	for _, v := range remindDirectives {
		if subs[0] == v {
			remind = true
		}
	}

	spans := []span{ds}
	category, hs, hinted := r.lex.hint(t, false)
	if hinted {
		spans = append(spans, hs)
	}

	content := trimFillers(t.without(spans...), leadContentFillers, trailingFillers)
	if !hasContent(content) {
		return Decision{}, false
	}
	ct := newText(content)

	d := Decision{Action: ActionSave, Summary: capitalize(content)}
	if tm, ok := parseTime(ct, turn.Now, r.loc); ok && !tm.todayOnly {
		what := trimFillers(ct.without(tm.spans...), contentFillers, trailingFillers)
		if !hasContent(what) {
			what = content
		}
		d.Reminder = &ReminderRequest{Text: capitalize(what), RemindAt: tm.at}
		remind = true
	}

	switch {
	case hinted:
		d.Category = category
	case remind && r.policy.Allowed("Recordatorios"):
		d.Category = "Recordatorios"
	default:
		d.Category = r.inferOrDefault(ct)
	}
	d.Category = r.policy.Resolve(d.Category)
	d.Reply = r.savedReply(d)
	return d, true
}

func pronounDirective(d string) bool {
	return strings.HasSuffix(d, "lo") || strings.HasSuffix(d, "la")
}

// hasContent reports whether s has at least one word that is not a bare pronoun.
func hasContent(s string) bool {
	for _, w := range textfold.Words(s) {
		if !contentFillers[w] && !affirmatives[w] {
			return true
		}
	}
	return false
}

// --- 3. pending clarification --- //

func (r *RuleResolver) confirmation(t text, turn Turn) (Decision, bool) {
	if r.isDecline(t) {
		return Decision{Action: ActionConverse, Reply: DeclineReply}, true
	}
	category, _, hinted := r.lex.hint(t, true)
	if !r.isAffirmative(t) {
		return Decision{}, false
	}

	statement := turn.Statement()
	if statement == "" {
		return Decision{}, false
	}

	if !hinted {
		conv := domain.NormalizeCategory(turn.ConversationCategory)
		if conv == domain.DefaultCategory {
			return Decision{Action: ActionAskForContext, Reply: ContextPrompt}, true
		}
		category = conv
	}
	d := Decision{
		Action:   ActionSave,
		Summary:  capitalize(statement),
		Category: r.policy.Resolve(category),
	}
	d.Reply = r.savedReply(d)
	return d, true
}

func (r *RuleResolver) contextReply(t text, turn Turn) (Decision, bool) {
	if r.isDecline(t) {
		return Decision{Action: ActionConverse, Reply: DeclineReply}, true
	}
	statement := turn.Statement()
	if statement == "" {
		return Decision{}, false
	}

	category, hs, hinted := r.lex.hint(t, true)
	var spans []span
	if hinted {
		spans = append(spans, hs)
	}
	ds, _, directive := t.find(directiveRe)
	if directive {
		spans = append(spans, ds)
	}
	detail := trimFillers(t.without(spans...), contentFillers, trailingFillers)

	// laughter, greetings and unrelated questions are not an answer
	if !hinted && !directive && (t.isQuestion() || isSmallTalk(t) || !hasContent(detail)) {
		return Decision{}, false
	}

	summary := capitalize(statement)
	if hasContent(detail) {
		summary = fmt.Sprintf("%s (%s)", summary, detail)
	}
	if !hinted {
		category = r.inferOrDefault(newText(statement + " " + detail))
	}

	d := Decision{
		Action:   ActionSave,
		Summary:  summary,
		Category: r.policy.Resolve(category),
	}
	d.Reply = r.savedReply(d)
	return d, true
}

// isSmallTalk reports whether t is only greetings, thanks, laughter or fillers.
func isSmallTalk(t text) bool {
	for _, w := range t.words() {
		if smallTalkWords[w] || contentFillers[w] || affirmatives[w] || laughterRe.MatchString(w) {
			continue
		}
		return false
	}
	return true
}

func (r *RuleResolver) isDecline(t text) bool {
	first := t.firstWord()
	if first == "no" {
		return !t.has("no se")
	}
	return t.has(declinePhrases...) && len(t.words()) <= 4
}

// isAffirmative accepts "sí", "dale", "ok, en gastos", "guárdalo en ideas".
func (r *RuleResolver) isAffirmative(t text) bool {
	words := t.words()
	if len(words) == 0 || !affirmatives[words[0]] && !t.has("por supuesto", "de una") {
		return false
	}
	for _, w := range words {
		if !affirmatives[w] && !confirmFillers[w] && !r.lex.isCategoryWord(w) {
			return false
		}
	}
	return true
}

// --- 4. statement of fact --- //

func (r *RuleResolver) isStatement(t text, now time.Time) bool {
	if t.isQuestion() || len(t.words()) < 3 {
		return false
	}
	raw := t.String()
	if strings.ContainsAny(raw, "0123456789$€") {
		return true
	}
	if t.has(factPhrases...) {
		return true
	}
	if _, _, ok := t.find(myIsRe); ok {
		return true
	}
	if tm, ok := parseTime(t, now, r.loc); ok && !tm.todayOnly {
		return true
	}
	if r.lex.infer(t) != "" {
		return true
	}
	_, _, ok := t.find(r.lex.bareRe)
	return ok
}

// --- 5. conversation --- //

func (r *RuleResolver) converse(ctx context.Context, turn Turn, t text) (Decision, error) {
	if r.replier != nil {
		reply, err := r.replier.Reply(ctx, turn)
		if err != nil {
			return Decision{}, err
		}
		if strings.TrimSpace(reply) != "" {
			return Decision{Action: ActionConverse, Reply: reply}, nil
		}
	}
	return Decision{Action: ActionConverse, Reply: cannedReply(t)}, nil
}

func cannedReply(t text) string {
	_, _, laughing := t.find(laughterRe)
	switch {
	case t.has(howAreYou...):
		return "¡Muy bien, gracias por preguntar! ¿En qué te puedo ayudar hoy?"
	case t.has(greetings...):
		return "¡Hola! ¿En qué te puedo ayudar hoy?"
	case t.has(thanks...):
		return "¡De nada! Aquí estoy si necesitas algo más."
	case laughing:
		return "¡Jaja! Me alegra que te haga gracia."
	default:
		return "Te escucho. Si quieres que recuerde algo, solo dímelo."
	}
}

// --- helpers --- //

func (r *RuleResolver) inferOrDefault(t text) string {
	if c := r.lex.infer(t); c != "" {
		return c
	}
	return domain.DefaultCategory
}

func (r *RuleResolver) savedReply(d Decision) string {
	return SavedReply(d, r.loc)
}

// SavedReply is the confirmation for a Save decision.
func SavedReply(d Decision, loc *time.Location) string {
	if d.Reminder != nil {
		at := d.Reminder.RemindAt.In(loc)
		return fmt.Sprintf("¡Listo! Te lo recordaré el %s a las %s.", at.Format("02/01"), at.Format("15:04"))
	}
	return fmt.Sprintf("¡Listo! Lo he guardado en %s.", d.Category)
}
