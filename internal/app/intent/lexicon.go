package intent

import (
	"regexp"
	"slices"
	"strings"

	"github.com/PabloGalante/noto-agent/internal/domain"
	"github.com/PabloGalante/noto-agent/internal/textfold"
)

// All word lists are folded (lower case, no diacritics).

var interrogatives = set(
	"que", "cual", "cuales", "cuando", "donde", "como", "quien", "quienes", "cuanto", "cuanta", "cuantos", "cuantas",
	"what", "when", "where", "how", "which", "who", "do", "did",
)

// Retrieval cues valid anywhere in the input.
var retrievalPhrases = []string{
	"cuanto", "cuanta", "cuantos", "cuantas",
	"que dije", "que te dije", "que guarde", "que anote", "que te conte",
	"te acuerdas", "cuales son", "cual es mi", "cual era", "cual fue", "que tengo guardado",
	"que sabes de", "que sabes sobre",
	"what did i", "do you remember", "how much", "what are my",
}

// Retrieval cues that only count as the first meaningful word.
var retrievalLeads = set(
	"busca", "buscame", "buscar", "muestrame", "mostrame", "ensename", "dime", "listame",
	"search", "find", "show",
)

// Words referring to reminders when asking about them.
var reminderWords = []string{"recordatorio", "recordatorios", "pendientes", "reminders", "reminder", "agenda"}

// Words that suggest the question is about something said before.
var pastReferences = []string{
	"dije", "guarde", "anote", "apunte", "guardaste", "anotaste", "guardado", "anotado",
	"ayer", "antes", "pasado", "pasada", "ultimo", "ultima", "tenia", "era", "fue",
	"gaste", "pague", "compre",
}

// Leading words ignored when looking for the first meaningful word.
var leadFillers = set("oye", "noto", "hey", "porfa", "por", "favor", "puedes", "podrias", "me", "please", "can", "could", "you")

// Words dropped from a retrieval before it becomes a search query.
var queryStopwords = set(
	"que", "cual", "cuales", "cuando", "donde", "como", "quien", "cuanto", "cuanta", "cuantos", "cuantas",
	"el", "la", "los", "las", "un", "una", "unos", "unas", "de", "del", "en", "a", "al", "y", "o",
	"mi", "mis", "me", "te", "tu", "tus", "lo", "le", "se", "su", "sus", "es", "era", "fue", "son", "hay",
	"por", "para", "con", "sobre", "sabes", "algo", "todo", "todos", "todas", "favor", "porfa", "noto",
	"eso", "esto", "esa", "ese", "dije", "dijiste", "conte", "guarde", "anote", "apunte", "guardado", "anotado",
	"guardaste", "anotaste", "tengo", "tenia", "busca", "buscame", "buscar", "recuerdas", "acuerdas",
	"muestrame", "mostrame", "ensename", "dime", "lista", "listame", "ayer", "hoy", "antes", "puedes", "podrias",
	"what", "did", "i", "the", "my", "about", "do", "you", "remember", "show", "how", "much", "are", "find", "search", "list",
)

// Save directives. Inflected pronoun forms are spelled out so that
// "recuerdas" or "guardado" never match.
var directiveRe = regexp.MustCompile(`\b(?:` +
	`guarda(?:lo|la|me|melo|mela|r)?|guardes|anota(?:lo|la|me|r)?|apunta(?:lo|la|me|r)?|` +
	`recuerda(?:me|lo|la|melo)?|me recuerdas|recordame|recordar(?:me)?|registra(?:lo|la)?|` +
	`agrega(?:lo|la)?|anade(?:lo|la)?|toma nota(?: de)?|` +
	`save|remember|remind me(?: to)?|note down|write down)\b`)

// Directives asking to be reminded rather than to keep a note.
var remindDirectives = []string{"recuerda", "recuerdame", "recordame", "recordarme", "me recuerdas", "remind me", "remind me to"}

// Words left over from a directive that carry no content.
var contentFillers = set(
	"que", "me", "te", "por", "favor", "porfa", "puedes", "podrias", "quiero", "quisiera", "necesito",
	"oye", "hey", "noto", "please", "can", "could", "you", "to", "that", "this",
	"esto", "eso", "lo", "la", "esta", "este", "una", "un", "nota", "dato", "informacion", "de", "el",
)

// leadContentFillers also drops a leading "sí," before a directive.
var leadContentFillers = func() map[string]bool {
	m := make(map[string]bool, len(contentFillers)+len(affirmatives))
	for w := range contentFillers {
		m[w] = true
	}
	for w := range affirmatives {
		m[w] = true
	}
	return m
}()

var trailingFillers = set("por", "favor", "porfa", "please", "gracias", "thanks")

var affirmatives = set(
	"si", "dale", "ok", "okay", "okey", "vale", "claro", "bueno", "obvio", "afirmativo", "porfa",
	"yes", "yep", "yeah", "sure", "hazlo", "adelante", "perfecto", "exacto", "correcto",
	"guardalo", "guardala", "anotalo", "anotala", "apuntalo", "recuerdalo", "recuerdala",
	"guarda", "anota", "apunta", "save", "it",
)

// Words that may accompany an affirmative without adding content.
var confirmFillers = set(
	"por", "favor", "gracias", "please", "en", "a", "la", "las", "los", "el", "mis", "mi", "tus", "como",
	"categoria", "de", "lo", "la", "me", "y", "que", "porfa", "eso", "esto", "una", "supuesto", "it",
)

var declinePhrases = []string{
	"no", "nop", "nope", "nah", "olvidalo", "olvidala", "dejalo", "dejala", "no hace falta", "no gracias",
	"no importa", "no guardes", "cancela", "cancelar", "para nada", "mejor no", "no thanks", "forget it",
}

var factPhrases = []string{
	"gaste", "pague", "compre", "costo", "cuesta", "cuestan", "salio", "debo", "me deben", "le debo",
	"preste", "cobre", "ahorre", "tengo que", "hay que", "es el", "es la", "son las", "cumple", "nacio",
	"vence", "vencimiento", "reunion", "cita", "turno", "se llama", "vive en", "queda en", "la clave",
	"contrasena", "idea", "receta", "spent", "paid", "bought", "costs", "meeting", "appointment",
}

var myIsRe = regexp.MustCompile(`\b(?:mi\s+\w+(?:\s+\w+)?\s+es|mis\s+\w+\s+son|my\s+\w+\s+is)\b`)

var greetings = []string{"hola", "buenas", "buen dia", "buenos dias", "buenas tardes", "buenas noches", "hey", "hi", "hello"}
var thanks = []string{"gracias", "muchas gracias", "thanks", "thank you"}
var howAreYou = []string{"como estas", "como andas", "que tal", "como va", "how are you"}
var laughterRe = regexp.MustCompile(`\b(?:(?:ja|je|ji|ha|he)){2,}\w*\b|\blol\b|\bxd\b`)

// smallTalkWords are the words greetings, thanks and "how are you" are made of.
var smallTalkWords = func() map[string]bool {
	m := set("noto", "bien", "todo", "tal")
	for _, list := range [][]string{greetings, thanks, howAreYou} {
		for _, p := range list {
			for _, w := range strings.Fields(p) {
				m[w] = true
			}
		}
	}
	return m
}()

// inference is checked in this order; the first category with a keyword wins.
var inference = []struct {
	category string
	keywords []string
}{
	{"Cumpleaños", []string{"cumple", "cumpleanos", "nacio", "nacimiento", "birthday"}},
	{"Recetas", []string{"receta", "recetas", "ingredientes", "cocinar", "hornear", "horno", "cucharada", "recipe"}},
	{"Eventos", []string{"reunion", "cita", "turno", "evento", "fiesta", "concierto", "boda", "partido", "vuelo", "meeting", "appointment"}},
	{"Gastos", []string{"gaste", "pague", "compre", "costo", "cuesta", "salio", "gasto", "precio", "pesos", "dolares", "euros", "factura", "spent", "paid"}},
	{"Tareas", []string{"tengo que", "hay que", "debo", "tarea", "pendiente", "task"}},
	{"Ideas", []string{"idea", "ocurrio", "ocurre", "proyecto", "seria bueno"}},
}

// lexicon holds the category-dependent patterns.
type lexicon struct {
	policy   domain.CategoryPolicy
	words    map[string]string // folded word -> category
	hintRe   *regexp.Regexp    // "en (mis) gastos", "categoria ideas"
	bareRe   *regexp.Regexp    // any category word
	myCatsRe *regexp.Regexp    // "mis gastos"
}

func newLexicon(policy domain.CategoryPolicy) *lexicon {
	names := policy.Names()
	if len(names) == 0 {
		names = domain.DefaultCategories
	}

	lx := &lexicon{policy: policy, words: make(map[string]string)}
	for _, name := range names {
		w := textfold.Fold(name)
		lx.words[w] = name
		if strings.HasSuffix(w, "s") && len(w) > 3 {
			lx.words[strings.TrimSuffix(w, "s")] = name
		}
	}

	alts := make([]string, 0, len(lx.words))
	for w := range lx.words {
		alts = append(alts, regexp.QuoteMeta(w))
	}
	// longest first so "gastos" wins over "gasto"
	slices.SortFunc(alts, func(a, b string) int { return len(b) - len(a) })
	cats := "(" + strings.Join(alts, "|") + ")"

	lx.hintRe = regexp.MustCompile(`(?:\b(?:en|a|como|para|bajo|dentro de|in|under)\s+(?:(?:la|las|los|el|mis|tus|mi|tu|my)\s+)?(?:categoria\s+(?:de\s+)?)?` + cats + `\b)|(?:\bcategoria\s+` + cats + `\b)`)
	lx.bareRe = regexp.MustCompile(`\b` + cats + `\b`)
	lx.myCatsRe = regexp.MustCompile(`\b(?:mis|tus|my)\s+` + cats + `\b`)
	return lx
}

// hint finds an explicit category mention. loose also accepts a bare category word.
func (lx *lexicon) hint(t text, loose bool) (string, span, bool) {
	if s, subs, ok := t.find(lx.hintRe); ok {
		return lx.category(subs[1] + subs[2]), s, true
	}
	if loose {
		if s, subs, ok := t.find(lx.bareRe); ok {
			return lx.category(subs[1]), s, true
		}
	}
	return "", span{}, false
}

func (lx *lexicon) category(word string) string {
	if c, ok := lx.words[word]; ok {
		return c
	}
	return domain.DefaultCategory
}

// infer guesses a category from keywords; "" when nothing matches.
func (lx *lexicon) infer(t text) string {
	for _, rule := range inference {
		if !lx.policy.Allowed(rule.category) {
			continue
		}
		if t.has(rule.keywords...) {
			return rule.category
		}
	}
	return ""
}

func (lx *lexicon) isCategoryWord(w string) bool {
	_, ok := lx.words[w]
	return ok
}
