package textfold

import (
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

func TestFold(t *testing.T) {
	cases := map[string]string{
		"¿Cuánto GASTÉ?": "¿cuanto gaste?",
		"Cumpleaños":     "cumpleanos",
		"recuérdame":     "recuerdame",
		"ok 👍":           "ok 👍",
	}
	for in, want := range cases {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFoldKeepsRuneCount(t *testing.T) {
	in := "Mañana a las 5, ¡Ésta sí!"
	if utf8.RuneCountInString(Fold(in)) != utf8.RuneCountInString(in) {
		t.Fatalf("rune count changed for %q", in)
	}
}

func TestWords(t *testing.T) {
	got := Words("¡Hola! gasté $2999, en una papá...")
	want := []string{"hola", "gaste", "2999", "en", "una", "papa"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Words mismatch (-want +got):\n%s", diff)
	}
}
