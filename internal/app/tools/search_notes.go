package tools

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/PabloGalante/noto-agent/internal/domain"
)

// NoNotesFound is the sentinel answered when a search matches nothing.
const NoNotesFound = "No encontré notas guardadas que coincidan con tu búsqueda."

// SearchNotes looks up Memories by case-insensitive substring.
type SearchNotes struct {
	store domain.MemoryStore
	loc   *time.Location
}

func NewSearchNotes(store domain.MemoryStore, loc *time.Location) *SearchNotes {
	if loc == nil {
		loc = time.UTC
	}
	return &SearchNotes{store: store, loc: loc}
}

func (t *SearchNotes) Spec() domain.ToolSpec {
	return domain.ToolSpec{
		Name:        SearchNotesName,
		Description: "Busca en las notas guardadas del usuario. Con una consulta vacía devuelve las notas más recientes.",
		Params: []domain.ToolParam{
			{Name: "query", Description: "Texto a buscar en las notas.", Required: true},
		},
	}
}

// Call expects {"query": "..."}; an empty query lists the most recent notes.
func (t *SearchNotes) Call(ctx context.Context, _ ToolContext, input map[string]any) (string, error) {
	mems, err := t.Search(ctx, getString(input, "query"), "")
	if err != nil {
		return "", err
	}
	return RenderMemories(mems, t.loc), nil
}

// Search returns at most one page of memories, newest first.
func (t *SearchNotes) Search(ctx context.Context, query, category string) ([]*domain.Memory, error) {
	mems, err := t.store.SearchMemories(ctx, domain.MemoryQuery{
		Query:    strings.TrimSpace(query),
		Category: category,
		Limit:    domain.DefaultSearchLimit,
	})
	if err != nil {
		return nil, storeErr(SearchNotesName, err)
	}
	return mems, nil
}

// SearchAny tries the whole query first and, when nothing matches, each
// keyword of it separately. Results are merged newest first.
func (t *SearchNotes) SearchAny(ctx context.Context, query, category string) ([]*domain.Memory, error) {
	mems, err := t.Search(ctx, query, category)
	if err != nil || len(mems) > 0 {
		return mems, err
	}

	seen := make(map[domain.MemoryID]bool)
	var merged []*domain.Memory
	for _, kw := range Keywords(query) {
		found, err := t.Search(ctx, kw, category)
		if err != nil {
			return nil, err
		}
		for _, m := range found {
			if !seen[m.ID] {
				seen[m.ID] = true
				merged = append(merged, m)
			}
		}
	}

	slices.SortStableFunc(merged, func(a, b *domain.Memory) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(merged) > domain.DefaultSearchLimit {
		merged = merged[:domain.DefaultSearchLimit]
	}
	return merged, nil
}

// Keywords splits a query into lower-cased tokens of three or more runes.
func Keywords(query string) []string {
	var out []string
	for _, w := range strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if utf8.RuneCountInString(w) >= 3 && !slices.Contains(out, w) {
			out = append(out, w)
		}
	}
	return out
}

// RenderMemories formats a result set for the user, or NoNotesFound.
func RenderMemories(mems []*domain.Memory, loc *time.Location) string {
	if len(mems) == 0 {
		return NoNotesFound
	}
	var b strings.Builder
	b.WriteString("Esto es lo que encontré:")
	for _, m := range mems {
		fmt.Fprintf(&b, "\n- %s (%s, %s)", m.Summary, m.Category, m.CreatedAt.In(loc).Format("02/01/2006"))
	}
	return b.String()
}
