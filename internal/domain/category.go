package domain

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

const DefaultCategory = "General"

// DefaultCategories is the allow-list used when none is configured.
var DefaultCategories = []string{
	"General", "Ideas", "Tareas", "Recetas", "Eventos", "Cumpleaños", "Recordatorios", "Gastos",
}

// NormalizeCategory upper-cases the first letter and lower-cases the rest.
// Blank input yields DefaultCategory.
func NormalizeCategory(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DefaultCategory
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}

// CategoryPolicy validates categories against a configurable allow-list.
// Categories are open-ended keys; the list is only enforced at this boundary.
type CategoryPolicy struct {
	allowed map[string]bool
}

// NewCategoryPolicy builds a policy. An empty list allows every category.
func NewCategoryPolicy(allowed []string) CategoryPolicy {
	p := CategoryPolicy{allowed: make(map[string]bool, len(allowed))}
	for _, c := range allowed {
		p.allowed[NormalizeCategory(c)] = true
	}
	return p
}

// Resolve normalizes raw and falls back to DefaultCategory when it is not allowed.
func (p CategoryPolicy) Resolve(raw string) string {
	c := NormalizeCategory(raw)
	if len(p.allowed) == 0 || p.allowed[c] {
		return c
	}
	return DefaultCategory
}

// Allowed reports whether the normalized category passes the allow-list.
func (p CategoryPolicy) Allowed(raw string) bool {
	return len(p.allowed) == 0 || p.allowed[NormalizeCategory(raw)]
}

// Names returns the allow-list sorted.
func (p CategoryPolicy) Names() []string {
	out := make([]string, 0, len(p.allowed))
	for c := range p.allowed {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}
