package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/PabloGalante/noto-agent/internal/domain"
)

// NoteWriter is the persistence save_note needs.
type NoteWriter interface {
	domain.MemoryStore
	domain.NoteStore
}

// SaveNote persists a Memory.
type SaveNote struct {
	store  NoteWriter
	policy domain.CategoryPolicy
}

func NewSaveNote(store NoteWriter, policy domain.CategoryPolicy) *SaveNote {
	return &SaveNote{store: store, policy: policy}
}

func (t *SaveNote) Spec() domain.ToolSpec {
	categories := strings.Join(t.policy.Names(), ", ")
	return domain.ToolSpec{
		Name:        SaveNoteName,
		Description: "Guarda una nota o dato importante del usuario para recordarlo más tarde.",
		Params: []domain.ToolParam{
			{Name: "summary", Description: "Resumen conciso de la información a guardar.", Required: true},
			{Name: "category", Description: "Categoría de la nota (" + categories + "). Por defecto General."},
		},
	}
}

// Call expects {"summary": "...", "category": "..."}.
func (t *SaveNote) Call(ctx context.Context, _ ToolContext, input map[string]any) (string, error) {
	mem, err := t.Save(ctx, getString(input, "summary"), getString(input, "category"))
	if err != nil {
		return "", err
	}
	return Confirmation(mem.Category), nil
}

// Save validates and persists one Memory.
func (t *SaveNote) Save(ctx context.Context, summary, category string) (*domain.Memory, error) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return nil, fmt.Errorf("%s: %w: empty summary", SaveNoteName, ErrInvalidArgs)
	}

	mem, err := t.store.CreateMemory(ctx, summary, t.policy.Resolve(category))
	if err != nil {
		return nil, storeErr(SaveNoteName, err)
	}
	return mem, nil
}

// Commit validates note and persists it with its reminder in one write.
func (t *SaveNote) Commit(ctx context.Context, note domain.NewNote) (*domain.Memory, *domain.Reminder, error) {
	note.Summary = strings.TrimSpace(note.Summary)
	if note.Summary == "" {
		return nil, nil, fmt.Errorf("%s: %w: empty summary", SaveNoteName, ErrInvalidArgs)
	}
	if r := note.Reminder; r != nil && strings.TrimSpace(r.Text) == "" {
		return nil, nil, fmt.Errorf("%s: %w: empty reminder text", SaveNoteName, ErrInvalidArgs)
	}
	note.Category = t.policy.Resolve(note.Category)

	mem, rem, err := t.store.SaveNote(ctx, note)
	if err != nil {
		return nil, nil, storeErr(SaveNoteName, err)
	}
	return mem, rem, nil
}

// Confirmation is what save_note answers after a successful save.
func Confirmation(category string) string {
	return fmt.Sprintf("Nota guardada en la categoría %s.", category)
}
