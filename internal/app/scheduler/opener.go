package scheduler

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/PabloGalante/noto-agent/internal/app/intent"
	"github.com/PabloGalante/noto-agent/internal/domain"
	"github.com/PabloGalante/noto-agent/internal/observability"
)

// Opener writes the text of a proactive message.
type Opener interface {
	Open(ctx context.Context) (string, error)
}

var defaultOpeners = []string{
	"¡Hola! ¿Cómo va tu día?",
	"¿Hay algo que quieras que recuerde por ti hoy?",
	"¿Qué tal todo? Si tienes algo en mente, cuéntame.",
}

// StaticOpener picks one of a fixed list of openers.
type StaticOpener struct {
	texts []string
	pick  func(n int) int
}

// NewStaticOpener falls back to built-in openers when texts is empty.
func NewStaticOpener(texts []string) *StaticOpener {
	var clean []string
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		clean = defaultOpeners
	}
	return &StaticOpener{texts: clean, pick: rand.IntN}
}

func (o *StaticOpener) Open(context.Context) (string, error) {
	return o.texts[o.pick(len(o.texts))], nil
}

// recentNotes is how many memories ground a generated opener.
const recentNotes = 5

// GenerativeOpener asks the generation backend for an opener about recent
// notes and falls back when the backend fails.
type GenerativeOpener struct {
	gen      domain.Generator
	memories domain.MemoryStore
	persona  intent.PersonaSource
	fallback Opener
}

func NewGenerativeOpener(gen domain.Generator, memories domain.MemoryStore, persona intent.PersonaSource, fallback Opener) *GenerativeOpener {
	return &GenerativeOpener{gen: gen, memories: memories, persona: persona, fallback: fallback}
}

func (o *GenerativeOpener) Open(ctx context.Context) (string, error) {
	log := observability.LoggerFromContext(ctx).With("component", "opener")
	log.Info("opener running")

	recent, err := o.memories.SearchMemories(ctx, domain.MemoryQuery{Limit: recentNotes})
	if err != nil {
		log.Warn("could not load recent notes", "error", err)
		recent = nil
	}

	persona := ""
	if o.persona != nil {
		persona = o.persona.Current(ctx)
	}
	resp, err := o.gen.Generate(ctx, domain.GenerationRequest{
		System: intent.OpenerPrompt(persona, recent),
	})
	if err == nil && resp != nil && strings.TrimSpace(resp.Text) != "" {
		return strings.TrimSpace(resp.Text), nil
	}

	log.Warn("generated opener unavailable, using fallback", "error", err)
	return o.fallback.Open(ctx)
}
