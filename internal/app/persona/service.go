// Package persona keeps the assistant's persona and rewrites it from
// samples of the user's own writing.
package persona

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PabloGalante/noto-agent/internal/domain"
	"github.com/PabloGalante/noto-agent/internal/observability"
)

// ErrNoExamples is returned when Personalize gets no usable writing sample.
var ErrNoExamples = errors.New("persona: at least one example text is required")

const personalizeInstructions = `You are a chatbot persona creator. A user wants to personalize their chatbot to mimic their writing style.`

const personalizeTask = `Create an updated chatbot persona that incorporates the user's writing style.
Do not be verbose in your answer, return the updated persona description only.`

// Service stores the persona and personalizes it through the generator.
type Service struct {
	store    domain.AppStateStore
	gen      domain.Generator
	fallback string
}

// NewService creates a persona service. fallback is used until a persona is stored.
func NewService(store domain.AppStateStore, gen domain.Generator, fallback string) *Service {
	return &Service{store: store, gen: gen, fallback: strings.TrimSpace(fallback)}
}

// Current returns the stored persona, or the configured one when nothing is
// stored or the store cannot be read.
func (s *Service) Current(ctx context.Context) string {
	p, err := s.store.GetPersona(ctx)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("reading persona failed, using configured one",
			"error", err,
		)
		return s.fallback
	}
	if p = strings.TrimSpace(p); p != "" {
		return p
	}
	return s.fallback
}

// Personalize asks the generator for a persona that mimics examples, stores
// it and returns it. A blank current means the persona in effect now.
func (s *Service) Personalize(ctx context.Context, examples []string, current string) (string, error) {
	log := observability.LoggerFromContext(ctx)

	var samples []string
	for _, e := range examples {
		if e = strings.TrimSpace(e); e != "" {
			samples = append(samples, e)
		}
	}
	if len(samples) == 0 {
		return "", ErrNoExamples
	}
	if current = strings.TrimSpace(current); current == "" {
		current = s.Current(ctx)
	}

	resp, err := s.gen.Generate(ctx, domain.GenerationRequest{
		System: prompt(samples, current),
		Input:  personalizeTask,
	})
	if err != nil {
		log.Error("persona generation failed", "error", err)
		if errors.Is(err, domain.ErrGenerationFailure) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailure, err)
	}
	updated := ""
	if resp != nil {
		updated = strings.TrimSpace(resp.Text)
	}
	if updated == "" {
		return "", fmt.Errorf("%w: empty persona", domain.ErrMalformedOutput)
	}

	if err := s.store.SetPersona(ctx, updated); err != nil {
		return "", err
	}
	log.Info("persona updated", "examples", len(samples), "length", len(updated))
	return updated, nil
}

func prompt(samples []string, current string) string {
	var b strings.Builder
	b.WriteString(personalizeInstructions)
	b.WriteString("\n\nHere are some examples of the user's writing:\n")
	for _, s := range samples {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	if current != "" {
		fmt.Fprintf(&b, "\nThe chatbot currently has the following persona: %s\n", current)
	}
	b.WriteString("\n")
	b.WriteString(personalizeTask)
	return b.String()
}
