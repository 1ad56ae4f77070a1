package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/PabloGalante/noto-agent/internal/domain"
)

// MockGenerator is an offline domain.Generator. It never calls tools.
type MockGenerator struct{}

var _ domain.Generator = (*MockGenerator)(nil)

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

func (m *MockGenerator) Generate(_ context.Context, req domain.GenerationRequest) (*domain.GenerationResponse, error) {
	reply := "¡Hola! ¿Cómo va tu día?"
	if req.Input != "" {
		reply = fmt.Sprintf("Te escucho. Dijiste %q.", req.Input)
	}

	if !req.JSONOutput {
		return &domain.GenerationResponse{Text: reply}, nil
	}

	raw, err := json.Marshal(map[string]string{
		"action":          "converse",
		"chatbotResponse": reply,
	})
	if err != nil {
		return nil, err
	}
	return &domain.GenerationResponse{Text: string(raw)}, nil
}
