package memory

import (
	"context"
	"strings"

	"github.com/PabloGalante/noto-agent/internal/domain"
	"github.com/PabloGalante/noto-agent/internal/textfold"
)

func (s *Store) CreateMemory(_ context.Context, summary, category string) (*domain.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mem := &domain.Memory{
		ID:        domain.MemoryID(s.newID()),
		Summary:   summary,
		Category:  domain.NormalizeCategory(category),
		CreatedAt: s.now(),
	}
	s.memories = append(s.memories, mem)

	m := *mem
	return &m, nil
}

// SearchMemories walks memories newest first; insertion order breaks timestamp ties.
// Matching ignores case and accents.
func (s *Store) SearchMemories(_ context.Context, q domain.MemoryQuery) ([]*domain.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := q.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	needle := textfold.Fold(strings.TrimSpace(q.Query))
	category := ""
	if strings.TrimSpace(q.Category) != "" {
		category = domain.NormalizeCategory(q.Category)
	}

	var out []*domain.Memory
	for i := len(s.memories) - 1; i >= 0 && len(out) < limit; i-- {
		mem := s.memories[i]
		if category != "" && mem.Category != category {
			continue
		}
		if needle != "" && !strings.Contains(textfold.Fold(mem.Summary), needle) {
			continue
		}
		m := *mem
		out = append(out, &m)
	}
	return out, nil
}
