package sqlite

import (
	"context"
	"strings"

	"github.com/PabloGalante/noto-agent/internal/domain"
	"github.com/PabloGalante/noto-agent/internal/textfold"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *Store) CreateMemory(ctx context.Context, summary, category string) (*domain.Memory, error) {
	mem := s.newMemory(summary, category)
	if err := insertMemory(ctx, s.db, mem); err != nil {
		return nil, err
	}
	return mem, nil
}

func (s *Store) newMemory(summary, category string) *domain.Memory {
	now := s.now()
	return &domain.Memory{
		ID:        domain.MemoryID(s.newID(now)),
		Summary:   summary,
		Category:  domain.NormalizeCategory(category),
		CreatedAt: now,
	}
}

func insertMemory(ctx context.Context, db execer, mem *domain.Memory) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO memories (id, summary, search_text, category, created_at) VALUES (?, ?, ?, ?, ?)`,
		string(mem.ID), mem.Summary, textfold.Fold(mem.Summary), mem.Category, formatTime(mem.CreatedAt))
	if err != nil {
		return unavailable("insert memory", err)
	}
	return nil
}

// SearchMemories matches on a folded copy of the summary (no case, no
// accents); SQLite's lower() only folds ASCII.
func (s *Store) SearchMemories(ctx context.Context, q domain.MemoryQuery) ([]*domain.Memory, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}

	var (
		where []string
		args  []any
	)
	if needle := textfold.Fold(strings.TrimSpace(q.Query)); needle != "" {
		where = append(where, `search_text LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(needle)+"%")
	}
	if strings.TrimSpace(q.Category) != "" {
		where = append(where, `category = ?`)
		args = append(args, domain.NormalizeCategory(q.Category))
	}

	query := `SELECT id, summary, category, created_at FROM memories`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("search memories", err)
	}
	defer rows.Close()

	var out []*domain.Memory
	for rows.Next() {
		var id, createdAt string
		m := &domain.Memory{}
		if err := rows.Scan(&id, &m.Summary, &m.Category, &createdAt); err != nil {
			return nil, unavailable("scan memory", err)
		}
		m.ID = domain.MemoryID(id)
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, unavailable("scan memory", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("search memories", err)
	}
	return out, nil
}
