package ids

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAtSortsByTime(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	a := NewAt(base)
	b := NewAt(base.Add(time.Second))

	require.Len(t, a, 26)
	assert.Less(t, a, b)
}

func TestNewIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id := New()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
