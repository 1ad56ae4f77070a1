package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/noto-agent/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/noto-agent/internal/adapters/storage/storetest"
	"github.com/PabloGalante/noto-agent/internal/domain"
)

func openTemp(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "noto.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.Store {
		return openTemp(t)
	})
}

func TestSearchIsCaseInsensitiveBeyondASCII(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	_, err := s.CreateMemory(ctx, "Cumpleaños de ÁNGELA el 3 de mayo", "Cumpleaños")
	require.NoError(t, err)

	got, err := s.SearchMemories(ctx, domain.MemoryQuery{Query: "ángela"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Cumpleaños", got[0].Category)
}

func TestSearchEscapesWildcards(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	_, err := s.CreateMemory(ctx, "Descuento del 50% en libros", "Gastos")
	require.NoError(t, err)
	_, err = s.CreateMemory(ctx, "Descuento del 50 en libros", "Gastos")
	require.NoError(t, err)

	got, err := s.SearchMemories(ctx, domain.MemoryQuery{Query: "50%"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Descuento del 50% en libros", got[0].Summary)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "noto.db")

	s, err := sqlite.Open(path)
	require.NoError(t, err)
	conv, err := s.GetOrCreateConversation(ctx, "Ideas")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, conv.ID, domain.SenderUser, "una app para regar plantas")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = sqlite.Open(path)
	require.NoError(t, err)
	defer s.Close()

	again, err := s.GetOrCreateConversation(ctx, "ideas")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)

	msgs, err := s.ListMessages(ctx, conv.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "una app para regar plantas", msgs[0].Text)
}
