package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stores returns one instance of every Store implementation.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "weft.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Document("greeting")
			require.NoError(t, err)
			assert.False(t, ok, "absent document is not an error")

			require.NoError(t, s.SaveDocument("greeting", "Hello {who}"))
			body, ok, err := s.Document("greeting")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "Hello {who}", body)

			require.NoError(t, s.SaveDocument("greeting", "updated"))
			body, _, err = s.Document("greeting")
			require.NoError(t, err)
			assert.Equal(t, "updated", body, "save overwrites")

			names, err := s.Documents()
			require.NoError(t, err)
			assert.Contains(t, names, "greeting")

			require.NoError(t, s.DeleteDocument("greeting"))
			_, ok, err = s.Document("greeting")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestTranscriptOrder(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			first, err := s.AppendTurn("conv-1", "user", "hello")
			require.NoError(t, err)
			assert.NotEmpty(t, first.ID)
			assert.False(t, first.CreatedAt.IsZero())

			_, err = s.AppendTurn("conv-1", "assistant", "hi there")
			require.NoError(t, err)
			_, err = s.AppendTurn("conv-2", "user", "other conversation")
			require.NoError(t, err)

			turns, err := s.Turns("conv-1")
			require.NoError(t, err)
			require.Len(t, turns, 2)
			assert.Equal(t, "user", turns[0].Role)
			assert.Equal(t, "hello", turns[0].Content)
			assert.Equal(t, "assistant", turns[1].Role)
			assert.NotEqual(t, turns[0].ID, turns[1].ID)

			other, err := s.Turns("conv-2")
			require.NoError(t, err)
			require.Len(t, other, 1)
		})
	}
}

func TestSQLiteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weft.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveDocument("kept", "survives reopen"))
	_, err = s.AppendTurn("conv", "user", "persisted")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	body, ok, err := s.Document("kept")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "survives reopen", body)

	turns, err := s.Turns("conv")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "persisted", turns[0].Content)
}
