package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shlomilevushh/mini-discord/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedUser(t *testing.T, s *Store, username string) *domain.User {
	t.Helper()
	u, err := s.CreateUser(username+"@example.com", username, "Passw0rd!", "avatar1")
	require.NoError(t, err)
	return u
}
