package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shlomilevushh/mini-discord/internal/domain"
)

func TestCreateAndVerifyUser(t *testing.T) {
	s := newTestStore(t)

	created, err := s.CreateUser("alice@example.com", "alice", "Passw0rd!", "avatar2")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, domain.StatusOffline, created.Status)

	u, err := s.VerifyUser("alice@example.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "avatar2", u.Avatar)
}

func TestVerifyUserRejectsBadCredentials(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "alice")

	_, err := s.VerifyUser("alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.VerifyUser("nobody@example.com", "Passw0rd!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUserUniqueness(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "alice")

	_, err := s.CreateUser("alice@example.com", "someone-else", "Passw0rd!", "avatar1")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = s.CreateUser("other@example.com", "alice", "Passw0rd!", "avatar1")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUserLookup(t *testing.T) {
	s := newTestStore(t)
	alice := seedUser(t, s, "alice")

	byID, err := s.UserByID(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byName, err := s.UserByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)

	_, err = s.UserByID(999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.UserByUsername("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateUserStatus(t *testing.T) {
	s := newTestStore(t)
	alice := seedUser(t, s, "alice")

	require.NoError(t, s.UpdateUserStatus(alice.ID, domain.StatusInvisible))
	u, err := s.UserByID(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInvisible, u.Status)

	assert.ErrorIs(t, s.UpdateUserStatus(alice.ID, "asleep"), domain.ErrInvalidStatus)
	assert.ErrorIs(t, s.UpdateUserStatus(999, domain.StatusOnline), ErrNotFound)
}
