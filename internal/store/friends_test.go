package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shlomilevushh/mini-discord/internal/domain"
)

func TestFriendRequestLifecycle(t *testing.T) {
	s := newTestStore(t)
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	reqID, receiverID, err := s.SendFriendRequest(alice.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, receiverID)

	pending, err := s.PendingFriendRequests(bob.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, reqID, pending[0].ID)
	assert.Equal(t, "alice", pending[0].Username)

	senderID, err := s.AcceptFriendRequest(reqID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, senderID)

	// Friendship is symmetric.
	for _, pair := range []struct {
		who    domain.UserID
		expect string
	}{{alice.ID, "bob"}, {bob.ID, "alice"}} {
		friends, err := s.Friends(pair.who)
		require.NoError(t, err)
		require.Len(t, friends, 1)
		assert.Equal(t, pair.expect, friends[0].Username)
	}

	// Accepted requests no longer show as pending, and a new request in
	// either direction is refused.
	pending, err = s.PendingFriendRequests(bob.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, _, err = s.SendFriendRequest(alice.ID, "bob")
	assert.ErrorIs(t, err, ErrAlreadyFriends)
	_, _, err = s.SendFriendRequest(bob.ID, "alice")
	assert.ErrorIs(t, err, ErrAlreadyFriends)
}

func TestSendFriendRequestGuards(t *testing.T) {
	s := newTestStore(t)
	alice := seedUser(t, s, "alice")
	seedUser(t, s, "bob")

	_, _, err := s.SendFriendRequest(alice.ID, "alice")
	assert.ErrorIs(t, err, ErrSelfFriend)

	_, _, err = s.SendFriendRequest(alice.ID, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = s.SendFriendRequest(alice.ID, "bob")
	require.NoError(t, err)
	_, _, err = s.SendFriendRequest(alice.ID, "bob")
	assert.ErrorIs(t, err, ErrRequestPending)
}

func TestDeclineFriendRequest(t *testing.T) {
	s := newTestStore(t)
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	reqID, _, err := s.SendFriendRequest(alice.ID, "bob")
	require.NoError(t, err)

	// Only the addressee may decide.
	assert.ErrorIs(t, s.DeclineFriendRequest(reqID, alice.ID), ErrNotFound)

	require.NoError(t, s.DeclineFriendRequest(reqID, bob.ID))
	assert.ErrorIs(t, s.DeclineFriendRequest(reqID, bob.ID), ErrNotFound)

	friends, err := s.Friends(bob.ID)
	require.NoError(t, err)
	assert.Empty(t, friends)
}

func TestAcceptFriendRequestWrongUser(t *testing.T) {
	s := newTestStore(t)
	alice := seedUser(t, s, "alice")
	seedUser(t, s, "bob")
	eve := seedUser(t, s, "eve")

	reqID, _, err := s.SendFriendRequest(alice.ID, "bob")
	require.NoError(t, err)

	_, err = s.AcceptFriendRequest(reqID, eve.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
