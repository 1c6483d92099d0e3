package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shlomilevushh/mini-discord/internal/domain"
)

// SendFriendRequest creates a pending request addressed by username and
// returns the receiver's id so the caller can push a live notification.
func (s *Store) SendFriendRequest(sender domain.UserID, receiverUsername string) (domain.RequestID, domain.UserID, error) {
	receiver, err := s.UserByUsername(receiverUsername)
	if err != nil {
		return 0, 0, err
	}
	if receiver.ID == sender {
		return 0, 0, ErrSelfFriend
	}

	var existing int64
	err = s.db.QueryRow(
		"SELECT id FROM friendships WHERE (user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)",
		sender, receiver.ID, receiver.ID, sender,
	).Scan(&existing)
	if err == nil {
		return 0, 0, ErrAlreadyFriends
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("check friendship: %w", err)
	}

	err = s.db.QueryRow(
		"SELECT id FROM friend_requests WHERE sender_id = ? AND receiver_id = ? AND status = 'pending'",
		sender, receiver.ID,
	).Scan(&existing)
	if err == nil {
		return 0, 0, ErrRequestPending
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("check pending request: %w", err)
	}

	res, err := s.db.Exec(
		"INSERT INTO friend_requests (sender_id, receiver_id, created_at) VALUES (?, ?, ?)",
		sender, receiver.ID, time.Now().UTC(),
	)
	if err != nil {
		return 0, 0, fmt.Errorf("insert friend request: %w", err)
	}
	id, _ := res.LastInsertId()
	return domain.RequestID(id), receiver.ID, nil
}

// PendingFriendRequests lists requests awaiting user's decision, newest first.
func (s *Store) PendingFriendRequests(user domain.UserID) ([]domain.FriendRequest, error) {
	rows, err := s.db.Query(`
		SELECT fr.id, u.username, u.avatar
		FROM friend_requests fr
		JOIN users u ON fr.sender_id = u.id
		WHERE fr.receiver_id = ? AND fr.status = 'pending'
		ORDER BY fr.created_at DESC`, user)
	if err != nil {
		return nil, fmt.Errorf("select friend requests: %w", err)
	}
	defer rows.Close()

	out := []domain.FriendRequest{}
	for rows.Next() {
		var r domain.FriendRequest
		if err := rows.Scan(&r.ID, &r.Username, &r.Avatar); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AcceptFriendRequest turns a pending request into a friendship and returns
// the requester's id for the live notification.
func (s *Store) AcceptFriendRequest(id domain.RequestID, user domain.UserID) (domain.UserID, error) {
	var senderID domain.UserID
	err := s.db.QueryRow(
		"SELECT sender_id FROM friend_requests WHERE id = ? AND receiver_id = ? AND status = 'pending'",
		id, user,
	).Scan(&senderID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("select friend request: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO friendships (user1_id, user2_id, created_at) VALUES (?, ?, ?)",
		senderID, user, time.Now().UTC(),
	); err != nil {
		return 0, fmt.Errorf("insert friendship: %w", err)
	}
	if _, err := tx.Exec(
		"UPDATE friend_requests SET status = 'accepted' WHERE id = ?", id,
	); err != nil {
		return 0, fmt.Errorf("update friend request: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return senderID, nil
}

func (s *Store) DeclineFriendRequest(id domain.RequestID, user domain.UserID) error {
	res, err := s.db.Exec(
		"UPDATE friend_requests SET status = 'declined' WHERE id = ? AND receiver_id = ? AND status = 'pending'",
		id, user,
	)
	if err != nil {
		return fmt.Errorf("decline friend request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Friends lists a user's friends with their current status, sorted by name.
func (s *Store) Friends(user domain.UserID) ([]domain.User, error) {
	rows, err := s.db.Query(`
		SELECT u.id, u.username, u.avatar, u.status
		FROM users u
		WHERE u.id IN (
			SELECT user2_id FROM friendships WHERE user1_id = ?
			UNION
			SELECT user1_id FROM friendships WHERE user2_id = ?
		)
		ORDER BY u.username ASC`, user, user)
	if err != nil {
		return nil, fmt.Errorf("select friends: %w", err)
	}
	defer rows.Close()

	out := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Avatar, &u.Status); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
