package store

import (
	"fmt"
	"time"

	"github.com/shlomilevushh/mini-discord/internal/domain"
)

// SaveDirectMessage persists a private message and returns the created row
// with its timestamp.
func (s *Store) SaveDirectMessage(sender, receiver domain.UserID, body string) (*domain.Message, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(
		"INSERT INTO messages (sender_id, receiver_id, message, created_at) VALUES (?, ?, ?, ?)",
		sender, receiver, body, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, _ := res.LastInsertId()
	return &domain.Message{
		ID:         domain.MessageID(id),
		SenderID:   sender,
		ReceiverID: receiver,
		Body:       body,
		CreatedAt:  now,
	}, nil
}

// ChatHistory returns the most recent messages between two users in
// chronological order (oldest first).
func (s *Store) ChatHistory(a, b domain.UserID, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT m.id, m.sender_id, m.receiver_id, m.message, m.created_at,
		       sender.username, sender.avatar
		FROM messages m
		JOIN users sender ON m.sender_id = sender.id
		WHERE (m.sender_id = ? AND m.receiver_id = ?)
		   OR (m.sender_id = ? AND m.receiver_id = ?)
		ORDER BY m.created_at DESC
		LIMIT ?`, a, b, b, a, limit)
	if err != nil {
		return nil, fmt.Errorf("select chat history: %w", err)
	}
	defer rows.Close()

	out := []domain.Message{}
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Body, &m.CreatedAt,
			&m.SenderUsername, &m.SenderAvatar); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query is newest-first for the LIMIT; flip to chronological.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
