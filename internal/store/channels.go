package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shlomilevushh/mini-discord/internal/domain"
)

// CreateChannel adds a channel to a server; owner only, name unique within
// the server.
func (s *Store) CreateChannel(serverID domain.ServerID, name string, owner domain.UserID, ctype domain.ChannelType) (*domain.Channel, error) {
	srv, err := s.ServerByID(serverID)
	if err != nil {
		return nil, err
	}
	if srv.OwnerID != owner {
		return nil, ErrNotOwner
	}
	if ctype != domain.ChannelVoice && ctype != domain.ChannelText {
		ctype = domain.ChannelVoice
	}

	var existing int64
	err = s.db.QueryRow(
		"SELECT id FROM channels WHERE server_id = ? AND name = ?", serverID, name,
	).Scan(&existing)
	if err == nil {
		return nil, ErrChannelNameTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check channel name: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.Exec(
		"INSERT INTO channels (server_id, name, channel_type, created_at) VALUES (?, ?, ?, ?)",
		serverID, name, ctype, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert channel: %w", err)
	}
	id, _ := res.LastInsertId()
	return &domain.Channel{
		ID:        domain.ChannelID(id),
		ServerID:  serverID,
		Name:      name,
		Type:      ctype,
		CreatedAt: now,
	}, nil
}

func (s *Store) ServerChannels(serverID domain.ServerID) ([]domain.Channel, error) {
	rows, err := s.db.Query(
		"SELECT id, server_id, name, channel_type, created_at FROM channels WHERE server_id = ? ORDER BY created_at ASC",
		serverID,
	)
	if err != nil {
		return nil, fmt.Errorf("select channels: %w", err)
	}
	defer rows.Close()

	out := []domain.Channel{}
	for rows.Next() {
		var ch domain.Channel
		if err := rows.Scan(&ch.ID, &ch.ServerID, &ch.Name, &ch.Type, &ch.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// JoinChannel records durable channel membership. A user occupies at most one
// channel per server: joining evicts membership rows for sibling channels.
func (s *Store) JoinChannel(channelID domain.ChannelID, user domain.UserID) error {
	var serverID domain.ServerID
	err := s.db.QueryRow("SELECT server_id FROM channels WHERE id = ?", channelID).Scan(&serverID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("select channel: %w", err)
	}

	var member int64
	err = s.db.QueryRow(
		"SELECT id FROM server_members WHERE server_id = ? AND user_id = ?", serverID, user,
	).Scan(&member)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotServerMember
	}
	if err != nil {
		return fmt.Errorf("check server membership: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM channel_members
		WHERE user_id = ? AND channel_id IN (SELECT id FROM channels WHERE server_id = ?)`,
		user, serverID,
	); err != nil {
		return fmt.Errorf("evict sibling memberships: %w", err)
	}
	if _, err := tx.Exec(
		"INSERT INTO channel_members (channel_id, user_id, joined_at) VALUES (?, ?, ?)",
		channelID, user, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("insert channel membership: %w", err)
	}
	return tx.Commit()
}

func (s *Store) LeaveChannel(channelID domain.ChannelID, user domain.UserID) error {
	_, err := s.db.Exec(
		"DELETE FROM channel_members WHERE channel_id = ? AND user_id = ?",
		channelID, user,
	)
	if err != nil {
		return fmt.Errorf("delete channel membership: %w", err)
	}
	return nil
}

// ChannelMembers lists users durably joined to a channel, oldest join first.
func (s *Store) ChannelMembers(channelID domain.ChannelID) ([]domain.User, error) {
	rows, err := s.db.Query(`
		SELECT u.id, u.username, u.avatar, u.status
		FROM users u
		JOIN channel_members cm ON u.id = cm.user_id
		WHERE cm.channel_id = ?
		ORDER BY cm.joined_at ASC`, channelID)
	if err != nil {
		return nil, fmt.Errorf("select channel members: %w", err)
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

// SaveChannelMessage persists a channel message; the sender must durably be
// in the channel.
func (s *Store) SaveChannelMessage(channelID domain.ChannelID, sender domain.UserID, body string) (*domain.Message, error) {
	var member int64
	err := s.db.QueryRow(
		"SELECT id FROM channel_members WHERE channel_id = ? AND user_id = ?",
		channelID, sender,
	).Scan(&member)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotChannelMember
	}
	if err != nil {
		return nil, fmt.Errorf("check channel membership: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.Exec(
		"INSERT INTO channel_messages (channel_id, sender_id, message, created_at) VALUES (?, ?, ?, ?)",
		channelID, sender, body, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert channel message: %w", err)
	}
	id, _ := res.LastInsertId()
	return &domain.Message{
		ID:        domain.MessageID(id),
		SenderID:  sender,
		ChannelID: channelID,
		Body:      body,
		CreatedAt: now,
	}, nil
}

// ChannelMessages returns recent channel history in chronological order.
func (s *Store) ChannelMessages(channelID domain.ChannelID, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT cm.id, cm.channel_id, cm.sender_id, cm.message, cm.created_at,
		       u.username, u.avatar
		FROM channel_messages cm
		JOIN users u ON cm.sender_id = u.id
		WHERE cm.channel_id = ?
		ORDER BY cm.created_at DESC
		LIMIT ?`, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("select channel messages: %w", err)
	}
	defer rows.Close()

	out := []domain.Message{}
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ChannelID, &m.SenderID, &m.Body, &m.CreatedAt,
			&m.SenderUsername, &m.SenderAvatar); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
