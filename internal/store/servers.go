package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shlomilevushh/mini-discord/internal/domain"
)

// CreateServer creates a server, enrolls the owner as its first member and
// creates the default "general" channel.
func (s *Store) CreateServer(name string, owner domain.UserID) (*domain.Server, error) {
	var existing int64
	err := s.db.QueryRow("SELECT id FROM servers WHERE name = ?", name).Scan(&existing)
	if err == nil {
		return nil, ErrServerNameTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check server name: %w", err)
	}

	now := time.Now().UTC()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"INSERT INTO servers (name, owner_id, created_at) VALUES (?, ?, ?)",
		name, owner, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert server: %w", err)
	}
	serverID, _ := res.LastInsertId()

	if _, err := tx.Exec(
		"INSERT INTO server_members (server_id, user_id, joined_at) VALUES (?, ?, ?)",
		serverID, owner, now,
	); err != nil {
		return nil, fmt.Errorf("insert owner membership: %w", err)
	}
	if _, err := tx.Exec(
		"INSERT INTO channels (server_id, name, channel_type, created_at) VALUES (?, ?, ?, ?)",
		serverID, "general", domain.ChannelVoice, now,
	); err != nil {
		return nil, fmt.Errorf("insert default channel: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &domain.Server{
		ID:        domain.ServerID(serverID),
		Name:      name,
		OwnerID:   owner,
		IsOwner:   true,
		CreatedAt: now,
	}, nil
}

// UserServers lists servers the user belongs to, most recently joined first.
func (s *Store) UserServers(user domain.UserID) ([]domain.Server, error) {
	rows, err := s.db.Query(`
		SELECT s.id, s.name, s.owner_id, s.created_at, (s.owner_id = ?) AS is_owner
		FROM servers s
		JOIN server_members sm ON s.id = sm.server_id
		WHERE sm.user_id = ?
		ORDER BY sm.joined_at DESC`, user, user)
	if err != nil {
		return nil, fmt.Errorf("select servers: %w", err)
	}
	defer rows.Close()

	out := []domain.Server{}
	for rows.Next() {
		var srv domain.Server
		if err := rows.Scan(&srv.ID, &srv.Name, &srv.OwnerID, &srv.CreatedAt, &srv.IsOwner); err != nil {
			return nil, err
		}
		out = append(out, srv)
	}
	return out, rows.Err()
}

func (s *Store) ServerByID(id domain.ServerID) (*domain.Server, error) {
	var srv domain.Server
	err := s.db.QueryRow(
		"SELECT id, name, owner_id, created_at FROM servers WHERE id = ?", id,
	).Scan(&srv.ID, &srv.Name, &srv.OwnerID, &srv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select server: %w", err)
	}
	return &srv, nil
}

// SendServerInvite records an invite from the server owner to another user.
func (s *Store) SendServerInvite(serverID domain.ServerID, from, to domain.UserID) (domain.InviteID, error) {
	srv, err := s.ServerByID(serverID)
	if err != nil {
		return 0, err
	}
	if srv.OwnerID != from {
		return 0, ErrNotOwner
	}

	var existing int64
	err = s.db.QueryRow(
		"SELECT id FROM server_members WHERE server_id = ? AND user_id = ?",
		serverID, to,
	).Scan(&existing)
	if err == nil {
		return 0, ErrAlreadyMember
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("check membership: %w", err)
	}

	err = s.db.QueryRow(
		"SELECT id FROM server_invites WHERE server_id = ? AND to_user_id = ? AND status = 'pending'",
		serverID, to,
	).Scan(&existing)
	if err == nil {
		return 0, ErrInvitePending
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("check pending invite: %w", err)
	}

	res, err := s.db.Exec(
		"INSERT INTO server_invites (server_id, from_user_id, to_user_id, created_at) VALUES (?, ?, ?, ?)",
		serverID, from, to, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert invite: %w", err)
	}
	id, _ := res.LastInsertId()
	return domain.InviteID(id), nil
}

// PendingServerInvites lists invites awaiting the user's decision.
func (s *Store) PendingServerInvites(user domain.UserID) ([]domain.ServerInvite, error) {
	rows, err := s.db.Query(`
		SELECT si.id, si.server_id, s.name, si.from_user_id, u.username, u.avatar
		FROM server_invites si
		JOIN servers s ON si.server_id = s.id
		JOIN users u ON si.from_user_id = u.id
		WHERE si.to_user_id = ? AND si.status = 'pending'
		ORDER BY si.created_at DESC`, user)
	if err != nil {
		return nil, fmt.Errorf("select invites: %w", err)
	}
	defer rows.Close()

	out := []domain.ServerInvite{}
	for rows.Next() {
		var inv domain.ServerInvite
		if err := rows.Scan(&inv.ID, &inv.ServerID, &inv.ServerName,
			&inv.FromUserID, &inv.FromUsername, &inv.FromAvatar); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// AcceptServerInvite adds the user to the server and marks the invite.
func (s *Store) AcceptServerInvite(id domain.InviteID, user domain.UserID) error {
	var serverID domain.ServerID
	err := s.db.QueryRow(
		"SELECT server_id FROM server_invites WHERE id = ? AND to_user_id = ? AND status = 'pending'",
		id, user,
	).Scan(&serverID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("select invite: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO server_members (server_id, user_id, joined_at) VALUES (?, ?, ?)",
		serverID, user, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}
	if _, err := tx.Exec(
		"UPDATE server_invites SET status = 'accepted' WHERE id = ?", id,
	); err != nil {
		return fmt.Errorf("update invite: %w", err)
	}
	return tx.Commit()
}

func (s *Store) DeclineServerInvite(id domain.InviteID, user domain.UserID) error {
	res, err := s.db.Exec(
		"UPDATE server_invites SET status = 'declined' WHERE id = ? AND to_user_id = ? AND status = 'pending'",
		id, user,
	)
	if err != nil {
		return fmt.Errorf("decline invite: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
