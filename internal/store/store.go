// Package store is the durable side of the system: users, friendships,
// servers, channels and message history, backed by SQLite. The hub talks to
// it through the narrow hub.Persistence interface; the HTTP adapter uses it
// directly.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already exists")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrSelfFriend         = errors.New("cannot add yourself as a friend")
	ErrAlreadyFriends     = errors.New("already friends")
	ErrRequestPending     = errors.New("friend request already sent")
	ErrServerNameTaken    = errors.New("server name already exists")
	ErrChannelNameTaken   = errors.New("channel name already exists in this server")
	ErrNotOwner           = errors.New("only the server owner may do this")
	ErrAlreadyMember      = errors.New("user is already a member of this server")
	ErrInvitePending      = errors.New("invite already sent")
	ErrNotServerMember    = errors.New("not a member of this server")
	ErrNotChannelMember   = errors.New("must be in the channel to send messages")
)

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and runs the
// schema migration.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY churn under concurrent hub traffic.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	log.Info().Str("module", "store").Str("path", path).Msg("database ready")
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT UNIQUE NOT NULL,
		username TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		avatar TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'offline',
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS friend_requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sender_id INTEGER NOT NULL REFERENCES users(id),
		receiver_id INTEGER NOT NULL REFERENCES users(id),
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP NOT NULL,
		UNIQUE(sender_id, receiver_id)
	);

	CREATE TABLE IF NOT EXISTS friendships (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user1_id INTEGER NOT NULL REFERENCES users(id),
		user2_id INTEGER NOT NULL REFERENCES users(id),
		created_at TIMESTAMP NOT NULL,
		UNIQUE(user1_id, user2_id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sender_id INTEGER NOT NULL REFERENCES users(id),
		receiver_id INTEGER NOT NULL REFERENCES users(id),
		message TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS servers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL,
		owner_id INTEGER NOT NULL REFERENCES users(id),
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS server_members (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		server_id INTEGER NOT NULL REFERENCES servers(id) ON DELETE CASCADE,
		user_id INTEGER NOT NULL REFERENCES users(id),
		joined_at TIMESTAMP NOT NULL,
		UNIQUE(server_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS server_invites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		server_id INTEGER NOT NULL REFERENCES servers(id) ON DELETE CASCADE,
		from_user_id INTEGER NOT NULL REFERENCES users(id),
		to_user_id INTEGER NOT NULL REFERENCES users(id),
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS channels (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		server_id INTEGER NOT NULL REFERENCES servers(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		channel_type TEXT NOT NULL DEFAULT 'voice',
		created_at TIMESTAMP NOT NULL,
		UNIQUE(server_id, name)
	);

	CREATE TABLE IF NOT EXISTS channel_members (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		channel_id INTEGER NOT NULL REFERENCES channels(id) ON DELETE CASCADE,
		user_id INTEGER NOT NULL REFERENCES users(id),
		joined_at TIMESTAMP NOT NULL,
		UNIQUE(channel_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS channel_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		channel_id INTEGER NOT NULL REFERENCES channels(id) ON DELETE CASCADE,
		sender_id INTEGER NOT NULL REFERENCES users(id),
		message TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}
