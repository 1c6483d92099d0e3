package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/shlomilevushh/mini-discord/internal/domain"
)

// CreateUser registers a new account. The password is stored as a bcrypt
// hash, never in clear.
func (s *Store) CreateUser(email, username, password, avatar string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	res, err := s.db.Exec(
		"INSERT INTO users (email, username, password, avatar, created_at) VALUES (?, ?, ?, ?, ?)",
		email, username, string(hash), avatar, time.Now().UTC(),
	)
	if err != nil {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "users.email"):
			return nil, ErrEmailTaken
		case strings.Contains(msg, "users.username"):
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, _ := res.LastInsertId()
	return &domain.User{
		ID:       domain.UserID(id),
		Email:    email,
		Username: username,
		Avatar:   avatar,
		Status:   domain.StatusOffline,
	}, nil
}

// VerifyUser checks credentials and returns the account on success.
func (s *Store) VerifyUser(email, password string) (*domain.User, error) {
	var (
		u    domain.User
		hash string
	)
	err := s.db.QueryRow(
		"SELECT id, email, username, password, avatar, status FROM users WHERE email = ?",
		email,
	).Scan(&u.ID, &u.Email, &u.Username, &hash, &u.Avatar, &u.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

func (s *Store) UserByID(id domain.UserID) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRow(
		"SELECT id, email, username, avatar, status FROM users WHERE id = ?",
		id,
	).Scan(&u.ID, &u.Email, &u.Username, &u.Avatar, &u.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

func (s *Store) UserByUsername(username string) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRow(
		"SELECT id, username, avatar FROM users WHERE username = ?",
		username,
	).Scan(&u.ID, &u.Username, &u.Avatar)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

// UpdateUserStatus sets the advertised status; only the three known values
// are accepted.
func (s *Store) UpdateUserStatus(id domain.UserID, status domain.Status) error {
	if !status.Valid() {
		return domain.ErrInvalidStatus
	}
	res, err := s.db.Exec("UPDATE users SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
