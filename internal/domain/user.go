// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const (
	MaxUsernameLen = 36
	MaxMessageLen  = 2000
)

var (
	ErrUsernameEmpty   = errors.New("username empty")
	ErrUsernameTooLong = errors.New("username too long")
	ErrInvalidStatus   = errors.New("invalid status")
)

type UserID int64

// Status is the durable presence state a user advertises to friends.
type Status string

const (
	StatusOnline    Status = "online"
	StatusOffline   Status = "offline"
	StatusInvisible Status = "invisible"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOnline, StatusOffline, StatusInvisible:
		return true
	}
	return false
}

type User struct {
	ID       UserID `json:"id"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Status   Status `json:"status,omitempty"`
}

func ValidateUsername(username string) error {
	if len(username) == 0 {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}
