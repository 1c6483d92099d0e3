package domain

import "time"

type (
	ServerID  int64
	ChannelID int64
	RequestID int64
	InviteID  int64
)

type ChannelType string

const (
	ChannelVoice ChannelType = "voice"
	ChannelText  ChannelType = "text"
)

// Server is a topic-scoped group owning a set of channels.
type Server struct {
	ID        ServerID  `json:"id"`
	Name      string    `json:"name"`
	OwnerID   UserID    `json:"owner_id"`
	IsOwner   bool      `json:"is_owner,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Channel struct {
	ID        ChannelID   `json:"id"`
	ServerID  ServerID    `json:"server_id"`
	Name      string      `json:"name"`
	Type      ChannelType `json:"channel_type"`
	CreatedAt time.Time   `json:"created_at"`
}

// FriendRequest is a pending request as seen by its receiver.
type FriendRequest struct {
	ID       RequestID `json:"id"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar"`
}

// ServerInvite is a pending invite as seen by the invited user.
type ServerInvite struct {
	ID           InviteID `json:"id"`
	ServerID     ServerID `json:"server_id"`
	ServerName   string   `json:"server_name"`
	FromUserID   UserID   `json:"from_user_id"`
	FromUsername string   `json:"from_username"`
	FromAvatar   string   `json:"from_avatar"`
}
