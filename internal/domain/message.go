package domain

import "time"

type MessageID int64

// Message is one persisted chat row, either direct (ReceiverID set) or
// channel-scoped (ChannelID set). Immutable once created.
type Message struct {
	ID             MessageID `json:"id"`
	SenderID       UserID    `json:"sender_id"`
	ReceiverID     UserID    `json:"receiver_id,omitempty"`
	ChannelID      ChannelID `json:"channel_id,omitempty"`
	SenderUsername string    `json:"sender_username,omitempty"`
	SenderAvatar   string    `json:"sender_avatar,omitempty"`
	Body           string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}
