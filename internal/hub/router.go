package hub

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shlomilevushh/mini-discord/internal/domain"
)

// route dispatches one decoded envelope. Nothing here ever terminates the
// sending connection: malformed frames are dropped, unknown tags echoed.
func (h *Hub) route(c *Client, data []byte) {
	env, err := DecodeEnvelope(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "hub.router").
			Int64("user_id", int64(c.user.ID)).Msg("dropping envelope")
		return
	}

	switch m := env.(type) {
	case CallOffer:
		h.metrics.EnvelopesReceived.WithLabelValues("voice-call-offer").Inc()
		h.relayCall(c, m.Target, "voice-call-offer", "offer", m.Payload)
	case CallAnswer:
		h.metrics.EnvelopesReceived.WithLabelValues("voice-call-answer").Inc()
		h.relayCall(c, m.Target, "voice-call-answer", "answer", m.Payload)
	case CallCandidate:
		h.metrics.EnvelopesReceived.WithLabelValues("ice-candidate").Inc()
		h.relayCall(c, m.Target, "ice-candidate", "candidate", m.Payload)
	case CallEnd:
		h.metrics.EnvelopesReceived.WithLabelValues("call-end").Inc()
		h.SendToUser(m.Target, struct {
			Type         string        `json:"type"`
			FromUserID   domain.UserID `json:"from_user_id"`
			FromUsername string        `json:"from_username"`
		}{"call-end", c.user.ID, c.user.Username})
	case JoinVoiceChannel:
		h.metrics.EnvelopesReceived.WithLabelValues("join-voice-channel").Inc()
		h.handleJoinVoice(c, m)
	case LeaveVoiceChannel:
		h.metrics.EnvelopesReceived.WithLabelValues("leave-voice-channel").Inc()
		h.handleLeaveVoice(c, m)
	case ChannelVoiceOffer:
		h.metrics.EnvelopesReceived.WithLabelValues("channel-voice-offer").Inc()
		h.relayChannelVoice(c, m.Target, m.Channel, "channel-voice-offer", "offer", m.Payload)
	case ChannelVoiceAnswer:
		h.metrics.EnvelopesReceived.WithLabelValues("channel-voice-answer").Inc()
		h.relayChannelVoice(c, m.Target, m.Channel, "channel-voice-answer", "answer", m.Payload)
	case ChannelVoiceCandidate:
		h.metrics.EnvelopesReceived.WithLabelValues("channel-ice-candidate").Inc()
		h.relayChannelVoice(c, m.Target, m.Channel, "channel-ice-candidate", "candidate", m.Payload)
	case PrivateMessage:
		h.metrics.EnvelopesReceived.WithLabelValues("private-message").Inc()
		h.handlePrivateMessage(c, m)
	case ChannelMessage:
		h.metrics.EnvelopesReceived.WithLabelValues("channel-message").Inc()
		h.handleChannelMessage(c, m)
	case StatusUpdate:
		h.metrics.EnvelopesReceived.WithLabelValues("status-update").Inc()
		h.handleStatusUpdate(c, m)
	case UnknownEnvelope:
		h.metrics.EnvelopesReceived.WithLabelValues("unknown").Inc()
		log.Warn().Str("module", "hub.router").Str("type", m.Tag).
			Int64("user_id", int64(c.user.ID)).Msg("unknown envelope type, echoing")
		if err := c.trySend(m.Raw); err != nil {
			h.metrics.SendFailures.Inc()
			h.drop(c)
		}
	}
}

// relayCall forwards an opaque 1:1 signaling payload, attaching the sender's
// identity. The payload is never inspected.
func (h *Hub) relayCall(c *Client, target domain.UserID, tag, field string, payload json.RawMessage) {
	out := map[string]any{
		"type":          tag,
		"from_user_id":  c.user.ID,
		"from_username": c.user.Username,
	}
	if payload != nil {
		out[field] = payload
	}
	h.SendToUser(target, out)
}

// relayChannelVoice forwards channel-scoped signaling with channel context
// attached.
func (h *Hub) relayChannelVoice(c *Client, target domain.UserID, ch domain.ChannelID, tag, field string, payload json.RawMessage) {
	out := map[string]any{
		"type":          tag,
		"from_user_id":  c.user.ID,
		"from_username": c.user.Username,
		"channel_id":    ch,
	}
	if payload != nil {
		out[field] = payload
	}
	h.SendToUser(target, out)
}

// handleJoinVoice adds the sender to the channel's presence set, announces
// the arrival to everyone already there and replies with the member list
// (excluding the joiner).
func (h *Hub) handleJoinVoice(c *Client, m JoinVoiceChannel) {
	h.presence.Join(c.user.ID, m.Channel)
	log.Info().Str("module", "hub.router").Int64("user_id", int64(c.user.ID)).
		Int64("channel_id", int64(m.Channel)).Msg("joined voice")

	h.SendToChannel(m.Channel, struct {
		Type      string           `json:"type"`
		ChannelID domain.ChannelID `json:"channel_id"`
		UserID    domain.UserID    `json:"user_id"`
		Username  string           `json:"username"`
	}{"user-joined-voice", m.Channel, c.user.ID, c.user.Username}, c.user.ID)

	members := h.presence.Members(m.Channel)
	others := make([]domain.UserID, 0, len(members))
	for _, id := range members {
		if id != c.user.ID {
			others = append(others, id)
		}
	}
	h.SendToUser(c.user.ID, struct {
		Type      string           `json:"type"`
		ChannelID domain.ChannelID `json:"channel_id"`
		UserIDs   []domain.UserID  `json:"user_ids"`
	}{"voice-channel-users", m.Channel, others})
}

func (h *Hub) handleLeaveVoice(c *Client, m LeaveVoiceChannel) {
	if !h.presence.Leave(c.user.ID, m.Channel) {
		return
	}
	log.Info().Str("module", "hub.router").Int64("user_id", int64(c.user.ID)).
		Int64("channel_id", int64(m.Channel)).Msg("left voice")

	h.SendToChannel(m.Channel, struct {
		Type      string           `json:"type"`
		ChannelID domain.ChannelID `json:"channel_id"`
		UserID    domain.UserID    `json:"user_id"`
		Username  string           `json:"username"`
	}{"user-left-voice", m.Channel, c.user.ID, c.user.Username}, c.user.ID)
}

// handlePrivateMessage persists first, then notifies the receiver (if
// reachable) and confirms to the sender. A failed save skips fan-out
// entirely.
func (h *Hub) handlePrivateMessage(c *Client, m PrivateMessage) {
	msg, err := h.store.SaveDirectMessage(c.user.ID, m.Receiver, m.Body)
	if err != nil {
		h.metrics.PersistenceFailures.Inc()
		log.Error().Err(err).Str("module", "hub.router").
			Int64("user_id", int64(c.user.ID)).Msg("save direct message")
		return
	}

	h.SendToUser(m.Receiver, struct {
		Type         string        `json:"type"`
		FromUserID   domain.UserID `json:"from_user_id"`
		FromUsername string        `json:"from_username"`
		Message      string        `json:"message"`
		Timestamp    time.Time     `json:"timestamp"`
	}{"new-private-message", c.user.ID, c.user.Username, m.Body, msg.CreatedAt})

	h.SendToUser(c.user.ID, struct {
		Type       string        `json:"type"`
		Success    bool          `json:"success"`
		ReceiverID domain.UserID `json:"receiver_id"`
	}{"message-sent", true, m.Receiver})
}

// handleChannelMessage persists the message, then fans it out to the
// channel's durable membership, not just the users live in the voice
// presence table.
func (h *Hub) handleChannelMessage(c *Client, m ChannelMessage) {
	msg, err := h.store.SaveChannelMessage(m.Channel, c.user.ID, m.Body)
	if err != nil {
		h.metrics.PersistenceFailures.Inc()
		log.Error().Err(err).Str("module", "hub.router").
			Int64("user_id", int64(c.user.ID)).Msg("save channel message")
		return
	}

	members, err := h.store.ChannelMembers(m.Channel)
	if err != nil {
		h.metrics.PersistenceFailures.Inc()
		log.Error().Err(err).Str("module", "hub.router").
			Int64("channel_id", int64(m.Channel)).Msg("resolve channel members")
		return
	}

	event := struct {
		Type         string           `json:"type"`
		ChannelID    domain.ChannelID `json:"channel_id"`
		FromUserID   domain.UserID    `json:"from_user_id"`
		FromUsername string           `json:"from_username"`
		Message      string           `json:"message"`
		Timestamp    time.Time        `json:"timestamp"`
	}{"new-channel-message", m.Channel, c.user.ID, c.user.Username, m.Body, msg.CreatedAt}

	for _, member := range members {
		h.SendToUser(member.ID, event)
	}
}

// handleStatusUpdate records the new status and tells every friend.
func (h *Hub) handleStatusUpdate(c *Client, m StatusUpdate) {
	if err := h.store.UpdateUserStatus(c.user.ID, m.Status); err != nil {
		if !errors.Is(err, domain.ErrInvalidStatus) {
			h.metrics.PersistenceFailures.Inc()
		}
		log.Error().Err(err).Str("module", "hub.router").
			Int64("user_id", int64(c.user.ID)).Msg("update status")
		return
	}

	friends, err := h.store.Friends(c.user.ID)
	if err != nil {
		h.metrics.PersistenceFailures.Inc()
		log.Error().Err(err).Str("module", "hub.router").
			Int64("user_id", int64(c.user.ID)).Msg("resolve friends")
		return
	}

	event := struct {
		Type     string        `json:"type"`
		UserID   domain.UserID `json:"user_id"`
		Username string        `json:"username"`
		Status   domain.Status `json:"status"`
	}{"friend-status-changed", c.user.ID, c.user.Username, m.Status}

	for _, friend := range friends {
		h.SendToUser(friend.ID, event)
	}
}
