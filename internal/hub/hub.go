// Package hub is the real-time core: it tracks which users are connected,
// which voice channels they are live in, and routes signaling envelopes
// between them. Durable effects go through the Persistence collaborator.
package hub

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shlomilevushh/mini-discord/internal/domain"
)

// Persistence is the narrow slice of the store the hub needs to decide
// fan-out targets and record durable effects. Calls are blocking I/O and are
// never made while a registry or presence lock is held.
type Persistence interface {
	SaveDirectMessage(sender, receiver domain.UserID, body string) (*domain.Message, error)
	SaveChannelMessage(ch domain.ChannelID, sender domain.UserID, body string) (*domain.Message, error)
	ChannelMembers(ch domain.ChannelID) ([]domain.User, error)
	Friends(user domain.UserID) ([]domain.User, error)
	UpdateUserStatus(user domain.UserID, status domain.Status) error
}

type Options struct {
	SendTimeout time.Duration
	PingPeriod  time.Duration
	ReadLimit   int64
}

type Hub struct {
	store    Persistence
	registry *Registry
	presence *Presence
	metrics  *Metrics

	sendTimeout time.Duration
	pingPeriod  time.Duration
	readLimit   int64
}

func New(store Persistence, metrics *Metrics, opt Options) *Hub {
	if opt.SendTimeout <= 0 {
		opt.SendTimeout = 5 * time.Second
	}
	if opt.PingPeriod <= 0 {
		opt.PingPeriod = 54 * time.Second
	}
	if opt.ReadLimit <= 0 {
		opt.ReadLimit = 32768
	}
	return &Hub{
		store:       store,
		registry:    NewRegistry(),
		presence:    NewPresence(),
		metrics:     metrics,
		sendTimeout: opt.SendTimeout,
		pingPeriod:  opt.PingPeriod,
		readLimit:   opt.ReadLimit,
	}
}

// Serve registers the connection and runs its receive loop until the
// transport dies. It blocks; the ws handler calls it on its own goroutine.
func (h *Hub) Serve(user domain.User, conn Conn) {
	c := newClient(user, conn, h)
	if old := h.registry.Connect(c); old != nil {
		// The replaced connection is unreachable through the registry
		// either way; closing it reaps its pumps.
		old.close()
	} else {
		h.metrics.ActiveConnections.Inc()
	}

	go c.writePump(h.sendTimeout, h.pingPeriod)
	c.readPump(h.readLimit, h.pongWait())
}

// pongWait leaves room for one missed ping before the read deadline fires.
func (h *Hub) pongWait() time.Duration {
	return h.pingPeriod * 10 / 9
}

// drop removes the client from the registry and, if it was the current entry
// for its user, cascades presence cleanup and notifies each affected
// channel's remaining members.
func (h *Hub) drop(c *Client) {
	current := h.registry.Disconnect(c)
	c.close()
	if !current {
		return
	}
	h.metrics.ActiveConnections.Dec()

	for _, ch := range h.presence.RemoveEverywhere(c.user.ID) {
		h.SendToChannel(ch, struct {
			Type      string           `json:"type"`
			ChannelID domain.ChannelID `json:"channel_id"`
			UserID    domain.UserID    `json:"user_id"`
			Username  string           `json:"username"`
		}{"user-left-voice", ch, c.user.ID, c.user.Username}, c.user.ID)
	}
}

// SendToUser delivers one envelope to user, best effort. Offline users are a
// silent no-op; a failed delivery drops the stale client instead of
// surfacing the error.
func (h *Hub) SendToUser(user domain.UserID, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "hub").Msg("marshal outbound envelope")
		return
	}
	h.sendBytes(user, data)
}

func (h *Hub) sendBytes(user domain.UserID, data []byte) {
	c, ok := h.registry.Get(user)
	if !ok {
		return
	}
	if err := c.trySend(data); err != nil {
		h.metrics.SendFailures.Inc()
		log.Warn().Err(err).Str("module", "hub").
			Int64("user_id", int64(user)).Msg("delivery failed, dropping client")
		h.drop(c)
	}
}

// SendToChannel fans out one envelope to every user live in ch except
// exclude. Membership is snapshotted once; delivery to each member is
// independent.
func (h *Hub) SendToChannel(ch domain.ChannelID, v any, exclude domain.UserID) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "hub").Msg("marshal outbound envelope")
		return
	}
	for _, member := range h.presence.Members(ch) {
		if member == exclude {
			continue
		}
		h.sendBytes(member, data)
	}
}

// ConnectedUsers reports how many clients are currently registered.
func (h *Hub) ConnectedUsers() int {
	return h.registry.Count()
}

// NotifyFriendRequest pushes a live new-friend-request event, if the
// receiver is connected.
func (h *Hub) NotifyFriendRequest(to domain.UserID, from domain.User) {
	h.SendToUser(to, struct {
		Type         string        `json:"type"`
		FromUserID   domain.UserID `json:"from_user_id"`
		FromUsername string        `json:"from_username"`
	}{"new-friend-request", from.ID, from.Username})
}

// NotifyFriendRequestAccepted tells the original requester their request was
// accepted.
func (h *Hub) NotifyFriendRequestAccepted(to domain.UserID, by domain.User) {
	h.SendToUser(to, struct {
		Type       string        `json:"type"`
		ByUserID   domain.UserID `json:"by_user_id"`
		ByUsername string        `json:"by_username"`
	}{"friend-request-accepted", by.ID, by.Username})
}

// NotifyServerInvite pushes a live new-server-invite event.
func (h *Hub) NotifyServerInvite(to domain.UserID, from domain.User, serverName string) {
	h.SendToUser(to, struct {
		Type         string        `json:"type"`
		FromUserID   domain.UserID `json:"from_user_id"`
		FromUsername string        `json:"from_username"`
		ServerName   string        `json:"server_name"`
	}{"new-server-invite", from.ID, from.Username, serverName})
}
