package hub

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/shlomilevushh/mini-discord/internal/domain"
)

// Registry maps an authenticated user to at most one live client. A new
// connection for an already-registered user replaces the old reference.
type Registry struct {
	mu      sync.RWMutex
	clients map[domain.UserID]*Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[domain.UserID]*Client)}
}

// Connect registers c as the reachable connection for its user and returns
// the client it displaced, if any.
func (r *Registry) Connect(c *Client) *Client {
	r.mu.Lock()
	old := r.clients[c.user.ID]
	r.clients[c.user.ID] = c
	r.mu.Unlock()

	log.Info().Str("module", "hub.registry").Int64("user_id", int64(c.user.ID)).Msg("connected")
	if old == c {
		return nil
	}
	return old
}

// Disconnect removes c from the registry and reports whether it was the
// current entry for its user. A client displaced by a reconnect is no longer
// current, so its late disconnect must not unregister the replacement.
func (r *Registry) Disconnect(c *Client) bool {
	r.mu.Lock()
	current := r.clients[c.user.ID] == c
	if current {
		delete(r.clients, c.user.ID)
	}
	r.mu.Unlock()

	if current {
		log.Info().Str("module", "hub.registry").Int64("user_id", int64(c.user.ID)).Msg("disconnected")
	}
	return current
}

// Get returns the live client for user, if registered.
func (r *Registry) Get(user domain.UserID) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[user]
	return c, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
