package hub

import (
	"sync"

	"github.com/shlomilevushh/mini-discord/internal/domain"
)

// Presence tracks which users are live in which voice channel for signaling
// fan-out. This is distinct from the durable channel membership the store
// keeps: it imposes no one-channel-at-a-time rule and empties itself as
// connections come and go.
type Presence struct {
	mu       sync.Mutex
	channels map[domain.ChannelID]map[domain.UserID]struct{}
}

func NewPresence() *Presence {
	return &Presence{channels: make(map[domain.ChannelID]map[domain.UserID]struct{})}
}

// Join adds user to the channel's presence set, creating it on first join.
// It reports whether the user was newly added; joining twice is a no-op.
func (p *Presence) Join(user domain.UserID, ch domain.ChannelID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.channels[ch]
	if !ok {
		set = make(map[domain.UserID]struct{})
		p.channels[ch] = set
	}
	if _, present := set[user]; present {
		return false
	}
	set[user] = struct{}{}
	return true
}

// Leave removes user from the channel; an emptied channel entry is deleted so
// inactive channels cost nothing.
func (p *Presence) Leave(user domain.UserID, ch domain.ChannelID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.channels[ch]
	if !ok {
		return false
	}
	if _, present := set[user]; !present {
		return false
	}
	delete(set, user)
	if len(set) == 0 {
		delete(p.channels, ch)
	}
	return true
}

// Members returns a snapshot of the channel's presence set. Callers apply
// their own exclusion.
func (p *Presence) Members(ch domain.ChannelID) []domain.UserID {
	p.mu.Lock()
	defer p.mu.Unlock()

	set := p.channels[ch]
	out := make([]domain.UserID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// RemoveEverywhere drops user from every channel in one pass and returns the
// ids of channels the user was actually present in, so the caller can notify
// their remaining members.
func (p *Presence) RemoveEverywhere(user domain.UserID) []domain.ChannelID {
	p.mu.Lock()
	defer p.mu.Unlock()

	var affected []domain.ChannelID
	for ch, set := range p.channels {
		if _, present := set[user]; !present {
			continue
		}
		delete(set, user)
		if len(set) == 0 {
			delete(p.channels, ch)
		}
		affected = append(affected, ch)
	}
	return affected
}

// ChannelCount reports how many channels currently have live members.
func (p *Presence) ChannelCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.channels)
}
