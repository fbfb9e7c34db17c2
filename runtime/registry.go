// Package runtime hosts the conversational engine: the per-conversation
// session registry, the dialogue state machines, and the broadcast
// dispatcher. It orchestrates the flows without containing storage logic.
package runtime

import (
	"sync"
	"time"

	"fences-bot/domain"
)

// Registry keeps the ephemeral dialogue session of every conversation.
// Sessions are created on first interaction and evicted either
// explicitly (flow completion) or by TTL sweep for abandoned ones.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
}

// Acquire returns the session for the conversation, creating an idle
// one on first contact. The caller is the only writer for this
// conversation: the transport delivers one event at a time per
// conversation, so no per-session lock is needed.
func (r *Registry) Acquire(conversationID, username string) *domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[conversationID]
	if !ok {
		session = &domain.Session{
			ConversationID: conversationID,
			Username:       username,
			State:          domain.StateIdle,
		}
		r.sessions[conversationID] = session
	}
	session.TouchedAt = r.now()
	return session
}

// Drop removes a conversation's session entirely.
func (r *Registry) Drop(conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, conversationID)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// SweepIdle evicts sessions untouched for longer than ttl and returns
// how many were removed. Abandoned conversations never receive another
// event, so this is the only way their scratch state gets reclaimed.
func (r *Registry) SweepIdle(ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-ttl)
	evicted := 0
	for id, session := range r.sessions {
		if session.TouchedAt.Before(cutoff) {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}
