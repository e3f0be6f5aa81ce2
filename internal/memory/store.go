package memory

import (
	"context"
	"log"
	"sync"
	"time"
)

// SessionStore owns every Conversation, keyed by conversation identity.
// Lookups for unknown identities mean "empty history", never an error.
type SessionStore struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	cap           int
	ttl           time.Duration
	archive       Archiver
	onSweep       func(removed int)
	onEvict       func(evicted int)
}

func NewSessionStore(cap int, ttl time.Duration, archive Archiver) *SessionStore {
	if cap <= 0 {
		cap = DefaultCap
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionStore{
		conversations: make(map[string]*Conversation),
		cap:           cap,
		ttl:           ttl,
		archive:       archive,
	}
}

// SetSweepHook registers a callback invoked after each expiry sweep.
func (s *SessionStore) SetSweepHook(hook func(removed int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSweep = hook
}

// SetEvictHook registers a callback invoked when a conversation evicts
// records to stay under its cap.
func (s *SessionStore) SetEvictHook(hook func(evicted int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = hook
}

// notifyEvict reads the current hook so conversations created before
// SetEvictHook still report evictions.
func (s *SessionStore) notifyEvict(evicted int) {
	s.mu.RLock()
	hook := s.onEvict
	s.mu.RUnlock()
	if hook != nil {
		hook(evicted)
	}
}

// GetOrCreate returns the conversation for identity, creating an empty one
// on first use. At most one Conversation ever exists per identity, also
// under concurrent first requests.
func (s *SessionStore) GetOrCreate(identity string) *Conversation {
	s.mu.RLock()
	conv, ok := s.conversations[identity]
	s.mu.RUnlock()
	if ok {
		return conv
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok := s.conversations[identity]; ok {
		return conv
	}
	conv = newConversation(s.cap, s.notifyEvict)
	s.conversations[identity] = conv
	return conv
}

// Record appends an exchange to the identity's conversation and mirrors it
// into the archive best-effort.
func (s *SessionStore) Record(ctx context.Context, identity, userInput, aiResponse string) {
	conv := s.GetOrCreate(identity)
	conv.Add(userInput, aiResponse)

	if s.archive == nil {
		return
	}
	go func() {
		archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.archive.SaveExchange(archiveCtx, Exchange{
			Identity:   identity,
			UserInput:  userInput,
			AIResponse: aiResponse,
		}); err != nil {
			log.Printf("memory archive write failed for %q: %v", identity, err)
		}
	}()
}

// Recent returns at most k most-recent records for identity.
func (s *SessionStore) Recent(identity string, k int) []Record {
	s.mu.RLock()
	conv, ok := s.conversations[identity]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	return conv.Recent(k)
}

// RenderContext renders the identity's recent exchanges for prompt use.
func (s *SessionStore) RenderContext(identity string) string {
	s.mu.RLock()
	conv, ok := s.conversations[identity]
	s.mu.RUnlock()
	if !ok {
		return ""
	}
	return conv.RenderContext()
}

// Touch refreshes the identity's last-activity time without recording.
func (s *SessionStore) Touch(identity string) {
	s.GetOrCreate(identity).touch(time.Now().UTC())
}

// Len reports the number of live conversations.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

// SweepExpired removes conversations idle longer than the TTL and returns
// how many were removed.
func (s *SessionStore) SweepExpired(now time.Time) int {
	s.mu.Lock()
	removed := 0
	for identity, conv := range s.conversations {
		if conv.idleSince(now) > s.ttl {
			delete(s.conversations, identity)
			removed++
		}
	}
	hook := s.onSweep
	s.mu.Unlock()

	if hook != nil && removed > 0 {
		hook(removed)
	}
	return removed
}

// StartJanitor runs the expiry sweep on a ticker until ctx is done.
func (s *SessionStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SweepExpired(time.Now().UTC())
			}
		}
	}()
}
