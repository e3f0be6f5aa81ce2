package memory

import (
	"strings"
	"sync"
	"time"
)

// DefaultCap bounds the per-identity conversation history.
const DefaultCap = 10

// contextWindow is how many recent exchanges are rendered into prompts.
const contextWindow = 3

// Record is one immutable (input, response) exchange.
type Record struct {
	Timestamp  time.Time `json:"timestamp"`
	UserInput  string    `json:"user_input"`
	AIResponse string    `json:"ai_response"`
}

// Conversation owns the bounded ordered history for one identity.
// Insertion order is chronological order; once the cap is exceeded the
// oldest record is evicted, so len(records) <= cap always holds.
type Conversation struct {
	mu         sync.Mutex
	cap        int
	records    []Record
	lastActive time.Time
	onEvict    func(evicted int)
}

func newConversation(cap int, onEvict func(evicted int)) *Conversation {
	if cap <= 0 {
		cap = DefaultCap
	}
	return &Conversation{cap: cap, lastActive: time.Now().UTC(), onEvict: onEvict}
}

// Add appends an exchange, enforcing the FIFO cap.
func (c *Conversation) Add(userInput, aiResponse string) {
	c.mu.Lock()
	c.records = append(c.records, Record{
		Timestamp:  time.Now().UTC(),
		UserInput:  userInput,
		AIResponse: aiResponse,
	})
	evicted := len(c.records) - c.cap
	if evicted > 0 {
		c.records = c.records[evicted:]
	}
	c.lastActive = time.Now().UTC()
	hook := c.onEvict
	c.mu.Unlock()

	if hook != nil && evicted > 0 {
		hook(evicted)
	}
}

// Recent returns at most k most-recent records in chronological order.
func (c *Conversation) Recent(k int) []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.records) == 0 {
		return nil
	}
	if k <= 0 || k > len(c.records) {
		k = len(c.records)
	}
	out := make([]Record, k)
	copy(out, c.records[len(c.records)-k:])
	return out
}

// Len returns the current record count.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// RenderContext renders the most-recent exchanges as alternating
// "User:" / "AI:" lines. The format is injected verbatim into prompts, so
// it is part of the prompt contract, not just an internal convenience.
func (c *Conversation) RenderContext() string {
	recent := c.Recent(contextWindow)
	if len(recent) == 0 {
		return ""
	}
	lines := make([]string, 0, len(recent)*2)
	for _, r := range recent {
		lines = append(lines, "User: "+r.UserInput, "AI: "+r.AIResponse)
	}
	return strings.Join(lines, "\n")
}

func (c *Conversation) touch(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = now
}

func (c *Conversation) idleSince(now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return now.Sub(c.lastActive)
}
