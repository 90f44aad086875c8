// Package notifications keeps the process-wide queue of transient UI notices.
// Notices are never persisted; each one self-expires after its duration unless
// the duration is zero or negative, which leaves it up for manual dismissal.
package notifications

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type is the display category of a notice.
type Type string

const (
	Success Type = "success"
	Error   Type = "error"
	Warning Type = "warning"
	Info    Type = "info"
)

// Default durations per category, matching the console's display conventions.
const (
	SuccessDuration = 5 * time.Second
	ErrorDuration   = 7 * time.Second
	WarningDuration = 6 * time.Second
	InfoDuration    = 4 * time.Second
)

// Action is an optional follow-up attached to a notice.
type Action struct {
	Label    string
	Callback func()
}

// Notice is one transient message.
type Notice struct {
	ID        string
	Title     string
	Message   string
	Type      Type
	Duration  time.Duration
	Action    *Action
	Timestamp time.Time
}

// Center owns the display queue.
type Center struct {
	mu      sync.Mutex
	notices []Notice
	timers  map[string]*time.Timer
}

// NewCenter returns an empty queue.
func NewCenter() *Center {
	return &Center{timers: make(map[string]*time.Timer)}
}

// Add appends a notice and returns its identifier. When duration is positive
// the notice is removed automatically after it elapses; the expiry timer is
// armed only once the notice is in the queue, so removal can never precede the
// add no matter how small the duration.
func (c *Center) Add(title, message string, typ Type, duration time.Duration, action *Action) string {
	id := uuid.NewString()
	notice := Notice{
		ID:        id,
		Title:     title,
		Message:   message,
		Type:      typ,
		Duration:  duration,
		Action:    action,
		Timestamp: time.Now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, notice)
	if duration > 0 {
		c.timers[id] = time.AfterFunc(duration, func() {
			c.Remove(id)
		})
	}
	return id
}

// Remove dismisses a notice. Unknown ids are ignored.
func (c *Center) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if timer, ok := c.timers[id]; ok {
		timer.Stop()
		delete(c.timers, id)
	}
	for i, notice := range c.notices {
		if notice.ID == id {
			c.notices = append(c.notices[:i], c.notices[i+1:]...)
			return
		}
	}
}

// ClearAll drops every notice and cancels pending expirations.
func (c *Center) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, timer := range c.timers {
		timer.Stop()
		delete(c.timers, id)
	}
	c.notices = nil
}

// List snapshots the queue in arrival order.
func (c *Center) List() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.notices))
	copy(out, c.notices)
	return out
}

// Convenience constructors with the default per-category durations.

func (c *Center) Success(title, message string) string {
	return c.Add(title, message, Success, SuccessDuration, nil)
}

func (c *Center) Error(title, message string) string {
	return c.Add(title, message, Error, ErrorDuration, nil)
}

func (c *Center) Warning(title, message string) string {
	return c.Add(title, message, Warning, WarningDuration, nil)
}

func (c *Center) Info(title, message string) string {
	return c.Add(title, message, Info, InfoDuration, nil)
}
