package events

import (
	"context"
	"sync"
	"time"
)

const (
	TopicUserEvents = "user_events"
	TopicPostEvents = "post_events"
)

const (
	UserRegistered  = "user_registered"
	UserLoggedIn    = "user_logged_in"
	UserLoggedOut   = "user_logged_out"
	UserUpdated     = "user_updated"
	UserDeleted     = "user_deleted"
	UserRoleChanged = "user_role_changed"
	PostCreated     = "post_created"
	PostUpdated     = "post_updated"
	PostDeleted     = "post_deleted"
)

type UserEvent struct {
	Type     string    `json:"type"`
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	Role     string    `json:"role,omitempty"`
	At       time.Time `json:"at"`
}

type PostEvent struct {
	Type    string    `json:"type"`
	PostID  string    `json:"post_id"`
	OwnerID string    `json:"owner_id"`
	Title   string    `json:"title,omitempty"`
	At      time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
	Close() error
}

type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) error { return nil }
func (Nop) Close() error                                       { return nil }

type Published struct {
	Topic string
	Key   string
	Event any
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Published
}

func (r *Recorder) Publish(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Published{Topic: topic, Key: key, Event: event})
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Published, len(r.events))
	copy(out, r.events)
	return out
}

// Types lists the "type" of every recorded user or post event, in publish order.
func (r *Recorder) Types() []string {
	var out []string
	for _, p := range r.Events() {
		switch e := p.Event.(type) {
		case UserEvent:
			out = append(out, e.Type)
		case PostEvent:
			out = append(out, e.Type)
		}
	}
	return out
}
