package event

import "time"

type Type string

const (
	TypeAccountRegistered  Type = "account.registered"
	TypeAccountLoggedIn    Type = "account.logged_in"
	TypeAccountLoginFailed Type = "account.login_failed"
)

type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	ActorID   string    `json:"actor_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // channel and unsubscribe func
}
