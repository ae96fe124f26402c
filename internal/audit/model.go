package audit

import (
	"context"
	"time"
)

type Kind string

const (
	KindLoginSuccess  Kind = "login.success"
	KindLoginFailure  Kind = "login.failure"
	KindTokenRejected Kind = "token.rejected"
	KindAccessDenied  Kind = "access.denied"
)

type Event struct {
	ID        int64     `json:"id"`
	RequestID string    `json:"request_id,omitempty"`
	Kind      Kind      `json:"kind"`
	Username  string    `json:"username,omitempty"`
	Path      string    `json:"path"`
	Outcome   int       `json:"outcome"`
	Reason    string    `json:"reason,omitempty"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

type Filter struct {
	Kind     Kind
	Username string
	Since    time.Time
	Limit    int
}

const (
	defaultLimit = 100
	maxLimit     = 500
)

func (f Filter) limit() int {
	if f.Limit <= 0 || f.Limit > maxLimit {
		return defaultLimit
	}
	return f.Limit
}

func (f Filter) matches(e *Event) bool {
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.Username != "" && e.Username != f.Username {
		return false
	}
	if !f.Since.IsZero() && e.CreatedAt.Before(f.Since) {
		return false
	}
	return true
}

type Recorder interface {
	Record(ctx context.Context, e *Event) error
	List(ctx context.Context, f Filter) ([]Event, error)
}
