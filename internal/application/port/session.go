package port

import (
	"context"
	"errors"
	"time"

	"github.com/garyjia/billed/internal/domain/entity"
)

// ErrSessionNotFound is returned when no session exists for an id
var ErrSessionNotFound = errors.New("session not found")

// SessionCookie is the cookie carrying the session id between the API and its clients
const SessionCookie = "billed_session"

// SessionStore persists logged-in identities by session id
type SessionStore interface {
	Get(ctx context.Context, id string) (*entity.Session, error)
	Put(ctx context.Context, id string, session *entity.Session) error
	Delete(ctx context.Context, id string) error
}

// SessionPurger drops the sessions opened before a cutoff
type SessionPurger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int, error)
}
