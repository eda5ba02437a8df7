package session

import (
	"context"
	"errors"
)

var ErrAttributeNotFound = errors.New("session: attribute not found")

// Store holds named attributes scoped to one user session. Attributes live at
// most as long as the session; expiry removes everything the session held.
type Store interface {
	Get(ctx context.Context, sessionID, name string) (any, error)
	Set(ctx context.Context, sessionID, name string, value any) error
	Remove(ctx context.Context, sessionID, name string) error
}
