package token

import (
	"context"
	"time"
)

// DefaultTTL bounds idle time between privacy-space interactions. Each
// successful Refresh resets the window.
const DefaultTTL = 180 * time.Second

// Store manages the single live privacy-space access token per user. The
// token is an opaque capability proving recent passphrase verification; it
// carries no cryptographic material.
type Store interface {
	// Issue creates a fresh token for the user, unconditionally replacing
	// any prior token. Returns sentinel.ErrUnavailable (wrapped) when the
	// backing store cannot be reached.
	Issue(ctx context.Context, userID int64) (string, error)

	// Verify reports whether token is the user's current, unexpired token.
	// Absence and mismatch are both plain false, never an error.
	Verify(ctx context.Context, userID int64, token string) (bool, error)

	// Refresh resets the TTL if Verify would succeed. It never creates a
	// token.
	Refresh(ctx context.Context, userID int64, token string) (bool, error)

	// Revoke deletes the user's token. Idempotent.
	Revoke(ctx context.Context, userID int64) error
}
