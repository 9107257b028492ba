package store

import "context"

// CredentialStore persists the salted passphrase hash on the user record.
// The raw passphrase never reaches storage.
type CredentialStore interface {
	// GetPassphraseHash returns the stored hash, or "" when the user has not
	// set a passphrase yet. Unknown users wrap sentinel.ErrNotFound.
	GetPassphraseHash(ctx context.Context, userID int64) (string, error)

	// SetPassphraseHash overwrites the stored hash.
	SetPassphraseHash(ctx context.Context, userID int64, hash string) error
}
