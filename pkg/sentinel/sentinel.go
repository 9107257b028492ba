package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so services can translate them into domain
// errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrExpired: token has expired
// - ErrUnavailable: backing store temporarily unreachable
// - ErrDecryptionFailed: blob cannot be decrypted (wrong passphrase or corruption)
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrExpired          = errors.New("expired")
	ErrUnavailable      = errors.New("unavailable")
	ErrDecryptionFailed = errors.New("decryption failed")
)
