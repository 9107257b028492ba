package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"deskvault/internal/privacy/cipher"
	"deskvault/internal/privacy/metrics"
	"deskvault/internal/privacy/store"
	"deskvault/internal/privacy/token"
	dErrors "deskvault/pkg/domain-errors"
	"deskvault/pkg/sentinel"
)

// MinPassphraseLength is the policy floor for privacy passphrases.
const MinPassphraseLength = 6

// Service gates privacy-space content behind two factors: a live access token
// proving recent passphrase verification, and the passphrase itself supplied
// on every read/write. The passphrase is the decryption key; neither it nor
// anything derived from it survives a call.
type Service struct {
	creds   store.CredentialStore
	tokens  token.Store
	metrics *metrics.Metrics
	ttl     time.Duration
}

// EnterResult is the outcome of a successful passphrase verification.
type EnterResult struct {
	Token     string
	ExpiresIn int
}

func New(creds store.CredentialStore, tokens token.Store, m *metrics.Metrics, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = token.DefaultTTL
	}
	return &Service{
		creds:   creds,
		tokens:  tokens,
		metrics: m,
		ttl:     ttl,
	}
}

// HasPassphrase reports whether the user has set a privacy passphrase.
func (s *Service) HasPassphrase(ctx context.Context, userID int64) (bool, error) {
	hash, err := s.creds.GetPassphraseHash(ctx, userID)
	if err != nil {
		return false, translateInfraErr(err)
	}
	return hash != "", nil
}

// SetPassphrase sets the passphrase on first use and rotates it afterwards.
// Rotation requires the old passphrase and revokes any outstanding access
// token, since it was minted under the previous trust boundary.
func (s *Service) SetPassphrase(ctx context.Context, userID int64, newPassphrase, oldPassphrase string) error {
	if len(newPassphrase) < MinPassphraseLength {
		return dErrors.Newf(dErrors.CodeBadRequest, "passphrase must be at least %d characters", MinPassphraseLength)
	}

	existing, err := s.creds.GetPassphraseHash(ctx, userID)
	if err != nil {
		return translateInfraErr(err)
	}

	if existing != "" {
		if oldPassphrase == "" {
			return dErrors.New(dErrors.CodeBadRequest, "old passphrase is required")
		}
		if bcrypt.CompareHashAndPassword([]byte(existing), []byte(oldPassphrase)) != nil {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid passphrase")
		}
		if err := s.tokens.Revoke(ctx, userID); err != nil {
			return translateInfraErr(err)
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassphrase), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return dErrors.New(dErrors.CodeBadRequest, "passphrase is too long")
		}
		return fmt.Errorf("hash passphrase: %w", err)
	}

	if err := s.creds.SetPassphraseHash(ctx, userID, string(hashed)); err != nil {
		return translateInfraErr(err)
	}
	s.metrics.PassphraseRotations.Inc()
	return nil
}

// Enter verifies the passphrase and issues a fresh access token. A wrong
// passphrase gets the same response whether or not one was ever set; "not
// set yet" is a distinct, earlier-checked precondition because first-time
// setup is a legitimate flow, not a leak.
func (s *Service) Enter(ctx context.Context, userID int64, passphrase string) (*EnterResult, error) {
	hash, err := s.creds.GetPassphraseHash(ctx, userID)
	if err != nil {
		return nil, translateInfraErr(err)
	}
	if hash == "" {
		return nil, dErrors.New(dErrors.CodePreconditionReq, "privacy passphrase not set")
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(passphrase)) != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid passphrase")
	}

	tok, err := s.tokens.Issue(ctx, userID)
	if err != nil {
		return nil, translateInfraErr(err)
	}
	s.metrics.TokensIssued.Inc()

	return &EnterResult{Token: tok, ExpiresIn: int(s.ttl.Seconds())}, nil
}

// Check reports token validity without side effects.
func (s *Service) Check(ctx context.Context, userID int64, tok string) (bool, error) {
	ok, err := s.tokens.Verify(ctx, userID, tok)
	if err != nil {
		return false, translateInfraErr(err)
	}
	return ok, nil
}

// Refresh extends the token's TTL. Returns the new expiry window in seconds.
func (s *Service) Refresh(ctx context.Context, userID int64, tok string) (int, error) {
	ok, err := s.tokens.Refresh(ctx, userID, tok)
	if err != nil {
		return 0, translateInfraErr(err)
	}
	if !ok {
		s.metrics.TokenVerifyFailures.Inc()
		return 0, dErrors.New(dErrors.CodeUnauthorized, "token invalid or expired")
	}
	return int(s.ttl.Seconds()), nil
}

// Leave revokes the user's token. Idempotent.
func (s *Service) Leave(ctx context.Context, userID int64) error {
	if err := s.tokens.Revoke(ctx, userID); err != nil {
		return translateInfraErr(err)
	}
	return nil
}

// ReadProtected decrypts a privacy-space blob. The token check runs before
// any key derivation so unauthenticated callers never reach the expensive
// KDF; a decryption failure is reported distinctly from an auth failure.
func (s *Service) ReadProtected(ctx context.Context, userID int64, tok, passphrase, blob string) (string, error) {
	if err := s.requireToken(ctx, userID, tok); err != nil {
		return "", err
	}

	plaintext, err := cipher.Decrypt(blob, passphrase)
	if err != nil {
		if errors.Is(err, sentinel.ErrDecryptionFailed) {
			s.metrics.DecryptFailures.Inc()
			return "", dErrors.New(dErrors.CodeDecryptionFailed, "content could not be decrypted")
		}
		return "", err
	}
	return plaintext, nil
}

// WriteProtected encrypts plaintext for storage in the privacy space.
func (s *Service) WriteProtected(ctx context.Context, userID int64, tok, passphrase, plaintext string) (string, error) {
	if err := s.requireToken(ctx, userID, tok); err != nil {
		return "", err
	}
	return cipher.Encrypt(plaintext, passphrase)
}

func (s *Service) requireToken(ctx context.Context, userID int64, tok string) error {
	ok, err := s.tokens.Verify(ctx, userID, tok)
	if err != nil {
		return translateInfraErr(err)
	}
	if !ok {
		s.metrics.TokenVerifyFailures.Inc()
		return dErrors.New(dErrors.CodeUnauthorized, "privacy access token invalid or expired")
	}
	return nil
}

func translateInfraErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(dErrors.CodeUnavailable, "backing store unavailable", err)
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(dErrors.CodeNotFound, "user not found", err)
	default:
		return err
	}
}
