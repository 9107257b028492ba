package cipher

import (
	"crypto/aes"
	stdcipher "crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"deskvault/pkg/sentinel"
)

// Passphrase-bound AEAD for privacy-space content. Each call derives a fresh
// key from the passphrase and a random salt, so identical plaintexts never
// produce identical blobs and no server-side key material exists.
//
// Blob layout (before base64): salt(16) || nonce(12) || tag(16) || ciphertext.
// The tag precedes the ciphertext on the wire; Go's GCM appends it, so seal
// and open re-slice around that.
const (
	saltSize  = 16
	nonceSize = 12
	tagSize   = 16
	headerLen = saltSize + nonceSize + tagSize

	keyLen     = 32
	iterations = 100_000
)

// Encrypt encrypts plaintext under passphrase with AES-256-GCM. The empty
// string passes through unchanged: absence is not worth encrypting.
func Encrypt(plaintext, passphrase string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	gcm, err := newAEAD(passphrase, salt)
	if err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	blob := make([]byte, 0, headerLen+len(ct))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, tag...)
	blob = append(blob, ct...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt reverses Encrypt. Any malformed blob, wrong passphrase, or
// corruption yields sentinel.ErrDecryptionFailed; partial plaintext is never
// returned.
func Decrypt(blob, passphrase string) (string, error) {
	if blob == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: invalid encoding", sentinel.ErrDecryptionFailed)
	}
	if len(raw) < headerLen {
		return "", fmt.Errorf("%w: blob too short", sentinel.ErrDecryptionFailed)
	}

	salt := raw[:saltSize]
	nonce := raw[saltSize : saltSize+nonceSize]
	tag := raw[saltSize+nonceSize : headerLen]
	ct := raw[headerLen:]

	gcm, err := newAEAD(passphrase, salt)
	if err != nil {
		return "", err
	}

	sealed := make([]byte, 0, len(ct)+tagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s", sentinel.ErrDecryptionFailed, "authentication failed")
	}
	return string(plaintext), nil
}

func newAEAD(passphrase string, salt []byte) (stdcipher.AEAD, error) {
	key := pbkdf2.Key([]byte(passphrase), salt, iterations, keyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := stdcipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return gcm, nil
}
