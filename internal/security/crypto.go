// Package security handles device secret encryption at rest and the
// HMAC-derived per-serial MQTT password, reimplemented in Go from the
// CSMS's original PBKDF2+Fernet/AES scheme.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 100000
	keyLen           = 32
	defaultSalt      = "ocpp_csms_salt"
)

// Cipher encrypts/decrypts device master secrets with a key derived from a
// master passphrase via PBKDF2-SHA256, then AES-256-GCM for the payload.
type Cipher struct {
	key []byte
}

// NewCipher derives an AES-256 key from masterKey. salt defaults to the
// repo's fixed salt when empty, matching the original's fallback.
func NewCipher(masterKey, salt string) *Cipher {
	if salt == "" {
		salt = defaultSalt
	}
	key := pbkdf2.Key([]byte(masterKey), []byte(salt), pbkdf2Iterations, keyLen, sha256.New)
	return &Cipher{key: key}
}

// Encrypt returns a base64-encoded nonce||ciphertext for storage in
// Device.EncryptedSecret.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(raw) < gcm.NonceSize() {
		return "", errors.New("security: ciphertext too short")
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// DerivePassword derives the 12-character MQTT password for serial from the
// device type's plaintext master secret via HMAC-SHA256, matching the
// original derive_password scheme.
func DerivePassword(masterSecret, serial string) string {
	mac := hmac.New(sha256.New, []byte(masterSecret))
	mac.Write([]byte(serial))
	sum := mac.Sum(nil)
	return base64.StdEncoding.EncodeToString(sum)[:12]
}
