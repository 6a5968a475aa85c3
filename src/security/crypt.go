package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// EncryptString encrypts a credential with AES-GCM under the configured key
// and returns it base64-encoded with the nonce prepended. When no key is
// configured the value passes through unchanged.
func EncryptString(plaintext string) (string, error) {
	key, err := loadKey()
	if err != nil {
		return "", err
	}
	if key == nil || plaintext == "" {
		return plaintext, nil
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("new gcm: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString reverses EncryptString. Values that do not decode with the
// configured key are returned unchanged, so rows written before a key was
// configured keep working.
func DecryptString(stored string) (string, error) {
	key, err := loadKey()
	if err != nil {
		return "", err
	}
	if key == nil || stored == "" {
		return stored, nil
	}

	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return stored, nil
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("new gcm: %w", err)
	}
	if len(raw) < gcm.NonceSize() {
		return stored, nil
	}

	plaintext, err := gcm.Open(nil, raw[:gcm.NonceSize()], raw[gcm.NonceSize():], nil)
	if err != nil {
		return stored, nil
	}
	return string(plaintext), nil
}

func loadKey() ([]byte, error) {
	config := GetConfig()
	if config.ExchangeCRKey == "" {
		return nil, nil
	}

	key, err := base64.StdEncoding.DecodeString(config.ExchangeCRKey)
	if err != nil {
		return nil, fmt.Errorf("decode EXCHANGE_CREDENTIALS_KEY: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("EXCHANGE_CREDENTIALS_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
