package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"
)

func checkKey(key string) error {
	switch len(key) {
	case 16, 24, 32:
		return nil
	}
	return fmt.Errorf("invalid key length: %d (must be 16/24/32)", len(key))
}

// EncryptID hides sequential job ids behind AES-CFB with a random IV.
func EncryptID(id uint, key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}

	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return "", err
	}

	plaintext := []byte(strconv.FormatUint(uint64(id), 10))
	out := make([]byte, aes.BlockSize+len(plaintext))

	iv := out[:aes.BlockSize]
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to read random iv: %w", err)
	}

	cipher.NewCFBEncrypter(block, iv).XORKeyStream(out[aes.BlockSize:], plaintext)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// DecryptID reverses EncryptID. Plain numeric ids are accepted as well so old
// links keep working.
func DecryptID(enc string, key string) (uint, error) {
	if enc == "" {
		return 0, fmt.Errorf("empty encrypted id")
	}
	if n, err := strconv.ParseUint(enc, 10, 64); err == nil {
		return uint(n), nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(enc)
	if err != nil {
		return 0, fmt.Errorf("decode base64 failed: %w", err)
	}
	if len(raw) <= aes.BlockSize {
		return 0, fmt.Errorf("ciphertext too short: len=%d", len(raw))
	}
	if err := checkKey(key); err != nil {
		return 0, err
	}

	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return 0, err
	}

	body := raw[aes.BlockSize:]
	plaintext := make([]byte, len(body))
	cipher.NewCFBDecrypter(block, raw[:aes.BlockSize]).XORKeyStream(plaintext, body)

	n, err := strconv.ParseUint(string(plaintext), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse id failed: %w", err)
	}
	return uint(n), nil
}

// PublicID encrypts id when a key is configured and falls back to the plain
// number otherwise.
func PublicID(id uint, key string) string {
	if key == "" {
		return strconv.FormatUint(uint64(id), 10)
	}
	enc, err := EncryptID(id, key)
	if err != nil {
		return strconv.FormatUint(uint64(id), 10)
	}
	return enc
}
