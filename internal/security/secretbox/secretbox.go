// Package secretbox cifra valores de configuración sensibles (DSN, claves,
// passwords SMTP) con AES-256-GCM bajo una clave maestra.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// Prefix marca un valor de config cifrado: "enc:<nonce>|<ciphertext>".
	Prefix = "enc:"

	KeyLen    = 32 // AES-256
	nonceSize = 12
	sep       = "|"
)

var (
	ErrBadKey    = fmt.Errorf("secretbox: master key must decode to %d bytes", KeyLen)
	ErrMalformed = errors.New("secretbox: expected base64(nonce)|base64(ciphertext)")
	ErrNoKey     = errors.New("secretbox: encrypted value found but no master key configured")
)

// Box sella y abre valores con una clave fija.
type Box struct {
	aead cipher.AEAD
}

// New acepta la clave en base64 (std o url, con o sin padding) o hex.
func New(key string) (*Box, error) {
	k, err := decodeKey(key)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("secretbox: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("secretbox: %w", err)
	}
	return &Box{aead: aead}, nil
}

func decodeKey(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if b, err := base64.StdEncoding.DecodeString(key); err == nil && len(b) == KeyLen {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(key); err == nil && len(b) == KeyLen {
		return b, nil
	}
	if b, err := base64.RawURLEncoding.DecodeString(key); err == nil && len(b) == KeyLen {
		return b, nil
	}
	if len(key) == 2*KeyLen {
		if b, err := hex.DecodeString(key); err == nil {
			return b, nil
		}
	}
	return nil, ErrBadKey
}

// Seal cifra plain y devuelve el valor ya prefijado con Prefix.
func (b *Box) Seal(plain string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secretbox: nonce: %w", err)
	}
	ct := b.aead.Seal(nil, nonce, []byte(plain), nil)
	return Prefix + base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Open descifra un valor producido por Seal (con o sin Prefix).
func (b *Box) Open(sealed string) (string, error) {
	parts := strings.Split(strings.TrimPrefix(strings.TrimSpace(sealed), Prefix), sep)
	if len(parts) != 2 {
		return "", ErrMalformed
	}
	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSize {
		return "", ErrMalformed
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", ErrMalformed
	}
	pt, err := b.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("secretbox: decrypt: %w", err)
	}
	return string(pt), nil
}

// IsSealed indica si v lleva el prefijo de valor cifrado.
func IsSealed(v string) bool {
	return strings.HasPrefix(strings.TrimSpace(v), Prefix)
}

// Reveal abre *v in place si está cifrado. b puede ser nil mientras ningún
// valor esté cifrado.
func Reveal(b *Box, v *string) error {
	if !IsSealed(*v) {
		return nil
	}
	if b == nil {
		return ErrNoKey
	}
	pt, err := b.Open(*v)
	if err != nil {
		return err
	}
	*v = pt
	return nil
}
