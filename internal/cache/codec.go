package cache

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
	"golang.org/x/crypto/chacha20poly1305"

	"go-cache-interceptor/internal/models"
)

// ErrNoEncryptionKey is returned when decoding an encrypted entry without a key
var ErrNoEncryptionKey = errors.New("no encryption key configured")

// Codec applies the compress and encrypt directives to stored payloads
type Codec struct {
	aead   cipher.AEAD
	logger *zap.Logger
}

// NewCodec creates a codec. A nil key disables encryption.
func NewCodec(key []byte, logger *zap.Logger) (*Codec, error) {
	c := &Codec{logger: logger}
	if key == nil {
		return c, nil
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	c.aead = aead
	return c, nil
}

// CanEncrypt reports whether a key is configured
func (c *Codec) CanEncrypt() bool {
	return c.aead != nil
}

// Encode returns the stored form of data and the transforms actually applied.
// Encryption requested without a key stores the payload unencrypted.
func (c *Codec) Encode(data []byte, encrypt, compress bool) (payload []byte, encrypted, compressed bool, err error) {
	payload = data

	if compress {
		payload, err = gzipBytes(payload)
		if err != nil {
			return nil, false, false, fmt.Errorf("failed to compress payload: %w", err)
		}
		compressed = true
	}

	if encrypt {
		if c.aead == nil {
			c.logger.Warn("Encryption requested but no key is configured, storing unencrypted")
		} else {
			nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(payload)+c.aead.Overhead())
			if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
				return nil, false, false, fmt.Errorf("failed to generate nonce: %w", err)
			}
			payload = c.aead.Seal(nonce, nonce, payload, nil)
			encrypted = true
		}
	}

	return payload, encrypted, compressed, nil
}

// Decode reverses Encode for a stored entry
func (c *Codec) Decode(entry models.CacheEntry) ([]byte, error) {
	payload := entry.Data

	if entry.Encrypted {
		if c.aead == nil {
			return nil, ErrNoEncryptionKey
		}
		if len(payload) < c.aead.NonceSize() {
			return nil, errors.New("encrypted payload too short")
		}
		nonce, sealed := payload[:c.aead.NonceSize()], payload[c.aead.NonceSize():]
		plain, err := c.aead.Open(nil, nonce, sealed, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt payload: %w", err)
		}
		payload = plain
	}

	if entry.Compressed {
		plain, err := gunzipBytes(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress payload: %w", err)
		}
		payload = plain
	}

	return payload, nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzipBytes(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return io.ReadAll(r)
}
