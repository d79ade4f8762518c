package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// Codec translates between the stored and plaintext form of a secret value.
type Codec interface {
	Encode(plaintext string) (string, error)
	Decode(encoded string) (string, error)
}

// PassthroughCodec stores values as-is.
type PassthroughCodec struct{}

func (PassthroughCodec) Encode(plaintext string) (string, error) {
	return plaintext, nil
}

func (PassthroughCodec) Decode(encoded string) (string, error) {
	return encoded, nil
}

const nonceSize = 12

// AESCodec encrypts values with AES-GCM before they reach the store. The
// stored form is base64(nonce || ciphertext).
type AESCodec struct {
	aead cipher.AEAD
}

// NewAESCodec builds a codec from a raw AES key (16, 24 or 32 bytes).
func NewAESCodec(key []byte) (*AESCodec, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESCodec{aead: aead}, nil
}

func (c *AESCodec) Encode(plaintext string) (string, error) {
	// Never use more than 2^32 random nonces with a given key because of
	// the risk of a repeat.
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *AESCodec) Decode(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	if len(sealed) < nonceSize {
		return "", errors.New("ciphertext is too short")
	}
	plaintext, err := c.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
