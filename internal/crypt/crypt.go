// Package crypt implements the whole-file encryption container of
// encrypted KeyNote files: [IV][AES-256-CBC ciphertext].
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/starford/knt/internal/apperr"
)

// Key derivation parameters. The salt is fixed for every file.
const (
	Salt       = "keynote"
	Iterations = 10000
	KeySize    = 32
	Method     = "AES-256-CBC"
)

// DeriveKey turns a passphrase into an AES-256 key.
func DeriveKey(passphrase string) []byte {
	return pbkdf2.Key([]byte(passphrase), []byte(Salt), Iterations, KeySize, sha256.New)
}

// Encrypt seals plain under passphrase with a fresh random IV and returns
// IV followed by the ciphertext.
func Encrypt(plain []byte, passphrase string) ([]byte, error) {
	return encrypt(plain, passphrase, rand.Reader)
}

func encrypt(plain []byte, passphrase string, random io.Reader) ([]byte, error) {
	if passphrase == "" {
		return nil, apperr.ErrPassphraseRequired
	}
	block, err := aes.NewCipher(DeriveKey(passphrase))
	if err != nil {
		return nil, fmt.Errorf("crypt: new cipher: %w", err)
	}

	padded := Pad(plain, aes.BlockSize)
	out := make([]byte, aes.BlockSize+len(padded))
	iv := out[:aes.BlockSize]
	if _, err := io.ReadFull(random, iv); err != nil {
		return nil, fmt.Errorf("crypt: generate iv: %w", err)
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[aes.BlockSize:], padded)
	return out, nil
}

// Decrypt opens a payload produced by Encrypt. Every failure, including a
// wrong passphrase detected through the padding, is ErrDecryptionFailed.
func Decrypt(payload []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, apperr.ErrPassphraseRequired
	}
	if len(payload) < 2*aes.BlockSize {
		return nil, fmt.Errorf("%w: payload of %d bytes is too short", apperr.ErrDecryptionFailed, len(payload))
	}
	iv, ct := payload[:aes.BlockSize], payload[aes.BlockSize:]
	if len(ct)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext is not a multiple of the block size", apperr.ErrDecryptionFailed)
	}

	block, err := aes.NewCipher(DeriveKey(passphrase))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrDecryptionFailed, err)
	}
	plain := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ct)

	out, err := Unpad(plain, aes.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrDecryptionFailed, err)
	}
	return out, nil
}
