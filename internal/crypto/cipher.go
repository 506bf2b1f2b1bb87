package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
	"unicode/utf8"
)

// Cipher performs single-shot AES encryption and decryption.
// A cipher context is built per call, so a Cipher is safe for concurrent use.
type Cipher struct {
	random io.Reader // source of ISO10126 padding bytes
}

// NewCipher creates a Cipher. A nil random uses crypto/rand.
func NewCipher(random io.Reader) *Cipher {
	if random == nil {
		random = rand.Reader
	}
	return &Cipher{random: random}
}

// Encrypt pads and encrypts plaintext with key and iv
func (c *Cipher) Encrypt(plaintext, key, iv []byte, opts Options) ([]byte, error) {
	block, err := newBlock(key, iv, opts)
	if err != nil {
		return nil, err
	}

	padded, err := pad(plaintext, opts.Padding, c.random)
	if err != nil {
		return nil, err
	}

	switch opts.BlockMode {
	case CBC:
		if len(padded)%aes.BlockSize != 0 {
			return nil, fmt.Errorf("%w: CBC input is not block aligned", ErrOperationFailed)
		}
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(padded, padded)
	case OFB:
		// OFB survives only for V1 wallet payloads
		cipher.NewOFB(block, iv).XORKeyStream(padded, padded) //nolint:staticcheck
	}

	return padded, nil
}

// Decrypt decrypts ciphertext with key and iv and strips the padding
func (c *Cipher) Decrypt(ciphertext, key, iv []byte, opts Options) ([]byte, error) {
	block, err := newBlock(key, iv, opts)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) == 0 {
		// Encrypt without padding maps empty input to empty output
		if opts.Padding == NoPadding {
			return []byte{}, nil
		}
		return nil, fmt.Errorf("%w: empty ciphertext", ErrOperationFailed)
	}

	plaintext := make([]byte, len(ciphertext))
	switch opts.BlockMode {
	case CBC:
		if len(ciphertext)%aes.BlockSize != 0 {
			return nil, fmt.Errorf("%w: ciphertext is not a multiple of the block size", ErrOperationFailed)
		}
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	case OFB:
		cipher.NewOFB(block, iv).XORKeyStream(plaintext, ciphertext) //nolint:staticcheck
	}

	out, err := unpad(plaintext, opts.Padding)
	if err != nil {
		clear(plaintext)
		return nil, err
	}
	return out, nil
}

// DecryptUTF8String decrypts and requires the result to be valid UTF-8 text
func (c *Cipher) DecryptUTF8String(ciphertext, key, iv []byte, opts Options) (string, error) {
	plaintext, err := c.Decrypt(ciphertext, key, iv, opts)
	if err != nil {
		return "", err
	}
	defer clear(plaintext)

	if !utf8.Valid(plaintext) {
		return "", ErrEncoding
	}
	return string(plaintext), nil
}

// newBlock validates the parameters and creates the AES block
func newBlock(key, iv []byte, opts Options) (cipher.Block, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("%w: invalid IV length %d, want %d", ErrConfiguration, len(iv), aes.BlockSize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return block, nil
}
