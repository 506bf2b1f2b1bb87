package crypto

import (
	"crypto/aes"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/AlexZinkM/wallet-payload/internal/model"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// AutoPairIterations is used for QR pairing payloads
	AutoPairIterations uint32 = 10

	// PinLoginIterations is used when the key is already a 256-bit derived key
	PinLoginIterations uint32 = 1

	saltLen   = aes.BlockSize // the IV doubles as the PBKDF2 salt
	keyLenBit = 256
)

// PayloadCryptor encrypts and decrypts wallet payload strings.
// Ciphertexts are framed as base64(iv || ciphertext).
type PayloadCryptor struct {
	cipher *Cipher
	random io.Reader // IV source
}

// PayloadCryptorOption configures a PayloadCryptor
type PayloadCryptorOption func(*PayloadCryptor)

// WithRandom sets the source used for IVs and padding bytes
func WithRandom(r io.Reader) PayloadCryptorOption {
	return func(p *PayloadCryptor) {
		p.random = r
		p.cipher = NewCipher(r)
	}
}

// NewPayloadCryptor creates a new PayloadCryptor
func NewPayloadCryptor(opts ...PayloadCryptorOption) *PayloadCryptor {
	p := &PayloadCryptor{
		cipher: NewCipher(rand.Reader),
		random: rand.Reader,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Decrypt decrypts pair.Data (base64) with pair.Key using CBC/ISO10126
func (p *PayloadCryptor) Decrypt(pair model.KeyDataPair, iterations uint32) (string, error) {
	return p.DecryptWithOptions(pair, iterations, DefaultOptions)
}

// DecryptWithOptions decrypts pair.Data (base64) with pair.Key using opts
func (p *PayloadCryptor) DecryptWithOptions(pair model.KeyDataPair, iterations uint32, opts Options) (string, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(pair.Data)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecodingFailed, err)
	}
	if len(data) < saltLen {
		return "", fmt.Errorf("%w: payload shorter than IV", ErrDecodingFailed)
	}

	iv := data[:saltLen]
	ciphertext := data[saltLen:]

	key, err := StretchKey(pair.Key, iv, iterations)
	if err != nil {
		return "", err
	}
	defer clear(key)

	plaintext, err := p.cipher.DecryptUTF8String(ciphertext, key, iv, opts)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// Encrypt encrypts pair.Data (UTF-8 text) with pair.Key under a fresh IV
func (p *PayloadCryptor) Encrypt(pair model.KeyDataPair, iterations uint32) (string, error) {
	iv := make([]byte, saltLen)
	if _, err := io.ReadFull(p.random, iv); err != nil {
		return "", fmt.Errorf("%w: failed to generate IV: %w", ErrEncryptionFailed, err)
	}
	return p.EncryptWithIV(pair, iterations, iv, DefaultOptions)
}

// EncryptWithIV encrypts pair.Data with an explicit IV and options
func (p *PayloadCryptor) EncryptWithIV(pair model.KeyDataPair, iterations uint32, iv []byte, opts Options) (string, error) {
	if len(iv) != saltLen {
		return "", fmt.Errorf("%w: invalid IV length %d", ErrConfiguration, len(iv))
	}

	key, err := StretchKey(pair.Key, iv, iterations)
	if err != nil {
		return "", err
	}
	defer clear(key)

	ciphertext, err := p.cipher.Encrypt(pair.Data, key, iv, opts)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncryptionFailed, err)
	}

	framed := make([]byte, 0, len(iv)+len(ciphertext))
	framed = append(framed, iv...)
	framed = append(framed, ciphertext...)
	return base64.StdEncoding.EncodeToString(framed), nil
}

// StretchKey derives a 256-bit key with PBKDF2-HMAC-SHA1
func StretchKey(password, salt []byte, iterations uint32) ([]byte, error) {
	if iterations == 0 {
		return nil, fmt.Errorf("%w: %w: iteration count must be positive", ErrKeyDerivationFailed, ErrConfiguration)
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("%w: empty salt", ErrKeyDerivationFailed)
	}
	return pbkdf2.Key(password, salt, int(iterations), keyLenBit/8, sha1.New), nil
}
