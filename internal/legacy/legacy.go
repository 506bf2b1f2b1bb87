// Package legacy is the historical wallet payload decryption routine.
//
// It shares no code with internal/crypto: key stretching, block chaining and
// unpadding are implemented here on top of the bare AES block function, so a
// defect in one implementation shows up as a disagreement between the two.
package legacy

import (
	"crypto/aes"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/AlexZinkM/wallet-payload/internal/model"
)

const (
	ivLen  = 16
	keyLen = 32
)

var (
	ErrInvalidPayload = errors.New("legacy: invalid payload")
	ErrInvalidPadding = errors.New("legacy: invalid padding")
	ErrInvalidText    = errors.New("legacy: decrypted payload is not text")
	ErrInvalidRequest = errors.New("legacy: invalid iteration count")
)

// Decryptor decrypts CBC/ISO10126 payloads framed as base64(iv || ciphertext)
type Decryptor struct{}

// New creates a new Decryptor
func New() *Decryptor {
	return &Decryptor{}
}

// Decrypt decrypts pair.Data with pair.Key
func (d *Decryptor) Decrypt(pair model.KeyDataPair, iterations uint32) (string, error) {
	if iterations == 0 {
		return "", ErrInvalidRequest
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(pair.Data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(raw) < ivLen+aes.BlockSize || (len(raw)-ivLen)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: bad length %d", ErrInvalidPayload, len(raw))
	}

	iv := raw[:ivLen]
	body := raw[ivLen:]

	// The IV doubles as the salt
	key := deriveKey(pair.Key, iv, int(iterations))
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	// CBC: p[i] = D(c[i]) xor c[i-1], with c[-1] = iv
	out := make([]byte, len(body))
	prev := iv
	for off := 0; off < len(body); off += aes.BlockSize {
		cur := body[off : off+aes.BlockSize]
		block.Decrypt(out[off:off+aes.BlockSize], cur)
		for i := 0; i < aes.BlockSize; i++ {
			out[off+i] ^= prev[i]
		}
		prev = cur
	}
	defer clear(out)

	// ISO10126: only the trailing length byte is meaningful
	padLen := int(out[len(out)-1])
	if padLen < 1 || padLen > aes.BlockSize {
		return "", ErrInvalidPadding
	}
	text := out[:len(out)-padLen]

	if !utf8.Valid(text) {
		return "", ErrInvalidText
	}
	return string(text), nil
}

// deriveKey is PBKDF2 with HMAC-SHA1 producing a 256-bit key
func deriveKey(password, salt []byte, iterations int) []byte {
	prf := hmac.New(sha1.New, password)
	hashLen := prf.Size()
	blocks := (keyLen + hashLen - 1) / hashLen

	derived := make([]byte, 0, blocks*hashLen)
	counter := make([]byte, 4)
	for i := 1; i <= blocks; i++ {
		// U1 = PRF(password, salt || INT(i))
		binary.BigEndian.PutUint32(counter, uint32(i))
		prf.Reset()
		prf.Write(salt)
		prf.Write(counter)
		u := prf.Sum(nil)

		t := make([]byte, len(u))
		copy(t, u)

		// Un = PRF(password, Un-1), T = U1 xor ... xor Uc
		for n := 1; n < iterations; n++ {
			prf.Reset()
			prf.Write(u)
			u = prf.Sum(u[:0])
			for j := range t {
				t[j] ^= u[j]
			}
		}
		derived = append(derived, t...)
	}
	return derived[:keyLen]
}
