package payload

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/AlexZinkM/wallet-payload/internal/model"
)

// SupportedVersion is the highest wrapper version this module can decrypt
const SupportedVersion = 4

var (
	// ErrDecoding covers both invalid UTF-8 and malformed JSON
	ErrDecoding = errors.New("failed to decode wallet payload wrapper")

	ErrUnsupportedVersion = errors.New("unsupported wallet payload version")
)

// Decode decodes a wallet wrapper string into its envelope
func Decode(wrapper string) (*model.WalletPayloadWrapper, error) {
	if !utf8.ValidString(wrapper) {
		return nil, fmt.Errorf("%w: not valid UTF-8", ErrDecoding)
	}

	var w model.WalletPayloadWrapper
	if err := json.Unmarshal([]byte(wrapper), &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecoding, err)
	}
	if w.Payload == "" {
		return nil, fmt.Errorf("%w: missing payload", ErrDecoding)
	}
	return &w, nil
}

// Encode encodes the envelope back into a wrapper string
func Encode(w *model.WalletPayloadWrapper) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(w); err != nil {
		return "", fmt.Errorf("failed to encode wallet payload wrapper: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// ValidateVersion rejects wrappers newer than SupportedVersion
func ValidateVersion(w *model.WalletPayloadWrapper) error {
	if w.Version > SupportedVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, w.Version)
	}
	return nil
}

// Checksum is the hex SHA-256 of an encoded wrapper
func Checksum(encoded string) string {
	sum := sha256.Sum256([]byte(encoded))
	return hex.EncodeToString(sum[:])
}
