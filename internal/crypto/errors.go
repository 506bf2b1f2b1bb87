package crypto

import (
	"errors"
)

// Cipher engine errors
var (
	// ErrConfiguration is returned when a cipher cannot be constructed:
	// bad key or IV length, unknown block mode or padding, bad iteration count.
	ErrConfiguration = errors.New("cipher configuration error")

	// ErrOperationFailed is returned when the cipher runs but the result is
	// rejected, e.g. a padding mismatch caused by a wrong key.
	ErrOperationFailed = errors.New("cipher operation failed")

	// ErrEncoding is returned when decrypted bytes are not valid UTF-8.
	ErrEncoding = errors.New("decrypted data is not valid UTF-8")
)

// Payload cryptor errors
var (
	ErrDecodingFailed      = errors.New("payload decoding failed")
	ErrKeyDerivationFailed = errors.New("key derivation failed")
	ErrEncryptionFailed    = errors.New("encryption failed")
	ErrDecryptionFailed    = errors.New("decryption failed")
)

// IsConfigurationError checks if error is a cipher configuration error
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsOperationError checks if error is a cipher operation error
func IsOperationError(err error) bool {
	return errors.Is(err, ErrOperationFailed)
}
