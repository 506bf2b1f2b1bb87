package wallet

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/AlexZinkM/wallet-payload/internal/crypto"
	"github.com/AlexZinkM/wallet-payload/internal/model"

	"github.com/skip2/go-qrcode"
)

const (
	pairingVersion = "1"
	pairingSep     = "|"

	// DefaultQRSize is the PNG edge length in pixels
	DefaultQRSize = 256
)

// ErrInvalidPairingCode is returned by ParsePairingCode on malformed input
var ErrInvalidPairingCode = errors.New("invalid pairing code")

// PairingData is the content of a decoded pairing code
type PairingData struct {
	GUID      string
	SharedKey string
	Password  []byte
}

// PairingCode builds the pairing string "1|guid|ciphertext". The ciphertext
// holds "sharedKey|hex(password)" encrypted with pairingKey.
func (w *Wallet) PairingCode(ctx context.Context, pairingKey string) (string, error) {
	if pairingKey == "" {
		return "", fmt.Errorf("%w: empty pairing key", ErrInvalidPairingCode)
	}
	guid, err := w.stringField("guid")
	if err != nil {
		return "", err
	}
	sharedKey, err := w.stringField("sharedKey")
	if err != nil {
		return "", err
	}

	w.mu.RLock()
	secret := sharedKey + pairingSep + hex.EncodeToString(w.password)
	w.mu.RUnlock()

	encrypted, err := w.cryptor.Encrypt(ctx, model.NewKeyDataPair(pairingKey, secret), crypto.AutoPairIterations)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt pairing code: %w", err)
	}
	return strings.Join([]string{pairingVersion, guid, encrypted}, pairingSep), nil
}

// PairingQR renders the pairing code as a PNG
func (w *Wallet) PairingQR(ctx context.Context, pairingKey string, size int) ([]byte, error) {
	code, err := w.PairingCode(ctx, pairingKey)
	if err != nil {
		return nil, err
	}
	return generateQRCode(code, size)
}

// ParsePairingCode decrypts a pairing code produced by PairingCode
func ParsePairingCode(ctx context.Context, c Cryptor, code, pairingKey string) (*PairingData, error) {
	parts := strings.SplitN(code, pairingSep, 3)
	if len(parts) != 3 || parts[0] != pairingVersion || parts[1] == "" || parts[2] == "" {
		return nil, ErrInvalidPairingCode
	}

	secret, err := c.Decrypt(ctx, model.NewKeyDataPair(pairingKey, parts[2]), crypto.AutoPairIterations)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt pairing code: %w", err)
	}

	// hex never contains the separator, the shared key might
	i := strings.LastIndex(secret, pairingSep)
	if i < 0 {
		return nil, ErrInvalidPairingCode
	}
	sharedKey, passwordHex := secret[:i], secret[i+1:]
	password, err := hex.DecodeString(passwordHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPairingCode, err)
	}
	return &PairingData{GUID: parts[1], SharedKey: sharedKey, Password: password}, nil
}

// generateQRCode renders content as a PNG
func generateQRCode(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PNG: %w", err)
	}
	return png, nil
}
