package wallet

import (
	"context"
	"errors"

	"github.com/AlexZinkM/wallet-payload/internal/crypto"
	"github.com/AlexZinkM/wallet-payload/internal/model"
	"github.com/AlexZinkM/wallet-payload/internal/payload"

	"go.uber.org/zap"
)

// ErrV1DecryptFailed is returned when no known v1 format decrypts the payload
var ErrV1DecryptFailed = errors.New("failed to decrypt v1 payload")

// V1Decrypter decrypts with explicit cipher options
type V1Decrypter interface {
	DecryptWithOptions(pair model.KeyDataPair, iterations uint32, opts crypto.Options) (string, error)
}

type v1Format struct {
	iterations uint32
	opts       crypto.Options
}

// v1Formats are tried in order, first success wins
var v1Formats = []v1Format{
	{iterations: crypto.AutoPairIterations, opts: crypto.Options{BlockMode: crypto.CBC, Padding: crypto.ISO10126}},
	{iterations: crypto.PinLoginIterations, opts: crypto.Options{BlockMode: crypto.OFB, Padding: crypto.NoPadding}},
	{iterations: crypto.PinLoginIterations, opts: crypto.Options{BlockMode: crypto.OFB, Padding: crypto.ISO78164}},
	{iterations: crypto.PinLoginIterations, opts: crypto.Options{BlockMode: crypto.CBC, Padding: crypto.ISO10126}},
}

// DecryptV1 decrypts a bare v1 payload by trying each historical format
func DecryptV1(d V1Decrypter, password []byte, data string) (string, error) {
	pair := model.KeyDataPair{Key: password, Data: []byte(data)}
	for _, f := range v1Formats {
		plaintext, err := d.DecryptWithOptions(pair, f.iterations, f.opts)
		if err == nil {
			return plaintext, nil
		}
	}
	return "", ErrV1DecryptFailed
}

// decryptWrapper decodes and decrypts the wallet file contents. Anything that
// is not a decryptable v2+ wrapper is treated as a v1 payload.
func (w *Wallet) decryptWrapper(ctx context.Context, raw string) (string, model.WalletPayloadWrapper, error) {
	wrapper, err := payload.Decode(raw)
	if err == nil {
		err = payload.ValidateVersion(wrapper)
	}
	if err == nil {
		pair := model.KeyDataPair{Key: w.password, Data: []byte(wrapper.Payload)}
		var plaintext string
		plaintext, err = w.cryptor.Decrypt(ctx, pair, wrapper.PBKDF2Iterations)
		if err == nil {
			return plaintext, *wrapper, nil
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", model.WalletPayloadWrapper{}, ctxErr
	}
	w.log.Debug("wrapper decrypt failed, trying v1 formats", zap.Error(err))

	plaintext, err := DecryptV1(w.v1, w.password, raw)
	if err != nil {
		return "", model.WalletPayloadWrapper{}, err
	}
	w.log.Info("decrypted v1 wallet payload")
	return plaintext, model.WalletPayloadWrapper{
		Version:          1,
		PBKDF2Iterations: DefaultPBKDF2Iterations,
	}, nil
}
