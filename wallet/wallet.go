package wallet

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"sync"

	"github.com/AlexZinkM/wallet-payload/internal/common"
	"github.com/AlexZinkM/wallet-payload/internal/model"
	"github.com/AlexZinkM/wallet-payload/internal/payload"

	"go.uber.org/zap"
)

// DefaultPBKDF2Iterations is used when saving a wallet loaded from a v1 payload
const DefaultPBKDF2Iterations uint32 = 5000

var (
	// ErrNotLoaded is returned by operations that need a decrypted wallet
	ErrNotLoaded = errors.New("wallet is not loaded")

	// ErrInvalidPayload is returned when the decrypted payload is not a JSON object
	ErrInvalidPayload = errors.New("wallet payload is not a JSON object")

	// ErrVerificationFailed is returned when a freshly encrypted payload does
	// not decrypt back to the original
	ErrVerificationFailed = errors.New("encrypted payload failed verification")
)

// Cryptor encrypts and decrypts payloads. *verify.Service implements it.
type Cryptor interface {
	Encrypt(ctx context.Context, pair model.KeyDataPair, iterations uint32) (string, error)
	Decrypt(ctx context.Context, pair model.KeyDataPair, iterations uint32) (string, error)
}

// FlagSource provides the remote v4 upgrade flag
type FlagSource interface {
	RequiresV4Upgrade(ctx context.Context) (bool, error)
}

// Config configures a Wallet
type Config struct {
	Path     string
	Password []byte // copied, the caller may wipe its slice
	Cryptor  Cryptor
	V1       V1Decrypter
	Flag     FlagSource
	Random   io.Reader // seed source for the v3 upgrade, crypto/rand if nil
	Log      *zap.Logger

	// FirstAccountLabel names the account created by the v3 upgrade
	FirstAccountLabel string
}

// Wallet is the decrypted wallet file held in memory
type Wallet struct {
	path         string
	password     []byte
	cryptor      Cryptor
	v1           V1Decrypter
	flag         FlagSource
	random       io.Reader
	log          *zap.Logger
	accountLabel string

	mu      sync.RWMutex
	loaded  bool
	wrapper model.WalletPayloadWrapper
	data    map[string]json.RawMessage
}

// New creates an unloaded Wallet
func New(cfg Config) *Wallet {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	random := cfg.Random
	if random == nil {
		random = rand.Reader
	}
	label := cfg.FirstAccountLabel
	if label == "" {
		label = defaultAccountLabel
	}
	return &Wallet{
		path:         cfg.Path,
		password:     bytes.Clone(cfg.Password),
		cryptor:      cfg.Cryptor,
		v1:           cfg.V1,
		flag:         cfg.Flag,
		random:       random,
		log:          log.Named("wallet"),
		accountLabel: label,
	}
}

// Open creates a Wallet and loads it from disk
func Open(ctx context.Context, cfg Config) (*Wallet, error) {
	w := New(cfg)
	if err := w.Load(ctx); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

// Close wipes the password held by the wallet
func (w *Wallet) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	common.Wipe(w.password)
	w.data = nil
	w.loaded = false
}

// Load reads and decrypts the wallet file
func (w *Wallet) Load(ctx context.Context) error {
	raw, err := readFile(w.path)
	if err != nil {
		return err
	}

	plaintext, wrapper, err := w.decryptWrapper(ctx, raw)
	if err != nil {
		return fmt.Errorf("failed to decrypt wallet: %w", err)
	}

	data, err := parsePayload(plaintext)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.wrapper = wrapper
	w.data = data
	w.loaded = true

	w.log.Info("wallet loaded",
		zap.Int("version", wrapper.Version),
		zap.Uint32("pbkdf2_iterations", wrapper.PBKDF2Iterations))
	return nil
}

// Payload returns the decrypted wallet JSON
func (w *Wallet) Payload() (json.RawMessage, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.loaded {
		return nil, ErrNotLoaded
	}
	return json.Marshal(w.data)
}

// Wrapper returns the wrapper metadata of the loaded wallet. Payload holds
// the ciphertext last read or written.
func (w *Wallet) Wrapper() model.WalletPayloadWrapper {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.wrapper
}

// IsInitialized reports whether a wallet has been loaded
func (w *Wallet) IsInitialized() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.loaded
}

// DidUpgradeToV3 reports whether the wallet has an HD wallet
func (w *Wallet) DidUpgradeToV3() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	hd, err := hdWallets(w.data)
	return err == nil && len(hd) > 0
}

// DidUpgradeToV4 reports whether the wrapper is at version 4
func (w *Wallet) DidUpgradeToV4() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.loaded && w.wrapper.Version >= payload.SupportedVersion
}

// RequiresV4Upgrade asks the flag source. No source means not required.
func (w *Wallet) RequiresV4Upgrade(ctx context.Context) (bool, error) {
	if w.flag == nil {
		return false, nil
	}
	return w.flag.RequiresV4Upgrade(ctx)
}

// Save encrypts and persists the current wallet. It returns the checksum of
// the written payload.
func (w *Wallet) Save(ctx context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.loaded {
		return "", ErrNotLoaded
	}
	wrapper, checksum, err := w.persist(ctx, w.wrapper, w.data)
	if err != nil {
		return "", err
	}
	w.wrapper = wrapper
	return checksum, nil
}

// Reencrypt rewrites the wallet under a fresh IV with the given PBKDF2
// iteration count. Zero keeps the current count.
func (w *Wallet) Reencrypt(ctx context.Context, iterations uint32) (string, error) {
	err := w.update(ctx, func(wrapper *model.WalletPayloadWrapper, _ map[string]json.RawMessage) error {
		if iterations > 0 {
			wrapper.PBKDF2Iterations = iterations
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	return payload.Checksum(w.wrapper.Payload), nil
}

// update applies fn to a copy of the wallet and persists the result. The
// in-memory wallet changes only after the file is written.
func (w *Wallet) update(ctx context.Context, fn func(wrapper *model.WalletPayloadWrapper, data map[string]json.RawMessage) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.loaded {
		return ErrNotLoaded
	}

	wrapper := w.wrapper
	data := maps.Clone(w.data)
	if err := fn(&wrapper, data); err != nil {
		return err
	}

	wrapper, checksum, err := w.persist(ctx, wrapper, data)
	if err != nil {
		return err
	}
	w.wrapper = wrapper
	w.data = data
	w.log.Info("wallet saved", zap.Int("version", wrapper.Version), zap.String("checksum", checksum))
	return nil
}

// persist must be called with mu held
func (w *Wallet) persist(ctx context.Context, wrapper model.WalletPayloadWrapper, data map[string]json.RawMessage) (model.WalletPayloadWrapper, string, error) {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return wrapper, "", fmt.Errorf("failed to marshal wallet payload: %w", err)
	}

	encrypted, err := w.encryptAndVerify(ctx, string(plaintext), wrapper.PBKDF2Iterations)
	if err != nil {
		return wrapper, "", err
	}
	wrapper.Payload = encrypted

	if err := payload.ValidateVersion(&wrapper); err != nil {
		return wrapper, "", err
	}
	encoded, err := payload.Encode(&wrapper)
	if err != nil {
		return wrapper, "", err
	}
	if err := writeFile(w.path, []byte(encoded)); err != nil {
		return wrapper, "", err
	}
	return wrapper, payload.Checksum(encrypted), nil
}

func (w *Wallet) encryptAndVerify(ctx context.Context, plaintext string, iterations uint32) (string, error) {
	encrypted, err := w.cryptor.Encrypt(ctx, model.KeyDataPair{Key: w.password, Data: []byte(plaintext)}, iterations)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt wallet: %w", err)
	}

	decrypted, err := w.cryptor.Decrypt(ctx, model.KeyDataPair{Key: w.password, Data: []byte(encrypted)}, iterations)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}
	if decrypted != plaintext {
		return "", ErrVerificationFailed
	}
	return encrypted, nil
}

func parsePayload(plaintext string) (map[string]json.RawMessage, error) {
	var data map[string]json.RawMessage
	if err := json.Unmarshal([]byte(plaintext), &data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if data == nil {
		return nil, ErrInvalidPayload
	}
	return data, nil
}

// stringField reads a top-level string field of the payload
func (w *Wallet) stringField(name string) (string, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.loaded {
		return "", ErrNotLoaded
	}
	raw, ok := w.data[name]
	if !ok {
		return "", fmt.Errorf("wallet payload has no %q field", name)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("wallet payload field %q is not a string: %w", name, err)
	}
	return s, nil
}
