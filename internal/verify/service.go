package verify

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlexZinkM/wallet-payload/internal/common"
	"github.com/AlexZinkM/wallet-payload/internal/metrics"
	"github.com/AlexZinkM/wallet-payload/internal/model"

	"go.uber.org/zap"
)

// ErrEmptyResult is returned when the legacy path yields a blank plaintext
var ErrEmptyResult = errors.New("decryption produced an empty result")

// ExecutionFailedError wraps the failure of one decryption path
type ExecutionFailedError struct {
	Path string
	Err  error
}

func (e *ExecutionFailedError) Error() string {
	return fmt.Sprintf("%s decryption failed: %v", e.Path, e.Err)
}

func (e *ExecutionFailedError) Unwrap() error {
	return e.Err
}

// Decrypter is one decryption strategy
type Decrypter interface {
	Decrypt(pair model.KeyDataPair, iterations uint32) (string, error)
}

// Encrypter is the single encryption strategy
type Encrypter interface {
	Encrypt(pair model.KeyDataPair, iterations uint32) (string, error)
}

// Policy selects the strategies used for decryption and the reaction to a
// disagreement between them
type Policy struct {
	Native     Decrypter
	Legacy     Decrypter
	Divergence DivergenceHandler
}

// Service decrypts through the native path with a legacy fallback, and
// encrypts through the native path only
type Service struct {
	policy    Policy
	encrypter Encrypter
	log       *zap.Logger
	metrics   *metrics.Metrics
}

// NewService creates a new Service
func NewService(policy Policy, encrypter Encrypter, log *zap.Logger, m *metrics.Metrics) *Service {
	if policy.Divergence == nil {
		policy.Divergence = LogOnlyHandler{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		policy:    policy,
		encrypter: encrypter,
		log:       log.Named("verify"),
		metrics:   m,
	}
}

// Decrypt returns the plaintext of pair.Data
func (s *Service) Decrypt(ctx context.Context, pair model.KeyDataPair, iterations uint32) (string, error) {
	// Fast path
	plaintext, nativeErr := run(metrics.PathNative, s.policy.Native, pair, iterations)
	s.metrics.ObserveDecrypt(metrics.PathNative, nativeErr)
	if nativeErr == nil {
		return plaintext, nil
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Native failed, ask the legacy path with identical inputs
	plaintext, legacyErr := run(metrics.PathLegacy, s.policy.Legacy, pair, iterations)
	if legacyErr == nil && common.IsBlank(plaintext) {
		legacyErr = ErrEmptyResult
	}
	s.metrics.ObserveDecrypt(metrics.PathLegacy, legacyErr)
	if legacyErr != nil {
		// Legacy is the longer-trusted path, its error wins
		s.log.Debug("decryption failed on both paths",
			zap.NamedError("native", nativeErr),
			zap.NamedError("legacy", legacyErr),
			zap.Uint32("iterations", iterations))
		return "", legacyErr
	}

	s.log.Error("native decryption failed but legacy succeeded",
		zap.Error(nativeErr),
		zap.Uint32("iterations", iterations),
		zap.Int("data_len", len(pair.Data)))
	s.metrics.ObserveDivergence()
	s.policy.Divergence.HandleDivergence(nativeErr)

	return plaintext, nil
}

// Encrypt returns the ciphertext of pair.Data. There is no fallback.
func (s *Service) Encrypt(ctx context.Context, pair model.KeyDataPair, iterations uint32) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.encrypter.Encrypt(pair, iterations)
}

// run calls d and turns both returned errors and panics into ExecutionFailedError
func run(path string, d Decrypter, pair model.KeyDataPair, iterations uint32) (plaintext string, err error) {
	if d == nil {
		return "", &ExecutionFailedError{Path: path, Err: errors.New("no decrypter configured")}
	}

	defer func() {
		if r := recover(); r != nil {
			plaintext = ""
			err = &ExecutionFailedError{Path: path, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	plaintext, err = d.Decrypt(pair, iterations)
	if err != nil {
		return "", &ExecutionFailedError{Path: path, Err: err}
	}
	return plaintext, nil
}
