package verify

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Build flavors
const (
	FlavorProduction = "production"
	FlavorInternal   = "internal"
)

// exitCodeDivergence is the process exit code of an aborted internal build
const exitCodeDivergence = 70

// ErrVerificationDivergence means the native path failed where the legacy
// path succeeded. The two are expected to always agree.
var ErrVerificationDivergence = errors.New("native and legacy decryption diverged")

// DivergenceHandler reacts to a native failure recovered by the legacy path
type DivergenceHandler interface {
	HandleDivergence(nativeErr error)
}

// LogOnlyHandler lets the legacy plaintext through. The service has already
// logged the native failure.
type LogOnlyHandler struct{}

// HandleDivergence implements DivergenceHandler
func (LogOnlyHandler) HandleDivergence(error) {}

// AbortHandler terminates the process on divergence
type AbortHandler struct {
	log  *zap.Logger
	exit func(code int)
}

// NewAbortHandler creates an AbortHandler. A nil exit uses os.Exit.
func NewAbortHandler(log *zap.Logger, exit func(code int)) *AbortHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if exit == nil {
		exit = os.Exit
	}
	return &AbortHandler{log: log, exit: exit}
}

// HandleDivergence implements DivergenceHandler
func (h *AbortHandler) HandleDivergence(nativeErr error) {
	h.log.Error("aborting internal build",
		zap.Error(fmt.Errorf("%w: %w", ErrVerificationDivergence, nativeErr)))
	_ = h.log.Sync()
	h.exit(exitCodeDivergence)
}

// HandlerForFlavor selects the divergence handler for a build flavor
func HandlerForFlavor(flavor string, log *zap.Logger) (DivergenceHandler, error) {
	switch flavor {
	case FlavorProduction, "":
		return LogOnlyHandler{}, nil
	case FlavorInternal:
		return NewAbortHandler(log, nil), nil
	default:
		return nil, fmt.Errorf("unknown build flavor %q", flavor)
	}
}
