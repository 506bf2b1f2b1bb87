package upgrade

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlexZinkM/wallet-payload/internal/metrics"
	"github.com/AlexZinkM/wallet-payload/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ErrNotInitialized is the panic value of NeedsUpgrade on an uninitialized wallet
var ErrNotInitialized = errors.New("wallet is not initialized")

// ErrNoWorkflow is wrapped in FailedError when a version has no workflow
var ErrNoWorkflow = errors.New("no upgrade workflow registered")

// FailedError reports the version whose workflow failed. Versions before it
// have completed and are not re-run.
type FailedError struct {
	Version model.Version
	Err     error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("upgrade to %s failed: %v", e.Version, e.Err)
}

func (e *FailedError) Unwrap() error {
	return e.Err
}

// VersionState exposes the live wallet version flags. Flags are read on
// every call and never cached.
type VersionState interface {
	IsInitialized() bool
	DidUpgradeToV3() bool
	DidUpgradeToV4() bool

	// RequiresV4Upgrade may fetch a remote setting
	RequiresV4Upgrade(ctx context.Context) (bool, error)
}

// Workflow transforms and persists the wallet for one version
type Workflow interface {
	Upgrade(ctx context.Context) error
}

// WorkflowFunc adapts a function to Workflow
type WorkflowFunc func(ctx context.Context) error

// Upgrade implements Workflow
func (f WorkflowFunc) Upgrade(ctx context.Context) error {
	return f(ctx)
}

// Journal records workflow runs
type Journal interface {
	RecordStart(v model.Version) error
	RecordResult(v model.Version, err error) error
}

// FlagFailurePolicy decides what a failed RequiresV4Upgrade fetch means
type FlagFailurePolicy int

const (
	// AssumeNotRequired treats a fetch failure as "no v4 upgrade needed".
	// A transient failure therefore under-migrates until the next run.
	AssumeNotRequired FlagFailurePolicy = iota

	// FailOnFlagError propagates the fetch failure to the caller
	FailOnFlagError
)

// ParseFlagFailurePolicy parses "assume-not-required" or "fail"
func ParseFlagFailurePolicy(s string) (FlagFailurePolicy, error) {
	switch s {
	case "", "assume-not-required":
		return AssumeNotRequired, nil
	case "fail":
		return FailOnFlagError, nil
	default:
		return 0, fmt.Errorf("unknown v4 flag failure policy %q", s)
	}
}

// Config configures an Orchestrator
type Config struct {
	State     VersionState
	Workflows map[model.Version]Workflow
	Policy    FlagFailurePolicy
	Journal   Journal // optional
	Log       *zap.Logger
	Metrics   *metrics.Metrics
}

// Orchestrator runs the required wallet upgrades in order, one at a time
type Orchestrator struct {
	cfg Config
	log *zap.Logger

	// single-flight: one upgrade run per wallet at a time
	running *semaphore.Weighted
}

// New creates a new Orchestrator
func New(cfg Config) *Orchestrator {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		cfg:     cfg,
		log:     log.Named("upgrade"),
		running: semaphore.NewWeighted(1),
	}
}

// NeedsUpgrade reports whether any upgrade is required. It panics if the
// wallet is not initialized.
func (o *Orchestrator) NeedsUpgrade(ctx context.Context) (bool, error) {
	if !o.cfg.State.IsInitialized() {
		panic(ErrNotInitialized)
	}

	versions, err := o.RequiredUpgrades(ctx)
	if err != nil {
		return false, err
	}
	return len(versions) > 0, nil
}

// RequiredUpgrades computes the ordered list of upgrades for the wallet
func (o *Orchestrator) RequiredUpgrades(ctx context.Context) ([]model.Version, error) {
	state := o.cfg.State
	var versions []model.Version

	if !state.DidUpgradeToV3() {
		versions = append(versions, model.VersionV3)
	}

	if !state.DidUpgradeToV4() {
		required, err := state.RequiresV4Upgrade(ctx)
		if err != nil {
			if o.cfg.Policy == FailOnFlagError {
				return nil, fmt.Errorf("failed to fetch v4 upgrade flag: %w", err)
			}
			o.log.Warn("v4 upgrade flag unavailable, assuming not required", zap.Error(err))
			required = false
		}
		if required {
			versions = append(versions, model.VersionV4)
		}
	}

	return versions, nil
}

// Upgrade runs every required workflow in order. emit is called with each
// version before its workflow starts. A failing workflow stops the run with
// a *FailedError.
func (o *Orchestrator) Upgrade(ctx context.Context, emit func(model.Version)) error {
	if err := o.running.Acquire(ctx, 1); err != nil {
		return err
	}
	defer o.running.Release(1)

	// Flags may have changed while waiting for another run
	versions, err := o.RequiredUpgrades(ctx)
	if err != nil {
		return err
	}

	for _, v := range versions {
		if err := ctx.Err(); err != nil {
			return err
		}

		if emit != nil {
			emit(v)
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		if err := o.runWorkflow(ctx, v); err != nil {
			return &FailedError{Version: v, Err: err}
		}
	}
	return nil
}

func (o *Orchestrator) runWorkflow(ctx context.Context, v model.Version) error {
	wf, ok := o.cfg.Workflows[v]
	if !ok || wf == nil {
		return ErrNoWorkflow
	}

	o.log.Info("upgrading wallet", zap.String("version", string(v)))
	o.journalStart(v)

	err := wf.Upgrade(ctx)

	o.cfg.Metrics.ObserveUpgrade(string(v), err)
	o.journalResult(v, err)
	if err != nil {
		o.log.Error("wallet upgrade failed", zap.String("version", string(v)), zap.Error(err))
		return err
	}

	o.log.Info("wallet upgraded", zap.String("version", string(v)))
	return nil
}

func (o *Orchestrator) journalStart(v model.Version) {
	if o.cfg.Journal == nil {
		return
	}
	if err := o.cfg.Journal.RecordStart(v); err != nil {
		o.log.Warn("failed to journal upgrade start", zap.String("version", string(v)), zap.Error(err))
	}
}

func (o *Orchestrator) journalResult(v model.Version, result error) {
	if o.cfg.Journal == nil {
		return
	}
	if err := o.cfg.Journal.RecordResult(v, result); err != nil {
		o.log.Warn("failed to journal upgrade result", zap.String("version", string(v)), zap.Error(err))
	}
}
