package upgrade

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AlexZinkM/wallet-payload/internal/model"

	"github.com/stretchr/testify/require"
)

type fakeState struct {
	mu          sync.Mutex
	initialized bool
	v3          bool
	v4          bool
	requiresV4  bool
	flagErr     error
	flagFetches int
}

func (s *fakeState) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

func (s *fakeState) DidUpgradeToV3() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v3
}

func (s *fakeState) DidUpgradeToV4() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v4
}

func (s *fakeState) RequiresV4Upgrade(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flagFetches++
	return s.requiresV4, s.flagErr
}

func (s *fakeState) set(fn func(s *fakeState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

type fakeJournal struct {
	mu      sync.Mutex
	entries []string
}

func (j *fakeJournal) RecordStart(v model.Version) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, "start "+string(v))
	return nil
}

func (j *fakeJournal) RecordResult(v model.Version, err error) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err != nil {
		j.entries = append(j.entries, "fail "+string(v))
		return nil
	}
	j.entries = append(j.entries, "done "+string(v))
	return nil
}

// orderLog is a concurrency-safe event log
type orderLog struct {
	mu     sync.Mutex
	events []string
}

func (l *orderLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *orderLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// markWorkflows returns workflows that log and flip the matching flag
func markWorkflows(state *fakeState, log *orderLog) map[model.Version]Workflow {
	return map[model.Version]Workflow{
		model.VersionV3: WorkflowFunc(func(context.Context) error {
			log.add("run V3")
			state.set(func(s *fakeState) { s.v3 = true })
			return nil
		}),
		model.VersionV4: WorkflowFunc(func(context.Context) error {
			log.add("run V4")
			state.set(func(s *fakeState) { s.v4 = true })
			return nil
		}),
	}
}

func TestRequiredUpgrades(t *testing.T) {
	tests := []struct {
		name  string
		state *fakeState
		want  []model.Version
	}{
		{
			name:  "fresh legacy wallet",
			state: &fakeState{initialized: true, requiresV4: true},
			want:  []model.Version{model.VersionV3, model.VersionV4},
		},
		{
			name:  "v3 done, v4 not required",
			state: &fakeState{initialized: true, v3: true},
			want:  nil,
		},
		{
			name:  "v3 done, v4 required",
			state: &fakeState{initialized: true, v3: true, requiresV4: true},
			want:  []model.Version{model.VersionV4},
		},
		{
			name:  "legacy wallet, v4 not required",
			state: &fakeState{initialized: true},
			want:  []model.Version{model.VersionV3},
		},
		{
			name:  "fully upgraded",
			state: &fakeState{initialized: true, v3: true, v4: true, requiresV4: true},
			want:  nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := New(Config{State: tc.state})
			got, err := o.RequiredUpgrades(context.Background())
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestRequiredUpgradesSkipsFlagFetchWhenV4Done(t *testing.T) {
	state := &fakeState{initialized: true, v3: true, v4: true}
	o := New(Config{State: state})

	_, err := o.RequiredUpgrades(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, state.flagFetches)
}

func TestRequiredUpgradesFlagFailure(t *testing.T) {
	fetchErr := errors.New("settings unavailable")
	state := &fakeState{initialized: true, v3: true, requiresV4: true, flagErr: fetchErr}

	// Default policy swallows the error
	got, err := New(Config{State: state}).RequiredUpgrades(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)

	// Strict policy propagates it
	_, err = New(Config{State: state, Policy: FailOnFlagError}).RequiredUpgrades(context.Background())
	require.ErrorIs(t, err, fetchErr)
}

func TestNeedsUpgrade(t *testing.T) {
	o := New(Config{State: &fakeState{initialized: true, requiresV4: true}})
	needs, err := o.NeedsUpgrade(context.Background())
	require.NoError(t, err)
	require.True(t, needs)

	o = New(Config{State: &fakeState{initialized: true, v3: true, v4: true}})
	needs, err = o.NeedsUpgrade(context.Background())
	require.NoError(t, err)
	require.False(t, needs)
}

func TestNeedsUpgradePanicsWhenNotInitialized(t *testing.T) {
	o := New(Config{State: &fakeState{}})
	require.PanicsWithValue(t, ErrNotInitialized, func() {
		_, _ = o.NeedsUpgrade(context.Background())
	})
}

func TestUpgradeRunsInOrder(t *testing.T) {
	state := &fakeState{initialized: true, requiresV4: true}
	log := &orderLog{}
	journal := &fakeJournal{}
	o := New(Config{State: state, Workflows: markWorkflows(state, log), Journal: journal})

	err := o.Upgrade(context.Background(), func(v model.Version) {
		log.add("emit " + string(v))
	})
	require.NoError(t, err)
	require.Equal(t, []string{"emit V3", "run V3", "emit V4", "run V4"}, log.snapshot())
	require.Equal(t, []string{"start V3", "done V3", "start V4", "done V4"}, journal.entries)
	require.True(t, state.DidUpgradeToV3())
	require.True(t, state.DidUpgradeToV4())
}

func TestUpgradeIsSequential(t *testing.T) {
	state := &fakeState{initialized: true, requiresV4: true}
	log := &orderLog{}
	v3Started := make(chan struct{})
	releaseV3 := make(chan struct{})

	o := New(Config{
		State: state,
		Workflows: map[model.Version]Workflow{
			model.VersionV3: WorkflowFunc(func(context.Context) error {
				log.add("start V3")
				close(v3Started)
				<-releaseV3
				log.add("end V3")
				return nil
			}),
			model.VersionV4: WorkflowFunc(func(context.Context) error {
				log.add("start V4")
				log.add("end V4")
				return nil
			}),
		},
	})

	done := make(chan error, 1)
	go func() {
		done <- o.Upgrade(context.Background(), nil)
	}()

	<-v3Started
	// V3 is blocked; V4 must not have started
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, []string{"start V3"}, log.snapshot())

	close(releaseV3)
	require.NoError(t, <-done)
	require.Equal(t, []string{"start V3", "end V3", "start V4", "end V4"}, log.snapshot())
}

func TestUpgradeFailureCarriesVersion(t *testing.T) {
	state := &fakeState{initialized: true, v3: false, requiresV4: true}
	workflowErr := errors.New("disk full")
	journal := &fakeJournal{}
	var emitted []model.Version
	v4Ran := false

	o := New(Config{
		State:   state,
		Journal: journal,
		Workflows: map[model.Version]Workflow{
			model.VersionV3: WorkflowFunc(func(context.Context) error {
				return workflowErr
			}),
			model.VersionV4: WorkflowFunc(func(context.Context) error {
				v4Ran = true
				return nil
			}),
		},
	})

	err := o.Upgrade(context.Background(), func(v model.Version) {
		emitted = append(emitted, v)
	})

	var failed *FailedError
	require.ErrorAs(t, err, &failed)
	require.Equal(t, model.VersionV3, failed.Version)
	require.ErrorIs(t, err, workflowErr)
	require.False(t, v4Ran)
	require.Equal(t, []model.Version{model.VersionV3}, emitted)
	require.Equal(t, []string{"start V3", "fail V3"}, journal.entries)
}

func TestUpgradeResumesAfterFailure(t *testing.T) {
	state := &fakeState{initialized: true, requiresV4: true}
	log := &orderLog{}
	fail := true

	workflows := markWorkflows(state, log)
	markV4 := workflows[model.VersionV4]
	workflows[model.VersionV4] = WorkflowFunc(func(ctx context.Context) error {
		if fail {
			return errors.New("network down")
		}
		return markV4.Upgrade(ctx)
	})
	o := New(Config{State: state, Workflows: workflows})

	err := o.Upgrade(context.Background(), nil)
	var failed *FailedError
	require.ErrorAs(t, err, &failed)
	require.Equal(t, model.VersionV4, failed.Version)

	// V3 is not re-run
	fail = false
	require.NoError(t, o.Upgrade(context.Background(), nil))
	require.Equal(t, []string{"run V3", "run V4"}, log.snapshot())
}

func TestUpgradeMissingWorkflow(t *testing.T) {
	o := New(Config{State: &fakeState{initialized: true}})

	err := o.Upgrade(context.Background(), nil)
	var failed *FailedError
	require.ErrorAs(t, err, &failed)
	require.Equal(t, model.VersionV3, failed.Version)
	require.ErrorIs(t, err, ErrNoWorkflow)
}

func TestUpgradeCancelledBetweenVersions(t *testing.T) {
	state := &fakeState{initialized: true, requiresV4: true}
	log := &orderLog{}
	ctx, cancel := context.WithCancel(context.Background())

	workflows := markWorkflows(state, log)
	markV3 := workflows[model.VersionV3]
	workflows[model.VersionV3] = WorkflowFunc(func(ctx context.Context) error {
		err := markV3.Upgrade(ctx)
		cancel()
		return err
	})
	o := New(Config{State: state, Workflows: workflows})

	err := o.Upgrade(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, []string{"run V3"}, log.snapshot())

	// V3 stays applied
	require.True(t, state.DidUpgradeToV3())
	require.False(t, state.DidUpgradeToV4())
}

func TestUpgradeSingleFlight(t *testing.T) {
	state := &fakeState{initialized: true, requiresV4: true}
	log := &orderLog{}
	o := New(Config{State: state, Workflows: markWorkflows(state, log)})

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- o.Upgrade(context.Background(), nil)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	// Later runs see the updated flags and do nothing
	require.Equal(t, []string{"run V3", "run V4"}, log.snapshot())
}

func TestStream(t *testing.T) {
	state := &fakeState{initialized: true, requiresV4: true}
	o := New(Config{State: state, Workflows: markWorkflows(state, &orderLog{})})

	versions, errc := o.Stream(context.Background())

	var got []model.Version
	for v := range versions {
		got = append(got, v)
	}
	require.NoError(t, <-errc)
	require.Equal(t, []model.Version{model.VersionV3, model.VersionV4}, got)
}

func TestStreamFailure(t *testing.T) {
	state := &fakeState{initialized: true, v3: true, requiresV4: true}
	o := New(Config{
		State: state,
		Workflows: map[model.Version]Workflow{
			model.VersionV4: WorkflowFunc(func(context.Context) error {
				return errors.New("boom")
			}),
		},
	})

	versions, errc := o.Stream(context.Background())

	var got []model.Version
	for v := range versions {
		got = append(got, v)
	}
	err := <-errc

	var failed *FailedError
	require.ErrorAs(t, err, &failed)
	require.Equal(t, model.VersionV4, failed.Version)
	require.Equal(t, []model.Version{model.VersionV4}, got)
}

func TestParseFlagFailurePolicy(t *testing.T) {
	p, err := ParseFlagFailurePolicy("")
	require.NoError(t, err)
	require.Equal(t, AssumeNotRequired, p)

	p, err = ParseFlagFailurePolicy("fail")
	require.NoError(t, err)
	require.Equal(t, FailOnFlagError, p)

	_, err = ParseFlagFailurePolicy("retry")
	require.Error(t, err)
}
