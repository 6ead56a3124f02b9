package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"hue-bus-bridge/internal/domain/model"
	"hue-bus-bridge/internal/domain/state"
	"hue-bus-bridge/internal/ports"
)

const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultRetryDelay   = 300 * time.Millisecond

	maxParallelPublish = 16
)

// ErrTooManyErrors is returned by Run once consecutive sync failures exceed MaxRetries.
var ErrTooManyErrors = errors.New("scheduler: too many consecutive errors")

type State int32

const (
	StateIdle State = iota
	StateAcquiring
	StateSyncingLights
	StateSyncingSensors
	StatePublishing
	StateExecuting
)

func (s State) String() string {
	switch s {
	case StateAcquiring:
		return "acquiring"
	case StateSyncingLights:
		return "syncing_lights"
	case StateSyncingSensors:
		return "syncing_sensors"
	case StatePublishing:
		return "publishing"
	case StateExecuting:
		return "executing"
	}
	return "idle"
}

type SchedulerOptions struct {
	PollInterval time.Duration
	RetryDelay   time.Duration
	Recorders    []ports.ChangeRecorder
	Logger       zerolog.Logger
}

// Scheduler runs the poll-diff-publish loop and executes mutation requests,
// both through the single bridge Session.
type Scheduler struct {
	session   *Session
	bus       ports.BusClient
	differ    *state.Differ
	recorders []ports.ChangeRecorder
	log       zerolog.Logger

	pollInterval time.Duration
	retryDelay   time.Duration

	state       atomic.Int32
	waiting     atomic.Int32
	errorCount  atomic.Int32
	groupsStale atomic.Bool

	// groups is only touched while the session is held.
	groups []model.GroupSnapshot

	mu        sync.RWMutex
	lastSync  time.Time
	lastError string
}

func NewScheduler(session *Session, bus ports.BusClient, differ *state.Differ, opts SchedulerOptions) *Scheduler {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	s := &Scheduler{
		session:      session,
		bus:          bus,
		differ:       differ,
		recorders:    opts.Recorders,
		log:          opts.Logger.With().Str("component", "scheduler").Logger(),
		pollInterval: opts.PollInterval,
		retryDelay:   opts.RetryDelay,
	}
	s.groupsStale.Store(true)
	return s
}

// Run loops until ctx is cancelled or a fatal error occurs. A cancelled
// context returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	policy := Policy{
		Delay: s.retryDelay,
		OnFailure: func(attempt int, err error) {
			n := s.errorCount.Add(1)
			s.setLastError(err)
			s.log.Warn().Err(err).Int32("errors", n).Int("attempt", attempt).Msg("sync cycle failed")
		},
		Retryable: func(err error) bool {
			return !errors.Is(err, ports.ErrUnauthorized) && s.errorCount.Load() <= MaxRetries
		},
	}

	for {
		res := Attempt(ctx, policy, s.SyncOnce)
		if ctx.Err() != nil {
			return nil
		}
		if res.Err != nil {
			if errors.Is(res.Err, ports.ErrUnauthorized) {
				return res.Err
			}
			return fmt.Errorf("%w (%d): %w", ErrTooManyErrors, s.errorCount.Load(), res.Err)
		}
		s.errorCount.Store(0)

		if !sleep(ctx, s.pollInterval) {
			return nil
		}
	}
}

// SyncOnce runs one full cycle: lights and derived group status, then sensors.
func (s *Scheduler) SyncOnce(ctx context.Context) error {
	return s.withSession(func(c ports.BridgeClient) error {
		s.setState(StateSyncingLights)
		lights, err := c.ListLights(ctx)
		if err != nil {
			return fmt.Errorf("list lights: %w", err)
		}
		if s.groupsStale.Load() {
			groups, err := c.ListGroups(ctx)
			if err != nil {
				return fmt.Errorf("list groups: %w", err)
			}
			s.groups = groups
			s.groupsStale.Store(false)
			s.log.Debug().Int("groups", len(groups)).Msg("group membership refreshed")
		}

		var changes []model.ChangeRecord
		byID := make(map[string]model.DeviceSnapshot, len(lights))
		for _, l := range lights {
			byID[l.ID] = l
			changes = append(changes, s.differ.DiffLight(l)...)
		}
		for _, g := range s.groups {
			changes = append(changes, s.differ.DiffGroup(g, byID)...)
		}
		s.publish(ctx, changes)

		s.setState(StateSyncingSensors)
		sensors, err := c.ListSensors(ctx)
		if err != nil {
			return fmt.Errorf("list sensors: %w", err)
		}
		changes = changes[:0]
		for _, sn := range sensors {
			changes = append(changes, s.differ.DiffSensor(sn)...)
		}
		s.publish(ctx, changes)

		s.mu.Lock()
		s.lastSync = time.Now()
		s.mu.Unlock()
		return nil
	})
}

// publish emits all changes concurrently and waits for every one of them.
// Failures are logged; the cache already holds the new values.
func (s *Scheduler) publish(ctx context.Context, changes []model.ChangeRecord) {
	if len(changes) == 0 {
		return
	}
	prev := State(s.state.Load())
	s.setState(StatePublishing)
	defer s.setState(prev)

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(maxParallelPublish)
	for _, rec := range changes {
		g.Go(func() error {
			if err := s.bus.Publish(ctx, model.MessageKindSensor, rec); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s/%s: %w", rec.RoutingKey, rec.Attribute, err))
				mu.Unlock()
				return nil
			}
			for _, r := range s.recorders {
				r.Record(model.MessageKindSensor, rec)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		s.log.Error().Err(err).Int("failed", len(errs)).Int("total", len(changes)).Msg("publish failed")
	}
}

// Execute applies req to every target concurrently while holding the session.
// Each target retries connection resets up to MaxRetries times. The returned
// error joins every failed target; the result lists all of them.
func (s *Scheduler) Execute(ctx context.Context, req *model.MutationRequest) (*model.CommandResult, error) {
	result := &model.CommandResult{
		Op:      req.Mutation.Op(),
		Targets: make([]model.TargetResult, len(req.Targets)),
	}

	err := s.withSession(func(c ports.BridgeClient) error {
		s.setState(StateExecuting)
		policy := Policy{
			MaxAttempts: MaxRetries + 1,
			Delay:       s.retryDelay,
			Retryable:   ports.IsRetryable,
		}

		var g errgroup.Group
		for i, tgt := range req.Targets {
			g.Go(func() error {
				res := Attempt(ctx, policy, func(ctx context.Context) error {
					return c.ApplyState(ctx, tgt.BridgeID, tgt.IsGroup, req.Mutation)
				})
				result.Targets[i] = model.TargetResult{Key: tgt.Key, Attempts: res.Attempts}
				if res.Err != nil {
					result.Targets[i].Error = res.Err.Error()
					return nil
				}
				s.errorCount.Store(0)
				return nil
			})
		}
		_ = g.Wait()

		var errs []error
		for i, tr := range result.Targets {
			if tr.Error != "" {
				errs = append(errs, fmt.Errorf("target %s (bridge id %s): %s", tr.Key, req.Targets[i].BridgeID, tr.Error))
			}
		}
		return errors.Join(errs...)
	})
	return result, err
}

// MarkGroupsStale makes the next sync cycle refetch group membership.
func (s *Scheduler) MarkGroupsStale() {
	s.groupsStale.Store(true)
}

// withSession runs fn holding the session. The state is only written by the
// holder; callers still waiting are counted instead.
func (s *Scheduler) withSession(fn func(c ports.BridgeClient) error) error {
	s.waiting.Add(1)
	return s.session.Do(func(c ports.BridgeClient) error {
		s.waiting.Add(-1)
		defer s.setState(StateIdle)
		return fn(c)
	})
}

// State reports the phase of the session holder, or Acquiring when the
// session is free but a caller is about to take it.
func (s *Scheduler) State() State {
	st := State(s.state.Load())
	if st == StateIdle && s.waiting.Load() > 0 {
		return StateAcquiring
	}
	return st
}

func (s *Scheduler) ErrorCount() int {
	return int(s.errorCount.Load())
}

func (s *Scheduler) LastSync() (time.Time, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSync, s.lastError
}

func (s *Scheduler) setState(st State) {
	s.state.Store(int32(st))
}

func (s *Scheduler) setLastError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}
