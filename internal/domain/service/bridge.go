package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"hue-bus-bridge/internal/domain/alias"
	"hue-bus-bridge/internal/domain/model"
	"hue-bus-bridge/internal/domain/state"
	"hue-bus-bridge/internal/domain/translator"
	"hue-bus-bridge/internal/ports"
)

type Options struct {
	PollInterval         time.Duration
	RetryDelay           time.Duration
	GroupRefreshInterval time.Duration
	Recorders            []ports.ChangeRecorder
	Logger               zerolog.Logger
}

// BridgeService wires the cache, differ, translator and scheduler together.
// It is the entry point for inbound commands and diagnostic reads.
type BridgeService struct {
	cache      *state.Cache
	translator *translator.Translator
	scheduler  *Scheduler
	cron       *cron.Cron
	refresh    time.Duration
	startedAt  time.Time
	log        zerolog.Logger
}

func NewBridgeService(client ports.BridgeClient, bus ports.BusClient, aliases *alias.Resolver, opts Options) *BridgeService {
	cache := state.NewCache()
	scheduler := NewScheduler(NewSession(client), bus, state.NewDiffer(cache, aliases), SchedulerOptions{
		PollInterval: opts.PollInterval,
		RetryDelay:   opts.RetryDelay,
		Recorders:    opts.Recorders,
		Logger:       opts.Logger,
	})
	return &BridgeService{
		cache:      cache,
		translator: translator.NewTranslator(aliases, cache),
		scheduler:  scheduler,
		cron:       cron.New(),
		refresh:    opts.GroupRefreshInterval,
		startedAt:  time.Now(),
		log:        opts.Logger.With().Str("component", "bridge").Logger(),
	}
}

// Run starts the sync loop and blocks until ctx is done or the loop fails.
func (s *BridgeService) Run(ctx context.Context) error {
	if s.refresh > 0 {
		if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.refresh), s.scheduler.MarkGroupsStale); err != nil {
			return fmt.Errorf("schedule group refresh: %w", err)
		}
		s.cron.Start()
		defer s.cron.Stop()
	}
	return s.scheduler.Run(ctx)
}

// HandleCommand translates and executes one inbound command. Ignored bodies
// and rejected commands return an error without touching the bridge.
func (s *BridgeService) HandleCommand(ctx context.Context, cmd model.InboundCommand) (*model.CommandResult, error) {
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	log := s.log.With().Str("command_id", cmd.ID).Str("body", cmd.BodyName).Logger()

	req, err := s.translator.Translate(cmd)
	if err != nil {
		if errors.Is(err, translator.ErrIgnoredBody) {
			log.Debug().Msg("body ignored")
		} else {
			log.Warn().Err(err).Interface("payload", cmd.Body).Msg("command dropped")
		}
		return nil, err
	}

	log.Info().Str("op", string(req.Mutation.Op())).Strs("targets", req.TargetKeys()).Msg("executing command")
	res, err := s.scheduler.Execute(ctx, req)
	res.ID = cmd.ID
	if err != nil {
		log.Error().Err(err).Int("failed", res.Failed()).Msg("command partially failed")
	}
	return res, err
}

func (s *BridgeService) Entries() []model.CacheEntry {
	return s.cache.Entries()
}

func (s *BridgeService) Lookup(key string) (model.CacheEntry, bool) {
	return s.cache.Lookup(key)
}

func (s *BridgeService) Health() model.Health {
	lastSync, lastErr := s.scheduler.LastSync()
	return model.Health{
		State:             s.scheduler.State().String(),
		ConsecutiveErrors: s.scheduler.ErrorCount(),
		LastSync:          lastSync,
		LastError:         lastErr,
		Lights:            len(s.cache.LightKeys()),
		Groups:            len(s.cache.GroupKeys()),
		Entries:           s.cache.Len(),
		StartedAt:         s.startedAt,
	}
}

func (s *BridgeService) Scheduler() *Scheduler {
	return s.scheduler
}
