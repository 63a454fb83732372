package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campuspulse/engagement-api/internal/adapter"
	"github.com/campuspulse/engagement-api/internal/models"
	appErrors "github.com/campuspulse/engagement-api/pkg/errors"
)

// ParticipationReader resolves the tracked participants of an instance.
type ParticipationReader interface {
	UserIDs(ctx context.Context, module string, instanceID int64) ([]int64, error)
}

// SessionReader answers which users have an active session.
type SessionReader interface {
	ActiveUsers(ctx context.Context, userIDs []int64, threshold int64) (map[int64]bool, error)
}

// TrendWriter appends trend snapshots.
type TrendWriter interface {
	Insert(ctx context.Context, snapshot *models.TrendSnapshot) error
}

// TrackingServiceConfig tunes the tracking window.
type TrackingServiceConfig struct {
	LookAhead      time.Duration
	LookBehind     time.Duration
	SessionTimeout time.Duration
}

// TrackingService computes per-user engagement states for every activity
// instance active within the sliding window and appends one trend snapshot
// per instance per run. Pure inserts: a retried run after partial failure
// produces an extra snapshot, never corrupted state.
type TrackingService struct {
	registry      *adapter.Registry
	participation ParticipationReader
	sessions      SessionReader
	trends        TrendWriter
	metrics       *MetricsService
	logger        *zap.Logger
	now           func() time.Time
	cfg           TrackingServiceConfig
}

// NewTrackingService constructs the tracking job service.
func NewTrackingService(registry *adapter.Registry, participation ParticipationReader, sessions SessionReader, trends TrendWriter, metrics *MetricsService, logger *zap.Logger, cfg TrackingServiceConfig) *TrackingService {
	if cfg.LookAhead <= 0 {
		cfg.LookAhead = 8 * time.Hour
	}
	if cfg.LookBehind <= 0 {
		cfg.LookBehind = 8 * time.Hour
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = 30 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackingService{
		registry:      registry,
		participation: participation,
		sessions:      sessions,
		trends:        trends,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
		cfg:           cfg,
	}
}

// TrackModule runs one tracking pass for a single activity type.
func (s *TrackingService) TrackModule(ctx context.Context, module string) error {
	src, ok := s.registry.Get(module)
	if !ok {
		return appErrors.Clone(appErrors.ErrUnknownModule, fmt.Sprintf("no adapter for module %q", module))
	}

	start := time.Now()
	now := s.now().UTC().Unix()

	instances, err := src.TrackedInstancesWithOverrides(ctx, now, s.cfg.LookAhead, s.cfg.LookBehind)
	if err != nil {
		return fmt.Errorf("track %s: %w", module, err)
	}

	// One batched session lookup over the union of all participants.
	participants := make(map[int64][]int64, len(instances))
	union := make(map[int64]struct{})
	for _, inst := range instances {
		ids, err := s.participation.UserIDs(ctx, module, inst.ID)
		if err != nil {
			return fmt.Errorf("track %s participants: %w", module, err)
		}
		participants[inst.ID] = ids
		for _, id := range ids {
			union[id] = struct{}{}
		}
	}
	unionIDs := make([]int64, 0, len(union))
	for id := range union {
		unionIDs = append(unionIDs, id)
	}
	threshold := now - int64(s.cfg.SessionTimeout.Seconds())
	active, err := s.sessions.ActiveUsers(ctx, unionIDs, threshold)
	if err != nil {
		return fmt.Errorf("track %s sessions: %w", module, err)
	}

	for _, inst := range instances {
		states, err := src.ClassifyUserState(ctx, inst.ID)
		if err != nil {
			return fmt.Errorf("track %s classify: %w", module, err)
		}

		var counts models.StateCounts
		for _, userID := range participants[inst.ID] {
			switch {
			case contains(states.InProgress, userID):
				counts.InProgress++
			case contains(states.Finished, userID):
				counts.Finished++
			case active[userID]:
				counts.LoggedIn++
			default:
				counts.NotLoggedIn++
			}
		}

		snapshot := &models.TrendSnapshot{
			Module:      module,
			InstanceID:  inst.ID,
			StateCounts: counts,
			CreatedAt:   time.Unix(now, 0).UTC(),
		}
		if err := s.trends.Insert(ctx, snapshot); err != nil {
			return fmt.Errorf("track %s snapshot: %w", module, err)
		}
	}

	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveJobPhase(models.ActionTrack, len(instances), duration)
	}
	s.logger.Info("tracking run complete",
		zap.String("action", models.ActionTrack),
		zap.String("module", module),
		zap.Float64("duration_seconds", duration.Seconds()),
		zap.Int("instance_count", len(instances)),
	)
	return nil
}

func contains(set map[int64]struct{}, id int64) bool {
	_, ok := set[id]
	return ok
}
