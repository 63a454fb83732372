package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campuspulse/engagement-api/internal/adapter"
	"github.com/campuspulse/engagement-api/internal/models"
	appErrors "github.com/campuspulse/engagement-api/pkg/errors"
)

// Job classes and the shared mutual-exclusion domain for frequency
// rebuilds. The periodic pass and the full reprocess both regenerate the
// same index, so exactly one may hold the rebuild lock at a time.
const (
	JobAggregationPeriodic = "aggregation:periodic"
	JobAggregationFull     = "aggregation:full"
	frequencyRebuildLock   = "frequency_rebuild"
)

// FrequencyWriter is the persistence surface the aggregation job rebuilds.
type FrequencyWriter interface {
	InsertBatch(ctx context.Context, events []models.FrequencyEvent) error
	DeleteFrom(ctx context.Context, cutoff int64) (int64, error)
}

// ParticipationWriter rebuilds the per-instance participant index.
type ParticipationWriter interface {
	ReplaceForModule(ctx context.Context, module string, rows []models.Participation) error
}

// CapabilityReader resolves which users count as participants in a course.
type CapabilityReader interface {
	UsersWithCapabilities(ctx context.Context, courseID int64, capabilities []string) ([]int64, error)
}

// PendingChecker answers whether an ad-hoc job of a class is queued.
type PendingChecker interface {
	Pending(class string) bool
}

// AggregationService rebuilds the frequency index: a light periodic pass
// over future-dated events, or a full historical reprocess. Runs
// Delete -> ProcessSite -> ProcessUser; every phase emits a completion
// event. Idempotent by design: the delete phase always precedes recompute,
// so a retried pass converges to the same row set.
type AggregationService struct {
	registry      *adapter.Registry
	frequency     FrequencyWriter
	participation ParticipationWriter
	capabilities  CapabilityReader
	pending       PendingChecker
	locker        Locker
	cache         *CacheService
	metrics       *MetricsService
	logger        *zap.Logger
	now           func() time.Time
}

// AggregationServiceParams groups constructor dependencies.
type AggregationServiceParams struct {
	Registry      *adapter.Registry
	Frequency     FrequencyWriter
	Participation ParticipationWriter
	Capabilities  CapabilityReader
	Pending       PendingChecker
	Locker        Locker
	Cache         *CacheService
	Metrics       *MetricsService
	Logger        *zap.Logger
}

// NewAggregationService constructs the aggregation job service.
func NewAggregationService(params AggregationServiceParams) *AggregationService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AggregationService{
		registry:      params.Registry,
		frequency:     params.Frequency,
		participation: params.Participation,
		capabilities:  params.Capabilities,
		pending:       params.Pending,
		locker:        params.Locker,
		cache:         params.Cache,
		metrics:       params.Metrics,
		logger:        logger,
		now:           time.Now,
	}
}

// RunPeriodic executes the light pass: future-dated rows only. When a full
// reprocess is queued the pass steps aside so at most one regeneration is
// ever in flight.
func (s *AggregationService) RunPeriodic(ctx context.Context) error {
	if s.pending != nil && s.pending.Pending(JobAggregationFull) {
		s.logger.Info("full reprocess queued, skipping periodic aggregation")
		return nil
	}
	return s.run(ctx, s.now().UTC().Unix())
}

// RunFull executes the historical reprocess over all events since epoch.
// Fails fast with ErrJobRunning when the periodic pass holds the lock,
// letting the scheduler apply its retry-with-backoff instead of silently
// queuing behind a stale index.
func (s *AggregationService) RunFull(ctx context.Context) error {
	return s.run(ctx, 0)
}

func (s *AggregationService) run(ctx context.Context, cutoff int64) error {
	if s.registry == nil || s.registry.Len() == 0 {
		s.logger.Warn("no activity adapters enabled, aggregation exits with zero work")
		return nil
	}

	lease, err := s.locker.Acquire(ctx, frequencyRebuildLock)
	if err != nil {
		if errors.Is(err, ErrLockHeld) {
			return appErrors.Clone(appErrors.ErrJobRunning, "frequency rebuild already in flight")
		}
		return fmt.Errorf("acquire rebuild lock: %w", err)
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("release rebuild lock", zap.Error(err))
		}
	}()

	if err := s.deletePhase(ctx, cutoff); err != nil {
		return err
	}
	if err := s.processPhases(ctx, cutoff); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
			s.logger.Warn("invalidate dashboard cache", zap.Error(err))
		}
	}
	return nil
}

func (s *AggregationService) deletePhase(ctx context.Context, cutoff int64) error {
	start := time.Now()
	removed, err := s.frequency.DeleteFrom(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete phase: %w", err)
	}
	s.emit(models.ActionDelete, int(removed), time.Since(start))
	return nil
}

// processPhases runs ProcessSite and ProcessUser over one enumeration of
// the adapters, so participant lookups are shared between the two row
// scopes.
func (s *AggregationService) processPhases(ctx context.Context, cutoff int64) error {
	siteStart := time.Now()

	var siteRows []models.FrequencyEvent
	userRowsByModule := make(map[string][]models.FrequencyEvent)
	participationByModule := make(map[string][]models.Participation)
	instanceCount := 0

	for _, src := range s.registry.All() {
		module := src.ModuleName()
		instances, err := src.Instances(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("site phase: %w", err)
		}
		for _, inst := range instances {
			inst.Module = module
			open, _ := inst.EffectiveWindow()
			if open <= 0 {
				continue
			}
			participants, err := s.capabilities.UsersWithCapabilities(ctx, inst.CourseID, src.RequiredCapabilities())
			if err != nil {
				return fmt.Errorf("site phase participants: %w", err)
			}

			// The delete phase only cleared rows dated at or after the
			// cutoff. An override can date a row earlier than that; such
			// rows are immutable history and re-inserting them every pass
			// would duplicate them.
			if open >= cutoff {
				siteRows = append(siteRows, frequencyRow(inst, open, models.ScopeSite, len(participants), 0))
			}
			for _, userID := range participants {
				userOpen := userEffectiveOpen(inst, userID, open)
				if userOpen >= cutoff {
					userRowsByModule[module] = append(userRowsByModule[module], frequencyRow(inst, userOpen, models.ScopeUser, 0, userID))
				}
				participationByModule[module] = append(participationByModule[module], models.Participation{
					Module:     module,
					InstanceID: inst.ID,
					CourseID:   inst.CourseID,
					UserID:     userID,
				})
			}
			instanceCount++
		}
	}

	if err := s.frequency.InsertBatch(ctx, siteRows); err != nil {
		return fmt.Errorf("site phase insert: %w", err)
	}
	s.emit(models.ActionSite, instanceCount, time.Since(siteStart))

	userStart := time.Now()
	userRowCount := 0
	for _, src := range s.registry.All() {
		module := src.ModuleName()
		rows := userRowsByModule[module]
		if err := s.frequency.InsertBatch(ctx, rows); err != nil {
			return fmt.Errorf("user phase insert: %w", err)
		}
		if err := s.participation.ReplaceForModule(ctx, module, participationByModule[module]); err != nil {
			return fmt.Errorf("user phase participation: %w", err)
		}
		userRowCount += len(rows)
	}
	s.emit(models.ActionUser, userRowCount, time.Since(userStart))
	return nil
}

func (s *AggregationService) emit(action string, instances int, duration time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveJobPhase(action, instances, duration)
	}
	s.logger.Info("aggregation phase complete",
		zap.String("action", action),
		zap.Float64("duration_seconds", duration.Seconds()),
		zap.Int("instance_count", instances),
	)
}

func frequencyRow(inst models.ActivityInstance, open int64, scope string, participants int, userID int64) models.FrequencyEvent {
	day := time.Unix(open, 0).UTC()
	event := models.FrequencyEvent{
		Module:       inst.Module,
		InstanceID:   inst.ID,
		CourseID:     inst.CourseID,
		Name:         inst.Name,
		URL:          fmt.Sprintf("/mod/%s/view?id=%d", inst.Module, inst.ID),
		TimeOpen:     open,
		Day:          day.Day(),
		Month:        int(day.Month()),
		Year:         day.Year(),
		Scope:        scope,
		Participants: participants,
	}
	if scope == models.ScopeUser {
		event.UserID.Valid = true
		event.UserID.Int64 = userID
	}
	return event
}

// userEffectiveOpen applies a user-level override to the instance's open
// time. Group overrides already widened the instance window via
// EffectiveWindow; per-user rows only shift for overrides naming the user.
func userEffectiveOpen(inst models.ActivityInstance, userID, fallback int64) int64 {
	for _, ov := range inst.Overrides {
		if ov.UserID.Valid && ov.UserID.Int64 == userID && ov.TimeOpen.Valid && ov.TimeOpen.Int64 > 0 {
			return ov.TimeOpen.Int64
		}
	}
	return fallback
}
