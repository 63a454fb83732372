package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuspulse/engagement-api/internal/adapter"
	"github.com/campuspulse/engagement-api/internal/dto"
	"github.com/campuspulse/engagement-api/internal/models"
	appErrors "github.com/campuspulse/engagement-api/pkg/errors"
)

// FrequencyReader is the read surface of the frequency index.
type FrequencyReader interface {
	DailyCounts(ctx context.Context, filter models.FrequencyFilter) ([]models.DailyCount, error)
	Events(ctx context.Context, filter models.FrequencyFilter) ([]models.FrequencyEvent, error)
}

// TrendReader reads and clears trend history.
type TrendReader interface {
	List(ctx context.Context, module string, instanceID int64, limit int) ([]models.TrendSnapshot, error)
	DeleteHistory(ctx context.Context, module string, instanceID int64) (int64, error)
}

// DashboardServiceConfig tunes the read facade.
type DashboardServiceConfig struct {
	CacheTTL        time.Duration
	LookAheadHours  int
	LookBehindHours int
}

// DashboardService composes the read accessors consumed by the rendering
// layer: calendar heatmap, trend series, window partition and per-activity
// dashboards. A frequency index that has not been built yet renders as
// empty data, never as an error.
type DashboardService struct {
	frequency FrequencyReader
	trends    TrendReader
	registry  *adapter.Registry
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	validate  *validator.Validate
	now       func() time.Time
	cfg       DashboardServiceConfig
}

// NewDashboardService constructs the facade with sane defaults.
func NewDashboardService(frequency FrequencyReader, trends TrendReader, registry *adapter.Registry, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.LookAheadHours <= 0 {
		cfg.LookAheadHours = 8
	}
	if cfg.LookBehindHours <= 0 {
		cfg.LookBehindHours = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		frequency: frequency,
		trends:    trends,
		registry:  registry,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		validate:  validator.New(),
		now:       time.Now,
		cfg:       cfg,
	}
}

// FrequencyIndex returns the calendar heatmap for the query. The boolean
// indicates whether the payload came from cache.
func (s *DashboardService) FrequencyIndex(ctx context.Context, query dto.FrequencyQuery) (*dto.FrequencyIndexResponse, bool, error) {
	if err := s.validate.Struct(query); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid frequency query")
	}
	filter := FrequencyFilterFromQuery(query)

	cacheKey := dashboardCacheKey("frequency", fmt.Sprint(filter.Year), fmt.Sprint(filter.StartMonth), string(filter.Metric), strings.Join(filter.Modules, ","))
	var cached dto.FrequencyIndexResponse
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	start := time.Now()
	counts, err := s.frequency.DailyCounts(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("frequency_daily_counts", time.Since(start))
	}

	resp := &dto.FrequencyIndexResponse{
		Year:       filter.Year,
		StartMonth: filter.StartMonth,
		Metric:     string(filter.Metric),
		Cells:      []dto.CalendarCell{},
	}
	if len(counts) == 0 {
		return resp, false, nil
	}

	min, max := counts[0].Count, counts[0].Count
	for _, c := range counts[1:] {
		if c.Count < min {
			min = c.Count
		}
		if c.Count > max {
			max = c.Count
		}
	}

	var legend HeatLegend
	for _, c := range counts {
		level := HeatLevel(c.Count, min, max)
		legend.Observe(c.Count, level)
		resp.Cells = append(resp.Cells, dto.CalendarCell{
			Day:   c.Day,
			Month: c.Month,
			Year:  c.Year,
			Count: c.Count,
			Heat:  level,
		})
	}
	resp.Legend = legend.Entries()
	generated := s.now().UTC()
	resp.GeneratedAt = &generated

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, resp, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("cache frequency index", zap.Error(err))
		}
	}
	return resp, false, nil
}

// Trends returns the snapshot series for an instance, most recent first.
func (s *DashboardService) Trends(ctx context.Context, module string, instanceID int64, limit int) (*dto.TrendsResponse, error) {
	if _, ok := s.registry.Get(module); !ok {
		return nil, appErrors.Clone(appErrors.ErrUnknownModule, fmt.Sprintf("no adapter for module %q", module))
	}
	snapshots, err := s.trends.List(ctx, module, instanceID, limit)
	if err != nil {
		return nil, err
	}
	return &dto.TrendsResponse{Module: module, InstanceID: instanceID, Snapshots: snapshots}, nil
}

// ClearTrends deletes the snapshot history for an instance and returns the
// number of rows removed.
func (s *DashboardService) ClearTrends(ctx context.Context, module string, instanceID int64) (int64, error) {
	if _, ok := s.registry.Get(module); !ok {
		return 0, appErrors.Clone(appErrors.ErrUnknownModule, fmt.Sprintf("no adapter for module %q", module))
	}
	return s.trends.DeleteHistory(ctx, module, instanceID)
}

// Partition merges every enabled adapter's window partition at now.
func (s *DashboardService) Partition(ctx context.Context, query dto.PartitionQuery) (*dto.PartitionResponse, error) {
	if err := s.validate.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid partition query")
	}
	ahead := query.LookAheadHours
	if ahead == 0 {
		ahead = s.cfg.LookAheadHours
	}
	behind := query.LookBehindHours
	if behind == 0 {
		behind = s.cfg.LookBehindHours
	}
	modules := splitModules(query.Modules)

	now := s.now().UTC().Unix()
	merged := models.NewWindowPartition()
	for _, src := range s.registry.All() {
		if !moduleSelected(modules, src.ModuleName()) {
			continue
		}
		instances, err := src.TrackedInstancesWithOverrides(ctx, now, time.Duration(ahead)*time.Hour, time.Duration(behind)*time.Hour)
		if err != nil {
			return nil, err
		}
		part := PartitionWindow(instances, now, ahead, behind)
		merged.Merge(part)
	}
	return &dto.PartitionResponse{Now: now, Partition: merged}, nil
}

// ActivityDashboard returns the adapter's optional dashboard payload. The
// boolean reports whether the adapter provides the hook; absence is "no
// data", not an error.
func (s *DashboardService) ActivityDashboard(ctx context.Context, module string, instanceID int64) (map[string]interface{}, bool, error) {
	src, ok := s.registry.Get(module)
	if !ok {
		return nil, false, appErrors.Clone(appErrors.ErrUnknownModule, fmt.Sprintf("no adapter for module %q", module))
	}
	provider, ok := src.(adapter.DashboardProvider)
	if !ok {
		return nil, false, nil
	}
	data, err := provider.DashboardData(ctx, instanceID)
	if err != nil {
		return nil, true, err
	}
	return data, true, nil
}

// FrequencyFilterFromQuery maps the HTTP query onto a repository filter,
// defaulting an unknown metric to activity counts.
func FrequencyFilterFromQuery(query dto.FrequencyQuery) models.FrequencyFilter {
	metric := models.FrequencyMetric(query.Metric)
	if !metric.Valid() {
		metric = models.MetricActivities
	}
	return models.FrequencyFilter{
		Year:       query.Year,
		StartMonth: query.StartMonth,
		Metric:     metric,
		Modules:    splitModules(query.Modules),
	}
}

func splitModules(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	modules := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			modules = append(modules, trimmed)
		}
	}
	return modules
}

func moduleSelected(modules []string, name string) bool {
	if len(modules) == 0 {
		return true
	}
	for _, m := range modules {
		if m == name {
			return true
		}
	}
	return false
}

func dashboardCacheKey(parts ...string) string {
	var builder strings.Builder
	builder.WriteString("dashboard")
	for _, part := range parts {
		if part == "" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}
