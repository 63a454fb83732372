package adapter

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campuspulse/engagement-api/internal/models"
)

// sourceSpec declares the table and column layout of one activity type in
// the host store, plus how its attempt vocabulary maps onto the two-way
// in-progress/finished split. Everything else in baseSource is generic.
type sourceSpec struct {
	module       string
	table        string
	courseField  string
	nameField    string
	openField    string
	closeField   string
	limitField   string // "" when the type has no time limit
	capabilities []string

	overrideTable string // "" when the type has no overrides
	overrideFK    string
	ovOpenField   string
	ovCloseField  string
	ovLimitField  string

	attemptTable   string
	attemptFK      string
	statusField    string
	finishedStates []string
}

// baseSource implements Source for any sourceSpec.
type baseSource struct {
	db   *sqlx.DB
	spec sourceSpec
}

func newBaseSource(db *sqlx.DB, spec sourceSpec) *baseSource {
	return &baseSource{db: db, spec: spec}
}

func (s *baseSource) ModuleName() string             { return s.spec.module }
func (s *baseSource) OpenField() string              { return s.spec.openField }
func (s *baseSource) CloseField() string             { return s.spec.closeField }
func (s *baseSource) TimeLimitField() string         { return s.spec.limitField }
func (s *baseSource) RequiredCapabilities() []string { return s.spec.capabilities }

// selectColumns projects the type's columns onto the generic instance
// shape. alias may be empty.
func (s *baseSource) selectColumns(alias string) string {
	p := alias
	if p != "" {
		p += "."
	}
	limit := "0"
	if s.spec.limitField != "" {
		limit = p + s.spec.limitField
	}
	return fmt.Sprintf("%sid, %s%s AS course_id, %s%s AS name, %s%s AS time_open, %s%s AS time_close, %s AS time_limit",
		p, p, s.spec.courseField, p, s.spec.nameField, p, s.spec.openField, p, s.spec.closeField, limit)
}

func (s *baseSource) Instances(ctx context.Context, since int64) ([]models.ActivityInstance, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s > 0 AND %s >= $1 ORDER BY id",
		s.selectColumns(""), s.spec.table, s.spec.openField, s.spec.openField)

	var instances []models.ActivityInstance
	if err := s.db.SelectContext(ctx, &instances, query, since); err != nil {
		return nil, fmt.Errorf("%s: list instances: %w", s.spec.module, err)
	}
	for i := range instances {
		instances[i].Module = s.spec.module
	}
	if err := s.attachOverrides(ctx, instances, false); err != nil {
		return nil, err
	}
	return instances, nil
}

func (s *baseSource) TrackedInstances(ctx context.Context, now int64, lookAhead, lookBehind time.Duration) ([]models.ActivityInstance, error) {
	from := now - int64(lookBehind.Seconds())
	to := now + int64(lookAhead.Seconds())

	hasOverride := "FALSE AS has_override"
	if s.spec.overrideTable != "" {
		hasOverride = fmt.Sprintf("EXISTS (SELECT 1 FROM %s o WHERE o.%s = t.id) AS has_override",
			s.spec.overrideTable, s.spec.overrideFK)
	}
	query := fmt.Sprintf("SELECT %s, %s FROM %s t WHERE (t.%s BETWEEN $1 AND $2) OR t.%s >= $1 ORDER BY t.id",
		s.selectColumns("t"), hasOverride, s.spec.table, s.spec.openField, s.spec.closeField)

	var instances []models.ActivityInstance
	if err := s.db.SelectContext(ctx, &instances, query, from, to); err != nil {
		return nil, fmt.Errorf("%s: list tracked instances: %w", s.spec.module, err)
	}
	for i := range instances {
		instances[i].Module = s.spec.module
	}
	return instances, nil
}

func (s *baseSource) TrackedInstancesWithOverrides(ctx context.Context, now int64, lookAhead, lookBehind time.Duration) ([]models.ActivityInstance, error) {
	instances, err := s.TrackedInstances(ctx, now, lookAhead, lookBehind)
	if err != nil {
		return nil, err
	}
	if s.spec.overrideTable == "" {
		return instances, nil
	}

	from := now - int64(lookBehind.Seconds())
	to := now + int64(lookAhead.Seconds())

	// Instances pulled into the window by an individual override, even when
	// the base window falls entirely outside the range.
	query := fmt.Sprintf(`SELECT DISTINCT %s, TRUE AS has_override FROM %s t
		JOIN %s o ON o.%s = t.id
		WHERE (o.%s BETWEEN $1 AND $2) OR (o.%s IS NOT NULL AND o.%s >= $1)`,
		s.selectColumns("t"), s.spec.table,
		s.spec.overrideTable, s.spec.overrideFK,
		s.spec.ovOpenField, s.spec.ovCloseField, s.spec.ovCloseField)

	var overridden []models.ActivityInstance
	if err := s.db.SelectContext(ctx, &overridden, query, from, to); err != nil {
		return nil, fmt.Errorf("%s: list overridden instances: %w", s.spec.module, err)
	}

	seen := make(map[int64]int, len(instances))
	for i, inst := range instances {
		seen[inst.ID] = i
	}
	for _, inst := range overridden {
		inst.Module = s.spec.module
		if i, ok := seen[inst.ID]; ok {
			instances[i].HasOverride = true
			continue
		}
		instances = append(instances, inst)
	}
	sort.Slice(instances, func(i, j int) bool { return instances[i].ID < instances[j].ID })

	if err := s.attachOverrides(ctx, instances, true); err != nil {
		return nil, err
	}
	return instances, nil
}

// attachOverrides loads the override records for the given instances. When
// flaggedOnly is set, only instances already tagged has_override are
// queried; otherwise every instance is checked and tagged.
func (s *baseSource) attachOverrides(ctx context.Context, instances []models.ActivityInstance, flaggedOnly bool) error {
	if s.spec.overrideTable == "" || len(instances) == 0 {
		return nil
	}

	var ids []int64
	for _, inst := range instances {
		if flaggedOnly && !inst.HasOverride {
			continue
		}
		ids = append(ids, inst.ID)
	}
	if len(ids) == 0 {
		return nil
	}

	limit := "NULL"
	if s.spec.ovLimitField != "" {
		limit = s.spec.ovLimitField
	}
	query := fmt.Sprintf(`SELECT id, %s AS instance_id, userid AS user_id, groupid AS group_id,
		%s AS time_open, %s AS time_close, %s AS time_limit
		FROM %s WHERE %s = ANY($1) ORDER BY id`,
		s.spec.overrideFK, s.spec.ovOpenField, s.spec.ovCloseField, limit,
		s.spec.overrideTable, s.spec.overrideFK)

	var overrides []models.OverrideWindow
	if err := s.db.SelectContext(ctx, &overrides, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("%s: load overrides: %w", s.spec.module, err)
	}

	byInstance := make(map[int64][]models.OverrideWindow, len(overrides))
	for _, ov := range overrides {
		byInstance[ov.InstanceID] = append(byInstance[ov.InstanceID], ov)
	}
	for i := range instances {
		if ovs, ok := byInstance[instances[i].ID]; ok {
			instances[i].Overrides = ovs
			instances[i].HasOverride = true
		}
	}
	return nil
}

func (s *baseSource) ClassifyUserState(ctx context.Context, instanceID int64) (models.UserStates, error) {
	states := models.NewUserStates()

	// Latest attempt per user decides the classification.
	query := fmt.Sprintf(`SELECT DISTINCT ON (userid) userid AS user_id, %s AS status
		FROM %s WHERE %s = $1 ORDER BY userid, id DESC`,
		s.spec.statusField, s.spec.attemptTable, s.spec.attemptFK)

	type attemptRow struct {
		UserID int64  `db:"user_id"`
		Status string `db:"status"`
	}
	var rows []attemptRow
	if err := s.db.SelectContext(ctx, &rows, query, instanceID); err != nil {
		return states, fmt.Errorf("%s: classify attempts: %w", s.spec.module, err)
	}

	finished := make(map[string]struct{}, len(s.spec.finishedStates))
	for _, st := range s.spec.finishedStates {
		finished[st] = struct{}{}
	}
	for _, row := range rows {
		if _, ok := finished[row.Status]; ok {
			states.Finished[row.UserID] = struct{}{}
		} else {
			states.InProgress[row.UserID] = struct{}{}
		}
	}
	return states, nil
}
