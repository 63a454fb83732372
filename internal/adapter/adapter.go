// Package adapter exposes a uniform capability surface over the host
// platform's heterogeneous activity tables. Each activity type (quiz,
// assignment, lesson, workshop, data module) registers one Source; the
// aggregation and tracking jobs operate on the registry without knowing
// type identities. Optional behaviour is modelled as capability interfaces
// resolved with type assertions, so new types can be added without touching
// the jobs.
package adapter

import (
	"context"
	"time"

	"github.com/campuspulse/engagement-api/internal/models"
)

// Source is the contract every activity type implements. All methods are
// read-only against the host store.
type Source interface {
	// ModuleName is the stable type identifier, e.g. "quiz".
	ModuleName() string
	// OpenField, CloseField and TimeLimitField name the underlying columns
	// holding the window for this type. TimeLimitField returns "" for types
	// with no notion of a time limit.
	OpenField() string
	CloseField() string
	TimeLimitField() string
	// RequiredCapabilities a user must hold in the activity's course to be
	// counted as a participant.
	RequiredCapabilities() []string

	// Instances enumerates every instance whose open time is at or after
	// since, with override windows attached. Used by the aggregation job.
	Instances(ctx context.Context, since int64) ([]models.ActivityInstance, error)

	// TrackedInstances returns instances whose base open time falls within
	// [now-lookBehind, now+lookAhead] or whose close time is still at or
	// after now-lookBehind, tagged with override existence.
	TrackedInstances(ctx context.Context, now int64, lookAhead, lookBehind time.Duration) ([]models.ActivityInstance, error)

	// TrackedInstancesWithOverrides additionally includes instances whose
	// window falls inside the range for any individual override, with the
	// overriding records attached. A single overridden student can keep an
	// otherwise finished activity in progress, so this superset is what the
	// window partitioner consumes.
	TrackedInstancesWithOverrides(ctx context.Context, now int64, lookAhead, lookBehind time.Duration) ([]models.ActivityInstance, error)

	// ClassifyUserState splits users with attempt records on the instance
	// into in-progress and finished, using the type's own status vocabulary.
	ClassifyUserState(ctx context.Context, instanceID int64) (models.UserStates, error)
}

// DashboardProvider is an optional hook exposing a type-specific dashboard
// payload. Callers must check for it with a type assertion and treat its
// absence as "no data", never as an error.
type DashboardProvider interface {
	DashboardData(ctx context.Context, instanceID int64) (map[string]interface{}, error)
}

// Registry holds the enabled sources in stable registration order.
type Registry struct {
	order   []string
	sources map[string]Source
}

// NewRegistry builds a registry from the given sources, keeping only those
// whose module name appears in enabled. An empty enabled list keeps all.
func NewRegistry(sources []Source, enabled []string) *Registry {
	keep := func(string) bool { return true }
	if len(enabled) > 0 {
		set := make(map[string]struct{}, len(enabled))
		for _, name := range enabled {
			set[name] = struct{}{}
		}
		keep = func(name string) bool {
			_, ok := set[name]
			return ok
		}
	}

	r := &Registry{sources: make(map[string]Source)}
	for _, src := range sources {
		name := src.ModuleName()
		if !keep(name) {
			continue
		}
		if _, dup := r.sources[name]; dup {
			continue
		}
		r.order = append(r.order, name)
		r.sources[name] = src
	}
	return r
}

// Get returns the source for a module name.
func (r *Registry) Get(module string) (Source, bool) {
	src, ok := r.sources[module]
	return src, ok
}

// All returns the sources in registration order.
func (r *Registry) All() []Source {
	out := make([]Source, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.sources[name])
	}
	return out
}

// Len returns the number of enabled sources.
func (r *Registry) Len() int {
	return len(r.order)
}
