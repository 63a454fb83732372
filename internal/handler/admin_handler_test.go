package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuspulse/engagement-api/internal/service"
	"github.com/campuspulse/engagement-api/pkg/sched"
)

func newAdminFixture(t *testing.T, fn sched.JobFunc) (*AdminHandler, *sched.Scheduler, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	scheduler := sched.New(nil)
	scheduler.RegisterAdhoc(service.JobAggregationFull, fn)
	ctx, cancel := context.WithCancel(context.Background())
	scheduler.Start(ctx)
	handler := NewAdminHandler(scheduler, service.NewMetricsService())
	return handler, scheduler, func() {
		cancel()
		scheduler.Stop()
	}
}

func TestAdminHandlerAggregateAccepted(t *testing.T) {
	release := make(chan struct{})
	handler, _, cleanup := newAdminFixture(t, func(context.Context) error {
		<-release
		return nil
	})
	defer cleanup()
	defer close(release)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/aggregate", nil)

	handler.Aggregate(c)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestAdminHandlerAggregateConflictWhenQueued(t *testing.T) {
	release := make(chan struct{})
	handler, scheduler, cleanup := newAdminFixture(t, func(context.Context) error {
		<-release
		return nil
	})
	defer cleanup()
	defer close(release)

	require.NoError(t, scheduler.Enqueue(service.JobAggregationFull))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/aggregate", nil)

	handler.Aggregate(c)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "JOB_PENDING", envelope.Error.Code)
}

func TestAdminHandlerAggregateConflictWhenPeriodicRunning(t *testing.T) {
	gin.SetMode(gin.TestMode)
	scheduler := sched.New(nil)
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	scheduler.RegisterPeriodic(service.JobAggregationPeriodic, 10*time.Millisecond, func(context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	})
	scheduler.RegisterAdhoc(service.JobAggregationFull, func(context.Context) error { return nil })
	ctx, cancel := context.WithCancel(context.Background())
	scheduler.Start(ctx)
	defer func() {
		close(release)
		cancel()
		scheduler.Stop()
	}()

	<-started
	handler := NewAdminHandler(scheduler, service.NewMetricsService())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/aggregate", nil)

	handler.Aggregate(c)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "JOB_RUNNING", envelope.Error.Code)
}

func TestAdminHandlerJobs(t *testing.T) {
	handler, _, cleanup := newAdminFixture(t, func(context.Context) error { return nil })
	defer cleanup()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/jobs", nil)

	handler.Jobs(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			Jobs    []map[string]interface{} `json:"jobs"`
			Metrics map[string]interface{}   `json:"metrics"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Jobs, 1)
	assert.Equal(t, service.JobAggregationFull, envelope.Data.Jobs[0]["name"])
	assert.NotNil(t, envelope.Data.Metrics)
}
