package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuspulse/engagement-api/internal/dto"
	"github.com/campuspulse/engagement-api/internal/service"
	appErrors "github.com/campuspulse/engagement-api/pkg/errors"
	"github.com/campuspulse/engagement-api/pkg/response"
	"github.com/campuspulse/engagement-api/pkg/sched"
)

// AdminHandler exposes job control endpoints.
type AdminHandler struct {
	scheduler *sched.Scheduler
	metrics   *service.MetricsService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(scheduler *sched.Scheduler, metrics *service.MetricsService) *AdminHandler {
	return &AdminHandler{scheduler: scheduler, metrics: metrics}
}

// Aggregate queues a full frequency index reprocess. A rebuild already in
// flight or already queued is a conflict, not a second run.
func (h *AdminHandler) Aggregate(c *gin.Context) {
	if h.scheduler.Holding(service.JobAggregationPeriodic) || h.scheduler.Holding(service.JobAggregationFull) {
		response.Error(c, appErrors.Clone(appErrors.ErrJobRunning, "aggregation already running"))
		return
	}
	if err := h.scheduler.Enqueue(service.JobAggregationFull); err != nil {
		if errors.Is(err, sched.ErrAlreadyQueued) {
			response.Error(c, appErrors.Clone(appErrors.ErrJobPending, "full reprocess already queued"))
			return
		}
		response.Error(c, err)
		return
	}
	payload := map[string]interface{}{"job": service.JobAggregationFull}
	if claims := claimsFromContext(c); claims != nil {
		payload["requested_by"] = claims.UserID
	}
	response.Accepted(c, payload)
}

// Jobs reports scheduler state, recent completion events and counters.
func (h *AdminHandler) Jobs(c *gin.Context) {
	result := dto.JobStatusResponse{
		Jobs:    h.scheduler.Statuses(),
		Events:  h.metrics.RecentEvents(),
		Metrics: h.metrics.Snapshot(),
	}
	response.JSON(c, http.StatusOK, result)
}
