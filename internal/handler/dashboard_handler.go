package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campuspulse/engagement-api/internal/dto"
	"github.com/campuspulse/engagement-api/internal/service"
	appErrors "github.com/campuspulse/engagement-api/pkg/errors"
	"github.com/campuspulse/engagement-api/pkg/response"
)

// DashboardHandler exposes the report read endpoints.
type DashboardHandler struct {
	dashboards *service.DashboardService
	exports    *service.ExportService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboards *service.DashboardService, exports *service.ExportService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, exports: exports}
}

// Frequency returns the calendar heatmap for a year.
func (h *DashboardHandler) Frequency(c *gin.Context) {
	var query dto.FrequencyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query"))
		return
	}
	result, cached, err := h.dashboards.FrequencyIndex(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, map[string]interface{}{"cached": cached})
}

// ExportFrequency streams the frequency index as CSV or PDF.
func (h *DashboardHandler) ExportFrequency(c *gin.Context) {
	var query dto.FrequencyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query"))
		return
	}
	filter := service.FrequencyFilterFromQuery(query)
	format := c.DefaultQuery("format", service.FormatCSV)

	result, err := h.exports.ExportFrequency(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

// Trends lists trend snapshots for one activity instance.
func (h *DashboardHandler) Trends(c *gin.Context) {
	instanceID, err := parseInstanceID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	result, err := h.dashboards.Trends(c.Request.Context(), c.Param("module"), instanceID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// ClearTrends deletes the trend history for one activity instance.
func (h *DashboardHandler) ClearTrends(c *gin.Context) {
	instanceID, err := parseInstanceID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	deleted, err := h.dashboards.ClearTrends(c.Request.Context(), c.Param("module"), instanceID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, map[string]interface{}{"deleted": deleted})
}

// Partition returns the merged hour-bucketed activity window partition.
func (h *DashboardHandler) Partition(c *gin.Context) {
	var query dto.PartitionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query"))
		return
	}
	result, err := h.dashboards.Partition(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// ActivityDashboard returns the module-specific dashboard payload, if the
// module provides one.
func (h *DashboardHandler) ActivityDashboard(c *gin.Context) {
	instanceID, err := parseInstanceID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	data, supported, err := h.dashboards.ActivityDashboard(c.Request.Context(), c.Param("module"), instanceID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, map[string]interface{}{
		"module":      c.Param("module"),
		"instance_id": instanceID,
		"supported":   supported,
		"data":        data,
	})
}

func parseInstanceID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("instanceID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "instanceID must be a positive integer")
	}
	return id, nil
}
