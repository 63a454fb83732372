package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuspulse/engagement-api/internal/adapter"
	"github.com/campuspulse/engagement-api/internal/models"
	"github.com/campuspulse/engagement-api/internal/service"
)

type stubFrequency struct {
	counts []models.DailyCount
	events []models.FrequencyEvent
}

func (s *stubFrequency) DailyCounts(context.Context, models.FrequencyFilter) ([]models.DailyCount, error) {
	return s.counts, nil
}

func (s *stubFrequency) Events(context.Context, models.FrequencyFilter) ([]models.FrequencyEvent, error) {
	return s.events, nil
}

type stubTrends struct {
	snapshots []models.TrendSnapshot
	deleted   int64
}

func (s *stubTrends) List(context.Context, string, int64, int) ([]models.TrendSnapshot, error) {
	return s.snapshots, nil
}

func (s *stubTrends) DeleteHistory(context.Context, string, int64) (int64, error) {
	return s.deleted, nil
}

func newDashboardHandlerFixture(frequency *stubFrequency, trends *stubTrends, sources ...adapter.Source) *DashboardHandler {
	gin.SetMode(gin.TestMode)
	dashboards := service.NewDashboardService(frequency, trends, adapter.NewRegistry(sources, nil), nil, nil, nil, service.DashboardServiceConfig{})
	return NewDashboardHandler(dashboards, service.NewExportService(frequency))
}

func TestDashboardHandlerFrequencyRequiresYear(t *testing.T) {
	handler := newDashboardHandlerFixture(&stubFrequency{}, &stubTrends{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/frequency", nil)

	handler.Frequency(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardHandlerFrequencySuccess(t *testing.T) {
	handler := newDashboardHandlerFixture(&stubFrequency{counts: []models.DailyCount{
		{Day: 1, Month: 2, Year: 2026, Count: 5},
	}}, &stubTrends{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/frequency?year=2026", nil)

	handler.Frequency(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			Cells []map[string]interface{} `json:"cells"`
		} `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Cells, 1)
	assert.Equal(t, false, envelope.Meta["cached"])
}

func TestDashboardHandlerExportCSV(t *testing.T) {
	handler := newDashboardHandlerFixture(&stubFrequency{events: []models.FrequencyEvent{
		{Module: "quiz", InstanceID: 10, Name: "Midterm"},
	}}, &stubTrends{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/frequency/export?year=2026&format=csv", nil)

	handler.ExportFrequency(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "Midterm")
}

func TestDashboardHandlerTrendsBadInstanceID(t *testing.T) {
	handler := newDashboardHandlerFixture(&stubFrequency{}, &stubTrends{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/trends/quiz/abc", nil)
	c.Params = gin.Params{{Key: "module", Value: "quiz"}, {Key: "instanceID", Value: "abc"}}

	handler.Trends(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardHandlerTrendsUnknownModule(t *testing.T) {
	handler := newDashboardHandlerFixture(&stubFrequency{}, &stubTrends{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/trends/forum/10", nil)
	c.Params = gin.Params{{Key: "module", Value: "forum"}, {Key: "instanceID", Value: "10"}}

	handler.Trends(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardHandlerClearTrends(t *testing.T) {
	raw, _, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")
	handler := newDashboardHandlerFixture(&stubFrequency{}, &stubTrends{deleted: 3}, adapter.NewQuizSource(db))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/trends/quiz/10", nil)
	c.Params = gin.Params{{Key: "module", Value: "quiz"}, {Key: "instanceID", Value: "10"}}

	handler.ClearTrends(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, float64(3), envelope.Data["deleted"])
}
