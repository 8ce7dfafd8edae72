package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsRegistered(t *testing.T) {
	ActivityRecorded.WithLabelValues("match").Inc()
	BadgesGranted.WithLabelValues("streak_3").Inc()
	ReportsGenerated.WithLabelValues("monthly", "false").Inc()
	ReportDuration.WithLabelValues("monthly").Observe(0.2)
	TaskSetsGenerated.Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	for _, name := range []string{
		"heartline_activity_events_total",
		"heartline_badges_granted_total",
		"heartline_reports_generated_total",
		"heartline_report_generation_seconds",
		"heartline_daily_task_sets_generated_total",
	} {
		assert.True(t, names[name], "metric %q not found", name)
	}
}

func TestActivityCounterIncrements(t *testing.T) {
	before := testutil.ToFloat64(ActivityRecorded.WithLabelValues("login"))
	ActivityRecorded.WithLabelValues("login").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(ActivityRecorded.WithLabelValues("login")))
}

func TestHandlerServesMetrics(t *testing.T) {
	GoalsCompleted.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "heartline_goals_completed_total")
}
