package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/granttrack/internal/metrics"
)

func TestInstrumentHandler_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(metrics.InstrumentHandler)
	r.Get("/candidates/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", metrics.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/candidates/123", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	metrics.RecordTransition("candidate", "approve")
	metrics.RecordAdmission(metrics.Refused)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `granttrack_http_requests_total{method="GET",route="/candidates/{id}",status="418"}`)
	assert.Contains(t, string(body), `granttrack_workflow_transitions_total{action="approve",entity="candidate"}`)
	assert.Contains(t, string(body), `granttrack_ledger_admission_total{outcome="refused"}`)
}

func TestRecordReminders(t *testing.T) {
	metrics.RecordReminders(3)

	expected := `
# HELP granttrack_reminder_notices_total Outstanding-report notices dispatched by the scheduler.
# TYPE granttrack_reminder_notices_total counter
granttrack_reminder_notices_total 3
`
	err := testutil.GatherAndCompare(metrics.Registry, strings.NewReader(expected), "granttrack_reminder_notices_total")
	assert.NoError(t, err)
}
