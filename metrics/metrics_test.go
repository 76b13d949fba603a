package metrics_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-engine/calendar"
	"github.com/warp/shift-engine/engine"
	"github.com/warp/shift-engine/metrics"
)

func TestMetrics_ObservesEngine(t *testing.T) {
	m := metrics.New()
	e := engine.New(engine.WithObserver(m))
	ctx := context.Background()

	u, err := e.AddUser(ctx, "John", "Doe", decimal.NewFromInt(20))
	require.NoError(t, err)
	_, err = e.AddUser(ctx, "", "Doe", decimal.NewFromInt(20))
	require.Error(t, err)

	e.Click("s", calendar.NewDate(2025, time.October, 1))
	e.Click("s", calendar.NewDate(2025, time.October, 2))
	_, err = e.Confirm(ctx, "s", u.ID, calendar.MustTimeOfDay("09:00"), calendar.MustTimeOfDay("17:00"))
	require.NoError(t, err)
	require.NoError(t, e.DeleteUser(ctx, u.ID))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.OperationsTotal.WithLabelValues("add_user", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OperationsTotal.WithLabelValues("add_user", "validation")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.EventsCreatedTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.EventsRemovedTotal.WithLabelValues("cascade")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.Users))
}

func TestMetrics_HTTPMiddlewareAndHandler(t *testing.T) {
	m := metrics.New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", m.Handler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/1", nil))
	}
	assert.Equal(t, float64(3),
		testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/users/{id}", "204")))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "shift_engine_http_requests_total")
	assert.Contains(t, string(body), "go_goroutines")
}
