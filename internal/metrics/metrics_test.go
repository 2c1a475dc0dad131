package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Reservation("reserved")
	m.Reservation("reserved")
	m.Reservation("conflict")
	m.QuotasReserved(3)
	m.QuotasReserved(0)
	m.Fallback()
	m.StoreConflict()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.reservations.WithLabelValues("reserved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reservations.WithLabelValues("conflict")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.quotas))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallbacks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conflicts))
}

func TestNilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Reservation("reserved")
		m.QuotasReserved(1)
		m.Fallback()
		m.StoreConflict()
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.Fallback()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "presentes_list_fallback_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
