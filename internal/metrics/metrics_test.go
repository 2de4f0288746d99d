package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oldphonedeals/internal/cache"
	"oldphonedeals/internal/listview"
)

var (
	_ listview.Observer = (*Metrics)(nil)
	_ cache.Observer    = (*Metrics)(nil)
)

func TestObserveLoad(t *testing.T) {
	m := New()

	m.ObserveLoad("search", listview.StrategyServer, listview.OutcomeOK, 20*time.Millisecond)
	m.ObserveLoad("search", listview.StrategyServer, listview.OutcomeOK, 30*time.Millisecond)
	m.ObserveLoad("search", listview.StrategyClient, listview.OutcomeSuperseded, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.loads.WithLabelValues("search", "server", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loads.WithLabelValues("search", "client", "superseded")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.ObserveCache(cache.ResultHit)
	m.SetMounted(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `oldphonedeals_cache_requests_total{result="hit"} 1`)
	assert.Contains(t, body, "oldphonedeals_listview_mounted 3")
}
