package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bazaar/internal/engine"
	"github.com/roach88/bazaar/internal/event"
)

func TestCallCompleted(t *testing.T) {
	m := New()

	m.CallCompleted(engine.OpCreateStore, engine.OutcomeOK)
	m.CallCompleted(engine.OpCreateStore, engine.OutcomeOK)
	m.CallCompleted(engine.OpCreateStore, "UNAUTHORIZED")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.calls.WithLabelValues("create_store", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("create_store", "UNAUTHORIZED")))
}

func TestEventAppended(t *testing.T) {
	m := New()

	m.EventAppended(event.ProductPurchased)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("ProductPurchased")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.events))
}

func TestCustodyChanged(t *testing.T) {
	m := New()

	m.CustodyChanged(*uint256.NewInt(1500))
	assert.Equal(t, 1500.0, testutil.ToFloat64(m.custody))

	m.CustodyChanged(uint256.Int{})
	assert.Equal(t, 0.0, testutil.ToFloat64(m.custody))
}

func TestHTTPCounters(t *testing.T) {
	m := New()

	m.RequestServed("/v1/stores", http.StatusOK)
	m.RequestLimited()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/v1/stores", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.limited))
}

func TestHandler(t *testing.T) {
	m := New()
	m.CallCompleted(engine.OpOpenMarket, engine.OutcomeOK)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `bazaar_calls_total{op="open_market",outcome="OK"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
