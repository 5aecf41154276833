package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bazaar/internal/content"
	"github.com/roach88/bazaar/internal/engine"
	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/metrics"
	"github.com/roach88/bazaar/internal/safemath"
	"github.com/roach88/bazaar/internal/store"
	"github.com/roach88/bazaar/internal/wallet"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	srv     *httptest.Server
	engine  *engine.Engine
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, engine.Initialize(ctx, st, "owner", []wallet.Account{
		{Principal: "dave", Balance: safemath.FromUint64(100)},
	}))
	e, err := engine.Open(ctx, st,
		engine.WithLogger(discard),
		engine.WithCallIDs(engine.NewSequentialGenerator("call")),
	)
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = e.Run(runCtx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	m := metrics.New()
	opts = append([]Option{
		WithLogger(discard),
		WithContent(content.NewMemory()),
		WithMetrics(m),
	}, opts...)
	s := New(e, opts...)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &fixture{srv: srv, engine: e, metrics: m}
}

func (f *fixture) do(t *testing.T, method, path, principal string, body []byte) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	if principal != "" {
		req.Header.Set(PrincipalHeader, principal)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func (f *fixture) call(t *testing.T, op engine.Op, principal, body string) (int, []byte) {
	t.Helper()
	return f.do(t, http.MethodPost, "/v1/calls/"+string(op), principal, []byte(body))
}

func (f *fixture) mustCall(t *testing.T, op engine.Op, principal, body string) callResponse {
	t.Helper()
	status, out := f.call(t, op, principal, body)
	require.Equal(t, http.StatusOK, status, "%s: %s", op, out)
	var resp callResponse
	require.NoError(t, json.Unmarshal(out, &resp))
	return resp
}

func decodeError(t *testing.T, out []byte) errorBody {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(out, &resp), string(out))
	return resp.Error
}

// seed makes alice an administrator and bob the owner of store 0 holding
// product 0 at price 3 with 10 in stock.
func (f *fixture) seed(t *testing.T) {
	t.Helper()
	f.mustCall(t, engine.OpAddAdministrator, "owner", `{"args": {"principal": "alice"}}`)
	f.mustCall(t, engine.OpAddStoreOwner, "alice", `{"args": {"principal": "bob"}}`)
	f.mustCall(t, engine.OpCreateStore, "bob", `{"args": {"name": "Oak & Iron"}}`)
	f.mustCall(t, engine.OpAddProduct, "bob",
		`{"args": {"store_id": 0, "name": "Table", "description": "", "price": "3", "quantity": "10"}}`)
}

func TestCallFlow(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	status, out := f.do(t, http.MethodGet, "/v1/stores?owner=bob", "", nil)
	require.Equal(t, http.StatusOK, status)
	var stores []storeView
	require.NoError(t, json.Unmarshal(out, &stores))
	require.Len(t, stores, 1)
	assert.Equal(t, "Oak & Iron", stores[0].Name)

	res := f.mustCall(t, engine.OpPurchaseProduct, "dave",
		`{"args": {"store_id": 0, "product_id": 0, "quantity": "4"}, "value": "12"}`)
	require.Len(t, res.Events, 1)
	assert.Equal(t, event.ProductPurchased, res.Events[0].Kind)
	assert.Equal(t, "dave", res.Events[0].Principal())

	status, out = f.do(t, http.MethodGet, "/v1/stores/0/products/0", "", nil)
	require.Equal(t, http.StatusOK, status)
	var product productView
	require.NoError(t, json.Unmarshal(out, &product))
	assert.Equal(t, "6", product.Quantity)
	assert.True(t, product.Active)

	f.mustCall(t, engine.OpWithdrawFunds, "bob", `{"args": {"store_id": 0, "amount": "12"}}`)

	status, out = f.do(t, http.MethodGet, "/v1/wallets/bob", "", nil)
	require.Equal(t, http.StatusOK, status)
	var bob walletView
	require.NoError(t, json.Unmarshal(out, &bob))
	assert.Equal(t, "12", bob.Balance)

	status, out = f.do(t, http.MethodGet, "/v1/market", "", nil)
	require.Equal(t, http.StatusOK, status)
	var mv marketView
	require.NoError(t, json.Unmarshal(out, &mv))
	assert.Equal(t, "owner", string(mv.Owner))
	assert.True(t, mv.Open)
	assert.Equal(t, "0", mv.Custody)
	assert.Equal(t, uint64(1), mv.NextStoreID)
}

func TestCreateReturnsID(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	res := f.mustCall(t, engine.OpCreateStore, "bob", `{"args": {"name": "Second"}}`)
	require.NotNil(t, res.ID)
	assert.Equal(t, uint64(1), *res.ID)
	assert.Equal(t, "call-5", res.CallID)

	res = f.mustCall(t, engine.OpChangeStoreName, "bob", `{"args": {"store_id": 1, "name": "Renamed"}}`)
	assert.Nil(t, res.ID)
}

func TestCallErrors(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	tests := []struct {
		name      string
		op        engine.Op
		principal string
		body      string
		status    int
		code      string
	}{
		{"unknown op", "mint", "owner", `{}`, http.StatusNotFound, "INVALID_CALL"},
		{"missing principal", engine.OpOpenMarket, "", `{}`, http.StatusUnauthorized, "INVALID_CALL"},
		{"bad json", engine.OpCreateStore, "bob", `{"args":`, http.StatusBadRequest, "INVALID_CALL"},
		{"bad value", engine.OpPurchaseProduct, "dave", `{"value": "-1"}`, http.StatusBadRequest, "INVALID_CALL"},
		{"missing arg", engine.OpCreateStore, "bob", `{"args": {}}`, http.StatusBadRequest, "INVALID_CALL"},
		{"not owner", engine.OpCloseMarket, "alice", `{}`, http.StatusForbidden, "UNAUTHORIZED"},
		{"payment mismatch", engine.OpPurchaseProduct, "dave",
			`{"args": {"store_id": 0, "product_id": 0, "quantity": "1"}, "value": "2"}`,
			http.StatusUnprocessableEntity, "PAYMENT_MISMATCH"},
		{"insufficient funds", engine.OpPurchaseProduct, "erin",
			`{"args": {"store_id": 0, "product_id": 0, "quantity": "1"}, "value": "3"}`,
			http.StatusPaymentRequired, "INSUFFICIENT_FUNDS"},
		{"overdraw", engine.OpWithdrawFunds, "bob", `{"args": {"store_id": 0, "amount": "1"}}`,
			http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := f.call(t, tt.op, tt.principal, tt.body)
			assert.Equal(t, tt.status, status, string(out))
			assert.Equal(t, tt.code, decodeError(t, out).Code)
		})
	}
}

func TestRejectedCallCarriesCallID(t *testing.T) {
	f := newFixture(t)

	status, out := f.call(t, engine.OpCloseMarket, "mallory", `{}`)
	require.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "call-1", decodeError(t, out).CallID)
}

func TestClosedMarket(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	f.mustCall(t, engine.OpCloseMarket, "owner", `{}`)

	status, out := f.call(t, engine.OpCreateStore, "bob", `{"args": {"name": "Late"}}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "MARKET_CLOSED", decodeError(t, out).Code)
}

func TestStoreReads(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	f.mustCall(t, engine.OpRemoveProduct, "bob", `{"args": {"store_id": 0, "product_id": 0}}`)

	status, out := f.do(t, http.MethodGet, "/v1/stores/0/products", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(out))

	status, out = f.do(t, http.MethodGet, "/v1/stores/0/products/0", "", nil)
	require.Equal(t, http.StatusOK, status)
	var p productView
	require.NoError(t, json.Unmarshal(out, &p))
	assert.False(t, p.Active)
	assert.Equal(t, "", p.Name)
	assert.Equal(t, "0", p.Price)

	status, out = f.do(t, http.MethodGet, "/v1/stores/7", "", nil)
	require.Equal(t, http.StatusOK, status)
	var s storeView
	require.NoError(t, json.Unmarshal(out, &s))
	assert.False(t, s.Active)
	assert.Equal(t, uint64(7), s.StoreID)

	status, _ = f.do(t, http.MethodGet, "/v1/stores/x", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestEvents(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	status, out := f.do(t, http.MethodGet, "/v1/events", "", nil)
	require.Equal(t, http.StatusOK, status)
	var all eventsResponse
	require.NoError(t, json.Unmarshal(out, &all))
	require.Len(t, all.Events, 4)
	assert.Equal(t, int64(1), all.Events[0].Seq)
	assert.Equal(t, event.AdministratorAdded, all.Events[0].Kind)
	assert.Equal(t, int64(5), all.Next)

	status, out = f.do(t, http.MethodGet, "/v1/events?from=3", "", nil)
	require.Equal(t, http.StatusOK, status)
	var tail eventsResponse
	require.NoError(t, json.Unmarshal(out, &tail))
	require.Len(t, tail.Events, 2)
	assert.Equal(t, event.StoreCreated, tail.Events[0].Kind)
	assert.Equal(t, all.Events[2].ID, tail.Events[0].ID)

	status, out = f.do(t, http.MethodGet, "/v1/events?from=99", "", nil)
	require.Equal(t, http.StatusOK, status)
	var none eventsResponse
	require.NoError(t, json.Unmarshal(out, &none))
	assert.Empty(t, none.Events)
	assert.Equal(t, int64(99), none.Next)

	status, _ = f.do(t, http.MethodGet, "/v1/events?from=-2", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestContent(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	desc := []byte("Solid oak, seats six.")
	status, out := f.do(t, http.MethodPost, "/v1/content", "bob", desc)
	require.Equal(t, http.StatusCreated, status, string(out))
	var put contentResponse
	require.NoError(t, json.Unmarshal(out, &put))
	want, err := content.Handle(desc)
	require.NoError(t, err)
	assert.Equal(t, want, put.Handle)

	f.mustCall(t, engine.OpChangeProductDescription, "bob",
		`{"args": {"store_id": 0, "product_id": 0, "description": "`+put.Handle+`"}}`)

	status, out = f.do(t, http.MethodGet, "/v1/content/"+put.Handle, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, desc, out)

	missing, _ := content.Handle([]byte("absent"))
	status, out = f.do(t, http.MethodGet, "/v1/content/"+missing, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "CONTENT_NOT_FOUND", decodeError(t, out).Code)

	status, _ = f.do(t, http.MethodGet, "/v1/content/garbage", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	status, out := f.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)
	body := string(out)
	assert.Contains(t, body, `bazaar_http_requests_total{code="200",route="/v1/calls/{op}"} 4`)
}

func TestRateLimit(t *testing.T) {
	var clock atomic.Int64
	clock.Store(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano())
	f := newFixture(t, WithRateLimit(1, 2), withClock(func() time.Time { return time.Unix(0, clock.Load()) }))

	for i := 0; i < 2; i++ {
		status, _ := f.do(t, http.MethodGet, "/v1/market", "dave", nil)
		require.Equal(t, http.StatusOK, status)
	}
	status, out := f.do(t, http.MethodGet, "/v1/market", "dave", nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, out).Code)

	// Buckets are per caller.
	status, _ = f.do(t, http.MethodGet, "/v1/market", "erin", nil)
	assert.Equal(t, http.StatusOK, status)

	// One second refills one token.
	clock.Add(int64(time.Second))
	status, _ = f.do(t, http.MethodGet, "/v1/market", "dave", nil)
	assert.Equal(t, http.StatusOK, status)
}
