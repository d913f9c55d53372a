//go:build !integration

package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-ticket-ledger/internal/config"
	"event-ticket-ledger/internal/domain/model"
	"event-ticket-ledger/internal/infra/db/memory"
	"event-ticket-ledger/internal/infra/lock"
	"event-ticket-ledger/internal/infra/logging"
	"event-ticket-ledger/internal/infra/web"
	"event-ticket-ledger/internal/usecase"
)

const (
	testSecret = "test-ledger-jwt-secret"
	owner      = model.AccountID("owner.near")
)

type harness struct {
	t       *testing.T
	handler http.Handler
	ids     *web.IdentityManager
}

func newHarness(t *testing.T, limiter web.Limiter) *harness {
	t.Helper()
	s := memory.NewStore()
	repos := usecase.Repositories{
		Tickets:   s.Tickets(),
		Members:   s.Members(),
		Ownership: s.Ownership(),
		Admins:    s.Admins(),
		State:     s.LedgerState(),
		Purchases: s.Purchases(),
	}
	uc := usecase.NewLedgerUseCase(repos, memory.NewTxManager(s), lock.NewKeyedLocker(), usecase.LedgerOptions{LockWait: time.Second}, logging.Nop())
	require.NoError(t, uc.Bootstrap(context.Background(), owner))

	ids := web.NewIdentityManager(testSecret, true)
	srv := web.NewServer(uc, ids, limiter, nil, config.HTTPConfig{RequestTimeout: 5 * time.Second}, logging.Nop())
	return &harness{t: t, handler: srv.Router(), ids: ids}
}

func (h *harness) token(acct model.AccountID) string {
	tok, err := h.ids.Mint(acct, time.Minute)
	require.NoError(h.t, err)
	return tok
}

// do sends a request as acct ("" for anonymous) and decodes the JSON response into out when non-nil.
func (h *harness) do(method, path string, acct model.AccountID, body any, out any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if acct != "" {
		req.Header.Set("Authorization", "Bearer "+h.token(acct))
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

type errResp struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestAPI_PurchaseScenario(t *testing.T) {
	h := newHarness(t, nil)

	var issued struct {
		Tickets []model.Ticket `json:"tickets"`
	}
	rec := h.do(http.MethodPost, "/api/v1/tickets", owner, map[string]int{"count": 20}, &issued)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, issued.Tickets, 20)
	assert.Equal(t, model.TicketCode(20), issued.Tickets[19].Code)

	rec = h.do(http.MethodPut, "/api/v1/price", owner, map[string]string{"amount": "10000000"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var price struct {
		Price string `json:"price"`
	}
	h.do(http.MethodGet, "/api/v1/price", "", nil, &price)
	assert.Equal(t, "10000000", price.Price)

	var receipt struct {
		ID         string `json:"id"`
		Buyer      string `json:"buyer"`
		TicketCode uint64 `json:"ticket_code"`
		Paid       string `json:"paid"`
	}
	rec = h.do(http.MethodPost, "/api/v1/tickets/1/buy", "alice.near", map[string]string{"attached_deposit": "10000000"}, &receipt)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "alice.near", receipt.Buyer)
	assert.Equal(t, uint64(1), receipt.TicketCode)
	assert.Equal(t, "10000000", receipt.Paid)

	var ticket model.Ticket
	rec = h.do(http.MethodGet, "/api/v1/tickets/1", "", nil, &ticket)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ticket.IsUsed)

	var owned struct {
		AccountID string   `json:"account_id"`
		Tickets   []uint64 `json:"tickets"`
	}
	h.do(http.MethodGet, "/api/v1/accounts/alice.near/tickets", "", nil, &owned)
	assert.Equal(t, []uint64{1}, owned.Tickets)

	var purchases struct {
		Purchases []struct {
			ID string `json:"id"`
		} `json:"purchases"`
	}
	h.do(http.MethodGet, "/api/v1/accounts/alice.near/purchases", "", nil, &purchases)
	require.Len(t, purchases.Purchases, 1)
	assert.Equal(t, receipt.ID, purchases.Purchases[0].ID)

	var stats model.Stats
	h.do(http.MethodGet, "/api/v1/stats", "", nil, &stats)
	assert.Equal(t, uint64(20), stats.TicketsIssued)
	assert.Equal(t, uint64(1), stats.TicketsUsed)
	assert.True(t, stats.Consistent)
}

func TestAPI_ErrorMapping(t *testing.T) {
	h := newHarness(t, nil)
	h.do(http.MethodPost, "/api/v1/tickets", owner, map[string]int{"count": 2}, nil)
	h.do(http.MethodPut, "/api/v1/price", owner, map[string]string{"amount": "100"}, nil)

	cases := []struct {
		name   string
		method string
		path   string
		acct   model.AccountID
		body   any
		status int
		kind   string
	}{
		{"issue zero", http.MethodPost, "/api/v1/tickets", owner, map[string]int{"count": 0}, http.StatusBadRequest, "invalid_input"},
		{"issue too many", http.MethodPost, "/api/v1/tickets", owner, map[string]int{"count": 101}, http.StatusBadRequest, "invalid_input"},
		{"unknown ticket", http.MethodGet, "/api/v1/tickets/99", "", nil, http.StatusNotFound, "not_found"},
		{"bad code", http.MethodGet, "/api/v1/tickets/abc", "", nil, http.StatusBadRequest, "invalid_input"},
		{"underpaid", http.MethodPost, "/api/v1/tickets/1/buy", "alice.near", map[string]string{"attached_deposit": "99"}, http.StatusPaymentRequired, "insufficient_payment"},
		{"buy missing", http.MethodPost, "/api/v1/tickets/7/buy", "alice.near", map[string]string{"attached_deposit": "100"}, http.StatusNotFound, "not_found"},
		{"fractional deposit", http.MethodPost, "/api/v1/tickets/1/buy", "alice.near", map[string]string{"attached_deposit": "1.5"}, http.StatusBadRequest, "invalid_input"},
		{"price by stranger", http.MethodPut, "/api/v1/price", "random.near", map[string]string{"amount": "1"}, http.StatusForbidden, "not_authorized"},
		{"admin by stranger", http.MethodPost, "/api/v1/admins", "random.near", map[string]string{"account_id": "x.near"}, http.StatusForbidden, "not_authorized"},
		{"anonymous buy", http.MethodPost, "/api/v1/tickets/1/buy", "", map[string]string{"attached_deposit": "100"}, http.StatusUnauthorized, "not_authorized"},
		{"unknown member", http.MethodGet, "/api/v1/members/bob.near", "", nil, http.StatusNotFound, "not_found"},
		{"bad account", http.MethodGet, "/api/v1/accounts/Bad..Acct/tickets", "", nil, http.StatusBadRequest, "invalid_input"},
		{"unknown field", http.MethodPost, "/api/v1/tickets", owner, map[string]int{"cnt": 1}, http.StatusBadRequest, "invalid_input"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var e errResp
			rec := h.do(c.method, c.path, c.acct, c.body, &e)
			assert.Equal(t, c.status, rec.Code, rec.Body.String())
			assert.Equal(t, c.kind, e.Error.Kind)
			assert.NotEmpty(t, e.Error.Message)
		})
	}

	// nothing above changed ticket 1
	var ticket model.Ticket
	h.do(http.MethodGet, "/api/v1/tickets/1", "", nil, &ticket)
	assert.False(t, ticket.IsUsed)

	h.do(http.MethodPost, "/api/v1/tickets/1/buy", "alice.near", map[string]string{"attached_deposit": "100"}, nil)
	var e errResp
	rec := h.do(http.MethodPost, "/api/v1/tickets/1/buy", "bob.near", map[string]string{"attached_deposit": "100"}, &e)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_used", e.Error.Kind)
}

func TestAPI_MembersAndAdmins(t *testing.T) {
	h := newHarness(t, nil)

	var res model.RegisterResult
	rec := h.do(http.MethodPost, "/api/v1/members", "alice.near", map[string]string{"email": "alice@example.com"}, &res)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, res.Success)

	rec = h.do(http.MethodPost, "/api/v1/members", "alice.near", map[string]string{"email": "alice@example.com"}, &res)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, res.Success)
	assert.Equal(t, model.RegisterAlready, res.Message)

	var m model.Member
	rec = h.do(http.MethodGet, "/api/v1/members/alice.near", "", nil, &m)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice@example.com", m.Email)

	rec = h.do(http.MethodPost, "/api/v1/admins", owner, map[string]string{"account_id": "admin.near"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var admins struct {
		Admins []string `json:"admins"`
	}
	h.do(http.MethodGet, "/api/v1/admins", "", nil, &admins)
	assert.Equal(t, []string{"admin.near", "owner.near"}, admins.Admins)

	rec = h.do(http.MethodPut, "/api/v1/price", "admin.near", map[string]string{"amount": "5"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var o struct {
		Owner string `json:"owner"`
	}
	h.do(http.MethodGet, "/api/v1/owner", "", nil, &o)
	assert.Equal(t, "owner.near", o.Owner)
}

func TestAPI_Identity(t *testing.T) {
	h := newHarness(t, nil)

	t.Run("dev header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/members", bytes.NewBufferString(`{"email":"d@example.com"}`))
		req.Header.Set(web.DevAccountHeader, "dev.near")
		rec := httptest.NewRecorder()
		h.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("forged token", func(t *testing.T) {
		other := web.NewIdentityManager("another-secret", false)
		tok, err := other.Mint("alice.near", time.Minute)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/members", bytes.NewBufferString(`{"email":"a@example.com"}`))
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		h.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		tok, err := h.ids.Mint("alice.near", -time.Minute)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/owner", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		h.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("dev header disabled", func(t *testing.T) {
		ids := web.NewIdentityManager(testSecret, false)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(web.DevAccountHeader, "dev.near")
		_, err := ids.Identify(req)
		assert.Error(t, err)
	})
}

func TestAPI_HealthAndMetrics(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(http.MethodGet, "/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))

	rec = h.do(http.MethodGet, "/metrics", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_HealthFailure(t *testing.T) {
	ids := web.NewIdentityManager(testSecret, false)
	srv := web.NewServer(nil, ids, nil, func(ctx context.Context) error { return errors.New("db down") },
		config.HTTPConfig{}, logging.Nop())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type countingLimiter struct {
	mu    sync.Mutex
	limit int
	seen  map[string]int
}

func (l *countingLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen[key]++
	return l.seen[key] <= l.limit, nil
}

func TestAPI_RateLimit(t *testing.T) {
	lim := &countingLimiter{limit: 2, seen: map[string]int{}}
	h := newHarness(t, lim)

	for i := 0; i < 2; i++ {
		rec := h.do(http.MethodPost, "/api/v1/members", "alice.near", map[string]string{"email": "a@example.com"}, nil)
		assert.Less(t, rec.Code, 300)
	}
	var e errResp
	rec := h.do(http.MethodPost, "/api/v1/members", "alice.near", map[string]string{"email": "a@example.com"}, &e)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// reads are not limited, other callers have their own budget
	rec = h.do(http.MethodGet, "/api/v1/owner", "alice.near", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodPost, "/api/v1/members", "bob.near", map[string]string{"email": "b@example.com"}, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 3, lim.seen["rate_limit:alice.near:write"])
}

func TestAPI_BuyWithoutBodyPaysNothing(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(http.MethodPost, "/api/v1/tickets", owner, map[string]int{"count": 2}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// default price is zero, so an empty deposit is enough
	var receipt struct {
		TicketCode uint64 `json:"ticket_code"`
		Paid       string `json:"paid"`
	}
	rec = h.do(http.MethodPost, "/api/v1/tickets/1/buy", "alice.near", nil, &receipt)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(1), receipt.TicketCode)
	assert.Equal(t, "0", receipt.Paid)

	// a priced ticket still needs the deposit
	rec = h.do(http.MethodPut, "/api/v1/price", owner, map[string]string{"amount": "5"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var e errResp
	rec = h.do(http.MethodPost, "/api/v1/tickets/2/buy", "alice.near", nil, &e)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "insufficient_payment", e.Error.Kind)
}
