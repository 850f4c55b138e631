package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wisetogether/internal/log"
	"wisetogether/internal/services"
	"wisetogether/internal/store/memory"
)

func newTestServer(t *testing.T, ready func(context.Context) error) *Server {
	t.Helper()
	logger := log.New(log.Config{Output: io.Discard})
	st := memory.New()
	s := NewServer(":0", Deps{
		Transactions: services.NewTransactionService(st, st, nil, logger),
		Accounts:     services.NewSharedAccountService(st, st, "https://wt.example", logger),
		Dashboard:    services.NewDashboardService(st, st, st, logger),
		Ready:        ready,
	}, logger)
	t.Cleanup(s.rateLimiter.stop)
	return s
}

func do(t *testing.T, s *Server, method, path, member, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if member != "" {
		req.Header.Set(memberHeader, member)
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

// pairUp creates alice's account and lets bob join it.
func pairUp(t *testing.T, s *Server) accountJSON {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/shared-accounts", "alice", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account: %d %s", rec.Code, rec.Body)
	}
	acc := decode[accountJSON](t, rec)

	rec = do(t, s, http.MethodPost, "/api/shared-accounts/join", "bob", fmt.Sprintf(`{"code":%q}`, acc.InvitationCode))
	if rec.Code != http.StatusOK {
		t.Fatalf("join: %d %s", rec.Code, rec.Body)
	}
	return decode[accountJSON](t, rec)
}

func TestHealthAndReadiness(t *testing.T) {
	s := newTestServer(t, nil)
	if rec := do(t, s, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/readyz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("readyz = %d", rec.Code)
	}

	down := newTestServer(t, func(context.Context) error { return errors.New("db gone") })
	if rec := do(t, down, http.MethodGet, "/readyz", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz = %d, want 503", rec.Code)
	}
}

func TestMiddlewareHeaders(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/healthz", "", "")
	if id := rec.Header().Get(requestIDHeader); !strings.HasPrefix(id, "req_") {
		t.Fatalf("request id = %q", id)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("missing security headers: %v", rec.Header())
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "client-123")
	rec = httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "client-123" {
		t.Fatalf("request id = %q, want client-123", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "bad id\n")
	rec = httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); !strings.HasPrefix(got, "req_") {
		t.Fatalf("malformed id should be replaced, got %q", got)
	}
}

func TestMissingMember(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/api/transactions", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := s.metrics.snapshot()["anonymous_requests"]; got != 1 {
		t.Fatalf("anonymous_requests = %d", got)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	acc := pairUp(t, s)

	rec := do(t, s, http.MethodPost, "/api/transactions", "alice",
		`{"date":"2025-03-14","amount":"100","category":"Rent","description":"march","split":{"type":"percentage","member_a":"70"}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body)
	}
	tx := decode[transactionJSON](t, rec)
	if tx.SharedAccountID != acc.ID || tx.Amount != "100.00" || tx.AmountCents != 10000 || tx.Version != 1 {
		t.Fatalf("unexpected transaction %+v", tx)
	}
	if tx.Split == nil || tx.Split.MemberAShare != "70.00" || tx.Split.MemberBShare != "30.00" || tx.Split.PercentB != "30" {
		t.Fatalf("unexpected split %+v", tx.Split)
	}
	if loc := rec.Header().Get("Location"); loc != "/api/transactions/"+tx.ID {
		t.Fatalf("Location = %q", loc)
	}

	// Both members see the shared transaction.
	for _, member := range []string{"alice", "bob"} {
		rec = do(t, s, http.MethodGet, "/api/transactions", member, "")
		list := decode[map[string][]transactionJSON](t, rec)
		if len(list["transactions"]) != 1 {
			t.Fatalf("%s sees %d transactions", member, len(list["transactions"]))
		}
	}

	rec = do(t, s, http.MethodGet, "/api/dashboard", "bob", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: %d", rec.Code)
	}
	dash := decode[dashboardJSON](t, rec)
	if dash.NetBalance != "-30.00" || dash.SharedTotal != "100.00" || len(dash.Rows) != 1 || dash.Rows[0].Reconciliation == nil {
		t.Fatalf("unexpected dashboard %+v", dash)
	}

	update := `{"date":"2025-03-14","amount":"80","category":"Rent","description":"march","split":{"type":"equal"},"version":1}`
	rec = do(t, s, http.MethodPut, "/api/transactions/"+tx.ID, "alice", update)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body)
	}
	updated := decode[transactionJSON](t, rec)
	if updated.Version != 2 || updated.Split.MemberAShare != "40.00" {
		t.Fatalf("unexpected update %+v", updated)
	}

	rec = do(t, s, http.MethodPut, "/api/transactions/"+tx.ID, "alice", update)
	if rec.Code != http.StatusConflict {
		t.Fatalf("stale update: %d, want 409", rec.Code)
	}

	if rec = do(t, s, http.MethodGet, "/api/transactions/"+tx.ID, "carol", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("outsider get: %d, want 404", rec.Code)
	}

	if rec = do(t, s, http.MethodDelete, "/api/transactions/"+tx.ID, "bob", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d %s", rec.Code, rec.Body)
	}
	if rec = do(t, s, http.MethodGet, "/api/transactions/"+tx.ID, "alice", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: %d", rec.Code)
	}
}

func TestCreateTransaction_Errors(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{"malformed json", `{"amount":`, http.StatusBadRequest, ""},
		{"unknown field", `{"amount":"1","bogus":true}`, http.StatusBadRequest, ""},
		{"invalid form", `{"date":"","amount":"abc","category":"Rent"}`, http.StatusUnprocessableEntity, "amount"},
		{"unknown category", `{"date":"2025-03-14","amount":"5","category":"Pets"}`, http.StatusUnprocessableEntity, "category"},
		{"shared without account", `{"date":"2025-03-14","amount":"5","category":"Rent","split":{"type":"equal"}}`, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/transactions", "alice", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body)
			}
			if tt.field != "" {
				body := decode[errorBody](t, rec)
				if _, ok := body.Errors[tt.field]; !ok {
					t.Fatalf("errors = %v, want %q", body.Errors, tt.field)
				}
			}
		})
	}
}

func TestCreateTransaction_SplitOutOfRange(t *testing.T) {
	s := newTestServer(t, nil)
	pairUp(t, s)

	rec := do(t, s, http.MethodPost, "/api/transactions", "alice",
		`{"date":"2025-03-14","amount":"10","category":"Rent","split":{"type":"custom","member_a":"25"}}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 (%s)", rec.Code, rec.Body)
	}
}

func TestCreateTransaction_SplitTypeName(t *testing.T) {
	s := newTestServer(t, nil)
	pairUp(t, s)

	rec := do(t, s, http.MethodPost, "/api/transactions", "alice",
		`{"date":"2025-03-14","amount":"10","category":"Rent","split":{"type":"Percentage","member_a":"70"}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", rec.Code, rec.Body)
	}
	tx := decode[transactionJSON](t, rec)
	if tx.Split == nil || tx.Split.Type != "percentage" || tx.Split.MemberAShare != "7.00" {
		t.Fatalf("split = %+v", tx.Split)
	}

	rec = do(t, s, http.MethodPost, "/api/transactions", "alice",
		`{"date":"2025-03-14","amount":"10","category":"Rent","split":{"type":"thirds"}}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 (%s)", rec.Code, rec.Body)
	}
}

func TestUpdateTransaction_RequiresVersion(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodPut, "/api/transactions/x", "alice", `{"date":"2025-03-14","amount":"1","category":"Rent"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestSplitPreview(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name         string
		body         string
		status       int
		stateA       string
		resolved     bool
		rejectedLen  int
		resolvedAStr string
	}{
		{
			name:   "equal",
			body:   `{"amount":"10.01","policy":"equal"}`,
			status: http.StatusOK, resolved: true, resolvedAStr: "5.01",
		},
		{
			name:   "percentage with rejected edit",
			body:   `{"amount":"200","policy":"percentage","edits":[{"member":"a","value":"25"},{"member":"b","value":"150"}]}`,
			status: http.StatusOK, stateA: "25", resolved: true, rejectedLen: 1, resolvedAStr: "50.00",
		},
		{
			name:   "custom without amount",
			body:   `{"policy":"custom","edits":[{"member":"a","value":"5"}]}`,
			status: http.StatusOK, stateA: "0.00", resolved: true, rejectedLen: 1, resolvedAStr: "0.00",
		},
		{
			name:   "policy name is case insensitive",
			body:   `{"amount":"10","policy":" Percentage ","edits":[{"member":"a","value":"70"}]}`,
			status: http.StatusOK, stateA: "70", resolved: true, resolvedAStr: "7.00",
		},
		{
			name:   "unknown policy",
			body:   `{"amount":"10","policy":"thirds"}`,
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "bad member",
			body:   `{"amount":"10","policy":"custom","edits":[{"member":"c","value":"1"}]}`,
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "bad amount",
			body:   `{"amount":"ten","policy":"equal"}`,
			status: http.StatusUnprocessableEntity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/split/preview", "", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body)
			}
			if tt.status != http.StatusOK {
				return
			}
			p := decode[previewJSON](t, rec)
			if p.State.MemberA != tt.stateA {
				t.Errorf("state.member_a = %q, want %q", p.State.MemberA, tt.stateA)
			}
			if (p.Resolved != nil) != tt.resolved {
				t.Fatalf("resolved = %+v, want present=%v", p.Resolved, tt.resolved)
			}
			if tt.resolved && p.Resolved.MemberAShare != tt.resolvedAStr {
				t.Errorf("resolved a = %q, want %q", p.Resolved.MemberAShare, tt.resolvedAStr)
			}
			if len(p.Rejected) != tt.rejectedLen {
				t.Errorf("rejected = %v, want %d entries", p.Rejected, tt.rejectedLen)
			}
		})
	}
}

func TestSharedAccountEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	if rec := do(t, s, http.MethodGet, "/api/shared-accounts/me", "alice", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("me before create: %d, want 404", rec.Code)
	}

	acc := pairUp(t, s)
	if acc.MemberAID != "alice" || acc.MemberBID != "bob" {
		t.Fatalf("unexpected account %+v", acc)
	}
	if !strings.HasPrefix(acc.InvitationLink, "https://wt.example/invite?code=") {
		t.Fatalf("invitation link = %q", acc.InvitationLink)
	}

	if rec := do(t, s, http.MethodPost, "/api/shared-accounts", "alice", ""); rec.Code != http.StatusConflict {
		t.Fatalf("second account: %d, want 409", rec.Code)
	}
	join := fmt.Sprintf(`{"code":%q}`, acc.InvitationCode)
	if rec := do(t, s, http.MethodPost, "/api/shared-accounts/join", "carol", join); rec.Code != http.StatusConflict {
		t.Fatalf("third member: %d, want 409", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/api/shared-accounts/join", "carol", `{"code":""}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty code: %d, want 422", rec.Code)
	}

	if rec := do(t, s, http.MethodPut, "/api/profiles/me", "bob", `{"full_name":""}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty name: %d, want 422", rec.Code)
	}
	rec := do(t, s, http.MethodPut, "/api/profiles/me", "bob", `{"full_name":"Bob Builder","avatar_url":"https://img/b.png"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile: %d %s", rec.Code, rec.Body)
	}

	rec = do(t, s, http.MethodGet, "/api/shared-accounts/me", "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("me: %d", rec.Code)
	}
	ov := decode[accountOverviewJSON](t, rec)
	if ov.Account.ID != acc.ID || ov.Partner == nil || ov.Partner.FullName != "Bob Builder" {
		t.Fatalf("unexpected overview %+v", ov)
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	s := newTestServer(t, nil)
	s.rateLimiter.limit = 2

	for i := 0; i < 2; i++ {
		if rec := do(t, s, http.MethodPost, "/api/split/preview", "", `{"amount":"1"}`); rec.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, rec.Code)
		}
	}
	rec := do(t, s, http.MethodPost, "/api/split/preview", "", `{"amount":"1"}`)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("status = %d retry-after = %q", rec.Code, rec.Header().Get("Retry-After"))
	}

	// Reads are never limited.
	if rec := do(t, s, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
}
