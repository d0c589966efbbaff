package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenseportal/internal/auth"
	"expenseportal/internal/draft"
	"expenseportal/internal/ledger"
	ports "expenseportal/internal/sheets"
	"expenseportal/internal/sheets/cached"
	"expenseportal/internal/sheets/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	mem := memory.New()
	mem.EnsureSheet("Users", ports.UsersHeader)
	mem.EnsureSheet("Expenses", ports.LedgerHeader)
	mem.EnsureSheet("Drafts", ports.DraftsHeader)
	_, err := mem.AppendRows(context.Background(), "Users", ports.UsersRange, [][]string{
		{"T001", "Dana Rossi", "1234", "member", "TRUE"},
		{"A001", "Avery Chen", "9876", "admin", "TRUE"},
	})
	require.NoError(t, err)

	rows := cached.New(mem, 100, 30*time.Second)
	validator := auth.NewValidator(rows, "Users")
	drafts := draft.NewStore(rows, "Drafts")
	ledgerSvc := ledger.NewService(rows, "Expenses", drafts, nil)

	srv := NewServer(":0", validator, drafts, ledgerSvc, rows)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, srv *Server, id, pin string) string {
	t.Helper()
	rec := doJSON(t, srv, "POST", "/api/login", "", map[string]string{"id": id, "pin": pin})
	require.Equal(t, http.StatusOK, rec.Code, "login body: %s", rec.Body.String())
	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func draftBody(month, year int, n int) saveDraftRequest {
	req := saveDraftRequest{Month: month, Year: year}
	for i := 0; i < n; i++ {
		req.Items = append(req.Items, itemPayload{
			ID:          int64(i + 1),
			Date:        fmt.Sprintf("%04d-%02d-%02d", year, month, i+1),
			Category:    "Travel",
			Vendor:      "City Cabs",
			Description: "Trip receipt",
			Amount:      "23.50",
		})
	}
	return req
}

func TestLoginFlow(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, "POST", "/api/login", "", map[string]string{"id": "T001", "pin": "1234"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "T001", resp.ID)
	assert.Equal(t, "member", resp.Role)
	assert.Equal(t, "Dana Rossi", resp.Name)
}

func TestLoginBadFormat(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, "POST", "/api/login", "", map[string]string{"id": "T001", "pin": "12"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginWrongPIN(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, "POST", "/api/login", "", map[string]string{"id": "T001", "pin": "0000"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRateLimited(t *testing.T) {
	srv := newTestServer(t)
	for i := 0; i < 3; i++ {
		rec := doJSON(t, srv, "POST", "/api/login", "", map[string]string{"id": "T001", "pin": "0000"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := doJSON(t, srv, "POST", "/api/login", "", map[string]string{"id": "T001", "pin": "1234"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestUnauthenticatedRequests(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/api/draft", "/api/expenses", "/api/approvals", "/api/summary"} {
		rec := doJSON(t, srv, "GET", path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "path %s", path)
	}
	rec := doJSON(t, srv, "GET", "/api/draft", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDraftRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "T001", "1234")

	rec := doJSON(t, srv, "GET", "/api/draft?month=3&year=2026", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var d draftResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, "new", d.Status)
	assert.Empty(t, d.Items)

	rec = doJSON(t, srv, "PUT", "/api/draft", token, draftBody(3, 2026, 2))
	require.Equal(t, http.StatusOK, rec.Code, "save body: %s", rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, "draft", d.Status)
	assert.Len(t, d.Items, 2)
	assert.Equal(t, "23.50", d.Items[0].Amount)

	rec = doJSON(t, srv, "GET", "/api/draft?month=3&year=2026", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Len(t, d.Items, 2)
}

func TestDraftValidationError(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "T001", "1234")

	body := draftBody(3, 2026, 1)
	body.Items[0].Amount = "-5"
	rec := doJSON(t, srv, "PUT", "/api/draft", token, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitAndApproveFlow(t *testing.T) {
	srv := newTestServer(t)
	member := login(t, srv, "T001", "1234")
	admin := login(t, srv, "A001", "9876")

	rec := doJSON(t, srv, "PUT", "/api/draft", member, draftBody(3, 2026, 2))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, "POST", "/api/draft/submit", member, submitRequest{Month: 3, Year: 2026})
	require.Equal(t, http.StatusOK, rec.Code, "submit body: %s", rec.Body.String())
	var submitResp struct {
		EntryIDs []int64 `json:"entry_ids"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitResp))
	require.Len(t, submitResp.EntryIDs, 2)

	// Resubmission conflicts.
	rec = doJSON(t, srv, "POST", "/api/draft/submit", member, submitRequest{Month: 3, Year: 2026})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// The approval queue sees both entries.
	rec = doJSON(t, srv, "GET", "/api/approvals", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []entryPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.Len(t, pending, 2)

	// Approve one, reject the other.
	rec = doJSON(t, srv, "POST", fmt.Sprintf("/api/approvals/%d", pending[0].ID), admin,
		decideRequest{Decision: "approved"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, srv, "POST", fmt.Sprintf("/api/approvals/%d", pending[1].ID), admin,
		decideRequest{Decision: "rejected", Comments: "missing receipt"})
	require.Equal(t, http.StatusOK, rec.Code)

	// Deciding again conflicts.
	rec = doJSON(t, srv, "POST", fmt.Sprintf("/api/approvals/%d", pending[0].ID), admin,
		decideRequest{Decision: "rejected"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// The member sees decided history.
	rec = doJSON(t, srv, "GET", "/api/expenses", member, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []entryPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)
	statuses := map[string]int{}
	for _, e := range history {
		statuses[e.Status]++
		assert.Equal(t, "A001", e.ApproverID)
	}
	assert.Equal(t, map[string]int{"approved": 1, "rejected": 1}, statuses)
}

func TestSubmitEmptyDraft(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "T001", "1234")

	rec := doJSON(t, srv, "POST", "/api/draft/submit", token, submitRequest{Month: 6, Year: 2026})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestApprovalsRequireAdmin(t *testing.T) {
	srv := newTestServer(t)
	member := login(t, srv, "T001", "1234")

	rec := doJSON(t, srv, "GET", "/api/approvals", member, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, srv, "POST", "/api/approvals/1", member, decideRequest{Decision: "approved"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDecideUnknownEntry(t *testing.T) {
	srv := newTestServer(t)
	admin := login(t, srv, "A001", "9876")

	rec := doJSON(t, srv, "POST", "/api/approvals/999", admin, decideRequest{Decision: "approved"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDecideInvalidStatus(t *testing.T) {
	srv := newTestServer(t)
	admin := login(t, srv, "A001", "9876")

	rec := doJSON(t, srv, "POST", "/api/approvals/1", admin, decideRequest{Decision: "maybe"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMonthSummary(t *testing.T) {
	srv := newTestServer(t)
	member := login(t, srv, "T001", "1234")

	rec := doJSON(t, srv, "PUT", "/api/draft", member, draftBody(3, 2026, 2))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, srv, "POST", "/api/draft/submit", member, submitRequest{Month: 3, Year: 2026})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, "GET", "/api/summary?month=3&year=2026", member, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sum struct {
		Status string `json:"status"`
		Total  string `json:"total"`
		Count  int    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, "pending", sum.Status)
	assert.Equal(t, "47.00", sum.Total)
	assert.Equal(t, 2, sum.Count)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "T001", "1234")

	rec := doJSON(t, srv, "POST", "/api/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, "GET", "/api/draft", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOwnerScoping(t *testing.T) {
	srv := newTestServer(t)
	member := login(t, srv, "T001", "1234")
	admin := login(t, srv, "A001", "9876")

	rec := doJSON(t, srv, "GET", "/api/expenses?owner_id=A001", member, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, srv, "GET", "/api/expenses?owner_id=T001", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, "GET", "/api/expenses?all=true", member, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, srv, "GET", "/api/expenses?all=true", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "path %s", path)
	}
}

func TestSessionIdleExpiry(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "T001", "1234")

	// Age the session past the idle timeout.
	srv.sessions.now = func() time.Time { return time.Now().Add(auth.IdleTimeout + time.Minute) }

	rec := doJSON(t, srv, "GET", "/api/draft", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
