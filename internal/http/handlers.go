package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"expenseportal/internal/auth"
	"expenseportal/internal/core"
)

type loginRequest struct {
	ID  string `json:"id"`
	PIN string `json:"pin"`
}

type loginResponse struct {
	Token string `json:"token"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type itemPayload struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Vendor      string `json:"vendor"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

type draftResponse struct {
	Month        int           `json:"month"`
	Year         int           `json:"year"`
	Status       string        `json:"status"`
	Items        []itemPayload `json:"items"`
	LastModified string        `json:"last_modified,omitempty"`
}

type saveDraftRequest struct {
	Month int           `json:"month"`
	Year  int           `json:"year"`
	Items []itemPayload `json:"items"`
}

type submitRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

type entryPayload struct {
	ID          int64  `json:"id"`
	OwnerID     string `json:"owner_id"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Vendor      string `json:"vendor"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Status      string `json:"status"`
	SubmittedAt string `json:"submitted_at"`
	ApproverID  string `json:"approver_id,omitempty"`
	ApprovedAt  string `json:"approved_at,omitempty"`
	Comments    string `json:"comments,omitempty"`
}

type decideRequest struct {
	Decision string `json:"decision"`
	Comments string `json:"comments"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: bad JSON body", core.ErrInvalidFormat))
		return
	}

	session, err := s.validator.Authenticate(r.Context(), req.ID, req.PIN)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token := s.sessions.create(session)
	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		ID:    session.User.ID,
		Name:  session.User.DisplayName,
		Role:  string(session.User.Role),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, r, auth.ErrNotAuthenticated)
		return
	}
	s.sessions.delete(token)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	session, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	month, year := monthYearParams(r)
	d, err := s.drafts.Load(r.Context(), session.User.ID, month, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDraftResponse(d))
}

func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	session, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req saveDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: bad JSON body", core.ErrInvalidFormat))
		return
	}
	items, err := parseItems(req.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.drafts.Save(r.Context(), session.User.ID, req.Month, req.Year, items); err != nil {
		writeError(w, r, err)
		return
	}

	d, err := s.drafts.Load(r.Context(), session.User.ID, req.Month, req.Year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDraftResponse(d))
}

func (s *Server) handleSubmitDraft(w http.ResponseWriter, r *http.Request) {
	session, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: bad JSON body", core.ErrInvalidFormat))
		return
	}

	ids, err := s.ledger.Submit(r.Context(), session.User.ID, req.Month, req.Year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry_ids": ids})
}

// handleListExpenses returns the caller's submission history. Admins may
// pass owner_id to inspect another user's, or all=true for the whole ledger.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	session, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if r.URL.Query().Get("all") == "true" {
		if err := auth.RequireAdmin(session); err != nil {
			writeError(w, r, err)
			return
		}
		entries, err := s.ledger.ListAll(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toEntryPayloads(entries))
		return
	}

	ownerID := session.User.ID
	if v := r.URL.Query().Get("owner_id"); v != "" {
		if err := auth.RequireOwner(session, v); err != nil {
			writeError(w, r, err)
			return
		}
		ownerID = v
	}

	entries, err := s.ledger.ListByOwner(r.Context(), ownerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryPayloads(entries))
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	session, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	month, year := monthYearParams(r)
	sum, err := s.ledger.SummarizeMonth(r.Context(), session.User.ID, month, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month":  sum.Month,
		"year":   sum.Year,
		"status": sum.Status,
		"total":  sum.Total.String(),
		"count":  sum.Count,
	})
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	session, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := auth.RequireAdmin(session); err != nil {
		writeError(w, r, err)
		return
	}

	entries, err := s.ledger.ListPending(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryPayloads(entries))
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	session, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := auth.RequireAdmin(session); err != nil {
		writeError(w, r, err)
		return
	}

	entryID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: bad entry id", core.ErrInvalidFormat))
		return
	}

	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: bad JSON body", core.ErrInvalidFormat))
		return
	}

	status := core.EntryStatus(strings.ToLower(strings.TrimSpace(req.Decision)))
	if err := s.ledger.SetStatus(r.Context(), entryID, status, session.User.ID, req.Comments); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": entryID, "status": string(status)})
}

// authenticate resolves the bearer token into a live session.
func (s *Server) authenticate(r *http.Request) (*auth.Session, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, auth.ErrNotAuthenticated
	}
	return s.sessions.get(token)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// monthYearParams defaults to the current month when the query is silent.
func monthYearParams(r *http.Request) (month, year int) {
	now := time.Now()
	month = queryInt(r, "month", int(now.Month()))
	year = queryInt(r, "year", now.Year())
	return month, year
}

func parseItems(payloads []itemPayload) ([]core.LineItem, error) {
	items := make([]core.LineItem, 0, len(payloads))
	for i, p := range payloads {
		date, err := core.ParseDate(p.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: bad date %q", core.ErrInvalidFormat, i, p.Date)
		}
		amount, err := core.ParseMoney(p.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: bad amount %q", core.ErrInvalidFormat, i, p.Amount)
		}
		items = append(items, core.LineItem{
			LocalID:     p.ID,
			Date:        date,
			Category:    strings.TrimSpace(p.Category),
			Vendor:      strings.TrimSpace(p.Vendor),
			Description: strings.TrimSpace(p.Description),
			Amount:      amount,
		})
	}
	return items, nil
}

func toDraftResponse(d core.Draft) draftResponse {
	resp := draftResponse{
		Month:  d.Month,
		Year:   d.Year,
		Status: string(d.Status),
		Items:  make([]itemPayload, 0, len(d.Items)),
	}
	if !d.LastModifiedAt.IsZero() {
		resp.LastModified = d.LastModifiedAt.Format(core.TimestampLayout)
	}
	for _, li := range d.Items {
		resp.Items = append(resp.Items, itemPayload{
			ID:          li.LocalID,
			Date:        li.Date.String(),
			Category:    li.Category,
			Vendor:      li.Vendor,
			Description: li.Description,
			Amount:      li.Amount.String(),
		})
	}
	return resp
}

func toEntryPayloads(entries []core.LedgerEntry) []entryPayload {
	out := make([]entryPayload, 0, len(entries))
	for _, e := range entries {
		p := entryPayload{
			ID:          e.ID,
			OwnerID:     e.OwnerID,
			Date:        e.Date.String(),
			Category:    e.Category,
			Vendor:      e.Vendor,
			Description: e.Description,
			Amount:      e.Amount.String(),
			Status:      string(e.Status),
			SubmittedAt: e.SubmittedAt.Format(core.TimestampLayout),
			ApproverID:  e.ApproverID,
			Comments:    e.Comments,
		}
		if !e.ApprovedAt.IsZero() {
			p.ApprovedAt = e.ApprovedAt.Format(core.TimestampLayout)
		}
		out = append(out, p)
	}
	return out
}
