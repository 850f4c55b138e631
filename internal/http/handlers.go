package http

import (
	"net/http"
	"strings"

	"wisetogether/internal/core"
	"wisetogether/internal/log"
	"wisetogether/internal/services"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		if err := s.deps.Ready(r.Context()); err != nil {
			log.FromContext(r.Context()).Warn("Readiness check failed",
				log.NewFields().WithError(err, log.ErrorTypeDatabase).ToSlice()...)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	memberID, ok := s.memberID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toDashboardJSON(s.deps.Dashboard.Dashboard(r.Context(), memberID)))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	memberID, ok := s.memberID(w, r)
	if !ok {
		return
	}
	txs, err := s.deps.Transactions.List(r.Context(), memberID)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]transactionJSON{"transactions": toTransactionsJSON(txs)})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	memberID, ok := s.memberID(w, r)
	if !ok {
		return
	}
	tx, err := s.deps.Transactions.Get(r.Context(), memberID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(tx))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	memberID, ok := s.memberID(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		s.writeError(w, r, log.OpValidate, err)
		return
	}
	tx, err := s.deps.Transactions.Create(r.Context(), memberID, in)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	w.Header().Set("Location", "/api/transactions/"+tx.ID)
	writeJSON(w, http.StatusCreated, toTransactionJSON(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	memberID, ok := s.memberID(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Version <= 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:  "validation failed",
			Errors: map[string]string{"version": "version is required"},
		})
		return
	}
	in, err := req.input()
	if err != nil {
		s.writeError(w, r, log.OpValidate, err)
		return
	}
	tx, err := s.deps.Transactions.Update(r.Context(), memberID, r.PathValue("id"), req.Version, in)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	memberID, ok := s.memberID(w, r)
	if !ok {
		return
	}
	if err := s.deps.Transactions.Delete(r.Context(), memberID, r.PathValue("id")); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSplitPreview is stateless; it needs no member identity.
func (s *Server) handleSplitPreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	policy := core.SplitEqual
	if strings.TrimSpace(req.Policy) != "" {
		p, err := core.ParseSplitType(req.Policy)
		if err != nil {
			s.writeError(w, r, log.OpValidate, err)
			return
		}
		policy = p
	}
	edits := make([]services.SplitEdit, 0, len(req.Edits))
	for _, e := range req.Edits {
		m, ok := parseMember(e.Member)
		if !ok {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody{
				Error:  "validation failed",
				Errors: map[string]string{"edits": "member must be a or b"},
			})
			return
		}
		edits = append(edits, services.SplitEdit{Member: m, Value: e.Value})
	}

	p, err := services.PreviewSplit(req.Amount, policy, edits)
	if err != nil {
		s.writeError(w, r, log.OpValidate, err)
		return
	}
	writeJSON(w, http.StatusOK, toPreviewJSON(p))
}

func parseMember(s string) (core.Member, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a":
		return core.MemberA, true
	case "b":
		return core.MemberB, true
	}
	return 0, false
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	memberID, ok := s.memberID(w, r)
	if !ok {
		return
	}
	acc, err := s.deps.Accounts.Create(r.Context(), memberID)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountJSON(acc, s.deps.Accounts.InvitationLink(acc)))
}

func (s *Server) handleJoinAccount(w http.ResponseWriter, r *http.Request) {
	memberID, ok := s.memberID(w, r)
	if !ok {
		return
	}
	var req joinRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:  "validation failed",
			Errors: map[string]string{"code": "invitation code is required"},
		})
		return
	}
	acc, err := s.deps.Accounts.Join(r.Context(), code, memberID)
	if err != nil {
		s.writeError(w, r, log.OpJoin, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountJSON(acc, s.deps.Accounts.InvitationLink(acc)))
}

func (s *Server) handleMyAccount(w http.ResponseWriter, r *http.Request) {
	memberID, ok := s.memberID(w, r)
	if !ok {
		return
	}
	ov, err := s.deps.Accounts.Mine(r.Context(), memberID)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	out := accountOverviewJSON{Account: toAccountJSON(ov.Account, ov.InvitationLink)}
	if ov.Partner != nil {
		p := toProfileJSON(*ov.Partner)
		out.Partner = &p
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	memberID, ok := s.memberID(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := s.deps.Accounts.UpsertProfile(r.Context(), memberID, req.FullName, req.AvatarURL)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileJSON(p))
}
