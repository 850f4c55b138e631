package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"wisetogether/internal/core"
	"wisetogether/internal/log"
	"wisetogether/internal/services"
	"wisetogether/internal/split"
	"wisetogether/internal/store"
)

const maxBodyBytes = 64 << 10

type errorBody struct {
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	var fe core.FieldErrors
	switch {
	case errors.As(err, &fe):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound), errors.Is(err, services.ErrNoSharedAccount):
		return http.StatusNotFound
	case errors.Is(err, store.ErrVersionConflict),
		errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrNoPartner),
		errors.Is(err, core.ErrAccountFull),
		errors.Is(err, core.ErrSelfJoin):
		return http.StatusConflict
	case errors.Is(err, services.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, split.ErrNotNumeric),
		errors.Is(err, split.ErrOutOfRange),
		errors.Is(err, split.ErrAmountUnknown),
		errors.Is(err, split.ErrNotEditable),
		errors.Is(err, split.ErrIncomplete),
		errors.Is(err, core.ErrUnknownSplitType),
		errors.Is(err, core.ErrNegativeAmount),
		errors.Is(err, core.ErrDescriptionTooLong),
		errors.Is(err, core.ErrUnknownCategory),
		errors.Is(err, core.ErrSplitMismatch),
		errors.Is(err, core.ErrPercentMismatch),
		errors.Is(err, core.ErrUnevenEqualSplit),
		errors.Is(err, core.ErrMissingSplit),
		errors.Is(err, core.ErrUnexpectedSplit):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeError renders err. Internal errors are logged and hidden from the
// client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, op, log.NewFields().WithMember(r.Header.Get(memberHeader)))
		writeJSON(w, status, errorBody{Error: "internal error"})
		return
	}

	body := errorBody{Error: err.Error()}
	var fe core.FieldErrors
	if errors.As(err, &fe) {
		body.Error = "validation failed"
		body.Errors = fe
	}
	writeJSON(w, status, body)
}
