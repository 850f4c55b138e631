package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
)

// memberHeader carries the authenticated member. Authentication itself
// happens in front of this service.
const memberHeader = "X-Member-ID"

// memberID returns the caller's member ID, or writes 401 and returns false.
func (s *Server) memberID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get(memberHeader))
	if id == "" {
		atomic.AddInt64(&s.metrics.anonymousRequests, 1)
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing " + memberHeader + " header"})
		return "", false
	}
	return id, true
}

// decodeJSON reads a single JSON object into dst, or writes 400 and returns
// false. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: trailing data"})
		return false
	}
	return true
}
