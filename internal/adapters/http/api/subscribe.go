// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
)

// SubscribeHandler handles subscription activation.
type SubscribeHandler struct {
	deps Dependencies
}

// NewSubscribeHandler creates a new subscribe handler.
func NewSubscribeHandler(deps Dependencies) *SubscribeHandler {
	return &SubscribeHandler{deps: deps}
}

type subscribeRequest struct {
	SubjectID string `json:"subject_id"`
	Plan      string `json:"plan"`
}

func (s subscribeRequest) validate() error {
	switch {
	case trimmed(s.SubjectID) == "":
		return missingField("subject_id")
	case trimmed(s.Plan) == "":
		return missingField("plan")
	}
	return nil
}

// HandlePostSubscribe handles POST /subscribe requests.
func (h *SubscribeHandler) HandlePostSubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	view, err := h.deps.Subscribe(r.Context(), req.SubjectID, req.Plan)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
