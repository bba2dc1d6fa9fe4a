// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
)

// HandwritingHandler handles handwriting sample submissions.
type HandwritingHandler struct {
	deps Dependencies
}

// NewHandwritingHandler creates a new handwriting sample handler.
func NewHandwritingHandler(deps Dependencies) *HandwritingHandler {
	return &HandwritingHandler{deps: deps}
}

type handwritingRequest struct {
	SubjectID string `json:"subject_id"`
	ImageRef  string `json:"image_ref"`
}

func (h handwritingRequest) validate() error {
	switch {
	case trimmed(h.SubjectID) == "":
		return missingField("subject_id")
	case trimmed(h.ImageRef) == "":
		return missingField("image_ref")
	}
	return nil
}

// HandlePostHandwriting handles POST /samples/handwriting requests.
// A successful submission completes the run and returns the aggregated
// result, filtered by the disclosure gate.
func (h *HandwritingHandler) HandlePostHandwriting(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req handwritingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	res, err := h.deps.SubmitHandwritingSample(r.Context(), req.SubjectID, req.ImageRef)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
