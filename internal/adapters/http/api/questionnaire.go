// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
)

// QuestionnaireHandler handles self-report questionnaire submissions.
type QuestionnaireHandler struct {
	deps Dependencies
}

// NewQuestionnaireHandler creates a new questionnaire handler.
func NewQuestionnaireHandler(deps Dependencies) *QuestionnaireHandler {
	return &QuestionnaireHandler{deps: deps}
}

type questionnaireRequest struct {
	SubjectID string          `json:"subject_id"`
	Responses map[string]bool `json:"responses"`
}

func (q questionnaireRequest) validate() error {
	if trimmed(q.SubjectID) == "" {
		return missingField("subject_id")
	}
	if len(q.Responses) == 0 {
		return missingField("responses")
	}
	return nil
}

// HandlePostQuestionnaire handles POST /questionnaire requests.
func (h *QuestionnaireHandler) HandlePostQuestionnaire(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req questionnaireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	res, err := h.deps.SubmitQuestionnaire(r.Context(), req.SubjectID, req.Responses)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
