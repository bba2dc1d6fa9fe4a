// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
)

// VideoHandler handles video sample submissions.
type VideoHandler struct {
	deps Dependencies
}

// NewVideoHandler creates a new video sample handler.
func NewVideoHandler(deps Dependencies) *VideoHandler {
	return &VideoHandler{deps: deps}
}

type videoRequest struct {
	SubjectID string `json:"subject_id"`
	VideoRef  string `json:"video_ref"`
	AudioRef  string `json:"audio_ref"`
}

func (v videoRequest) validate() error {
	switch {
	case trimmed(v.SubjectID) == "":
		return missingField("subject_id")
	case trimmed(v.VideoRef) == "":
		return missingField("video_ref")
	case trimmed(v.AudioRef) == "":
		return missingField("audio_ref")
	}
	return nil
}

type ackResponse struct {
	Status string `json:"status"`
}

// HandlePostVideo handles POST /samples/video requests.
func (h *VideoHandler) HandlePostVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req videoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := h.deps.SubmitVideoSample(r.Context(), req.SubjectID, req.VideoRef, req.AudioRef); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "processed"})
}
