package api

import (
	"net/http"
	"strconv"

	service "github.com/okian/wpr/internal/app"
)

// ProfileHandler handles athlete profile and analysis requests.
type ProfileHandler struct {
	deps ProfileDependencies
}

// NewProfileHandler creates a profile handler.
func NewProfileHandler(deps ProfileDependencies) *ProfileHandler {
	return &ProfileHandler{deps: deps}
}

// HandlePut handles PUT /athletes/{id}. ?normalize=true rescales the coefficients.
func (h *ProfileHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	var st service.ProfileSettings
	if err := decodeBody(w, r, &st); err != nil {
		writeServiceError(w, err)
		return
	}
	if v := r.URL.Query().Get("normalize"); v != "" {
		normalize, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		st.Normalize = st.Normalize || normalize
	}
	p, err := h.deps.ConfigureProfile(r.Context(), r.PathValue("id"), st)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleGet handles GET /athletes/{id}.
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Profile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleDelete handles DELETE /athletes/{id}.
func (h *ProfileHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteProfile(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleBaseline handles POST /athletes/{id}/baseline.
func (h *ProfileHandler) HandleBaseline(w http.ResponseWriter, r *http.Request) {
	var b service.Baseline
	if err := decodeBody(w, r, &b); err != nil {
		writeServiceError(w, err)
		return
	}
	p, err := h.deps.SetBaseline(r.Context(), r.PathValue("id"), b)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleAnalysis handles GET /athletes/{id}/analysis.
func (h *ProfileHandler) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := h.deps.Analyze(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type analyzeAllResponse struct {
	Analyzed int `json:"analyzed"`
}

// HandleAnalyzeAll handles POST /analysis, re-running every profile.
func (h *ProfileHandler) HandleAnalyzeAll(w http.ResponseWriter, r *http.Request) {
	all, err := h.deps.AnalyzeAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analyzeAllResponse{Analyzed: len(all)})
}
