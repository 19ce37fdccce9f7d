package api

import (
	"net/http"

	"github.com/okian/wpr/internal/domain/model"
)

type ackResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

// MeasurementHandler handles measurement ingestion.
type MeasurementHandler struct {
	deps MeasurementDependencies
}

// NewMeasurementHandler creates a measurement handler.
func NewMeasurementHandler(deps MeasurementDependencies) *MeasurementHandler {
	return &MeasurementHandler{deps: deps}
}

// HandlePost handles POST /measurements. New measurements are accepted with
// 202; a repeated id is acknowledged with 200.
func (h *MeasurementHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	var m model.Measurement
	if err := decodeBody(w, r, &m); err != nil {
		writeServiceError(w, err)
		return
	}
	res, err := h.deps.Ingest(r.Context(), m)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if res.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", ID: res.ID, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ID: res.ID})
}
