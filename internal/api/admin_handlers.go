package api

import (
	"net/http"

	httperr "parkhaus/internal/errors"
	"parkhaus/internal/service"
)

type AdminHandler struct {
	Service   *service.ReservationService
	Reclaimer *service.ReclaimerService
}

func NewAdminHandler(svc *service.ReservationService, reclaimer *service.ReclaimerService) *AdminHandler {
	return &AdminHandler{Service: svc, Reclaimer: reclaimer}
}

func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.GetReservationStats(r.Context())
	if err != nil {
		writeError(w, httperr.ErrInternal("Error computing stats"))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) ListSpots(w http.ResponseWriter, r *http.Request) {
	spots, err := h.Service.ListSpots(r.Context())
	if err != nil {
		writeError(w, httperr.ErrInternal("Error listing spots"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"spots": spots})
}

// RunReclamation triggers the sweep outside its normal cadence.
func (h *AdminHandler) RunReclamation(w http.ResponseWriter, r *http.Request) {
	h.Reclaimer.Run(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"message": "reclamation pass completed"})
}
