package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"parkhaus/internal/entities"
	httperr "parkhaus/internal/errors"
	"parkhaus/internal/repository"
	"parkhaus/internal/service"
)

type ReservationHandler struct {
	Service  *service.ReservationService
	Waitlist *service.WaitlistService
}

func NewReservationHandler(svc *service.ReservationService, wl *service.WaitlistService) *ReservationHandler {
	return &ReservationHandler{Service: svc, Waitlist: wl}
}

func (h *ReservationHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req entities.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, httperr.ErrBadRequest("Invalid request"))
		return
	}
	resp, err := h.Service.CheckAvailability(r.Context(), req)
	if err != nil {
		writeError(w, httperr.ErrInternal("Error checking availability"))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req entities.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, httperr.ErrBadRequest("Invalid request"))
		return
	}
	result, err := h.Service.CreateReservation(r.Context(), req)
	if err != nil {
		writeError(w, httperr.ErrInternal("Error creating reservation"))
		return
	}
	writeJSON(w, statusForKind(result.Kind), result)
}

func (h *ReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, httperr.ErrBadRequest("Invalid ID"))
		return
	}
	res, err := h.Service.GetReservation(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, "Reservation not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, httperr.ErrInternal("Error fetching reservation"))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ReservationHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, httperr.ErrBadRequest("Invalid ID"))
		return
	}
	var req struct {
		UserID int    `json:"user_id"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, httperr.ErrBadRequest("Invalid request"))
		return
	}
	result, err := h.Service.CancelReservation(r.Context(), id, req.UserID, req.Reason)
	if err != nil {
		writeError(w, httperr.ErrInternal("Error cancelling reservation"))
		return
	}
	writeJSON(w, statusForKind(result.Kind), result)
}

func (h *ReservationHandler) CheckInReservation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, httperr.ErrBadRequest("Invalid ID"))
		return
	}
	var req struct {
		UserID int `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, httperr.ErrBadRequest("Invalid request"))
		return
	}
	result, err := h.Service.CheckInReservation(r.Context(), id, req.UserID)
	if err != nil {
		writeError(w, httperr.ErrInternal("Error checking in"))
		return
	}
	writeJSON(w, statusForKind(result.Kind), result)
}

func (h *ReservationHandler) CompleteReservation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, httperr.ErrBadRequest("Invalid ID"))
		return
	}
	result, err := h.Service.CompleteReservation(r.Context(), id)
	if err != nil {
		writeError(w, httperr.ErrInternal("Error completing reservation"))
		return
	}
	writeJSON(w, statusForKind(result.Kind), result)
}

func (h *ReservationHandler) GetUserReservations(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, httperr.ErrBadRequest("Invalid user ID"))
		return
	}
	reservations, err := h.Service.GetUserReservations(r.Context(), userID)
	if err != nil {
		writeError(w, httperr.ErrInternal("Error listing reservations"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": reservations})
}

func (h *ReservationHandler) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	var req entities.WaitlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, httperr.ErrBadRequest("Invalid request"))
		return
	}
	result, err := h.Waitlist.AddToWaitlist(r.Context(), req)
	if err != nil {
		writeError(w, httperr.ErrInternal("Error joining waitlist"))
		return
	}
	writeJSON(w, statusForKind(result.Kind), result)
}
