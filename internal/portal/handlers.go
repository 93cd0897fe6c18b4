package portal

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"garde-booking/internal/api"
	"garde-booking/internal/booking"
)

type Handlers struct {
	Service *Service
}

// RequestDetails is the admin action behind "demander un complément".
func (h Handlers) RequestDetails(w http.ResponseWriter, r *http.Request) {
	link, err := h.Service.RequestDetails(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, map[string]any{"link": link})
}

// View serves the requester-facing form a trimmed view of their booking.
func (h Handlers) View(w http.ResponseWriter, r *http.Request) {
	b, err := h.Service.View(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{
		"booking": map[string]any{
			"parentName":    b.ParentName,
			"serviceType":   b.ServiceType,
			"requestedDate": b.RequestedDate,
			"startTime":     b.StartTime,
			"endTime":       b.EndTime,
			"childrenCount": b.ChildrenCount,
		},
	})
}

func (h Handlers) SubmitDetails(w http.ResponseWriter, r *http.Request) {
	var d booking.DetailsUpdate
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if err := h.Service.SubmitDetails(r.Context(), chi.URLParam(r, "token"), d); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeErr(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrTokenInvalid) {
		api.WriteError(w, http.StatusNotFound, "TOKEN_INVALID", ErrTokenInvalid.Error())
		return
	}
	var verr booking.ValidationError
	if errors.As(err, &verr) {
		api.WriteError(w, http.StatusBadRequest, verr.Code, verr.Message)
		return
	}
	if errors.Is(err, booking.ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "booking not found")
		return
	}
	api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
}
