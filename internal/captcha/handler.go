package captcha

import (
	"net/http"

	"garde-booking/internal/api"
)

type Handler struct {
	Service *Service
}

// Issue hands the public form a fresh challenge to solve before submitting.
func (h Handler) Issue(w http.ResponseWriter, r *http.Request) {
	ch, err := h.Service.Issue(r.Context())
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not issue challenge")
		return
	}
	api.WriteJSON(w, http.StatusCreated, ch)
}
