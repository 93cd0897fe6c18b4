package booking

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"garde-booking/internal/api"
	"garde-booking/internal/history"
	"garde-booking/internal/status"
)

type Handlers struct {
	Service  *Service
	History  *history.Repository
	Validate *validator.Validate
}

// Create handles the public form submission.
func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	if err := h.Validate.Struct(in); err != nil {
		msg := "invalid input"
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			msg = "invalid field: " + verrs[0].Field()
		}
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", msg)
		return
	}

	in.IPAddress = clientIP(r)
	in.UserAgent = r.UserAgent()

	b, err := h.Service.Create(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, map[string]any{"booking": b})
}

// List serves the three dashboard views: active (default), archived, trashed.
func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	var (
		items []Summary
		err   error
	)
	switch r.URL.Query().Get("view") {
	case "", "active":
		items, err = h.Service.ListActive(r.Context())
	case "archived":
		items, err = h.Service.ListArchived(r.Context())
	case "trashed":
		items, err = h.Service.ListTrashed(r.Context())
	default:
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "view must be active, archived or trashed")
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if items == nil {
		items = []Summary{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Get returns the record, its transition history and the transitions the UI
// may offer from the current status.
func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	entries, err := h.History.ListByBooking(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"booking":              b,
		"history":              entries,
		"availableTransitions": describeTransitions(b.Status),
	})
}

type patchStatusRequest struct {
	Status        string `json:"status"`
	Notes         string `json:"notes"`
	Reason        string `json:"reason"`
	AdminApproved bool   `json:"adminApproved"`
}

func (h Handlers) PatchStatus(w http.ResponseWriter, r *http.Request) {
	admin := api.AdminFromContext(r.Context())
	if admin == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing admin identity")
		return
	}

	var req patchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	to, err := status.ParseCode(req.Status)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid status")
		return
	}

	b, err := h.Service.ChangeStatus(r.Context(), chi.URLParam(r, "id"), to, ChangeOptions{
		Actor:         admin.Email,
		Notes:         req.Notes,
		Reason:        req.Reason,
		AdminApproved: req.AdminApproved,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"booking": b})
}

type bulkStatusRequest struct {
	IDs           []string `json:"ids"`
	Status        string   `json:"status"`
	Notes         string   `json:"notes"`
	Reason        string   `json:"reason"`
	AdminApproved bool     `json:"adminApproved"`
}

func (h Handlers) BulkStatus(w http.ResponseWriter, r *http.Request) {
	admin := api.AdminFromContext(r.Context())
	if admin == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing admin identity")
		return
	}

	var req bulkStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if len(req.IDs) == 0 {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "ids must not be empty")
		return
	}
	to, err := status.ParseCode(req.Status)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid status")
		return
	}

	out := h.Service.BulkChangeStatus(r.Context(), req.IDs, to, ChangeOptions{
		Actor:         admin.Email,
		Notes:         req.Notes,
		Reason:        req.Reason,
		AdminApproved: req.AdminApproved,
	})
	api.WriteJSON(w, http.StatusOK, out)
}

type lifecycleRequest struct {
	Notes string `json:"notes"`
}

func (h Handlers) Trash(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(id string, opts ChangeOptions) error {
		return h.Service.Trash(r.Context(), id, opts)
	})
}

func (h Handlers) Archive(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(id string, opts ChangeOptions) error {
		return h.Service.Archive(r.Context(), id, opts)
	})
}

func (h Handlers) lifecycle(w http.ResponseWriter, r *http.Request, op func(id string, opts ChangeOptions) error) {
	admin := api.AdminFromContext(r.Context())
	if admin == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing admin identity")
		return
	}

	var req lifecycleRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
			return
		}
	}

	if err := op(chi.URLParam(r, "id"), ChangeOptions{Actor: admin.Email, Notes: req.Notes}); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Restore and Unarchive return the record to the active view and hand the UI
// the constrained status menu for the follow-up choice.
func (h Handlers) Restore(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Restore(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"statusChoices": restoredStatusMenu})
}

func (h Handlers) Unarchive(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Unarchive(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"statusChoices": restoredStatusMenu})
}

type restoredStatusRequest struct {
	Status string `json:"status"`
}

func (h Handlers) RestoredStatus(w http.ResponseWriter, r *http.Request) {
	admin := api.AdminFromContext(r.Context())
	if admin == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing admin identity")
		return
	}

	var req restoredStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	to, err := status.ParseCode(req.Status)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid status")
		return
	}

	b, err := h.Service.ChooseRestoredStatus(r.Context(), chi.URLParam(r, "id"), to, admin.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"booking": b})
}

type bulkIDsRequest struct {
	IDs   []string `json:"ids"`
	Notes string   `json:"notes"`
}

func (h Handlers) BulkTrash(w http.ResponseWriter, r *http.Request) {
	h.bulkLifecycle(w, r, func(ids []string, opts ChangeOptions) BulkOutcome {
		return h.Service.BulkTrash(r.Context(), ids, opts)
	})
}

func (h Handlers) BulkRestore(w http.ResponseWriter, r *http.Request) {
	h.bulkLifecycle(w, r, func(ids []string, opts ChangeOptions) BulkOutcome {
		return h.Service.BulkRestore(r.Context(), ids)
	})
}

func (h Handlers) BulkArchive(w http.ResponseWriter, r *http.Request) {
	h.bulkLifecycle(w, r, func(ids []string, opts ChangeOptions) BulkOutcome {
		return h.Service.BulkArchive(r.Context(), ids, opts)
	})
}

func (h Handlers) bulkLifecycle(w http.ResponseWriter, r *http.Request, op func(ids []string, opts ChangeOptions) BulkOutcome) {
	admin := api.AdminFromContext(r.Context())
	if admin == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing admin identity")
		return
	}

	var req bulkIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if len(req.IDs) == 0 {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "ids must not be empty")
		return
	}

	api.WriteJSON(w, http.StatusOK, op(req.IDs, ChangeOptions{Actor: admin.Email, Notes: req.Notes}))
}

type bulkUnarchiveRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

func (h Handlers) BulkUnarchive(w http.ResponseWriter, r *http.Request) {
	admin := api.AdminFromContext(r.Context())
	if admin == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing admin identity")
		return
	}

	var req bulkUnarchiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if len(req.IDs) == 0 {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "ids must not be empty")
		return
	}
	to, err := status.ParseCode(req.Status)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid status")
		return
	}

	api.WriteJSON(w, http.StatusOK, h.Service.BulkUnarchive(r.Context(), req.IDs, to, admin.Email))
}

func (h Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.PermanentlyDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Statuses exposes the catalog so the dashboard renders columns from the
// same source of truth the service enforces.
func (h Handlers) Statuses(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": status.All()})
}

// Transitions lists the outgoing edges of a status, enriched with the target
// status display metadata.
func (h Handlers) Transitions(w http.ResponseWriter, r *http.Request) {
	code := status.Code(chi.URLParam(r, "code"))
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": describeTransitions(code)})
}

type transitionView struct {
	To status.Status `json:"to"`
	status.Requirements
	AutoActions []status.AutoAction `json:"autoActions,omitempty"`
}

func describeTransitions(from status.Code) []transitionView {
	out := []transitionView{}
	for _, t := range status.AvailableFrom(from) {
		target, ok := status.ByCode(t.To)
		if !ok {
			continue
		}
		out = append(out, transitionView{To: target, Requirements: t.Requirements, AutoActions: t.AutoActions})
	}
	return out
}

// writeDomainError maps the service error taxonomy onto HTTP statuses so
// every handler reports failures the same way.
func writeDomainError(w http.ResponseWriter, err error) {
	var verr ValidationError
	if errors.As(err, &verr) {
		api.WriteError(w, http.StatusBadRequest, verr.Code, verr.Message)
		return
	}
	var perr PolicyError
	if errors.As(err, &perr) {
		api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", perr.Error())
		return
	}
	var conflict StateConflictError
	if errors.As(err, &conflict) {
		api.WriteError(w, http.StatusConflict, conflict.Code, conflict.Message)
		return
	}
	if errors.Is(err, ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "booking not found")
		return
	}
	api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First hop is the client.
		for i := 0; i < len(fwd); i++ {
			if fwd[i] == ',' {
				return fwd[:i]
			}
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
