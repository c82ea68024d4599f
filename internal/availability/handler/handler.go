// Package handler exposes the availability endpoints. All routes require
// auth; the router mounts them behind the JWT middleware.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"soultribe/internal/availability/models"
	"soultribe/internal/availability/service"
	"soultribe/internal/platform/middleware"
	"soultribe/internal/transport/http/shared"
	"soultribe/internal/tzengine"
	dErrors "soultribe/pkg/domainerrors"
)

// Handler registers the availability routes.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New creates the availability handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the availability routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/availability", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Put("/{slotID}", h.update)
		r.Delete("/{slotID}", h.remove)
	})
}

type slotRequest struct {
	StartUTC   string `json:"start_dt_utc"`
	EndUTC     string `json:"end_dt_utc"`
	StartLocal string `json:"start_dt_local"`
	EndLocal   string `json:"end_dt_local"`
	Zone       string `json:"timezone"`
}

type slotResponse struct {
	ID         string `json:"id"`
	StartUTC   string `json:"start_dt_utc"`
	EndUTC     string `json:"end_dt_utc"`
	StartLocal string `json:"start_dt_local,omitempty"`
	EndLocal   string `json:"end_dt_local,omitempty"`
	Zone       string `json:"timezone,omitempty"`
}

func toResponse(slot *models.Slot) slotResponse {
	return slotResponse{
		ID:         slot.ID.String(),
		StartUTC:   tzengine.FormatUTCInstant(slot.StartUTC),
		EndUTC:     tzengine.FormatUTCInstant(slot.EndUTC),
		StartLocal: slot.StartLocal,
		EndLocal:   slot.EndLocal,
		Zone:       slot.Zone,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	slots, err := h.svc.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]slotResponse, 0, len(slots))
	for _, slot := range slots {
		out = append(out, toResponse(slot))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	slot, err := h.svc.Create(r.Context(), middleware.GetUserID(r.Context()), input)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toResponse(slot))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	slotID, err := uuid.Parse(chi.URLParam(r, "slotID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "slot not found"))
		return
	}
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	slot, err := h.svc.Update(r.Context(), middleware.GetUserID(r.Context()), slotID, input)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toResponse(slot))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	slotID, err := uuid.Parse(chi.URLParam(r, "slotID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "slot not found"))
		return
	}
	if err := h.svc.Delete(r.Context(), middleware.GetUserID(r.Context()), slotID); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (service.SlotInput, bool) {
	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return service.SlotInput{}, false
	}

	input := service.SlotInput{
		StartLocal: req.StartLocal,
		EndLocal:   req.EndLocal,
		Zone:       req.Zone,
	}
	var err error
	if input.StartUTC, err = tzengine.ParseUTCInstant(req.StartUTC); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "start_dt_utc: expected an ISO timestamp"))
		return service.SlotInput{}, false
	}
	if input.EndUTC, err = tzengine.ParseUTCInstant(req.EndUTC); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "end_dt_utc: expected an ISO timestamp"))
		return service.SlotInput{}, false
	}
	return input, true
}
