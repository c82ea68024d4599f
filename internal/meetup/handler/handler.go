// Package handler exposes the meetup endpoints. All routes require auth; the
// router mounts them behind the JWT middleware.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"soultribe/internal/meetup/models"
	"soultribe/internal/meetup/service"
	"soultribe/internal/platform/middleware"
	"soultribe/internal/transport/http/shared"
	"soultribe/internal/tzengine"
	dErrors "soultribe/pkg/domainerrors"
)

// Handler registers the meetup routes.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New creates the meetup handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the meetup routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/meetup", func(r chi.Router) {
		r.Post("/propose", h.propose)
		r.Post("/confirm", h.confirm)
		r.Post("/unconfirm", h.unconfirm)
		r.Post("/cancel", h.cancel)
		r.Get("/list", h.list)
		r.Delete("/{meetupID}", h.delete)
	})
}

type proposeRequest struct {
	MatchID     string `json:"match_id"`
	ProposedUTC string `json:"proposed_dt_utc"`
}

type confirmRequest struct {
	MeetupID     string `json:"meetup_id"`
	ConfirmedUTC string `json:"confirmed_dt_utc"`
}

type meetupIDRequest struct {
	MeetupID string `json:"meetup_id"`
}

type meetupResponse struct {
	ID           string `json:"id"`
	MatchID      string `json:"match_id"`
	ProposedUTC  string `json:"proposed_dt_utc"`
	ConfirmedUTC string `json:"confirmed_dt_utc,omitempty"`
	RoomURL      string `json:"room_url,omitempty"`
	Status       string `json:"status"`
	ProposerID   string `json:"proposer_id"`
}

func toResponse(m *models.Meetup) meetupResponse {
	resp := meetupResponse{
		ID:          m.ID.String(),
		MatchID:     m.MatchID.String(),
		ProposedUTC: tzengine.FormatUTCInstant(m.ProposedUTC),
		RoomURL:     m.RoomURL,
		Status:      string(m.Status),
		ProposerID:  m.ProposerID.String(),
	}
	if m.ConfirmedUTC != nil {
		resp.ConfirmedUTC = tzengine.FormatUTCInstant(*m.ConfirmedUTC)
	}
	return resp
}

func (h *Handler) propose(w http.ResponseWriter, r *http.Request) {
	var req proposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return
	}
	matchID, err := uuid.Parse(req.MatchID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "match_id must be a UUID"))
		return
	}
	proposed, err := optionalInstant(req.ProposedUTC)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "proposed_dt_utc: unparseable timestamp"))
		return
	}

	meetup, err := h.svc.Propose(r.Context(), middleware.GetUserID(r.Context()), matchID, proposed)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toResponse(meetup))
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return
	}
	meetupID, err := uuid.Parse(req.MeetupID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "meetup_id must be a UUID"))
		return
	}
	confirmed, err := optionalInstant(req.ConfirmedUTC)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "confirmed_dt_utc: unparseable timestamp"))
		return
	}

	meetup, err := h.svc.Confirm(r.Context(), middleware.GetUserID(r.Context()), meetupID, confirmed)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toResponse(meetup))
}

func (h *Handler) unconfirm(w http.ResponseWriter, r *http.Request) {
	meetupID, ok := h.decodeMeetupID(w, r)
	if !ok {
		return
	}
	meetup, err := h.svc.Unconfirm(r.Context(), middleware.GetUserID(r.Context()), meetupID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toResponse(meetup))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	meetupID, ok := h.decodeMeetupID(w, r)
	if !ok {
		return
	}
	meetup, err := h.svc.Cancel(r.Context(), middleware.GetUserID(r.Context()), meetupID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toResponse(meetup))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	entries, err := h.svc.List(r.Context(), middleware.GetUserID(r.Context()), limit, offset)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	meetupID, err := uuid.Parse(chi.URLParam(r, "meetupID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "meetup not found"))
		return
	}
	if err := h.svc.Delete(r.Context(), middleware.GetUserID(r.Context()), meetupID); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeMeetupID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var req meetupIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return uuid.Nil, false
	}
	meetupID, err := uuid.Parse(req.MeetupID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "meetup_id must be a UUID"))
		return uuid.Nil, false
	}
	return meetupID, true
}

func optionalInstant(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	at, err := tzengine.ParseUTCInstant(s)
	if err != nil {
		return nil, err
	}
	return &at, nil
}
