// Package handler exposes the match endpoints. All routes require auth; the
// router mounts them behind the JWT middleware.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"soultribe/internal/match/models"
	"soultribe/internal/match/service"
	"soultribe/internal/platform/middleware"
	"soultribe/internal/transport/http/shared"
	dErrors "soultribe/pkg/domainerrors"
)

// Limiter is the rate limit middleware the router injects for /find.
type Limiter func(http.Handler) http.Handler

// Handler registers the match routes.
type Handler struct {
	svc       *service.Service
	findLimit Limiter
	logger    *slog.Logger
}

// New creates the match handler.
func New(svc *service.Service, findLimit Limiter, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, findLimit: findLimit, logger: logger}
}

// Register mounts the match routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/match", func(r chi.Router) {
		limit := h.findLimit
		if limit == nil {
			limit = func(next http.Handler) http.Handler { return next }
		}
		r.With(limit).Post("/find", h.find)
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Post("/{matchID}/status", h.setStatus)
	})
}

type findRequest struct {
	Limit         int  `json:"limit"`
	Offset        int  `json:"offset"`
	MinScore      *int `json:"min_score"`
	LookaheadDays int  `json:"lookahead_days"`
	MaxOverlaps   int  `json:"max_overlaps"`
}

type createRequest struct {
	UserID string `json:"user_id"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type matchResponse struct {
	ID      string `json:"match_id"`
	AUserID string `json:"a_user_id"`
	BUserID string `json:"b_user_id"`
	Score   int    `json:"score"`
	Status  string `json:"status"`
}

func toResponse(m *models.Match) matchResponse {
	return matchResponse{
		ID:      m.ID.String(),
		AUserID: m.AUserID.String(),
		BUserID: m.BUserID.String(),
		Score:   m.Score,
		Status:  string(m.Status),
	}
}

func (h *Handler) find(w http.ResponseWriter, r *http.Request) {
	var req findRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return
	}

	page, err := h.svc.Find(r.Context(), middleware.GetUserID(r.Context()), service.FindInput{
		Limit:         req.Limit,
		Offset:        req.Offset,
		MinScore:      req.MinScore,
		LookaheadDays: req.LookaheadDays,
		MaxOverlaps:   req.MaxOverlaps,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(page.Total))
	w.Header().Set("X-Limit", strconv.Itoa(page.Limit))
	w.Header().Set("X-Offset", strconv.Itoa(page.Offset))
	w.Header().Set("X-Has-More", strconv.FormatBool(page.HasMore))
	shared.WriteJSON(w, http.StatusOK, page.Candidates)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return
	}
	otherID, err := uuid.Parse(req.UserID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "user_id must be a UUID"))
		return
	}

	match, err := h.svc.Create(r.Context(), middleware.GetUserID(r.Context()), otherID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toResponse(match))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	matches, err := h.svc.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]matchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, toResponse(m))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	matchID, err := uuid.Parse(chi.URLParam(r, "matchID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "match not found"))
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return
	}

	match, err := h.svc.SetStatus(r.Context(), middleware.GetUserID(r.Context()), matchID, models.Status(req.Status))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toResponse(match))
}
