// Package handler exposes the profile endpoints. All routes require auth; the
// router mounts them behind the JWT middleware.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"soultribe/internal/platform/middleware"
	"soultribe/internal/profile/models"
	"soultribe/internal/profile/service"
	"soultribe/internal/transport/http/shared"
	"soultribe/internal/tzengine"
	dErrors "soultribe/pkg/domainerrors"
)

// Handler registers the profile routes.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New creates the profile handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the profile routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/profile", func(r chi.Router) {
		r.Get("/me", h.me)
		r.Get("/", h.get)
		r.Put("/", h.update)
	})
}

type updateRequest struct {
	DisplayName    *string   `json:"display_name"`
	BirthAt        *string   `json:"birth_at"`
	BirthTimeKnown *bool     `json:"birth_time_known"`
	BirthPlaceName *string   `json:"birth_place_name"`
	BirthLat       *float64  `json:"birth_lat"`
	BirthLon       *float64  `json:"birth_lon"`
	BirthZone      *string   `json:"birth_tz"`
	LivePlaceName  *string   `json:"live_place_name"`
	LiveLat        *float64  `json:"live_lat"`
	LiveLon        *float64  `json:"live_lon"`
	LiveZone       *string   `json:"live_tz"`
	LangPrimary    *string   `json:"lang_primary"`
	LangSecondary  *string   `json:"lang_secondary"`
	Languages      *[]string `json:"languages"`
	NotifyEmail    *bool     `json:"notify_email_meetups"`
	NotifyBrowser  *bool     `json:"notify_browser_meetups"`
}

type profileResponse struct {
	UserID         string    `json:"user_id"`
	DisplayName    string    `json:"display_name"`
	BirthUTC       *string   `json:"birth_dt_utc"`
	BirthTimeKnown bool      `json:"birth_time_known"`
	BirthPlaceName string    `json:"birth_place_name,omitempty"`
	BirthLat       *float64  `json:"birth_lat,omitempty"`
	BirthLon       *float64  `json:"birth_lon,omitempty"`
	BirthZone      string    `json:"birth_tz,omitempty"`
	LivePlaceName  string    `json:"live_place_name,omitempty"`
	LiveLat        *float64  `json:"live_lat,omitempty"`
	LiveLon        *float64  `json:"live_lon,omitempty"`
	LiveZone       string    `json:"live_tz,omitempty"`
	LangPrimary    string    `json:"lang_primary,omitempty"`
	LangSecondary  string    `json:"lang_secondary,omitempty"`
	Languages      []string  `json:"languages,omitempty"`
	NotifyEmail    bool      `json:"notify_email_meetups"`
	NotifyBrowser  bool      `json:"notify_browser_meetups"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toResponse(p *models.Profile) profileResponse {
	resp := profileResponse{
		UserID:         p.UserID.String(),
		DisplayName:    p.DisplayName,
		BirthTimeKnown: p.BirthTimeKnown,
		BirthPlaceName: p.BirthPlaceName,
		BirthLat:       p.BirthLat,
		BirthLon:       p.BirthLon,
		BirthZone:      p.BirthZone,
		LivePlaceName:  p.LivePlaceName,
		LiveLat:        p.LiveLat,
		LiveLon:        p.LiveLon,
		LiveZone:       p.LiveZone,
		LangPrimary:    p.LangPrimary,
		LangSecondary:  p.LangSecondary,
		Languages:      p.Languages,
		NotifyEmail:    p.NotifyEmail,
		NotifyBrowser:  p.NotifyBrowser,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.BirthUTC != nil {
		formatted := tzengine.FormatUTCInstant(*p.BirthUTC)
		resp.BirthUTC = &formatted
	}
	return resp
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.svc.Me(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toResponse(profile))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return
	}

	profile, err := h.svc.Update(r.Context(), middleware.GetUserID(r.Context()), service.UpdateInput{
		DisplayName:    req.DisplayName,
		BirthAt:        req.BirthAt,
		BirthTimeKnown: req.BirthTimeKnown,
		BirthPlaceName: req.BirthPlaceName,
		BirthLat:       req.BirthLat,
		BirthLon:       req.BirthLon,
		BirthZone:      req.BirthZone,
		LivePlaceName:  req.LivePlaceName,
		LiveLat:        req.LiveLat,
		LiveLon:        req.LiveLon,
		LiveZone:       req.LiveZone,
		LangPrimary:    req.LangPrimary,
		LangSecondary:  req.LangSecondary,
		Languages:      req.Languages,
		NotifyEmail:    req.NotifyEmail,
		NotifyBrowser:  req.NotifyBrowser,
	})
	if err != nil {
		h.logger.WarnContext(r.Context(), "profile update rejected", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toResponse(profile))
}
