// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/dragvollklubb/paamelding/internal/captcha"
	"github.com/dragvollklubb/paamelding/internal/model"
	"github.com/dragvollklubb/paamelding/internal/repository"
	"github.com/dragvollklubb/paamelding/internal/service"
	"github.com/dragvollklubb/paamelding/internal/timezone"
)

// Handler holds all HTTP handlers for the signup API.
type Handler struct {
	signup *service.SignupService
	admin  *service.AdminService
}

// New constructs a Handler.
func New(signup *service.SignupService, admin *service.AdminService) *Handler {
	return &Handler{signup: signup, admin: admin}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// writeServiceError maps service and store errors to HTTP responses. Raw
// storage or transport errors never reach the client; they are logged and
// replaced by a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Message)
	case errors.Is(err, service.ErrRejected):
		writeError(w, http.StatusBadRequest, "Avvist.")
	case errors.Is(err, service.ErrMissingCaptcha):
		writeError(w, http.StatusBadRequest, "CAPTCHA mangler.")
	case errors.Is(err, captcha.ErrVerificationFailed):
		writeError(w, http.StatusBadRequest, "CAPTCHA feilet. Prøv igjen.")
	case errors.Is(err, captcha.ErrNotConfigured):
		writeError(w, http.StatusInternalServerError, "Server misconfig (TURNSTILE_SECRET_KEY).")
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "Økten finnes ikke.")
	case errors.Is(err, repository.ErrSessionFull):
		writeError(w, http.StatusConflict, "Økten er full.")
	default:
		log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		writeError(w, http.StatusInternalServerError, "Noe gikk galt.")
	}
}

// ─── View types ───────────────────────────────────────────────────────────────

// sessionView adds pre-rendered local-time strings so clients never do
// timezone math themselves.
type sessionView struct {
	model.Session
	StartsDisplay string `json:"starts_display"`
	EndsDisplay   string `json:"ends_display"`
}

// adminSessionView additionally carries datetime-local strings for
// pre-filling the edit form.
type adminSessionView struct {
	sessionView
	StartsAtInput string `json:"startsAtInput"`
	EndsAtInput   string `json:"endsAtInput"`
}

type registrationView struct {
	model.Registration
	CreatedDisplay string `json:"created_display"`
}

func newSessionView(s model.Session) sessionView {
	return sessionView{
		Session:       s,
		StartsDisplay: timezone.FormatDisplay(s.StartsAt),
		EndsDisplay:   timezone.FormatDisplay(s.EndsAt),
	}
}

func newAdminSessionView(s model.Session) adminSessionView {
	return adminSessionView{
		sessionView:   newSessionView(s),
		StartsAtInput: timezone.FormatFormInput(s.StartsAt),
		EndsAtInput:   timezone.FormatFormInput(s.EndsAt),
	}
}

func newRegistrationView(reg model.Registration) registrationView {
	return registrationView{
		Registration:   reg,
		CreatedDisplay: timezone.FormatDisplay(reg.CreatedAt),
	}
}

// ─── Public handlers ──────────────────────────────────────────────────────────

// ListSessions handles GET /api/sessions
// Returns upcoming sessions, soonest first.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	sessions, err := h.signup.UpcomingSessions(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, newSessionView(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": views})
}

// ListRegistrations handles GET /api/sessions/{id}/registrations
// Returns a session's registrations, oldest first.
func (h *Handler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Ugyldig økt.")
		return
	}

	regs, err := h.signup.SessionRegistrations(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	views := make([]registrationView, 0, len(regs))
	for _, reg := range regs {
		views = append(views, newRegistrationView(reg))
	}
	writeJSON(w, http.StatusOK, map[string]any{"registrations": views})
}

// Register handles POST /api/register
// Admits a member to a session through the full admission pipeline.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var p model.RegisterPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "Ugyldig forespørsel.")
		return
	}

	if _, err := h.signup.Register(r.Context(), p); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w)
}

// UnregisterRequest handles POST /api/unregister-request
// Records a request to be taken off a session. A tripped honeypot answers
// with the same success body as a real submission.
func (h *Handler) UnregisterRequest(w http.ResponseWriter, r *http.Request) {
	var p model.UnregisterPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "Ugyldig forespørsel.")
		return
	}

	err := h.signup.RequestUnregister(r.Context(), p)
	if errors.Is(err, service.ErrRejected) {
		writeOK(w)
		return
	}
	if err != nil {
		if errors.Is(err, service.ErrMissingCaptcha) {
			writeError(w, http.StatusBadRequest, "Fullfør CAPTCHA.")
			return
		}
		writeServiceError(w, r, err)
		return
	}
	writeOK(w)
}

// ─── Admin handlers ───────────────────────────────────────────────────────────

// AdminListSessions handles GET /admin/api/sessions
func (h *Handler) AdminListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.admin.Sessions(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	views := make([]adminSessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, newAdminSessionView(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": views})
}

// AdminCreateSession handles POST /admin/api/sessions
func (h *Handler) AdminCreateSession(w http.ResponseWriter, r *http.Request) {
	var p model.SessionPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "Ugyldig forespørsel.")
		return
	}

	sess, err := h.admin.CreateSession(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAdminSessionView(*sess))
}

// AdminUpdateSession handles PUT /admin/api/sessions/{id}
func (h *Handler) AdminUpdateSession(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Ugyldig økt.")
		return
	}

	var p model.SessionPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "Ugyldig forespørsel.")
		return
	}

	if err := h.admin.UpdateSession(r.Context(), id, p); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w)
}

// AdminDeleteSession handles DELETE /admin/api/sessions/{id}
// Deleting a session removes all of its registrations.
func (h *Handler) AdminDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Ugyldig økt.")
		return
	}

	if err := h.admin.DeleteSession(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w)
}

// AdminListRegistrations handles GET /admin/api/registrations
func (h *Handler) AdminListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.admin.RecentRegistrations(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	views := make([]registrationView, 0, len(regs))
	for _, reg := range regs {
		views = append(views, newRegistrationView(reg))
	}
	writeJSON(w, http.StatusOK, map[string]any{"registrations": views})
}

// AdminUpdateRegistration handles PUT /admin/api/registrations/{id}
func (h *Handler) AdminUpdateRegistration(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Ugyldig ID.")
		return
	}

	var p model.RegistrationPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "Ugyldig forespørsel.")
		return
	}

	if err := h.admin.UpdateRegistration(r.Context(), id, p); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w)
}

// AdminDeleteRegistration handles DELETE /admin/api/registrations/{id}
func (h *Handler) AdminDeleteRegistration(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Ugyldig ID.")
		return
	}

	if err := h.admin.DeleteRegistration(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
