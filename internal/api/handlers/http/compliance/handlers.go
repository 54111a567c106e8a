package compliance

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/domain"
	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/service"
	"github.com/RaaSaaR-org/robot-management-system-sub004/pkg/validator"
)

type Handler struct {
	logger        *slog.Logger
	Incidents     service.IncidentService
	Notifications service.NotificationService
	Templates     service.TemplateService
	Stats         service.StatsService
}

func NewHandler(logger *slog.Logger, svc *service.Service) *Handler {
	return &Handler{
		logger:        logger,
		Incidents:     svc.Incidents,
		Notifications: svc.Notifications,
		Templates:     svc.Templates,
		Stats:         svc.Stats,
	}
}

func (h *Handler) log(r *http.Request) *slog.Logger {
	reqID := chimw.GetReqID(r.Context())
	if reqID == "" {
		return h.logger
	}
	return h.logger.With(slog.String("request_id", reqID))
}

// --- incidents ---

func (h *Handler) IncidentCreate(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)

	var req domain.CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		l.Warn("invalid JSON", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, errBody("invalid JSON"))
		return
	}
	if err := validator.ValidateStruct(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errBody(err.Error()))
		return
	}

	inc, err := h.Incidents.Create(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("incident created",
		slog.String("id", inc.ID.String()),
		slog.String("incident_number", inc.IncidentNumber),
	)
	h.writeJSON(w, http.StatusCreated, inc)
}

func (h *Handler) IncidentList(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)

	req, err := parseListRequest(r)
	if err != nil {
		l.Warn("invalid list query", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, errBody(err.Error()))
		return
	}

	resp, err := h.Incidents.List(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) IncidentGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	inc, err := h.Incidents.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, inc)
}

func (h *Handler) IncidentUpdate(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req domain.UpdateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		l.Warn("invalid JSON", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, errBody("invalid JSON"))
		return
	}
	if err := validator.ValidateStruct(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errBody(err.Error()))
		return
	}

	inc, err := h.Incidents.Update(r.Context(), id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, inc)
}

func (h *Handler) IncidentTransition(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req domain.TransitionIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		l.Warn("invalid JSON", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, errBody("invalid JSON"))
		return
	}
	if err := validator.ValidateStruct(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errBody(err.Error()))
		return
	}

	inc, err := h.Incidents.Transition(r.Context(), id, req.Status)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("incident transitioned",
		slog.String("id", inc.ID.String()),
		slog.String("status", string(inc.Status)),
	)
	h.writeJSON(w, http.StatusOK, inc)
}

func (h *Handler) IncidentDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.Incidents.Delete(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- notifications ---

func (h *Handler) NotificationList(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	views, err := h.Notifications.ListByIncident(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"notifications": views})
}

func (h *Handler) NotificationRegenerate(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	added, err := h.Notifications.Regenerate(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("workflow regenerated", slog.String("incident_id", id.String()), slog.Int64("added", added))
	h.writeJSON(w, http.StatusOK, map[string]int64{"added": added})
}

func (h *Handler) NotificationSend(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req domain.MarkSentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		l.Warn("invalid JSON", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, errBody("invalid JSON"))
		return
	}
	if err := validator.ValidateStruct(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errBody(err.Error()))
		return
	}

	n, err := h.Notifications.MarkSent(r.Context(), id, req.UserID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, n)
}

func (h *Handler) NotificationAcknowledge(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	n, err := h.Notifications.Acknowledge(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, n)
}

func (h *Handler) NotificationContent(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req domain.GenerateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		l.Warn("invalid JSON", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, errBody("invalid JSON"))
		return
	}
	if err := validator.ValidateStruct(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errBody(err.Error()))
		return
	}

	n, err := h.Notifications.SaveContent(r.Context(), id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, n)
}

// --- templates ---

func (h *Handler) TemplateCreate(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)

	var req domain.CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		l.Warn("invalid JSON", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, errBody("invalid JSON"))
		return
	}
	if err := validator.ValidateStruct(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errBody(err.Error()))
		return
	}

	tmpl, err := h.Templates.Create(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, tmpl)
}

func (h *Handler) TemplateList(w http.ResponseWriter, r *http.Request) {
	tmpls, err := h.Templates.List(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"templates": tmpls})
}

func (h *Handler) TemplateGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	tmpl, err := h.Templates.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tmpl)
}

func (h *Handler) TemplateUpdate(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req domain.UpdateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		l.Warn("invalid JSON", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, errBody("invalid JSON"))
		return
	}
	if err := validator.ValidateStruct(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errBody(err.Error()))
		return
	}

	tmpl, err := h.Templates.Update(r.Context(), id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tmpl)
}

func (h *Handler) TemplateDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.Templates.Delete(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- stats ---

func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Stats.Dashboard(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// --- helpers ---

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.log(r).Warn("invalid id", slog.String("id", idStr), slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, errBody("invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

func parseListRequest(r *http.Request) (domain.ListIncidentsRequest, error) {
	q := r.URL.Query()

	req := domain.ListIncidentsRequest{
		Page:  parseInt(q.Get("page"), 1),
		Limit: parseInt(q.Get("limit"), 20),
	}

	if v := q.Get("type"); v != "" {
		t := domain.IncidentType(v)
		req.Type = &t
	}
	if v := q.Get("severity"); v != "" {
		s := domain.IncidentSeverity(v)
		req.Severity = &s
	}
	if v := q.Get("status"); v != "" {
		s := domain.IncidentStatus(v)
		req.Status = &s
	}
	if v := q.Get("robot_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return req, err
		}
		req.RobotID = &id
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return req, err
		}
		req.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return req, err
		}
		req.To = &t
	}

	if err := validator.ValidateStruct(req); err != nil {
		return req, err
	}
	return req, nil
}
