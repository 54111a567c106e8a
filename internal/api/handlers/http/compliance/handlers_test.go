package compliance_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"

	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/api/handlers/http/compliance"
	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/domain"
	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/service"
	"github.com/RaaSaaR-org/robot-management-system-sub004/pkg/e"

	mock_service "github.com/RaaSaaR-org/robot-management-system-sub004/internal/service/mocks"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

func addChiURLParam(r *http.Request, key, val string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, val)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json response: %v, body=%s", err, rr.Body.String())
	}
	return out
}

type handlerMocks struct {
	incidents     *mock_service.MockIncidentService
	notifications *mock_service.MockNotificationService
	templates     *mock_service.MockTemplateService
	stats         *mock_service.MockStatsService
}

func newHandler(ctrl *gomock.Controller) (*compliance.Handler, handlerMocks) {
	m := handlerMocks{
		incidents:     mock_service.NewMockIncidentService(ctrl),
		notifications: mock_service.NewMockNotificationService(ctrl),
		templates:     mock_service.NewMockTemplateService(ctrl),
		stats:         mock_service.NewMockStatsService(ctrl),
	}
	svc := service.NewService(m.incidents, m.notifications, m.templates, m.stats)
	return compliance.NewHandler(newTestLogger(), svc), m
}

// --- incidents ---

func TestIncidentCreate_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newHandler(ctrl)

	reqBody := `{"type":"data_breach","severity":"high","title":"Customer export leaked","description":"bucket public"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents/", bytes.NewBufferString(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	want := &domain.Incident{
		ID:             uuid.New(),
		IncidentNumber: "INC-2025-001",
		Type:           domain.IncidentDataBreach,
		Severity:       domain.SeverityHigh,
		Status:         domain.IncidentDetected,
	}

	m.incidents.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req domain.CreateIncidentRequest) (*domain.Incident, error) {
			if req.Type != domain.IncidentDataBreach || req.Severity != domain.SeverityHigh {
				t.Fatalf("unexpected request %+v", req)
			}
			return want, nil
		}).
		Times(1)

	h.IncidentCreate(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected %d got %d, body=%s", http.StatusCreated, rr.Code, rr.Body.String())
	}

	got := decodeJSON[domain.Incident](t, rr)
	if got.IncidentNumber != "INC-2025-001" {
		t.Fatalf("expected INC-2025-001, got %q", got.IncidentNumber)
	}
}

func TestIncidentCreate_InvalidJSON_400(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, _ := newHandler(ctrl)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents/", bytes.NewBufferString("{bad json"))
	rr := httptest.NewRecorder()

	h.IncidentCreate(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d got %d, body=%s", http.StatusBadRequest, rr.Code, rr.Body.String())
	}
}

func TestIncidentCreate_UnknownType_400(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, _ := newHandler(ctrl)
	// service must never be called

	reqBody := `{"type":"weather","severity":"high","title":"Storm","description":"lightning"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents/", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	h.IncidentCreate(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d got %d, body=%s", http.StatusBadRequest, rr.Code, rr.Body.String())
	}
}

func TestIncidentGet_InvalidID_400(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, _ := newHandler(ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/incidents/not-a-uuid", nil)
	req = addChiURLParam(req, "id", "not-a-uuid")
	rr := httptest.NewRecorder()

	h.IncidentGet(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestIncidentGet_NotFound_404(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newHandler(ctrl)

	id := uuid.New()
	m.incidents.EXPECT().
		Get(gomock.Any(), id).
		Return(nil, e.ErrNotFound).
		Times(1)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/incidents/"+id.String(), nil)
	req = addChiURLParam(req, "id", id.String())
	rr := httptest.NewRecorder()

	h.IncidentGet(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected %d got %d, body=%s", http.StatusNotFound, rr.Code, rr.Body.String())
	}
}

func TestIncidentList_FiltersForwarded(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newHandler(ctrl)

	m.incidents.EXPECT().
		List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req domain.ListIncidentsRequest) (*domain.ListIncidentsResponse, error) {
			if req.Page != 2 || req.Limit != 10 {
				t.Fatalf("pagination not forwarded: %+v", req)
			}
			if req.Severity == nil || *req.Severity != domain.SeverityCritical {
				t.Fatalf("severity filter not forwarded: %+v", req)
			}
			if req.Status == nil || *req.Status != domain.IncidentInvestigating {
				t.Fatalf("status filter not forwarded: %+v", req)
			}
			return &domain.ListIncidentsResponse{Incidents: []domain.Incident{}, Page: 2, Limit: 10}, nil
		}).
		Times(1)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/incidents/?page=2&limit=10&severity=critical&status=investigating", nil)
	rr := httptest.NewRecorder()

	h.IncidentList(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d got %d, body=%s", http.StatusOK, rr.Code, rr.Body.String())
	}
}

func TestIncidentTransition_IllegalJump_422(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newHandler(ctrl)

	id := uuid.New()
	m.incidents.EXPECT().
		Transition(gomock.Any(), id, domain.IncidentClosed).
		Return(nil, e.ErrInvalidTransition).
		Times(1)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents/"+id.String()+"/transition", bytes.NewBufferString(`{"status":"closed"}`))
	req = addChiURLParam(req, "id", id.String())
	rr := httptest.NewRecorder()

	h.IncidentTransition(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected %d got %d, body=%s", http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
	}
}

func TestIncidentTransition_Terminal_409(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newHandler(ctrl)

	id := uuid.New()
	m.incidents.EXPECT().
		Transition(gomock.Any(), id, domain.IncidentInvestigating).
		Return(nil, e.ErrAlreadyFinalized).
		Times(1)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents/"+id.String()+"/transition", bytes.NewBufferString(`{"status":"investigating"}`))
	req = addChiURLParam(req, "id", id.String())
	rr := httptest.NewRecorder()

	h.IncidentTransition(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected %d got %d, body=%s", http.StatusConflict, rr.Code, rr.Body.String())
	}
}

func TestIncidentTransition_UnknownStatus_400(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, _ := newHandler(ctrl)

	id := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents/"+id.String()+"/transition", bytes.NewBufferString(`{"status":"archived"}`))
	req = addChiURLParam(req, "id", id.String())
	rr := httptest.NewRecorder()

	h.IncidentTransition(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d got %d, body=%s", http.StatusBadRequest, rr.Code, rr.Body.String())
	}
}

func TestIncidentDelete_OK_204(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newHandler(ctrl)

	id := uuid.New()
	m.incidents.EXPECT().Delete(gomock.Any(), id).Return(nil).Times(1)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/incidents/"+id.String(), nil)
	req = addChiURLParam(req, "id", id.String())
	rr := httptest.NewRecorder()

	h.IncidentDelete(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected %d got %d", http.StatusNoContent, rr.Code)
	}
}

// --- notifications ---

func TestNotificationList_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newHandler(ctrl)

	incidentID := uuid.New()
	views := []domain.NotificationView{
		{
			IncidentNotification: domain.IncidentNotification{
				ID:         uuid.New(),
				IncidentID: incidentID,
				Status:     domain.NotificationPending,
				DueAt:      time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC),
			},
			EffectiveStatus: domain.NotificationPending,
			HoursRemaining:  72,
		},
	}
	m.notifications.EXPECT().
		ListByIncident(gomock.Any(), incidentID).
		Return(views, nil).
		Times(1)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/incidents/"+incidentID.String()+"/notifications", nil)
	req = addChiURLParam(req, "id", incidentID.String())
	rr := httptest.NewRecorder()

	h.NotificationList(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d got %d, body=%s", http.StatusOK, rr.Code, rr.Body.String())
	}
}

func TestNotificationSend_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newHandler(ctrl)

	id := uuid.New()
	userID := uuid.New()

	m.notifications.EXPECT().
		MarkSent(gomock.Any(), id, userID).
		Return(&domain.IncidentNotification{ID: id, Status: domain.NotificationSent}, nil).
		Times(1)

	body := `{"user_id":"` + userID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+id.String()+"/send", bytes.NewBufferString(body))
	req = addChiURLParam(req, "id", id.String())
	rr := httptest.NewRecorder()

	h.NotificationSend(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d got %d, body=%s", http.StatusOK, rr.Code, rr.Body.String())
	}

	got := decodeJSON[domain.IncidentNotification](t, rr)
	if got.Status != domain.NotificationSent {
		t.Fatalf("expected sent, got %q", got.Status)
	}
}

func TestNotificationSend_MissingUser_400(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, _ := newHandler(ctrl)

	id := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+id.String()+"/send", bytes.NewBufferString(`{}`))
	req = addChiURLParam(req, "id", id.String())
	rr := httptest.NewRecorder()

	h.NotificationSend(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d got %d, body=%s", http.StatusBadRequest, rr.Code, rr.Body.String())
	}
}

func TestNotificationSend_AlreadySent_409(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newHandler(ctrl)

	id := uuid.New()
	userID := uuid.New()
	m.notifications.EXPECT().
		MarkSent(gomock.Any(), id, userID).
		Return(nil, e.ErrAlreadyFinalized).
		Times(1)

	body := `{"user_id":"` + userID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+id.String()+"/send", bytes.NewBufferString(body))
	req = addChiURLParam(req, "id", id.String())
	rr := httptest.NewRecorder()

	h.NotificationSend(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected %d got %d, body=%s", http.StatusConflict, rr.Code, rr.Body.String())
	}
}

func TestNotificationAcknowledge_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newHandler(ctrl)

	id := uuid.New()
	m.notifications.EXPECT().
		Acknowledge(gomock.Any(), id).
		Return(&domain.IncidentNotification{ID: id, Status: domain.NotificationAcknowledged}, nil).
		Times(1)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+id.String()+"/acknowledge", nil)
	req = addChiURLParam(req, "id", id.String())
	rr := httptest.NewRecorder()

	h.NotificationAcknowledge(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d got %d, body=%s", http.StatusOK, rr.Code, rr.Body.String())
	}
}

// --- stats ---

func TestDashboardStats_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newHandler(ctrl)

	m.stats.EXPECT().
		Dashboard(gomock.Any()).
		Return(&domain.DashboardStats{TotalIncidents: 3, OverdueNotifications: 1}, nil).
		Times(1)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/dashboard", nil)
	rr := httptest.NewRecorder()

	h.DashboardStats(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d got %d, body=%s", http.StatusOK, rr.Code, rr.Body.String())
	}

	got := decodeJSON[domain.DashboardStats](t, rr)
	if got.TotalIncidents != 3 || got.OverdueNotifications != 1 {
		t.Fatalf("unexpected stats: %+v", got)
	}
}

// --- templates ---

func TestTemplateCreate_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newHandler(ctrl)

	want := &domain.NotificationTemplate{
		ID:               uuid.New(),
		Name:             "GDPR initial",
		Regulation:       domain.RegulationGDPR,
		Authority:        domain.AuthorityDPA,
		NotificationType: domain.NotificationInitial,
	}
	m.templates.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(want, nil).
		Times(1)

	body := `{"name":"GDPR initial","regulation":"gdpr","authority":"dpa","notification_type":"initial","subject":"Breach report","body":"..."}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/templates/", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()

	h.TemplateCreate(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected %d got %d, body=%s", http.StatusCreated, rr.Code, rr.Body.String())
	}
}

func TestTemplateCreate_UnknownRegulation_400(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, _ := newHandler(ctrl)

	body := `{"name":"Bogus","regulation":"hipaa","authority":"dpa","notification_type":"initial","subject":"s","body":"b"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/templates/", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()

	h.TemplateCreate(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d got %d, body=%s", http.StatusBadRequest, rr.Code, rr.Body.String())
	}
}

func TestTemplateDelete_NotFound_404(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newHandler(ctrl)

	id := uuid.New()
	m.templates.EXPECT().Delete(gomock.Any(), id).Return(e.ErrNotFound).Times(1)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/templates/"+id.String(), nil)
	req = addChiURLParam(req, "id", id.String())
	rr := httptest.NewRecorder()

	h.TemplateDelete(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected %d got %d, body=%s", http.StatusNotFound, rr.Code, rr.Body.String())
	}
}

func TestInternalError_500(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newHandler(ctrl)

	m.stats.EXPECT().
		Dashboard(gomock.Any()).
		Return(nil, errors.New("boom")).
		Times(1)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/dashboard", nil)
	rr := httptest.NewRecorder()

	h.DashboardStats(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected %d got %d, body=%s", http.StatusInternalServerError, rr.Code, rr.Body.String())
	}
}
