package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/civic-reports/internal/api/http"
	"github.com/spec-kit/civic-reports/internal/api/http/handlers"
	"github.com/spec-kit/civic-reports/internal/auth"
	"github.com/spec-kit/civic-reports/internal/config"
	"github.com/spec-kit/civic-reports/internal/events"
	"github.com/spec-kit/civic-reports/internal/mocks"
	"github.com/spec-kit/civic-reports/internal/observability"
	"github.com/spec-kit/civic-reports/internal/service"
)

type testServer struct {
	app        *fiber.App
	auth       *service.AuthService
	reports    *mocks.MockReportRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Config{
		Auth:    config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: 4},
		Reports: config.ReportsConfig{ResolvedRetentionDays: 30},
	}
	logger := zap.NewNop()
	users := mocks.NewMockUserRepository()
	reports := mocks.NewMockReportRepository()
	history := mocks.NewMockReportHistoryRepository()

	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo: users,
		Limiter:  mocks.NewMockAttemptLimiter(5),
		Logger:   logger,
	})
	dispatcher := events.NewInMemoryDispatcher()
	reportService := service.NewReportService(cfg.Reports, service.ReportDependencies{
		ReportRepo:  reports,
		HistoryRepo: history,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{ErrorHandler: httptransport.ErrorHandler})
	httptransport.RegisterMiddlewares(app, logger, metrics, 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("civic-reports", "test", metrics),
		Users:          handlers.NewUsersHandler(authService),
		Reports:        handlers.NewReportsHandler(reportService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), users),
	})
	return &testServer{app: app, auth: authService, reports: reports, dispatcher: dispatcher, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, out
}

type authBody struct {
	User struct {
		ID   string `json:"_id"`
		Role string `json:"role"`
	} `json:"user"`
	Token   string `json:"jwtToken"`
	Message string `json:"message"`
}

type reportBody struct {
	ID     string `json:"_id"`
	UserID string `json:"userId"`
	Status string `json:"reportStatus"`
	Note   string `json:"note"`
}

type errorBody struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Code       string `json:"code"`
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return out
}

func (s *testServer) councilToken(t *testing.T) string {
	t.Helper()
	if _, _, err := s.auth.EnsureCouncilAccount(context.Background(), "staff@city.gov", "council-pw"); err != nil {
		t.Fatalf("seed council: %v", err)
	}
	status, raw := s.do(t, http.MethodPost, "/user/signin", "", map[string]string{"email": "staff@city.gov", "password": "council-pw"})
	if status != http.StatusOK {
		t.Fatalf("council signin: %d %s", status, raw)
	}
	return decode[authBody](t, raw).Token
}

func TestEndToEndReportLifecycle(t *testing.T) {
	s := newTestServer(t)
	creds := map[string]string{"email": "alice@example.com", "password": "pw1"}

	status, raw := s.do(t, http.MethodPost, "/user/signup", "", creds)
	if status != http.StatusCreated {
		t.Fatalf("signup: %d %s", status, raw)
	}
	if msg := decode[authBody](t, raw).Message; msg != "User sign up success" {
		t.Errorf("unexpected signup message %q", msg)
	}
	if bytes.Contains(raw, []byte("$2a$")) || bytes.Contains(raw, []byte("assword")) {
		t.Fatalf("signup response leaks credentials: %s", raw)
	}

	status, raw = s.do(t, http.MethodPost, "/user/signin", "", creds)
	if status != http.StatusOK {
		t.Fatalf("signin: %d %s", status, raw)
	}
	alice := decode[authBody](t, raw)
	if alice.Token == "" || alice.User.Role != "citizen" || alice.Message != "User log in success" {
		t.Fatalf("unexpected signin body: %s", raw)
	}

	form := map[string]any{"location": "Main & 1st", "problemType": "pothole", "reportStatus": "Resolved"}
	status, raw = s.do(t, http.MethodPost, "/citizen/submit/"+alice.User.ID, alice.Token, form)
	if status != http.StatusCreated {
		t.Fatalf("submit: %d %s", status, raw)
	}
	created := decode[struct {
		Message string     `json:"message"`
		Report  reportBody `json:"report"`
	}](t, raw)
	if created.Report.Status != "Ongoing" {
		t.Errorf("client status must be ignored, got %s", created.Report.Status)
	}

	status, raw = s.do(t, http.MethodPost, "/citizen/submit/"+alice.User.ID, alice.Token, form)
	if status != http.StatusConflict {
		t.Fatalf("duplicate submit: %d %s", status, raw)
	}
	if e := decode[errorBody](t, raw); e.Success || e.StatusCode != http.StatusConflict || e.Message != "Problem already exists at that location" {
		t.Errorf("unexpected error envelope: %s", raw)
	}

	council := s.councilToken(t)
	status, raw = s.do(t, http.MethodPut, "/citizen/editForm/"+created.Report.ID, council, map[string]string{"reportStatus": "Resolved", "note": "fixed"})
	if status != http.StatusOK {
		t.Fatalf("edit: %d %s", status, raw)
	}

	status, raw = s.do(t, http.MethodGet, "/citizen/getForms", alice.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("list: %d %s", status, raw)
	}
	list := decode[[]reportBody](t, raw)
	if len(list) != 1 || list[0].Status != "Resolved" || list[0].Note != "fixed" {
		t.Fatalf("unexpected list after edit: %s", raw)
	}

	status, raw = s.do(t, http.MethodGet, "/citizen/forms/"+created.Report.ID+"/history", council, nil)
	if status != http.StatusOK || len(decode[[]map[string]any](t, raw)) != 1 {
		t.Fatalf("history: %d %s", status, raw)
	}

	status, raw = s.do(t, http.MethodDelete, "/citizen/deleteForm/"+created.Report.ID, council, nil)
	if status != http.StatusOK {
		t.Fatalf("delete: %d %s", status, raw)
	}
	status, _ = s.do(t, http.MethodDelete, "/citizen/deleteForm/"+created.Report.ID, council, nil)
	if status != http.StatusNoContent {
		t.Fatalf("second delete: expected 204, got %d", status)
	}

	status, raw = s.do(t, http.MethodGet, "/citizen/getForms", alice.Token, nil)
	if status != http.StatusOK || string(bytes.TrimSpace(raw)) != "[]" {
		t.Fatalf("list after delete: %d %s", status, raw)
	}
}

func TestAuthFailures(t *testing.T) {
	s := newTestServer(t)
	creds := map[string]string{"email": "bob@example.com", "password": "pw"}
	if status, raw := s.do(t, http.MethodPost, "/user/signup", "", creds); status != http.StatusCreated {
		t.Fatalf("signup: %d %s", status, raw)
	}

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"duplicate signup", http.MethodPost, "/user/signup", "", creds, http.StatusConflict},
		{"unknown email", http.MethodPost, "/user/signin", "", map[string]string{"email": "nobody@example.com", "password": "pw"}, http.StatusNotFound},
		{"wrong password", http.MethodPost, "/user/signin", "", map[string]string{"email": "bob@example.com", "password": "nope"}, http.StatusUnauthorized},
		{"invalid email", http.MethodPost, "/user/signup", "", map[string]string{"email": "not-an-email", "password": "pw"}, http.StatusBadRequest},
		{"missing token", http.MethodGet, "/citizen/getForms", "", nil, http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/citizen/getForms", "garbage", nil, http.StatusUnauthorized},
		{"unknown route", http.MethodGet, "/nope", "", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := s.do(t, tt.method, tt.path, tt.token, tt.body)
			if status != tt.want {
				t.Fatalf("expected %d, got %d %s", tt.want, status, raw)
			}
			e := decode[errorBody](t, raw)
			if e.Success || e.StatusCode != tt.want || e.Message == "" || e.Code == "" {
				t.Errorf("unexpected error envelope: %s", raw)
			}
		})
	}
}

func TestCitizenPermissions(t *testing.T) {
	s := newTestServer(t)
	status, raw := s.do(t, http.MethodPost, "/user/signup", "", map[string]string{"email": "carol@example.com", "password": "pw"})
	if status != http.StatusCreated {
		t.Fatalf("signup: %d %s", status, raw)
	}
	carol := decode[authBody](t, raw)
	status, raw = s.do(t, http.MethodPost, "/user/signup", "", map[string]string{"email": "dave@example.com", "password": "pw"})
	if status != http.StatusCreated {
		t.Fatalf("signup: %d %s", status, raw)
	}
	dave := decode[authBody](t, raw)

	form := map[string]any{"location": "5 Oak Ave", "problemType": "graffiti"}
	status, raw = s.do(t, http.MethodPost, "/citizen/submit/"+carol.User.ID, carol.Token, form)
	if status != http.StatusCreated {
		t.Fatalf("submit: %d %s", status, raw)
	}
	reportID := decode[struct {
		Report reportBody `json:"report"`
	}](t, raw).Report.ID

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"submit for another user", http.MethodPost, "/citizen/submit/" + carol.User.ID, dave.Token, form, http.StatusForbidden},
		{"list another user's forms", http.MethodGet, "/citizen/userForms/" + carol.User.ID, dave.Token, nil, http.StatusForbidden},
		{"edit as citizen", http.MethodPut, "/citizen/editForm/" + reportID, carol.Token, map[string]string{"reportStatus": "Resolved"}, http.StatusForbidden},
		{"delete as citizen", http.MethodDelete, "/citizen/deleteForm/" + reportID, carol.Token, nil, http.StatusForbidden},
		{"active filter as citizen", http.MethodGet, "/citizen/getForms?active=true", carol.Token, nil, http.StatusForbidden},
		{"history as citizen", http.MethodGet, "/citizen/forms/" + reportID + "/history", carol.Token, nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, raw := s.do(t, tt.method, tt.path, tt.token, tt.body); status != tt.want {
				t.Fatalf("expected %d, got %d %s", tt.want, status, raw)
			}
		})
	}

	status, raw = s.do(t, http.MethodGet, "/citizen/userForms/"+carol.User.ID, carol.Token, nil)
	if status != http.StatusOK || len(decode[[]reportBody](t, raw)) != 1 {
		t.Fatalf("own forms: %d %s", status, raw)
	}
}

func TestCouncilEditErrors(t *testing.T) {
	s := newTestServer(t)
	council := s.councilToken(t)

	status, raw := s.do(t, http.MethodPost, "/user/signup", "", map[string]string{"email": "erin@example.com", "password": "pw"})
	if status != http.StatusCreated {
		t.Fatalf("signup: %d %s", status, raw)
	}
	erin := decode[authBody](t, raw)
	status, raw = s.do(t, http.MethodPost, "/citizen/submit/"+erin.User.ID, erin.Token, map[string]any{"location": "7 Pine St", "problemType": "streetlight"})
	if status != http.StatusCreated {
		t.Fatalf("submit: %d %s", status, raw)
	}
	reportID := decode[struct {
		Report reportBody `json:"report"`
	}](t, raw).Report.ID

	if status, raw := s.do(t, http.MethodPut, "/citizen/editForm/"+reportID, council, map[string]string{"reportStatus": "Done"}); status != http.StatusBadRequest {
		t.Fatalf("bad status: expected 400, got %d %s", status, raw)
	}
	if status, raw := s.do(t, http.MethodPut, "/citizen/editForm/00000000-0000-0000-0000-000000000000", council, map[string]string{"reportStatus": "Resolved"}); status != http.StatusNotFound {
		t.Fatalf("missing report: expected 404, got %d %s", status, raw)
	}

	status, raw = s.do(t, http.MethodPut, "/citizen/editForm/"+reportID, council, map[string]string{"reportStatus": "Flagged", "note": "ignored"})
	if status != http.StatusOK {
		t.Fatalf("flag: %d %s", status, raw)
	}
	flagged := decode[struct {
		Report reportBody `json:"report"`
	}](t, raw).Report
	if flagged.Note != "This report has been flagged as a false report." {
		t.Errorf("unexpected flagged note %q", flagged.Note)
	}
	if status, raw := s.do(t, http.MethodPut, "/citizen/editForm/"+reportID, council, map[string]string{"reportStatus": "Ongoing"}); status != http.StatusConflict {
		t.Fatalf("edit flagged: expected 409, got %d %s", status, raw)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	if status, raw := s.do(t, http.MethodGet, "/health/live", "", nil); status != http.StatusOK {
		t.Fatalf("live: %d %s", status, raw)
	}
	if status, raw := s.do(t, http.MethodGet, "/health/ready", "", nil); status != http.StatusOK {
		t.Fatalf("ready: %d %s", status, raw)
	}
	status, raw := s.do(t, http.MethodGet, "/health/metrics", "", nil)
	if status != http.StatusOK {
		t.Fatalf("metrics: %d %s", status, raw)
	}
	snap := decode[observability.Snapshot](t, raw)
	if len(snap.Requests) == 0 {
		t.Errorf("expected recorded requests, got %s", raw)
	}
}

func TestDeletedEventKeepsReportIDAfterLaterRequests(t *testing.T) {
	s := newTestServer(t)
	var mu sync.Mutex
	var deleted []events.Event
	s.dispatcher.Subscribe(events.EventReportDeleted, func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		deleted = append(deleted, e)
		return nil
	})

	status, raw := s.do(t, http.MethodPost, "/user/signup", "", map[string]string{"email": "frank@example.com", "password": "pw"})
	if status != http.StatusCreated {
		t.Fatalf("signup: %d %s", status, raw)
	}
	frank := decode[authBody](t, raw)
	status, raw = s.do(t, http.MethodPost, "/citizen/submit/"+frank.User.ID, frank.Token, map[string]any{"location": "3 Birch Ln", "problemType": "pothole"})
	if status != http.StatusCreated {
		t.Fatalf("submit: %d %s", status, raw)
	}
	reportID := decode[struct {
		Report reportBody `json:"report"`
	}](t, raw).Report.ID

	council := s.councilToken(t)
	if status, raw := s.do(t, http.MethodDelete, "/citizen/deleteForm/"+reportID, council, nil); status != http.StatusOK {
		t.Fatalf("delete: %d %s", status, raw)
	}
	// Same-length ids reuse the request buffer the first id was read from.
	for i := 0; i < 5; i++ {
		s.do(t, http.MethodDelete, "/citizen/deleteForm/zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz", council, nil)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(deleted) != 1 {
		t.Fatalf("expected one deleted event, got %d", len(deleted))
	}
	if deleted[0].ReportID != reportID {
		t.Fatalf("expected %s, got %s", reportID, deleted[0].ReportID)
	}
}

func TestErrorMetricsKeyedByRoute(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 200; i++ {
		if status, _ := s.do(t, http.MethodGet, "/scan/"+strconv.Itoa(i), "", nil); status != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", status)
		}
	}
	for i := 0; i < 50; i++ {
		s.do(t, http.MethodDelete, "/citizen/deleteForm/"+strconv.Itoa(i), "", nil)
	}

	snap := s.metrics.Snapshot()
	if len(snap.Errors) > 2 {
		t.Fatalf("expected error keys bounded by route, got %d: %v", len(snap.Errors), snap.Errors)
	}
	if len(snap.Requests) > 2 {
		t.Fatalf("expected request keys bounded by route, got %d", len(snap.Requests))
	}
}
