package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"conveycrm/internal/app"
	"conveycrm/internal/config"
	"conveycrm/internal/database"
	"conveycrm/internal/domain"
	"conveycrm/internal/mailer"
	"conveycrm/internal/modules/user"
	"conveycrm/internal/pkg/clock"
	"conveycrm/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var start = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type E2ETestSuite struct {
	app   *app.App
	clock *clock.Fixed
}

type TestResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(":memory:")
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, repository.Migrate(db))

	wf, err := config.LoadWorkflow("")
	require.NoError(t, err)

	clk := clock.NewFixed(start)
	cfg := &config.Config{
		AppEnv:          "test",
		JWTSecret:       "e2e-secret",
		JWTTTL:          24 * time.Hour,
		CheckoutBaseURL: "https://checkout.example.com/pay",
	}
	a := app.New(cfg, db, app.Options{
		Workflow: wf,
		Clock:    clk,
		Mailer:   mailer.NewDryRun(zap.NewNop()),
		Logger:   zap.NewNop(),
	})
	t.Cleanup(a.Hub.Close)

	ctx := context.Background()
	_, err = a.Outcomes.Bootstrap(ctx, wf.Outcomes)
	require.NoError(t, err)

	system := domain.Actor{UserID: "system", Role: domain.RoleAdmin}
	for _, u := range []user.CreateRequest{
		{Name: "Ada Admin", Email: "admin@example.com", Password: "adminpass", Role: "Admin"},
		{Name: "Max Manager", Email: "manager@example.com", Password: "managerpass", Role: "Manager"},
		{Name: "Alice Agent", Email: "agent@example.com", Password: "agentpass", Role: "Agent"},
	} {
		_, err := a.Users.Create(ctx, system, u)
		require.NoError(t, err)
	}

	return &E2ETestSuite{app: a, clock: clk}
}

func (s *E2ETestSuite) request(t *testing.T, method, path, token string, body any) (int, TestResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, req)

	var resp TestResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w.Code, resp
}

func (s *E2ETestSuite) login(t *testing.T, email, password string) string {
	t.Helper()
	code, resp := s.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, code, resp.Error)

	var out struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type leadView struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	AssignedTo      string `json:"assignedTo"`
	ContactAttempts int    `json:"contactAttempts"`
	MaxAttempts     int    `json:"maxAttempts"`
	Revision        int    `json:"revision"`
	OutcomeCode     string `json:"outcomeCode"`
}

func (s *E2ETestSuite) createLead(t *testing.T, token, name string) leadView {
	t.Helper()
	code, resp := s.request(t, http.MethodPost, "/api/leads", token, map[string]string{
		"name":   name,
		"email":  name + "@example.com",
		"phone":  "07700900000",
		"source": "Referral",
	})
	require.Equal(t, http.StatusCreated, code, resp.Error)
	return decode[leadView](t, resp.Data)
}

func TestE2E_CreateAndAssignLead(t *testing.T) {
	s := setupTestSuite(t)
	manager := s.login(t, "manager@example.com", "managerpass")

	l := s.createLead(t, manager, "jane")
	assert.Equal(t, "New", l.Status)
	assert.Zero(t, l.ContactAttempts)
	assert.Equal(t, 1, l.Revision)

	code, resp := s.request(t, http.MethodPost, "/api/leads/"+l.ID+"/assign", manager, map[string]any{
		"assignedTo": "agent-7",
		"revision":   l.Revision,
	})
	require.Equal(t, http.StatusOK, code, resp.Error)
	assigned := decode[leadView](t, resp.Data)
	assert.Equal(t, "Assigned", assigned.Status)
	assert.Equal(t, "agent-7", assigned.AssignedTo)
	assert.Equal(t, 2, assigned.Revision)

	// the old revision is now stale
	code, resp = s.request(t, http.MethodPost, "/api/leads/"+l.ID+"/assign", manager, map[string]any{
		"assignedTo": "agent-8",
		"revision":   l.Revision,
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, resp.Success)
}

func TestE2E_QuoteTotals(t *testing.T) {
	s := setupTestSuite(t)
	agent := s.login(t, "agent@example.com", "agentpass")
	l := s.createLead(t, agent, "quoted")

	code, resp := s.request(t, http.MethodPost, "/api/quotes", agent, map[string]any{
		"leadId": l.ID,
		"items": []map[string]any{
			{"description": "Conveyancing fee", "quantity": 1, "unitPrice": 800, "category": "Legal Fees"},
		},
	})
	require.Equal(t, http.StatusCreated, code, resp.Error)

	q := decode[struct {
		ID          string          `json:"id"`
		Status      string          `json:"status"`
		NetAmount   decimal.Decimal `json:"netAmount"`
		VATAmount   decimal.Decimal `json:"vatAmount"`
		TotalAmount decimal.Decimal `json:"totalAmount"`
	}](t, resp.Data)
	assert.Equal(t, "Draft", q.Status)
	assert.True(t, decimal.NewFromInt(800).Equal(q.NetAmount), q.NetAmount.String())
	assert.True(t, decimal.NewFromInt(160).Equal(q.VATAmount), q.VATAmount.String())
	assert.True(t, decimal.NewFromInt(960).Equal(q.TotalAmount), q.TotalAmount.String())
}

func TestE2E_OutcomeSchedulesFollowUpThenArchives(t *testing.T) {
	s := setupTestSuite(t)
	agent := s.login(t, "agent@example.com", "agentpass")
	l := s.createLead(t, agent, "retry")

	for i := 0; i < 2; i++ {
		code, resp := s.request(t, http.MethodPost, "/api/leads/"+l.ID+"/attempts", agent, map[string]any{})
		require.Equal(t, http.StatusCreated, code, resp.Error)
	}

	code, resp := s.request(t, http.MethodPost, "/api/leads/"+l.ID+"/outcome", agent, map[string]any{
		"outcomeCode": "OC-001",
	})
	require.Equal(t, http.StatusOK, code, resp.Error)

	type outcomeResult struct {
		leadView
		Archived         bool `json:"archived"`
		ScheduledAttempt *struct {
			AttemptNumber int       `json:"attemptNumber"`
			Status        string    `json:"status"`
			ScheduledAt   time.Time `json:"scheduledAt"`
		} `json:"scheduledAttempt"`
	}
	res := decode[outcomeResult](t, resp.Data)
	assert.False(t, res.Archived)
	assert.Equal(t, "Contacted", res.Status)
	require.NotNil(t, res.ScheduledAttempt)
	assert.Equal(t, 3, res.ScheduledAttempt.AttemptNumber)
	assert.Equal(t, "Scheduled", res.ScheduledAttempt.Status)
	assert.True(t, start.Add(2*time.Hour).Equal(res.ScheduledAttempt.ScheduledAt))

	// OC-001 allows three attempts; the third one reaches the ceiling.
	s.clock.Advance(time.Minute)
	code, resp = s.request(t, http.MethodPost, "/api/leads/"+l.ID+"/attempts", agent, map[string]any{})
	require.Equal(t, http.StatusCreated, code, resp.Error)

	s.clock.Advance(time.Minute)
	code, resp = s.request(t, http.MethodPost, "/api/leads/"+l.ID+"/outcome", agent, map[string]any{
		"outcomeCode": "OC-001",
	})
	require.Equal(t, http.StatusOK, code, resp.Error)
	res = decode[outcomeResult](t, resp.Data)
	assert.True(t, res.Archived)
	assert.Nil(t, res.ScheduledAttempt)
	assert.Equal(t, "Archived", res.Status)
}

func TestE2E_LoginWrongPassword(t *testing.T) {
	s := setupTestSuite(t)

	code, resp := s.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "agent@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, resp.Success)
	assert.Equal(t, "Invalid credentials", resp.Error)
	assert.Empty(t, resp.Data)
}

func TestE2E_ListLeadsIsPagedAndRepeatable(t *testing.T) {
	s := setupTestSuite(t)
	agent := s.login(t, "agent@example.com", "agentpass")
	for _, name := range []string{"a", "b", "c"} {
		s.createLead(t, agent, name)
		s.clock.Advance(time.Second)
	}

	type listResult struct {
		Leads      []leadView `json:"leads"`
		Pagination struct {
			CurrentPage  int `json:"currentPage"`
			TotalPages   int `json:"totalPages"`
			TotalItems   int `json:"totalItems"`
			ItemsPerPage int `json:"itemsPerPage"`
		} `json:"pagination"`
	}

	code, resp := s.request(t, http.MethodGet, "/api/leads?page=2&limit=2", agent, nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	first := decode[listResult](t, resp.Data)
	assert.Len(t, first.Leads, 1)
	assert.Equal(t, 2, first.Pagination.CurrentPage)
	assert.Equal(t, 2, first.Pagination.TotalPages)
	assert.Equal(t, 3, first.Pagination.TotalItems)
	assert.Equal(t, 2, first.Pagination.ItemsPerPage)

	_, again := s.request(t, http.MethodGet, "/api/leads?page=2&limit=2", agent, nil)
	assert.JSONEq(t, string(resp.Data), string(again.Data))
}

func TestE2E_AccessControl(t *testing.T) {
	s := setupTestSuite(t)
	agent := s.login(t, "agent@example.com", "agentpass")
	admin := s.login(t, "admin@example.com", "adminpass")

	code, resp := s.request(t, http.MethodGet, "/api/users", agent, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.False(t, resp.Success)

	code, _ = s.request(t, http.MethodGet, "/api/users", admin, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.request(t, http.MethodGet, "/api/leads", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	// a revoked token stops working
	code, _ = s.request(t, http.MethodPost, "/api/auth/logout", admin, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.request(t, http.MethodGet, "/api/users", admin, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestE2E_OpsRoutes(t *testing.T) {
	s := setupTestSuite(t)

	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	code, resp := s.request(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Route not found", resp.Error)
}

func TestE2E_AttemptNumbersFollowTheCounter(t *testing.T) {
	s := setupTestSuite(t)
	agent := s.login(t, "agent@example.com", "agentpass")
	l := s.createLead(t, agent, "numbered")

	code, resp := s.request(t, http.MethodPost, "/api/leads/"+l.ID+"/outcome", agent, map[string]any{
		"outcomeCode": "OC-001",
	})
	require.Equal(t, http.StatusOK, code, resp.Error)
	scheduled := decode[struct {
		ScheduledAttempt struct {
			ID            string `json:"id"`
			AttemptNumber int    `json:"attemptNumber"`
		} `json:"scheduledAttempt"`
	}](t, resp.Data).ScheduledAttempt
	assert.Equal(t, 1, scheduled.AttemptNumber)

	// an ad-hoc call while the follow-up is still pending
	s.clock.Advance(time.Minute)
	code, resp = s.request(t, http.MethodPost, "/api/leads/"+l.ID+"/attempts", agent, map[string]any{})
	require.Equal(t, http.StatusCreated, code, resp.Error)

	s.clock.Advance(time.Minute)
	code, resp = s.request(t, http.MethodPost, "/api/attempts/"+scheduled.ID+"/status", agent, map[string]any{
		"status": "Completed",
	})
	require.Equal(t, http.StatusOK, code, resp.Error)

	code, resp = s.request(t, http.MethodGet, "/api/leads/"+l.ID, agent, nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	lead := decode[leadView](t, resp.Data)
	assert.Equal(t, 2, lead.ContactAttempts)

	code, resp = s.request(t, http.MethodGet, "/api/leads/"+l.ID+"/attempts", agent, nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	attempts := decode[[]struct {
		AttemptNumber int    `json:"attemptNumber"`
		Status        string `json:"status"`
	}](t, resp.Data)

	var numbers []int
	for _, a := range attempts {
		if a.Status == "Completed" || a.Status == "Failed" {
			numbers = append(numbers, a.AttemptNumber)
		}
	}
	assert.ElementsMatch(t, []int{1, 2}, numbers)
}
