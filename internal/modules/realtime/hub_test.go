package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"conveycrm/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func setupServer(t *testing.T) (*Hub, *jwt.Service, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(zap.NewNop())
	tokens := jwt.New("realtime-test-secret", time.Hour)
	router := gin.New()
	NewHandler(hub, tokens, nil, nil, zap.NewNop()).RegisterRoutes(router.Group("/api"))
	return hub, tokens, httptest.NewServer(router)
}

func dial(t *testing.T, srv *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/leads?token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Count() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PublishReachesClient(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub, tokens, srv := setupServer(t)
	defer srv.Close()

	token, err := tokens.GenerateToken("u-1", "agent@example.com", "Agent")
	require.NoError(t, err)

	conn, _, err := dial(t, srv, token)
	require.NoError(t, err)
	defer conn.Close()
	waitForClients(t, hub, 1)

	hub.Publish(EventLeadCreated, map[string]string{"id": "lead-1"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var got struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, EventLeadCreated, got.Type)
	assert.Equal(t, "lead-1", got.Data["id"])

	hub.Close()
	waitForClients(t, hub, 0)
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub, tokens, srv := setupServer(t)
	defer srv.Close()
	defer hub.Close()

	token, _ := tokens.GenerateToken("u-2", "manager@example.com", "Manager")
	conn, _, err := dial(t, srv, token)
	require.NoError(t, err)
	waitForClients(t, hub, 1)

	require.NoError(t, conn.Close())
	waitForClients(t, hub, 0)
}

func TestHandler_RejectsMissingToken(t *testing.T) {
	hub, _, srv := setupServer(t)
	defer srv.Close()
	defer hub.Close()

	_, resp, err := dial(t, srv, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHub_PublishWithoutClients(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	assert.NotPanics(t, func() { hub.Publish(EventQuoteStatus, nil) })
	assert.Equal(t, 0, hub.Count())
}
