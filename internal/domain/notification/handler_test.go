package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zyboard/internal/domain"
	"zyboard/internal/logger"
	"zyboard/internal/middleware"
	"zyboard/internal/pkg/jwt"
	"zyboard/internal/repository/sqlitetest"
	"zyboard/internal/repository/storetest"
)

type testEnv struct {
	router  *gin.Engine
	service *Service
	hub     *Hub
	jwt     *jwt.Service
	userID  int64
}

func setupRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := sqlitetest.New(t)
	u := storetest.CreateUser(t, store, "alice")
	hub := NewHub(logger.Discard())
	t.Cleanup(hub.Close)
	svc := NewService(store, hub, logger.Discard())
	jwtService := jwt.New("test-secret", time.Hour)
	h := NewHandler(svc, hub, jwtService, nil, logger.Discard())

	r := gin.New()
	api := r.Group("/api")
	h.RegisterPublicRoutes(api)
	protected := api.Group("")
	protected.Use(middleware.JWTAuth(jwtService))
	h.RegisterProtectedRoutes(protected)

	return &testEnv{router: r, service: svc, hub: hub, jwt: jwtService, userID: u.ID}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	token, err := e.jwt.GenerateToken(e.userID, "alice")
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestHandler_Flow(t *testing.T) {
	env := setupRouter(t)
	ctx := context.Background()
	require.NoError(t, env.service.Notify(ctx, env.userID, "one", domain.NotificationInfo, ""))
	require.NoError(t, env.service.Notify(ctx, env.userID, "two", domain.NotificationWarning, ""))

	w := env.do(t, "GET", "/api/notifications?unread=true&limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var list struct {
		Data ListResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data.Items, 2)
	assert.Equal(t, int64(2), list.Data.UnreadCount)
	firstID := list.Data.Items[0].ID

	w = env.do(t, "PATCH", fmt.Sprintf("/api/notifications/%d/read", firstID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "GET", "/api/notifications/unread-count", nil)
	assert.JSONEq(t, `{"success":true,"data":{"count":1}}`, w.Body.String())

	w = env.do(t, "PATCH", "/api/notifications/read-all", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"updated":1`)

	w = env.do(t, "DELETE", fmt.Sprintf("/api/notifications/%d", firstID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, "DELETE", fmt.Sprintf("/api/notifications/%d", firstID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, "DELETE", "/api/notifications", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":1`)
}

func TestHandler_Validation(t *testing.T) {
	env := setupRouter(t)

	cases := []struct {
		method, path string
		body         any
		want         int
	}{
		{"GET", "/api/notifications?limit=x", nil, http.StatusBadRequest},
		{"GET", "/api/notifications?offset=-1", nil, http.StatusBadRequest},
		{"PATCH", "/api/notifications/abc/read", nil, http.StatusBadRequest},
		{"PATCH", "/api/notifications/999/read", nil, http.StatusNotFound},
		{"POST", "/api/notifications/delete", map[string]any{"ids": []int64{}}, http.StatusBadRequest},
		{"POST", "/api/notifications/delete", map[string]any{"ids": []int64{0}}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		w := env.do(t, tc.method, tc.path, tc.body)
		assert.Equal(t, tc.want, w.Code, "%s %s: %s", tc.method, tc.path, w.Body.String())
	}
}

func TestHandler_RequiresToken(t *testing.T) {
	env := setupRouter(t)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/notifications", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "NO_TOKEN")
}

func TestWebSocket_ReceivesNotifications(t *testing.T) {
	env := setupRouter(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	token, err := env.jwt.GenerateToken(env.userID, "alice")
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/notifications/ws?token=" + token

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.hub.Connected(env.userID) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, env.service.Notify(context.Background(), env.userID, "File uploaded", domain.NotificationSuccess, domain.CategoryUpload))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event struct {
		Type    string              `json:"type"`
		Payload domain.Notification `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, EventNotification, event.Type)
	assert.Equal(t, "File uploaded", event.Payload.Message)

	_, err = env.service.MarkAllAsRead(context.Background(), env.userID)
	require.NoError(t, err)
	var unread struct {
		Type    string           `json:"type"`
		Payload map[string]int64 `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&unread))
	assert.Equal(t, EventUnreadCount, unread.Type)
	assert.Equal(t, int64(0), unread.Payload["count"])

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return env.hub.Connected(env.userID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocket_RejectsBadToken(t *testing.T) {
	env := setupRouter(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/notifications/ws"

	_, resp, err := websocket.DefaultDialer.Dial(base, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(base+"?token=garbage", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocket_RejectsForeignOrigin(t *testing.T) {
	env := setupRouter(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	token, err := env.jwt.GenerateToken(env.userID, "alice")
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/notifications/ws?token=" + token

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
