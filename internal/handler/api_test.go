package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estateline/internal/auth"
	"estateline/internal/domain/principal"
	"estateline/internal/domain/property"
	"estateline/internal/domain/user"
	"estateline/internal/middleware"
	"estateline/internal/proxy"
	"estateline/internal/repository/memory"
	"estateline/internal/services"
	"estateline/internal/transport/httpdto"
)

const apiSecret = "api-test-secret"

type apiEnv struct {
	store  *memory.Store
	router *gin.Engine
	worker *services.OutboxWorker

	buyer  principal.Principal
	agent  principal.Principal
	seller principal.Principal
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	env := &apiEnv{store: store}

	seed := func(name string, role principal.Role) principal.Principal {
		u := user.User{ID: uuid.New(), DisplayName: name, Role: role}
		store.SeedUser(u)
		return principal.Principal{UserID: u.ID, Role: role}
	}
	env.buyer = seed("Byron", principal.RoleBuyer)
	env.agent = seed("Ava", principal.RoleAgent)
	env.seller = seed("Selma", principal.RoleSeller)

	access := proxy.NewAccessControl(store.Conversations())
	conversations := services.NewConversationService(nil, store.Conversations(), store.Messages(),
		store.Outbox(), store.Users(), access, nil, nil)
	notifications := services.NewNotificationService(store.Notifications(), store.Properties(),
		store.Conversations(), store.Outbox(), nil)
	readState := services.NewReadStateService(store.Messages(), store.Notifications(), access, 0)
	env.worker = services.NewOutboxWorker(store.Outbox(), notifications, nil, nil, time.Hour, 100, 10)

	threadHandler := NewThreadHandler(conversations, readState)
	messageHandler := NewMessageHandler(conversations)
	notificationHandler := NewNotificationHandler(notifications)
	syncHandler := NewSyncHandler(readState)
	eventHandler := NewEventHandler(notifications)

	r := gin.New()
	r.Use(middleware.ErrorHandler(nil))

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(auth.NewTokenParser(apiSecret)))
	{
		api.POST("/threads", threadHandler.Ensure)
		api.GET("/threads", threadHandler.List)
		api.GET("/threads/:id/messages", threadHandler.Messages)
		api.POST("/threads/:id/read", threadHandler.MarkRead)
		api.POST("/messages", messageHandler.Send)
		api.PATCH("/messages/:id", messageHandler.Edit)
		api.DELETE("/messages/:id", messageHandler.Delete)
		api.GET("/notifications", notificationHandler.List)
		api.POST("/notifications/:id/read", notificationHandler.MarkRead)
		api.POST("/notifications/read-all", notificationHandler.MarkAllRead)
		api.DELETE("/notifications/:id", notificationHandler.Delete)
		api.GET("/sync", syncHandler.Sync)
		api.POST("/events/:type", eventHandler.Submit)
	}
	env.router = r
	return env
}

func tokenFor(t *testing.T, p principal.Principal) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.AccessClaims{
		UserID: p.UserID.String(),
		Role:   string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(apiSecret))
	require.NoError(t, err)
	return signed
}

func (env *apiEnv) do(t *testing.T, method, path string, as *principal.Principal, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, *as))
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp httpdto.Response[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.True(t, resp.Success, w.Body.String())
	return resp.Data
}

func TestAPIRequiresAuth(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/threads", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPIBuyerAgentConversationFlow(t *testing.T) {
	env := newAPIEnv(t)

	// The buyer opens a thread to the agent; re-ensuring returns the same one.
	w := env.do(t, http.MethodPost, "/api/v1/threads", &env.buyer,
		httpdto.EnsureThreadRequest{OtherUserID: env.agent.UserID.String()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	thread := decodeData[httpdto.ThreadResponse](t, w)
	assert.Equal(t, "buyer_agent", thread.Type)
	require.Len(t, thread.Participants, 2)

	w = env.do(t, http.MethodPost, "/api/v1/threads", &env.buyer,
		httpdto.EnsureThreadRequest{OtherUserID: env.agent.UserID.String()})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, thread.ID, decodeData[httpdto.ThreadResponse](t, w).ID)

	// Send two messages into the thread.
	for _, text := range []string{"hi, is it available?", "could we visit saturday?"} {
		w = env.do(t, http.MethodPost, "/api/v1/messages", &env.buyer,
			httpdto.SendMessageRequest{ThreadID: thread.ID, Text: text})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	// The agent's listing shows the thread with two unread.
	w = env.do(t, http.MethodGet, "/api/v1/threads", &env.agent, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Threads []httpdto.ThreadResponse `json:"threads"`
		Meta    httpdto.PageMeta         `json:"meta"`
	}
	raw := decodeData[json.RawMessage](t, w)
	require.NoError(t, json.Unmarshal(raw, &listing))
	require.Len(t, listing.Threads, 1)
	assert.Equal(t, int64(2), listing.Threads[0].UnreadCount)
	require.NotNil(t, listing.Threads[0].LastMessage)
	assert.Equal(t, "could we visit saturday?", listing.Threads[0].LastMessage.Text)

	// Messages page in ascending sequence order.
	w = env.do(t, http.MethodGet, "/api/v1/threads/"+thread.ID+"/messages", &env.agent, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var msgs struct {
		Messages []httpdto.MessageResponse `json:"messages"`
	}
	raw = decodeData[json.RawMessage](t, w)
	require.NoError(t, json.Unmarshal(raw, &msgs))
	require.Len(t, msgs.Messages, 2)
	assert.Equal(t, int64(1), msgs.Messages[0].SeqID)
	assert.Equal(t, int64(2), msgs.Messages[1].SeqID)

	// Mark everything read; the unread count drops to zero.
	w = env.do(t, http.MethodPost, "/api/v1/threads/"+thread.ID+"/read", &env.agent, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/threads", &env.agent, nil)
	raw = decodeData[json.RawMessage](t, w)
	require.NoError(t, json.Unmarshal(raw, &listing))
	assert.Equal(t, int64(0), listing.Threads[0].UnreadCount)
}

func TestAPIBuyerSellerRejected(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/threads", &env.buyer,
		httpdto.EnsureThreadRequest{OtherUserID: env.seller.UserID.String()})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "POLICY_VIOLATION")

	w = env.do(t, http.MethodPost, "/api/v1/messages", &env.seller,
		httpdto.SendMessageRequest{RecipientID: env.buyer.UserID.String(), Text: "buy direct from me"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "POLICY_VIOLATION")
}

func TestAPIThreadHiddenFromOutsiders(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/threads", &env.buyer,
		httpdto.EnsureThreadRequest{OtherUserID: env.agent.UserID.String()})
	require.Equal(t, http.StatusOK, w.Code)
	thread := decodeData[httpdto.ThreadResponse](t, w)

	w = env.do(t, http.MethodGet, "/api/v1/threads/"+thread.ID+"/messages", &env.seller, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPIValidation(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/threads", &env.buyer,
		httpdto.EnsureThreadRequest{OtherUserID: "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/threads", &env.buyer, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/messages", &env.buyer,
		httpdto.SendMessageRequest{RecipientID: env.agent.UserID.String(), Text: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIEventSubmissionAndNotifications(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()

	prop := property.Property{
		ID:       uuid.New(),
		Title:    "Renovated loft, Dock Street 14",
		SellerID: env.seller.UserID,
		AgentID:  uuid.NullUUID{UUID: env.agent.UserID, Valid: true},
	}
	env.store.SeedProperty(prop)

	w := env.do(t, http.MethodPost, "/api/v1/events/property_unlocked", &env.agent,
		httpdto.DomainEventRequest{EventID: "evt-api-1", PropertyID: prop.ID.String()})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	// Submitting the same event twice collapses into one notification.
	w = env.do(t, http.MethodPost, "/api/v1/events/property_unlocked", &env.agent,
		httpdto.DomainEventRequest{EventID: "evt-api-1", PropertyID: prop.ID.String()})
	require.Equal(t, http.StatusAccepted, w.Code)

	env.worker.ProcessBatch(ctx)

	w = env.do(t, http.MethodGet, "/api/v1/notifications", &env.seller, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeData[httpdto.NotificationListResponse](t, w)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, int64(1), list.UnreadCount)
	assert.Equal(t, "property_unlocked", list.Notifications[0].Type)
	assert.Contains(t, list.Notifications[0].Message, prop.Title)

	// Ack it.
	w = env.do(t, http.MethodPost, "/api/v1/notifications/"+list.Notifications[0].ID+"/read", &env.seller, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/notifications?unread_only=true", &env.seller, nil)
	list = decodeData[httpdto.NotificationListResponse](t, w)
	assert.Empty(t, list.Notifications)
	assert.Equal(t, int64(0), list.UnreadCount)
}

func TestAPIEventTypeGuards(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/events/password_reset", &env.agent,
		httpdto.DomainEventRequest{EventID: "evt-x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// new_message is produced internally by the send path, never submitted.
	w = env.do(t, http.MethodPost, "/api/v1/events/new_message", &env.agent,
		httpdto.DomainEventRequest{EventID: "evt-y"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPISync(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()

	w := env.do(t, http.MethodPost, "/api/v1/messages", &env.buyer,
		httpdto.SendMessageRequest{RecipientID: env.agent.UserID.String(), Text: "missed this?"})
	require.Equal(t, http.StatusOK, w.Code)
	env.worker.ProcessBatch(ctx)

	since := time.Now().Add(-time.Minute).UTC().Format(time.RFC3339)
	w = env.do(t, http.MethodGet, "/api/v1/sync?since="+since, &env.agent, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap := decodeData[httpdto.SyncResponse](t, w)

	// One unread message plus the fanned-out notification.
	assert.Equal(t, int64(2), snap.UnreadCount)
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, "new_message", snap.Notifications[0].Type)
	assert.Equal(t, 30, snap.NextPollSeconds)

	w = env.do(t, http.MethodGet, "/api/v1/sync?since=yesterday", &env.agent, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
