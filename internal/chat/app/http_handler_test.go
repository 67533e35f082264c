package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marketplace_chat_service/internal/chat/domain"
	"marketplace_chat_service/pkg/middlewares"
	"marketplace_chat_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func newAPIApp(t *testing.T, store *memoryStore) *fiber.App {
	t.Helper()

	hub := NewHub(store, nil)
	handler := NewChatHTTPHandler(
		NewSendMessageUseCase(store, store, hub, nil, 2000),
		NewReadReceiptUseCase(store, store, hub),
		NewUnreadUseCase(store),
		NewGetMessageUseCase(store, store),
	)

	srv := fiber.New(fiber.Config{DisableStartupMessage: true})
	srv.Use(middlewares.JWTMiddleware())
	api := srv.Group("/api/chat")
	api.Post("/conversations/:id/messages", handler.SendMessage)
	api.Get("/conversations/:id/messages", handler.History)
	api.Post("/conversations/:id/read", handler.MarkAllRead)
	api.Post("/messages/:id/read", handler.MarkRead)
	api.Get("/unread", handler.Unread)
	return srv
}

func apiRequest(t *testing.T, srv *fiber.App, method, path, userID, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		jwt, err := token.GenerateJWT(userID, "user", "chat_service")
		assert.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: middlewares.CookieToken, Value: jwt})
	}

	resp, err := srv.Test(req, int(5*time.Second/time.Millisecond))
	assert.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestAPI_SendMessage(t *testing.T) {
	store := newMemoryStore()
	store.addConversation("c1", "alice", "bob")
	srv := newAPIApp(t, store)

	resp := apiRequest(t, srv, http.MethodPost, "/api/chat/conversations/c1/messages", "alice", `{"content":"Hello"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var msg domain.Message
	decodeBody(t, resp, &msg)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "Hello", msg.Content)
	assert.Equal(t, 1, store.messageCount())
}

func TestAPI_SendMessageErrors(t *testing.T) {
	store := newMemoryStore()
	store.addConversation("c1", "alice", "bob")
	srv := newAPIApp(t, store)

	resp := apiRequest(t, srv, http.MethodPost, "/api/chat/conversations/c1/messages", "eve", `{"content":"Hello"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = apiRequest(t, srv, http.MethodPost, "/api/chat/conversations/c1/messages", "alice", `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = apiRequest(t, srv, http.MethodPost, "/api/chat/conversations/c1/messages", "", `{"content":"Hello"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	assert.Equal(t, 0, store.messageCount())
}

func TestAPI_ReadEndpoints(t *testing.T) {
	store := newMemoryStore()
	store.addConversation("c1", "alice", "bob")
	srv := newAPIApp(t, store)

	resp := apiRequest(t, srv, http.MethodPost, "/api/chat/conversations/c1/messages", "alice", `{"content":"one"}`)
	var msg domain.Message
	decodeBody(t, resp, &msg)

	resp = apiRequest(t, srv, http.MethodPost, "/api/chat/messages/"+msg.ID+"/read", "alice", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = apiRequest(t, srv, http.MethodPost, "/api/chat/messages/"+msg.ID+"/read", "bob", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NotNil(t, store.messageByID(msg.ID).ReadAt)

	resp = apiRequest(t, srv, http.MethodPost, "/api/chat/messages/missing/read", "bob", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = apiRequest(t, srv, http.MethodPost, "/api/chat/conversations/c1/read", "bob", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPI_HistoryAndUnread(t *testing.T) {
	store := newMemoryStore()
	store.addConversation("c1", "alice", "bob")
	srv := newAPIApp(t, store)

	for _, content := range []string{"one", "two", "three"} {
		resp := apiRequest(t, srv, http.MethodPost, "/api/chat/conversations/c1/messages", "alice", `{"content":"`+content+`"}`)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := apiRequest(t, srv, http.MethodGet, "/api/chat/conversations/c1/messages?limit=2", "bob", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Messages []domain.Message `json:"messages"`
	}
	decodeBody(t, resp, &page)
	assert.Len(t, page.Messages, 2)
	assert.Equal(t, "two", page.Messages[0].Content)
	assert.Equal(t, "three", page.Messages[1].Content)

	resp = apiRequest(t, srv, http.MethodGet, "/api/chat/unread", "bob", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var summary domain.UnreadSummary
	decodeBody(t, resp, &summary)
	assert.Equal(t, 3, summary.Total)
	assert.Len(t, summary.Conversations, 1)

	resp = apiRequest(t, srv, http.MethodGet, "/api/chat/conversations/c1/messages", "eve", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
