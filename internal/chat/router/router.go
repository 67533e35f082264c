package router

import (
	"context"

	"marketplace_chat_service/internal/chat/app"
	"marketplace_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes register the realtime entry point and the REST surface
func RegisterRoutes(r *fiber.App, chatWebsocket *app.ChatWebsocketHandler, chatAPI *app.ChatHTTPHandler) {
	r.Use(middlewares.JWTMiddleware())

	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		chatWebsocket.HandleConnection(context.Background(), c)
	}))

	api := r.Group("/api/chat")
	api.Post("/conversations/:id/messages", chatAPI.SendMessage)
	api.Get("/conversations/:id/messages", chatAPI.History)
	api.Post("/conversations/:id/read", chatAPI.MarkAllRead)
	api.Post("/messages/:id/read", chatAPI.MarkRead)
	api.Get("/unread", chatAPI.Unread)
}
