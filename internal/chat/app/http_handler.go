package app

import (
	"errors"

	"marketplace_chat_service/internal/chat/domain"
	"marketplace_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// ChatHTTPHandler REST surface of the messaging core. The send path returns
// the persisted message synchronously, independent of broadcast delivery.
type ChatHTTPHandler struct {
	sendUC    *SendMessageUseCase
	readUC    *ReadReceiptUseCase
	unreadUC  *UnreadUseCase
	historyUC *GetMessageUseCase
}

// NewChatHTTPHandler create ChatHTTPHandler
func NewChatHTTPHandler(
	sendUC *SendMessageUseCase,
	readUC *ReadReceiptUseCase,
	unreadUC *UnreadUseCase,
	historyUC *GetMessageUseCase,
) *ChatHTTPHandler {
	return &ChatHTTPHandler{
		sendUC:    sendUC,
		readUC:    readUC,
		unreadUC:  unreadUC,
		historyUC: historyUC,
	}
}

type sendMessageBody struct {
	Content string `json:"content"`
}

// SendMessage POST /api/chat/conversations/:id/messages
func (h *ChatHTTPHandler) SendMessage(c *fiber.Ctx) error {
	userID := c.Locals(middlewares.TokenUserID).(string)

	var body sendMessageBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	msg, err := h.sendUC.Execute(c.Context(), c.Params("id"), userID, body.Content)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// MarkRead POST /api/chat/messages/:id/read
func (h *ChatHTTPHandler) MarkRead(c *fiber.Ctx) error {
	userID := c.Locals(middlewares.TokenUserID).(string)

	if err := h.readUC.MarkRead(c.Context(), c.Params("id"), userID); err != nil {
		return domainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllRead POST /api/chat/conversations/:id/read
func (h *ChatHTTPHandler) MarkAllRead(c *fiber.Ctx) error {
	userID := c.Locals(middlewares.TokenUserID).(string)

	if err := h.readUC.MarkAllRead(c.Context(), c.Params("id"), userID); err != nil {
		return domainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// History GET /api/chat/conversations/:id/messages?before=&limit=
func (h *ChatHTTPHandler) History(c *fiber.Ctx) error {
	userID := c.Locals(middlewares.TokenUserID).(string)

	before := int64(c.QueryInt("before", 0))
	limit := c.QueryInt("limit", 0)

	messages, err := h.historyUC.Execute(c.Context(), c.Params("id"), userID, before, limit)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}

// Unread GET /api/chat/unread
func (h *ChatHTTPHandler) Unread(c *fiber.Ctx) error {
	userID := c.Locals(middlewares.TokenUserID).(string)

	summary, err := h.unreadUC.Summary(c.Context(), userID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(summary)
}

// domainError map the error taxonomy onto HTTP statuses
func domainError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotAParticipant):
		status = fiber.StatusForbidden
	case errors.Is(err, domain.ErrInvalidContent), errors.Is(err, domain.ErrInvalidSelfRead):
		status = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrMessageNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, domain.ErrPersistence):
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
