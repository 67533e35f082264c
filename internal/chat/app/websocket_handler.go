package app

import (
	"context"
	"encoding/json"
	"time"

	"marketplace_chat_service/internal/chat/domain"
	"marketplace_chat_service/pkg/logger"
	"marketplace_chat_service/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChatWebsocketHandler entry point of the realtime transport. One goroutine
// reads control frames per connection; outbound events go through the
// connection's write loop.
type ChatWebsocketHandler struct {
	registry *ConnRegistry
	hub      *Hub
	sendUC   *SendMessageUseCase
	readUC   *ReadReceiptUseCase
	typing   *TypingCoordinator
	unreadUC *UnreadUseCase

	outboxSize int
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(
	registry *ConnRegistry,
	hub *Hub,
	sendUC *SendMessageUseCase,
	readUC *ReadReceiptUseCase,
	typing *TypingCoordinator,
	unreadUC *UnreadUseCase,
	outboxSize int,
) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		registry:   registry,
		hub:        hub,
		sendUC:     sendUC,
		readUC:     readUC,
		typing:     typing,
		unreadUC:   unreadUC,
		outboxSize: outboxSize,
	}
}

// HandleConnection run the read loop of one websocket session until the
// client disconnects, the transport fails, or the idle sweeper closes it
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	tokenUser := conn.Locals(middlewares.TokenUserID)
	userID, ok := tokenUser.(string)
	if !ok || userID == "" {
		logger.Log.Warn("websocket without identity, closing")
		conn.Close()
		return
	}

	client := NewClientConn(uuid.New().String(), userID, conn, h.outboxSize)
	if err := h.registry.Register(client); err != nil {
		logger.Log.Errorf("register connection error:", err, zap.String("userID", userID))
		conn.Close()
		return
	}
	client.Start()
	logger.Log.Info("websocket open", zap.String("connID", client.ID), zap.String("userID", userID))

	defer func() {
		joined := h.registry.Unregister(client.ID)
		h.hub.Evict(client.ID, joined)
		client.Close()
		logger.Log.Info("websocket close", zap.String("connID", client.ID), zap.String("userID", userID))
	}()

	// fiber handles close/ping/pong frames itself; the handlers only feed the
	// idle sweeper and the log
	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Infof("websocket closed:", conn.RemoteAddr())
		return nil
	})
	conn.SetPongHandler(func(appData string) error {
		client.Touch()
		return nil
	})
	conn.SetPingHandler(func(appData string) error {
		client.Touch()
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(appData),
			time.Now().Add(time.Second),
		)
	})

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Infof("connection closed:", err)
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
		client.Touch()
		h.execWebsocketAction(ctx, client, mt, message)
	}
}

func (h *ChatWebsocketHandler) execWebsocketAction(ctx context.Context, client *ClientConn, mt int, msg []byte) {
	switch mt {
	case websocket.TextMessage:
		h.textMessageAction(ctx, client, msg)
	default:
		h.sendError(client, "unknown message type")
	}
}

func (h *ChatWebsocketHandler) textMessageAction(ctx context.Context, client *ClientConn, msg []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		logger.Log.Errorf("json unmarshal error:", err)
		h.sendError(client, "malformed frame")
		return
	}

	resp := domain.WSResponse{Action: req.Action, Success: false, Payload: map[string]interface{}{}}
	switch req.Action {
	case string(domain.JoinConversation):
		roster, err := h.hub.Join(ctx, req.ConversationID, client)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["conversation_id"] = req.ConversationID
			resp.Payload["participants"] = roster
		}

	case string(domain.LeaveConversation):
		h.hub.Leave(req.ConversationID, client)
		resp.Success = true
		resp.Payload["conversation_id"] = req.ConversationID

	case string(domain.Typing):
		if !client.HasJoined(req.ConversationID) {
			resp.Error = "not joined to this conversation"
			break
		}
		h.typing.SetTyping(req.ConversationID, client.UserID, req.IsTyping)
		resp.Success = true

	case string(domain.SendMessage):
		persisted, err := h.sendUC.Execute(ctx, req.ConversationID, client.UserID, req.Content)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["message_id"] = persisted.ID
			resp.Payload["created_at"] = persisted.CreatedAt
		}

	case string(domain.MarkRead):
		if err := h.readUC.MarkRead(ctx, req.MessageID, client.UserID); err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
		}

	case string(domain.MarkAllRead):
		if err := h.readUC.MarkAllRead(ctx, req.ConversationID, client.UserID); err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			// fresh badge number for the reader
			if total, err := h.unreadUC.CountUnread(ctx, client.UserID); err == nil {
				resp.Payload["unread_total"] = total
			}
		}

	default:
		h.sendError(client, "unknown action")
		return
	}

	if resp.Error != "" {
		logger.Log.Error("websocket err",
			zap.String("userID", client.UserID),
			zap.String("action", req.Action),
			zap.String("err", resp.Error))
	}
	h.sendResponse(client, resp)
}

// sendResponse push one JSON frame through the connection's outbound buffer
func (h *ChatWebsocketHandler) sendResponse(client *ClientConn, resp domain.WSResponse) {
	b, _ := json.Marshal(resp)
	if err := client.Send(b); err != nil {
		logger.Log.Errorf("send response error:", err)
	}
}

func (h *ChatWebsocketHandler) sendError(client *ClientConn, errorMsg string) {
	h.sendResponse(client, domain.WSResponse{
		Action:  "error",
		Success: false,
		Payload: map[string]interface{}{
			"error": errorMsg,
		},
	})
}
