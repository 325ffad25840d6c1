package server

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"knowhere/internal/middleware"
	"knowhere/internal/models"
	"knowhere/internal/notifications"
	"knowhere/internal/observability"
	"knowhere/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketChatHandler upgrades to a WebSocket that pushes each new chat
// message for one event. History is fetched over REST; the socket only
// carries new messages and optional sends.
//
//	GET /api/ws/chat?event_id=N&token=...
func (s *Server) WebSocketChatHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		sessionID, _ := conn.Locals("sessionID").(string)
		eventID, _ := conn.Locals("chatEventID").(int64)

		// Spans the whole connection lifetime
		_, span := observability.GetTraceLayer().TraceWebSocket(
			context.Background(), "event_chat", "connection")
		defer span.End()

		client, err := s.chatHub.Register(sessionID, eventID, conn)
		if err != nil {
			middleware.Logger.Warn("websocket registration rejected",
				"session_id", sessionID, "event_id", eventID, "error", err)
			_ = conn.WriteJSON(fiber.Map{"type": "error", "error": err.Error()})
			_ = conn.Close()
			return
		}

		client.IncomingHandler = s.handleIncomingChatFrame

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		sessionID, _ := c.Locals("sessionID").(string)
		// Sessions outside the rollout fall back to REST polling for history
		if !s.flags.Enabled("chat_ws_push", sessionID, true) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Realtime chat is currently disabled",
			})
		}

		if !websocket.IsWebSocketUpgrade(c) {
			return models.RespondWithError(c, fiber.StatusUpgradeRequired,
				models.NewValidationError("WebSocket upgrade required"))
		}

		raw := c.Query("event_id")
		eventID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || eventID <= 0 {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid event_id: "+raw))
		}
		if _, err := s.eventService.GetEvent(c.UserContext(), eventID, time.Now()); err != nil {
			return respondAppError(c, err)
		}

		// Locals set here are visible on conn.Locals inside the upgraded handler
		c.Locals("chatEventID", eventID)
		return upgrade(c)
	}
}

// handleIncomingChatFrame treats any text frame from the socket as a chat
// send, subject to the same authorization as the REST path.
func (s *Server) handleIncomingChatFrame(client *notifications.Client, frame []byte) {
	sess, ok := s.sessions.Get(client.SessionID)
	if !ok {
		client.TrySend(errorFrame("session expired"))
		return
	}

	_, err := s.chatService.SendMessage(context.Background(), service.SendMessageInput{
		Session: sess,
		EventID: client.EventID,
		Text:    string(frame),
	})
	if err != nil {
		middleware.Logger.Warn("websocket chat send rejected",
			"session_id", client.SessionID, "event_id", client.EventID, "error", err)
		client.TrySend(errorFrame(err.Error()))
	}
}

func errorFrame(message string) []byte {
	frame, _ := json.Marshal(fiber.Map{"type": "error", "error": message})
	return frame
}
