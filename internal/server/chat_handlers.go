package server

import (
	"knowhere/internal/middleware"
	"knowhere/internal/models"
	"knowhere/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SendMessageRequest is the payload for POST /api/events/:id/messages.
type SendMessageRequest struct {
	Text string `json:"text"`
}

// GetChatMessages returns the latest chat history for an event. The history
// is public; only sending requires a session.
//
//	GET /api/events/:id/messages
func (s *Server) GetChatMessages(c *fiber.Ctx) error {
	id, err := parseEventID(c)
	if err != nil {
		return nil
	}

	messages, err := s.chatService.GetMessages(c.UserContext(), id)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"event_id": id,
		"messages": messages,
		"count":    len(messages),
	})
}

// SendChatMessage appends a message to an event's chat. The sender must have
// a non-guest session and must have joined this event's chat.
//
//	POST /api/events/:id/messages
func (s *Server) SendChatMessage(c *fiber.Ctx) error {
	id, err := parseEventID(c)
	if err != nil {
		return nil
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	msg, err := s.chatService.SendMessage(c.UserContext(), service.SendMessageInput{
		Session: s.sessionFromLocals(c),
		EventID: id,
		Text:    req.Text,
	})
	if err != nil {
		return respondAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(msg)
}

// JoinChat marks the session as a participant of this event's chat.
// Join flags live only in memory and reset when the server restarts.
//
//	POST /api/events/:id/chat/join
func (s *Server) JoinChat(c *fiber.Ctx) error {
	id, err := parseEventID(c)
	if err != nil {
		return nil
	}

	sess := s.sessionFromLocals(c)
	if err := s.chatService.Join(c.UserContext(), sess, id); err != nil {
		return respondAppError(c, err)
	}

	middleware.Logger.InfoContext(c.UserContext(), "chat joined",
		"session_id", sess.ID, "event_id", id)

	return c.Status(fiber.StatusOK).JSON(snapshotSession(sess))
}
