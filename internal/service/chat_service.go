package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"knowhere/internal/middleware"
	"knowhere/internal/models"
	"knowhere/internal/observability"
	"knowhere/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// ChatService provides per-event chat business logic.
type ChatService struct {
	chatRepo   repository.ChatRepository
	eventRepo  repository.EventRepository
	publish    func(ctx context.Context, eventID int64, msg models.ChatMessage)
	historyMax int
}

// SendMessageInput is the input for sending a chat message.
type SendMessageInput struct {
	Session *models.Session
	EventID int64
	Text    string
}

// NewChatService returns a new ChatService. publish is invoked after a
// message is stored so connected clients receive it; it may be nil.
func NewChatService(
	chatRepo repository.ChatRepository,
	eventRepo repository.EventRepository,
	publish func(ctx context.Context, eventID int64, msg models.ChatMessage),
	historyMax int,
) *ChatService {
	if historyMax <= 0 {
		historyMax = 100
	}
	return &ChatService{
		chatRepo:   chatRepo,
		eventRepo:  eventRepo,
		publish:    publish,
		historyMax: historyMax,
	}
}

// GetMessages returns the latest chat messages for an event.
// Storage read failures degrade to an empty history rather than an error.
func (s *ChatService) GetMessages(ctx context.Context, eventID int64) ([]models.ChatMessage, error) {
	if err := s.ensureEventExists(ctx, eventID); err != nil {
		return nil, err
	}

	messages, err := s.chatRepo.ListMessages(ctx, eventID, s.historyMax)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "chat history read failed, serving empty history",
			slog.Int64("event_id", eventID),
			slog.String("error", err.Error()),
		)
		return []models.ChatMessage{}, nil
	}
	return messages, nil
}

// SendMessage validates authorization and content, stores the message, and
// fans it out to connected clients.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (*models.ChatMessage, error) {
	if in.Session == nil {
		return nil, models.NewAuthenticationError("Login required to chat")
	}
	if in.Session.Role == models.RoleGuest {
		return nil, models.NewAuthorizationError("Guests cannot send messages")
	}
	if !in.Session.HasJoined(in.EventID) {
		return nil, models.NewAuthorizationError("Join the event chat before sending messages")
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Message text cannot be empty")
	}

	span, ctx := observability.NewSpan(ctx, "chat.send_message")
	defer span.End()
	span.AddAttributes(attribute.Int64("event.id", in.EventID))

	if err := s.ensureEventExists(ctx, in.EventID); err != nil {
		return nil, err
	}

	msg := models.ChatMessage{
		User: in.Session.Username,
		Text: text,
		Time: time.Now().Format(models.MessageTimeLayout),
	}

	if err := s.chatRepo.AppendMessage(ctx, in.EventID, msg); err != nil {
		span.SetError(err)
		return nil, models.NewStorageWriteError(err)
	}

	if s.publish != nil {
		s.publish(ctx, in.EventID, msg)
	}
	return &msg, nil
}

// Join marks the session as a participant of the event's chat.
func (s *ChatService) Join(ctx context.Context, session *models.Session, eventID int64) error {
	if session == nil {
		return models.NewAuthenticationError("Login required to join a chat")
	}
	if session.Role == models.RoleGuest {
		return models.NewAuthorizationError("Guests cannot join event chats")
	}

	if err := s.ensureEventExists(ctx, eventID); err != nil {
		return err
	}

	if session.Joined == nil {
		session.Joined = make(map[int64]bool)
	}
	session.Joined[eventID] = true
	return nil
}

func (s *ChatService) ensureEventExists(ctx context.Context, eventID int64) error {
	exists, err := s.eventRepo.Exists(ctx, eventID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewInternalError(err)
	}
	if !exists {
		return models.NewNotFoundError("Event", eventID)
	}
	return nil
}
