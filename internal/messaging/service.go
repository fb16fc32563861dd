// Package messaging bridges the persisted request/response path and the
// live push path.
package messaging

import (
	"context"
	"errors"

	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/apperr"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/models"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/observability"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/repositories"
)

// Broadcaster is the fan-out side of the connection registry.
type Broadcaster interface {
	Broadcast(chatID int, event models.ChatEvent)
}

// Service persists messages and pushes them to live subscribers.
type Service struct {
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	registry Broadcaster
}

// NewService constructs the messaging service.
func NewService(chats repositories.ChatRepository, messages repositories.MessageRepository, registry Broadcaster) *Service {
	return &Service{chats: chats, messages: messages, registry: registry}
}

// Post persists a message and then broadcasts it to the chat's live
// subscribers. Delivery is best effort: the broadcast runs after the
// persistence commit and can never fail or roll back the write.
func (s *Service) Post(ctx context.Context, chatID, senderID int, content string) (models.Message, error) {
	if err := s.requireParticipant(ctx, chatID, senderID); err != nil {
		return models.Message{}, err
	}

	msg, err := s.messages.Create(ctx, chatID, senderID, content)
	if err != nil {
		return models.Message{}, err
	}

	s.registry.Broadcast(chatID, models.ChatEvent{Type: "message", Message: &msg})
	observability.IncMessageBroadcast()
	return msg, nil
}

// List returns the chat's messages for a participant.
func (s *Service) List(ctx context.Context, chatID, userID, offset, limit int) ([]models.Message, error) {
	if err := s.requireParticipant(ctx, chatID, userID); err != nil {
		return nil, err
	}
	return s.messages.ListForChat(ctx, chatID, offset, limit)
}

// Edit rewrites a message's content. Only the original sender may edit;
// live subscribers are not notified, they pick the change up from
// persisted history.
func (s *Service) Edit(ctx context.Context, messageID, actorID int, content string) (models.Message, error) {
	msg, err := s.get(ctx, messageID)
	if err != nil {
		return models.Message{}, err
	}
	if msg.SenderID != actorID {
		return models.Message{}, apperr.ErrForbidden
	}
	return s.messages.UpdateContent(ctx, messageID, actorID, content)
}

// Delete removes a message. Only the original sender may delete.
func (s *Service) Delete(ctx context.Context, messageID, actorID int) error {
	msg, err := s.get(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != actorID {
		return apperr.ErrForbidden
	}
	return s.messages.Delete(ctx, messageID)
}

// Moderate sets a message's moderation status.
func (s *Service) Moderate(ctx context.Context, messageID int, status string) (models.Message, error) {
	msg, err := s.messages.UpdateStatus(ctx, messageID, status)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return models.Message{}, apperr.ErrNotFound
	}
	return msg, err
}

func (s *Service) get(ctx context.Context, messageID int) (models.Message, error) {
	msg, err := s.messages.Get(ctx, messageID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return models.Message{}, apperr.ErrNotFound
	}
	return msg, err
}

func (s *Service) requireParticipant(ctx context.Context, chatID, userID int) error {
	chat, err := s.chats.GetChat(ctx, chatID)
	if errors.Is(err, repositories.ErrChatNotFound) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return err
	}
	if !chat.HasParticipant(userID) {
		return apperr.ErrForbidden
	}
	return nil
}
