// Package membership gatekeeps every membership-changing operation on a
// chat and enforces the population invariant: a chat with fewer than two
// participants is deleted, messages and all, in the same transaction that
// shrank it.
package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/apperr"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/models"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/repositories"
)

// Evictor is the slice of the connection registry the service needs to keep
// live subscriptions aligned with the participant set.
type Evictor interface {
	EvictUser(chatID, userID int)
	CloseRoom(chatID int)
}

// Service is the membership authority.
type Service struct {
	chats    repositories.ChatRepository
	users    repositories.UserRepository
	registry Evictor
}

// NewService constructs the membership service. The registry is the
// explicit hub instance created at startup.
func NewService(chats repositories.ChatRepository, users repositories.UserRepository, registry Evictor) *Service {
	return &Service{chats: chats, users: users, registry: registry}
}

// CreateChat validates that every referenced participant exists, then
// persists a chat whose participant set is the union of the given ids and
// the creator. The creator is always included.
func (s *Service) CreateChat(ctx context.Context, creatorID int, title string, participantIDs []int) (models.Chat, error) {
	ids := lo.Uniq(append([]int{creatorID}, participantIDs...))

	found, err := s.users.ExistingIDs(ctx, ids)
	if err != nil {
		return models.Chat{}, fmt.Errorf("validate participants: %w", err)
	}
	if missing, _ := lo.Difference(ids, found); len(missing) > 0 {
		return models.Chat{}, &apperr.UnknownParticipantsError{IDs: missing}
	}

	if len(ids) < 2 {
		return models.Chat{}, apperr.ErrTooFewParticipants
	}

	if title == "" {
		title = "New Chat"
	}
	return s.chats.CreateChat(ctx, title, ids)
}

// GetChat returns the chat when the actor is a current participant.
func (s *Service) GetChat(ctx context.Context, chatID, actorID int) (models.Chat, error) {
	return s.authorizedChat(ctx, chatID, actorID)
}

// ListChats returns the chats the actor participates in.
func (s *Service) ListChats(ctx context.Context, actorID, offset, limit int) ([]models.Chat, error) {
	return s.chats.ListChatsForUser(ctx, actorID, offset, limit)
}

// Rename updates the chat title.
func (s *Service) Rename(ctx context.Context, chatID, actorID int, title string) (models.Chat, error) {
	if _, err := s.authorizedChat(ctx, chatID, actorID); err != nil {
		return models.Chat{}, err
	}
	return s.chats.UpdateTitle(ctx, chatID, title)
}

// AddParticipant appends the user with the given email to the chat.
func (s *Service) AddParticipant(ctx context.Context, chatID, actorID int, targetEmail string) (models.Chat, error) {
	chat, err := s.authorizedChat(ctx, chatID, actorID)
	if err != nil {
		return models.Chat{}, err
	}

	target, err := s.users.GetByEmail(ctx, targetEmail)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return models.Chat{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Chat{}, err
	}
	if chat.HasParticipant(target.ID) {
		return models.Chat{}, apperr.ErrAlreadyMember
	}

	if err := s.chats.AddParticipant(ctx, chatID, target.ID); err != nil {
		return models.Chat{}, err
	}
	return s.chats.GetChat(ctx, chatID)
}

// RemoveParticipant removes the user with the given email from the chat.
// When the remaining population is one or zero the chat is deleted with its
// messages as one atomic unit and deleted reports that; the returned chat
// is only meaningful when deleted is false.
func (s *Service) RemoveParticipant(ctx context.Context, chatID, actorID int, targetEmail string) (models.Chat, bool, error) {
	chat, err := s.authorizedChat(ctx, chatID, actorID)
	if err != nil {
		return models.Chat{}, false, err
	}

	target, err := s.users.GetByEmail(ctx, targetEmail)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return models.Chat{}, false, apperr.ErrNotFound
	}
	if err != nil {
		return models.Chat{}, false, err
	}
	if !chat.HasParticipant(target.ID) {
		return models.Chat{}, false, apperr.ErrNotMember
	}

	return s.remove(ctx, chatID, target.ID)
}

// Leave removes the actor from the chat. It is RemoveParticipant with
// target = actor, so a non-participant actor fails the same Forbidden
// check as every other mutation.
func (s *Service) Leave(ctx context.Context, chatID, actorID int) (bool, error) {
	if _, err := s.authorizedChat(ctx, chatID, actorID); err != nil {
		return false, err
	}
	_, deleted, err := s.remove(ctx, chatID, actorID)
	return deleted, err
}

// DeleteChat deletes the chat and all its messages atomically.
func (s *Service) DeleteChat(ctx context.Context, chatID, actorID int) error {
	if _, err := s.authorizedChat(ctx, chatID, actorID); err != nil {
		return err
	}
	if err := s.chats.DeleteChat(ctx, chatID); err != nil {
		return err
	}
	s.registry.CloseRoom(chatID)
	return nil
}

func (s *Service) remove(ctx context.Context, chatID, targetID int) (models.Chat, bool, error) {
	deleted, err := s.chats.RemoveParticipant(ctx, chatID, targetID)
	if err != nil {
		return models.Chat{}, false, err
	}

	if deleted {
		s.registry.CloseRoom(chatID)
		return models.Chat{}, true, nil
	}

	s.registry.EvictUser(chatID, targetID)
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return models.Chat{}, false, err
	}
	return chat, false, nil
}

// authorizedChat resolves the chat and checks the actor belongs to it,
// keeping the not-found-before-forbidden ordering.
func (s *Service) authorizedChat(ctx context.Context, chatID, actorID int) (models.Chat, error) {
	chat, err := s.chats.GetChat(ctx, chatID)
	if errors.Is(err, repositories.ErrChatNotFound) {
		return models.Chat{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Chat{}, err
	}
	if !chat.HasParticipant(actorID) {
		return models.Chat{}, apperr.ErrForbidden
	}
	return chat, nil
}
