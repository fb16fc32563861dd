package membership

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/apperr"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/mocks"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/models"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/repositories"
)

type fakeRegistry struct {
	mu          sync.Mutex
	evicted     [][2]int
	closedRooms []int
}

func (r *fakeRegistry) EvictUser(chatID, userID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evicted = append(r.evicted, [2]int{chatID, userID})
}

func (r *fakeRegistry) CloseRoom(chatID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closedRooms = append(r.closedRooms, chatID)
}

func newTestService() (*Service, *mocks.ChatRepositoryMock, *mocks.UserRepositoryMock, *fakeRegistry) {
	chats := new(mocks.ChatRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	registry := &fakeRegistry{}
	return NewService(chats, users, registry), chats, users, registry
}

func TestCreateChatIncludesCreatorAndDeduplicates(t *testing.T) {
	svc, chats, users, _ := newTestService()
	ctx := context.Background()

	users.On("ExistingIDs", ctx, []int{1, 2, 3}).Return([]int{1, 2, 3}, nil)
	expected := models.Chat{ID: 5, Title: "New Chat", ParticipantIDs: []int{1, 2, 3}}
	chats.On("CreateChat", ctx, "New Chat", []int{1, 2, 3}).Return(expected, nil)

	chat, err := svc.CreateChat(ctx, 1, "", []int{2, 3, 2, 1})

	require.NoError(t, err)
	assert.Equal(t, expected, chat)
	users.AssertExpectations(t)
	chats.AssertExpectations(t)
}

func TestCreateChatRejectsUnknownParticipants(t *testing.T) {
	svc, chats, users, _ := newTestService()
	ctx := context.Background()

	users.On("ExistingIDs", ctx, []int{1, 2, 99}).Return([]int{1, 2}, nil)

	_, err := svc.CreateChat(ctx, 1, "team", []int{2, 99})

	var unknownErr *apperr.UnknownParticipantsError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, []int{99}, unknownErr.IDs)
	chats.AssertNotCalled(t, "CreateChat", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateChatRequiresTwoParticipants(t *testing.T) {
	svc, chats, users, _ := newTestService()
	ctx := context.Background()

	users.On("ExistingIDs", ctx, []int{1}).Return([]int{1}, nil)

	_, err := svc.CreateChat(ctx, 1, "solo", nil)

	assert.ErrorIs(t, err, apperr.ErrTooFewParticipants)
	chats.AssertNotCalled(t, "CreateChat", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetChatNotFoundBeforeForbidden(t *testing.T) {
	svc, chats, _, _ := newTestService()
	ctx := context.Background()

	chats.On("GetChat", ctx, 42).Return(nil, repositories.ErrChatNotFound)

	_, err := svc.GetChat(ctx, 42, 7)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetChatForbiddenForNonParticipant(t *testing.T) {
	svc, chats, _, _ := newTestService()
	ctx := context.Background()

	chats.On("GetChat", ctx, 1).Return(models.Chat{ID: 1, ParticipantIDs: []int{2, 3}}, nil)

	_, err := svc.GetChat(ctx, 1, 7)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestAddParticipantUnknownEmail(t *testing.T) {
	svc, chats, users, _ := newTestService()
	ctx := context.Background()

	chats.On("GetChat", ctx, 1).Return(models.Chat{ID: 1, ParticipantIDs: []int{1, 2}}, nil)
	users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, repositories.ErrUserNotFound)

	_, err := svc.AddParticipant(ctx, 1, 1, "ghost@example.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAddParticipantAlreadyMember(t *testing.T) {
	svc, chats, users, _ := newTestService()
	ctx := context.Background()

	chats.On("GetChat", ctx, 1).Return(models.Chat{ID: 1, ParticipantIDs: []int{1, 2}}, nil)
	users.On("GetByEmail", ctx, "bob@example.com").Return(models.User{ID: 2, Email: "bob@example.com"}, nil)

	_, err := svc.AddParticipant(ctx, 1, 1, "bob@example.com")
	assert.ErrorIs(t, err, apperr.ErrAlreadyMember)
	chats.AssertNotCalled(t, "AddParticipant", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddParticipantSuccess(t *testing.T) {
	svc, chats, users, _ := newTestService()
	ctx := context.Background()

	chats.On("GetChat", ctx, 1).Return(models.Chat{ID: 1, ParticipantIDs: []int{1, 2}}, nil).Once()
	users.On("GetByEmail", ctx, "carol@example.com").Return(models.User{ID: 3}, nil)
	chats.On("AddParticipant", ctx, 1, 3).Return(nil)
	updated := models.Chat{ID: 1, ParticipantIDs: []int{1, 2, 3}}
	chats.On("GetChat", ctx, 1).Return(updated, nil).Once()

	chat, err := svc.AddParticipant(ctx, 1, 1, "carol@example.com")

	require.NoError(t, err)
	assert.Equal(t, updated, chat)
	chats.AssertExpectations(t)
}

func TestRemoveParticipantNotMember(t *testing.T) {
	svc, chats, users, _ := newTestService()
	ctx := context.Background()

	chats.On("GetChat", ctx, 1).Return(models.Chat{ID: 1, ParticipantIDs: []int{1, 2}}, nil)
	users.On("GetByEmail", ctx, "carol@example.com").Return(models.User{ID: 3}, nil)

	_, _, err := svc.RemoveParticipant(ctx, 1, 1, "carol@example.com")
	assert.ErrorIs(t, err, apperr.ErrNotMember)
}

func TestRemoveParticipantEvictsAndReturnsUpdatedChat(t *testing.T) {
	svc, chats, users, registry := newTestService()
	ctx := context.Background()

	chats.On("GetChat", ctx, 1).Return(models.Chat{ID: 1, ParticipantIDs: []int{1, 2, 3}}, nil).Once()
	users.On("GetByEmail", ctx, "carol@example.com").Return(models.User{ID: 3}, nil)
	chats.On("RemoveParticipant", ctx, 1, 3).Return(false, nil)
	updated := models.Chat{ID: 1, ParticipantIDs: []int{1, 2}}
	chats.On("GetChat", ctx, 1).Return(updated, nil).Once()

	chat, deleted, err := svc.RemoveParticipant(ctx, 1, 1, "carol@example.com")

	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, updated, chat)
	assert.Equal(t, [][2]int{{1, 3}}, registry.evicted)
	assert.Empty(t, registry.closedRooms)
}

func TestRemoveParticipantCollapsesChat(t *testing.T) {
	svc, chats, users, registry := newTestService()
	ctx := context.Background()

	chats.On("GetChat", ctx, 1).Return(models.Chat{ID: 1, ParticipantIDs: []int{1, 2}}, nil)
	users.On("GetByEmail", ctx, "bob@example.com").Return(models.User{ID: 2}, nil)
	chats.On("RemoveParticipant", ctx, 1, 2).Return(true, nil)

	_, deleted, err := svc.RemoveParticipant(ctx, 1, 1, "bob@example.com")

	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, []int{1}, registry.closedRooms)
	assert.Empty(t, registry.evicted)
}

func TestLeaveForbiddenForNonParticipant(t *testing.T) {
	svc, chats, _, registry := newTestService()
	ctx := context.Background()

	chats.On("GetChat", ctx, 1).Return(models.Chat{ID: 1, ParticipantIDs: []int{2, 3}}, nil)

	_, err := svc.Leave(ctx, 1, 7)

	assert.ErrorIs(t, err, apperr.ErrForbidden)
	chats.AssertNotCalled(t, "RemoveParticipant", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, registry.evicted)
}

func TestLeaveCollapsesChatWhenOneRemains(t *testing.T) {
	svc, chats, _, registry := newTestService()
	ctx := context.Background()

	chats.On("GetChat", ctx, 1).Return(models.Chat{ID: 1, ParticipantIDs: []int{1, 2}}, nil)
	chats.On("RemoveParticipant", ctx, 1, 2).Return(true, nil)

	deleted, err := svc.Leave(ctx, 1, 2)

	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, []int{1}, registry.closedRooms)
}

func TestDeleteChatClosesRoom(t *testing.T) {
	svc, chats, _, registry := newTestService()
	ctx := context.Background()

	chats.On("GetChat", ctx, 1).Return(models.Chat{ID: 1, ParticipantIDs: []int{1, 2}}, nil)
	chats.On("DeleteChat", ctx, 1).Return(nil)

	err := svc.DeleteChat(ctx, 1, 1)

	require.NoError(t, err)
	assert.Equal(t, []int{1}, registry.closedRooms)
}
