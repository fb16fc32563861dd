package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

// ChatRepository abstracts chat and participant-set persistence. All
// multi-row mutations are single transactions.
type ChatRepository interface {
	CreateChat(ctx context.Context, title string, participantIDs []int) (models.Chat, error)
	GetChat(ctx context.Context, chatID int) (models.Chat, error)
	ListChatsForUser(ctx context.Context, userID, offset, limit int) ([]models.Chat, error)
	UpdateTitle(ctx context.Context, chatID int, title string) (models.Chat, error)
	IsParticipant(ctx context.Context, chatID, userID int) (bool, error)
	AddParticipant(ctx context.Context, chatID, userID int) error
	RemoveParticipant(ctx context.Context, chatID, userID int) (deleted bool, err error)
	DeleteChat(ctx context.Context, chatID int) error
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// CreateChat creates a chat and its participant rows atomically.
func (r *ChatRepo) CreateChat(ctx context.Context, title string, participantIDs []int) (models.Chat, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Chat{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var chat models.Chat
	if err = tx.QueryRowxContext(ctx, `INSERT INTO chats (title) VALUES ($1) RETURNING id, title, created_at`, title).
		Scan(&chat.ID, &chat.Title, &chat.CreatedAt); err != nil {
		return models.Chat{}, err
	}

	ids := append([]int(nil), participantIDs...)
	sort.Ints(ids)
	for _, id := range ids {
		if _, err = tx.ExecContext(ctx, `INSERT INTO chat_participants (chat_id, user_id) VALUES ($1, $2)`, chat.ID, id); err != nil {
			return models.Chat{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Chat{}, err
	}
	chat.ParticipantIDs = ids
	return chat, nil
}

// GetChat fetches a chat and its participant set.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT id, title, created_at FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	if err != nil {
		return models.Chat{}, err
	}

	if err := r.db.SelectContext(ctx, &chat.ParticipantIDs, `SELECT user_id FROM chat_participants WHERE chat_id=$1 ORDER BY user_id ASC`, chatID); err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// ListChatsForUser returns chats the user participates in, newest first.
func (r *ChatRepo) ListChatsForUser(ctx context.Context, userID, offset, limit int) ([]models.Chat, error) {
	var chats []models.Chat
	query := `SELECT c.id, c.title, c.created_at FROM chats c
        INNER JOIN chat_participants cp ON cp.chat_id = c.id
        WHERE cp.user_id=$1 ORDER BY c.created_at DESC OFFSET $2 LIMIT $3`
	if err := r.db.SelectContext(ctx, &chats, query, userID, offset, limit); err != nil {
		return nil, err
	}

	for i := range chats {
		if err := r.db.SelectContext(ctx, &chats[i].ParticipantIDs, `SELECT user_id FROM chat_participants WHERE chat_id=$1 ORDER BY user_id ASC`, chats[i].ID); err != nil {
			return nil, err
		}
	}
	return chats, nil
}

// UpdateTitle renames a chat.
func (r *ChatRepo) UpdateTitle(ctx context.Context, chatID int, title string) (models.Chat, error) {
	var chat models.Chat
	err := r.db.QueryRowxContext(ctx, `UPDATE chats SET title=$2 WHERE id=$1 RETURNING id, title, created_at`, chatID, title).
		Scan(&chat.ID, &chat.Title, &chat.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	if err != nil {
		return models.Chat{}, err
	}
	if err := r.db.SelectContext(ctx, &chat.ParticipantIDs, `SELECT user_id FROM chat_participants WHERE chat_id=$1 ORDER BY user_id ASC`, chatID); err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// IsParticipant checks whether a user belongs to the chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM chat_participants WHERE chat_id=$1 AND user_id=$2)`, chatID, userID)
	return exists, err
}

// AddParticipant appends a user to the chat's participant set.
func (r *ChatRepo) AddParticipant(ctx context.Context, chatID, userID int) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO chat_participants (chat_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, chatID, userID)
	return err
}

// RemoveParticipant removes a user from the chat. When the remaining
// population drops to one or zero the chat and its messages are deleted
// in the same transaction, and deleted reports that to the caller.
func (r *ChatRepo) RemoveParticipant(ctx context.Context, chatID, userID int) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM chat_participants WHERE chat_id=$1 AND user_id=$2`, chatID, userID)
	if err != nil {
		return false, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if removed == 0 {
		err = errors.New("participant row missing")
		return false, err
	}

	var remaining int
	if err = tx.GetContext(ctx, &remaining, `SELECT COUNT(*) FROM chat_participants WHERE chat_id=$1`, chatID); err != nil {
		return false, err
	}

	deleted := remaining <= 1
	if deleted {
		if err = deleteChatTx(ctx, tx, chatID); err != nil {
			return false, err
		}
	}

	if err = tx.Commit(); err != nil {
		return false, err
	}
	return deleted, nil
}

// DeleteChat deletes a chat, its messages and participant rows atomically.
func (r *ChatRepo) DeleteChat(ctx context.Context, chatID int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = deleteChatTx(ctx, tx, chatID); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteChatTx(ctx context.Context, tx *sqlx.Tx, chatID int) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE chat_id=$1`, chatID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_participants WHERE chat_id=$1`, chatID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM chats WHERE id=$1`, chatID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrChatNotFound
	}
	return nil
}
