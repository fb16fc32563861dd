package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	Create(ctx context.Context, chatID, senderID int, content string) (models.Message, error)
	ListForChat(ctx context.Context, chatID, offset, limit int) ([]models.Message, error)
	Get(ctx context.Context, messageID int) (models.Message, error)
	UpdateContent(ctx context.Context, messageID, senderID int, content string) (models.Message, error)
	UpdateStatus(ctx context.Context, messageID int, status string) (models.Message, error)
	Delete(ctx context.Context, messageID int) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, chat_id, sender_id, content, violation_status, created_at`

// Create stores a message; moderation status starts as pending_review.
func (r *MessageRepo) Create(ctx context.Context, chatID, senderID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (chat_id, sender_id, content) VALUES ($1, $2, $3) RETURNING `+messageColumns, chatID, senderID, content).
		StructScan(&msg)
	return msg, err
}

// ListForChat returns chat messages ordered by creation time.
func (r *MessageRepo) ListForChat(ctx context.Context, chatID, offset, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages WHERE chat_id=$1 ORDER BY created_at ASC OFFSET $2 LIMIT $3`, chatID, offset, limit)
	return msgs, err
}

// Get retrieves a single message.
func (r *MessageRepo) Get(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// UpdateContent rewrites a message's content, scoped to its sender.
func (r *MessageRepo) UpdateContent(ctx context.Context, messageID, senderID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `UPDATE messages SET content=$3 WHERE id=$1 AND sender_id=$2 RETURNING `+messageColumns, messageID, senderID, content).
		StructScan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// UpdateStatus sets the moderation status.
func (r *MessageRepo) UpdateStatus(ctx context.Context, messageID int, status string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `UPDATE messages SET violation_status=$2 WHERE id=$1 RETURNING `+messageColumns, messageID, status).
		StructScan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// Delete removes a message permanently.
func (r *MessageRepo) Delete(ctx context.Context, messageID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}
