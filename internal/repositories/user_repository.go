package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/apperr"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository abstracts user persistence.
type UserRepository interface {
	Create(ctx context.Context, name, email, passwordHash string) (models.User, error)
	GetByID(ctx context.Context, userID int) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	List(ctx context.Context, offset, limit int) ([]models.User, error)
	ExistingIDs(ctx context.Context, ids []int) ([]int, error)
	UpdateModeration(ctx context.Context, userID int, violationCount *int, banned *bool) (models.User, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, name, email, password, violation_count, is_banned, is_admin, created_at`

// Create inserts a new user. A duplicate email maps to apperr.ErrEmailTaken.
func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash string) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx, `INSERT INTO users (name, email, password) VALUES ($1, $2, $3) RETURNING `+userColumns, name, email, passwordHash).
		StructScan(&user)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return models.User{}, apperr.ErrEmailTaken
	}
	return user, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByEmail fetches a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// List returns users ordered by id.
func (r *UserRepo) List(ctx context.Context, offset, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY id ASC OFFSET $1 LIMIT $2`, offset, limit)
	return users, err
}

// ExistingIDs returns the subset of ids that resolve to users.
func (r *UserRepo) ExistingIDs(ctx context.Context, ids []int) ([]int, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []int
	err := r.db.SelectContext(ctx, &found, `SELECT id FROM users WHERE id = ANY($1)`, pq.Array(ids))
	return found, err
}

// UpdateModeration updates the moderation fields that are non-nil.
func (r *UserRepo) UpdateModeration(ctx context.Context, userID int, violationCount *int, banned *bool) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx, `UPDATE users
        SET violation_count = COALESCE($2, violation_count),
            is_banned = COALESCE($3, is_banned)
        WHERE id=$1 RETURNING `+userColumns, userID, violationCount, banned).
		StructScan(&user)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}
