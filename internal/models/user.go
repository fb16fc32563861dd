package models

import "time"

// User is an account known to the service. The password hash never leaves
// the persistence layer.
type User struct {
	ID             int       `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password" json:"-"`
	ViolationCount int       `db:"violation_count" json:"violation_count"`
	IsBanned       bool      `db:"is_banned" json:"is_banned"`
	IsAdmin        bool      `db:"is_admin" json:"is_admin"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// PublicUser is the view of a user exposed to other users.
type PublicUser struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public strips moderation and credential fields.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}
