package models

import "time"

// Moderation states for a message.
const (
	StatusPendingReview = "pending_review"
	StatusApproved      = "approved"
	StatusRejected      = "rejected"
)

// ValidStatus reports whether s is a known moderation state.
func ValidStatus(s string) bool {
	return s == StatusPendingReview || s == StatusApproved || s == StatusRejected
}

// Message is a persisted chat message. Content is mutable only by its
// sender, the status only by moderation.
type Message struct {
	ID              int       `db:"id" json:"id"`
	ChatID          int       `db:"chat_id" json:"chat_id"`
	SenderID        int       `db:"sender_id" json:"sender_id"`
	Content         string    `db:"content" json:"content"`
	ViolationStatus string    `db:"violation_status" json:"violation_status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// ChatEvent is the payload pushed over websocket connections.
type ChatEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
}
