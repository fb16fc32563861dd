package models

import "time"

// Chat is a titled conversation between two or more participants. A chat
// with fewer than two participants is never a valid steady state; mutation
// paths delete it instead.
type Chat struct {
	ID             int       `db:"id" json:"id"`
	Title          string    `db:"title" json:"title"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	ParticipantIDs []int     `db:"-" json:"participant_ids"`
}

// HasParticipant reports whether the user belongs to the chat's participant set.
func (c Chat) HasParticipant(userID int) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}
