package models

import "time"

// Classroom is a class owned by one user and joinable by its slug.
type Classroom struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Section   string    `json:"section,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Room      string    `json:"room,omitempty"`
	Slug      string    `json:"slug"` // routing key and join code
	OwnerID   int       `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Member is a user that joined a classroom.
type Member struct {
	UserID   int       `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email,omitempty"` // owner view only
	JoinedAt time.Time `json:"joined_at"`
}
