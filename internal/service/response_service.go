package service

import (
	"errors"
	"time"

	"classroom/internal/models"
)

// Domain errors shared by the services.
var (
	ErrInvalidCredentials = errors.New("these credentials do not match our records")
	ErrEmailTaken         = errors.New("the email has already been taken")
	ErrSlugTaken          = errors.New("the slug has already been taken")
	ErrClassroomNotFound  = errors.New("classroom not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
)

// RegisterParams is the validated registration input.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

// ClassroomParams is the validated classroom creation input.
// An empty Slug asks the service to generate one.
type ClassroomParams struct {
	Name    string
	Section string
	Subject string
	Room    string
	Slug    string
}

// ClassroomList groups the classrooms a user owns and the ones they joined.
type ClassroomList struct {
	Owned  []models.Classroom `json:"owned"`
	Joined []models.Classroom `json:"joined"`
}

// ClassroomDetail is a classroom as seen by one of its participants.
type ClassroomDetail struct {
	Classroom models.Classroom `json:"classroom"`
	IsOwner   bool             `json:"is_owner"`
	Members   []models.Member  `json:"members"`
}

// LogFilter supports history filtering by actor, time range and type.
type LogFilter struct {
	UserID int       // 0 means every actor
	From   time.Time // inclusive; zero means no lower bound
	To     time.Time // inclusive; zero means no upper bound
	Type   string    // "", "LOGIN", "CLASSROOM_CREATED", ...
	Limit  int       // 0 means the default page size
}
