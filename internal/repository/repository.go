package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"classroom/internal/models"
)

// ErrDuplicate is returned when an insert violates a unique constraint.
var ErrDuplicate = errors.New("duplicate key")

type Users interface {
	Create(ctx context.Context, u models.User) (int, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
}

type Classrooms interface {
	Create(ctx context.Context, c models.Classroom) (int, error)
	GetBySlug(ctx context.Context, slug string) (*models.Classroom, error)
	ListOwned(ctx context.Context, userID int) ([]models.Classroom, error)
	ListJoined(ctx context.Context, userID int) ([]models.Classroom, error)
	AddMember(ctx context.Context, classroomID, userID int, joinedAt time.Time) (bool, error)
	IsMember(ctx context.Context, classroomID, userID int) (bool, error)
	ListMembers(ctx context.Context, classroomID int) ([]models.Member, error)
}

type SessionStore interface {
	Create(ctx context.Context, s models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// EventQuery selects activity log entries. Zero fields do not filter.
type EventQuery struct {
	UserID int
	From   time.Time // inclusive
	To     time.Time // inclusive
	Type   string
	Limit  int // 0 returns every match
}

type EventRepo interface {
	Append(ctx context.Context, e models.Event) error
	List(ctx context.Context, q EventQuery) ([]models.Event, error)
}

type Repository struct {
	Users      Users
	Classrooms Classrooms
	Sessions   SessionStore
	EventRepo  EventRepo
}

// NewRepository wires the SQLite-backed repositories. Sessions can be swapped
// for NewSessionRedis afterwards.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Users:      NewUserRepository(db),
		Classrooms: NewClassroomRepository(db),
		Sessions:   NewSessionSQLite(db),
		EventRepo:  NewEventSQLite(db),
	}
}

// timeLayout is the SQLite TIMESTAMP text format used for every stored time.
const timeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nowIfZero(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

// isUniqueViolation matches the SQLite constraint message; the driver error
// type is not available behind sqlmock.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
