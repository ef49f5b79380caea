package service

import (
	"context"
	"io"
	"time"

	"classroom/internal/models"
	"classroom/internal/repository"
)

type Authorization interface {
	Register(ctx context.Context, p RegisterParams) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GenerateToken(ctx context.Context, email, password string) (string, error)
	ParseToken(accessToken string) (int, error)
	UserByID(ctx context.Context, id int) (*models.User, error)
}

// Sessions manages server-side login sessions.
type Sessions interface {
	Start(ctx context.Context, userID int) (*models.Session, error)
	Resolve(ctx context.Context, id string) (*models.Session, error)
	End(ctx context.Context, id string) error
}

// Classrooms exposes classroom creation, joining and ownership-scoped reads.
type Classrooms interface {
	Create(ctx context.Context, ownerID int, p ClassroomParams) (*models.Classroom, error)
	Join(ctx context.Context, userID int, code string) (*models.Classroom, error)
	ListForUser(ctx context.Context, userID int) (ClassroomList, error)
	Get(ctx context.Context, userID int, slug string) (*ClassroomDetail, error)
}

// Roster renders a classroom's member list as a spreadsheet.
type Roster interface {
	ExportRoster(ctx context.Context, userID int, slug string, w io.Writer) error
}

// EventLog exposes the append-only activity log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.Event, error)
}

// Sweeper removes expired sessions in the background.
// Stop via context cancellation in main() for graceful shutdown.
type Sweeper interface {
	Run(ctx context.Context, tick time.Duration)
}

type Service struct {
	Authorization
	Sessions
	Classrooms
	Roster
	EventLog
	Sweeper
}

// Options carries the settings services need from configuration.
type Options struct {
	SigningKey      string
	TokenTTL        time.Duration
	SessionLifetime time.Duration

	// SweepObserver, when set, is told about every expired-session sweep.
	SweepObserver func(removed int64, err error)

	// AuditObserver, when set, receives activity events that could not be stored.
	AuditObserver func(e models.Event, err error)
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, opts Options) *Service {
	auth := NewAuthService(repos.Users, repos.EventRepo, opts.SigningKey, opts.TokenTTL)
	auth.audit.onFail = opts.AuditObserver
	sessions := NewSessionService(repos.Sessions, repos.EventRepo, opts.SessionLifetime)
	sessions.audit.onFail = opts.AuditObserver
	classrooms := NewClassroomService(repos.Classrooms, repos.EventRepo)
	classrooms.audit.onFail = opts.AuditObserver

	return &Service{
		Authorization: auth,
		Sessions:      sessions,
		Classrooms:    classrooms,
		Roster:        NewRosterService(repos.Classrooms),
		EventLog:      NewEventLogService(repos.EventRepo),
		Sweeper:       &SweeperService{store: repos.Sessions, OnSweep: opts.SweepObserver},
	}
}
