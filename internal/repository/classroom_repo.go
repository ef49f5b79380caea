package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"classroom/internal/models"
)

type ClassroomRepository struct {
	db *sql.DB
}

func NewClassroomRepository(db *sql.DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

var _ Classrooms = (*ClassroomRepository)(nil)

const (
	insertClassroomSQL = `INSERT INTO classrooms (name, section, subject, room, slug, owner_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`

	classroomColumns         = `c.id, c.name, c.section, c.subject, c.room, c.slug, c.owner_id, c.created_at`
	selectClassroomBySlugSQL = `SELECT ` + classroomColumns + ` FROM classrooms c WHERE c.slug = ?`
	selectOwnedSQL           = `SELECT ` + classroomColumns + ` FROM classrooms c WHERE c.owner_id = ? ORDER BY c.created_at DESC, c.id DESC`
	selectJoinedSQL          = `SELECT ` + classroomColumns + ` FROM classrooms c JOIN classroom_members m ON m.classroom_id = c.id WHERE m.user_id = ? ORDER BY m.joined_at DESC, c.id DESC`

	insertMemberSQL  = `INSERT INTO classroom_members (classroom_id, user_id, joined_at) VALUES (?, ?, ?) ON CONFLICT(classroom_id, user_id) DO NOTHING`
	selectIsMember   = `SELECT EXISTS(SELECT 1 FROM classroom_members WHERE classroom_id = ? AND user_id = ?)`
	selectMembersSQL = `SELECT u.id, u.name, u.email, m.joined_at FROM classroom_members m JOIN users u ON u.id = m.user_id WHERE m.classroom_id = ? ORDER BY m.joined_at ASC, u.id ASC`
)

// Create inserts a classroom and returns its ID. A taken slug yields ErrDuplicate.
func (r *ClassroomRepository) Create(ctx context.Context, c models.Classroom) (int, error) {
	res, err := r.db.ExecContext(ctx, insertClassroomSQL,
		c.Name, c.Section, c.Subject, c.Room, c.Slug, c.OwnerID, formatTime(nowIfZero(c.CreatedAt)))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert classroom %q: %w", c.Slug, ErrDuplicate)
		}
		return 0, fmt.Errorf("insert classroom %q: %w", c.Slug, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for classroom %q: %w", c.Slug, err)
	}
	return int(lastID), nil
}

// GetBySlug returns (nil, nil) if no classroom has the slug.
func (r *ClassroomRepository) GetBySlug(ctx context.Context, slug string) (*models.Classroom, error) {
	var c models.Classroom
	err := r.db.QueryRowContext(ctx, selectClassroomBySlugSQL, slug).
		Scan(&c.ID, &c.Name, &c.Section, &c.Subject, &c.Room, &c.Slug, &c.OwnerID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select classroom %q: %w", slug, err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func (r *ClassroomRepository) ListOwned(ctx context.Context, userID int) ([]models.Classroom, error) {
	out, err := r.list(ctx, selectOwnedSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list owned classrooms of user %d: %w", userID, err)
	}
	return out, nil
}

func (r *ClassroomRepository) ListJoined(ctx context.Context, userID int) ([]models.Classroom, error) {
	out, err := r.list(ctx, selectJoinedSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list joined classrooms of user %d: %w", userID, err)
	}
	return out, nil
}

func (r *ClassroomRepository) list(ctx context.Context, query string, args ...any) ([]models.Classroom, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Classroom, 0, 8)
	for rows.Next() {
		var c models.Classroom
		if err := rows.Scan(&c.ID, &c.Name, &c.Section, &c.Subject, &c.Room, &c.Slug, &c.OwnerID, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = c.CreatedAt.UTC()
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// AddMember inserts the membership and reports whether it is new.
func (r *ClassroomRepository) AddMember(ctx context.Context, classroomID, userID int, joinedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, insertMemberSQL, classroomID, userID, formatTime(nowIfZero(joinedAt)))
	if err != nil {
		return false, fmt.Errorf("insert member %d into classroom %d: %w", userID, classroomID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected for member %d: %w", userID, err)
	}
	return n == 1, nil
}

func (r *ClassroomRepository) IsMember(ctx context.Context, classroomID, userID int) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, selectIsMember, classroomID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("check member %d of classroom %d: %w", userID, classroomID, err)
	}
	return ok, nil
}

func (r *ClassroomRepository) ListMembers(ctx context.Context, classroomID int) ([]models.Member, error) {
	rows, err := r.db.QueryContext(ctx, selectMembersSQL, classroomID)
	if err != nil {
		return nil, fmt.Errorf("list members of classroom %d: %w", classroomID, err)
	}
	defer rows.Close()

	out := make([]models.Member, 0, 16)
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member of classroom %d: %w", classroomID, err)
		}
		m.JoinedAt = m.JoinedAt.UTC()
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members of classroom %d: %w", classroomID, err)
	}
	return out, nil
}
