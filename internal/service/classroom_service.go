package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"classroom/internal/models"
	"classroom/internal/repository"

	"github.com/google/uuid"
)

const (
	generatedSlugLength   = 12
	generatedSlugAttempts = 3
)

type ClassroomService struct {
	classrooms repository.Classrooms
	audit      auditTrail
	newSlug    func() string
}

func NewClassroomService(classrooms repository.Classrooms, events repository.EventRepo) *ClassroomService {
	return &ClassroomService{classrooms: classrooms, audit: auditTrail{events: events}, newSlug: generateSlug}
}

// generateSlug returns a random lowercase hex join code.
func generateSlug() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:generatedSlugLength]
}

// Create stores a classroom owned by ownerID. A caller-supplied slug must be
// free; a generated one is retried on collision.
func (s *ClassroomService) Create(ctx context.Context, ownerID int, p ClassroomParams) (*models.Classroom, error) {
	c := models.Classroom{
		Name:      strings.TrimSpace(p.Name),
		Section:   strings.TrimSpace(p.Section),
		Subject:   strings.TrimSpace(p.Subject),
		Room:      strings.TrimSpace(p.Room),
		Slug:      strings.ToLower(strings.TrimSpace(p.Slug)),
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}

	generated := c.Slug == ""
	attempts := 1
	if generated {
		attempts = generatedSlugAttempts
	}

	var (
		id  int
		err error
	)
	for i := 0; i < attempts; i++ {
		if generated {
			c.Slug = s.newSlug()
		}
		id, err = s.classrooms.Create(ctx, c)
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			if generated {
				return nil, fmt.Errorf("generate unique slug: %w", err)
			}
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	c.ID = id

	s.audit.record(ctx, models.Event{
		OccurredAt:  c.CreatedAt,
		Type:        models.EventClassroomCreated,
		UserID:      ownerID,
		Description: "Classroom created",
		Metadata:    map[string]any{"classroom_id": c.ID, "slug": c.Slug},
	})
	return &c, nil
}

// Join adds userID to the classroom whose slug equals code. Joining twice, or
// joining one's own classroom, returns the classroom without a new membership.
func (s *ClassroomService) Join(ctx context.Context, userID int, code string) (*models.Classroom, error) {
	c, err := s.classrooms.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrClassroomNotFound
	}
	if c.OwnerID == userID {
		return c, nil
	}

	added, err := s.classrooms.AddMember(ctx, c.ID, userID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !added {
		return c, nil
	}

	s.audit.record(ctx, models.Event{
		Type:        models.EventClassroomJoined,
		UserID:      userID,
		Description: "Joined classroom",
		Metadata:    map[string]any{"classroom_id": c.ID, "slug": c.Slug},
	})
	return c, nil
}

func (s *ClassroomService) ListForUser(ctx context.Context, userID int) (ClassroomList, error) {
	owned, err := s.classrooms.ListOwned(ctx, userID)
	if err != nil {
		return ClassroomList{}, err
	}
	joined, err := s.classrooms.ListJoined(ctx, userID)
	if err != nil {
		return ClassroomList{}, err
	}
	return ClassroomList{Owned: owned, Joined: joined}, nil
}

// Get returns the classroom for its owner or members; anyone else gets
// ErrClassroomNotFound so existence is not disclosed.
func (s *ClassroomService) Get(ctx context.Context, userID int, slug string) (*ClassroomDetail, error) {
	c, err := s.participantClassroom(ctx, userID, slug)
	if err != nil {
		return nil, err
	}
	members, err := s.classrooms.ListMembers(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	isOwner := c.OwnerID == userID
	if !isOwner {
		for i := range members {
			members[i].Email = ""
		}
	}
	return &ClassroomDetail{Classroom: *c, IsOwner: isOwner, Members: members}, nil
}

func (s *ClassroomService) participantClassroom(ctx context.Context, userID int, slug string) (*models.Classroom, error) {
	c, err := s.classrooms.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrClassroomNotFound
	}
	if c.OwnerID == userID {
		return c, nil
	}
	ok, err := s.classrooms.IsMember(ctx, c.ID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrClassroomNotFound
	}
	return c, nil
}
