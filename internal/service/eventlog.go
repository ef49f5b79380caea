package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"classroom/internal/models"
	"classroom/internal/repository"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

var (
	ErrInvalidTimeRange = errors.New("'from' must be <= 'to'")
	ErrUnknownEventType = errors.New("unknown event type")
)

type EventLogService struct {
	events repository.EventRepo
}

func NewEventLogService(events repository.EventRepo) *EventLogService {
	return &EventLogService{events: events}
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// query validates f and turns it into a repository query with a bounded page size.
func (f LogFilter) query() (repository.EventQuery, error) {
	q := repository.EventQuery{
		UserID: f.UserID,
		From:   utc(f.From),
		To:     utc(f.To),
		Type:   strings.ToUpper(strings.TrimSpace(f.Type)),
		Limit:  f.Limit,
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To) {
		return repository.EventQuery{}, ErrInvalidTimeRange
	}
	if q.Type != "" && !models.IsEventType(q.Type) {
		return repository.EventQuery{}, ErrUnknownEventType
	}
	switch {
	case q.Limit <= 0:
		q.Limit = defaultLogLimit
	case q.Limit > maxLogLimit:
		q.Limit = maxLogLimit
	}
	return q, nil
}

// List returns the newest events matching f.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.Event, error) {
	q, err := f.query()
	if err != nil {
		return nil, err
	}
	return s.events.List(ctx, q)
}
