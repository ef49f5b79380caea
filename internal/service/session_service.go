package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"classroom/internal/models"
	"classroom/internal/repository"
)

const (
	defaultSessionLifetime = 2 * time.Hour
	sessionIDBytes         = 32
)

type SessionService struct {
	store    repository.SessionStore
	audit    auditTrail
	lifetime time.Duration
	now      func() time.Time
}

func NewSessionService(store repository.SessionStore, events repository.EventRepo, lifetime time.Duration) *SessionService {
	if lifetime <= 0 {
		lifetime = defaultSessionLifetime
	}
	return &SessionService{store: store, audit: auditTrail{events: events}, lifetime: lifetime, now: time.Now}
}

// Start creates a new session for the user.
func (s *SessionService) Start(ctx context.Context, userID int) (*models.Session, error) {
	id, err := generateSecureToken(sessionIDBytes)
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	now := s.now().UTC().Truncate(time.Second)
	sess := models.Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.lifetime),
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Resolve returns the live session or ErrSessionNotFound. Expired sessions are removed.
func (s *SessionService) Resolve(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	if sess.Expired(s.now()) {
		_ = s.store.Delete(ctx, id)
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// End destroys the session and records a logout for its user.
// Unknown ids are removed silently.
func (s *SessionService) End(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if sess == nil {
		return nil
	}
	s.audit.record(ctx, models.Event{
		Type:        models.EventLogout,
		UserID:      sess.UserID,
		Description: "User logged out",
	})
	return nil
}

func generateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
