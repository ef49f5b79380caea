package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"classroom/internal/models"
	"classroom/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL   = time.Hour
	minPasswordLength = 6

	// bcrypt rejects inputs longer than this.
	bcryptMaxBytes = 72
)

// AuthService handles registration, credential checks and API tokens.
type AuthService struct {
	users      repository.Users
	audit      auditTrail
	signingKey []byte
	tokenTTL   time.Duration
}

func NewAuthService(users repository.Users, events repository.EventRepo, signingKey string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthService{
		users:      users,
		audit:      auditTrail{events: events},
		signingKey: []byte(signingKey),
		tokenTTL:   tokenTTL,
	}
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register hashes the password and creates a new user.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (*models.User, error) {
	hash, err := hashPassword(p.Password)
	if err != nil {
		return nil, err
	}

	u := models.User{
		Name:         strings.TrimSpace(p.Name),
		Email:        NormalizeEmail(p.Email),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	id, err := s.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	u.ID = id

	s.audit.record(ctx, models.Event{
		OccurredAt:  u.CreatedAt,
		Type:        models.EventUserRegistered,
		UserID:      u.ID,
		Description: "User registered",
	})
	return &u, nil
}

// Authenticate checks email and password against the stored hash.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || verifyPassword(u.PasswordHash, password) != nil {
		var uid int
		if u != nil {
			uid = u.ID
		}
		s.audit.record(ctx, models.Event{
			Type:        models.EventLoginFailed,
			UserID:      uid,
			Description: "Failed login attempt",
			Metadata:    map[string]string{"email": email},
		})
		return nil, ErrInvalidCredentials
	}

	s.audit.record(ctx, models.Event{
		Type:        models.EventLogin,
		UserID:      u.ID,
		Description: "User logged in",
	})
	return u, nil
}

func (s *AuthService) UserByID(ctx context.Context, id int) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// GenerateToken validates credentials and returns JWT
func (s *AuthService) GenerateToken(ctx context.Context, email, password string) (string, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}
	return s.issueToken(u.ID)
}

// ParseToken parses JWT and returns userID
func (s *AuthService) ParseToken(accessToken string) (int, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return 0, ErrInvalidToken
	}

	return claims.UserID, nil
}

func (s *AuthService) issueToken(userID int) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
	})
	return token.SignedString(s.signingKey)
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword(bcryptInput(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password))
}

// bcryptInput passes short passwords through and reduces longer ones to
// their base64 SHA-256 digest, which fits bcrypt's input limit.
func bcryptInput(password string) []byte {
	if len(password) <= bcryptMaxBytes {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
