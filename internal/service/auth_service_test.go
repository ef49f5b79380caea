package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"classroom/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const testSigningKey = "test-signing-key"

func newTestAuth() (*AuthService, *fakeUsers, *fakeEventRepo) {
	users := newFakeUsers()
	events := &fakeEventRepo{}
	return NewAuthService(users, events, testSigningKey, time.Hour), users, events
}

// --- Register tests ---

func TestAuthService_Register_HashesPasswordAndNormalizesEmail(t *testing.T) {
	svc, users, events := newTestAuth()

	u, err := svc.Register(context.Background(), RegisterParams{
		Name: " saif ", Email: "Saif@Gmail.com ", Password: "123456",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if u.ID != 1 || u.Name != "saif" || u.Email != "saif@gmail.com" {
		t.Fatalf("unexpected user: %+v", u)
	}

	stored := users.byEmail["saif@gmail.com"]
	if stored == nil {
		t.Fatalf("user was not stored under normalized email")
	}
	if stored.PasswordHash == "123456" {
		t.Errorf("expected hashed password not equal to raw password")
	}
	if err := verifyPassword(stored.PasswordHash, "123456"); err != nil {
		t.Errorf("stored hash does not verify with the plain password: %v", err)
	}
	if !containsType(events.types(), models.EventUserRegistered) {
		t.Errorf("expected USER_REGISTERED event, got %v", events.types())
	}
}

func TestAuthService_Register_PasswordBoundary(t *testing.T) {
	svc, users, _ := newTestAuth()

	if _, err := svc.Register(context.Background(), RegisterParams{Name: "a", Email: "a@example.com", Password: "12345"}); err == nil {
		t.Fatalf("expected error for 5-character password")
	}
	if len(users.byEmail) != 0 {
		t.Fatalf("no user should be created for a short password")
	}
	if _, err := svc.Register(context.Background(), RegisterParams{Name: "a", Email: "a@example.com", Password: "123456"}); err != nil {
		t.Fatalf("6-character password should be accepted: %v", err)
	}
}

func TestAuthService_Register_LongPassword(t *testing.T) {
	svc, _, _ := newTestAuth()
	ctx := context.Background()

	for _, n := range []int{72, 73, 200} {
		email := fmt.Sprintf("long%d@example.com", n)
		password := strings.Repeat("a", n)
		if _, err := svc.Register(ctx, RegisterParams{Name: "long", Email: email, Password: password}); err != nil {
			t.Fatalf("%d-byte password: %v", n, err)
		}
		if _, err := svc.Authenticate(ctx, email, password); err != nil {
			t.Fatalf("%d-byte password does not authenticate: %v", n, err)
		}
	}

	// passwords sharing a 72-byte prefix stay distinct
	if _, err := svc.Authenticate(ctx, "long73@example.com", strings.Repeat("a", 72)+"b"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Register_AuditFailureKeepsUser(t *testing.T) {
	svc, users, events := newTestAuth()
	events.appendErr = errors.New("audit down")
	var failed []string
	svc.audit.onFail = func(e models.Event, err error) { failed = append(failed, e.Type) }

	u, err := svc.Register(context.Background(), RegisterParams{Name: "a", Email: "a@example.com", Password: "123456"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.ID == 0 || users.byEmail["a@example.com"] == nil {
		t.Fatalf("user not stored: %+v", u)
	}
	if _, err := svc.Authenticate(context.Background(), "a@example.com", "123456"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if len(failed) != 2 || failed[0] != models.EventUserRegistered || failed[1] != models.EventLogin {
		t.Fatalf("observed failures=%v", failed)
	}
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	svc, _, _ := newTestAuth()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterParams{Name: "a", Email: "saif@gmail.com", Password: "123456"}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, err := svc.Register(ctx, RegisterParams{Name: "b", Email: "SAIF@gmail.com", Password: "654321"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_Register_RepoError(t *testing.T) {
	svc, users, _ := newTestAuth()
	users.createErr = errors.New("db down")

	if _, err := svc.Register(context.Background(), RegisterParams{Name: "c", Email: "c@example.com", Password: "pass123"}); err == nil {
		t.Fatalf("expected repo error, got nil")
	}
}

// --- Authenticate tests ---

func seedUser(t *testing.T, users *fakeUsers, email, password string) *models.User {
	t.Helper()
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	id, _ := users.Create(context.Background(), models.User{Name: "seed", Email: email, PasswordHash: hash})
	return &models.User{ID: id, Email: email, PasswordHash: hash}
}

func TestAuthService_Authenticate_Success(t *testing.T) {
	svc, users, events := newTestAuth()
	want := seedUser(t, users, "member@example.com", "correct-horse-battery")

	u, err := svc.Authenticate(context.Background(), " Laravel@Example.com", "correct-horse-battery")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if u.ID != want.ID {
		t.Fatalf("authenticated as %d, want %d", u.ID, want.ID)
	}
	if !containsType(events.types(), models.EventLogin) {
		t.Fatalf("expected LOGIN event, got %v", events.types())
	}
}

func TestAuthService_Authenticate_Failures(t *testing.T) {
	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "member@example.com", "invalid-password"},
		{"unknown email", "ghost@example.com", "correct-horse-battery"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, users, events := newTestAuth()
			seedUser(t, users, "member@example.com", "correct-horse-battery")

			_, err := svc.Authenticate(context.Background(), tc.email, tc.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
			if !containsType(events.types(), models.EventLoginFailed) {
				t.Fatalf("expected LOGIN_FAILED event, got %v", events.types())
			}
		})
	}
}

func TestAuthService_Authenticate_FailedAuditDoesNotMaskAnswer(t *testing.T) {
	svc, users, events := newTestAuth()
	seedUser(t, users, "a@example.com", "secret1")
	events.appendErr = errors.New("audit down")

	_, err := svc.Authenticate(context.Background(), "a@example.com", "wrong-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Authenticate_RepoError(t *testing.T) {
	svc, users, _ := newTestAuth()
	users.getErr = errors.New("query failed")

	_, err := svc.Authenticate(context.Background(), "john@example.com", "pw")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected repo error, got %v", err)
	}
}

func TestAuthService_UserByID(t *testing.T) {
	svc, users, _ := newTestAuth()
	seeded := seedUser(t, users, "a@example.com", "secret1")

	u, err := svc.UserByID(context.Background(), seeded.ID)
	if err != nil || u.Email != "a@example.com" {
		t.Fatalf("UserByID: %+v, %v", u, err)
	}
	if _, err := svc.UserByID(context.Background(), 999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

// --- Token tests ---

func TestAuthService_GenerateToken_RoundTrip(t *testing.T) {
	svc, users, _ := newTestAuth()
	seeded := seedUser(t, users, "diana@example.com", "letmein")

	token, err := svc.GenerateToken(context.Background(), "diana@example.com", "letmein")
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	uid, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if uid != seeded.ID {
		t.Fatalf("expected user id %d from token, got %d", seeded.ID, uid)
	}
}

func TestAuthService_GenerateToken_InvalidPassword(t *testing.T) {
	svc, users, _ := newTestAuth()
	seedUser(t, users, "eve@example.com", "correct")

	_, err := svc.GenerateToken(context.Background(), "eve@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got: %v", err)
	}
}

func TestAuthService_ParseToken_Malformed(t *testing.T) {
	svc, _, _ := newTestAuth()
	if _, err := svc.ParseToken("not-a-jwt"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}

func signedClaims(t *testing.T, method jwt.SigningMethod, key any, expires time.Time, userID int) string {
	t.Helper()
	tk := jwt.NewWithClaims(method, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(expires.Add(-time.Hour)),
		},
		UserID: userID,
	})
	s, err := tk.SignedString(key)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	return s
}

func TestAuthService_ParseToken_InvalidSignature(t *testing.T) {
	svc, _, _ := newTestAuth()
	bad := signedClaims(t, jwt.SigningMethodHS256, []byte("different-key"), time.Now().Add(time.Hour), 5)
	if _, err := svc.ParseToken(bad); err == nil {
		t.Fatalf("expected signature verification error")
	}
}

func TestAuthService_ParseToken_Expired(t *testing.T) {
	svc, _, _ := newTestAuth()
	expired := signedClaims(t, jwt.SigningMethodHS256, []byte(testSigningKey), time.Now().Add(-2*time.Hour), 11)
	if _, err := svc.ParseToken(expired); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestAuthService_ParseToken_MissingUserID(t *testing.T) {
	svc, _, _ := newTestAuth()
	anon := signedClaims(t, jwt.SigningMethodHS256, []byte(testSigningKey), time.Now().Add(time.Hour), 0)
	if _, err := svc.ParseToken(anon); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthService_ParseToken_UnexpectedAlg(t *testing.T) {
	svc, _, _ := newTestAuth()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}
	tokenStr := signedClaims(t, jwt.SigningMethodRS256, privateKey, time.Now().Add(time.Hour), 12)

	if _, err := svc.ParseToken(tokenStr); err == nil {
		t.Fatalf("expected error due to unexpected signing method")
	}
}
