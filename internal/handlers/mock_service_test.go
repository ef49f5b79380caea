package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"classroom/internal/models"
	"classroom/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	registerUser *models.User
	registerErr  error
	authUser     *models.User
	authErr      error
	genToken     string
	genTokenErr  error
	parseID      int
	parseErr     error
	users        map[int]*models.User

	lastRegister   service.RegisterParams
	lastAuthEmail  string
	lastAuthPass   string
	lastParseToken string
	registerCalls  int
	authCalls      int
}

func (m *mockAuth) Register(ctx context.Context, p service.RegisterParams) (*models.User, error) {
	m.registerCalls++
	m.lastRegister = p
	return m.registerUser, m.registerErr
}

func (m *mockAuth) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	m.authCalls++
	m.lastAuthEmail = email
	m.lastAuthPass = password
	return m.authUser, m.authErr
}

func (m *mockAuth) GenerateToken(ctx context.Context, email, password string) (string, error) {
	m.lastAuthEmail = email
	m.lastAuthPass = password
	return m.genToken, m.genTokenErr
}

func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

func (m *mockAuth) UserByID(ctx context.Context, id int) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, service.ErrUserNotFound
}

// mockSessions keeps sessions in memory; ids are "sess-<n>".
type mockSessions struct {
	mu       sync.Mutex
	sessions map[string]models.Session
	next     int
	startErr error
	ended    []string
}

func newMockSessions() *mockSessions {
	return &mockSessions{sessions: map[string]models.Session{}}
}

func (m *mockSessions) Start(ctx context.Context, userID int) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return nil, m.startErr
	}
	m.next++
	now := time.Now().UTC()
	s := models.Session{ID: "sess-" + strconv.Itoa(m.next), UserID: userID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	m.sessions[s.ID] = s
	return &s, nil
}

func (m *mockSessions) Resolve(ctx context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, service.ErrSessionNotFound
	}
	return &s, nil
}

func (m *mockSessions) End(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ended = append(m.ended, id)
	delete(m.sessions, id)
	return nil
}

// login registers a live session for userID and returns its cookie.
func (m *mockSessions) login(userID int) *http.Cookie {
	s, _ := m.Start(context.Background(), userID)
	return &http.Cookie{Name: sessionCookieName, Value: s.ID}
}

type mockClassrooms struct {
	mu        sync.Mutex
	created   *models.Classroom
	createErr error
	joined    *models.Classroom
	joinErr   error
	list      service.ClassroomList
	listErr   error
	detail    *service.ClassroomDetail
	getErr    error

	lastOwner  int
	lastParams service.ClassroomParams
	lastUser   int
	lastCode   string
	lastSlug   string
}

func (m *mockClassrooms) Create(ctx context.Context, ownerID int, p service.ClassroomParams) (*models.Classroom, error) {
	m.lastOwner = ownerID
	m.lastParams = p
	return m.created, m.createErr
}

func (m *mockClassrooms) Join(ctx context.Context, userID int, code string) (*models.Classroom, error) {
	m.lastUser = userID
	m.lastCode = code
	return m.joined, m.joinErr
}

func (m *mockClassrooms) ListForUser(ctx context.Context, userID int) (service.ClassroomList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUser = userID
	return m.list, m.listErr
}

func (m *mockClassrooms) setList(l service.ClassroomList) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list = l
}

func (m *mockClassrooms) Get(ctx context.Context, userID int, slug string) (*service.ClassroomDetail, error) {
	m.lastUser = userID
	m.lastSlug = slug
	return m.detail, m.getErr
}

type mockRoster struct {
	body []byte
	err  error
}

func (m *mockRoster) ExportRoster(ctx context.Context, userID int, slug string, w io.Writer) error {
	if m.err != nil {
		return m.err
	}
	_, err := w.Write(m.body)
	return err
}

type mockEventLog struct {
	resp []models.Event
	err  error
	last service.LogFilter
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.Event, error) {
	m.last = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	return newTestRouterWithOptions(s, Options{})
}

func newTestRouterWithOptions(s *service.Service, opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil, opts)
	return h.InitRoutes()
}

// newWebService returns a service whose sessions resolve to user 1 ("saif").
func newWebService() (*service.Service, *mockAuth, *mockSessions, *mockClassrooms) {
	auth := &mockAuth{users: map[int]*models.User{
		1: {ID: 1, Name: "saif", Email: "saif@gmail.com"},
	}}
	sessions := newMockSessions()
	classrooms := &mockClassrooms{}
	return &service.Service{
		Authorization: auth,
		Sessions:      sessions,
		Classrooms:    classrooms,
		Roster:        &mockRoster{},
		EventLog:      &mockEventLog{},
	}, auth, sessions, classrooms
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func doRequest(r http.Handler, req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postForm(r http.Handler, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return doRequest(r, newFormPost(path, form), cookies...)
}

func postJSON(r http.Handler, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return doRequest(r, req, cookies...)
}

func get(r http.Handler, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return doRequest(r, httptest.NewRequest(http.MethodGet, path, nil), cookies...)
}

func newJSONGet(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "application/json")
	return req
}

func newFormPost(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// readFlash decodes the flash cookie set on w.
func readFlash(t *testing.T, w *httptest.ResponseRecorder) flash {
	t.Helper()
	c := findCookie(w, flashCookieName)
	if c == nil {
		t.Fatalf("no flash cookie set; headers=%v", w.Header())
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		t.Fatalf("decode flash: %v", err)
	}
	var f flash
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatalf("unmarshal flash: %v", err)
	}
	return f
}

type validationBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func decodeValidation(t *testing.T, w *httptest.ResponseRecorder) validationBody {
	t.Helper()
	var out validationBody
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal body %q: %v", w.Body.String(), err)
	}
	return out
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	if w.Code != http.StatusFound {
		t.Fatalf("status=%d, want 302; body=%s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != want {
		t.Fatalf("Location=%q, want %q", loc, want)
	}
}
