package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"classroom/internal/models"
	"classroom/internal/repository"
)

// fakeUsers is an in-memory repository.Users keyed by email.
type fakeUsers struct {
	byEmail   map[string]*models.User
	nextID    int
	createErr error
	getErr    error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]*models.User{}, nextID: 1}
}

func (f *fakeUsers) Create(ctx context.Context, u models.User) (int, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return 0, repository.ErrDuplicate
	}
	u.ID = f.nextID
	f.nextID++
	f.byEmail[u.Email] = &u
	return u.ID, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id int) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// fakeEventRepo records appends and captures List arguments.
type fakeEventRepo struct {
	mu        sync.Mutex
	appended  []models.Event
	appendErr error

	events []models.Event
	err    error
	calls  int
	got    repository.EventQuery
}

func (f *fakeEventRepo) Append(ctx context.Context, e models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, e)
	return f.appendErr
}

func (f *fakeEventRepo) List(ctx context.Context, q repository.EventQuery) ([]models.Event, error) {
	f.calls++
	f.got = q
	return f.events, f.err
}

func (f *fakeEventRepo) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.appended))
	for _, e := range f.appended {
		out = append(out, e.Type)
	}
	return out
}

// fakeClassrooms is an in-memory repository.Classrooms.
type fakeClassrooms struct {
	bySlug    map[string]*models.Classroom
	members   map[int]map[int]time.Time
	users     map[int]models.User
	nextID    int
	createErr []error // consumed one per Create call before storing
	getErr    error
}

func newFakeClassrooms() *fakeClassrooms {
	return &fakeClassrooms{
		bySlug:  map[string]*models.Classroom{},
		members: map[int]map[int]time.Time{},
		users:   map[int]models.User{},
		nextID:  1,
	}
}

func (f *fakeClassrooms) Create(ctx context.Context, c models.Classroom) (int, error) {
	if len(f.createErr) > 0 {
		err := f.createErr[0]
		f.createErr = f.createErr[1:]
		if err != nil {
			return 0, err
		}
	}
	if _, ok := f.bySlug[c.Slug]; ok {
		return 0, repository.ErrDuplicate
	}
	c.ID = f.nextID
	f.nextID++
	f.bySlug[c.Slug] = &c
	return c.ID, nil
}

func (f *fakeClassrooms) GetBySlug(ctx context.Context, slug string) (*models.Classroom, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	c, ok := f.bySlug[slug]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeClassrooms) ListOwned(ctx context.Context, userID int) ([]models.Classroom, error) {
	out := []models.Classroom{}
	for _, c := range f.bySlug {
		if c.OwnerID == userID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeClassrooms) ListJoined(ctx context.Context, userID int) ([]models.Classroom, error) {
	out := []models.Classroom{}
	for _, c := range f.bySlug {
		if _, ok := f.members[c.ID][userID]; ok {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeClassrooms) AddMember(ctx context.Context, classroomID, userID int, joinedAt time.Time) (bool, error) {
	if f.members[classroomID] == nil {
		f.members[classroomID] = map[int]time.Time{}
	}
	if _, ok := f.members[classroomID][userID]; ok {
		return false, nil
	}
	f.members[classroomID][userID] = joinedAt
	return true, nil
}

func (f *fakeClassrooms) IsMember(ctx context.Context, classroomID, userID int) (bool, error) {
	_, ok := f.members[classroomID][userID]
	return ok, nil
}

func (f *fakeClassrooms) ListMembers(ctx context.Context, classroomID int) ([]models.Member, error) {
	out := []models.Member{}
	for uid, at := range f.members[classroomID] {
		u := f.users[uid]
		out = append(out, models.Member{UserID: uid, Name: u.Name, Email: u.Email, JoinedAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// fakeSessionStore is an in-memory repository.SessionStore.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
	deleted  []string
	sweeps   []time.Time
	sweepN   int64
	err      error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]models.Session{}}
}

func (f *fakeSessionStore) Create(ctx context.Context, s models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeSessionStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweeps = append(f.sweeps, now)
	return f.sweepN, f.err
}

func (f *fakeSessionStore) sweepCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sweeps)
}

func containsType(types []string, want string) bool {
	for _, t := range types {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}
