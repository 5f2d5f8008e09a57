package services

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/clubroom/apiserver/internal/mq"
	"github.com/clubroom/apiserver/internal/storage"
	"github.com/clubroom/apiserver/internal/store/memstore"
	"github.com/clubroom/apiserver/types"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingPublisher struct {
	mu         sync.Mutex
	activities []mq.Activity
	err        error
}

func (p *recordingPublisher) PublishActivity(_ context.Context, a mq.Activity) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.activities = append(p.activities, a)
	return "msg", nil
}

func (p *recordingPublisher) kinds() []mq.ActivityKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	kinds := make([]mq.ActivityKind, 0, len(p.activities))
	for _, a := range p.activities {
		kinds = append(kinds, a.Kind)
	}
	return kinds
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}}
}

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memObjects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memObjects) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type fixture struct {
	db        *memstore.DB
	publisher *recordingPublisher
	users     *UserService
	access    *AccessService
	clubs     *ClubService
	posts     *PostService
	events    *EventService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memstore.New()
	publisher := &recordingPublisher{}
	access := NewAccessService(db.Memberships())
	users := NewUserService(db.Users())
	users.hashCost = bcrypt.MinCost
	return &fixture{
		db:        db,
		publisher: publisher,
		users:     users,
		access:    access,
		clubs:     NewClubService(db.Clubs(), db.Memberships(), publisher, nil),
		posts:     NewPostService(db.Posts(), access, publisher, nil),
		events:    NewEventService(db.Events(), publisher, nil),
	}
}

func (f *fixture) signup(t *testing.T, email, name string) types.User {
	t.Helper()
	user, err := f.users.Signup(context.Background(), Signup{Email: email, Name: name, Password: "Secret#123"})
	require.NoError(t, err)
	return user
}

func (f *fixture) club(t *testing.T, owner types.User) types.Club {
	t.Helper()
	club, err := f.clubs.Create(context.Background(), owner.ID, NewClub{Name: "Chess", Description: "Weekly games"})
	require.NoError(t, err)
	return club
}

func ptr[T any](v T) *T {
	return &v
}
