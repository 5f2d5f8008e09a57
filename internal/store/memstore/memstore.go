// Package memstore is an in-memory implementation of the store
// repositories. It reports the same sentinel errors as the Postgres
// repositories and is used to exercise services and handlers in tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/clubroom/apiserver/internal/store"
	"github.com/clubroom/apiserver/types"
)

type relation struct {
	clubID int
	userID int
}

// DB holds every table. The repository views share its lock.
type DB struct {
	mu      sync.Mutex
	now     func() time.Time
	seq     map[string]int
	users   map[int]types.User
	clubs   map[int]types.Club
	members map[relation]time.Time
	admins  map[relation]time.Time
	posts   map[int]types.Post
	events  map[int]types.Event
}

func New() *DB {
	return &DB{
		now:     time.Now,
		seq:     map[string]int{},
		users:   map[int]types.User{},
		clubs:   map[int]types.Club{},
		members: map[relation]time.Time{},
		admins:  map[relation]time.Time{},
		posts:   map[int]types.Post{},
		events:  map[int]types.Event{},
	}
}

func (db *DB) Users() *UserRepository             { return &UserRepository{db} }
func (db *DB) Clubs() *ClubRepository             { return &ClubRepository{db} }
func (db *DB) Memberships() *MembershipRepository { return &MembershipRepository{db} }
func (db *DB) Posts() *PostRepository             { return &PostRepository{db} }
func (db *DB) Events() *EventRepository           { return &EventRepository{db} }

func (db *DB) next(table string) int {
	db.seq[table]++
	return db.seq[table]
}

// tick returns strictly increasing timestamps so orderings are stable.
func (db *DB) tick() time.Time {
	return db.now().Add(time.Duration(db.next("clock")) * time.Microsecond)
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

type UserRepository struct{ db *DB }

func (r *UserRepository) List(_ context.Context, offset, limit int) ([]types.User, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	users := make([]types.User, 0, len(r.db.users))
	for _, u := range r.db.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return page(users, offset, limit), len(users), nil
}

func (r *UserRepository) GetByID(_ context.Context, id int) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *UserRepository) Create(_ context.Context, user types.User) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, user.Email) {
			return types.User{}, &store.ConstraintError{Constraint: "users_email_key", Err: store.ErrDuplicate}
		}
	}
	user.ID = r.db.next("users")
	user.CreatedAt = r.db.tick()
	user.UpdatedAt = user.CreatedAt
	r.db.users[user.ID] = user
	return user, nil
}

func (r *UserRepository) Update(_ context.Context, user types.User) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.users[user.ID]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	stored.Name = user.Name
	stored.Description = user.Description
	stored.UpdatedAt = r.db.tick()
	r.db.users[user.ID] = stored
	return stored, nil
}

type ClubRepository struct{ db *DB }

// joinedClub fills in the columns the Postgres queries join in.
func (db *DB) joinedClub(c types.Club) types.Club {
	c.OwnerName = db.users[c.OwnerID].Name
	c.MemberCount = 0
	for rel := range db.members {
		if rel.clubID == c.ID {
			c.MemberCount++
		}
	}
	c.PostCount = 0
	for _, p := range db.posts {
		if p.ClubID == c.ID {
			c.PostCount++
		}
	}
	return c
}

func (r *ClubRepository) List(_ context.Context, offset, limit int) ([]types.Club, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	clubs := make([]types.Club, 0, len(r.db.clubs))
	for _, c := range r.db.clubs {
		clubs = append(clubs, r.db.joinedClub(c))
	}
	sort.Slice(clubs, func(i, j int) bool { return clubs[i].ID < clubs[j].ID })
	return page(clubs, offset, limit), len(clubs), nil
}

func (r *ClubRepository) Get(_ context.Context, id int) (types.Club, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.clubs[id]
	if !ok {
		return types.Club{}, store.ErrNotFound
	}
	return r.db.joinedClub(c), nil
}

func (r *ClubRepository) CreateWithOwner(_ context.Context, club types.Club) (types.Club, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[club.OwnerID]; !ok {
		return types.Club{}, &store.ConstraintError{Constraint: "clubs_owner_id_fkey", Err: store.ErrInvalidReference}
	}
	club.ID = r.db.next("clubs")
	club.CreatedAt = r.db.tick()
	club.UpdatedAt = club.CreatedAt
	r.db.clubs[club.ID] = club
	r.db.linkOwner(club.ID, club.OwnerID)
	return r.db.joinedClub(club), nil
}

func (r *ClubRepository) Update(_ context.Context, club types.Club) (types.Club, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.clubs[club.ID]
	if !ok {
		return types.Club{}, store.ErrNotFound
	}
	if _, ok := r.db.users[club.OwnerID]; !ok {
		return types.Club{}, &store.ConstraintError{Constraint: "clubs_owner_id_fkey", Err: store.ErrInvalidReference}
	}
	stored.Name = club.Name
	stored.Description = club.Description
	stored.OwnerID = club.OwnerID
	stored.UpdatedAt = r.db.tick()
	r.db.clubs[club.ID] = stored
	r.db.linkOwner(club.ID, club.OwnerID)
	return r.db.joinedClub(stored), nil
}

func (r *ClubRepository) Delete(_ context.Context, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.clubs[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.db.clubs, id)
	for rel := range r.db.members {
		if rel.clubID == id {
			delete(r.db.members, rel)
		}
	}
	for rel := range r.db.admins {
		if rel.clubID == id {
			delete(r.db.admins, rel)
		}
	}
	for pid, p := range r.db.posts {
		if p.ClubID == id {
			delete(r.db.posts, pid)
		}
	}
	for eid, e := range r.db.events {
		if e.ClubID == id {
			delete(r.db.events, eid)
		}
	}
	return nil
}

func (r *ClubRepository) SetLogo(_ context.Context, id int, key, contentType *string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.clubs[id]
	if !ok {
		return store.ErrNotFound
	}
	c.LogoKey = key
	c.LogoContentType = contentType
	c.UpdatedAt = r.db.tick()
	r.db.clubs[id] = c
	return nil
}

func (db *DB) linkOwner(clubID, ownerID int) {
	rel := relation{clubID, ownerID}
	at := db.tick()
	if _, ok := db.members[rel]; !ok {
		db.members[rel] = at
	}
	if _, ok := db.admins[rel]; !ok {
		db.admins[rel] = at
	}
}

type MembershipRepository struct{ db *DB }

func (r *MembershipRepository) Roles(_ context.Context, clubID, userID int) (types.RoleSet, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var roles types.RoleSet
	rel := relation{clubID, userID}
	if _, ok := r.db.members[rel]; ok {
		roles = roles.With(types.RoleMember)
	}
	if _, ok := r.db.admins[rel]; ok {
		roles = roles.With(types.RoleAdmin)
	}
	if c, ok := r.db.clubs[clubID]; ok && c.OwnerID == userID {
		roles = roles.With(types.RoleOwner)
	}
	return roles, nil
}

func (db *DB) checkRelation(rel relation) error {
	if _, ok := db.clubs[rel.clubID]; !ok {
		return &store.ConstraintError{Constraint: "club_members_club_id_fkey", Err: store.ErrInvalidReference}
	}
	if _, ok := db.users[rel.userID]; !ok {
		return &store.ConstraintError{Constraint: "club_members_user_id_fkey", Err: store.ErrInvalidReference}
	}
	return nil
}

func (r *MembershipRepository) AddMember(_ context.Context, clubID, userID int) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	rel := relation{clubID, userID}
	if err := r.db.checkRelation(rel); err != nil {
		return false, err
	}
	if _, ok := r.db.members[rel]; ok {
		return false, nil
	}
	r.db.members[rel] = r.db.tick()
	return true, nil
}

func (r *MembershipRepository) RemoveMember(_ context.Context, clubID, userID int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	rel := relation{clubID, userID}
	if _, ok := r.db.members[rel]; !ok {
		return store.ErrNotFound
	}
	delete(r.db.members, rel)
	delete(r.db.admins, rel)
	return nil
}

func (r *MembershipRepository) AddAdmin(_ context.Context, clubID, userID int) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	rel := relation{clubID, userID}
	if err := r.db.checkRelation(rel); err != nil {
		return false, err
	}
	at := r.db.tick()
	if _, ok := r.db.members[rel]; !ok {
		r.db.members[rel] = at
	}
	if _, ok := r.db.admins[rel]; ok {
		return false, nil
	}
	r.db.admins[rel] = at
	return true, nil
}

func (r *MembershipRepository) RemoveAdmin(_ context.Context, clubID, userID int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	rel := relation{clubID, userID}
	if _, ok := r.db.admins[rel]; !ok {
		return store.ErrNotFound
	}
	delete(r.db.admins, rel)
	return nil
}

func (r *MembershipRepository) ListMembers(_ context.Context, clubID int) ([]types.ClubMember, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	return r.db.clubMembers(clubID, r.db.members), nil
}

func (r *MembershipRepository) ListAdmins(_ context.Context, clubID int) ([]types.ClubMember, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	return r.db.clubMembers(clubID, r.db.admins), nil
}

func (db *DB) clubMembers(clubID int, relations map[relation]time.Time) []types.ClubMember {
	out := []types.ClubMember{}
	club := db.clubs[clubID]
	for rel, at := range relations {
		if rel.clubID != clubID {
			continue
		}
		user := db.users[rel.userID]
		_, isAdmin := db.admins[rel]
		joined := at
		if memberAt, ok := db.members[rel]; ok {
			joined = memberAt
		}
		out = append(out, types.ClubMember{
			UserID:   rel.userID,
			Name:     user.Name,
			Email:    user.Email,
			IsAdmin:  isAdmin,
			IsOwner:  club.OwnerID == rel.userID,
			JoinedAt: joined,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return relations[relation{clubID, out[i].UserID}].Before(relations[relation{clubID, out[j].UserID}])
	})
	return out
}

type PostRepository struct{ db *DB }

func (db *DB) joinedPost(p types.Post) types.Post {
	p.AuthorName = db.users[p.AuthorID].Name
	p.ClubName = db.clubs[p.ClubID].Name
	return p
}

func (r *PostRepository) ListByClub(_ context.Context, clubID int) ([]types.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	posts := []types.Post{}
	for _, p := range r.db.posts {
		if p.ClubID == clubID {
			posts = append(posts, r.db.joinedPost(p))
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID > posts[j].ID })
	return posts, nil
}

func (r *PostRepository) Get(_ context.Context, clubID, id int) (types.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.posts[id]
	if !ok || p.ClubID != clubID {
		return types.Post{}, store.ErrNotFound
	}
	return r.db.joinedPost(p), nil
}

func (r *PostRepository) Create(_ context.Context, post types.Post) (types.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.clubs[post.ClubID]; !ok {
		return types.Post{}, &store.ConstraintError{Constraint: "posts_club_id_fkey", Err: store.ErrInvalidReference}
	}
	if _, ok := r.db.users[post.AuthorID]; !ok {
		return types.Post{}, &store.ConstraintError{Constraint: "posts_author_id_fkey", Err: store.ErrInvalidReference}
	}
	post.ID = r.db.next("posts")
	post.CreatedAt = r.db.tick()
	post.LastUpdated = post.CreatedAt
	r.db.posts[post.ID] = post
	return r.db.joinedPost(post), nil
}

func (r *PostRepository) Update(_ context.Context, post types.Post) (types.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.posts[post.ID]
	if !ok || stored.ClubID != post.ClubID {
		return types.Post{}, store.ErrNotFound
	}
	stored.Title = post.Title
	stored.Content = post.Content
	stored.LastUpdated = r.db.tick()
	r.db.posts[post.ID] = stored
	return r.db.joinedPost(stored), nil
}

func (r *PostRepository) Delete(_ context.Context, clubID, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.posts[id]
	if !ok || p.ClubID != clubID {
		return store.ErrNotFound
	}
	delete(r.db.posts, id)
	return nil
}

type EventRepository struct{ db *DB }

func (r *EventRepository) ListByClub(_ context.Context, clubID int, filter types.EventFilter) ([]types.Event, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := filter.Now
	if now.IsZero() {
		now = time.Now()
	}
	events := []types.Event{}
	for _, e := range r.db.events {
		if e.ClubID != clubID {
			continue
		}
		if filter.Finished != nil && types.FinishedAt(e.Date, now) != *filter.Finished {
			continue
		}
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if filter.Order == types.SortAsc {
			a, b = b, a
		}
		if a.Date.Equal(b.Date) {
			return a.ID > b.ID
		}
		return a.Date.After(b.Date)
	})
	return events, nil
}

func (r *EventRepository) Get(_ context.Context, clubID, id int) (types.Event, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	e, ok := r.db.events[id]
	if !ok || e.ClubID != clubID {
		return types.Event{}, store.ErrNotFound
	}
	return e, nil
}

func (r *EventRepository) Create(_ context.Context, event types.Event) (types.Event, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.clubs[event.ClubID]; !ok {
		return types.Event{}, &store.ConstraintError{Constraint: "events_club_id_fkey", Err: store.ErrInvalidReference}
	}
	event.ID = r.db.next("events")
	event.CreatedAt = r.db.tick()
	event.UpdatedAt = event.CreatedAt
	r.db.events[event.ID] = event
	return event, nil
}

func (r *EventRepository) Update(_ context.Context, event types.Event) (types.Event, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.events[event.ID]
	if !ok || stored.ClubID != event.ClubID {
		return types.Event{}, store.ErrNotFound
	}
	event.CreatedAt = stored.CreatedAt
	event.UpdatedAt = r.db.tick()
	r.db.events[event.ID] = event
	return event, nil
}

func (r *EventRepository) Delete(_ context.Context, clubID, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	e, ok := r.db.events[id]
	if !ok || e.ClubID != clubID {
		return store.ErrNotFound
	}
	delete(r.db.events, id)
	return nil
}
