package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophplaces/internal/common"
	"github.com/dmitrijs2005/gophplaces/internal/dbx"
	"github.com/dmitrijs2005/gophplaces/internal/server/models"
	placesrepo "github.com/dmitrijs2005/gophplaces/internal/server/repositories/places"
	usersrepo "github.com/dmitrijs2005/gophplaces/internal/server/repositories/users"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("sql expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

// repoCall records one repository call and the handle it ran on.
type repoCall struct {
	op string
	db dbx.DBTX
}

// memStore is an in-memory stand-in for the users, places and user_places
// tables. Errors can be injected per operation name.
type memStore struct {
	mu         sync.Mutex
	users      map[string]*models.User
	places     map[string]*models.Place
	userPlaces map[string]map[string]bool
	nextID     int

	failOn map[string]error
	calls  []repoCall
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[string]*models.User{},
		places:     map[string]*models.Place{},
		userPlaces: map[string]map[string]bool{},
		failOn:     map[string]error{},
	}
}

func (s *memStore) record(op string, db dbx.DBTX) error {
	s.calls = append(s.calls, repoCall{op: op, db: db})
	return s.failOn[op]
}

func (s *memStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s%d", prefix, s.nextID)
}

func (s *memStore) callsTo(op string) []repoCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repoCall
	for _, c := range s.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func (s *memStore) addUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

func (s *memStore) addPlace(p *models.Place) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.places[p.ID] = &cp
	if s.userPlaces[p.OwnerID] == nil {
		s.userPlaces[p.OwnerID] = map[string]bool{}
	}
	s.userPlaces[p.OwnerID][p.ID] = true
}

func (s *memStore) placeIDs(userID string) []string {
	ids := []string{}
	for id := range s.userPlaces[userID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type memUsers struct {
	s  *memStore
	db dbx.DBTX
}

func (r *memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("users.Create", r.db); err != nil {
		return nil, err
	}
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	if u.ID == "" {
		u.ID = r.s.id("u")
	}
	u.CreatedAt = time.Now()
	u.PlaceIDs = []string{}
	cp := *u
	r.s.users[u.ID] = &cp
	return u, nil
}

func (r *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("users.GetByID", r.db); err != nil {
		return nil, err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	cp.PlaceIDs = r.s.placeIDs(id)
	return &cp, nil
}

func (r *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("users.GetByEmail", r.db); err != nil {
		return nil, err
	}
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) List(ctx context.Context) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("users.List", r.db); err != nil {
		return nil, err
	}
	out := []*models.User{}
	for _, u := range r.s.users {
		cp := *u
		cp.PlaceIDs = r.s.placeIDs(u.ID)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memUsers) AddPlace(ctx context.Context, userID, placeID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("users.AddPlace", r.db); err != nil {
		return err
	}
	if _, ok := r.s.users[userID]; !ok {
		return common.ErrorNotFound
	}
	if r.s.userPlaces[userID] == nil {
		r.s.userPlaces[userID] = map[string]bool{}
	}
	r.s.userPlaces[userID][placeID] = true
	return nil
}

func (r *memUsers) RemovePlace(ctx context.Context, userID, placeID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("users.RemovePlace", r.db); err != nil {
		return err
	}
	if !r.s.userPlaces[userID][placeID] {
		return common.ErrorNotFound
	}
	delete(r.s.userPlaces[userID], placeID)
	return nil
}

func (r *memUsers) PlaceIDs(ctx context.Context, userID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("users.PlaceIDs", r.db); err != nil {
		return nil, err
	}
	return r.s.placeIDs(userID), nil
}

type memPlaces struct {
	s  *memStore
	db dbx.DBTX
}

func (r *memPlaces) Create(ctx context.Context, p *models.Place) (*models.Place, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("places.Create", r.db); err != nil {
		return nil, err
	}
	if _, ok := r.s.users[p.OwnerID]; !ok {
		return nil, common.ErrorNotFound
	}
	if p.ID == "" {
		p.ID = r.s.id("p")
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.s.places[p.ID] = &cp
	return p, nil
}

func (r *memPlaces) GetByID(ctx context.Context, id string) (*models.Place, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("places.GetByID", r.db); err != nil {
		return nil, err
	}
	p, ok := r.s.places[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memPlaces) ListByOwner(ctx context.Context, ownerID string) ([]*models.Place, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("places.ListByOwner", r.db); err != nil {
		return nil, err
	}
	out := []*models.Place{}
	for _, p := range r.s.places {
		if p.OwnerID == ownerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memPlaces) Update(ctx context.Context, p *models.Place) (*models.Place, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("places.Update", r.db); err != nil {
		return nil, err
	}
	existing, ok := r.s.places[p.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	existing.Title = p.Title
	existing.Description = p.Description
	existing.Image = p.Image
	existing.UpdatedAt = time.Now()
	cp := *existing
	return &cp, nil
}

func (r *memPlaces) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("places.Delete", r.db); err != nil {
		return err
	}
	if _, ok := r.s.places[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.places, id)
	return nil
}

type fakeRepoManager struct {
	s *memStore
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return &memUsers{s: m.s, db: db} }
func (m *fakeRepoManager) Places(db dbx.DBTX) placesrepo.Repository     { return &memPlaces{s: m.s, db: db} }

type fakeGeocoder struct {
	loc   *models.Location
	err   error
	calls int
}

func (g *fakeGeocoder) Resolve(ctx context.Context, title, address string) (*models.Location, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	cp := *g.loc
	return &cp, nil
}

type fakeStorage struct {
	mu        sync.Mutex
	uploadErr error
	deleteErr error

	uploads []string // folders
	deleted []string // keys
	n       int
}

func (f *fakeStorage) Upload(ctx context.Context, data []byte, contentType, folder string) (*models.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, folder)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.n++
	key := fmt.Sprintf("%s/obj-%d", folder, f.n)
	return &models.Image{Key: key, URL: "http://storage/" + key}, nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return f.deleteErr
}

type fakeIssuer struct {
	err error
}

func (f *fakeIssuer) Issue(userID, email string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-" + userID, nil
}
