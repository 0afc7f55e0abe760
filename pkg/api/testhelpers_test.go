package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/truckwise/fleet-server/pkg/auth"
	"github.com/truckwise/fleet-server/pkg/fleet"
	"github.com/truckwise/fleet-server/pkg/identitycache"
	"github.com/truckwise/fleet-server/pkg/observability"
	"github.com/truckwise/fleet-server/pkg/settings"
	"github.com/truckwise/fleet-server/pkg/users"
)

var testSigningKey = []byte("test-signing-secret")

// fakeUserStore is an in-memory users.Store
type fakeUserStore struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*users.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{nextID: 1, byID: make(map[int64]*users.User)}
}

func (s *fakeUserStore) seed(u users.User) users.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.nextID
	s.nextID++
	u.Active = true
	stored := u
	s.byID[u.ID] = &stored
	return u
}

func (s *fakeUserStore) GetIdentity(ctx context.Context, id int64) (auth.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return auth.Identity{}, users.ErrNotFound
	}
	return u.Identity(), nil
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, users.ErrNotFound
}

func (s *fakeUserStore) Create(ctx context.Context, u *users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Email == u.Email {
			return users.ErrDuplicateEmail
		}
	}
	u.ID = s.nextID
	s.nextID++
	u.Active = true
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	stored := *u
	s.byID[u.ID] = &stored
	return nil
}

func (s *fakeUserStore) List(ctx context.Context, companyID *int64) ([]users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []users.User
	for _, u := range s.byID {
		if companyID != nil && (u.CompanyID == nil || *u.CompanyID != *companyID) {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (s *fakeUserStore) Update(ctx context.Context, id int64, params users.UpdateParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return users.ErrNotFound
	}
	if params.FirstName != nil {
		u.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		u.LastName = *params.LastName
	}
	if params.Role != nil {
		u.Role = *params.Role
		if params.Role.Normalize() == auth.RoleSuperAdmin {
			u.CompanyID = nil
		}
	}
	if params.CompanyID != nil {
		u.CompanyID = params.CompanyID
	}
	if params.Active != nil {
		u.Active = *params.Active
	}
	return nil
}

func (s *fakeUserStore) Deactivate(ctx context.Context, id int64) error {
	active := false
	return s.Update(ctx, id, users.UpdateParams{Active: &active})
}

func (s *fakeUserStore) TouchLastLogin(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		now := time.Now()
		u.LastLogin = &now
	}
	return nil
}

// fakeFleetStore is an in-memory fleet.Store
type fakeFleetStore struct {
	companies []fleet.Company
	trucks    []fleet.Truck
	drivers   []fleet.Driver
}

func (s *fakeFleetStore) ListCompanies(ctx context.Context) ([]fleet.Company, error) {
	return s.companies, nil
}

func (s *fakeFleetStore) ListTrucks(ctx context.Context, companyID *int64) ([]fleet.Truck, error) {
	if companyID == nil {
		return s.trucks, nil
	}
	var out []fleet.Truck
	for _, t := range s.trucks {
		if t.CompanyID == *companyID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeFleetStore) ListDrivers(ctx context.Context, companyID *int64) ([]fleet.Driver, error) {
	if companyID == nil {
		return s.drivers, nil
	}
	var out []fleet.Driver
	for _, d := range s.drivers {
		if d.CompanyID == *companyID {
			out = append(out, d)
		}
	}
	return out, nil
}

// memSettingsStore is an in-memory settings.Store
type memSettingsStore struct {
	mu   sync.Mutex
	rows []settings.Setting
}

func (m *memSettingsStore) ListByCompany(ctx context.Context, companyID int64) ([]settings.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []settings.Setting
	for _, row := range m.rows {
		if row.CompanyID == companyID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memSettingsStore) Upsert(ctx context.Context, s settings.Setting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.rows {
		if row.CompanyID == s.CompanyID && row.Category == s.Category && row.Key == s.Key {
			m.rows[i] = s
			return nil
		}
	}
	m.rows = append(m.rows, s)
	return nil
}

// fixture bundles a fully wired server with direct access to its fakes
type fixture struct {
	server *Server
	tokens *auth.TokenService
	cache  *identitycache.Cache
	store  *fakeUserStore
	fleet  *fakeFleetStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tokens := auth.NewTokenService(testSigningKey, time.Hour)
	cache := identitycache.New(identitycache.DefaultTTL)
	store := newFakeUserStore()
	fleetStore := &fakeFleetStore{}

	server := NewServer(Deps{
		Logger:   observability.NewLogger(observability.ErrorLevel, io.Discard),
		Tokens:   tokens,
		Cache:    cache,
		Users:    store,
		Fleet:    fleetStore,
		Settings: settings.NewService(&memSettingsStore{}, time.Minute),
	})

	return &fixture{
		server: server,
		tokens: tokens,
		cache:  cache,
		store:  store,
		fleet:  fleetStore,
	}
}

// seedUser stores a user with the given password and returns it
func (f *fixture) seedUser(t *testing.T, email, password string, role auth.Role, companyID *int64) users.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return f.store.seed(users.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CompanyID:    companyID,
	})
}

// tokenFor issues a token for a seeded user
func (f *fixture) tokenFor(t *testing.T, u users.User) string {
	t.Helper()
	token, err := f.tokens.Issue(u.Identity())
	require.NoError(t, err)
	return token
}

// do performs a request against the wired server
func (f *fixture) do(method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, body)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, r)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func ptr(v int64) *int64 { return &v }
