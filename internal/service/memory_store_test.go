package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tembiapo/tembiapo-backend/internal/domain"
	"github.com/tembiapo/tembiapo-backend/internal/repository"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// memoryStore implements every repository interface over maps, with the
// same transactional guarantees the Postgres repositories give.
type memoryStore struct {
	mu            sync.Mutex
	clock         *fakeClock
	roles         map[domain.RoleName]*domain.Role
	persons       map[string]*domain.Person
	users         map[string]*domain.User
	professionals map[string]*domain.Professional
	tokens        map[string]*domain.RefreshToken

	// failUserInsert makes CreateWithPerson fail after the person insert
	failUserInsert error
}

var (
	_ repository.UserRepository         = (*memoryStore)(nil)
	_ repository.RoleRepository         = (*memoryStore)(nil)
	_ repository.ProfessionalRepository = (*memoryStore)(nil)
	_ repository.TokenRepository        = (*memoryStore)(nil)
)

func newMemoryStore(clock *fakeClock) *memoryStore {
	return &memoryStore{
		clock: clock,
		roles: map[domain.RoleName]*domain.Role{
			domain.RoleAdmin:        {ID: 1, Name: domain.RoleAdmin},
			domain.RoleProfessional: {ID: 2, Name: domain.RoleProfessional},
		},
		persons:       make(map[string]*domain.Person),
		users:         make(map[string]*domain.User),
		professionals: make(map[string]*domain.Professional),
		tokens:        make(map[string]*domain.RefreshToken),
	}
}

func (m *memoryStore) repositories() *repository.Repositories {
	return &repository.Repositories{User: m, Role: m, Professional: m, Token: m}
}

func (m *memoryStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) ExistsByDNI(_ context.Context, dni string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.persons {
		if p.DNI == dni {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) CreateWithPerson(_ context.Context, person *domain.Person, user *domain.User, professional *domain.Professional) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.persons {
		if p.DNI == person.DNI {
			return repository.ErrDuplicateDNI
		}
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
		if u.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
	}
	if m.failUserInsert != nil {
		return m.failUserInsert
	}

	now := m.clock.Now()
	person.ID = uuid.NewString()
	person.CreatedAt, person.UpdatedAt = now, now
	user.ID = uuid.NewString()
	user.PersonID = person.ID
	user.CreatedAt, user.UpdatedAt = now, now

	p, u := *person, *user
	m.persons[p.ID] = &p
	m.users[u.ID] = &u

	if professional != nil {
		professional.ID = uuid.NewString()
		professional.UserID = user.ID
		professional.CreatedAt = now
		pr := *professional
		m.professionals[user.ID] = &pr
	}

	return nil
}

func (m *memoryStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email && !u.IsDeleted() {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memoryStore) GetProfile(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	for _, r := range m.roles {
		if r.ID == u.RoleID {
			role := *r
			cp.Role = &role
		}
	}
	if p, ok := m.persons[u.PersonID]; ok {
		person := *p
		cp.Person = &person
	}
	if cp.Role == nil || cp.Person == nil {
		return nil, repository.ErrNotFound
	}
	return &cp, nil
}

func (m *memoryStore) GetByName(_ context.Context, name domain.RoleName) (*domain.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memoryStore) GetByUserID(_ context.Context, userID string) (*domain.Professional, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.professionals[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memoryStore) revokeActiveLocked(userID string) {
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
}

func (m *memoryStore) insertLocked(token *domain.RefreshToken) error {
	if _, ok := m.tokens[token.TokenHash]; ok {
		return repository.ErrDuplicateToken
	}
	token.ID = uuid.NewString()
	cp := *token
	m.tokens[cp.TokenHash] = &cp
	return nil
}

func (m *memoryStore) Replace(_ context.Context, token *domain.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[token.UserID]; !ok {
		return repository.ErrNotFound
	}
	m.revokeActiveLocked(token.UserID)
	return m.insertLocked(token)
}

func (m *memoryStore) Rotate(_ context.Context, oldHash string, next *domain.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.tokens[oldHash]
	if !ok {
		return repository.ErrNotFound
	}
	if !old.IsActive(m.clock.Now()) {
		return repository.ErrTokenInactive
	}
	m.revokeActiveLocked(old.UserID)
	next.UserID = old.UserID
	return m.insertLocked(next)
}

func (m *memoryStore) GetByTokenHash(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memoryStore) RevokeByTokenHash(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[tokenHash]; ok {
		t.Revoked = true
	}
	return nil
}

// CountActiveByUserID counts the tokens of userID usable at now
func (m *memoryStore) CountActiveByUserID(_ context.Context, userID string, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, t := range m.tokens {
		if t.UserID == userID && t.IsActive(now) {
			count++
		}
	}
	return count, nil
}

func (m *memoryStore) DeleteRevokedOrExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for hash, t := range m.tokens {
		if !t.IsActive(now) {
			delete(m.tokens, hash)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memoryStore) addToken(userID string, expiresAt time.Time, revoked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hash := uuid.NewString()
	m.tokens[hash] = &domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: expiresAt,
		Revoked:   revoked,
	}
}

func (m *memoryStore) softDelete(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return errors.New("no such user")
	}
	now := m.clock.Now()
	u.DeletedAt = &now
	return nil
}

func (m *memoryStore) counts() (persons, users int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.persons), len(m.users)
}
