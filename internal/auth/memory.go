package auth

import (
	"context"
	"sync"
	"time"

	"paddock.events/internal/ids"
)

// InMemory implements Store with in-process concurrency safety. Used by tests
// and by the dev server when no DSN is configured.
type InMemory struct {
	mu       sync.RWMutex
	users    map[string]*AdminUser
	byEmail  map[string]string
	sessions map[string]*Session
	staff    map[string]StaffAssignment // eventID + "/" + userID
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		users:    make(map[string]*AdminUser),
		byEmail:  make(map[string]string),
		sessions: make(map[string]*Session),
		staff:    make(map[string]StaffAssignment),
	}
}

func (m *InMemory) Users() UserStore       { return (*memUsers)(m) }
func (m *InMemory) Sessions() SessionStore { return (*memSessions)(m) }
func (m *InMemory) Staff() StaffStore      { return (*memStaff)(m) }

type memUsers InMemory

func (m *memUsers) Create(ctx context.Context, u *AdminUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = ids.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID] = &cp
	m.byEmail[u.Email] = u.ID
	return nil
}

func (m *memUsers) Find(ctx context.Context, id string) (*AdminUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*AdminUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.users[id]
	return &cp, nil
}

func (m *memUsers) Deactivate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Active = false
	u.UpdatedAt = time.Now().UTC()
	return nil
}

type memSessions InMemory

func (m *memSessions) Create(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memSessions) Find(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) Revoke(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.Revoked = true
	return nil
}

func (m *memSessions) RevokeByUser(ctx context.Context, adminUserID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.AdminUserID == adminUserID {
			s.Revoked = true
		}
	}
	return nil
}

type memStaff InMemory

func staffKey(eventID, adminUserID string) string { return eventID + "/" + adminUserID }

func (m *memStaff) Assign(ctx context.Context, a StaffAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.staff[staffKey(a.EventID, a.AdminUserID)] = a
	return nil
}

func (m *memStaff) Remove(ctx context.Context, eventID, adminUserID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.staff, staffKey(eventID, adminUserID))
	return nil
}

func (m *memStaff) Find(ctx context.Context, eventID, adminUserID string) (*StaffAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.staff[staffKey(eventID, adminUserID)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := a
	return &cp, nil
}

func (m *memStaff) ListByEvent(ctx context.Context, eventID string) ([]StaffAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []StaffAssignment
	for _, a := range m.staff {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}
	return out, nil
}
