package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"paddock.events/internal/audit"
)

const defaultSessionTTL = 12 * time.Hour

// Service resolves opaque session tokens to admin users and computes the
// effective event role for a (user, event) pair. Roles are always re-derived
// from the store on each call; nothing is trusted from the client.
type Service struct {
	store    Store
	recorder *audit.Recorder
	now      func() time.Time

	sessionTTL time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithSessionTTL overrides the default session lifetime.
func WithSessionTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithAudit wires the recorder so account and staff mutations, and their
// authorization denials, land in the audit trail.
func WithAudit(rec *audit.Recorder) ServiceOption {
	return func(s *Service) {
		s.recorder = rec
	}
}

// NewService constructs a Service.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth store is required")
	}
	svc := &Service{
		store:      store,
		now:        time.Now,
		sessionTTL: defaultSessionTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// LoginResult carries the freshly issued session token and its expiry.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      AdminUser
}

// Login verifies credentials and issues a new session. Any failure resolves to
// ErrNotAuthenticated so callers cannot probe for account existence or state.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return LoginResult{}, ErrNotAuthenticated
	}
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, ErrNotAuthenticated
	}
	if !user.Active {
		return LoginResult{}, ErrNotAuthenticated
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return LoginResult{}, ErrNotAuthenticated
	}

	token, session, err := s.newSession(user.ID)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.store.Sessions().Create(ctx, session); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: session.ExpiresAt, User: *user}, nil
}

// Logout revokes the session behind the token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	id, _, err := splitSessionToken(token)
	if err != nil {
		return nil
	}
	session, err := s.store.Sessions().Find(ctx, id)
	if err != nil {
		return nil
	}
	return s.store.Sessions().Revoke(ctx, session.ID)
}

// Resolve maps a session token to the authenticated admin user. Missing,
// expired and revoked sessions as well as deactivated accounts all fail
// closed with ErrNotAuthenticated.
func (s *Service) Resolve(ctx context.Context, token string) (AdminUser, error) {
	id, secret, err := splitSessionToken(token)
	if err != nil {
		return AdminUser{}, ErrNotAuthenticated
	}
	session, err := s.store.Sessions().Find(ctx, id)
	if err != nil {
		return AdminUser{}, ErrNotAuthenticated
	}
	if session.Revoked || s.now().After(session.ExpiresAt) {
		return AdminUser{}, ErrNotAuthenticated
	}
	if !secureCompareHash(session.TokenHash, secret) {
		return AdminUser{}, ErrNotAuthenticated
	}
	user, err := s.store.Users().Find(ctx, session.AdminUserID)
	if err != nil {
		return AdminUser{}, ErrNotAuthenticated
	}
	if !user.Active {
		return AdminUser{}, ErrNotAuthenticated
	}
	return *user, nil
}

// EffectiveRole resolves the role a user holds for one event. Full-access
// global roles always map to event_admin; otherwise the staff assignment for
// (event, user) decides, and its absence is ErrNoEventAccess.
func (s *Service) EffectiveRole(ctx context.Context, user AdminUser, eventID string) (EventRole, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return "", fmt.Errorf("%w: event_id is required", ErrInvalidInput)
	}
	if user.Role.FullAccess() {
		return RoleEventAdmin, nil
	}
	assignment, err := s.store.Staff().Find(ctx, eventID, user.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrNoEventAccess
		}
		return "", err
	}
	return assignment.Role, nil
}

// Authorize resolves the effective role and checks it against the capability.
// The role is returned so callers can log it alongside the decision.
func (s *Service) Authorize(ctx context.Context, user AdminUser, eventID string, cap Capability) (EventRole, error) {
	role, err := s.EffectiveRole(ctx, user, eventID)
	if err != nil {
		return "", err
	}
	if !Allows(role, cap) {
		return role, ErrForbidden
	}
	return role, nil
}

// record appends an audit entry when a recorder is wired. Account and staff
// mutations share the registration audit trail.
func (s *Service) record(ctx context.Context, actorID, action, resourceType, resourceID string, details map[string]any, outcome audit.Outcome) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, audit.Entry{
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		Outcome:      outcome,
	})
}

func authFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrNoEventAccess):
		return "no_event_access"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}

// ProvisionUser creates an admin account with a hashed password.
func (s *Service) ProvisionUser(ctx context.Context, email, name, password string, role GlobalRole) (AdminUser, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return AdminUser{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if !role.Valid() {
		return AdminUser{}, fmt.Errorf("%w: unsupported global role %q", ErrInvalidInput, role)
	}
	hash, err := HashPassword(strings.TrimSpace(password))
	if err != nil {
		return AdminUser{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	user := &AdminUser{
		Email:        email,
		Name:         strings.TrimSpace(name),
		Role:         role,
		PasswordHash: hash,
		Active:       true,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return AdminUser{}, err
	}
	s.record(ctx, "", "user.provision", "admin_user", user.ID, map[string]any{
		"email": user.Email,
		"role":  string(user.Role),
	}, audit.OutcomeSuccess)
	return *user, nil
}

// DeactivateUser soft-disables an account and revokes its open sessions.
func (s *Service) DeactivateUser(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if err := s.store.Users().Deactivate(ctx, id); err != nil {
		return err
	}
	if err := s.store.Sessions().RevokeByUser(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "", "user.deactivate", "admin_user", id, nil, audit.OutcomeSuccess)
	return nil
}

// AssignStaff gives a user an event role. The acting user needs manage_staff.
func (s *Service) AssignStaff(ctx context.Context, actor AdminUser, eventID, adminUserID string, role EventRole) error {
	if _, err := s.Authorize(ctx, actor, eventID, CapManageStaff); err != nil {
		s.record(ctx, actor.ID, "staff.assign", "event_staff", strings.TrimSpace(adminUserID), map[string]any{
			"event_id": eventID,
			"reason":   authFailureReason(err),
		}, audit.OutcomeFailed)
		return err
	}
	if !role.Valid() {
		return fmt.Errorf("%w: unsupported event role %q", ErrInvalidInput, role)
	}
	adminUserID = strings.TrimSpace(adminUserID)
	if adminUserID == "" {
		return fmt.Errorf("%w: admin_user_id is required", ErrInvalidInput)
	}
	if err := s.store.Staff().Assign(ctx, StaffAssignment{
		EventID:     eventID,
		AdminUserID: adminUserID,
		Role:        role,
		CreatedAt:   s.now().UTC(),
	}); err != nil {
		return err
	}
	s.record(ctx, actor.ID, "staff.assign", "event_staff", adminUserID, map[string]any{
		"event_id": eventID,
		"role":     string(role),
	}, audit.OutcomeSuccess)
	return nil
}

// RemoveStaff deletes a staff assignment. The acting user needs manage_staff.
func (s *Service) RemoveStaff(ctx context.Context, actor AdminUser, eventID, adminUserID string) error {
	if _, err := s.Authorize(ctx, actor, eventID, CapManageStaff); err != nil {
		s.record(ctx, actor.ID, "staff.remove", "event_staff", strings.TrimSpace(adminUserID), map[string]any{
			"event_id": eventID,
			"reason":   authFailureReason(err),
		}, audit.OutcomeFailed)
		return err
	}
	if err := s.store.Staff().Remove(ctx, eventID, adminUserID); err != nil {
		return err
	}
	s.record(ctx, actor.ID, "staff.remove", "event_staff", adminUserID, map[string]any{
		"event_id": eventID,
	}, audit.OutcomeSuccess)
	return nil
}

// ListStaff returns all assignments for an event. Any assigned role may view.
func (s *Service) ListStaff(ctx context.Context, actor AdminUser, eventID string) ([]StaffAssignment, error) {
	if _, err := s.Authorize(ctx, actor, eventID, CapView); err != nil {
		return nil, err
	}
	return s.store.Staff().ListByEvent(ctx, eventID)
}

func (s *Service) newSession(adminUserID string) (string, *Session, error) {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", nil, err
	}
	secret := base64.RawURLEncoding.EncodeToString(secretBytes)
	id := uuid.NewString()
	sum := sha256.Sum256([]byte(secret))
	now := s.now().UTC()
	session := &Session{
		ID:          id,
		AdminUserID: adminUserID,
		TokenHash:   hex.EncodeToString(sum[:]),
		ExpiresAt:   now.Add(s.sessionTTL),
		CreatedAt:   now,
	}
	return id + "." + secret, session, nil
}

func splitSessionToken(raw string) (id, secret string, err error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.New("invalid session token format")
	}
	return parts[0], parts[1], nil
}

func secureCompareHash(expectedHash, secret string) bool {
	sum := sha256.Sum256([]byte(secret))
	actual := hex.EncodeToString(sum[:])
	if len(expectedHash) != len(actual) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expectedHash), []byte(actual)) == 1
}
