package services

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// AuthStore is the slice of persistence the account layer needs. Audit
// entries share the same trail as the scoring workflow.
type AuthStore interface {
	FindUserByEmail(email string) (*User, error)
	AddUser(u *User) error
	AddTenant(t *Tenant) error
	AddAudit(entry AuditEntry)
}

type TokenSigner func(uid, tid, email string, ttl time.Duration) (string, error)

// AuthService registers scoring tenants and issues API tokens. Every account
// belongs to exactly one tenant; batches, score runs and exports created
// under a token are scoped to that tenant.
type AuthService struct {
	store     AuthStore
	now       func() time.Time
	idGen     func(prefix string, n int) string
	signToken TokenSigner
	tokenTTL  time.Duration
}

type AuthResult struct {
	Token    string
	TenantID string
	UserID   string
}

const (
	sessionTTL        = 12 * time.Hour
	minPasswordLength = 8
)

func NewAuthService(store AuthStore, signer TokenSigner) *AuthService {
	return &AuthService{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     func(prefix string, n int) string { return prefix + shortID(n) },
		signToken: signer,
		tokenTTL:  sessionTTL,
	}
}

// Register creates a new tenant with its first user and returns a signed
// token scoped to it.
func (s *AuthService) Register(email, password, tenantName string) (*AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, NewInvalidError("password must be at least 8 characters")
	}
	existing, err := s.store.FindUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("email exists")
	}
	// Hash before creating anything so a hashing failure leaves no orphan
	// tenant behind.
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	tenant := &Tenant{ID: s.idGen("t", 7), Name: strings.TrimSpace(tenantName)}
	if err := s.store.AddTenant(tenant); err != nil {
		return nil, err
	}
	user := &User{
		ID:        s.idGen("u", 7),
		Email:     email,
		PassHash:  hash,
		TenantID:  tenant.ID,
		CreatedAt: s.now(),
	}
	if err := s.store.AddUser(user); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: user.ID, Action: "register_tenant", Target: tenant.ID})
	return s.issueToken(user)
}

// Login verifies credentials and returns a fresh token.
func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, NewInvalidError("password required")
	}
	u, err := s.store.FindUserByEmail(email)
	if err != nil {
		return nil, err
	}
	// One answer for unknown email and wrong password.
	if u == nil || bcrypt.CompareHashAndPassword(u.PassHash, []byte(password)) != nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: u.ID, Action: "login", Target: u.TenantID})
	return s.issueToken(u)
}

func (s *AuthService) issueToken(u *User) (*AuthResult, error) {
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	token, err := s.signToken(u.ID, u.TenantID, u.Email, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, TenantID: u.TenantID, UserID: u.ID}, nil
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", NewInvalidError("valid email required")
	}
	return email, nil
}
