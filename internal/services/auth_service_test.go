package services

import (
	"errors"
	"testing"
	"time"
)

type authStubStore struct {
	users   map[string]*User
	tenants map[string]*Tenant
	audit   []AuditEntry
}

func newAuthStubStore() *authStubStore {
	return &authStubStore{users: map[string]*User{}, tenants: map[string]*Tenant{}}
}

func (s *authStubStore) FindUserByEmail(email string) (*User, error) {
	if u, ok := s.users[email]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, nil
}

func (s *authStubStore) AddUser(u *User) error {
	if _, ok := s.users[u.Email]; ok {
		return errors.New("duplicate user")
	}
	copy := *u
	s.users[u.Email] = &copy
	return nil
}

func (s *authStubStore) AddTenant(t *Tenant) error {
	copy := *t
	s.tenants[t.ID] = &copy
	return nil
}

func (s *authStubStore) AddAudit(e AuditEntry) {
	s.audit = append(s.audit, e)
}

func newTestAuthService(store *authStubStore) *AuthService {
	svc := NewAuthService(store, func(uid, tid, email string, ttl time.Duration) (string, error) {
		return "token:" + uid + ":" + tid, nil
	})
	svc.now = func() time.Time { return time.Unix(0, 0).UTC() }
	svc.idGen = func(prefix string, n int) string { return prefix + "1234567" }
	return svc
}

func TestRegisterCreatesTenantScope(t *testing.T) {
	store := newAuthStubStore()
	svc := newTestAuthService(store)

	res, err := svc.Register("  PI@Example.com ", "Secret123", " Oncology Trial ")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.TenantID == "" || res.UserID == "" {
		t.Fatalf("expected ids in result: %+v", res)
	}
	if res.Token != "token:"+res.UserID+":"+res.TenantID {
		t.Fatalf("unexpected token %q", res.Token)
	}
	tenant := store.tenants[res.TenantID]
	if tenant == nil || tenant.Name != "Oncology Trial" {
		t.Fatalf("tenant not stored: %+v", tenant)
	}
	u := store.users["pi@example.com"]
	if u == nil {
		t.Fatalf("email not normalized on store: %v", store.users)
	}
	if u.TenantID != res.TenantID {
		t.Fatalf("user tenant = %s, want %s", u.TenantID, res.TenantID)
	}
	if len(store.audit) != 1 || store.audit[0].Action != "register_tenant" || store.audit[0].Target != res.TenantID {
		t.Fatalf("audit = %+v", store.audit)
	}
}

func TestRegisterValidation(t *testing.T) {
	store := newAuthStubStore()
	svc := newTestAuthService(store)

	if _, err := svc.Register("not-an-email", "Secret123", "T"); err == nil {
		t.Fatalf("expected error for email without @")
	}
	if _, err := svc.Register("pi@example.com", "short", "T"); err == nil {
		t.Fatalf("expected error for short password")
	}
	if _, err := svc.Register("pi@example.com", "Secret123", "T"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Register("PI@example.com", "Secret123", "T")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorConflict {
		t.Fatalf("error = %v, want conflict for duplicate email", err)
	}
}

func TestLoginMatchesNormalizedEmail(t *testing.T) {
	store := newAuthStubStore()
	svc := newTestAuthService(store)
	if _, err := svc.Register("pi@example.com", "Secret123", "T"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	res, err := svc.Login("PI@Example.COM", "Secret123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected token in login response")
	}
	last := store.audit[len(store.audit)-1]
	if last.Action != "login" || last.Target != res.TenantID {
		t.Fatalf("audit = %+v", last)
	}

	if _, err := svc.Login("pi@example.com", "wrong-pass"); err == nil {
		t.Fatalf("expected error for wrong password")
	}
	_, err = svc.Login("missing@example.com", "Secret123")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorUnauthorized {
		t.Fatalf("error = %v, want unauthorized for unknown user", err)
	}
	if _, err := svc.Login("", ""); err == nil {
		t.Fatalf("expected validation error on empty login")
	}
}

func TestAuthRequiresTokenSigner(t *testing.T) {
	svc := NewAuthService(newAuthStubStore(), nil)
	if _, err := svc.Register("pi@example.com", "Secret123", "T"); err == nil {
		t.Fatalf("expected error without token signer")
	}
}
