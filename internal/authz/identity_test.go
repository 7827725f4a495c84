package authz

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/babelboard/babelboard/internal/shared"
)

type stubSessionStore struct {
	values  []string
	errs    []error
	reads   int
	expires int
}

func (s *stubSessionStore) ReadUser(ctx context.Context, sessionID string) (string, error) {
	i := s.reads
	s.reads++
	var value string
	var err error
	if i < len(s.values) {
		value = s.values[i]
	}
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return value, err
}

func (s *stubSessionStore) Expire(ctx context.Context, sessionID string) error {
	s.expires++
	return nil
}

func corrupt() error {
	return fmt.Errorf("%w: torn payload", shared.ErrSessionCorrupt)
}

func TestResolveAuthenticated(t *testing.T) {
	store := &stubSessionStore{values: []string{"42"}}
	id, err := NewResolver(store, nil).Resolve(context.Background(), "sess")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	userID, ok := id.UserID()
	if !ok || userID != 42 {
		t.Fatalf("expected authenticated user 42, got %+v", id)
	}
}

func TestResolveAnonymousWithoutSession(t *testing.T) {
	store := &stubSessionStore{}
	id, err := NewResolver(store, nil).Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !id.IsAnonymous() {
		t.Fatal("expected anonymous identity")
	}
	if store.reads != 0 {
		t.Fatalf("expected no storage reads, got %d", store.reads)
	}
}

func TestResolveRecoversAfterExpiry(t *testing.T) {
	store := &stubSessionStore{
		values: []string{"", ""},
		errs:   []error{corrupt(), nil},
	}
	id, err := NewResolver(store, nil).Resolve(context.Background(), "sess")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !id.IsAnonymous() {
		t.Fatal("expected anonymous identity after recovery")
	}
	if store.expires != 1 {
		t.Fatalf("expected 1 expire call, got %d", store.expires)
	}
}

func TestResolveExhaustsRetryBound(t *testing.T) {
	store := &stubSessionStore{
		errs: []error{corrupt(), corrupt(), corrupt()},
	}
	_, err := NewResolver(store, nil).Resolve(context.Background(), "sess")
	if !errors.Is(err, ErrIdentityUnavailable) {
		t.Fatalf("expected identity error after exhausting retries, got %v", err)
	}
	var identityErr *IdentityError
	if !errors.As(err, &identityErr) || identityErr.Attempts != 3 {
		t.Fatalf("expected 3 attempts recorded, got %+v", identityErr)
	}
	if store.expires != 3 {
		t.Fatalf("expected exactly 3 expire calls, got %d", store.expires)
	}
	if store.reads != 3 {
		t.Fatalf("expected exactly 3 reads, got %d", store.reads)
	}
}

func TestResolveUnparsableUserIDIsCorruption(t *testing.T) {
	store := &stubSessionStore{values: []string{"not-a-number", ""}}
	id, err := NewResolver(store, nil).Resolve(context.Background(), "sess")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !id.IsAnonymous() {
		t.Fatal("expected anonymous identity after expiring corrupt session")
	}
	if store.expires != 1 {
		t.Fatalf("expected 1 expire call, got %d", store.expires)
	}
}

func TestResolveFatalOnUnrecoverableError(t *testing.T) {
	store := &stubSessionStore{errs: []error{errors.New("redis down")}}
	_, err := NewResolver(store, nil).Resolve(context.Background(), "sess")
	if !errors.Is(err, ErrIdentityUnavailable) {
		t.Fatalf("expected identity error, got %v", err)
	}
	if store.expires != 0 {
		t.Fatalf("expected no expire calls for unrecoverable failure, got %d", store.expires)
	}
}
