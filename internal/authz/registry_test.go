package authz

import (
	"errors"
	"testing"
)

func TestRegistryAggregatesContributions(t *testing.T) {
	registry := testRegistry(t)

	for _, res := range []string{"auth", "translate", "manage-users", "user"} {
		if !registry.IsKnown(res) {
			t.Fatalf("expected %q to be known", res)
		}
	}
	if registry.IsKnown("billing") {
		t.Fatal("unregistered resource must not be known")
	}

	if !registry.IsGuestVisible("auth") {
		t.Fatal("expected auth to be guest visible")
	}
	if registry.IsGuestVisible("manage-users") {
		t.Fatal("manage-users must not be guest visible")
	}
	if got := registry.GuestResources(); len(got) != 1 || got[0] != "auth" {
		t.Fatalf("unexpected guest resources: %v", got)
	}
}

func TestRegistryRejectsEmptyContribution(t *testing.T) {
	_, err := NewRegistry(Contribution{Module: "broken"})
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected config error for empty contribution, got %v", err)
	}

	_, err = NewRegistry()
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected config error for no contributions, got %v", err)
	}
}

func TestRegistryRejectsDuplicateResource(t *testing.T) {
	_, err := NewRegistry(
		Contribution{Module: "a", Resources: []string{"translate"}},
		Contribution{Module: "b", Resources: []string{"translate"}},
	)
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected config error for duplicate resource, got %v", err)
	}
}

func TestRegistryRejectsGuestOutsideResources(t *testing.T) {
	_, err := NewRegistry(Contribution{Module: "a", Resources: []string{"auth"}, Guest: []string{"other"}})
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected config error for guest resource outside contribution, got %v", err)
	}
}
