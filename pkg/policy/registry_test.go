package policy

import (
	"context"
	"errors"
	"testing"
)

// recordingStore satisfies Store and records which calls happened.
type recordingStore struct {
	saved   []string
	deleted []string
	loaded  []*Policy
	failOn  string
}

func (s *recordingStore) SavePolicy(_ context.Context, pol *Policy) error {
	if s.failOn == "save" {
		return errors.New("store unavailable")
	}
	s.saved = append(s.saved, pol.PolicyID)
	return nil
}

func (s *recordingStore) DeletePolicy(_ context.Context, policyID string) error {
	if s.failOn == "delete" {
		return errors.New("store unavailable")
	}
	s.deleted = append(s.deleted, policyID)
	return nil
}

func (s *recordingStore) LoadPolicies(_ context.Context) ([]*Policy, error) {
	return s.loaded, nil
}

func TestRegistry_ImportGetList(t *testing.T) {
	reg := NewRegistry(nil, nil)
	ctx := context.Background()

	polB := validMinimalPolicy()
	polB.PolicyID = "beta"
	polA := validMinimalPolicy()
	polA.PolicyID = "alpha"

	if err := reg.Import(ctx, polB); err != nil {
		t.Fatalf("Import(beta): %v", err)
	}
	if err := reg.Import(ctx, polA); err != nil {
		t.Fatalf("Import(alpha): %v", err)
	}

	got, err := reg.Get("alpha")
	if err != nil || got.PolicyID != "alpha" {
		t.Fatalf("Get(alpha) = %v, %v", got, err)
	}

	list := reg.List()
	if len(list) != 2 || list[0].PolicyID != "alpha" || list[1].PolicyID != "beta" {
		t.Errorf("List() not ordered by policy_id: %v", list)
	}
}

func TestRegistry_ImportConflict(t *testing.T) {
	reg := NewRegistry(nil, nil)
	ctx := context.Background()

	if err := reg.Import(ctx, validMinimalPolicy()); err != nil {
		t.Fatalf("first Import: %v", err)
	}
	if err := reg.Import(ctx, validMinimalPolicy()); !errors.Is(err, ErrPolicyExists) {
		t.Errorf("second Import err = %v; want ErrPolicyExists", err)
	}
}

func TestRegistry_ImportInvalidRejected(t *testing.T) {
	reg := NewRegistry(nil, nil)

	pol := validMinimalPolicy()
	pol.Version = "nope"

	err := reg.Import(context.Background(), pol)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Import err = %v; want *ValidationError", err)
	}
	if _, getErr := reg.Get(pol.PolicyID); !errors.Is(getErr, ErrPolicyNotFound) {
		t.Error("invalid policy must not be published")
	}
}

func TestRegistry_UpdateRevalidates(t *testing.T) {
	reg := NewRegistry(nil, nil)
	ctx := context.Background()

	pol := validMinimalPolicy()
	if err := reg.Import(ctx, pol); err != nil {
		t.Fatalf("Import: %v", err)
	}

	bad := validMinimalPolicy()
	bad.Rules[0].Condition = "=="

	var verr *ValidationError
	if err := reg.Update(ctx, pol.PolicyID, bad); !errors.As(err, &verr) {
		t.Fatalf("Update err = %v; want *ValidationError", err)
	}

	// The published snapshot still holds the old version.
	cur, err := reg.Get(pol.PolicyID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cur.Rules[0].Condition != "contains_pii" {
		t.Errorf("published condition = %q; rejected update leaked", cur.Rules[0].Condition)
	}
}

func TestRegistry_UpdateMissing(t *testing.T) {
	reg := NewRegistry(nil, nil)
	err := reg.Update(context.Background(), "ghost", validMinimalPolicy())
	if !errors.Is(err, ErrPolicyNotFound) {
		t.Errorf("Update err = %v; want ErrPolicyNotFound", err)
	}
}

func TestRegistry_Delete(t *testing.T) {
	store := &recordingStore{}
	reg := NewRegistry(store, nil)
	ctx := context.Background()

	pol := validMinimalPolicy()
	if err := reg.Import(ctx, pol); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if err := reg.Delete(ctx, pol.PolicyID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := reg.Get(pol.PolicyID); !errors.Is(err, ErrPolicyNotFound) {
		t.Error("deleted policy still published")
	}
	if len(store.deleted) != 1 || store.deleted[0] != pol.PolicyID {
		t.Errorf("store.deleted = %v", store.deleted)
	}

	if err := reg.Delete(ctx, pol.PolicyID); !errors.Is(err, ErrPolicyNotFound) {
		t.Errorf("double Delete err = %v; want ErrPolicyNotFound", err)
	}
}

func TestRegistry_StoreFailureKeepsSnapshot(t *testing.T) {
	store := &recordingStore{failOn: "save"}
	reg := NewRegistry(store, nil)

	err := reg.Import(context.Background(), validMinimalPolicy())
	if err == nil {
		t.Fatal("expected store error")
	}
	if _, getErr := reg.Get("p1"); !errors.Is(getErr, ErrPolicyNotFound) {
		t.Error("failed persist must not publish the policy")
	}
}

func TestRegistry_SnapshotIsolation(t *testing.T) {
	reg := NewRegistry(nil, nil)
	ctx := context.Background()

	pol := validMinimalPolicy()
	if err := reg.Import(ctx, pol); err != nil {
		t.Fatalf("Import: %v", err)
	}

	// A reader holding the list across a delete keeps its view.
	before := reg.List()
	if err := reg.Delete(ctx, pol.PolicyID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(before) != 1 || before[0].PolicyID != pol.PolicyID {
		t.Errorf("held snapshot mutated: %v", before)
	}
}

func TestRegistry_LoadFromStore(t *testing.T) {
	store := &recordingStore{loaded: []*Policy{validMinimalPolicy()}}
	reg := NewRegistry(store, nil)

	if err := reg.LoadFromStore(context.Background()); err != nil {
		t.Fatalf("LoadFromStore: %v", err)
	}
	if _, err := reg.Get("p1"); err != nil {
		t.Errorf("Get after load: %v", err)
	}
}

func TestRegistry_SeedRejectsBadBundle(t *testing.T) {
	reg := NewRegistry(nil, nil)

	good := validMinimalPolicy()
	bad := validMinimalPolicy()
	bad.PolicyID = "bad"
	bad.Version = "x"

	if err := reg.Seed([]*Policy{good, bad}); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := reg.Get(good.PolicyID); !errors.Is(err, ErrPolicyNotFound) {
		t.Error("bad bundle partially applied")
	}
}
