package core

import "testing"

func TestRegistryRegisterReplacesIdentity(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Lookup("c1"); ok {
		t.Fatal("unexpected identity before register")
	}

	r.Register("c1", Identity{Username: "alice", Room: "lobby"})
	r.Register("c1", Identity{Username: "alice", Room: "garden"})

	id, ok := r.Lookup("c1")
	if !ok || id.Room != "garden" {
		t.Fatalf("expected replaced identity, got %+v", id)
	}
	if r.Len() != 1 {
		t.Fatalf("expected one identity, got %d", r.Len())
	}

	r.Remove("c1")
	r.Remove("missing")
	if _, ok := r.Lookup("c1"); ok || r.Len() != 0 {
		t.Fatal("identity should be removed")
	}
}
