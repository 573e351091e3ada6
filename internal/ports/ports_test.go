package ports

import "testing"

func TestReserveRejectsDuplicate(t *testing.T) {
	r := NewRegistry()

	if err := r.Reserve(9000); err != nil {
		t.Fatalf("expected first reservation to succeed, got %v", err)
	}
	if err := r.Reserve(9000); err == nil {
		t.Fatal("expected second reservation of the same port to fail")
	}
}

func TestReleaseFreesPortForReuse(t *testing.T) {
	r := NewRegistry()

	if err := r.Reserve(9001); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Release(9001)

	if err := r.Reserve(9001); err != nil {
		t.Fatalf("expected port to be reusable after release, got %v", err)
	}
}

func TestReleaseOfUnreservedPortIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Release(12345) // must not panic

	if err := r.Reserve(12345); err != nil {
		t.Fatalf("unexpected error reserving never-released port: %v", err)
	}
}

func TestDistinctPortsDoNotConflict(t *testing.T) {
	r := NewRegistry()
	if err := r.Reserve(1000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Reserve(1001); err != nil {
		t.Fatalf("unexpected error reserving a different port: %v", err)
	}
}
