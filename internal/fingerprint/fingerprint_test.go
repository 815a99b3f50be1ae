package fingerprint

import (
	"testing"
)

func TestOf_IgnoresKeyOrder(t *testing.T) {
	a, err := Of(map[string]string{"name": "Juan", "email": "juan@example.com"})
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	b, err := Of(map[string]any{"email": "juan@example.com", "name": "Juan"})
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	if a != b {
		t.Fatalf("expected equal fingerprints, got %s and %s", a, b)
	}
	if len(a) != Length {
		t.Fatalf("expected %d chars, got %q", Length, a)
	}
}

func TestOf_DiffersOnContent(t *testing.T) {
	a, _ := Of(map[string]string{"name": "Juan"})
	b, _ := Of(map[string]string{"name": "Juana"})
	if a == b {
		t.Fatalf("expected different fingerprints for different content")
	}
}

func TestCanonical_SortsKeys(t *testing.T) {
	got, err := Canonical(struct {
		Zeta  string `json:"zeta"`
		Alpha int    `json:"alpha"`
	}{"z", 1})
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if string(got) != `{"alpha":1,"zeta":"z"}` {
		t.Fatalf("unexpected canonical form %s", got)
	}
}

func TestOf_RejectsUnencodable(t *testing.T) {
	if _, err := Of(func() {}); err == nil {
		t.Fatalf("expected error for a func value")
	}
}
