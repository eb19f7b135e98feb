package session

import (
	"slices"
	"testing"

	"appscheme/pkg/domain"
)

type stubTarget struct{ detached bool }

func (s *stubTarget) Enable() error  { return nil }
func (s *stubTarget) Disable() error { return nil }
func (s *stubTarget) Detach() error  { s.detached = true; return nil }

func TestManager(t *testing.T) {
	m := NewManager(nil)
	a, b := &stubTarget{}, &stubTarget{}

	if !m.Add("a", a) || !m.Add("b", b) {
		t.Fatal("Add() rejected a new target")
	}
	if m.Add("a", &stubTarget{}) {
		t.Fatal("Add() accepted a duplicate id")
	}
	if got, ok := m.Get("a"); !ok || got != a {
		t.Fatalf("Get(a) = %v, %v", got, ok)
	}

	ids := m.IDs()
	slices.Sort(ids)
	if !slices.Equal(ids, []domain.TargetID{"a", "b"}) {
		t.Fatalf("IDs() = %v", ids)
	}

	if got, ok := m.Remove("a"); !ok || got != a {
		t.Fatalf("Remove(a) = %v, %v", got, ok)
	}
	if _, ok := m.Remove("a"); ok {
		t.Fatal("Remove() succeeded twice")
	}

	rest := m.Drain()
	if len(rest) != 1 || rest[0] != b || len(m.IDs()) != 0 {
		t.Fatalf("Drain() = %v, remaining %v", rest, m.IDs())
	}
}
