package scheduler

import "testing"

func TestRoundRobinAlternatesAcrossTenants(t *testing.T) {
	s := NewRoundRobin()
	s.SetUsers(3)
	s.Enqueue(req(0, 100))
	s.Enqueue(req(1, 100))
	s.Enqueue(req(2, 100))

	var order []int
	for i := 0; i < 3; i++ {
		uid, ok := s.PickUser(0)
		if !ok {
			t.Fatalf("expected a pickable user at step %d", i)
		}
		if _, ok := s.Pop(uid); !ok {
			t.Fatalf("expected pop to succeed for uid %d", uid)
		}
		order = append(order, uid)
	}
	want := []int{0, 1, 2}
	for i, w := range want {
		if order[i] != w {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

func TestRoundRobinSkipsEmptyQueues(t *testing.T) {
	s := NewRoundRobin()
	s.SetUsers(3)
	s.Enqueue(req(0, 100))
	s.Enqueue(req(2, 100))

	uid, ok := s.PickUser(0)
	if !ok || uid != 0 {
		t.Fatalf("expected user 0 first, got %d, ok=%v", uid, ok)
	}
	s.Pop(0)

	uid, ok = s.PickUser(0)
	if !ok || uid != 2 {
		t.Fatalf("expected user 2 next (skipping empty user 1), got %d, ok=%v", uid, ok)
	}
}

func TestRoundRobinEmptyWhenNoQueuedRequests(t *testing.T) {
	s := NewRoundRobin()
	s.SetUsers(2)
	if !s.Empty() {
		t.Fatal("expected empty scheduler")
	}
	s.Enqueue(req(0, 10))
	if s.Empty() {
		t.Fatal("expected non-empty scheduler after enqueue")
	}
}

func TestRoundRobinPickUserWithNoUsersReturnsFalse(t *testing.T) {
	s := NewRoundRobin()
	s.SetUsers(0)
	if _, ok := s.PickUser(0); ok {
		t.Fatal("expected no pickable user with zero tenants")
	}
}

func TestRoundRobinDropsOutOfRangeEnqueue(t *testing.T) {
	s := NewRoundRobin()
	s.SetUsers(2)
	s.Enqueue(req(5, 10))
	if !s.Empty() {
		t.Fatal("expected out-of-range enqueue to be dropped")
	}
}
