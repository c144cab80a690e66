package scheduler

import "github.com/ssdfair/ssdsim/pkg/models"

// RoundRobin cycles through tenants in order, skipping empty queues.
// Weights and quantum are accepted but have no effect.
type RoundRobin struct {
	queues [][]models.Request
	next   int
}

// NewRoundRobin constructs an empty RoundRobin scheduler. Call SetUsers
// before use.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

func (s *RoundRobin) SetUsers(n int) {
	if n < 0 {
		n = 0
	}
	s.queues = make([][]models.Request, n)
	s.next = 0
}

func (s *RoundRobin) SetWeights(weights []float64) {}

func (s *RoundRobin) SetQuantum(q float64) {}

func (s *RoundRobin) Enqueue(r models.Request) {
	if r.UserID < 0 || r.UserID >= len(s.queues) {
		return
	}
	s.queues[r.UserID] = append(s.queues[r.UserID], r)
}

func (s *RoundRobin) PickUser(now float64) (int, bool) {
	n := len(s.queues)
	if n == 0 {
		return 0, false
	}
	for i := 0; i < n; i++ {
		candidate := (s.next + i) % n
		if len(s.queues[candidate]) > 0 {
			s.next = (candidate + 1) % n
			return candidate, true
		}
	}
	return 0, false
}

func (s *RoundRobin) Pop(uid int) (models.Request, bool) {
	if uid < 0 || uid >= len(s.queues) || len(s.queues[uid]) == 0 {
		return models.Request{}, false
	}
	r := s.queues[uid][0]
	s.queues[uid] = s.queues[uid][1:]
	return r, true
}

func (s *RoundRobin) Empty() bool {
	for _, q := range s.queues {
		if len(q) > 0 {
			return false
		}
	}
	return true
}
