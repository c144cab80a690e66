package scheduler

import "github.com/ssdfair/ssdsim/pkg/models"

const defaultQuantum = 4096.0

// DeficitRoundRobin enforces byte-level fairness using per-tenant deficit
// counters, credited on PickUser and drained on Pop.
type DeficitRoundRobin struct {
	queues  [][]models.Request
	deficit []int64
	weights []float64
	quantum float64
	next    int
	inTurn  bool
}

// NewDeficitRoundRobin constructs a DeficitRoundRobin with the default
// quantum. Call SetUsers before use.
func NewDeficitRoundRobin() *DeficitRoundRobin {
	return &DeficitRoundRobin{quantum: defaultQuantum}
}

func (s *DeficitRoundRobin) SetUsers(n int) {
	if n < 0 {
		n = 0
	}
	s.queues = make([][]models.Request, n)
	s.deficit = make([]int64, n)
	s.weights = make([]float64, n)
	for i := range s.weights {
		s.weights[i] = 1.0
	}
	s.next = 0
	s.inTurn = false
}

func (s *DeficitRoundRobin) SetQuantum(q float64) {
	if q > 0 {
		s.quantum = q
	}
}

func (s *DeficitRoundRobin) SetWeights(weights []float64) {
	if len(s.queues) == 0 {
		return
	}
	for i := range s.weights {
		s.weights[i] = 1.0
	}
	for i := 0; i < len(s.weights) && i < len(weights); i++ {
		w := weights[i]
		if w < 0 {
			w = 0
		}
		s.weights[i] = w
	}
}

func (s *DeficitRoundRobin) Enqueue(r models.Request) {
	if r.UserID < 0 || r.UserID >= len(s.queues) {
		return
	}
	s.queues[r.UserID] = append(s.queues[r.UserID], r)
}

// PickUser scans tenants starting from next, crediting each visited
// tenant's deficit by its weighted quantum, and selects the first whose
// deficit now covers its head request's size. A chosen tenant keeps its
// turn: the next scan starts at it again without a fresh credit, so it is
// served until its remaining deficit no longer covers its head request,
// which gives each backlogged tenant a byte share proportional to weight.
func (s *DeficitRoundRobin) PickUser(now float64) (int, bool) {
	n := len(s.queues)
	if n == 0 {
		return 0, false
	}
	inTurn := s.inTurn
	s.inTurn = false
	for i := 0; i < n; i++ {
		uid := (s.next + i) % n
		if len(s.queues[uid]) == 0 {
			continue
		}

		if i > 0 || !inTurn {
			quantum := int64(s.quantum * s.weights[uid])
			if quantum < 1 {
				quantum = 1
			}
			s.deficit[uid] += quantum
		}

		if s.deficit[uid] >= int64(s.queues[uid][0].SizeBytes) {
			s.next = uid
			s.inTurn = true
			return uid, true
		}
	}
	return 0, false
}

func (s *DeficitRoundRobin) Pop(uid int) (models.Request, bool) {
	if uid < 0 || uid >= len(s.queues) || len(s.queues[uid]) == 0 {
		return models.Request{}, false
	}
	r := s.queues[uid][0]
	s.queues[uid] = s.queues[uid][1:]
	s.deficit[uid] -= int64(r.SizeBytes)
	if s.deficit[uid] < 0 {
		s.deficit[uid] = 0
	}
	return r, true
}

func (s *DeficitRoundRobin) Empty() bool {
	for _, q := range s.queues {
		if len(q) > 0 {
			return false
		}
	}
	return true
}
