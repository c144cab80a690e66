package scheduler

import "github.com/ssdfair/ssdsim/pkg/models"

// StartGap decorates a base scheduler to approximate SGFS-style fairness:
// it rotates the published tenant id space relative to the base
// scheduler's real ids every RotateEvery picks, by Gap slots. The mapping
// from published id back to the base scheduler's real id is transient and
// consumed by the next Pop of that published id.
type StartGap struct {
	base        Scheduler
	rotateEvery int
	gap         int
	rotateCount int
	start       int
	users       int
	remap       map[int]int
}

// NewStartGap wraps base with start-gap rotation. rotateEvery and gap are
// clamped to at least 1, matching the original scheduler's defensive
// defaults.
func NewStartGap(base Scheduler, rotateEvery, gap int) *StartGap {
	if rotateEvery < 1 {
		rotateEvery = 1
	}
	if gap < 1 {
		gap = 1
	}
	return &StartGap{
		base:        base,
		rotateEvery: rotateEvery,
		gap:         gap,
		remap:       make(map[int]int),
	}
}

func (s *StartGap) SetUsers(n int) {
	if n < 0 {
		n = 0
	}
	s.users = n
	s.base.SetUsers(n)
	s.remap = make(map[int]int)
	s.rotateCount = 0
	s.start = 0
}

func (s *StartGap) SetWeights(weights []float64) { s.base.SetWeights(weights) }
func (s *StartGap) SetQuantum(q float64)          { s.base.SetQuantum(q) }
func (s *StartGap) Enqueue(r models.Request)      { s.base.Enqueue(r) }

// PickUser asks the base scheduler for the real tenant to run next, maps
// it into the currently rotated published id space, and records the
// mapping so the matching Pop can translate it back.
func (s *StartGap) PickUser(now float64) (int, bool) {
	if s.users == 0 {
		return 0, false
	}

	uid, ok := s.base.PickUser(now)
	if !ok {
		return 0, false
	}

	s.rotateCount++
	if s.rotateCount >= s.rotateEvery {
		s.start = (s.start + s.gap) % s.users
		s.rotateCount = 0
	}

	mapped := (uid + s.start) % s.users
	s.remap[mapped] = uid
	return mapped, true
}

func (s *StartGap) Pop(uid int) (models.Request, bool) {
	actual := uid
	if real, ok := s.remap[uid]; ok {
		actual = real
		delete(s.remap, uid)
	}
	return s.base.Pop(actual)
}

func (s *StartGap) Empty() bool { return s.base.Empty() }
