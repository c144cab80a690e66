package scheduler

import (
	"math"

	"github.com/ssdfair/ssdsim/pkg/models"
)

const minWeight = 1e-9

type taggedRequest struct {
	req       models.Request
	finishTag float64
}

// WeightedFair approximates weighted fair queueing (spec.md's "qfq") by
// tagging each request with a virtual finish time on enqueue and always
// dispatching the tenant holding the smallest pending finish tag.
type WeightedFair struct {
	queues      [][]taggedRequest
	weights     []float64
	lastFinish  []float64
	virtualTime float64
	activeFlows int
}

// NewWeightedFair constructs an empty WeightedFair scheduler. Call
// SetUsers before use.
func NewWeightedFair() *WeightedFair {
	return &WeightedFair{}
}

func (s *WeightedFair) SetUsers(n int) {
	if n < 0 {
		n = 0
	}
	s.queues = make([][]taggedRequest, n)
	s.weights = make([]float64, n)
	s.lastFinish = make([]float64, n)
	for i := range s.weights {
		s.weights[i] = 1.0
	}
	s.activeFlows = 0
}

func (s *WeightedFair) SetQuantum(q float64) {}

func (s *WeightedFair) SetWeights(weights []float64) {
	for i := range s.weights {
		if i < len(weights) {
			w := weights[i]
			if w < minWeight {
				w = minWeight
			}
			s.weights[i] = w
		} else {
			s.weights[i] = 1.0
		}
	}
}

func (s *WeightedFair) Enqueue(r models.Request) {
	if r.UserID < 0 || r.UserID >= len(s.queues) {
		return
	}

	weight := s.weights[r.UserID]
	startTag := math.Max(s.lastFinish[r.UserID], s.virtualTime)
	finishTag := startTag + float64(r.SizeBytes)/weight
	s.lastFinish[r.UserID] = finishTag

	wasEmpty := len(s.queues[r.UserID]) == 0
	s.queues[r.UserID] = append(s.queues[r.UserID], taggedRequest{req: r, finishTag: finishTag})
	if wasEmpty {
		s.activeFlows++
	}
}

// PickUser advances the virtual clock to now and returns the tenant
// holding the lowest finish tag among non-empty queues.
func (s *WeightedFair) PickUser(now float64) (int, bool) {
	if len(s.queues) == 0 || s.activeFlows == 0 {
		return 0, false
	}
	if now > s.virtualTime {
		s.virtualTime = now
	}

	bestUID := -1
	bestFinish := math.Inf(1)
	for uid, q := range s.queues {
		if len(q) == 0 {
			continue
		}
		if q[0].finishTag < bestFinish {
			bestFinish = q[0].finishTag
			bestUID = uid
		}
	}
	if bestUID < 0 {
		return 0, false
	}
	return bestUID, true
}

func (s *WeightedFair) Pop(uid int) (models.Request, bool) {
	if uid < 0 || uid >= len(s.queues) || len(s.queues[uid]) == 0 {
		return models.Request{}, false
	}
	tagged := s.queues[uid][0]
	s.queues[uid] = s.queues[uid][1:]
	if len(s.queues[uid]) == 0 {
		s.activeFlows--
	}
	return tagged.req, true
}

func (s *WeightedFair) Empty() bool {
	for _, q := range s.queues {
		if len(q) > 0 {
			return false
		}
	}
	return true
}
