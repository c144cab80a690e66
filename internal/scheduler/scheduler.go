// Package scheduler implements the admission scheduling policy family:
// round robin, deficit round robin, weighted fair queueing, and the
// start-gap fairness wrapper, grounded on
// _examples/original_source/include/scheduler.hpp and scheduler_impl.hpp.
//
// Every policy shares one contract with internal/sim's driver: enqueue
// admits a request, PickUser names the tenant the driver should dispatch
// next without removing anything, and Pop removes and returns that
// tenant's head request. PickUser never changes queue contents, but it may
// advance policy state: deficit round robin credits deficits during its
// scan and the start-gap wrapper counts picks toward its next rotation, so
// repeated calls with no intervening Pop or Enqueue can return different
// answers.
package scheduler

import "github.com/ssdfair/ssdsim/pkg/models"

// Scheduler is the uniform interface every admission policy implements.
type Scheduler interface {
	// SetUsers resets the scheduler to track n tenants, discarding any
	// queued requests.
	SetUsers(n int)

	// SetWeights assigns per-tenant weights. Policies that ignore weights
	// (plain round robin) accept the call as a no-op.
	SetWeights(weights []float64)

	// SetQuantum sets the byte quantum used by deficit round robin.
	// Policies that don't use a quantum accept the call as a no-op.
	SetQuantum(q float64)

	// Enqueue admits r. A user id outside [0, n) is silently dropped, the
	// same defensive behavior as the original scheduler implementations.
	Enqueue(r models.Request)

	// PickUser selects the tenant to dispatch next at simulated time now,
	// or reports ok=false if no tenant is currently dispatchable.
	PickUser(now float64) (uid int, ok bool)

	// Pop removes and returns uid's head request. ok is false if uid has
	// no queued request.
	Pop(uid int) (models.Request, bool)

	// Empty reports whether every tenant's queue is empty.
	Empty() bool
}

// New constructs the named scheduler. Recognized names are "rr" (round
// robin), "drr" (deficit round robin), "qfq" (weighted fair queueing),
// and "sgfs" (the start-gap wrapper composed over a qfq base, per
// spec.md §4.3.4). An unrecognized name returns nil; callers should
// validate names against config.ValidSchedulerNames before calling New.
func New(name string, rotateEvery, gap int) Scheduler {
	switch name {
	case "rr":
		return NewRoundRobin()
	case "drr":
		return NewDeficitRoundRobin()
	case "qfq":
		return NewWeightedFair()
	case "sgfs":
		return NewStartGap(NewWeightedFair(), rotateEvery, gap)
	default:
		return nil
	}
}
