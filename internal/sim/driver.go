// Package sim hosts the event queue and the simulation driver that ties
// the scheduler family, the channel model, and the metrics aggregator
// together into the discrete-event loop, grounded in the loop shape of
// _examples/GoSim-25-26J-441-simulation-core/internal/engine/engine.go
// (minus its real-time throttling, which spec.md's non-goals exclude)
// and the exact ordering of _examples/original_source/src/main.cpp.
package sim

import (
	"context"
	"log/slog"

	"github.com/ssdfair/ssdsim/internal/channel"
	"github.com/ssdfair/ssdsim/internal/metrics"
	"github.com/ssdfair/ssdsim/internal/scheduler"
	"github.com/ssdfair/ssdsim/pkg/logger"
	"github.com/ssdfair/ssdsim/pkg/models"
)

// Driver runs one simulation to completion: admitting trace arrivals,
// dispatching through the scheduler onto free channels, and advancing the
// simulated clock strictly in the order spec.md §4.4 prescribes.
type Driver struct {
	sched     scheduler.Scheduler
	device    *channel.Device
	collector *metrics.Collector
	events    *EventQueue
	trace     []models.Request
	log       *slog.Logger
}

// New constructs a Driver over sched and device, reporting completions to
// collector. trace must already be sorted by (arrival ascending, user_id
// ascending), the contract pkg/trace's Parse/Load guarantee.
func New(sched scheduler.Scheduler, device *channel.Device, collector *metrics.Collector, trace []models.Request) *Driver {
	return &Driver{
		sched:     sched,
		device:    device,
		collector: collector,
		events:    NewEventQueue(),
		trace:     trace,
		log:       logger.Default,
	}
}

// Run executes the full driver loop until termination: the trace cursor
// has reached the end, the scheduler holds no more work, and the event
// queue is empty. On a device with no channels nothing can be dispatched,
// so the loop ends once the trace is exhausted.
func (d *Driver) Run() {
	d.RunContext(context.Background())
}

// RunContext is Run with cooperative cancellation: ctx is checked once per
// outer loop iteration, so a caller running a simulation on behalf of an
// async request (internal/api's executor) can abandon it between dispatch
// rounds without waiting for the trace to exhaust.
func (d *Driver) RunContext(ctx context.Context) {
	now := 0.0
	i := 0
	n := len(d.trace)

	d.log.Debug("simulation starting", "requests", n, "channels", d.device.NumChannels())

	for {
		select {
		case <-ctx.Done():
			d.log.Debug("simulation cancelled", "events_processed", d.events.nextSeq)
			return
		default:
		}

		i = d.admitArrivals(i, now)
		d.dispatchLoop(now)

		nextNow, ok := d.advanceTime(i, n)
		if !ok {
			// A policy that declined to pick (DRR still accumulating
			// deficit) can leave queued work with nothing in flight;
			// scan again at the same now until it is dispatched.
			if d.sched.Empty() || d.device.NumChannels() == 0 {
				break
			}
			continue
		}
		now = nextNow
	}

	d.log.Debug("simulation complete", "events_processed", d.events.nextSeq)
}

// admitArrivals enqueues every trace record whose arrival has reached
// now, advancing and returning the trace cursor.
func (d *Driver) admitArrivals(i int, now float64) int {
	for i < len(d.trace) && d.trace[i].Arrival <= now {
		d.sched.Enqueue(d.trace[i])
		i++
	}
	return i
}

// dispatchLoop repeatedly pairs a free channel with the scheduler's next
// pick until either runs dry, assigning start/finish times and scheduling
// the resulting completion event.
func (d *Driver) dispatchLoop(now float64) {
	for {
		ch := d.device.FirstFreeChannel(now)
		if ch < 0 {
			return
		}
		uid, ok := d.sched.PickUser(now)
		if !ok {
			return
		}
		r, ok := d.sched.Pop(uid)
		if !ok {
			// Defensive: pick_user obligates a matching pop to succeed.
			return
		}

		r.Start = now
		finish, err := d.device.Dispatch(ch, r, now)
		if err != nil {
			d.log.Error("dispatch failed", "channel", ch, "error", err)
			return
		}
		r.Finish = finish
		d.events.Push(finish, r)
	}
}

// advanceTime moves the simulated clock to the next point of interest:
// the earliest pending completion, handed to the metrics collector, or
// the next trace arrival if the event queue is empty. ok is false once
// the trace is exhausted and no completion remains pending.
func (d *Driver) advanceTime(i, n int) (nextNow float64, ok bool) {
	if !d.events.Empty() {
		ev := d.events.Pop()
		d.collector.Record(ev.Request)
		return ev.Time, true
	}
	if i < n {
		return d.trace[i].Arrival, true
	}
	return 0, false
}
