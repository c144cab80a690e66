package sim

import (
	"testing"

	"github.com/ssdfair/ssdsim/internal/channel"
	"github.com/ssdfair/ssdsim/internal/metrics"
	"github.com/ssdfair/ssdsim/internal/scheduler"
	"github.com/ssdfair/ssdsim/pkg/models"
)

const mib = 1024 * 1024

func runScenario(t *testing.T, schedName string, numChannels int, readBW, writeBW float64, users int, trace []models.Request) *metrics.Collector {
	t.Helper()
	sched := scheduler.New(schedName, 200, 1)
	if sched == nil {
		t.Fatalf("unknown scheduler %q", schedName)
	}
	sched.SetUsers(users)
	dev := channel.New(numChannels, readBW, writeBW)
	collector := metrics.NewCollector(users)
	d := New(sched, dev, collector, trace)
	d.Run()
	return collector
}

func TestSingleTenantSingleRequest(t *testing.T) {
	trace := []models.Request{
		{UserID: 0, Op: models.OpRead, Arrival: 0.0, SizeBytes: mib},
	}
	c := runScenario(t, "rr", 1, 1, 1, 1, trace)

	if c.Completed(0) != 1 {
		t.Fatalf("expected 1 completed request, got %d", c.Completed(0))
	}
	if c.AvgLatency(0) != 1.0 {
		t.Fatalf("expected avg_latency 1.0, got %f", c.AvgLatency(0))
	}
	if c.FairnessIndex() != 1.0 {
		t.Fatalf("expected fairness 1.0, got %f", c.FairnessIndex())
	}
}

func TestRoundRobinAlternationScenario(t *testing.T) {
	trace := []models.Request{
		{UserID: 0, Op: models.OpRead, Arrival: 0.0, SizeBytes: mib},
		{UserID: 0, Op: models.OpRead, Arrival: 0.0, SizeBytes: mib},
		{UserID: 1, Op: models.OpRead, Arrival: 0.0, SizeBytes: mib},
		{UserID: 1, Op: models.OpRead, Arrival: 0.0, SizeBytes: mib},
	}
	c := runScenario(t, "rr", 1, 1, 1, 2, trace)

	if c.Completed(0) != 2 || c.Completed(1) != 2 {
		t.Fatalf("expected 2 completions per tenant, got %d and %d", c.Completed(0), c.Completed(1))
	}
	if c.FairnessIndex() != 1.0 {
		t.Fatalf("expected fairness 1.0, got %f", c.FairnessIndex())
	}
}

func TestDRRWeightingScenario(t *testing.T) {
	sched := scheduler.New("drr", 200, 1)
	sched.SetUsers(2)
	sched.SetQuantum(4096)
	sched.SetWeights([]float64{3, 1})

	dev := channel.New(2, 1, 1)
	var trace []models.Request
	for i := 0; i < 64; i++ {
		trace = append(trace,
			models.Request{UserID: 0, Op: models.OpRead, Arrival: 0.0, SizeBytes: 4096},
			models.Request{UserID: 1, Op: models.OpRead, Arrival: 0.0, SizeBytes: 4096},
		)
	}
	collector := metrics.NewCollector(2)
	d := New(sched, dev, collector, trace)

	// Measure a window of the first 32 completions, stepping the driver
	// loop by hand: once both backlogs drain every request has completed
	// and the totals are equal whatever the policy.
	now, next := 0.0, 0
	for k := 0; k < 32; k++ {
		next = d.admitArrivals(next, now)
		d.dispatchLoop(now)
		nextNow, ok := d.advanceTime(next, len(trace))
		if !ok {
			break
		}
		now = nextNow
	}

	total := collector.TotalBytes(0) + collector.TotalBytes(1)
	if total == 0 {
		t.Fatal("expected some bytes served")
	}
	ratio := float64(collector.TotalBytes(0)) / float64(collector.TotalBytes(1))
	if ratio < 2.5 || ratio > 3.5 {
		t.Fatalf("expected served-byte ratio near 3:1, got %f", ratio)
	}
}

func TestWFQStarvationResistanceScenario(t *testing.T) {
	sched := scheduler.New("qfq", 200, 1)
	sched.SetUsers(2)
	sched.SetWeights([]float64{1, 1000})

	dev := channel.New(1, 1, 1)
	trace := make([]models.Request, 0, 101)
	for i := 0; i < 100; i++ {
		trace = append(trace, models.Request{UserID: 0, Op: models.OpRead, Arrival: 0.0, SizeBytes: 4096})
	}
	trace = append(trace, models.Request{UserID: 1, Op: models.OpRead, Arrival: 0.0, SizeBytes: 4096})

	collector := metrics.NewCollector(2)
	d := New(sched, dev, collector, trace)
	d.Run()

	if collector.Completed(1) != 1 {
		t.Fatalf("expected tenant 1's single request to complete, got %d", collector.Completed(1))
	}
	// Tenant 1's far lower finish tag means it should complete long before
	// tenant 0 drains all 100 requests. Every request has completed by the
	// end of the run, so compare completion times instead: on the single
	// channel, tenant 1's request (arriving at t=0) finishes after k+1
	// service times when k tenant-0 requests precede it.
	service := 4096.0 / mib
	if collector.AvgLatency(1) >= 100*service {
		t.Fatalf("expected tenant 1 serviced well before tenant 0 exhausts its backlog, tenant 1 finished at %f", collector.AvgLatency(1))
	}
}

func TestEqualTimeArrivalAndCompletionAdmittedSameIteration(t *testing.T) {
	// Single 1 MiB read occupies the one channel for exactly 1 second.
	// A second request for a different tenant arrives at t=1.0, exactly
	// when the channel frees — it must be dispatched in the same
	// iteration, not delayed by a tick.
	trace := []models.Request{
		{UserID: 0, Op: models.OpRead, Arrival: 0.0, SizeBytes: mib},
		{UserID: 1, Op: models.OpRead, Arrival: 1.0, SizeBytes: mib},
	}
	c := runScenario(t, "rr", 1, 1, 1, 2, trace)

	if c.Completed(0) != 1 || c.Completed(1) != 1 {
		t.Fatalf("expected both requests to complete, got %d and %d", c.Completed(0), c.Completed(1))
	}
	if c.AvgLatency(1) != 1.0 {
		t.Fatalf("expected tenant 1's request to start immediately at t=1.0 (latency 1.0), got %f", c.AvgLatency(1))
	}
}

func TestFairnessIndexExcludesIdleTenants(t *testing.T) {
	trace := []models.Request{
		{UserID: 0, Op: models.OpRead, Arrival: 0.0, SizeBytes: mib},
		{UserID: 1, Op: models.OpRead, Arrival: 0.0, SizeBytes: mib},
	}
	// 3 configured tenants, only 0 and 1 generate work.
	c := runScenario(t, "rr", 1, 1, 1, 3, trace)

	if c.FairnessIndex() != 1.0 {
		t.Fatalf("expected fairness 1.0 excluding the idle third tenant, got %f", c.FairnessIndex())
	}
}

func TestConservationOfDispatchedBytes(t *testing.T) {
	trace := []models.Request{
		{UserID: 0, Op: models.OpRead, Arrival: 0.0, SizeBytes: 4096},
		{UserID: 1, Op: models.OpWrite, Arrival: 0.5, SizeBytes: 8192},
		{UserID: 0, Op: models.OpRead, Arrival: 1.0, SizeBytes: 2048},
	}
	c := runScenario(t, "qfq", 2, 100, 100, 2, trace)

	var total uint64
	for u := 0; u < c.NumTenants(); u++ {
		total += c.TotalBytes(u)
	}
	var want uint64
	for _, r := range trace {
		want += uint64(r.SizeBytes)
	}
	if total != want {
		t.Fatalf("expected total dispatched bytes %d, got %d", want, total)
	}
}

func TestDeterminismAcrossIdenticalRuns(t *testing.T) {
	trace := []models.Request{
		{UserID: 0, Op: models.OpRead, Arrival: 0.0, SizeBytes: 4096},
		{UserID: 1, Op: models.OpRead, Arrival: 0.1, SizeBytes: 8192},
		{UserID: 0, Op: models.OpWrite, Arrival: 0.2, SizeBytes: 2048},
	}
	a := runScenario(t, "drr", 2, 50, 50, 2, append([]models.Request{}, trace...))
	b := runScenario(t, "drr", 2, 50, 50, 2, append([]models.Request{}, trace...))

	for u := 0; u < 2; u++ {
		if a.Completed(u) != b.Completed(u) || a.TotalBytes(u) != b.TotalBytes(u) || a.AvgLatency(u) != b.AvgLatency(u) {
			t.Fatalf("expected identical results for tenant %d across runs", u)
		}
	}
}
