package channel

import (
	"testing"

	"github.com/ssdfair/ssdsim/pkg/models"
)

func TestDispatchComputesServiceTimeFromBandwidth(t *testing.T) {
	d := New(1, 1, 1) // 1 MB/s aggregate -> 2^20 bytes/s on 1 channel
	r := models.Request{Op: models.OpRead, SizeBytes: 1 << 20}

	finish, err := d.Dispatch(0, r, 0.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if finish != 1.0 {
		t.Fatalf("expected finish at 1.0s, got %f", finish)
	}
}

func TestDispatchStartsAtMaxOfNowAndFreeAt(t *testing.T) {
	d := New(1, 1, 1)
	r := models.Request{Op: models.OpRead, SizeBytes: 1 << 20}

	if _, err := d.Dispatch(0, r, 0.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Channel busy until t=1.0; dispatching "now=0.5" should still start at 1.0.
	finish, err := d.Dispatch(0, r, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if finish != 2.0 {
		t.Fatalf("expected second request to start at free_at=1.0 and finish at 2.0, got %f", finish)
	}
}

func TestFirstFreeChannelReturnsLowestIndex(t *testing.T) {
	d := New(3, 1, 1)
	r := models.Request{Op: models.OpRead, SizeBytes: 1 << 20}
	d.Dispatch(0, r, 0.0)

	idx := d.FirstFreeChannel(0.0)
	if idx != 1 {
		t.Fatalf("expected lowest free index 1 (0 is busy), got %d", idx)
	}
}

func TestFirstFreeChannelReturnsNegativeOneWhenNoneFree(t *testing.T) {
	d := New(1, 1, 1)
	r := models.Request{Op: models.OpRead, SizeBytes: 1 << 20}
	d.Dispatch(0, r, 0.0)

	if idx := d.FirstFreeChannel(0.5); idx != -1 {
		t.Fatalf("expected no free channel, got %d", idx)
	}
}

func TestDispatchOutOfRangeIsError(t *testing.T) {
	d := New(2, 1, 1)
	_, err := d.Dispatch(5, models.Request{SizeBytes: 10}, 0)
	if err == nil {
		t.Fatal("expected an OutOfRangeError for channel index 5")
	}
	if _, ok := err.(*OutOfRangeError); !ok {
		t.Fatalf("expected *OutOfRangeError, got %T", err)
	}
}

func TestServiceTimeUsesSeparateReadWriteBandwidth(t *testing.T) {
	d := New(1, 2, 1) // read: 2 MB/s, write: 1 MB/s
	readReq := models.Request{Op: models.OpRead, SizeBytes: 1 << 20}
	writeReq := models.Request{Op: models.OpWrite, SizeBytes: 1 << 20}

	readFinish, _ := d.Dispatch(0, readReq, 0.0)
	if readFinish != 0.5 {
		t.Fatalf("expected read to take 0.5s at 2 MB/s, got %f", readFinish)
	}

	writeFinish, _ := d.Dispatch(0, writeReq, readFinish)
	if writeFinish-readFinish != 1.0 {
		t.Fatalf("expected write to take 1.0s at 1 MB/s, got %f", writeFinish-readFinish)
	}
}

func TestNonPositiveBandwidthYieldsZeroServiceTime(t *testing.T) {
	d := New(1, 0, 0)
	r := models.Request{Op: models.OpRead, SizeBytes: 4096}
	finish, err := d.Dispatch(0, r, 5.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if finish != 5.0 {
		t.Fatalf("expected zero service time to leave finish at now=5.0, got %f", finish)
	}
}

func TestZeroChannelsHasNoFreeChannel(t *testing.T) {
	d := New(0, 1, 1)
	if d.FirstFreeChannel(0) != -1 {
		t.Fatal("expected no free channel when device has zero channels")
	}
}
