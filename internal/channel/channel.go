// Package channel implements the SSD channel model: a fixed pool of
// non-preemptive service stations, each tracked by a single monotonic
// free_at timestamp (spec.md §4.1). Channels are independent; any queueing
// across a channel's own backlog is the scheduler's responsibility, not
// this package's.
package channel

import (
	"fmt"

	"github.com/ssdfair/ssdsim/pkg/models"
)

const bytesPerMB = 1024.0 * 1024.0

// OutOfRangeError is raised when the simulation driver dispatches to a
// channel index outside [0, num_channels). The driver is the only caller of
// Dispatch and always supplies an index returned by FirstFreeChannel, so in
// correct use this is a programming error (spec.md §7).
type OutOfRangeError struct {
	Index, NumChannels int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("channel index %d out of range [0, %d)", e.Index, e.NumChannels)
}

// state is a single channel's only piece of mutable state: the time it
// becomes free again. It is monotonically non-decreasing.
type state struct {
	freeAt float64
}

// Device models a multi-channel flash device with per-channel service time
// derived from aggregate read/write bandwidth split evenly across channels.
type Device struct {
	channels    []state
	readBWMBps  float64
	writeBWMBps float64
	numChannels int
}

// New constructs a Device with numChannels channels and the given aggregate
// bandwidths. A non-positive channel count yields a Device with no
// channels; non-positive bandwidth yields a zero service time
// (spec.md §4.1).
func New(numChannels int, readBWMBps, writeBWMBps float64) *Device {
	n := numChannels
	if n < 0 {
		n = 0
	}
	return &Device{
		channels:    make([]state, n),
		readBWMBps:  readBWMBps,
		writeBWMBps: writeBWMBps,
		numChannels: n,
	}
}

// NumChannels returns the channel count the device was constructed with.
func (d *Device) NumChannels() int {
	return d.numChannels
}

// FirstFreeChannel returns the lowest-indexed channel whose free_at <= now,
// or -1 if none are free. The lowest-index tie-break is deliberate: it
// keeps replay deterministic across runs.
func (d *Device) FirstFreeChannel(now float64) int {
	for i := range d.channels {
		if d.channels[i].freeAt <= now {
			return i
		}
	}
	return -1
}

// IsFree reports whether channel idx is available at time now.
func (d *Device) IsFree(idx int, now float64) bool {
	if idx < 0 || idx >= len(d.channels) {
		return false
	}
	return d.channels[idx].freeAt <= now
}

// FreeAt returns the timestamp at which channel idx becomes idle.
func (d *Device) FreeAt(idx int) float64 {
	if idx < 0 || idx >= len(d.channels) {
		return 0
	}
	return d.channels[idx].freeAt
}

// Dispatch applies request r to channel channelIdx at time now: it sets
// start = max(now, channel.free_at), advances channel.free_at to
// start+service, and returns the new free_at (the request's finish time).
// channelIdx out of [0, NumChannels()) is a fatal OutOfRangeError.
func (d *Device) Dispatch(channelIdx int, r models.Request, now float64) (float64, error) {
	if channelIdx < 0 || channelIdx >= len(d.channels) {
		return 0, &OutOfRangeError{Index: channelIdx, NumChannels: len(d.channels)}
	}

	service := d.serviceTime(r.Op, r.SizeBytes)
	ch := &d.channels[channelIdx]
	start := now
	if ch.freeAt > start {
		start = ch.freeAt
	}
	ch.freeAt = start + service
	return ch.freeAt, nil
}

func (d *Device) serviceTime(op models.OpKind, sizeBytes uint32) float64 {
	bw := d.readBWMBps
	if op == models.OpWrite {
		bw = d.writeBWMBps
	}
	rate := bytesPerSecond(bw, d.numChannels)
	if rate <= 0 {
		return 0
	}
	return float64(sizeBytes) / rate
}

func bytesPerSecond(bwMBps float64, numChannels int) float64 {
	if numChannels <= 0 || bwMBps <= 0 {
		return 0
	}
	return (bwMBps / float64(numChannels)) * bytesPerMB
}
