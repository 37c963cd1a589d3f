// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package ping

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/siemens/epdgdig/types"

	"github.com/gammazero/workerpool"
	"github.com/go-ping/ping"
)

// Pinger validates IP addresses by pinging them and then streaming the final
// [types.QualifiedAddress] verdicts to a result/output channel. Pingers use a
// goroutine-limited worker pool.
type Pinger struct {
	count               int           // number of pings to send.
	interval            time.Duration // distance between pings.
	thresholdPercentage uint          // percentage of successful pings for a valid IP address.
	unprivileged        bool          // if true, uses UDP-based pings instead of privileged ICMPs.

	workers  *workerpool.WorkerPool
	verdicts chan types.QualifiedAddress
	stopOnce sync.Once
}

// PingerOption can be passed to New when creating new [Pinger] objects.
type PingerOption func(*Pinger)

// New returns a new [Pinger] with a maximum worker pool of the specified size
// as well as a verdict stream. The verdict channel will not only send the
// final IP address verdicts, but also the addresses entering verification.
//
// The new pinger defaults to pinging 3 times at intervals of 1s between each
// ping. The validity threshold defaults to 50(%).
//
// The pinger can be configured during creation using several options:
//   - [WithCount]
//   - [WithInterval]
//   - [WithThresholdPercentage]
//   - [AsUnprivileged]
func New(size int, options ...PingerOption) (*Pinger, <-chan types.QualifiedAddress) {
	verdicts := make(chan types.QualifiedAddress, size)
	pinger := &Pinger{
		count:               3,
		interval:            time.Second,
		thresholdPercentage: 50,
		workers:             workerpool.New(size),
		verdicts:            verdicts,
	}
	for _, opt := range options {
		opt(pinger)
	}
	return pinger, verdicts
}

// WithCount sets the number of pings for testing reachability of an IP
// address.
func WithCount(count uint) PingerOption {
	return func(p *Pinger) {
		p.count = int(count)
	}
}

// WithInterval sets the interval between consecutive pings.
func WithInterval(interval time.Duration) PingerOption {
	return func(p *Pinger) {
		p.interval = interval
	}
}

// AsUnprivileged tells the Pinger to carry out unprivileged pings using UDP
// instead of ICMP packets.
func AsUnprivileged() PingerOption {
	return func(p *Pinger) {
		p.unprivileged = true
	}
}

// WithThresholdPercentage takes a percentage between 0 and 100 that specifies
// the percentage of successful ping responses required in order to validate
// the pinged IP address.
func WithThresholdPercentage(threshold uint) PingerOption {
	if threshold > 100 {
		panic(fmt.Errorf("Pinger: threshold must be a percentage between 0 <= threshold <= 100, got: %d",
			threshold))
	}
	return func(p *Pinger) {
		p.thresholdPercentage = threshold
	}
}

// Validate the specified IP address by pinging it. The verdict is then sent to
// the channel returned together with the newly created [Pinger]. Additionally,
// an initial notice for the address entering validation is sent beforehand.
//
// An IP address is considered to be invalid if the percentage of successfully
// received ping replies doesn't reach or cross the Pinger's threshold.
//
// The validation process is automatically aborted when the specified context
// either meets its deadline or gets cancelled; the IP address is then
// considered to be Invalid. If the context gets cancelled, pending address
// verdicts won't be echoed to the verdict stream at all; spurious verdicts
// might still appear due to the uncontrollable order of verdict sending and
// context cancellation detection.
func (p *Pinger) Validate(ctx context.Context, addr string) {
	verdict := types.QualifiedAddress{Address: addr, Quality: types.Verifying}
	// Allow cancelling a blocked verdict send to avoid leaking goroutines.
	select {
	case p.verdicts <- verdict: // not yet the final one ;)
	case <-ctx.Done():
		return
	}
	p.workers.Submit(func() {
		verdict := verdict.WithQuality(types.Invalid, nil)
		defer func() {
			// Again, allow cancelling a blocked verdict send.
			select {
			case p.verdicts <- verdict: // final one this time.
			case <-ctx.Done():
			}
		}()
		if err := p.ping(ctx, verdict.Address); err != nil {
			verdict.Err = err
			return
		}
		verdict = verdict.WithQuality(types.Verified, nil)
	})
}

// ping runs the actual ping probes for a single address, returning nil if the
// address reached the reply threshold.
func (p *Pinger) ping(ctx context.Context, addr string) error {
	// A quick and non-blocking check to see if the context has been cancelled
	// before we start our work...
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	pinger, err := ping.NewPinger(addr)
	if err != nil {
		return err
	}
	pinger.SetPrivileged(!p.unprivileged)
	pinger.Count = p.count
	pinger.Interval = p.interval
	// Always limit waiting for the last ping to get reflected (or not)!
	pinger.Timeout = time.Duration(int64(p.interval) * int64(p.count+2))
	// While the ping is running, monitor the context in case it becomes "done"
	// by either getting cancelled or reaching its deadline. The done channel
	// here works "the other way round" in that it terminates the concurrent
	// context monitoring.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pinger.Stop()
		case <-done:
		}
	}()
	if err := pinger.Run(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	stats := pinger.Statistics()
	if stats.PacketsRecv < pinger.Count*int(p.thresholdPercentage)/100 {
		return errors.New("no replies or too many losses")
	}
	return nil
}

// StopWait waits for all queued validation tasks to get processed and then
// finally closes the verdict channel.
func (p *Pinger) StopWait() {
	p.stopOnce.Do(func() {
		p.workers.StopWait()
		close(p.verdicts)
	})
}
