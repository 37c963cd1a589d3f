// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package verifier

import (
	"context"

	"github.com/siemens/epdgdig/ping"
	"github.com/siemens/epdgdig/types"
)

// Validator abstracts the concrete address validation mechanism, normally a
// [ping.Pinger]; tests substitute their own stub verdicts.
type Validator interface {
	Validate(ctx context.Context, addr string)
	StopWait()
}

// Verifier verifies a stream of named addresses, caching verification results
// as to avoid unnecessary duplicate verification attempts for addresses shared
// between hostnames.
type Verifier struct {
	news      chan types.NamedAddress
	validator Validator
	checked   <-chan types.QualifiedAddress
}

// New returns a new Verifier using a [ping.Pinger] with a maximum number of
// parallel verification workers, together with the channel streaming the
// verification news.
func New(size int, options ...ping.PingerOption) (*Verifier, <-chan types.NamedAddress) {
	pinger, checked := ping.New(size, options...)
	return NewWithValidator(size, pinger, checked)
}

// NewWithValidator returns a new Verifier working on an arbitrary [Validator]
// and its verdict stream.
func NewWithValidator(size int, validator Validator, checked <-chan types.QualifiedAddress) (*Verifier, <-chan types.NamedAddress) {
	news := make(chan types.NamedAddress, size)
	return &Verifier{
		news:      news,
		validator: validator,
		checked:   checked,
	}, news
}

// Verify verifies the incoming stream of named addresses until the input
// channel is closed. It then waits for all enqueued verification tasks to
// complete, closes the news channel returned by New, and finally returns.
//
// In case the specified context is cancelled, Verify stops pulling off new
// verification tasks and returns as soon as possible, closing the news
// channel.
func (v *Verifier) Verify(ctx context.Context, in <-chan types.NamedAddress) {
	cache := newAddressCache()
	// As soon as new verdicts trickle in, let the cache fan them out to all
	// hostnames sharing the verified address.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case qa, ok := <-v.checked:
				if !ok {
					return
				}
				cache.verdict(ctx, qa, v.news)
			case <-ctx.Done():
				return
			}
		}
	}()
	// Process incoming named addresses and initiate verification tasks if an
	// address is seen for the first time. Addresses we've already seen, but
	// for different hostnames, are served from the cache.
slurp:
	for {
		select {
		case na, ok := <-in:
			if !ok {
				break slurp
			}
			if cache.add(ctx, na.WithQuality(types.Verifying, nil), v.news) {
				// Only schedule a verification task the first time we see
				// this particular address.
				v.validator.Validate(ctx, na.Address)
			}
		case <-ctx.Done():
			break slurp
		}
	}
	v.validator.StopWait()
	// Wait for all verdicts to have come through and passed on before calling
	// it a day. In case the context was cancelled we don't wait for the done
	// signal, but immediately close our "outlet".
	select {
	case <-ctx.Done():
	default:
		<-done
	}
	close(v.news)
}
