// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package verifier

import (
	"context"
	"sync"

	"github.com/siemens/epdgdig/types"
)

// addressCache caches the verification state of the individual IP addresses
// so that unnecessary duplicate verification attempts are avoided, yet
// verification verdicts get distributed at once to all hostnames sharing an
// address.
type addressCache struct {
	mu sync.Mutex
	m  map[string]*cacheEntry // IP address -> quality plus pending hostname consumers
}

// cacheEntry records the most recent quality of one IP address and the
// hostnames that want to learn about updates of that quality.
type cacheEntry struct {
	q         types.Quality
	err       error    // optional error reason for invalid quality
	consumers []string // hostnames that want to consume quality updates.
}

func newAddressCache() *addressCache {
	return &addressCache{
		m: map[string]*cacheEntry{},
	}
}

// add registers the named address with the cache and returns true if its
// address has never been seen before, so that the caller should now schedule
// a verification. For an address already cached, the hostname is registered as
// a further consumer; if the address has already reached a terminal quality,
// that verdict is immediately replayed to news for this hostname.
func (c *addressCache) add(ctx context.Context, na types.NamedAddress, news chan<- types.NamedAddress) bool {
	c.mu.Lock()
	entry, ok := c.m[na.Address]
	if !ok {
		// Note: a new address always enters in quality Unverified or
		// Verifying, so there will always be a later quality update to be
		// expected.
		c.m[na.Address] = &cacheEntry{
			q:         na.Quality,
			consumers: []string{na.Hostname},
		}
		c.mu.Unlock()
		select {
		case news <- na:
		case <-ctx.Done():
		}
		return true
	}
	known := false
	for _, consumer := range entry.consumers {
		if consumer == na.Hostname {
			known = true
			break
		}
	}
	if !known && entry.q.IsPending() {
		entry.consumers = append(entry.consumers, na.Hostname)
	}
	q, err := entry.q, entry.err
	c.mu.Unlock()
	// Replay the quality this address has already reached, so the new
	// hostname doesn't get stuck at "unverified" in the consumer's books.
	select {
	case news <- na.WithQuality(q, err):
	case <-ctx.Done():
	}
	return false
}

// verdict applies a quality update for a (bare) address, notifying all
// hostnames registered for the address. Terminal verdicts clear the consumer
// registration list, as later duplicates are then replayed directly by add.
func (c *addressCache) verdict(ctx context.Context, qa types.QualifiedAddress, news chan<- types.NamedAddress) {
	c.mu.Lock()
	entry, ok := c.m[qa.Address]
	if !ok || qa.Quality <= entry.q {
		c.mu.Unlock()
		return
	}
	entry.q = qa.Quality
	entry.err = qa.Err
	consumers := entry.consumers
	if !qa.Quality.IsPending() {
		entry.consumers = nil
	}
	c.mu.Unlock()
	for _, consumer := range consumers {
		select {
		case news <- types.NamedAddress{Hostname: consumer, QualifiedAddress: qa}:
		case <-ctx.Done(): // bail out immediately.
			return
		}
	}
}
