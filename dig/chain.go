// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package dig

import (
	"context"
	"errors"
	"strings"

	"github.com/siemens/epdgdig/audit"
	"github.com/siemens/epdgdig/dnsworker"
)

// ChainResult is the outcome of resolving a single hostname: the chain of
// names visited while following CNAME indirections (starting hostname first,
// free of duplicates), and the addresses collected for the terminal name of
// the chain (A records first, then AAAA).
type ChainResult struct {
	Names     []string
	Addresses []string
}

// Terminal returns the last name of the chain, against which the address
// lookups were performed.
func (cr ChainResult) Terminal() string {
	return cr.Names[len(cr.Names)-1]
}

// resolveChain follows hostname's CNAME chain until a terminal name is reached
// or the chain closes a cycle, then collects the terminal name's A and AAAA
// records. Every query attempt and its outcome is logged. No DNS failure
// escapes: a hostname without any resolvable address is a valid, complete
// outcome with an empty address list.
func resolveChain(ctx context.Context, r dnsworker.Resolver, hostname string, log *audit.Log) ChainResult {
	names := []string{hostname}
	seen := map[string]bool{hostname: true}
	current := hostname
	for {
		target, err := r.LookupCNAME(ctx, current)
		if err != nil {
			if errors.Is(err, dnsworker.ErrNoRecord) {
				log.Printf("No CNAME record for %s: %v", current, err)
			} else {
				log.Printf("CNAME query for %s failed: %v", current, err)
			}
			break
		}
		log.Printf("%s is a CNAME for %s", current, target)
		if seen[target] {
			break // cycle: stop chain-following, keep current as the terminal name.
		}
		seen[target] = true
		names = append(names, target)
		current = target
	}
	var addrs []string
	// A and AAAA lookups are independent: absence or failure of one record
	// type does not block the other.
	if a, err := r.LookupA(ctx, current); err != nil {
		if errors.Is(err, dnsworker.ErrNoRecord) {
			log.Printf("No A records for %s: %v", current, err)
		} else {
			log.Printf("A query for %s failed: %v", current, err)
		}
	} else {
		log.Printf("%s has A records: %s", current, strings.Join(a, ", "))
		addrs = append(addrs, a...)
	}
	if aaaa, err := r.LookupAAAA(ctx, current); err != nil {
		if errors.Is(err, dnsworker.ErrNoRecord) {
			log.Printf("No AAAA records for %s: %v", current, err)
		} else {
			log.Printf("AAAA query for %s failed: %v", current, err)
		}
	} else {
		log.Printf("%s has AAAA records: %s", current, strings.Join(aaaa, ", "))
		addrs = append(addrs, aaaa...)
	}
	return ChainResult{Names: names, Addresses: addrs}
}
