// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/siemens/epdgdig/dig"
	"github.com/siemens/epdgdig/types"
)

// maxDetailRows limits the per-hostname detail rendering: for whole-world
// runs with thousands of hostnames only the progress summary is shown, while
// country-filtered runs get the full listing.
const maxDetailRows = 40

// qualityTracker keeps the most recent verification quality per resolved IP
// address, fed from the verifier's news stream.
type qualityTracker struct {
	mu sync.Mutex
	m  map[string]types.QualifiedAddress
}

func newQualityTracker() *qualityTracker {
	return &qualityTracker{m: map[string]types.QualifiedAddress{}}
}

// update records the quality of a verified address; regressions to a lesser
// quality are ignored.
func (t *qualityTracker) update(na types.NamedAddress) {
	if na.Address == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if known, ok := t.m[na.Address]; ok && na.Quality <= known.Quality {
		return
	}
	t.m[na.Address] = na.QualifiedAddress
}

// quality returns the most recent quality known for an address, defaulting to
// unverified.
func (t *qualityTracker) quality(addr string) types.QualifiedAddress {
	t.mu.Lock()
	defer t.mu.Unlock()
	if qa, ok := t.m[addr]; ok {
		return qa
	}
	return types.QualifiedAddress{Address: addr, Quality: types.Unverified}
}

// renderer renders the terminal display, based on the aggregated resolution
// records and the per-address verification qualities.
type renderer struct {
	Indentation int
	total       int
	w           io.Writer
	spinner     *spinner
}

// newRenderer returns a renderer object rendering to the specified io.Writer;
// total is the size of the resolution batch.
func newRenderer(w io.Writer, total int) *renderer {
	sp := newSpinner()
	sp.Start(*spinnerInterval)
	return &renderer{
		total:   total,
		w:       w,
		spinner: sp,
	}
}

// Stop the renderer's background ticker.
func (r *renderer) Stop() {
	r.spinner.Stop()
}

// Render the current resolution state: a progress line, and for small enough
// batches also the per-hostname details.
func (r *renderer) Render(recmap *dig.RecordMap, qualities *qualityTracker, completed int, final bool) {
	if final {
		fmt.Fprintf(r.w, "resolved %d ePDG hostnames, %d with addresses\n",
			completed, len(recmap.ValidHostnames()))
	} else {
		fmt.Fprintf(r.w, "%sresolving ePDG hostnames: %d/%d done, %d with addresses\n",
			r.spinner.Spinner(), completed, r.total, len(recmap.ValidHostnames()))
	}
	records := recmap.Records()
	if len(records) > maxDetailRows {
		return
	}
	// For neat display, determine the length of the longest hostname in the
	// data to display, so that the addresses column doesn't zig-zag around.
	maxlen := 0
	for _, rec := range records {
		if l := len(rec.Hostname); l > maxlen {
			maxlen = l
		}
	}
	for _, rec := range records {
		r.renderRecord(maxlen, rec, qualities)
	}
}

// renderRecord renders a single hostname with its qualified addresses.
func (r *renderer) renderRecord(labelwidth int, rec dig.ResolutionRecord, qualities *qualityTracker) {
	fmt.Fprintf(r.w, "%-*s%-*s", r.Indentation, "", labelwidth, hostnameStyle.Styled(rec.Hostname))
	if len(rec.Addresses) == 0 {
		fmt.Fprint(r.w, "  -")
	}
	for idx, addr := range rec.Addresses {
		if idx > 0 {
			fmt.Fprint(r.w, " ")
		}
		switch qa := qualities.quality(addr); qa.Quality {
		case types.Unverified:
			fmt.Fprintf(r.w, " %s", addr)
		case types.Verifying:
			fmt.Fprint(r.w, verifyingAddressStyle.Styled(" "+r.spinner.Spinner()+addr+" "))
		case types.Verified:
			fmt.Fprint(r.w, validAddressStyle.Styled(" ✔ "+addr+" "))
		case types.Invalid:
			fmt.Fprint(r.w, invalidAddressStyle.Styled(" × "+addr+" "))
		}
	}
	fmt.Fprintf(r.w, "  %s\n", networkNameStyle.Styled(ellipsize(rec.Network, 32)))
}

// ellipsize shortens overlong network names in detail rows.
func ellipsize(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max-1]) + "…"
}
