// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/siemens/epdgdig/audit"
	"github.com/siemens/epdgdig/dig"
	"github.com/siemens/epdgdig/dnsworker"
	"github.com/siemens/epdgdig/ping"
	"github.com/siemens/epdgdig/report"
	"github.com/siemens/epdgdig/source"
	"github.com/siemens/epdgdig/types"
	"github.com/siemens/epdgdig/verifier"

	"github.com/gosuri/uilive"
	"github.com/miekg/dns"
	"github.com/rs/zerolog/log"
)

// DigAndReport loads the operator table, derives the ePDG hostnames (filtered
// down to a single country if requested), digs them all under the configured
// concurrency ceiling, and finally persists the CSV report, the valid-name
// list, and the audit log into a fresh timestamped output directory.
func DigAndReport(ctx context.Context, countryCode string) error {
	operators, err := source.LoadFile(*operatorTable)
	if err != nil {
		return err
	}
	log.Debug().Int("operators", len(operators)).Msg("operator table loaded")
	targets := source.Targets(source.FilterByCountryCode(operators, countryCode))
	if len(targets) == 0 {
		return fmt.Errorf("no resolution targets: operator table yields no usable rows for country code %q", countryCode)
	}

	outdir := report.OutputDir(*outputBase, countryCode, time.Now())
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return fmt.Errorf("cannot create output directory: %w", err)
	}
	auditlog, err := audit.NewFile(filepath.Join(outdir, report.AuditLogFile))
	if err != nil {
		return err
	}

	addr, err := resolverAddress()
	if err != nil {
		return err
	}
	workers := int(*workerNumber)
	if len(targets) < workers {
		workers = len(targets)
	}
	log.Debug().
		Str("resolver", addr).
		Int("targets", len(targets)).
		Int("workers", workers).
		Msg("starting resolution")

	// Now lets put the required processing elements and their plumbing in
	// place.
	//
	//   - Digger producing one ResolutionRecord per ePDG hostname.
	//   - RecordMap consuming the records into the report view.
	//   - optionally a Verifier consuming the dug-up IPs, producing "verdicts"
	//     that feed the quality annotations of the live display.
	//
	// Rendering is done on the information collected by the RecordMap and the
	// quality tracker.
	dnsclnt := dns.Client{
		Net: *serverNet, // ...since there's some chance that we need more than just two queries
	}
	pool, err := dnsworker.New(ctx, workers, &dnsclnt, addr,
		dnsworker.WithQueryRate(int(*queryRate)))
	if err != nil {
		return fmt.Errorf("cannot connect to DNS resolver %s: %w", addr, err)
	}
	var completed atomic.Int64
	digger, dignews := dig.New(pool,
		dig.WithAuditLog(auditlog),
		dig.WithProgress(func(done, total int) {
			completed.Store(int64(done))
		}))

	recmap := dig.NewRecordMap()
	qualities := newQualityTracker()

	var vin chan types.NamedAddress
	verifyingDone := make(chan struct{})
	if *verify {
		vin = make(chan types.NamedAddress, workers)
		vf, vnews := verifier.New(workers,
			ping.WithCount(*pingCount),
			ping.AsUnprivileged())
		go vf.Verify(ctx, vin)
		go func() {
			defer close(verifyingDone)
			for na := range vnews {
				qualities.update(na)
			}
		}()
	} else {
		close(verifyingDone)
	}

	// Consume the digger's news: aggregate every record and tee the resolved
	// addresses off into verification, if enabled.
	trackingDone := make(chan struct{})
	go func() {
		defer close(trackingDone)
		defer func() {
			if vin != nil {
				close(vin)
			}
		}()
		for rec := range dignews {
			recmap.Update(rec)
			if vin == nil {
				continue
			}
			for _, addr := range rec.Addresses {
				select {
				case vin <- types.NamedAddress{
					Hostname:         rec.Hostname,
					QualifiedAddress: types.QualifiedAddress{Address: addr},
				}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	// The pipeline has fully drained once both tracking and (possibly
	// degenerate) verifying are done.
	pipelineDone := make(chan struct{})
	go func() {
		<-trackingDone
		<-verifyingDone
		close(pipelineDone)
	}()

	// Fire off the rendering goroutine; it stops only after the pipeline has
	// drained, rendering a final update before signalling the end of our
	// activities via renderingDone.
	renderingDone := make(chan struct{})
	go func() {
		defer close(renderingDone)
		term := uilive.New()
		renderer := newRenderer(term, len(targets))
		renderer.Indentation = int(*indentation)
		defer func() {
			renderer.Render(recmap, qualities, int(completed.Load()), true)
			term.Flush()
			renderer.Stop()
		}()
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				renderer.Render(recmap, qualities, int(completed.Load()), false)
				term.Flush()
			case <-pipelineDone:
				return
			}
		}
	}()

	// Finally feed the targets into the Digger, then close the news stream
	// and wait for all the data to pass the stages and get rendered one last
	// time.
	digger.DigTargets(ctx, targets)
	digger.StopWait()
	<-renderingDone

	if err := auditlog.Close(); err != nil {
		return fmt.Errorf("audit log: %w", err)
	}
	if err := report.Save(outdir, recmap.Records(), recmap.ValidHostnames()); err != nil {
		return err
	}
	log.Info().
		Str("results", filepath.Join(outdir, report.ResultsFile)).
		Str("validnames", filepath.Join(outdir, report.ValidNamesFile)).
		Str("auditlog", filepath.Join(outdir, report.AuditLogFile)).
		Int("hostnames", recmap.Len()).
		Int("valid", len(recmap.ValidHostnames())).
		Msg("resolved hostnames successfully")
	return nil
}

// resolverAddress returns the upstream DNS resolver address to use: either
// the explicitly configured one, or the first nameserver from the system's
// resolver configuration.
func resolverAddress() (string, error) {
	if *serverAddr != "" {
		return *serverAddr, nil
	}
	cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil {
		return "", fmt.Errorf("cannot determine system DNS resolver: %w", err)
	}
	if len(cfg.Servers) == 0 {
		return "", fmt.Errorf("no nameserver in /etc/resolv.conf; use --server")
	}
	return net.JoinHostPort(cfg.Servers[0], cfg.Port), nil
}
