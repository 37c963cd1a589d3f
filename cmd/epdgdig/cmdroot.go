// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	operatorTable   *string
	serverAddr      *string
	serverNet       *string
	outputBase      *string
	workerNumber    *uint
	queryRate       *uint
	verify          *bool
	pingCount       *uint
	indentation     *uint
	spinnerInterval *time.Duration
	debug           *bool
)

func newRootCmd() (rootCmd *cobra.Command) {
	rootCmd = &cobra.Command{
		Use:   "epdgdig [flags] [countrycode]",
		Short: "epdgdig digs and optionally validates the ePDG hostnames of all mobile network operators",
		Long: `epdgdig derives the standardized ePDG hostnames for the mobile network
operators of an MCC/MNC operator table, resolves their CNAME chains and
IPv4/IPv6 addresses with bounded concurrency, and writes a CSV report, the
list of valid hostnames, and an audit log of all DNS queries. An optional
country (calling) code argument restricts digging to a single country.`,
		Version: "1.0",
		Args:    cobra.MaximumNArgs(1),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if *operatorTable == "" {
				return fmt.Errorf("--input operator table is required")
			}
			if *workerNumber < 1 || *workerNumber > 1024 {
				return fmt.Errorf("--workers out of range [1..1024]")
			}
			if *indentation > 80 {
				return fmt.Errorf("--indent width out of range [0..80]")
			}
			if *spinnerInterval < 10*time.Millisecond {
				return fmt.Errorf("--spinner must be at least 10ms")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if *debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				log.Debug().Msg("debug logging enabled")
			}
			countryCode := ""
			if len(args) == 1 {
				countryCode = args[0]
			}
			return DigAndReport(context.Background(), countryCode)
		},
	}
	// Sets up the flags.
	operatorTable = rootCmd.PersistentFlags().String(
		"input", "", "CSV operator table with MCC, MNC, Country Code, and Network columns")
	serverAddr = rootCmd.PersistentFlags().String(
		"server", "", "DNS resolver address as host:port (default: first resolver from /etc/resolv.conf)")
	serverNet = rootCmd.PersistentFlags().String(
		"net", "tcp", "network protocol for DNS queries (\"tcp\" or \"udp\")")
	outputBase = rootCmd.PersistentFlags().String(
		"out", ".", "base directory for the per-run output directory")
	workerNumber = rootCmd.PersistentFlags().Uint(
		"workers", 128, "maximum number of concurrent DNS resolution workers")
	queryRate = rootCmd.PersistentFlags().Uint(
		"qps", 0, "limit on DNS queries per second, 0 disables pacing")
	verify = rootCmd.PersistentFlags().Bool(
		"verify", false, "verify resolved addresses by pinging them")
	pingCount = rootCmd.PersistentFlags().Uint(
		"ping-count", 3, "number of pings per address verification")
	indentation = rootCmd.PersistentFlags().Uint(
		"indent", 3, "indentation width of the live display")
	spinnerInterval = rootCmd.PersistentFlags().Duration(
		"spinner", 100*time.Millisecond, "spinner interval")
	debug = rootCmd.PersistentFlags().Bool(
		"debug", false, "enable debugging output")
	return
}

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
