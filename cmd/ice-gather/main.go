// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Command ice-gather gathers local ICE candidates and prints the resulting
// session description.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	ice "github.com/pion/icelite"
	"github.com/pion/logging"
	"github.com/spf13/cobra"
)

var errGatherTimeout = errors.New("gathering did not finish in time")

type gatherOptions struct {
	urls       []string
	username   string
	password   string
	loopback   bool
	ipv6       bool
	timeout    time.Duration
	level      string
	candidates bool
}

func newGatherCmd() *cobra.Command {
	opts := &gatherOptions{}
	cmd := &cobra.Command{
		Use:          "ice-gather",
		SilenceUsage: true,
		Short:        "gather local ICE candidates",
		Long:         `ice-gather binds host candidates on every usable interface, queries the given STUN and TURN servers and prints the local session description.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGather(cmd, opts)
		},
	}
	fs := cmd.Flags()
	fs.StringSliceVarP(&opts.urls, "url", "u", nil, "STUN or TURN server URL, e.g. stun:stun.l.google.com:19302 (repeatable)")
	fs.StringVar(&opts.username, "username", "", "username for TURN servers")
	fs.StringVar(&opts.password, "password", "", "password for TURN servers")
	fs.BoolVar(&opts.loopback, "loopback", false, "gather on loopback interfaces")
	fs.BoolVar(&opts.ipv6, "ipv6", false, "gather IPv6 candidates too")
	fs.DurationVarP(&opts.timeout, "timeout", "t", 10*time.Second, "overall gathering timeout")
	fs.StringVar(&opts.level, "level", "warn", "log level (trace, debug, info, warn, error)")
	fs.BoolVar(&opts.candidates, "candidates", false, "print each candidate as it is gathered")

	return cmd
}

func runGather(cmd *cobra.Command, opts *gatherOptions) error {
	loggerFactory := logging.NewDefaultLoggerFactory()
	loggerFactory.DefaultLogLevel = logging.LogLevelWarn
	if opts.level != "" {
		loggerFactory.DefaultLogLevel = parseLevel(opts.level)
	}

	var urls []*ice.URL
	for _, raw := range opts.urls {
		u, err := ice.ParseURL(raw)
		if err != nil {
			return fmt.Errorf("invalid server URL %q: %w", raw, err)
		}
		u.Username, u.Password = opts.username, opts.password
		urls = append(urls, u)
	}

	networkTypes := []ice.NetworkType{ice.NetworkTypeUDP4}
	if opts.ipv6 {
		networkTypes = append(networkTypes, ice.NetworkTypeUDP6)
	}

	agent, err := ice.NewAgent(&ice.AgentConfig{
		Urls:            urls,
		NetworkTypes:    networkTypes,
		IncludeLoopback: opts.loopback,
		LoggerFactory:   loggerFactory,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = agent.Close()
	}()

	out := cmd.OutOrStdout()
	if opts.candidates {
		agent.OnCandidate(func(c *ice.Candidate) {
			fmt.Fprintf(out, "candidate: %s\n", c) //nolint:errcheck
		})
	}
	done := make(chan struct{})
	agent.OnGatheringDone(func() {
		close(done)
	})

	if err = agent.GatherCandidates(); err != nil {
		return err
	}

	select {
	case <-done:
	case <-time.After(opts.timeout):
		return errGatherTimeout
	}

	desc, err := agent.GetLocalDescription()
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, desc)

	return err
}

func parseLevel(level string) logging.LogLevel {
	switch level {
	case "trace":
		return logging.LogLevelTrace
	case "debug":
		return logging.LogLevelDebug
	case "info":
		return logging.LogLevelInfo
	case "error":
		return logging.LogLevelError
	case "disabled":
		return logging.LogLevelDisabled
	}

	return logging.LogLevelWarn
}

func main() {
	if err := newGatherCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
