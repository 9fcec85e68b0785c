// Package cmd implements the command-line interface of the nxds relay. It
// provides a hierarchical command structure with operations for running the
// server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Starts and configures the relay server
//   - client: Client commands (get, set, enqueue, subscribe, perf)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set as environment variable NXDS_<FLAG>, e.g.
// NXDS_REDIS_ADDR=redis:6379. .env and .env.local files are loaded on start.
//
// See nxds -help for a list of all commands.
package cmd
