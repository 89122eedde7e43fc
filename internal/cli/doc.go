// Package cli implements the command-line interface for seat-watch.
//
// The cli package provides the Cobra-based root command. It builds the configuration
// from defaults, an optional YAML file, flags and the environment, wires the scraper,
// notifier channels and monitor together, and runs the polling loop until the process
// receives SIGINT or SIGTERM. With --once it performs a single check and reports the
// result as text or JSON.
package cli
