// Package database stores scan history in SQLite.
//
// Each completed batch is saved with its per-host outcomes, so later
// runs can compare how a host's reachability changed over time. The
// database lives under the XDG data directory by default and a single
// file holds the whole history.
package database
