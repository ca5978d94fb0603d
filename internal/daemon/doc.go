// Package daemon assembles the long-running wordreel process: the job store,
// worker pool, and HTTP API, guarded by a lock file so only one instance runs
// against a data directory at a time.
package daemon
