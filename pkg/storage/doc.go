// Package storage wires the configured audit store backend. PostgreSQL is
// the production backend; SQLite serves embedded deployments and the
// in-memory store serves tests and examples. All three implement
// audit.Store, and the process owns the open/close lifecycle via the close
// function returned by Open.
package storage
