package batch

import "errors"

var (
	// ErrScan reports that the scan itself failed. Unlike per-file
	// errors this is batch-fatal: no plans exist yet.
	ErrScan = errors.New("scan failed")

	// ErrCancelled reports that a run was stopped by request. Work
	// already finished stays finished.
	ErrCancelled = errors.New("run cancelled")

	// ErrLocked reports that another process holds the commit lock for
	// the same root.
	ErrLocked = errors.New("another run is committing in this directory")

	// ErrState reports a phase invoked out of order.
	ErrState = errors.New("operation not allowed in current state")
)
