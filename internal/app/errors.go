package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrNoFiles         = errors.New("no spreadsheets submitted")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrBusy            = errors.New("too many pending runs")
	ErrRunNotFound     = errors.New("run not found")
	ErrRunPending      = errors.New("run has not finished")
	ErrRunFailed       = errors.New("run failed")
	ErrStopped         = errors.New("service stopped before the run started")
)
