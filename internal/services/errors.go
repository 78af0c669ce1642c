package services

import "errors"

// Sentinel errors returned by NotificationService. Handlers map them to HTTP
// statuses; the wrapped cause is only for logs.
var (
	ErrNotFound   = errors.New("notification not found")
	ErrValidation = errors.New("invalid notification")
	ErrStore      = errors.New("notification store failure")
)
