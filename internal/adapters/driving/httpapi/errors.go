// Package httpapi provides the REST server adapter for FinSight.
// It exposes document upload, chat, and session management over HTTP.
package httpapi

import "errors"

// Errors returned when required ports are not provided.
var (
	ErrMissingUploadService  = errors.New("httpapi: upload service is required")
	ErrMissingAskService     = errors.New("httpapi: ask service is required")
	ErrMissingSessionService = errors.New("httpapi: session service is required")
)
