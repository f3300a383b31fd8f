package sync

import "errors"

var (
	// Credential errors
	// ErrNotConfigured is a normal, expected outcome: the tenant has no
	// active WMS integration. Callers must branch on it before any
	// external call.
	ErrNotConfigured      = errors.New("sync: integration not configured")
	ErrInvalidCredentials = errors.New("sync: invalid credentials")

	// External system errors
	ErrAuthFailed      = errors.New("sync: external system authentication failed")
	ErrRateLimited     = errors.New("sync: rate limited by external system")
	ErrTransient       = errors.New("sync: transient network error")
	ErrUpstream        = errors.New("sync: upstream request failed")
	ErrInvalidResponse = errors.New("sync: invalid upstream response")

	// Budget errors
	ErrInsufficientCredits           = errors.New("sync: insufficient credits for strategy")
	ErrBudgetInsufficientForRequired = errors.New("sync: budget insufficient for required strategy")

	// Session errors
	ErrSyncAlreadyRunning = errors.New("sync: session already running for tenant")
	ErrSessionFinished    = errors.New("sync: session already finished")

	// Webhook errors
	ErrInvalidSignature = errors.New("sync: invalid webhook signature")
	ErrMalformedPayload = errors.New("sync: malformed webhook payload")

	// Catalog errors
	ErrUnknownSystemFamily = errors.New("sync: unknown external system family")
	ErrDuplicateStrategy   = errors.New("sync: duplicate strategy name in catalog")
	ErrEmptyCatalog        = errors.New("sync: strategy catalog is empty")

	// Status errors
	ErrStatusNotFound = errors.New("sync: sync status not found")
)
