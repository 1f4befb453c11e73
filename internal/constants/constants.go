package constants

// Context and session keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyIdentity  = "identity"
	ContextKeyRequestID = "request_id"
	SessionCookieName   = "project_session"
)

// Validation limits
const (
	MinPasswordLength = 8
	MaxNameLength     = 100
	MaxTitleLength    = 200
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Filter sentinels understood by the task board
const (
	FilterAll        = "all"
	FilterUnassigned = "unassigned"
)

// InvitationTokenBytes is the amount of randomness behind an invitation token.
const InvitationTokenBytes = 32
