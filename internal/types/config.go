package types

type RunMode string

const (
	// ModeLocal runs the API server and the notification consumer in one process
	ModeLocal RunMode = "local"
	// ModeAPI runs just the API server
	ModeAPI RunMode = "api"
	// ModeConsumer runs just the notification consumer
	ModeConsumer RunMode = "consumer"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
)

// SettlementMode selects how invoices are marked paid during payment initiation
type SettlementMode string

const (
	// SettlementModeLocal settles invoices in-process
	SettlementModeLocal SettlementMode = "local"
	// SettlementModeHTTP settles invoices through the authenticated mark-paid endpoint
	SettlementModeHTTP SettlementMode = "http"
)

// SessionBackend selects where active login sessions are tracked
type SessionBackend string

const (
	SessionBackendMemory SessionBackend = "memory"
	SessionBackendRedis  SessionBackend = "redis"
)
