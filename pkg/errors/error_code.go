package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeInvalidPeriod        ErrorCode = 103
	ErrCodeInvalidTimeframe     ErrorCode = 104
	ErrCodeInvalidCandle        ErrorCode = 105

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound     ErrorCode = 200
	ErrCodeQueryFailed      ErrorCode = 201
	ErrCodeGappedData       ErrorCode = 202
	ErrCodeInsufficientData ErrorCode = 203

	// Strategy errors (300-399)
	ErrCodeUnknownProfile     ErrorCode = 300
	ErrCodeProfileConfigError ErrorCode = 301

	// Execution errors (400-499)
	ErrCodeOrderRejected      ErrorCode = 400
	ErrCodeInvariantViolation ErrorCode = 401

	// Simulation errors (500-599)
	ErrCodeSessionFailed   ErrorCode = 500
	ErrCodeSessionNotFound ErrorCode = 501
	ErrCodeSessionTerminal ErrorCode = 502
	ErrCodeTickInFlight    ErrorCode = 503

	// Persistence errors (600-699)
	ErrCodePersistenceFailed ErrorCode = 600
	ErrCodeDuplicateSequence ErrorCode = 601
	ErrCodeSnapshotNotFound  ErrorCode = 602
)
