package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound     = errors.New("db: key not found")
	ErrVersionConflict = errors.New("db: version conflict")
	ErrIndexNotFound   = errors.New("db: index not found")
)

// Op constants name the backend operation for error context.
const (
	OpGet    = "GET"
	OpPut    = "PUT"
	OpQuery  = "QUERY"
	OpScan   = "SCAN"
	OpDelete = "DELETE"
	OpPing   = "PING"
)

// Error wraps an underlying backend error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
