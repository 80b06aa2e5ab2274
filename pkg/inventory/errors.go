package inventory

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBackingStoreUnavailable covers any read or write failure of the backing table
	ErrBackingStoreUnavailable = errors.New("backing store unavailable")
	// ErrInvalidRecord is matched by every *InvalidRecordError
	ErrInvalidRecord = errors.New("invalid record")
	// ErrPersistence is matched by every *PersistenceError
	ErrPersistence = errors.New("persistence failed")
	// ErrMalformedSheet is returned when a sheet cannot be read as plot inventory
	ErrMalformedSheet = errors.New("malformed sheet")
)

// UnavailableError reports a failed load from the backing store
type UnavailableError struct {
	Backend string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("load from %s: %v", e.Backend, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool {
	return target == ErrBackingStoreUnavailable
}

// PersistenceError reports a failed full-table write
type PersistenceError struct {
	Backend string
	Rows    int
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %d rows to %s: %v", e.Rows, e.Backend, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence || target == ErrBackingStoreUnavailable
}

// FieldError is one failed check on a candidate record
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// InvalidRecordError lists every field that failed validation
type InvalidRecordError struct {
	Problems []FieldError
}

func (e *InvalidRecordError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Message)
	}
	return "invalid record: " + strings.Join(parts, "; ")
}

func (e *InvalidRecordError) Is(target error) bool {
	return target == ErrInvalidRecord
}
