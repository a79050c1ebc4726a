package domain

import (
	"errors"
	"fmt"
)

// Row-level sentinels surfaced by the storage layer.
var (
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("duplicate key")
	ErrForeignKey = errors.New("foreign key violation")
)

type ErrorKind string

const (
	KindInvalidFieldType     ErrorKind = "invalid_field_type"
	KindInvalidBatchShape    ErrorKind = "invalid_batch_shape"
	KindMissingDiscriminator ErrorKind = "missing_discriminator"
	KindParentNotFound       ErrorKind = "parent_not_found"
	KindNoValidFields        ErrorKind = "no_valid_fields"
	KindConflict             ErrorKind = "conflict"
	KindStorageFailure       ErrorKind = "storage_failure"
)

// Error pairs a machine-checkable kind with a human-readable detail that
// names the offending field, item, or id.
type Error struct {
	Kind   ErrorKind
	Detail string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.cause }

func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func ParentMissing(kind string, id int64) *Error {
	return Errorf(KindParentNotFound, "%s with ID %d not found", kind, id)
}

func StorageFailed(err error) *Error {
	return &Error{Kind: KindStorageFailure, Detail: "persistence error", cause: err}
}

// KindOf extracts the taxonomy kind, or "" for untyped errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
