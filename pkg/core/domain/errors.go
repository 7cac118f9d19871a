package domain

import (
	"errors"
	"fmt"
)

// ErrNoValidIdentifier is returned once every alias of a column was rejected
// by the CMS as not found.
var ErrNoValidIdentifier = errors.New("no valid identifier found for parent entity")

// ValidationError reports a malformed input batch. Nothing was sent to the CMS.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// ConflictError reports incoming urls that already exist in the column.
type ConflictError struct {
	Count  int
	Reason string
}

func (e *ConflictError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "url already present"
	}
	if e.Count > 0 {
		return fmt.Sprintf("%d link(s) conflict: %s", e.Count, reason)
	}
	return "conflict: " + reason
}

// NotFoundError is returned when the CMS does not know the identifier.
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Collection, e.ID)
}

// TransportError wraps network failures and unexpected CMS responses.
type TransportError struct {
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("cms responded %d: %s", e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("cms responded %d", e.Status)
	case e.Err != nil:
		return "cms request failed: " + e.Err.Error()
	}
	return "cms request failed"
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
