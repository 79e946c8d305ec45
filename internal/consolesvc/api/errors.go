package api

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindNetwork         ErrorKind = "network"
	KindTimeout         ErrorKind = "timeout"
	KindCanceled        ErrorKind = "canceled"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindForbidden       ErrorKind = "forbidden"
	KindRejected        ErrorKind = "rejected"
	KindDecode          ErrorKind = "decode"
)

// APIError is every failure the platform client returns.
type APIError struct {
	Kind    ErrorKind
	Path    string
	Status  int
	Code    string // platform error code for rejected calls
	Section string // missing section for forbidden calls
	Err     error
}

func (e *APIError) Error() string {
	switch e.Kind {
	case KindForbidden:
		return fmt.Sprintf("Forbidden: %s", e.Section)
	case KindUnauthenticated:
		return "Unauthorized"
	case KindRejected:
		return e.Code
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s: status %d", e.Kind, e.Path, e.Status)
}

func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports failures worth offering a retry for.
func (e *APIError) Retryable() bool {
	return e.Kind == KindNetwork || e.Kind == KindTimeout
}

// KindOf returns the kind of an *APIError in err's chain, or "".
func KindOf(err error) ErrorKind {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
