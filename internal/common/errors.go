package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies domain errors so handlers can map them to HTTP statuses
// and batch jobs can decide what is retryable.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindInvalidOperation
	KindSubscriptionExpired
	KindPaymentFailed
	KindNotImplemented
)

// DomainError carries an ErrorKind alongside the message.
type DomainError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a missing plan, subscription or payment.
func NotFoundError(format string, args ...interface{}) error {
	return &DomainError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidOperationError reports an illegal transition or missing required input.
func InvalidOperationError(format string, args ...interface{}) error {
	return &DomainError{Kind: KindInvalidOperation, Message: fmt.Sprintf(format, args...)}
}

// SubscriptionExpiredError reports a terminal-state conflict on cancel/renew.
func SubscriptionExpiredError(format string, args ...interface{}) error {
	return &DomainError{Kind: KindSubscriptionExpired, Message: fmt.Sprintf(format, args...)}
}

// PaymentFailedError reports a gateway decline or error. The failed payment is
// always recorded before this is raised.
func PaymentFailedError(format string, args ...interface{}) error {
	return &DomainError{Kind: KindPaymentFailed, Message: fmt.Sprintf(format, args...)}
}

// NotImplementedError marks a recognized but unimplemented operation.
func NotImplementedError(format string, args ...interface{}) error {
	return &DomainError{Kind: KindNotImplemented, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the ErrorKind of err, or KindInternal for unclassified errors.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the status code surfaced by the API layer.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidOperation, KindSubscriptionExpired:
		return http.StatusBadRequest
	case KindPaymentFailed:
		return http.StatusPaymentRequired
	case KindNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
