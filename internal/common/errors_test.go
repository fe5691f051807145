package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFoundError("plan not found")))
	assert.Equal(t, KindInvalidOperation, KindOf(InvalidOperationError("bad transition")))
	assert.Equal(t, KindSubscriptionExpired, KindOf(SubscriptionExpiredError("expired")))
	assert.Equal(t, KindPaymentFailed, KindOf(PaymentFailedError("declined")))
	assert.Equal(t, KindNotImplemented, KindOf(NotImplementedError("refunds")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain error")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestKindOf_WrappedError(t *testing.T) {
	wrapped := fmt.Errorf("renewing: %w", NotFoundError("subscription not found"))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFoundError("missing")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(InvalidOperationError("illegal")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(SubscriptionExpiredError("expired")))
	assert.Equal(t, http.StatusPaymentRequired, HTTPStatus(PaymentFailedError("declined")))
	assert.Equal(t, http.StatusNotImplemented, HTTPStatus(NotImplementedError("refunds")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("db down")))
}

func TestDomainError_MessageFormatting(t *testing.T) {
	err := NotFoundError("plan not found with code: %s", "MONTHLY-30")
	assert.Equal(t, "plan not found with code: MONTHLY-30", err.Error())
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("row scan failed")
	err := &DomainError{Kind: KindInternal, Message: "loading subscription", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "loading subscription")
	assert.Contains(t, err.Error(), "row scan failed")
}
