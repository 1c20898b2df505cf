package services

import (
	"errors"
	"fmt"

	"github.com/techmarket/marketplace-api/internal/models"
)

// ErrInvalidCredentials is returned by Login on an unknown email or a
// password mismatch; callers must not reveal which one failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError is a business-rule or input-shape violation; handlers map
// it to HTTP 400 with the message as the body.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError reports an order status change not allowed by the
// transition table.
type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}
