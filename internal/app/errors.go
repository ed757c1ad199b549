// Package app holds the application services and business logic.
package app

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput wraps every request validation failure.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials indicates that the provided email or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken indicates a malformed, forged or expired token.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrRefreshTokenRevoked indicates a refresh token that was never issued or was logged out.
	ErrRefreshTokenRevoked = errors.New("refresh token is invalid")
	// ErrForbidden indicates the caller may not perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrRecordNotFound indicates there is no metric record for the requested day.
	ErrRecordNotFound = errors.New("no data found for this date")
	// ErrSubscriptionNotFound indicates the user has no subscription.
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrNoPremium indicates the user has no premium subscription to renew.
	ErrNoPremium = errors.New("no premium subscription found")
	// ErrSubscriptionExists indicates a subscription was already initialized.
	ErrSubscriptionExists = errors.New("subscription already exists")
	// ErrSubscriptionActive indicates a renewal while the current window has not elapsed.
	ErrSubscriptionActive = errors.New("subscription is still active")
	// ErrPaymentIncomplete indicates a checkout session that has not been paid.
	ErrPaymentIncomplete = errors.New("checkout session has not been paid")
	// ErrUnhandledEvent indicates a payment webhook of a type we do not act on.
	ErrUnhandledEvent = errors.New("unhandled event type")
	// ErrConversationNotFound indicates that the conversation does not exist.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrEmailTaken indicates signup with an email that is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidOTP indicates a wrong, consumed or expired one-time password.
	ErrInvalidOTP = errors.New("invalid OTP")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
