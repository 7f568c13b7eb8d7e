package service

import (
	"errors"
	"fmt"
	"time"
)

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden is returned when the caller may not act on a resource
	ErrForbidden = errors.New("permission denied")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTermsRequired is returned when a new email requests a link without accepting the terms
	ErrTermsRequired = errors.New("terms and privacy policy must be accepted")

	// ErrInvalidMagicLink is returned for unknown, expired or already used links
	ErrInvalidMagicLink = errors.New("magic link is invalid or has expired")

	// ErrDeliveryFailed is returned when an email or relay message could not be sent
	ErrDeliveryFailed = errors.New("message delivery failed")

	// ErrNotBusinessUser is returned when a creator calls a business-only operation
	ErrNotBusinessUser = errors.New("only business accounts can perform this action")

	// ErrNotCreator is returned when a business calls a creator-only operation
	ErrNotCreator = errors.New("only creator accounts can perform this action")

	// ErrInvalidWebsiteURL is returned when a submitted URL lacks an http(s) scheme
	ErrInvalidWebsiteURL = errors.New("please include http:// or https:// in the URL")

	// ErrVerificationPending is returned when a submission is already under review
	ErrVerificationPending = errors.New("verification is already pending review")

	// ErrAlreadyVerified is returned when a verified business submits again
	ErrAlreadyVerified = errors.New("business is already verified")

	// ErrAttemptsExhausted is returned once all verification attempts are used
	ErrAttemptsExhausted = errors.New("maximum verification attempts reached, please contact support")

	// ErrNotPendingReview is returned when reviewing a profile that is not pending
	ErrNotPendingReview = errors.New("verification is not pending review")

	// ErrVerificationRequired is returned when an unverified business tries to post
	ErrVerificationRequired = errors.New("business verification is required")

	// ErrInvalidExpiry is returned for a post expiry in the past or beyond the maximum lifetime
	ErrInvalidExpiry = errors.New("invalid post expiry")

	// ErrConfirmationMismatch is returned when account deletion is not confirmed with DELETE
	ErrConfirmationMismatch = errors.New("confirmation text does not match")

	// ErrSessionRequired is returned for anonymous consent without a session id
	ErrSessionRequired = errors.New("session id is required for anonymous consent")

	// ErrInvalidFile is returned for uploads that are not images or are too large
	ErrInvalidFile = errors.New("invalid file")

	// ErrRateLimited is the sentinel matched by RateLimitError
	ErrRateLimited = errors.New("too many requests")
)

// RateLimitError carries how long the caller must wait
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter.Round(time.Second))
}

// Is lets errors.Is(err, ErrRateLimited) match
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}
