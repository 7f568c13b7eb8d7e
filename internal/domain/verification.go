package domain

import (
	"net/url"
	"strings"
)

// MaxVerificationAttempts is the number of submissions a business may make
// before further attempts require contacting support.
const MaxVerificationAttempts = 3

// VerificationView tells the client which verification screen to show
type VerificationView string

const (
	VerificationViewForm           VerificationView = "form"
	VerificationViewPending        VerificationView = "pending"
	VerificationViewRejectedRetry  VerificationView = "rejected_retry"
	VerificationViewContactSupport VerificationView = "contact_support"
	VerificationViewVerified       VerificationView = "verified"
)

// StatusOf returns the profile's status, or none for a missing profile
func StatusOf(p *BusinessProfile) VerificationStatus {
	if p == nil {
		return VerificationStatusNone
	}
	return p.VerificationStatus
}

// CanTransitionVerification reports whether from -> to is an allowed move
func CanTransitionVerification(from, to VerificationStatus) bool {
	switch from {
	case VerificationStatusNone, VerificationStatusRejected:
		return to == VerificationStatusPending
	case VerificationStatusPending:
		return to == VerificationStatusVerified || to == VerificationStatusRejected
	default:
		return false
	}
}

// AttemptsRemaining returns how many more submissions the profile allows
func AttemptsRemaining(p *BusinessProfile) int {
	if p == nil {
		return MaxVerificationAttempts
	}
	if p.VerificationStatus == VerificationStatusVerified {
		return 0
	}
	remaining := MaxVerificationAttempts - p.AttemptCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CanSubmitVerification reports whether a new submission is allowed
func CanSubmitVerification(p *BusinessProfile) bool {
	if p == nil {
		return true
	}
	return p.VerificationStatus == VerificationStatusRejected && p.AttemptCount < MaxVerificationAttempts
}

// VerificationViewFor picks the screen for a profile. A rejected profile
// with no attempts left always maps to contact_support.
func VerificationViewFor(p *BusinessProfile) VerificationView {
	switch StatusOf(p) {
	case VerificationStatusNone:
		return VerificationViewForm
	case VerificationStatusPending:
		return VerificationViewPending
	case VerificationStatusVerified:
		return VerificationViewVerified
	case VerificationStatusRejected:
		if p.AttemptCount >= MaxVerificationAttempts {
			return VerificationViewContactSupport
		}
		return VerificationViewRejectedRetry
	default:
		return VerificationViewContactSupport
	}
}

// HasHTTPScheme reports whether raw is an absolute http(s) URL with a host
func HasHTTPScheme(raw string) bool {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Host != ""
}
