package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns a UUID when the caller has not chosen one
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// UserType is the side of the marketplace an account belongs to
type UserType string

const (
	UserTypeCreator  UserType = "creator"
	UserTypeBusiness UserType = "business"
)

// IsValid reports whether the user type is one of the known values
func (t UserType) IsValid() bool {
	return t == UserTypeCreator || t == UserTypeBusiness
}

// User is an authenticated account. Rows are created on the first
// successful magic-link sign-in.
type User struct {
	BaseModel
	Email           string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	UserType        UserType   `gorm:"type:varchar(20);not null;column:user_type"`
	TermsAcceptedAt *time.Time `gorm:"column:terms_accepted_at"`
	LastSignInAt    *time.Time `gorm:"column:last_sign_in_at"`
}

func (User) TableName() string {
	return "ams_users"
}

// MagicLinkToken is a single-use sign-in token. Only the sha256 of the
// token is stored.
type MagicLinkToken struct {
	BaseModel
	Email           string     `gorm:"type:varchar(255);not null;index"`
	TokenHash       string     `gorm:"type:varchar(64);not null;uniqueIndex;column:token_hash"`
	UserType        UserType   `gorm:"type:varchar(20);not null;column:user_type"`
	TermsAcceptedAt *time.Time `gorm:"column:terms_accepted_at"`
	ExpiresAt       time.Time  `gorm:"not null;index;column:expires_at"`
	ConsumedAt      *time.Time `gorm:"column:consumed_at"`
}

func (MagicLinkToken) TableName() string {
	return "ams_magic_link_tokens"
}

// Session backs an issued access token; the token is valid only while the
// session is neither revoked nor expired.
type Session struct {
	BaseModel
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index;column:user_id"`
	ExpiresAt time.Time  `gorm:"not null;index;column:expires_at"`
	RevokedAt *time.Time `gorm:"column:revoked_at"`
	IPAddress string     `gorm:"type:varchar(64);column:ip_address"`
	UserAgent string     `gorm:"type:varchar(500);column:user_agent"`
}

func (Session) TableName() string {
	return "ams_sessions"
}

// IsActive reports whether the session can still authenticate requests
func (s *Session) IsActive(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// CreatorProfile is the public profile of an automation creator. The ID
// equals the owning user's ID.
type CreatorProfile struct {
	BaseModel
	UserID             uuid.UUID `gorm:"type:uuid;not null;uniqueIndex;column:user_id"`
	Username           string    `gorm:"type:varchar(255);not null"`
	FullName           string    `gorm:"type:varchar(200);column:full_name"`
	Title              string    `gorm:"type:varchar(200)"`
	Bio                string    `gorm:"type:text"`
	Experience         string    `gorm:"type:text"`
	Languages          []string  `gorm:"type:text;serializer:json"`
	ToolsSkills        []string  `gorm:"type:text;serializer:json;column:tools_skills"`
	SolutionsFor       []string  `gorm:"type:text;serializer:json;column:solutions_for"`
	VideoURL           string    `gorm:"type:varchar(500);column:video_url"`
	AvatarURL          string    `gorm:"type:varchar(500);column:avatar_url"`
	AdditionalInfo     string    `gorm:"type:text;column:additional_info"`
	ApproximatePricing string    `gorm:"type:varchar(200);column:approximate_pricing"`
	ContactEmail       string    `gorm:"type:varchar(255);column:contact_email"`
	LinkedInURL        string    `gorm:"type:varchar(500);column:linkedin_url"`
	BookingURL         string    `gorm:"type:varchar(500);column:booking_url"`
}

func (CreatorProfile) TableName() string {
	return "ams_creator_profiles"
}

// IsListable reports whether the profile should appear in category listings
func (p *CreatorProfile) IsListable(category string) bool {
	if p.FullName == "" || p.Title == "" {
		return false
	}
	for _, c := range p.SolutionsFor {
		if c == category {
			return true
		}
	}
	return false
}

// VerificationStatus is the review state of a business profile
type VerificationStatus string

const (
	// VerificationStatusNone is never stored; it describes a user without a business profile
	VerificationStatusNone     VerificationStatus = "none"
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusRejected VerificationStatus = "rejected"
	VerificationStatusVerified VerificationStatus = "verified"
)

// BusinessProfile holds a business user's verification submission
type BusinessProfile struct {
	BaseModel
	UserID             uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex;column:user_id"`
	CompanyEmail       string             `gorm:"type:varchar(255);not null;column:company_email"`
	CompanyWebsite     string             `gorm:"type:varchar(500);not null;column:company_website"`
	LinkedInURL        *string            `gorm:"type:varchar(500);column:linkedin_url"`
	VerificationStatus VerificationStatus `gorm:"type:varchar(20);not null;default:'pending';index;column:verification_status"`
	AttemptCount       int                `gorm:"not null;default:0;column:attempt_count"`
	SubmittedAt        time.Time          `gorm:"not null;column:submitted_at"`
	ReviewedAt         *time.Time         `gorm:"column:reviewed_at"`
	ReviewNote         string             `gorm:"type:text;column:review_note"`
}

func (BusinessProfile) TableName() string {
	return "ams_business_profiles"
}

// VerificationEvent is an append-only record of a verification status transition
type VerificationEvent struct {
	BaseModel
	BusinessProfileID uuid.UUID          `gorm:"type:uuid;not null;index;column:business_profile_id"`
	UserID            uuid.UUID          `gorm:"type:uuid;not null;index;column:user_id"`
	FromStatus        VerificationStatus `gorm:"type:varchar(20);not null;column:from_status"`
	ToStatus          VerificationStatus `gorm:"type:varchar(20);not null;column:to_status"`
	Attempt           int                `gorm:"not null"`
	Actor             string             `gorm:"type:varchar(255);not null"`
	Note              string             `gorm:"type:text"`
}

func (VerificationEvent) TableName() string {
	return "ams_verification_events"
}

// PostStatus is the lifecycle state of a business post
type PostStatus string

const (
	PostStatusActive   PostStatus = "active"
	PostStatusArchived PostStatus = "archived"
	PostStatusExpired  PostStatus = "expired"
)

// BusinessPost is a verified business's request for automation work
type BusinessPost struct {
	BaseModel
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index;column:user_id"`
	ProjectTitle    string     `gorm:"type:varchar(200);not null;column:project_title"`
	CompanyName     string     `gorm:"type:varchar(200);not null;column:company_name"`
	AutomationNeeds string     `gorm:"type:text;not null;column:automation_needs"`
	TechnicalStack  string     `gorm:"type:text;column:technical_stack"`
	Budget          string     `gorm:"type:varchar(100)"`
	Timeline        string     `gorm:"type:varchar(100)"`
	Languages       string     `gorm:"type:varchar(200)"`
	AdditionalInfo  string     `gorm:"type:text;column:additional_info"`
	ContactEmail    string     `gorm:"type:varchar(255);not null;column:contact_email"`
	Status          PostStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	ExpiresAt       time.Time  `gorm:"not null;index;column:expires_at"`
}

func (BusinessPost) TableName() string {
	return "business_posts"
}

// IsExpired reports whether the post's lifetime has ended at now
func (p *BusinessPost) IsExpired(now time.Time) bool {
	return !p.ExpiresAt.After(now)
}

// IsPubliclyVisible reports whether the post may appear in public listings.
// Expiry wins over a stale stored status.
func (p *BusinessPost) IsPubliclyVisible(now time.Time) bool {
	return p.Status == PostStatusActive && !p.IsExpired(now)
}

// RequestStatus is the state of a contact request
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusDeclined RequestStatus = "declined"
)

// PendingRequest is a business user's contact request to a creator
type PendingRequest struct {
	BaseModel
	UserID           uuid.UUID     `gorm:"type:uuid;not null;index;column:user_id"`
	CreatorProfileID uuid.UUID     `gorm:"type:uuid;not null;index;column:creator_profile_id"`
	Message          string        `gorm:"type:text;not null"`
	Status           RequestStatus `gorm:"type:varchar(20);not null;default:'pending'"`
}

func (PendingRequest) TableName() string {
	return "ams_pending_requests"
}

// CurrentConsentPolicyVersion is the cookie policy version recorded with each choice
const CurrentConsentPolicyVersion = "1.0"

// CookieConsentLog is an append-only record of a visitor's cookie choice
type CookieConsentLog struct {
	BaseModel
	UserID        *uuid.UUID `gorm:"type:uuid;index;column:user_id"`
	SessionID     string     `gorm:"type:varchar(100);index;column:session_id"`
	Essential     bool       `gorm:"not null;default:true"`
	Analytics     bool       `gorm:"not null;default:false"`
	Marketing     bool       `gorm:"not null;default:false"`
	PolicyVersion string     `gorm:"type:varchar(20);not null;column:policy_version"`
	IPAddress     string     `gorm:"type:varchar(64);column:ip_address"`
	UserAgent     string     `gorm:"type:varchar(500);column:user_agent"`
}

func (CookieConsentLog) TableName() string {
	return "cookie_consent_logs"
}

// WebhookStatus is the delivery state of an outbox row
type WebhookStatus string

const (
	WebhookStatusPending   WebhookStatus = "pending"
	WebhookStatusDelivered WebhookStatus = "delivered"
	WebhookStatusFailed    WebhookStatus = "failed"
)

// WebhookEventVerificationSubmitted is emitted when a business submits verification details
const WebhookEventVerificationSubmitted = "business.verification.submitted"

// WebhookDelivery is an outbox row for an outbound webhook. Rows are written
// in the same transaction as the state change they describe.
type WebhookDelivery struct {
	BaseModel
	Event          string        `gorm:"type:varchar(100);not null;index"`
	IdempotencyKey string        `gorm:"type:varchar(200);not null;uniqueIndex;column:idempotency_key"`
	Payload        string        `gorm:"type:text;not null"`
	Status         WebhookStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	Attempts       int           `gorm:"not null;default:0"`
	NextAttemptAt  time.Time     `gorm:"not null;index;column:next_attempt_at"`
	LastError      string        `gorm:"type:text;column:last_error"`
	Endpoint       string        `gorm:"type:varchar(500)"`
	DeliveredAt    *time.Time    `gorm:"column:delivered_at"`
}

func (WebhookDelivery) TableName() string {
	return "ams_webhook_deliveries"
}
