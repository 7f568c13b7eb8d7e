package domain

import (
	"github.com/google/uuid"
)

// Timestamps in DTOs are ISO 8601 strings

// PaginatedResponse wraps a page of results
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// MessageResponse is returned by endpoints whose only output is a confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// Auth

type CheckEmailRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type CheckEmailResponse struct {
	Exists        bool `json:"exists"`
	TermsRequired bool `json:"termsRequired"`
}

type MagicLinkRequest struct {
	Email       string   `json:"email" validate:"required,email,max=255"`
	UserType    UserType `json:"userType" validate:"required,oneof=creator business"`
	AcceptTerms bool     `json:"acceptTerms"`
}

type MagicLinkResponse struct {
	Message   string `json:"message"`
	ExpiresAt string `json:"expiresAt"`
}

type VerifyMagicLinkRequest struct {
	Token string `json:"token" validate:"required,max=128"`
}

type UserDTO struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	UserType        UserType  `json:"userType"`
	TermsAcceptedAt *string   `json:"termsAcceptedAt,omitempty"`
	LastSignInAt    *string   `json:"lastSignInAt,omitempty"`
	CreatedAt       string    `json:"createdAt"`
}

// SessionResponse is returned after a successful magic-link verification
type SessionResponse struct {
	AccessToken string  `json:"accessToken"`
	TokenType   string  `json:"tokenType"`
	ExpiresAt   string  `json:"expiresAt"`
	User        UserDTO `json:"user"`
	Redirect    string  `json:"redirect"`
}

// MeResponse describes the signed-in user and where the client should go next
type MeResponse struct {
	User               UserDTO            `json:"user"`
	UserType           UserType           `json:"userType"`
	HasCreatorProfile  bool               `json:"hasCreatorProfile"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	Redirect           string             `json:"redirect"`
}

// Creator profiles

type UpsertCreatorProfileRequest struct {
	FullName           string   `json:"fullName" validate:"max=200"`
	Title              string   `json:"title" validate:"max=200"`
	Bio                string   `json:"bio" validate:"max=5000"`
	Experience         string   `json:"experience" validate:"max=5000"`
	Languages          []string `json:"languages" validate:"max=20,dive,max=50"`
	ToolsSkills        []string `json:"toolsSkills" validate:"max=50,dive,max=100"`
	SolutionsFor       []string `json:"solutionsFor" validate:"max=30,dive,max=100"`
	VideoURL           string   `json:"videoUrl" validate:"omitempty,url,max=500"`
	AdditionalInfo     string   `json:"additionalInfo" validate:"max=5000"`
	ApproximatePricing string   `json:"approximatePricing" validate:"max=200"`
	ContactEmail       string   `json:"contactEmail" validate:"omitempty,email,max=255"`
	LinkedInURL        string   `json:"linkedinUrl" validate:"omitempty,url,max=500"`
	BookingURL         string   `json:"bookingUrl" validate:"omitempty,url,max=500"`
}

type CreatorProfileDTO struct {
	ID                 uuid.UUID `json:"id"`
	Username           string    `json:"username"`
	FullName           string    `json:"fullName"`
	Title              string    `json:"title"`
	Bio                string    `json:"bio,omitempty"`
	Experience         string    `json:"experience,omitempty"`
	Languages          []string  `json:"languages"`
	ToolsSkills        []string  `json:"toolsSkills"`
	SolutionsFor       []string  `json:"solutionsFor"`
	VideoURL           string    `json:"videoUrl,omitempty"`
	Video              *VideoRef `json:"video,omitempty"`
	VideoThumbnailURL  string    `json:"videoThumbnailUrl,omitempty"`
	AvatarURL          string    `json:"avatarUrl,omitempty"`
	AdditionalInfo     string    `json:"additionalInfo,omitempty"`
	ApproximatePricing string    `json:"approximatePricing,omitempty"`
	ContactEmail       string    `json:"contactEmail,omitempty"`
	LinkedInURL        string    `json:"linkedinUrl,omitempty"`
	BookingURL         string    `json:"bookingUrl,omitempty"`
	CreatedAt          string    `json:"createdAt"`
	UpdatedAt          string    `json:"updatedAt"`
}

type AvatarUploadResponse struct {
	AvatarURL string `json:"avatarUrl"`
}

// Business verification

// SubmitVerificationRequest carries the company details to review. The
// company email is always the signed-in user's address.
type SubmitVerificationRequest struct {
	CompanyWebsite string `json:"companyWebsite" validate:"required,max=500"`
	LinkedInURL    string `json:"linkedinUrl" validate:"max=500"`
}

type VerificationStatusDTO struct {
	Status            VerificationStatus `json:"status"`
	View              VerificationView   `json:"view"`
	CanSubmit         bool               `json:"canSubmit"`
	AttemptCount      int                `json:"attemptCount"`
	AttemptsRemaining int                `json:"attemptsRemaining"`
	MaxAttempts       int                `json:"maxAttempts"`
	CompanyEmail      string             `json:"companyEmail,omitempty"`
	CompanyWebsite    string             `json:"companyWebsite,omitempty"`
	LinkedInURL       string             `json:"linkedinUrl,omitempty"`
	SubmittedAt       *string            `json:"submittedAt,omitempty"`
	ReviewedAt        *string            `json:"reviewedAt,omitempty"`
	ReviewNote        string             `json:"reviewNote,omitempty"`
	SupportEmail      string             `json:"supportEmail,omitempty"`
}

// VerificationQueueItemDTO is a business profile as seen by review automation
type VerificationQueueItemDTO struct {
	UserID string `json:"userId"`
	VerificationStatusDTO
}

type ReviewVerificationRequest struct {
	Decision VerificationStatus `json:"decision" validate:"required,oneof=verified rejected"`
	Note     string             `json:"note" validate:"max=2000"`
}

type VerificationEventDTO struct {
	ID         uuid.UUID          `json:"id"`
	FromStatus VerificationStatus `json:"fromStatus"`
	ToStatus   VerificationStatus `json:"toStatus"`
	Attempt    int                `json:"attempt"`
	Actor      string             `json:"actor"`
	Note       string             `json:"note,omitempty"`
	CreatedAt  string             `json:"createdAt"`
}

// Business posts

type CreatePostRequest struct {
	ProjectTitle    string `json:"projectTitle" validate:"required,max=200"`
	CompanyName     string `json:"companyName" validate:"required,max=200"`
	AutomationNeeds string `json:"automationNeeds" validate:"required,max=5000"`
	TechnicalStack  string `json:"technicalStack" validate:"max=2000"`
	Budget          string `json:"budget" validate:"max=100"`
	Timeline        string `json:"timeline" validate:"max=100"`
	Languages       string `json:"languages" validate:"max=200"`
	AdditionalInfo  string `json:"additionalInfo" validate:"max=5000"`
	ContactEmail    string `json:"contactEmail" validate:"required,email,max=255"`
	// ExpiresAt is optional (RFC 3339); defaults to the configured post lifetime
	ExpiresAt *string `json:"expiresAt,omitempty"`
}

type UpdatePostRequest = CreatePostRequest

type BusinessPostDTO struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"userId"`
	ProjectTitle    string     `json:"projectTitle"`
	CompanyName     string     `json:"companyName"`
	AutomationNeeds string     `json:"automationNeeds"`
	TechnicalStack  string     `json:"technicalStack,omitempty"`
	Budget          string     `json:"budget,omitempty"`
	Timeline        string     `json:"timeline,omitempty"`
	Languages       string     `json:"languages,omitempty"`
	AdditionalInfo  string     `json:"additionalInfo,omitempty"`
	ContactEmail    string     `json:"contactEmail"`
	Status          PostStatus `json:"status"`
	IsExpired       bool       `json:"isExpired"`
	CreatedAt       string     `json:"createdAt"`
	UpdatedAt       string     `json:"updatedAt"`
	ExpiresAt       string     `json:"expiresAt"`
}

type HasActivePostsResponse struct {
	HasActive bool `json:"hasActive"`
}

// Contact requests

type CreatePendingRequestRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

type PendingRequestDTO struct {
	ID               uuid.UUID     `json:"id"`
	UserID           uuid.UUID     `json:"userId"`
	CreatorProfileID uuid.UUID     `json:"creatorProfileId"`
	Message          string        `json:"message"`
	Status           RequestStatus `json:"status"`
	CreatedAt        string        `json:"createdAt"`
}

// Account

type DeleteAccountRequest struct {
	Confirmation string `json:"confirmation" validate:"required"`
}

// Cookie consent

type RecordConsentRequest struct {
	Analytics bool `json:"analytics"`
	Marketing bool `json:"marketing"`
	// SessionID identifies an anonymous visitor; required when not signed in
	SessionID string `json:"sessionId" validate:"max=100"`
}

type ConsentDTO struct {
	ID            uuid.UUID `json:"id"`
	Essential     bool      `json:"essential"`
	Analytics     bool      `json:"analytics"`
	Marketing     bool      `json:"marketing"`
	PolicyVersion string    `json:"version"`
	Timestamp     string    `json:"timestamp"`
}

// Support

type ContactSupportRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

// Webhooks

type WebhookDeliveryDTO struct {
	ID             uuid.UUID     `json:"id"`
	Event          string        `json:"event"`
	IdempotencyKey string        `json:"idempotencyKey"`
	Status         WebhookStatus `json:"status"`
	Attempts       int           `json:"attempts"`
	NextAttemptAt  string        `json:"nextAttemptAt"`
	LastError      string        `json:"lastError,omitempty"`
	Endpoint       string        `json:"endpoint,omitempty"`
	DeliveredAt    *string       `json:"deliveredAt,omitempty"`
	CreatedAt      string        `json:"createdAt"`
}

// VerificationWebhookPayload is the body posted to the verification webhook
type VerificationWebhookPayload struct {
	Email    string `json:"email"`
	Website  string `json:"website"`
	LinkedIn string `json:"linkedin"`
	UserID   string `json:"userId"`
	Attempt  int    `json:"attempt"`
}
