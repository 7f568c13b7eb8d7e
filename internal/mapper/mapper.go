package mapper

import (
	"fmt"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/domain"
)

const timeLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:              user.ID,
		Email:           user.Email,
		UserType:        user.UserType,
		TermsAcceptedAt: formatTimePtr(user.TermsAcceptedAt),
		LastSignInAt:    formatTimePtr(user.LastSignInAt),
		CreatedAt:       formatTime(user.CreatedAt),
	}
}

// ToCreatorProfileDTO converts CreatorProfile to CreatorProfileDTO. Video
// details are filled in when the video URL is a recognised YouTube or Loom link.
func ToCreatorProfileDTO(profile *domain.CreatorProfile) domain.CreatorProfileDTO {
	dto := domain.CreatorProfileDTO{
		ID:                 profile.ID,
		Username:           profile.Username,
		FullName:           profile.FullName,
		Title:              profile.Title,
		Bio:                profile.Bio,
		Experience:         profile.Experience,
		Languages:          nonNil(profile.Languages),
		ToolsSkills:        nonNil(profile.ToolsSkills),
		SolutionsFor:       nonNil(profile.SolutionsFor),
		VideoURL:           profile.VideoURL,
		AvatarURL:          profile.AvatarURL,
		AdditionalInfo:     profile.AdditionalInfo,
		ApproximatePricing: profile.ApproximatePricing,
		ContactEmail:       profile.ContactEmail,
		LinkedInURL:        profile.LinkedInURL,
		BookingURL:         profile.BookingURL,
		CreatedAt:          formatTime(profile.CreatedAt),
		UpdatedAt:          formatTime(profile.UpdatedAt),
	}

	if ref, ok := domain.ParseVideoURL(profile.VideoURL); ok {
		dto.Video = &ref
		dto.VideoThumbnailURL = ref.ThumbnailURL()
	}
	return dto
}

// ApplyCreatorProfileRequest copies editable fields from the request onto the profile
func ApplyCreatorProfileRequest(profile *domain.CreatorProfile, req *domain.UpsertCreatorProfileRequest) {
	profile.FullName = req.FullName
	profile.Title = req.Title
	profile.Bio = req.Bio
	profile.Experience = req.Experience
	profile.Languages = nonNil(req.Languages)
	profile.ToolsSkills = nonNil(req.ToolsSkills)
	profile.SolutionsFor = nonNil(req.SolutionsFor)
	profile.VideoURL = req.VideoURL
	profile.AdditionalInfo = req.AdditionalInfo
	profile.ApproximatePricing = req.ApproximatePricing
	profile.ContactEmail = req.ContactEmail
	profile.LinkedInURL = req.LinkedInURL
	profile.BookingURL = req.BookingURL
}

// ToVerificationStatusDTO describes a business's verification state. profile may be nil.
func ToVerificationStatusDTO(profile *domain.BusinessProfile, supportEmail string) domain.VerificationStatusDTO {
	view := domain.VerificationViewFor(profile)
	dto := domain.VerificationStatusDTO{
		Status:            domain.StatusOf(profile),
		View:              view,
		CanSubmit:         domain.CanSubmitVerification(profile),
		AttemptsRemaining: domain.AttemptsRemaining(profile),
		MaxAttempts:       domain.MaxVerificationAttempts,
	}
	if view == domain.VerificationViewContactSupport {
		dto.SupportEmail = supportEmail
	}
	if profile == nil {
		return dto
	}

	dto.AttemptCount = profile.AttemptCount
	dto.CompanyEmail = profile.CompanyEmail
	dto.CompanyWebsite = profile.CompanyWebsite
	if profile.LinkedInURL != nil {
		dto.LinkedInURL = *profile.LinkedInURL
	}
	dto.SubmittedAt = formatTimePtr(&profile.SubmittedAt)
	dto.ReviewedAt = formatTimePtr(profile.ReviewedAt)
	dto.ReviewNote = profile.ReviewNote
	return dto
}

// ToVerificationQueueItemDTO converts BusinessProfile to the review queue view
func ToVerificationQueueItemDTO(profile *domain.BusinessProfile, supportEmail string) domain.VerificationQueueItemDTO {
	return domain.VerificationQueueItemDTO{
		UserID:                profile.UserID.String(),
		VerificationStatusDTO: ToVerificationStatusDTO(profile, supportEmail),
	}
}

// ToVerificationEventDTO converts VerificationEvent to VerificationEventDTO
func ToVerificationEventDTO(event *domain.VerificationEvent) domain.VerificationEventDTO {
	return domain.VerificationEventDTO{
		ID:         event.ID,
		FromStatus: event.FromStatus,
		ToStatus:   event.ToStatus,
		Attempt:    event.Attempt,
		Actor:      event.Actor,
		Note:       event.Note,
		CreatedAt:  formatTime(event.CreatedAt),
	}
}

// ToBusinessPostDTO converts BusinessPost to BusinessPostDTO, evaluating expiry at now
func ToBusinessPostDTO(post *domain.BusinessPost, now time.Time) domain.BusinessPostDTO {
	return domain.BusinessPostDTO{
		ID:              post.ID,
		UserID:          post.UserID,
		ProjectTitle:    post.ProjectTitle,
		CompanyName:     post.CompanyName,
		AutomationNeeds: post.AutomationNeeds,
		TechnicalStack:  post.TechnicalStack,
		Budget:          post.Budget,
		Timeline:        post.Timeline,
		Languages:       post.Languages,
		AdditionalInfo:  post.AdditionalInfo,
		ContactEmail:    post.ContactEmail,
		Status:          post.Status,
		IsExpired:       post.IsExpired(now),
		CreatedAt:       formatTime(post.CreatedAt),
		UpdatedAt:       formatTime(post.UpdatedAt),
		ExpiresAt:       formatTime(post.ExpiresAt),
	}
}

// ApplyPostRequest copies editable fields from the request onto the post
func ApplyPostRequest(post *domain.BusinessPost, req *domain.CreatePostRequest) {
	post.ProjectTitle = req.ProjectTitle
	post.CompanyName = req.CompanyName
	post.AutomationNeeds = req.AutomationNeeds
	post.TechnicalStack = req.TechnicalStack
	post.Budget = req.Budget
	post.Timeline = req.Timeline
	post.Languages = req.Languages
	post.AdditionalInfo = req.AdditionalInfo
	post.ContactEmail = req.ContactEmail
}

// ToPendingRequestDTO converts PendingRequest to PendingRequestDTO
func ToPendingRequestDTO(req *domain.PendingRequest) domain.PendingRequestDTO {
	return domain.PendingRequestDTO{
		ID:               req.ID,
		UserID:           req.UserID,
		CreatorProfileID: req.CreatorProfileID,
		Message:          req.Message,
		Status:           req.Status,
		CreatedAt:        formatTime(req.CreatedAt),
	}
}

// ToConsentDTO converts CookieConsentLog to ConsentDTO
func ToConsentDTO(entry *domain.CookieConsentLog) domain.ConsentDTO {
	return domain.ConsentDTO{
		ID:            entry.ID,
		Essential:     entry.Essential,
		Analytics:     entry.Analytics,
		Marketing:     entry.Marketing,
		PolicyVersion: entry.PolicyVersion,
		Timestamp:     formatTime(entry.CreatedAt),
	}
}

// ToWebhookDeliveryDTO converts WebhookDelivery to WebhookDeliveryDTO
func ToWebhookDeliveryDTO(delivery *domain.WebhookDelivery) domain.WebhookDeliveryDTO {
	return domain.WebhookDeliveryDTO{
		ID:             delivery.ID,
		Event:          delivery.Event,
		IdempotencyKey: delivery.IdempotencyKey,
		Status:         delivery.Status,
		Attempts:       delivery.Attempts,
		NextAttemptAt:  formatTime(delivery.NextAttemptAt),
		LastError:      delivery.LastError,
		Endpoint:       delivery.Endpoint,
		DeliveredAt:    formatTimePtr(delivery.DeliveredAt),
		CreatedAt:      formatTime(delivery.CreatedAt),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// FormatError creates a formatted error message
func FormatError(entity, operation string, err error) error {
	return fmt.Errorf("failed to %s %s: %w", operation, entity, err)
}
