package mapper_test

import (
	"testing"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/mapper"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCreatorProfileDTO_YouTubeThumbnail(t *testing.T) {
	profile := &domain.CreatorProfile{
		FullName: "Ada Lovelace",
		Title:    "Automation Engineer",
		VideoURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}
	profile.ID = uuid.New()

	dto := mapper.ToCreatorProfileDTO(profile)
	require.NotNil(t, dto.Video)
	assert.Equal(t, domain.VideoPlatformYouTube, dto.Video.Platform)
	assert.Equal(t, "https://img.youtube.com/vi/dQw4w9WgXcQ/mqdefault.jpg", dto.VideoThumbnailURL)
	assert.Equal(t, []string{}, dto.Languages)
}

func TestToCreatorProfileDTO_LoomHasNoThumbnail(t *testing.T) {
	profile := &domain.CreatorProfile{VideoURL: "https://www.loom.com/share/abc123"}
	dto := mapper.ToCreatorProfileDTO(profile)
	require.NotNil(t, dto.Video)
	assert.Equal(t, domain.VideoPlatformLoom, dto.Video.Platform)
	assert.Empty(t, dto.VideoThumbnailURL)
}

func TestToCreatorProfileDTO_UnknownVideo(t *testing.T) {
	dto := mapper.ToCreatorProfileDTO(&domain.CreatorProfile{VideoURL: "https://vimeo.com/1"})
	assert.Nil(t, dto.Video)
	assert.Equal(t, "https://vimeo.com/1", dto.VideoURL)
}

func TestToVerificationStatusDTO_NoProfile(t *testing.T) {
	dto := mapper.ToVerificationStatusDTO(nil, "contact@aimeetplace.com")
	assert.Equal(t, domain.VerificationStatusNone, dto.Status)
	assert.Equal(t, domain.VerificationViewForm, dto.View)
	assert.True(t, dto.CanSubmit)
	assert.Equal(t, domain.MaxVerificationAttempts, dto.AttemptsRemaining)
	assert.Empty(t, dto.SupportEmail)
	assert.Nil(t, dto.SubmittedAt)
}

func TestToVerificationStatusDTO_ExhaustedShowsSupport(t *testing.T) {
	linkedin := "https://linkedin.com/company/acme"
	profile := &domain.BusinessProfile{
		CompanyEmail:       "ops@acme.example",
		CompanyWebsite:     "https://acme.example",
		LinkedInURL:        &linkedin,
		VerificationStatus: domain.VerificationStatusRejected,
		AttemptCount:       3,
		SubmittedAt:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	dto := mapper.ToVerificationStatusDTO(profile, "contact@aimeetplace.com")
	assert.Equal(t, domain.VerificationViewContactSupport, dto.View)
	assert.False(t, dto.CanSubmit)
	assert.Equal(t, 0, dto.AttemptsRemaining)
	assert.Equal(t, "contact@aimeetplace.com", dto.SupportEmail)
	assert.Equal(t, linkedin, dto.LinkedInURL)
	require.NotNil(t, dto.SubmittedAt)
	assert.Equal(t, "2026-01-02T03:04:05Z", *dto.SubmittedAt)
}

func TestToBusinessPostDTO_Expiry(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	post := &domain.BusinessPost{Status: domain.PostStatusActive, ExpiresAt: now}

	assert.True(t, mapper.ToBusinessPostDTO(post, now).IsExpired)

	post.ExpiresAt = now.Add(time.Second)
	dto := mapper.ToBusinessPostDTO(post, now)
	assert.False(t, dto.IsExpired)
	assert.Equal(t, "2026-05-01T12:00:01Z", dto.ExpiresAt)
}

func TestFormatTime_ConvertsToUTC(t *testing.T) {
	oslo := time.FixedZone("CET", 3600)
	user := &domain.User{Email: "a@b.c", UserType: domain.UserTypeCreator}
	user.CreatedAt = time.Date(2026, 3, 1, 10, 0, 0, 0, oslo)

	assert.Equal(t, "2026-03-01T09:00:00Z", mapper.ToUserDTO(user).CreatedAt)
}
