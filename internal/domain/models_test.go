package domain_test

import (
	"testing"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestBusinessPost_Visibility(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		status  domain.PostStatus
		expires time.Time
		expired bool
		visible bool
	}{
		{"active and in the future", domain.PostStatusActive, now.Add(time.Hour), false, true},
		{"active but past expiry", domain.PostStatusActive, now.Add(-time.Second), true, false},
		{"expires exactly now", domain.PostStatusActive, now, true, false},
		{"archived", domain.PostStatusArchived, now.Add(time.Hour), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &domain.BusinessPost{Status: tt.status, ExpiresAt: tt.expires}
			assert.Equal(t, tt.expired, p.IsExpired(now))
			assert.Equal(t, tt.visible, p.IsPubliclyVisible(now))
		})
	}
}

func TestCreatorProfile_IsListable(t *testing.T) {
	p := &domain.CreatorProfile{FullName: "Ada", Title: "Automation engineer", SolutionsFor: []string{"sales", "support"}}
	assert.True(t, p.IsListable("sales"))
	assert.False(t, p.IsListable("marketing"))
	assert.False(t, p.IsListable("sale"))

	p.Title = ""
	assert.False(t, p.IsListable("sales"))
}

func TestSession_IsActive(t *testing.T) {
	now := time.Now()
	s := &domain.Session{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, s.IsActive(now))

	revoked := now
	s.RevokedAt = &revoked
	assert.False(t, s.IsActive(now))

	assert.False(t, (&domain.Session{ExpiresAt: now.Add(-time.Minute)}).IsActive(now))
}

func TestUserType_IsValid(t *testing.T) {
	assert.True(t, domain.UserTypeCreator.IsValid())
	assert.True(t, domain.UserTypeBusiness.IsValid())
	assert.False(t, domain.UserType("admin").IsValid())
}
