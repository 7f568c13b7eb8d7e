package auth

import (
	"context"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/google/uuid"
)

// SystemUserID identifies requests authenticated with the API key
var SystemUserID = uuid.Nil

// UserContext holds authenticated user information
type UserContext struct {
	UserID    uuid.UUID
	Email     string
	UserType  domain.UserType
	SessionID uuid.UUID
	// IsSystem is set for API key callers (back-office automation)
	IsSystem bool
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// IsCreator reports whether the token was issued to a creator account
func (u *UserContext) IsCreator() bool {
	return u.UserType == domain.UserTypeCreator
}

// IsBusiness reports whether the token was issued to a business account
func (u *UserContext) IsBusiness() bool {
	return u.UserType == domain.UserTypeBusiness
}

// Actor returns the identity recorded in audit trails
func (u *UserContext) Actor() string {
	if u.IsSystem {
		return "system"
	}
	return u.Email
}
