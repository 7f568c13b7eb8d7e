package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aimarketspace/marketplace-api/internal/auth"
	"github.com/aimarketspace/marketplace-api/internal/config"
	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/logger"
	"github.com/aimarketspace/marketplace-api/internal/mailer"
	"github.com/aimarketspace/marketplace-api/internal/mapper"
	"github.com/aimarketspace/marketplace-api/internal/metrics"
	"github.com/aimarketspace/marketplace-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const magicLinkTokenBytes = 32

type AuthService struct {
	userRepo      *repository.UserRepository
	magicLinkRepo *repository.MagicLinkRepository
	sessionRepo   *repository.SessionRepository
	resolver      userTypeResolver
	tokens        *auth.TokenManager
	mailer        mailer.Sender
	cfg           *config.AuthConfig
	logger        *zap.Logger
	db            *gorm.DB
	now           Clock
}

func NewAuthService(
	userRepo *repository.UserRepository,
	magicLinkRepo *repository.MagicLinkRepository,
	sessionRepo *repository.SessionRepository,
	creatorRepo *repository.CreatorProfileRepository,
	businessRepo *repository.BusinessProfileRepository,
	tokens *auth.TokenManager,
	sender mailer.Sender,
	cfg *config.AuthConfig,
	logger *zap.Logger,
	db *gorm.DB,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		magicLinkRepo: magicLinkRepo,
		sessionRepo:   sessionRepo,
		resolver:      userTypeResolver{creatorRepo: creatorRepo, businessRepo: businessRepo},
		tokens:        tokens,
		mailer:        sender,
		cfg:           cfg,
		logger:        logger,
		db:            db,
		now:           utcNow,
	}
}

// CheckEmail reports whether an account exists for the address. New
// addresses must accept the terms before a link is issued.
func (s *AuthService) CheckEmail(ctx context.Context, req *domain.CheckEmailRequest) (*domain.CheckEmailResponse, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	return &domain.CheckEmailResponse{Exists: exists, TermsRequired: !exists}, nil
}

// RequestMagicLink issues a one-time sign-in link and emails it
func (s *AuthService) RequestMagicLink(ctx context.Context, req *domain.MagicLinkRequest) (*domain.MagicLinkResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	now := s.now()

	userType := req.UserType
	var termsAcceptedAt *time.Time

	existing, err := s.userRepo.GetByEmail(ctx, nil, email)
	switch {
	case err == nil:
		userType = existing.UserType
	case isNotFound(err):
		if !req.AcceptTerms {
			metrics.RecordMagicLink("terms_required")
			return nil, ErrTermsRequired
		}
		termsAcceptedAt = &now
	default:
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	token, hash, err := newMagicLinkToken()
	if err != nil {
		return nil, err
	}

	expiresAt := now.Add(s.cfg.MagicLinkTTLDuration())
	record := &domain.MagicLinkToken{
		Email:           email,
		TokenHash:       hash,
		UserType:        userType,
		TermsAcceptedAt: termsAcceptedAt,
		ExpiresAt:       expiresAt,
	}
	if err := s.magicLinkRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store magic link: %w", err)
	}

	msg, err := mailer.MagicLinkEmail(email, s.magicLink(token), s.cfg.MagicLinkTTLDuration())
	if err != nil {
		return nil, err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		metrics.RecordMagicLink("failed")
		s.logger.Error("failed to send magic link",
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	metrics.RecordMagicLink("sent")
	s.logger.Info("magic link sent",
		zap.String("email", logger.MaskEmail(email)),
		zap.String("user_type", string(userType)),
		zap.Bool("new_user", existing == nil),
	)

	return &domain.MagicLinkResponse{
		Message:   "Check your email for the sign-in link",
		ExpiresAt: expiresAt.Format(time.RFC3339),
	}, nil
}

// VerifyMagicLink redeems a link and starts a session. The first redemption
// for an address creates the account.
func (s *AuthService) VerifyMagicLink(ctx context.Context, req *domain.VerifyMagicLinkRequest, ipAddress, userAgent string) (*domain.SessionResponse, error) {
	now := s.now()
	hash := hashToken(req.Token)

	var user *domain.User
	var session *domain.Session
	var accessToken string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		token, err := s.magicLinkRepo.Consume(ctx, tx, hash, now)
		if err != nil {
			if isNotFound(err) {
				return ErrInvalidMagicLink
			}
			return fmt.Errorf("failed to consume magic link: %w", err)
		}

		user, err = s.userRepo.GetByEmail(ctx, tx, token.Email)
		if isNotFound(err) {
			user = &domain.User{
				Email:           token.Email,
				UserType:        token.UserType,
				TermsAcceptedAt: token.TermsAcceptedAt,
			}
			if err := s.userRepo.Create(ctx, tx, user); err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to look up user: %w", err)
		}

		if err := s.userRepo.UpdateLastSignIn(ctx, tx, user.ID, now); err != nil {
			return fmt.Errorf("failed to record sign-in: %w", err)
		}
		user.LastSignInAt = &now

		session = &domain.Session{
			UserID:    user.ID,
			ExpiresAt: now.Add(s.cfg.SessionTTLDuration()),
			IPAddress: truncate(ipAddress, 64),
			UserAgent: truncate(userAgent, 500),
		}
		if err := s.sessionRepo.Create(ctx, tx, session); err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}

		accessToken, err = s.tokens.Issue(user, session.ID, now, session.ExpiresAt)
		return err
	})
	if err != nil {
		return nil, err
	}

	resolved, err := s.resolver.resolve(ctx, user.ID, user.UserType)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed in",
		zap.String("user_id", user.ID.String()),
		zap.String("user_type", string(resolved.UserType)),
	)

	return &domain.SessionResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresAt:   session.ExpiresAt.Format(time.RFC3339),
		User:        mapper.ToUserDTO(user),
		Redirect:    resolved.redirect(),
	}, nil
}

// Me describes the signed-in user
func (s *AuthService) Me(ctx context.Context) (*domain.MeResponse, error) {
	userCtx, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userCtx.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	resolved, err := s.resolver.resolve(ctx, user.ID, user.UserType)
	if err != nil {
		return nil, err
	}

	return &domain.MeResponse{
		User:               mapper.ToUserDTO(user),
		UserType:           resolved.UserType,
		HasCreatorProfile:  resolved.HasCreatorProfile,
		VerificationStatus: domain.StatusOf(resolved.Business),
		Redirect:           resolved.redirect(),
	}, nil
}

// Logout revokes the session behind the caller's token
func (s *AuthService) Logout(ctx context.Context) error {
	userCtx, err := requireUser(ctx)
	if err != nil {
		return err
	}
	if err := s.sessionRepo.Revoke(ctx, userCtx.SessionID, s.now()); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// SessionActive implements auth.SessionChecker
func (s *AuthService) SessionActive(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	_, err := s.sessionRepo.GetActive(ctx, sessionID, s.now())
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CleanupExpired removes expired magic links and sessions
func (s *AuthService) CleanupExpired(ctx context.Context) (int64, int64, error) {
	now := s.now()
	tokens, err := s.magicLinkRepo.DeleteExpired(ctx, now)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete expired magic links: %w", err)
	}
	sessions, err := s.sessionRepo.DeleteExpired(ctx, now)
	if err != nil {
		return tokens, 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return tokens, sessions, nil
}

func (s *AuthService) magicLink(token string) string {
	sep := "?"
	if strings.Contains(s.cfg.MagicLinkURL, "?") {
		sep = "&"
	}
	return s.cfg.MagicLinkURL + sep + "token=" + url.QueryEscape(token)
}

func newMagicLinkToken() (string, string, error) {
	buf := make([]byte, magicLinkTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	return token, hashToken(token), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// truncate caps s at max bytes without splitting a rune. Invalid UTF-8 from
// client headers is replaced so Postgres accepts the value.
func truncate(s string, max int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

var _ auth.SessionChecker = (*AuthService)(nil)
