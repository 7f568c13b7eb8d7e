package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/auth"
	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/mailer"
	"github.com/aimarketspace/marketplace-api/internal/webhook"
	"github.com/google/uuid"
)

func asUser(u *domain.User) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:    u.ID,
		Email:     u.Email,
		UserType:  u.UserType,
		SessionID: uuid.New(),
	})
}

func asSystem() context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:   auth.SystemUserID,
		Email:    "system",
		IsSystem: true,
	})
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

type fakeSender struct {
	mu   sync.Mutex
	sent []mailer.Email
	err  error
}

func (f *fakeSender) Send(_ context.Context, email mailer.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, email)
	return nil
}

type fakeRelay struct {
	mu       sync.Mutex
	payloads []string
	keys     []string
	fail     bool
}

func (f *fakeRelay) Send(_ context.Context, key string, payload []byte) (webhook.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	f.payloads = append(f.payloads, string(payload))
	if f.fail {
		return webhook.Result{}, errors.New("endpoint unavailable")
	}
	return webhook.Result{Endpoint: "https://hooks.example/test", StatusCode: 200, Tries: 1}, nil
}
