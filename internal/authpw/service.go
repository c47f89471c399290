// Package authpw provides email/password accounts backed by the KV store.
package authpw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"skillforge/api/internal/store"
)

const (
	accountKeyPrefix = "accounts:"
	trialDays        = 14
	monthlyPriceKES  = 1500
)

// Subscription statuses carried on the account record. The progress layer
// reads these to resolve certificate tiers.
const (
	SubscriptionTrial        = "trial"
	SubscriptionTrialExpired = "trial_expired"
	SubscriptionFree         = "free"
	SubscriptionPremium      = "premium"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountNotFound    = errors.New("account not found")
)

type Account struct {
	Email           string     `json:"email"`
	FullName        string     `json:"fullName"`
	PasswordHash    string     `json:"passwordHash"`
	Subscription    string     `json:"subscription"`
	TrialStartedAt  *time.Time `json:"trialStartedAt,omitempty"`
	TrialEndsAt     *time.Time `json:"trialEndsAt,omitempty"`
	MonthlyPriceKES int        `json:"monthlyPriceKes"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type Service struct {
	kv  store.KV
	now func() time.Time
}

func NewService(kv store.KV) *Service {
	return &Service{kv: kv, now: time.Now}
}

type SignUpRequest struct {
	Email    string
	Password string
	FullName string
}

// SignUp creates a new account on a fresh trial.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*Account, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" || strings.TrimSpace(req.FullName) == "" {
		return nil, errors.New("email, password, and full name are required")
	}
	if len(req.Password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}
	if _, err := s.load(ctx, email); err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	trialEnds := now.AddDate(0, 0, trialDays)
	account := Account{
		Email:           email,
		FullName:        strings.TrimSpace(req.FullName),
		PasswordHash:    string(hash),
		Subscription:    SubscriptionTrial,
		TrialStartedAt:  &now,
		TrialEndsAt:     &trialEnds,
		MonthlyPriceKES: monthlyPriceKES,
		CreatedAt:       now,
	}
	if err := s.kv.Save(ctx, accountKeyPrefix+email, account); err != nil {
		return nil, fmt.Errorf("save account: %w", err)
	}
	return &account, nil
}

type SignInRequest struct {
	Email    string
	Password string
}

// SignIn authenticates an account. An expired trial is downgraded in place
// before the account is returned.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (*Account, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}
	account, err := s.load(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	s.refreshSubscription(ctx, account)
	return account, nil
}

// Get returns the account for email, refreshing its trial state.
func (s *Service) Get(ctx context.Context, email string) (*Account, error) {
	account, err := s.load(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	s.refreshSubscription(ctx, account)
	return account, nil
}

// SetSubscription overwrites the subscription status, for upgrade and
// downgrade flows handled outside this package.
func (s *Service) SetSubscription(ctx context.Context, email, status string) (*Account, error) {
	account, err := s.load(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	account.Subscription = status
	if err := s.kv.Save(ctx, accountKeyPrefix+account.Email, account); err != nil {
		return nil, fmt.Errorf("save account: %w", err)
	}
	return account, nil
}

func (s *Service) load(ctx context.Context, email string) (*Account, error) {
	raw := s.kv.Load(ctx, accountKeyPrefix+email)
	if len(raw) == 0 {
		return nil, ErrAccountNotFound
	}
	var account Account
	if err := json.Unmarshal(raw, &account); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", email, err)
	}
	return &account, nil
}

func (s *Service) refreshSubscription(ctx context.Context, account *Account) {
	if account.Subscription != SubscriptionTrial || account.TrialEndsAt == nil {
		return
	}
	if s.now().Before(*account.TrialEndsAt) {
		return
	}
	account.Subscription = SubscriptionTrialExpired
	if err := s.kv.Save(ctx, accountKeyPrefix+account.Email, account); err != nil {
		// The downgrade still applies for this request.
		return
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
