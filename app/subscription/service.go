package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"jobcast/app/database"
	"jobcast/app/token"
)

var (
	ErrInvalidDomain     = errors.New("email domain is not allowed")
	ErrAlreadyRegistered = errors.New("email is already registered")
	ErrInvalidToken      = errors.New("token is invalid or expired")
	ErrUnknownSubscriber = errors.New("no subscriber matches the token")
)

// Notifier is the slice of the mailer the lifecycle needs.
type Notifier interface {
	SendVerification(ctx context.Context, email, verifyLink string) error
	SendUnsubscribeConfirmation(ctx context.Context, email string) error
}

// Service drives the subscriber lifecycle:
// registration (pending) -> verification (active) -> unsubscribe (inactive).
type Service struct {
	subscribers database.SubscriberRepository
	codec       *token.Codec
	notifier    Notifier
	allowlist   *Allowlist
	baseURL     string
}

func NewService(subscribers database.SubscriberRepository, codec *token.Codec,
	notifier Notifier, allowlist *Allowlist, baseURL string) *Service {
	return &Service{
		subscribers: subscribers,
		codec:       codec,
		notifier:    notifier,
		allowlist:   allowlist,
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

// NormalizeEmail is the identity normalization applied everywhere an
// email enters the system.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a pending subscriber and dispatches the verification
// email. Registration is not an upsert: a second call for the same
// normalized email fails with ErrAlreadyRegistered.
func (s *Service) Register(ctx context.Context, email string) (string, error) {
	email = NormalizeEmail(email)

	if !s.allowlist.Allowed(email) {
		return "", ErrInvalidDomain
	}

	exists, err := s.subscribers.ExistsByEmail(email)
	if err != nil {
		return "", fmt.Errorf("failed to check registration: %w", err)
	}
	if exists {
		return "", ErrAlreadyRegistered
	}

	verificationToken, err := s.codec.Issue(email, token.PurposeEmailVerification)
	if err != nil {
		return "", fmt.Errorf("failed to issue verification token: %w", err)
	}

	// The unsubscribe token is stored on the record so job-alert emails
	// can carry the link without recomputing it.
	unsubscribeToken, err := s.codec.Issue(email, token.PurposeUnsubscribe)
	if err != nil {
		return "", fmt.Errorf("failed to issue unsubscribe token: %w", err)
	}

	err = s.subscribers.InsertSubscriber(database.Subscriber{
		Email:            email,
		IsVerified:       false,
		Subscribed:       false,
		UnsubscribeToken: unsubscribeToken,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store subscriber: %w", err)
	}

	verifyLink := s.baseURL + "/verify-email/" + verificationToken
	if err := s.notifier.SendVerification(ctx, email, verifyLink); err != nil {
		return "", fmt.Errorf("failed to send verification email: %w", err)
	}

	slog.Info("Subscriber registered", "email", email)

	return email, nil
}

// ConfirmVerification activates the subscriber bound to a valid
// email_verification token. Tokens are stateless and never marked used,
// so re-submitting a still-valid token re-applies the same state.
func (s *Service) ConfirmVerification(_ context.Context, tokenString string) (string, error) {
	email, ok := s.codec.Verify(tokenString, token.PurposeEmailVerification)
	if !ok {
		return "", ErrInvalidToken
	}

	matched, err := s.subscribers.MarkVerified(email)
	if err != nil {
		return "", fmt.Errorf("failed to activate subscriber: %w", err)
	}
	if !matched {
		return "", ErrUnknownSubscriber
	}

	slog.Info("Subscriber verified", "email", email)

	return email, nil
}

// ConfirmUnsubscribe deactivates the subscription bound to a valid
// unsubscribe token. The record is retained with its verification
// status, so a later re-verification can reactivate it. Idempotent.
func (s *Service) ConfirmUnsubscribe(ctx context.Context, tokenString string) (string, error) {
	email, ok := s.codec.Verify(tokenString, token.PurposeUnsubscribe)
	if !ok {
		return "", ErrInvalidToken
	}

	matched, err := s.subscribers.SetSubscribed(email, false)
	if err != nil {
		return "", fmt.Errorf("failed to deactivate subscriber: %w", err)
	}
	if !matched {
		return "", ErrUnknownSubscriber
	}

	// Confirmation mail is best-effort; the unsubscribe itself succeeded.
	if err := s.notifier.SendUnsubscribeConfirmation(ctx, email); err != nil {
		slog.Warn("Failed to send unsubscribe confirmation", "email", email, "error", err)
	}

	slog.Info("Subscriber unsubscribed", "email", email)

	return email, nil
}
