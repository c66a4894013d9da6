package subscription

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"jobcast/app/database"
	"jobcast/app/token"
)

// MockSubscriberRepository implements a simple in-memory repository for testing
type MockSubscriberRepository struct {
	subscribers map[string]*database.Subscriber
	err         error
}

func NewMockSubscriberRepository() *MockSubscriberRepository {
	return &MockSubscriberRepository{subscribers: make(map[string]*database.Subscriber)}
}

func (m *MockSubscriberRepository) GetSubscriber(email string) (*database.Subscriber, error) {
	if m.err != nil {
		return nil, m.err
	}
	sub, ok := m.subscribers[email]
	if !ok {
		return nil, nil
	}
	copied := *sub
	return &copied, nil
}

func (m *MockSubscriberRepository) ExistsByEmail(email string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.subscribers[email]
	return ok, nil
}

func (m *MockSubscriberRepository) ListSubscribers() ([]database.Subscriber, error) {
	if m.err != nil {
		return nil, m.err
	}
	var subs []database.Subscriber
	for _, sub := range m.subscribers {
		subs = append(subs, *sub)
	}
	return subs, nil
}

func (m *MockSubscriberRepository) GetSubscriberCount() (int, error) {
	return len(m.subscribers), nil
}

func (m *MockSubscriberRepository) GetEligibleCount() (int, error) {
	count := 0
	for _, sub := range m.subscribers {
		if sub.Eligible() {
			count++
		}
	}
	return count, nil
}

func (m *MockSubscriberRepository) InsertSubscriber(sub database.Subscriber) error {
	if m.err != nil {
		return m.err
	}
	sub.CreatedAt = time.Now().UTC()
	m.subscribers[sub.Email] = &sub
	return nil
}

func (m *MockSubscriberRepository) MarkVerified(email string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	sub, ok := m.subscribers[email]
	if !ok {
		return false, nil
	}
	sub.IsVerified = true
	sub.Subscribed = true
	return true, nil
}

func (m *MockSubscriberRepository) SetSubscribed(email string, subscribed bool) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	sub, ok := m.subscribers[email]
	if !ok {
		return false, nil
	}
	sub.Subscribed = subscribed
	return true, nil
}

// MockNotifier records outbound emails for testing
type MockNotifier struct {
	verifications []string
	verifyLinks   []string
	unsubscribes  []string
	shouldFail    bool
}

func (m *MockNotifier) SendVerification(_ context.Context, email, verifyLink string) error {
	if m.shouldFail {
		return errors.New("mail gateway unavailable")
	}
	m.verifications = append(m.verifications, email)
	m.verifyLinks = append(m.verifyLinks, verifyLink)
	return nil
}

func (m *MockNotifier) SendUnsubscribeConfirmation(_ context.Context, email string) error {
	if m.shouldFail {
		return errors.New("mail gateway unavailable")
	}
	m.unsubscribes = append(m.unsubscribes, email)
	return nil
}

func newTestService(t *testing.T) (*Service, *MockSubscriberRepository, *MockNotifier) {
	t.Helper()
	repo := NewMockSubscriberRepository()
	notifier := &MockNotifier{}
	codec := token.NewCodec("test-secret", 24*time.Hour)
	svc := NewService(repo, codec, notifier, defaultAllowlist(), "https://alerts.example.com/")
	return svc, repo, notifier
}

func TestService_Register(t *testing.T) {
	svc, repo, notifier := newTestService(t)

	email, err := svc.Register(context.Background(), "  Student@GMAIL.com ")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if email != "student@gmail.com" {
		t.Errorf("Expected normalized email 'student@gmail.com', got '%s'", email)
	}

	sub := repo.subscribers["student@gmail.com"]
	if sub == nil {
		t.Fatal("Expected subscriber record after registration")
	}
	if sub.IsVerified || sub.Subscribed {
		t.Error("New registration must be pending: neither verified nor subscribed")
	}
	if sub.UnsubscribeToken == "" {
		t.Error("Registration must store the unsubscribe token on the record")
	}

	if len(notifier.verifications) != 1 || notifier.verifications[0] != "student@gmail.com" {
		t.Errorf("Expected one verification email to student@gmail.com, got %v", notifier.verifications)
	}
	if !strings.HasPrefix(notifier.verifyLinks[0], "https://alerts.example.com/verify-email/") {
		t.Errorf("Unexpected verification link: %s", notifier.verifyLinks[0])
	}
}

func TestService_Register_SuffixDomain(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.Register(context.Background(), "student@cs.stanford.edu"); err != nil {
		t.Errorf("Register should accept allow-listed suffix domain: %v", err)
	}
}

func TestService_Register_InvalidDomain(t *testing.T) {
	svc, repo, notifier := newTestService(t)

	_, err := svc.Register(context.Background(), "someone@example.com")
	if !errors.Is(err, ErrInvalidDomain) {
		t.Errorf("Expected ErrInvalidDomain, got %v", err)
	}
	if len(repo.subscribers) != 0 {
		t.Error("No store write may occur for a disallowed domain")
	}
	if len(notifier.verifications) != 0 {
		t.Error("No email may be dispatched for a disallowed domain")
	}
}

func TestService_Register_Duplicate(t *testing.T) {
	svc, _, notifier := newTestService(t)

	if _, err := svc.Register(context.Background(), "student@gmail.com"); err != nil {
		t.Fatalf("First registration failed: %v", err)
	}

	_, err := svc.Register(context.Background(), "STUDENT@gmail.com")
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("Expected ErrAlreadyRegistered for same normalized email, got %v", err)
	}
	if len(notifier.verifications) != 1 {
		t.Errorf("Expected exactly one verification email, got %d", len(notifier.verifications))
	}
}

func TestService_Register_NotifierFailure(t *testing.T) {
	svc, _, notifier := newTestService(t)
	notifier.shouldFail = true

	if _, err := svc.Register(context.Background(), "student@gmail.com"); err == nil {
		t.Error("Register should surface a verification dispatch failure")
	}
}

func TestService_ConfirmVerification(t *testing.T) {
	svc, repo, _ := newTestService(t)

	if _, err := svc.Register(context.Background(), "student@gmail.com"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	codec := token.NewCodec("test-secret", 24*time.Hour)
	tok, err := codec.Issue("student@gmail.com", token.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	email, err := svc.ConfirmVerification(context.Background(), tok)
	if err != nil {
		t.Fatalf("ConfirmVerification failed: %v", err)
	}
	if email != "student@gmail.com" {
		t.Errorf("Expected email 'student@gmail.com', got '%s'", email)
	}

	sub := repo.subscribers["student@gmail.com"]
	if !sub.IsVerified || !sub.Subscribed {
		t.Errorf("Expected active subscriber after verification, got verified=%v subscribed=%v", sub.IsVerified, sub.Subscribed)
	}

	// Idempotence: the same still-valid token re-applies the same state.
	if _, err := svc.ConfirmVerification(context.Background(), tok); err != nil {
		t.Errorf("Repeated verification should succeed, got %v", err)
	}
	sub = repo.subscribers["student@gmail.com"]
	if !sub.IsVerified || !sub.Subscribed {
		t.Error("Repeated verification must leave the subscriber active")
	}
}

func TestService_ConfirmVerification_BadToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.ConfirmVerification(context.Background(), "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}

	// Unsubscribe token rejected for the verification purpose.
	codec := token.NewCodec("test-secret", 24*time.Hour)
	tok, _ := codec.Issue("student@gmail.com", token.PurposeUnsubscribe)
	if _, err := svc.ConfirmVerification(context.Background(), tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for wrong purpose, got %v", err)
	}
}

func TestService_ConfirmVerification_UnknownSubscriber(t *testing.T) {
	svc, _, _ := newTestService(t)

	codec := token.NewCodec("test-secret", 24*time.Hour)
	tok, _ := codec.Issue("ghost@gmail.com", token.PurposeEmailVerification)

	if _, err := svc.ConfirmVerification(context.Background(), tok); !errors.Is(err, ErrUnknownSubscriber) {
		t.Errorf("Expected ErrUnknownSubscriber, got %v", err)
	}
}

func TestService_ConfirmUnsubscribe(t *testing.T) {
	svc, repo, notifier := newTestService(t)

	if _, err := svc.Register(context.Background(), "student@gmail.com"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	codec := token.NewCodec("test-secret", 24*time.Hour)
	verifyTok, _ := codec.Issue("student@gmail.com", token.PurposeEmailVerification)
	if _, err := svc.ConfirmVerification(context.Background(), verifyTok); err != nil {
		t.Fatalf("ConfirmVerification failed: %v", err)
	}

	unsubTok := repo.subscribers["student@gmail.com"].UnsubscribeToken
	email, err := svc.ConfirmUnsubscribe(context.Background(), unsubTok)
	if err != nil {
		t.Fatalf("ConfirmUnsubscribe failed: %v", err)
	}
	if email != "student@gmail.com" {
		t.Errorf("Expected email 'student@gmail.com', got '%s'", email)
	}

	sub := repo.subscribers["student@gmail.com"]
	if sub.Subscribed {
		t.Error("Expected subscribed=false after unsubscribe")
	}
	if !sub.IsVerified {
		t.Error("Unsubscribe must retain verification status")
	}
	if len(notifier.unsubscribes) != 1 {
		t.Errorf("Expected one unsubscribe confirmation, got %d", len(notifier.unsubscribes))
	}

	// Idempotent for the same reason verification is.
	if _, err := svc.ConfirmUnsubscribe(context.Background(), unsubTok); err != nil {
		t.Errorf("Repeated unsubscribe should succeed, got %v", err)
	}
}

func TestService_ConfirmUnsubscribe_BadToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.ConfirmUnsubscribe(context.Background(), "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestService_ConfirmUnsubscribe_ConfirmationFailureIsNotFatal(t *testing.T) {
	svc, repo, notifier := newTestService(t)

	if _, err := svc.Register(context.Background(), "student@gmail.com"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	unsubTok := repo.subscribers["student@gmail.com"].UnsubscribeToken

	notifier.shouldFail = true
	if _, err := svc.ConfirmUnsubscribe(context.Background(), unsubTok); err != nil {
		t.Errorf("Unsubscribe should succeed even when the confirmation mail fails, got %v", err)
	}
	if repo.subscribers["student@gmail.com"].Subscribed {
		t.Error("Subscription should be deactivated despite mail failure")
	}
}
