package provisioning

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pictotext/pictotext/app/models"
	"github.com/pictotext/pictotext/app/repository"
)

var (
	// ErrDuplicateUsername means the requested username is taken.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrDuplicateEmail means an account already exists for the email.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// login failures do not leak which one it was.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrRegistrationIncomplete means the payment went through but the held
	// registration could not be turned into an account. The payment is kept,
	// the visitor registers again without paying twice.
	ErrRegistrationIncomplete = errors.New("payment successful, please retry registration")
)

// RegisterOutcome is the result of a registration attempt.
type RegisterOutcome struct {
	// User is set when the account was created immediately.
	User *models.User
	// PaymentRequired is set when the signup was parked until payment
	// confirms. Email echoes the address payment must be made for.
	PaymentRequired bool
	Email           string
}

// ConfirmOutcome is the result of a payment confirmation.
type ConfirmOutcome struct {
	// AccountCreated reports whether a held registration was materialized
	// into a real account as part of the confirmation.
	AccountCreated bool
	User           *models.User
}

// AuthOutcome is the result of an OAuth sign-in attempt.
type AuthOutcome struct {
	// User is set when the sign-in authenticated an account.
	User *models.User
	// NeedsPayment is set when the OAuth identity is valid but the email has
	// not paid yet. Email carries the address to collect payment for.
	NeedsPayment bool
	Email        string
}

// Service runs account provisioning: payment-gated registration, payment
// confirmation, OAuth sign-in and password login.
type Service struct {
	users    repository.UserRepository
	listings repository.PremiumListingRepository
	payments repository.PaymentRepository
	pending  PendingStore
	now      func() time.Time
}

// NewService wires the provisioning service over its stores.
func NewService(repos *repository.Repositories, pending PendingStore) *Service {
	return &Service{
		users:    repos.User,
		listings: repos.PremiumListing,
		payments: repos.Payment,
		pending:  pending,
		now:      time.Now,
	}
}

// paid reports whether the email holds an active allow-list entry.
func (s *Service) paid(email string) (bool, error) {
	listing, err := s.listings.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return listing.IsActive(), nil
}

// checkAvailable verifies neither the username nor the email is taken.
func (s *Service) checkAvailable(username, email string) error {
	if _, err := s.users.GetByUsername(username); err == nil {
		return ErrDuplicateUsername
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if _, err := s.users.GetByEmail(email); err == nil {
		return ErrDuplicateEmail
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

// Register creates the account right away when the email has already paid.
// Otherwise the signup is parked under the caller's session until payment
// confirms.
func (s *Service) Register(sessionID, username, email, password string) (*RegisterOutcome, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if err := s.checkAvailable(username, email); err != nil {
		return nil, err
	}

	user, err := models.CreateUser(username, email, password)
	if err != nil {
		return nil, err
	}

	hasPaid, err := s.paid(email)
	if err != nil {
		return nil, err
	}

	if !hasPaid {
		reg := &PendingRegistration{
			Username:     username,
			Email:        email,
			PasswordHash: user.PasswordHash,
			CreatedAt:    s.now(),
		}
		if err := s.pending.Put(sessionID, reg); err != nil {
			return nil, err
		}
		return &RegisterOutcome{PaymentRequired: true, Email: email}, nil
	}

	user.LastUsageReset = s.now()
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	return &RegisterOutcome{User: user, Email: email}, nil
}

// ConfirmPayment records the payment, places the email on the allow-list and
// materializes the held registration when its email matches. The allow-list
// entry survives even when account creation fails afterwards, so the visitor
// never pays twice.
func (s *Service) ConfirmPayment(sessionID, email, orderRef string) (*ConfirmOutcome, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	completedAt := s.now()
	payment := &models.Payment{
		Email:       email,
		OrderRef:    orderRef,
		Status:      models.PAYMENT_STATUS_COMPLETED,
		CompletedAt: &completedAt,
	}
	if err := s.payments.Create(payment); err != nil {
		return nil, err
	}

	listing := &models.PremiumListing{
		Email:      email,
		PaymentRef: orderRef,
		Status:     models.LISTING_STATUS_ACTIVE,
	}
	if err := s.listings.Upsert(listing); err != nil {
		return nil, err
	}

	reg, err := s.pending.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if reg == nil || !strings.EqualFold(reg.Email, email) {
		// Payment for a different email than the held signup, or no signup
		// at all. The allow-list entry stands either way.
		return &ConfirmOutcome{AccountCreated: false}, nil
	}

	user := &models.User{
		Username:       reg.Username,
		Email:          reg.Email,
		PasswordHash:   reg.PasswordHash,
		LastUsageReset: s.now(),
	}
	if err := s.users.Create(user); err != nil {
		return &ConfirmOutcome{AccountCreated: false}, ErrRegistrationIncomplete
	}

	// The entry expires on its own if the delete fails.
	_ = s.pending.Delete(sessionID)
	return &ConfirmOutcome{AccountCreated: true, User: user}, nil
}

// OAuthSignIn resolves an OAuth identity to an account. Known identities
// authenticate, unknown ones with a paid email are created on the spot, the
// rest are sent to payment.
func (s *Service) OAuthSignIn(provider, oauthID, email, displayName string) (*AuthOutcome, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByOAuth(provider, oauthID)
	if err == nil {
		s.touchLogin(user)
		return &AuthOutcome{User: user}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// An existing password account with the same email adopts the OAuth
	// identity instead of producing a duplicate.
	if existing, err := s.users.GetByEmail(email); err == nil {
		existing.OAuthProvider = provider
		existing.OAuthID = oauthID
		s.touchLogin(existing)
		return &AuthOutcome{User: existing}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hasPaid, err := s.paid(email)
	if err != nil {
		return nil, err
	}
	if !hasPaid {
		return &AuthOutcome{NeedsPayment: true, Email: email}, nil
	}

	username, err := s.pickUsername(displayName, email, provider, oauthID)
	if err != nil {
		return nil, err
	}
	user, err = models.CreateOAuthUser(username, email, provider, oauthID)
	if err != nil {
		return nil, err
	}
	user.LastUsageReset = s.now()
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	s.touchLogin(user)
	return &AuthOutcome{User: user}, nil
}

// pickUsername derives a username from the OAuth profile, falling back to
// the email local part and finally a provider-scoped identifier, suffixing
// until it is free.
func (s *Service) pickUsername(displayName, email, provider, oauthID string) (string, error) {
	base := strings.TrimSpace(displayName)
	if base == "" {
		if at := strings.Index(email, "@"); at > 0 {
			base = email[:at]
		}
	}
	if base == "" {
		base = fmt.Sprintf("%s_%s", provider, oauthID)
	}
	base = strings.ReplaceAll(base, " ", "_")
	if len(base) < 3 {
		base = base + "_user"
	}
	if len(base) > 140 {
		base = base[:140]
	}

	candidate := base
	for i := 1; i <= 100; i++ {
		_, err := s.users.GetByUsername(candidate)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s_%d", base, i)
	}
	return "", ErrDuplicateUsername
}

// Login authenticates an email and password pair.
func (s *Service) Login(email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	s.touchLogin(user)
	return user, nil
}

func (s *Service) touchLogin(user *models.User) {
	now := s.now()
	user.LastLoginAt = &now
	// Login bookkeeping is best effort, a failed write must not block the
	// sign-in.
	_ = s.users.Update(user)
}
