package provisioning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pictotext/pictotext/app/models"
	"github.com/pictotext/pictotext/app/repository"
)

func newTestService() (*Service, *repository.Repositories) {
	repos := repository.NewMemoryRepositories()
	return NewService(repos, NewMemoryPendingStore()), repos
}

func TestRegisterUnpaidEmailParksSignup(t *testing.T) {
	t.Parallel()

	svc, repos := newTestService()

	outcome, err := svc.Register("sess-1", "newbie", "newbie@example.com", "secret-password")
	require.NoError(t, err)
	assert.True(t, outcome.PaymentRequired)
	assert.Equal(t, "newbie@example.com", outcome.Email)
	assert.Nil(t, outcome.User)

	count, err := repos.User.Count()
	require.NoError(t, err)
	assert.Zero(t, count, "no account exists before payment")

	reg, err := svc.pending.Get("sess-1")
	require.NoError(t, err)
	require.NotNil(t, reg)
	assert.Equal(t, "newbie", reg.Username)
	assert.NotEqual(t, "secret-password", reg.PasswordHash)
}

func TestRegisterPaidEmailCreatesImmediately(t *testing.T) {
	t.Parallel()

	svc, repos := newTestService()
	require.NoError(t, repos.PremiumListing.Upsert(&models.PremiumListing{
		Email:  "paid@example.com",
		Status: models.LISTING_STATUS_ACTIVE,
	}))

	outcome, err := svc.Register("sess-2", "payer", "paid@example.com", "secret-password")
	require.NoError(t, err)
	assert.False(t, outcome.PaymentRequired)
	require.NotNil(t, outcome.User)
	assert.NotZero(t, outcome.User.ID)
	assert.Zero(t, outcome.User.MonthlyUsage)
}

func TestRegisterCancelledListingStillRequiresPayment(t *testing.T) {
	t.Parallel()

	svc, repos := newTestService()
	require.NoError(t, repos.PremiumListing.Upsert(&models.PremiumListing{
		Email:  "lapsed@example.com",
		Status: models.LISTING_STATUS_CANCELLED,
	}))

	outcome, err := svc.Register("sess-3", "lapsed", "lapsed@example.com", "secret-password")
	require.NoError(t, err)
	assert.True(t, outcome.PaymentRequired)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	t.Parallel()

	svc, repos := newTestService()
	existing, err := models.CreateUser("taken", "taken@example.com", "secret-password")
	require.NoError(t, err)
	require.NoError(t, repos.User.Create(existing))

	_, err = svc.Register("sess-4", "taken", "fresh@example.com", "secret-password")
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = svc.Register("sess-4", "fresh", "taken@example.com", "secret-password")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestConfirmPaymentMaterializesPendingSignup(t *testing.T) {
	t.Parallel()

	svc, repos := newTestService()

	_, err := svc.Register("sess-5", "buyer", "buyer@example.com", "secret-password")
	require.NoError(t, err)

	outcome, err := svc.ConfirmPayment("sess-5", "buyer@example.com", "order-abc")
	require.NoError(t, err)
	assert.True(t, outcome.AccountCreated)
	require.NotNil(t, outcome.User)

	user, err := repos.User.GetByEmail("buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, "buyer", user.Username)
	assert.True(t, user.CheckPassword("secret-password"))

	listing, err := repos.PremiumListing.GetByEmail("buyer@example.com")
	require.NoError(t, err)
	assert.True(t, listing.IsActive())
	assert.Equal(t, "order-abc", listing.PaymentRef)

	payment, err := repos.Payment.GetByOrderRef("order-abc")
	require.NoError(t, err)
	assert.Equal(t, models.PAYMENT_STATUS_COMPLETED, payment.Status)

	// The held signup is consumed.
	reg, err := svc.pending.Get("sess-5")
	require.NoError(t, err)
	assert.Nil(t, reg)
}

func TestConfirmPaymentMismatchedEmailKeepsListing(t *testing.T) {
	t.Parallel()

	svc, repos := newTestService()

	_, err := svc.Register("sess-6", "alpha", "alpha@example.com", "secret-password")
	require.NoError(t, err)

	outcome, err := svc.ConfirmPayment("sess-6", "other@example.com", "order-def")
	require.NoError(t, err)
	assert.False(t, outcome.AccountCreated)

	// Payment credit persists under the paid email.
	listing, err := repos.PremiumListing.GetByEmail("other@example.com")
	require.NoError(t, err)
	assert.True(t, listing.IsActive())

	// The original signup is still held for its own payment.
	reg, err := svc.pending.Get("sess-6")
	require.NoError(t, err)
	require.NotNil(t, reg)
	assert.Equal(t, "alpha@example.com", reg.Email)
}

func TestConfirmPaymentCreationFailureKeepsCredit(t *testing.T) {
	t.Parallel()

	svc, repos := newTestService()

	// The pending username gets taken between signup and payment.
	_, err := svc.Register("sess-7", "contested", "contested@example.com", "secret-password")
	require.NoError(t, err)
	squatter, err := models.CreateUser("contested", "squatter@example.com", "secret-password")
	require.NoError(t, err)
	require.NoError(t, repos.User.Create(squatter))

	outcome, err := svc.ConfirmPayment("sess-7", "contested@example.com", "order-ghi")
	assert.ErrorIs(t, err, ErrRegistrationIncomplete)
	assert.False(t, outcome.AccountCreated)

	// The allow-list entry survives, so re-registering succeeds without a
	// second payment.
	reg, err := svc.Register("sess-7b", "contested2", "contested@example.com", "secret-password")
	require.NoError(t, err)
	assert.False(t, reg.PaymentRequired)
	require.NotNil(t, reg.User)
}

func TestOAuthSignInKnownIdentity(t *testing.T) {
	t.Parallel()

	svc, repos := newTestService()
	user, err := models.CreateOAuthUser("oauthed", "oauthed@example.com", models.OAUTH_PROVIDER_GOOGLE, "google-123")
	require.NoError(t, err)
	require.NoError(t, repos.User.Create(user))

	outcome, err := svc.OAuthSignIn(models.OAUTH_PROVIDER_GOOGLE, "google-123", "oauthed@example.com", "OAuthed Person")
	require.NoError(t, err)
	require.NotNil(t, outcome.User)
	assert.Equal(t, user.ID, outcome.User.ID)
	assert.False(t, outcome.NeedsPayment)
	assert.NotNil(t, outcome.User.LastLoginAt)
}

func TestOAuthSignInUnpaidEmailNeedsPayment(t *testing.T) {
	t.Parallel()

	svc, repos := newTestService()

	outcome, err := svc.OAuthSignIn(models.OAUTH_PROVIDER_GOOGLE, "google-456", "stranger@example.com", "Stranger")
	require.NoError(t, err)
	assert.True(t, outcome.NeedsPayment)
	assert.Equal(t, "stranger@example.com", outcome.Email)
	assert.Nil(t, outcome.User)

	count, err := repos.User.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOAuthSignInPaidEmailAutoCreates(t *testing.T) {
	t.Parallel()

	svc, repos := newTestService()
	require.NoError(t, repos.PremiumListing.Upsert(&models.PremiumListing{
		Email:  "vip@example.com",
		Status: models.LISTING_STATUS_ACTIVE,
	}))

	outcome, err := svc.OAuthSignIn(models.OAUTH_PROVIDER_GOOGLE, "google-789", "vip@example.com", "Vip Person")
	require.NoError(t, err)
	require.NotNil(t, outcome.User)
	assert.Equal(t, "Vip_Person", outcome.User.Username)
	assert.False(t, outcome.User.HasPassword())

	// A second sign-in finds the same account.
	again, err := svc.OAuthSignIn(models.OAUTH_PROVIDER_GOOGLE, "google-789", "vip@example.com", "Vip Person")
	require.NoError(t, err)
	assert.Equal(t, outcome.User.ID, again.User.ID)
}

func TestOAuthSignInAdoptsPasswordAccount(t *testing.T) {
	t.Parallel()

	svc, repos := newTestService()
	user, err := models.CreateUser("linked", "linked@example.com", "secret-password")
	require.NoError(t, err)
	require.NoError(t, repos.User.Create(user))

	outcome, err := svc.OAuthSignIn(models.OAUTH_PROVIDER_GOOGLE, "google-link", "linked@example.com", "Linked")
	require.NoError(t, err)
	require.NotNil(t, outcome.User)
	assert.Equal(t, user.ID, outcome.User.ID)
	assert.Equal(t, "google-link", outcome.User.OAuthID)
}

func TestOAuthUsernameFallbacks(t *testing.T) {
	t.Parallel()

	svc, repos := newTestService()
	require.NoError(t, repos.PremiumListing.Upsert(&models.PremiumListing{
		Email:  "noname@example.com",
		Status: models.LISTING_STATUS_ACTIVE,
	}))

	outcome, err := svc.OAuthSignIn(models.OAUTH_PROVIDER_GOOGLE, "google-empty", "noname@example.com", "")
	require.NoError(t, err)
	require.NotNil(t, outcome.User)
	assert.Equal(t, "noname", outcome.User.Username)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	svc, repos := newTestService()
	user, err := models.CreateUser("login", "login@example.com", "secret-password")
	require.NoError(t, err)
	require.NoError(t, repos.User.Create(user))

	got, err := svc.Login("Login@Example.com", "secret-password")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Login("login@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("nobody@example.com", "secret-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMemoryPendingStoreExpiry(t *testing.T) {
	t.Parallel()

	store := NewMemoryPendingStore().(*memoryPendingStore)
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	require.NoError(t, store.Put("sess-x", &PendingRegistration{Username: "x", Email: "x@example.com"}))

	store.now = func() time.Time { return base.Add(PendingTTL + time.Minute) }
	reg, err := store.Get("sess-x")
	require.NoError(t, err)
	assert.Nil(t, reg, "held signups expire after the TTL")
}
