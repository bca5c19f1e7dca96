package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const (
	OAUTH_PROVIDER_GOOGLE = "google"

	// bcrypt cost used for account passwords
	PasswordHashCost = 12
)

// User is a premium account. A row exists only for emails that were on the
// premium allow-list at creation time; anonymous free-tier callers never get
// a User. PasswordHash is empty for OAuth-only accounts.
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Username       string     `gorm:"uniqueIndex;type:varchar(150)" json:"username" validate:"required,min=3,max=150"`
	Email          string     `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	PasswordHash   string     `gorm:"type:text" json:"-"`
	OAuthProvider  string     `gorm:"column:oauth_provider;type:varchar(50);default:null;index:idx_users_oauth" json:"-"`
	OAuthID        string     `gorm:"column:oauth_id;type:varchar(191);default:null;index:idx_users_oauth" json:"-"`
	MonthlyUsage   int        `gorm:"not null;default:0" json:"monthly_usage"`
	LastUsageReset time.Time  `gorm:"not null" json:"last_usage_reset"`
	LastLoginAt    *time.Time `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// CreateUser builds a password-credentialed user. The caller is responsible
// for checking the allow-list first; this only hashes and validates.
func CreateUser(username string, email string, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username:       username,
		Email:          email,
		PasswordHash:   pw,
		LastUsageReset: time.Now(),
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

// CreateOAuthUser builds a user with no password credential.
func CreateOAuthUser(username string, email string, provider string, oauthID string) (*User, error) {
	u := &User{
		Username:       username,
		Email:          email,
		OAuthProvider:  provider,
		OAuthID:        oauthID,
		LastUsageReset: time.Now(),
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// HasPassword reports whether password login is possible for this user.
// OAuth-created accounts may have no password credential at all; login code
// must check this instead of comparing against an empty hash.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	if !u.HasPassword() {
		return false
	}
	return CheckPasswordHash(password, u.PasswordHash)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hashedPassword
	return nil
}
