// Package identity owns user accounts and session tokens: sign up, sign in,
// and validating the bearer token of the current session.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/HadesClient/hades-web/app/models"
	"github.com/HadesClient/hades-web/internal/pkg/apperror"
)

var (
	ErrEmailTaken         = apperror.Validation("A user with this email address has already been registered")
	ErrUsernameTaken      = apperror.Validation("Username is already taken")
	ErrWeakPassword       = apperror.Validation("Password should be at least 6 characters")
	ErrInvalidCredentials = apperror.Authentication("Invalid login credentials")
	ErrInvalidToken       = apperror.Authentication("Invalid or expired session")
	ErrAccountBanned      = apperror.Authorization("Account banned")
)

const minPasswordLength = 6

// NewUser is the input for CreateUser.
type NewUser struct {
	Email       string
	Password    string
	Username    string
	AutoConfirm bool
}

// Provider is the identity capability the rest of the application consumes.
type Provider interface {
	CreateUser(ctx context.Context, in NewUser) (*models.UserAccount, error)
	DeleteUser(ctx context.Context, userID string) error
	SignIn(ctx context.Context, email, password string) (*Session, error)
	VerifyToken(token string) (*Claims, error)
}

// Service is the database-backed Provider.
type Service struct {
	db     *gorm.DB
	tokens *TokenIssuer
}

func NewService(db *gorm.DB, tokens *TokenIssuer) *Service {
	return &Service{db: db, tokens: tokens}
}

// CreateUser creates the account and its profile in one transaction.
func (s *Service) CreateUser(ctx context.Context, in NewUser) (*models.UserAccount, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if len(in.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	account := &models.UserAccount{Email: email, Username: in.Username}
	if in.AutoConfirm {
		now := time.Now()
		account.EmailConfirmedAt = &now
	}
	if err := account.SetPassword(in.Password); err != nil {
		return nil, apperror.Internal(err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.UserAccount{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
		if err := tx.Model(&models.Profile{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrUsernameTaken
		}

		if err := tx.Create(account).Error; err != nil {
			return err
		}
		return tx.Create(&models.Profile{UserID: account.ID, Username: in.Username}).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken), errors.Is(err, ErrUsernameTaken):
			return nil, err
		case errors.Is(err, gorm.ErrDuplicatedKey):
			// lost a race with a concurrent sign up
			return nil, ErrEmailTaken
		}
		return nil, apperror.Internal(err)
	}
	return account, nil
}

// DeleteUser removes an account and everything created alongside it.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.Profile{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", userID).Delete(&models.UserAccount{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// SignIn checks credentials and issues a session token.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var account models.UserAccount
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperror.Internal(err)
	}
	if !account.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	var profile models.Profile
	if err := s.db.WithContext(ctx).Where("user_id = ?", account.ID).First(&profile).Error; err != nil {
		return nil, apperror.Internal(err)
	}
	if profile.IsBanned() {
		return nil, ErrAccountBanned
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&account).Update("last_sign_in_at", &now).Error; err != nil {
		log.Warnf("identity: failed to record sign in for %s: %v", account.ID, err)
	}

	return s.tokens.Issue(account.ID, account.Email, profile.Username)
}

func (s *Service) VerifyToken(token string) (*Claims, error) {
	return s.tokens.Verify(token)
}
