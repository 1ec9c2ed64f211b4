// Package registration gates account creation behind single-use invite keys.
package registration

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/HadesClient/hades-web/app/repository"
	"github.com/HadesClient/hades-web/internal/pkg/apperror"
	"github.com/HadesClient/hades-web/internal/pkg/identity"
	"github.com/HadesClient/hades-web/internal/pkg/validation"
)

var (
	ErrInvalidInviteKey = apperror.Authorization("Invalid or already used invite key")
	ErrCaptchaFailed    = apperror.Validation("Captcha verification failed")
)

var requestMessages = validation.Messages{
	"Email":     "Email is required and must be at most 255 characters",
	"Password":  "Password must be between 6 and 128 characters",
	"Username":  "Username must be 3-20 characters and contain only letters, numbers, _ or -",
	"InviteKey": "Invite key is required and must be at most 50 characters",
}

// Request is the registration form. Every field except Password is trimmed.
type Request struct {
	Email        string `json:"email" validate:"required,max=255"`
	Password     string `json:"password" validate:"min=6,max=128"`
	Username     string `json:"username" validate:"min=3,max=20,username"`
	InviteKey    string `json:"invite_key" validate:"required,max=50"`
	CaptchaToken string `json:"captcha_token" validate:"-"`

	// RemoteIP is filled in by the handler, never from the body.
	RemoteIP string `json:"-" validate:"-"`
}

func (r Request) normalized() Request {
	r.Email = strings.TrimSpace(r.Email)
	r.Username = strings.TrimSpace(r.Username)
	r.InviteKey = strings.TrimSpace(r.InviteKey)
	r.CaptchaToken = strings.TrimSpace(r.CaptchaToken)
	return r
}

type Result struct {
	UserID string `json:"user_id"`
}

// CaptchaVerifier is satisfied by hcaptcha.Verifier.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

type Service struct {
	keys     repository.InviteKeyRepository
	identity identity.Provider
	captcha  CaptchaVerifier
}

// NewService wires the registration gate. captcha may be nil.
func NewService(keys repository.InviteKeyRepository, provider identity.Provider, captcha CaptchaVerifier) *Service {
	return &Service{keys: keys, identity: provider, captcha: captcha}
}

// Register validates the form, checks the key, creates the account and then
// consumes the key with a conditional update.
//
// If the conditional update finds the key already consumed, a concurrent
// registration won the race: the account just created is removed again and
// the caller gets ErrInvalidInviteKey. If the update itself fails, the
// account stays and the key stays unused.
func (s *Service) Register(ctx context.Context, req Request) (*Result, error) {
	req = req.normalized()
	if err := validation.Struct(req, requestMessages); err != nil {
		return nil, err
	}

	if s.captcha != nil {
		if ok, err := s.captcha.Verify(ctx, req.CaptchaToken, req.RemoteIP); err != nil || !ok {
			if err != nil {
				log.Warnf("registration: captcha rejected: %v", err)
			}
			return nil, ErrCaptchaFailed
		}
	}

	if _, err := s.keys.FindUnused(ctx, req.InviteKey); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidInviteKey
		}
		log.Errorf("registration: invite key lookup failed: %v", err)
		return nil, apperror.Internal(err)
	}

	account, err := s.identity.CreateUser(ctx, identity.NewUser{
		Email:       req.Email,
		Password:    req.Password,
		Username:    req.Username,
		AutoConfirm: true,
	})
	if err != nil {
		if apperror.KindOf(err) == apperror.KindInternal {
			log.Errorf("registration: create user failed: %v", err)
			if apperror.Is(err, apperror.KindInternal) {
				return nil, err
			}
			return nil, apperror.Internal(err)
		}
		return nil, apperror.Validation(apperror.PublicMessage(err))
	}

	consumed, err := s.keys.Consume(ctx, req.InviteKey, account.ID)
	if err != nil {
		log.Errorf("registration: failed to consume invite key for user %s, key remains unused: %v", account.ID, err)
		return &Result{UserID: account.ID}, nil
	}
	if !consumed {
		if derr := s.identity.DeleteUser(ctx, account.ID); derr != nil {
			log.Errorf("registration: failed to remove account %s after losing invite key race: %v", account.ID, derr)
		}
		return nil, ErrInvalidInviteKey
	}

	log.Infof("registration: user %s registered", account.ID)
	return &Result{UserID: account.ID}, nil
}
