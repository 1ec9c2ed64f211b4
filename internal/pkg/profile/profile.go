// Package profile serves the signed-in user's own profile and public
// profile pages, and handles description and avatar edits.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/HadesClient/hades-web/app/models"
	"github.com/HadesClient/hades-web/app/repository"
	"github.com/HadesClient/hades-web/internal/pkg/apperror"
	"github.com/HadesClient/hades-web/internal/pkg/imageprocessor"
	"github.com/HadesClient/hades-web/internal/pkg/objectstore"
	"github.com/HadesClient/hades-web/internal/pkg/rbac"
	"github.com/HadesClient/hades-web/internal/pkg/upload"
	"github.com/HadesClient/hades-web/internal/pkg/validation"
)

const recentTransactions = 20

var ErrProfileNotFound = apperror.NotFound("Profile not found")

// Me is everything the profile page shows its owner.
type Me struct {
	Profile         *models.Profile      `json:"profile"`
	Roles           []rbac.Role          `json:"roles"`
	Badges          []models.UserBadge   `json:"badges"`
	HasSubscription bool                 `json:"has_subscription"`
	Subscription    *models.Subscription `json:"subscription,omitempty"`
	Transactions    []models.Transaction `json:"transactions"`
}

// Public is the profile as other users see it.
type Public struct {
	UserID          string             `json:"user_id"`
	Username        string             `json:"username"`
	AvatarURL       string             `json:"avatar_url"`
	Description     string             `json:"description"`
	CreatedAt       time.Time          `json:"created_at"`
	Roles           []rbac.Role        `json:"roles"`
	Badges          []models.UserBadge `json:"badges"`
	Configs         []models.Config    `json:"configs"`
	HasSubscription bool               `json:"has_subscription"`
}

type descriptionUpdate struct {
	Description string `validate:"max=200"`
}

type Service struct {
	repos   *repository.Repositories
	avatars objectstore.Bucket
	now     func() time.Time
}

func NewService(repos *repository.Repositories, avatars objectstore.Bucket) *Service {
	return &Service{repos: repos, avatars: avatars, now: time.Now}
}

func (s *Service) Me(ctx context.Context, userID string) (*Me, error) {
	p, err := s.repos.Profile.GetByUserID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "load profile "+userID)
	}
	roles, err := s.repos.Role.ListByUser(ctx, userID)
	if err != nil {
		return nil, internal(err, "roles of "+userID)
	}
	badges, err := s.repos.Badge.ListByUser(ctx, userID)
	if err != nil {
		return nil, internal(err, "badges of "+userID)
	}
	txns, err := s.repos.Transaction.ListByUser(ctx, userID, recentTransactions)
	if err != nil {
		return nil, internal(err, "transactions of "+userID)
	}
	sub, err := s.subscription(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Me{
		Profile:         p,
		Roles:           roles,
		Badges:          badges,
		HasSubscription: sub != nil && sub.IsActiveAt(s.now()),
		Subscription:    sub,
		Transactions:    txns,
	}, nil
}

func (s *Service) Public(ctx context.Context, username string) (*Public, error) {
	p, err := s.repos.Profile.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, notFoundOr(err, "load profile "+username)
	}
	roles, err := s.repos.Role.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, internal(err, "roles of "+p.UserID)
	}
	badges, err := s.repos.Badge.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, internal(err, "badges of "+p.UserID)
	}
	configs, err := s.repos.Config.ListByOwner(ctx, p.UserID)
	if err != nil {
		return nil, internal(err, "configs of "+p.UserID)
	}
	sub, err := s.subscription(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	return &Public{
		UserID:          p.UserID,
		Username:        p.Username,
		AvatarURL:       p.AvatarURL,
		Description:     p.Description,
		CreatedAt:       p.CreatedAt,
		Roles:           roles,
		Badges:          badges,
		Configs:         configs,
		HasSubscription: sub != nil && sub.IsActiveAt(s.now()),
	}, nil
}

// UpdateDescription stores the trimmed text. An empty text clears it.
func (s *Service) UpdateDescription(ctx context.Context, userID, description string) (string, error) {
	in := descriptionUpdate{Description: strings.TrimSpace(description)}
	if err := validation.Struct(in, validation.Messages{
		"Description": "Description must be at most 200 characters",
	}); err != nil {
		return "", err
	}
	if err := s.repos.Profile.UpdateDescription(ctx, userID, in.Description); err != nil {
		return "", notFoundOr(err, "update description of "+userID)
	}
	return in.Description, nil
}

// UploadAvatar validates, normalises and stores an avatar and returns its
// cache-busted public URL.
func (s *Service) UploadAvatar(ctx context.Context, userID string, roles []rbac.Role, data []byte) (string, error) {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	mime, err := upload.ValidateAvatarBySniff(head, int64(len(data)), rbac.Can(roles, rbac.UseAnimatedAvatar))
	if err != nil {
		return "", apperror.Validation(err.Error())
	}

	img, err := imageprocessor.NormalizeAvatar(data, mime)
	if err != nil {
		log.Warnf("profile: avatar of %s rejected: %v", userID, err)
		return "", apperror.Validation("Image could not be processed")
	}

	key := fmt.Sprintf("%s/avatar%s", userID, upload.AvatarExtension(img.Mime))
	if err := s.avatars.Put(ctx, key, img.Data, img.Mime); err != nil {
		return "", internal(err, "store avatar "+key)
	}

	url := fmt.Sprintf("%s?t=%d", s.avatars.PublicURL(key), s.now().UnixMilli())
	if err := s.repos.Profile.UpdateAvatarURL(ctx, userID, url); err != nil {
		return "", notFoundOr(err, "update avatar of "+userID)
	}
	return url, nil
}

func (s *Service) subscription(ctx context.Context, userID string) (*models.Subscription, error) {
	sub, err := s.repos.Subscription.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, internal(err, "subscription of "+userID)
	}
	return sub, nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrProfileNotFound
	}
	return internal(err, op)
}

func internal(err error, op string) error {
	log.Errorf("profile: %s: %v", op, err)
	return apperror.Internal(err)
}
