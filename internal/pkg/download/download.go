// Package download proxies stored files to users that are entitled to them.
package download

import (
	"context"
	"errors"
	"path"
	"regexp"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/HadesClient/hades-web/app/models"
	"github.com/HadesClient/hades-web/app/repository"
	"github.com/HadesClient/hades-web/internal/pkg/apperror"
	"github.com/HadesClient/hades-web/internal/pkg/marketplace"
	"github.com/HadesClient/hades-web/internal/pkg/objectstore"
)

// DefaultClientBinaryKey is where the client build lives in the configs bucket.
const DefaultClientBinaryKey = "client/hades.dll"

var configIDPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

var (
	ErrInvalidConfigID = apperror.Validation("Valid config_id required")
	ErrConfigNotFound  = apperror.NotFound("Config not found")
	ErrNotPurchased    = apperror.Authorization("Not purchased")
	ErrNoFile          = apperror.NotFound("No file available")
	ErrNoSubscription  = apperror.Authorization("No active subscription")
	ErrClientNotFound  = apperror.NotFound("Client file not found")
)

// Purchaser records free-config downloads as purchases.
type Purchaser interface {
	Purchase(ctx context.Context, buyerID, configID string) (marketplace.Outcome, error)
}

// File is a payload ready to be sent as an attachment.
type File struct {
	Name string
	Data []byte
}

type Service struct {
	configs   repository.ConfigRepository
	subs      repository.SubscriptionRepository
	purchaser Purchaser
	bucket    objectstore.Bucket
	clientKey string
	now       func() time.Time
}

func NewService(configs repository.ConfigRepository, subs repository.SubscriptionRepository, purchaser Purchaser, bucket objectstore.Bucket, clientKey string) *Service {
	if clientKey == "" {
		clientKey = DefaultClientBinaryKey
	}
	return &Service{
		configs:   configs,
		subs:      subs,
		purchaser: purchaser,
		bucket:    bucket,
		clientKey: clientKey,
		now:       time.Now,
	}
}

// ValidConfigID reports whether id has the 8-4-4-4-12 hex shape.
func ValidConfigID(id string) bool {
	return configIDPattern.MatchString(id)
}

// ConfigFile returns the stored bytes of a config to its owner or a buyer.
// A free config the user has not recorded yet is recorded on the fly.
func (s *Service) ConfigFile(ctx context.Context, userID, configID string) (*File, error) {
	if !ValidConfigID(configID) {
		return nil, ErrInvalidConfigID
	}

	cfg, err := s.configs.GetByID(ctx, configID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConfigNotFound
		}
		log.Errorf("download: load config %s: %v", configID, err)
		return nil, apperror.Internal(err)
	}

	if err := s.authorize(ctx, userID, cfg); err != nil {
		return nil, err
	}

	if cfg.FilePath == "" {
		return nil, ErrNoFile
	}

	data, err := s.bucket.Get(ctx, cfg.FilePath)
	if err != nil {
		log.Errorf("download: read %s for user %s: %v", cfg.FilePath, userID, err)
		return nil, apperror.Internal(err)
	}
	return &File{Name: path.Base(cfg.FilePath), Data: data}, nil
}

func (s *Service) authorize(ctx context.Context, userID string, cfg *models.Config) error {
	if cfg.UserID == userID {
		return nil
	}
	purchased, err := s.configs.HasPurchase(ctx, userID, cfg.ID)
	if err != nil {
		log.Errorf("download: purchase lookup %s/%s: %v", userID, cfg.ID, err)
		return apperror.Internal(err)
	}
	if purchased {
		return nil
	}
	if !cfg.IsFree() {
		return ErrNotPurchased
	}
	if _, err := s.purchaser.Purchase(ctx, userID, cfg.ID); err != nil {
		return err
	}
	return nil
}

// ClientBinary returns the client build to users with a running subscription.
func (s *Service) ClientBinary(ctx context.Context, userID string) (*File, error) {
	sub, err := s.subs.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSubscription
		}
		log.Errorf("download: subscription lookup for %s: %v", userID, err)
		return nil, apperror.Internal(err)
	}
	if !sub.IsActiveAt(s.now()) {
		return nil, ErrNoSubscription
	}

	data, err := s.bucket.Get(ctx, s.clientKey)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		log.Errorf("download: read client binary %s: %v", s.clientKey, err)
		return nil, apperror.Internal(err)
	}
	return &File{Name: path.Base(s.clientKey), Data: data}, nil
}

// EntitledConfigs lists the configs a user owns or bought, each once.
func (s *Service) EntitledConfigs(ctx context.Context, userID string) ([]models.Config, error) {
	own, err := s.configs.ListByOwner(ctx, userID)
	if err != nil {
		log.Errorf("download: own configs of %s: %v", userID, err)
		return nil, apperror.Internal(err)
	}
	bought, err := s.configs.ListPurchasedBy(ctx, userID)
	if err != nil {
		log.Errorf("download: purchased configs of %s: %v", userID, err)
		return nil, apperror.Internal(err)
	}

	seen := make(map[string]struct{}, len(own)+len(bought))
	out := make([]models.Config, 0, len(own)+len(bought))
	for _, c := range append(own, bought...) {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}
