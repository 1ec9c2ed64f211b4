// Package marketplace lists, uploads, sells and removes user configs.
package marketplace

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
	"github.com/HadesClient/hades-web/internal/pkg/objectstore"
	"github.com/HadesClient/hades-web/internal/pkg/rbac"
	"github.com/HadesClient/hades-web/internal/pkg/upload"
	"github.com/HadesClient/hades-web/internal/pkg/validation"
)

var uploadMessages = validation.Messages{
	"Name":        "Name must be between 3 and 50 characters",
	"Description": "Description must be at most 300 characters",
	"Category":    "Category must be one of PvP, Bypass, Movement, HvH, Utility",
	"Price":       "Price must be between 0 and 10000 coins",
}

// UploadRequest is the metadata half of a config upload.
type UploadRequest struct {
	Name        string `form:"name" validate:"min=3,max=50"`
	Description string `form:"description" validate:"max=300"`
	Category    string `form:"category" validate:"oneof=PvP Bypass Movement HvH Utility"`
	Price       int64  `form:"price" validate:"min=0,max=10000"`
}

// File is an uploaded file held in memory.
type File struct {
	Name string
	Data []byte
}

type Service struct {
	db      *gorm.DB
	configs repository.ConfigRepository
	bucket  objectstore.Bucket
	now     func() time.Time
}

func NewService(db *gorm.DB, configs repository.ConfigRepository, bucket objectstore.Bucket) *Service {
	return &Service{db: db, configs: configs, bucket: bucket, now: time.Now}
}

// List returns the public marketplace grid.
func (s *Service) List(ctx context.Context, filter repository.ConfigFilter) ([]models.Config, error) {
	if filter.Category != "" && !isCategory(filter.Category) {
		return nil, apperror.Validation("Unknown category")
	}
	configs, err := s.configs.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return configs, nil
}

// ListPurchased returns the ids of configs userID has bought.
func (s *Service) ListPurchased(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.configs.PurchasedIDs(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return ids, nil
}

// Upload stores the file and then records the config. If the insert fails
// the stored object is removed again.
func (s *Service) Upload(ctx context.Context, userID string, req UploadRequest, file File) (*models.Config, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := validation.Struct(req, uploadMessages); err != nil {
		return nil, err
	}
	contentType, err := upload.ValidateConfigFile(file.Name, int64(len(file.Data)))
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}

	key := fmt.Sprintf("%s/%d_%s", userID, s.now().UnixMilli(), upload.SafeFilename(file.Name))
	if err := s.bucket.Put(ctx, key, file.Data, contentType); err != nil {
		log.Errorf("marketplace: upload of %s failed: %v", key, err)
		return nil, apperror.Internal(err)
	}

	cfg := &models.Config{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		FilePath:    key,
	}
	if err := s.configs.Create(ctx, cfg); err != nil {
		if derr := s.bucket.Delete(ctx, key); derr != nil {
			log.Warnf("marketplace: failed to clean up %s: %v", key, derr)
		}
		log.Errorf("marketplace: insert config for %s failed: %v", userID, err)
		return nil, apperror.Internal(err)
	}
	return cfg, nil
}

// Delete removes a config. Owners may delete their own; moderators any.
func (s *Service) Delete(ctx context.Context, actorID string, actorRoles []rbac.Role, configID string) error {
	cfg, err := s.configs.GetByID(ctx, configID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConfigNotFound
		}
		return apperror.Internal(err)
	}
	if cfg.UserID != actorID && !rbac.Can(actorRoles, rbac.ModerateConfigs) {
		return apperror.Authorization("You are not allowed to delete this config")
	}

	if err := s.configs.Delete(ctx, cfg.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConfigNotFound
		}
		return apperror.Internal(err)
	}
	if cfg.FilePath != "" {
		if err := s.bucket.Delete(ctx, cfg.FilePath); err != nil {
			log.Warnf("marketplace: config %s deleted but object %s remains: %v", cfg.ID, cfg.FilePath, err)
		}
	}
	return nil
}

// SetOfficial flags or unflags a config as an official one.
func (s *Service) SetOfficial(ctx context.Context, actorRoles []rbac.Role, configID string, official bool) error {
	if !rbac.Can(actorRoles, rbac.ModerateConfigs) {
		return apperror.Authorization("Insufficient permissions")
	}
	found, err := s.configs.SetOfficial(ctx, configID, official)
	if err != nil {
		return apperror.Internal(err)
	}
	if !found {
		return ErrConfigNotFound
	}
	return nil
}

func isCategory(c string) bool {
	for _, known := range models.ConfigCategories {
		if c == known {
			return true
		}
	}
	return false
}
