// Package statistics computes the landing page and dashboard counters.
package statistics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/HadesClient/hades-web/app/models"
	"github.com/HadesClient/hades-web/app/repository"
	"github.com/HadesClient/hades-web/internal/pkg/apperror"
	"github.com/HadesClient/hades-web/internal/pkg/cache"
)

const (
	CacheKeySite    = "statistics:site"
	CacheExpiration = 5 * time.Minute
)

// Store is the subset of the cache the counters need.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

type Service struct {
	repos *repository.Repositories
	store Store
	now   func() time.Time
}

// NewService builds the service. A nil store disables caching.
func NewService(repos *repository.Repositories, store Store) *Service {
	return &Service{repos: repos, store: store, now: time.Now}
}

// Site returns the public counters, served from the cache when fresh.
// Cache failures are logged and answered from the database.
func (s *Service) Site(ctx context.Context) (*models.SiteStats, error) {
	if s.store != nil {
		raw, err := s.store.Get(ctx, CacheKeySite)
		switch {
		case err == nil:
			var stats models.SiteStats
			if jerr := json.Unmarshal([]byte(raw), &stats); jerr == nil {
				return &stats, nil
			}
			log.Warnf("statistics: discarding unreadable cache entry")
		case !errors.Is(err, cache.ErrMiss):
			log.Warnf("statistics: cache read failed: %v", err)
		}
	}

	stats, err := s.site(ctx)
	if err != nil {
		log.Errorf("statistics: site counters: %v", err)
		return nil, apperror.Internal(err)
	}

	if s.store != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.store.Set(ctx, CacheKeySite, string(raw), CacheExpiration); err != nil {
				log.Warnf("statistics: cache write failed: %v", err)
			}
		}
	}
	return stats, nil
}

// Dashboard returns the operator counters straight from the database.
func (s *Service) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	site, err := s.site(ctx)
	if err != nil {
		log.Errorf("statistics: dashboard counters: %v", err)
		return nil, apperror.Internal(err)
	}
	out := &models.DashboardStats{SiteStats: *site}

	if out.BannedUsers, err = s.repos.Profile.CountBanned(ctx); err != nil {
		return nil, apperror.Internal(err)
	}
	if out.ActiveSubscriptions, err = s.repos.Subscription.CountActive(ctx, s.now()); err != nil {
		return nil, apperror.Internal(err)
	}
	if out.InviteKeysUsed, out.InviteKeysTotal, err = s.repos.InviteKey.Counts(ctx); err != nil {
		return nil, apperror.Internal(err)
	}
	return out, nil
}

func (s *Service) site(ctx context.Context) (*models.SiteStats, error) {
	var (
		stats models.SiteStats
		err   error
	)
	if stats.TotalUsers, err = s.repos.Profile.Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalConfigs, err = s.repos.Config.Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalDownloads, err = s.repos.Config.SumDownloads(ctx); err != nil {
		return nil, err
	}
	return &stats, nil
}
