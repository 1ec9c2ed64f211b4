package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/HadesClient/hades-web/app/models"
	"github.com/HadesClient/hades-web/internal/pkg/rbac"
)

var (
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("repository: duplicate entry")
	// ErrBalanceTooLow is returned when a debit would take a balance below zero.
	ErrBalanceTooLow = errors.New("repository: balance too low")
)

// ProfileRepository defines profile reads and the few privileged writes
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	GetByUsername(ctx context.Context, username string) (*models.Profile, error)
	UpdateDescription(ctx context.Context, userID, description string) error
	UpdateAvatarURL(ctx context.Context, userID, avatarURL string) error
	SetBanned(ctx context.Context, userID string, bannedAt *time.Time) error
	AdjustCoins(ctx context.Context, userID string, delta int64, txnType, description string) (int64, error)
	List(ctx context.Context, limit int) ([]models.Profile, error)
	Count(ctx context.Context) (int64, error)
	CountBanned(ctx context.Context) (int64, error)
}

// RoleRepository stores elevated roles
type RoleRepository interface {
	ListByUser(ctx context.Context, userID string) ([]rbac.Role, error)
	ListByUsers(ctx context.Context, userIDs []string) (map[string][]rbac.Role, error)
	Assign(ctx context.Context, userID string, role rbac.Role) error
	Remove(ctx context.Context, userID string, role rbac.Role) (bool, error)
}

// BadgeRepository stores cosmetic profile badges
type BadgeRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.UserBadge, error)
	List(ctx context.Context, limit int) ([]models.UserBadge, error)
	Create(ctx context.Context, badge *models.UserBadge) error
	Delete(ctx context.Context, id uint) (bool, error)
}

// InviteKeyRepository defines invite key lookups and the atomic consume
type InviteKeyRepository interface {
	FindUnused(ctx context.Context, key string) (*models.InviteKey, error)
	Consume(ctx context.Context, key, userID string) (bool, error)
	Create(ctx context.Context, key *models.InviteKey) error
	List(ctx context.Context, limit int) ([]models.InviteKey, error)
	DeleteUnused(ctx context.Context, id string) (bool, error)
	Counts(ctx context.Context) (used int64, total int64, err error)
}

// ConfigFilter narrows the marketplace listing
type ConfigFilter struct {
	Search   string
	Category string
	Sort     string
	Limit    int
}

const (
	SortNewest    = "newest"
	SortDownloads = "downloads"
	SortRating    = "rating"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

// ConfigRepository defines config and purchase-proof reads
type ConfigRepository interface {
	GetByID(ctx context.Context, id string) (*models.Config, error)
	List(ctx context.Context, filter ConfigFilter) ([]models.Config, error)
	ListByOwner(ctx context.Context, userID string) ([]models.Config, error)
	ListPurchasedBy(ctx context.Context, userID string) ([]models.Config, error)
	PurchasedIDs(ctx context.Context, userID string) ([]string, error)
	HasPurchase(ctx context.Context, userID, configID string) (bool, error)
	Create(ctx context.Context, config *models.Config) error
	Delete(ctx context.Context, id string) error
	SetOfficial(ctx context.Context, id string, official bool) (bool, error)
	Count(ctx context.Context) (int64, error)
	SumDownloads(ctx context.Context) (int64, error)
}

// SubscriptionRepository defines subscription reads
type SubscriptionRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Subscription, error)
	List(ctx context.Context, limit int) ([]models.Subscription, error)
	CountActive(ctx context.Context, now time.Time) (int64, error)
}

// TransactionRepository reads the ledger
type TransactionRepository interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Transaction, error)
}

// Repositories holds all repository instances
type Repositories struct {
	Profile      ProfileRepository
	Role         RoleRepository
	Badge        BadgeRepository
	InviteKey    InviteKeyRepository
	Config       ConfigRepository
	Subscription SubscriptionRepository
	Transaction  TransactionRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Profile:      NewProfileRepository(db),
		Role:         NewRoleRepository(db),
		Badge:        NewBadgeRepository(db),
		InviteKey:    NewInviteKeyRepository(db),
		Config:       NewConfigRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Transaction:  NewTransactionRepository(db),
	}
}

func translateWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}
