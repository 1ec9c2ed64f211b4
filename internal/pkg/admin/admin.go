// Package admin implements the operator actions behind the admin API:
// invite keys, user moderation, balances, roles, badges and subscriptions.
package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HadesClient/hades-web/app/models"
	"github.com/HadesClient/hades-web/app/repository"
	"github.com/HadesClient/hades-web/internal/pkg/apperror"
	"github.com/HadesClient/hades-web/internal/pkg/rbac"
	"github.com/HadesClient/hades-web/internal/pkg/validation"
)

const (
	DefaultKeyPrefix   = "HADES"
	inviteKeyListLimit = 50
	userListLimit      = 200
	badgeListLimit     = 200
	subscriptionLimit  = 100
)

var (
	ErrUserNotFound      = apperror.NotFound("User not found")
	ErrInviteKeyNotFound = apperror.NotFound("Invite key not found")
	ErrInviteKeyUsed     = apperror.Conflict("Used invite keys cannot be deleted")
	ErrRoleAssigned      = apperror.Conflict("User already has this role")
	ErrRoleNotAssigned   = apperror.NotFound("User does not have this role")
	ErrBadgeNotFound     = apperror.NotFound("Badge not found")
	ErrCannotGrant       = apperror.Authorization("You are not allowed to manage this role")
	ErrSelfBan           = apperror.Validation("You cannot ban yourself")
	ErrBalanceTooLow     = apperror.Validation("Balance cannot go below zero")
)

// UserRow is one line of the user management list.
type UserRow struct {
	models.Profile
	Roles []rbac.Role `json:"roles"`
}

// BadgeRequest assigns a badge to a user by name.
type BadgeRequest struct {
	Username string `json:"username" validate:"required,max=20"`
	Name     string `json:"name" validate:"required,max=30"`
	Icon     string `json:"icon" validate:"required,oneof=award star zap flame heart gem trophy target"`
	Color    string `json:"color" validate:"required,oneof=purple red green blue yellow orange pink"`
}

var badgeMessages = validation.Messages{
	"Username": "Username is required",
	"Name":     "Badge name must be between 1 and 30 characters",
	"Icon":     "Unknown badge icon",
	"Color":    "Unknown badge color",
}

type keyPrefix struct {
	Prefix string `validate:"max=20,alphanum"`
}

type Service struct {
	repos *repository.Repositories
	now   func() time.Time
}

func NewService(repos *repository.Repositories) *Service {
	return &Service{repos: repos, now: time.Now}
}

// CreateInviteKey mints a PREFIX-XXXXXXXX key.
func (s *Service) CreateInviteKey(ctx context.Context, actorID, prefix string) (*models.InviteKey, error) {
	in := keyPrefix{Prefix: strings.ToUpper(strings.TrimSpace(prefix))}
	if in.Prefix == "" {
		in.Prefix = DefaultKeyPrefix
	}
	if err := validation.Struct(in, validation.Messages{
		"Prefix": "Prefix must be at most 20 letters or digits",
	}); err != nil {
		return nil, err
	}

	key := &models.InviteKey{Key: in.Prefix + "-" + randomSuffix()}
	if actorID != "" {
		key.CreatedBy = &actorID
	}
	if err := s.repos.InviteKey.Create(ctx, key); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("Invite key already exists, try again")
		}
		return nil, internal(err, "create invite key")
	}
	return key, nil
}

func randomSuffix() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *Service) ListInviteKeys(ctx context.Context) ([]models.InviteKey, error) {
	keys, err := s.repos.InviteKey.List(ctx, inviteKeyListLimit)
	if err != nil {
		return nil, internal(err, "list invite keys")
	}
	return keys, nil
}

// DeleteInviteKey removes a key that has not been used yet.
func (s *Service) DeleteInviteKey(ctx context.Context, id string) error {
	deleted, err := s.repos.InviteKey.DeleteUnused(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInviteKeyNotFound
		}
		return internal(err, "delete invite key "+id)
	}
	if !deleted {
		return ErrInviteKeyUsed
	}
	return nil
}

// ListUsers returns the newest users with their elevated roles.
func (s *Service) ListUsers(ctx context.Context) ([]UserRow, error) {
	profiles, err := s.repos.Profile.List(ctx, userListLimit)
	if err != nil {
		return nil, internal(err, "list users")
	}
	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.UserID
	}
	roles, err := s.repos.Role.ListByUsers(ctx, ids)
	if err != nil {
		return nil, internal(err, "list roles")
	}

	rows := make([]UserRow, len(profiles))
	for i, p := range profiles {
		rows[i] = UserRow{Profile: p, Roles: roles[p.UserID]}
		if rows[i].Roles == nil {
			rows[i].Roles = []rbac.Role{}
		}
	}
	return rows, nil
}

// SetBanned bans or unbans userID.
func (s *Service) SetBanned(ctx context.Context, actorID, userID string, banned bool) error {
	if banned && actorID == userID {
		return ErrSelfBan
	}
	var at *time.Time
	if banned {
		now := s.now().UTC()
		at = &now
	}
	if err := s.repos.Profile.SetBanned(ctx, userID, at); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return internal(err, "ban "+userID)
	}
	log.Infof("admin: %s set banned=%t on %s", actorID, banned, userID)
	return nil
}

// AdjustCoins credits (positive delta) or debits a balance and records the
// ledger row. Debits never take a balance below zero.
func (s *Service) AdjustCoins(ctx context.Context, actorID, userID string, delta int64, reason string) (int64, error) {
	if delta == 0 {
		return 0, apperror.Validation("Amount must not be zero")
	}
	txnType := models.TransactionPurchase
	if delta < 0 {
		txnType = models.TransactionWithdrawal
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "Balance adjusted by staff"
	}

	balance, err := s.repos.Profile.AdjustCoins(ctx, userID, delta, txnType, reason)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return 0, ErrUserNotFound
		case errors.Is(err, repository.ErrBalanceTooLow):
			return 0, ErrBalanceTooLow
		}
		return 0, internal(err, "adjust coins of "+userID)
	}
	log.Infof("admin: %s adjusted coins of %s by %d", actorID, userID, delta)
	return balance, nil
}

// AssignRole grants role to userID if the actor may manage it.
func (s *Service) AssignRole(ctx context.Context, actorRoles []rbac.Role, userID, role string) error {
	r, err := s.grantable(actorRoles, role)
	if err != nil {
		return err
	}
	if _, err := s.repos.Profile.GetByUserID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return internal(err, "load "+userID)
	}
	if err := s.repos.Role.Assign(ctx, userID, r); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrRoleAssigned
		}
		return internal(err, "assign role")
	}
	return nil
}

func (s *Service) RemoveRole(ctx context.Context, actorRoles []rbac.Role, userID, role string) error {
	r, err := s.grantable(actorRoles, role)
	if err != nil {
		return err
	}
	removed, err := s.repos.Role.Remove(ctx, userID, r)
	if err != nil {
		return internal(err, "remove role")
	}
	if !removed {
		return ErrRoleNotAssigned
	}
	return nil
}

func (s *Service) grantable(actorRoles []rbac.Role, role string) (rbac.Role, error) {
	r, err := rbac.ParseRole(role)
	if err != nil || r == rbac.RoleUser {
		return "", apperror.Validation("Role must be one of owner, admin, moderator")
	}
	if !rbac.CanGrant(actorRoles, r) {
		return "", ErrCannotGrant
	}
	return r, nil
}

// AssignBadge gives the user named in req a cosmetic badge.
func (s *Service) AssignBadge(ctx context.Context, actorID string, req BadgeRequest) (*models.UserBadge, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req, badgeMessages); err != nil {
		return nil, err
	}
	p, err := s.repos.Profile.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internal(err, "load "+req.Username)
	}

	badge := &models.UserBadge{UserID: p.UserID, Name: req.Name, Icon: req.Icon, Color: req.Color, CreatedBy: actorID}
	if err := s.repos.Badge.Create(ctx, badge); err != nil {
		return nil, internal(err, "create badge")
	}
	return badge, nil
}

func (s *Service) ListBadges(ctx context.Context) ([]models.UserBadge, error) {
	badges, err := s.repos.Badge.List(ctx, badgeListLimit)
	if err != nil {
		return nil, internal(err, "list badges")
	}
	return badges, nil
}

func (s *Service) DeleteBadge(ctx context.Context, id uint) error {
	deleted, err := s.repos.Badge.Delete(ctx, id)
	if err != nil {
		return internal(err, "delete badge")
	}
	if !deleted {
		return ErrBadgeNotFound
	}
	return nil
}

func (s *Service) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	subs, err := s.repos.Subscription.List(ctx, subscriptionLimit)
	if err != nil {
		return nil, internal(err, "list subscriptions")
	}
	return subs, nil
}

func internal(err error, op string) error {
	log.Errorf("admin: %s: %v", op, err)
	return apperror.Internal(err)
}
