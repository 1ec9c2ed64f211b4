package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/HadesClient/hades-web/app/models"
	"github.com/HadesClient/hades-web/app/repository"
	"github.com/HadesClient/hades-web/internal/pkg/apperror"
	"github.com/HadesClient/hades-web/internal/pkg/database/dbtest"
	"github.com/HadesClient/hades-web/internal/pkg/identity"
)

type fixture struct {
	db   *gorm.DB
	keys repository.InviteKeyRepository
	ids  *identity.Service
	svc  *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	keys := repository.NewInviteKeyRepository(db)
	ids := identity.NewService(db, identity.NewTokenIssuer("secret", time.Hour))
	return &fixture{db: db, keys: keys, ids: ids, svc: NewService(keys, ids, nil)}
}

func (f *fixture) addKey(t *testing.T, key string) {
	t.Helper()
	require.NoError(t, f.keys.Create(context.Background(), &models.InviteKey{Key: key}))
}

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func validRequest(key string) Request {
	return Request{Email: "neo@example.com", Password: "matrix", Username: "neo", InviteKey: key}
}

func TestRegisterConsumesKey(t *testing.T) {
	f := newFixture(t)
	f.addKey(t, "HADES-AAAA1111")

	req := validRequest("  HADES-AAAA1111  ")
	req.Email = "  neo@example.com "
	res, err := f.svc.Register(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.UserID)

	var key models.InviteKey
	require.NoError(t, f.db.Where(map[string]interface{}{"key": "HADES-AAAA1111"}).First(&key).Error)
	assert.True(t, key.IsUsed)
	require.NotNil(t, key.UsedBy)
	assert.Equal(t, res.UserID, *key.UsedBy)

	var profile models.Profile
	require.NoError(t, f.db.Where("user_id = ?", res.UserID).First(&profile).Error)
	assert.Equal(t, "neo", profile.Username)
}

func TestRegisterRejectsUnknownOrUsedKey(t *testing.T) {
	f := newFixture(t)
	f.addKey(t, "HADES-ONCE0001")

	_, err := f.svc.Register(context.Background(), validRequest("HADES-NOPE0000"))
	assert.ErrorIs(t, err, ErrInvalidInviteKey)
	assert.Equal(t, 403, apperror.Status(err))

	_, err = f.svc.Register(context.Background(), validRequest("HADES-ONCE0001"))
	require.NoError(t, err)

	second := validRequest("HADES-ONCE0001")
	second.Email, second.Username = "trinity@example.com", "trinity"
	_, err = f.svc.Register(context.Background(), second)
	assert.ErrorIs(t, err, ErrInvalidInviteKey)
	assert.Equal(t, int64(1), f.count(t, &models.UserAccount{}))
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	f.addKey(t, "HADES-VALID001")

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"username too short", func(r *Request) { r.Username = "ab" }},
		{"username too long", func(r *Request) { r.Username = "this_username_is_way_too_long_12345" }},
		{"username with space", func(r *Request) { r.Username = "bad space" }},
		{"password of five", func(r *Request) { r.Password = "12345" }},
		{"password too long", func(r *Request) { r.Password = string(make([]byte, 129)) }},
		{"empty email", func(r *Request) { r.Email = "   " }},
		{"email too long", func(r *Request) { r.Email = fmt.Sprintf("%0256d", 0) }},
		{"empty key", func(r *Request) { r.InviteKey = "" }},
		{"key too long", func(r *Request) { r.InviteKey = fmt.Sprintf("%051d", 0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest("HADES-VALID001")
			tt.mutate(&req)
			_, err := f.svc.Register(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, 400, apperror.Status(err))
		})
	}

	assert.Zero(t, f.count(t, &models.UserAccount{}))
	_, err := f.keys.FindUnused(context.Background(), "HADES-VALID001")
	assert.NoError(t, err, "key must stay unused")
}

func TestRegisterPasswordBoundary(t *testing.T) {
	f := newFixture(t)
	f.addKey(t, "HADES-BOUND001")

	req := validRequest("HADES-BOUND001")
	req.Password = "123456"
	_, err := f.svc.Register(context.Background(), req)
	assert.NoError(t, err)
}

func TestRegisterLongPasswords(t *testing.T) {
	for _, n := range []int{72, 73, 128} {
		t.Run(fmt.Sprintf("%d bytes", n), func(t *testing.T) {
			f := newFixture(t)
			key := fmt.Sprintf("HADES-LEN%05d", n)
			f.addKey(t, key)

			req := validRequest(key)
			req.Password = strings.Repeat("a", n)
			res, err := f.svc.Register(context.Background(), req)
			require.NoError(t, err)
			assert.EqualValues(t, 1, f.count(t, &models.UserAccount{}))

			session, err := f.ids.SignIn(context.Background(), req.Email, req.Password)
			require.NoError(t, err)
			assert.Equal(t, res.UserID, session.UserID)

			_, err = f.ids.SignIn(context.Background(), req.Email, strings.Repeat("a", n-1)+"b")
			assert.Error(t, err, "passwords differing after byte 72 must not match")
		})
	}
}

func TestRegisterPropagatesIdentityError(t *testing.T) {
	f := newFixture(t)
	f.addKey(t, "HADES-FIRST001")
	f.addKey(t, "HADES-SECOND01")

	_, err := f.svc.Register(context.Background(), validRequest("HADES-FIRST001"))
	require.NoError(t, err)

	dup := validRequest("HADES-SECOND01")
	dup.Username = "other"
	_, err = f.svc.Register(context.Background(), dup)
	require.Error(t, err)
	assert.Equal(t, 400, apperror.Status(err))
	assert.Equal(t, identity.ErrEmailTaken.Message, apperror.PublicMessage(err))

	_, err = f.keys.FindUnused(context.Background(), "HADES-SECOND01")
	assert.NoError(t, err, "key must not be consumed when account creation fails")
}

func TestRegisterConcurrentSameKey(t *testing.T) {
	f := newFixture(t)
	f.addKey(t, "HADES-RACE0001")

	const attempts = 5
	var wg sync.WaitGroup
	results := make([]*Result, attempts)
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.Register(context.Background(), Request{
				Email:     fmt.Sprintf("racer%d@example.com", i),
				Password:  "password",
				Username:  fmt.Sprintf("racer%d", i),
				InviteKey: "HADES-RACE0001",
			})
		}(i)
	}
	wg.Wait()

	var winner string
	for i := 0; i < attempts; i++ {
		if errs[i] == nil {
			require.Empty(t, winner, "more than one registration succeeded")
			winner = results[i].UserID
			continue
		}
		assert.ErrorIs(t, errs[i], ErrInvalidInviteKey)
	}
	require.NotEmpty(t, winner)

	var key models.InviteKey
	require.NoError(t, f.db.Where(map[string]interface{}{"key": "HADES-RACE0001"}).First(&key).Error)
	assert.True(t, key.IsUsed)
	assert.Equal(t, winner, *key.UsedBy)
	assert.Equal(t, int64(1), f.count(t, &models.UserAccount{}))
	assert.Equal(t, int64(1), f.count(t, &models.Profile{}))
}

type failingConsumeKeys struct {
	repository.InviteKeyRepository
}

func (failingConsumeKeys) Consume(ctx context.Context, key, userID string) (bool, error) {
	return false, errors.New("connection reset")
}

func TestRegisterKeepsAccountWhenConsumeFails(t *testing.T) {
	f := newFixture(t)
	f.addKey(t, "HADES-FLAKY001")
	svc := NewService(failingConsumeKeys{f.keys}, f.ids, nil)

	res, err := svc.Register(context.Background(), validRequest("HADES-FLAKY001"))
	require.NoError(t, err)
	assert.NotEmpty(t, res.UserID)

	_, err = f.keys.FindUnused(context.Background(), "HADES-FLAKY001")
	assert.NoError(t, err, "key is left unused")
}

type failingIdentity struct {
	identity.Provider
	err error
}

func (p failingIdentity) CreateUser(ctx context.Context, in identity.NewUser) (*models.UserAccount, error) {
	return nil, p.err
}

func TestRegisterInternalIdentityErrorIsNotRewrapped(t *testing.T) {
	f := newFixture(t)
	f.addKey(t, "HADES-DOWN0001")
	cause := errors.New("dial tcp 10.0.0.3:3306: refused")

	t.Run("already internal", func(t *testing.T) {
		internal := apperror.Internal(cause)
		_, err := NewService(f.keys, failingIdentity{f.ids, internal}, nil).Register(context.Background(), validRequest("HADES-DOWN0001"))
		require.Error(t, err)
		assert.Same(t, internal, err)
		assert.Equal(t, "Internal server error: "+cause.Error(), err.Error())
	})

	t.Run("plain error", func(t *testing.T) {
		_, err := NewService(f.keys, failingIdentity{f.ids, cause}, nil).Register(context.Background(), validRequest("HADES-DOWN0001"))
		require.Error(t, err)
		assert.Equal(t, 500, apperror.Status(err))
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, 1, strings.Count(err.Error(), "Internal server error"))
	})

	_, err := f.keys.FindUnused(context.Background(), "HADES-DOWN0001")
	assert.NoError(t, err, "key stays unused")
}

type stubCaptcha struct{ ok bool }

func (s stubCaptcha) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	if !s.ok {
		return false, errors.New("invalid-input-response")
	}
	return token != "", nil
}

func TestRegisterCaptcha(t *testing.T) {
	f := newFixture(t)
	f.addKey(t, "HADES-CAPTCHA1")

	_, err := NewService(f.keys, f.ids, stubCaptcha{ok: false}).Register(context.Background(), validRequest("HADES-CAPTCHA1"))
	assert.ErrorIs(t, err, ErrCaptchaFailed)
	assert.Zero(t, f.count(t, &models.UserAccount{}))

	req := validRequest("HADES-CAPTCHA1")
	req.CaptchaToken = "10000000-aaaa-bbbb-cccc-000000000001"
	_, err = NewService(f.keys, f.ids, stubCaptcha{ok: true}).Register(context.Background(), req)
	assert.NoError(t, err)
}
