package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/isd-sgcu/cucm25-backend/internal/metrics"
	"github.com/isd-sgcu/cucm25-backend/internal/model"
	"github.com/isd-sgcu/cucm25-backend/internal/repository"
)

var (
	// ErrSettingsUnavailable means the settings store could not be read and
	// no fresh cache exists. Callers must treat the platform as closed.
	ErrSettingsUnavailable = errors.New("system settings unavailable")
	ErrUnknownSetting      = errors.New("unknown setting key")
	ErrInvalidSettingValue = errors.New("invalid setting value")
)

const (
	defaultSettingsTTL = 5 * time.Second

	defaultGiftHourlyQuota  = 5
	defaultGiftDefaultValue = 100
	defaultTicketPrice      = 10
)

// SystemService serves platform-wide settings through a short-TTL read
// cache. Concurrent refreshes collapse into a single store read. When the
// store is unreachable the service fails closed: login gates report
// unavailable rather than silently open.
type SystemService struct {
	settingRepo repository.SettingRepository
	logger      *zap.Logger
	ttl         time.Duration

	// now is replaceable in tests.
	now func() time.Time

	group singleflight.Group

	mu      sync.RWMutex
	cache   map[model.SettingKey]model.SystemSetting
	expires time.Time
}

func NewSystemService(settingRepo repository.SettingRepository, ttl time.Duration, logger *zap.Logger) *SystemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultSettingsTTL
	}

	return &SystemService{
		settingRepo: settingRepo,
		logger:      logger,
		ttl:         ttl,
		now:         time.Now,
	}
}

// LoginEnabled reports whether the given role may use the platform right
// now. A store failure yields an error, never a default-open answer.
func (s *SystemService) LoginEnabled(ctx context.Context, role model.Role) (bool, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return false, err
	}

	key := model.LoginSettingKey(role)
	setting, ok := snap[key]
	if !ok {
		s.logger.Warn("login setting missing, treating as disabled", zap.String("key", string(key)))
		return false, nil
	}

	enabled, err := strconv.ParseBool(setting.Value)
	if err != nil {
		s.logger.Error("login setting unparsable, treating as disabled",
			zap.String("key", string(key)),
			zap.String("value", setting.Value),
		)
		return false, nil
	}
	return enabled, nil
}

func (s *SystemService) GiftHourlyQuota(ctx context.Context) (int, error) {
	value, err := s.intSetting(ctx, model.SettingGiftHourlyQuota, defaultGiftHourlyQuota)
	return int(value), err
}

func (s *SystemService) GiftDefaultValue(ctx context.Context) (int64, error) {
	return s.intSetting(ctx, model.SettingGiftDefaultValue, defaultGiftDefaultValue)
}

// TicketPrice returns the current price and when it last changed.
func (s *SystemService) TicketPrice(ctx context.Context) (int64, time.Time, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return 0, time.Time{}, err
	}

	setting, ok := snap[model.SettingTicketPrice]
	if !ok {
		return defaultTicketPrice, time.Time{}, nil
	}
	price, parseErr := strconv.ParseInt(setting.Value, 10, 64)
	if parseErr != nil || price <= 0 {
		s.logger.Error("ticket price setting unparsable, using default",
			zap.String("value", setting.Value),
		)
		return defaultTicketPrice, setting.UpdatedAt, nil
	}
	return price, setting.UpdatedAt, nil
}

// ListSettings returns the live store contents, bypassing the cache so
// admins always see what they just wrote.
func (s *SystemService) ListSettings(ctx context.Context, principal model.Principal) ([]*model.SystemSetting, error) {
	if principal.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.settingRepo.GetAll(ctx)
}

// UpdateSetting validates and writes one setting, then drops the cache so
// the change takes effect on the next read rather than after a TTL.
func (s *SystemService) UpdateSetting(ctx context.Context, principal model.Principal, key model.SettingKey, value string) (*model.SystemSetting, error) {
	if principal.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}
	if !key.Valid() {
		return nil, ErrUnknownSetting
	}
	if err := validateSettingValue(key, value); err != nil {
		return nil, err
	}

	setting, err := s.settingRepo.Upsert(ctx, key, value, "")
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()

	s.logger.Info("system setting updated",
		zap.String("key", string(key)),
		zap.String("value", value),
		zap.String("updated_by", principal.Username),
	)
	return setting, nil
}

func (s *SystemService) intSetting(ctx context.Context, key model.SettingKey, fallback int64) (int64, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return 0, err
	}

	setting, ok := snap[key]
	if !ok {
		return fallback, nil
	}
	value, parseErr := strconv.ParseInt(setting.Value, 10, 64)
	if parseErr != nil || value <= 0 {
		s.logger.Error("numeric setting unparsable, using default",
			zap.String("key", string(key)),
			zap.String("value", setting.Value),
		)
		return fallback, nil
	}
	return value, nil
}

func (s *SystemService) snapshot(ctx context.Context) (map[model.SettingKey]model.SystemSetting, error) {
	s.mu.RLock()
	if s.cache != nil && s.now().Before(s.expires) {
		snap := s.cache
		s.mu.RUnlock()
		return snap, nil
	}
	s.mu.RUnlock()

	result, err, _ := s.group.Do("settings", func() (any, error) {
		settings, err := s.settingRepo.GetAll(ctx)
		if err != nil {
			metrics.IncSettingsCacheRefresh("error")
			s.logger.Error("settings refresh failed", zap.Error(err))
			return nil, err
		}

		snap := make(map[model.SettingKey]model.SystemSetting, len(settings))
		for _, setting := range settings {
			snap[setting.Key] = *setting
		}

		s.mu.Lock()
		s.cache = snap
		s.expires = s.now().Add(s.ttl)
		s.mu.Unlock()

		metrics.IncSettingsCacheRefresh("ok")
		return snap, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSettingsUnavailable, err)
	}

	return result.(map[model.SettingKey]model.SystemSetting), nil
}

func validateSettingValue(key model.SettingKey, value string) error {
	switch key {
	case model.SettingJuniorLoginEnabled, model.SettingModLoginEnabled, model.SettingSeniorLoginEnabled:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%w: %q is not a boolean", ErrInvalidSettingValue, value)
		}
	case model.SettingGiftHourlyQuota, model.SettingGiftDefaultValue, model.SettingTicketPrice:
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return fmt.Errorf("%w: %q is not a positive integer", ErrInvalidSettingValue, value)
		}
	}
	return nil
}
