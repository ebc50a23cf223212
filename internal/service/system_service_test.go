package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/isd-sgcu/cucm25-backend/internal/model"
)

type stubSettingRepo struct {
	mu       sync.Mutex
	settings []*model.SystemSetting
	getErr   error
	getCalls int64
	getDelay time.Duration

	upsert func(ctx context.Context, key model.SettingKey, value, description string) (*model.SystemSetting, error)
}

func (s *stubSettingRepo) GetAll(context.Context) ([]*model.SystemSetting, error) {
	atomic.AddInt64(&s.getCalls, 1)
	if s.getDelay > 0 {
		time.Sleep(s.getDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.settings, nil
}

func (s *stubSettingRepo) Upsert(ctx context.Context, key model.SettingKey, value, description string) (*model.SystemSetting, error) {
	return s.upsert(ctx, key, value, description)
}

func setting(key model.SettingKey, value string) *model.SystemSetting {
	return &model.SystemSetting{Key: key, Value: value}
}

func TestLoginEnabledPerRole(t *testing.T) {
	t.Parallel()

	repo := &stubSettingRepo{settings: []*model.SystemSetting{
		setting(model.SettingJuniorLoginEnabled, "true"),
		setting(model.SettingModLoginEnabled, "false"),
		setting(model.SettingSeniorLoginEnabled, "true"),
	}}
	s := NewSystemService(repo, time.Minute, nil)

	cases := []struct {
		role model.Role
		want bool
	}{
		{model.RoleParticipant, true},
		{model.RoleModerator, false},
		{model.RoleStaff, true},
		{model.RoleAdmin, true},
	}
	for _, tc := range cases {
		got, err := s.LoginEnabled(context.Background(), tc.role)
		if err != nil {
			t.Fatalf("LoginEnabled(%s) failed: %v", tc.role, err)
		}
		if got != tc.want {
			t.Fatalf("LoginEnabled(%s) = %v, want %v", tc.role, got, tc.want)
		}
	}
}

func TestLoginEnabledFailsClosedOnStoreError(t *testing.T) {
	t.Parallel()

	repo := &stubSettingRepo{getErr: errors.New("connection refused")}
	s := NewSystemService(repo, time.Minute, nil)

	enabled, err := s.LoginEnabled(context.Background(), model.RoleParticipant)
	if !errors.Is(err, ErrSettingsUnavailable) {
		t.Fatalf("expected ErrSettingsUnavailable, got %v", err)
	}
	if enabled {
		t.Fatal("a store failure must never report login as enabled")
	}
}

func TestLoginEnabledMissingOrGarbageDisables(t *testing.T) {
	t.Parallel()

	repo := &stubSettingRepo{settings: []*model.SystemSetting{
		setting(model.SettingJuniorLoginEnabled, "definitely"),
	}}
	s := NewSystemService(repo, time.Minute, nil)

	enabled, err := s.LoginEnabled(context.Background(), model.RoleParticipant)
	if err != nil || enabled {
		t.Fatalf("unparsable flag should read disabled, got (%v, %v)", enabled, err)
	}

	enabled, err = s.LoginEnabled(context.Background(), model.RoleModerator)
	if err != nil || enabled {
		t.Fatalf("missing flag should read disabled, got (%v, %v)", enabled, err)
	}
}

func TestSnapshotCachesWithinTTL(t *testing.T) {
	t.Parallel()

	repo := &stubSettingRepo{settings: []*model.SystemSetting{
		setting(model.SettingGiftHourlyQuota, "7"),
	}}
	s := NewSystemService(repo, time.Minute, nil)

	current := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	for i := 0; i < 5; i++ {
		quota, err := s.GiftHourlyQuota(context.Background())
		if err != nil {
			t.Fatalf("quota read failed: %v", err)
		}
		if quota != 7 {
			t.Fatalf("expected quota 7, got %d", quota)
		}
	}
	if calls := atomic.LoadInt64(&repo.getCalls); calls != 1 {
		t.Fatalf("expected one store read within the TTL, got %d", calls)
	}

	current = current.Add(2 * time.Minute)
	if _, err := s.GiftHourlyQuota(context.Background()); err != nil {
		t.Fatalf("quota read failed: %v", err)
	}
	if calls := atomic.LoadInt64(&repo.getCalls); calls != 2 {
		t.Fatalf("expected a refresh after the TTL, got %d reads", calls)
	}
}

func TestSnapshotCoalescesConcurrentRefreshes(t *testing.T) {
	t.Parallel()

	repo := &stubSettingRepo{
		settings: []*model.SystemSetting{setting(model.SettingGiftDefaultValue, "100")},
		getDelay: 50 * time.Millisecond,
	}
	s := NewSystemService(repo, time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.GiftDefaultValue(context.Background()); err != nil {
				t.Errorf("read failed: %v", err)
			}
		}()
	}
	wg.Wait()

	// Allow one straggler that misses the in-flight call; twenty separate
	// reads would mean the coalescing is broken.
	if calls := atomic.LoadInt64(&repo.getCalls); calls > 2 {
		t.Fatalf("expected concurrent reads to collapse into one store read, got %d", calls)
	}
}

func TestNumericSettingsFallBackOnGarbage(t *testing.T) {
	t.Parallel()

	repo := &stubSettingRepo{settings: []*model.SystemSetting{
		setting(model.SettingGiftHourlyQuota, "-3"),
		setting(model.SettingGiftDefaultValue, "lots"),
		setting(model.SettingTicketPrice, "0"),
	}}
	s := NewSystemService(repo, time.Minute, nil)

	quota, err := s.GiftHourlyQuota(context.Background())
	if err != nil || quota != defaultGiftHourlyQuota {
		t.Fatalf("expected default quota %d, got (%d, %v)", defaultGiftHourlyQuota, quota, err)
	}

	value, err := s.GiftDefaultValue(context.Background())
	if err != nil || value != defaultGiftDefaultValue {
		t.Fatalf("expected default gift value %d, got (%d, %v)", defaultGiftDefaultValue, value, err)
	}

	price, _, err := s.TicketPrice(context.Background())
	if err != nil || price != defaultTicketPrice {
		t.Fatalf("expected default ticket price %d, got (%d, %v)", defaultTicketPrice, price, err)
	}
}

func TestUpdateSettingValidation(t *testing.T) {
	t.Parallel()

	admin := model.Principal{ID: uuid.New(), Username: "admin", Role: model.RoleAdmin}
	participant := model.Principal{ID: uuid.New(), Username: "junior", Role: model.RoleParticipant}

	cases := []struct {
		name      string
		principal model.Principal
		key       model.SettingKey
		value     string
		wantErr   error
	}{
		{"non-admin rejected", participant, model.SettingTicketPrice, "20", ErrForbidden},
		{"unknown key rejected", admin, model.SettingKey("launch_codes"), "1", ErrUnknownSetting},
		{"boolean key rejects non-boolean", admin, model.SettingJuniorLoginEnabled, "maybe", ErrInvalidSettingValue},
		{"numeric key rejects zero", admin, model.SettingTicketPrice, "0", ErrInvalidSettingValue},
		{"numeric key rejects garbage", admin, model.SettingGiftHourlyQuota, "five", ErrInvalidSettingValue},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := &stubSettingRepo{
				upsert: func(context.Context, model.SettingKey, string, string) (*model.SystemSetting, error) {
					t.Fatal("upsert must not run for invalid input")
					return nil, nil
				},
			}
			s := NewSystemService(repo, time.Minute, nil)

			_, err := s.UpdateSetting(context.Background(), tc.principal, tc.key, tc.value)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestUpdateSettingDropsCache(t *testing.T) {
	t.Parallel()

	repo := &stubSettingRepo{settings: []*model.SystemSetting{
		setting(model.SettingTicketPrice, "10"),
	}}
	repo.upsert = func(_ context.Context, key model.SettingKey, value, _ string) (*model.SystemSetting, error) {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		repo.settings = []*model.SystemSetting{setting(key, value)}
		return setting(key, value), nil
	}
	s := NewSystemService(repo, time.Hour, nil)

	price, _, err := s.TicketPrice(context.Background())
	if err != nil || price != 10 {
		t.Fatalf("expected initial price 10, got (%d, %v)", price, err)
	}

	admin := model.Principal{ID: uuid.New(), Username: "admin", Role: model.RoleAdmin}
	if _, err := s.UpdateSetting(context.Background(), admin, model.SettingTicketPrice, "25"); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	price, _, err = s.TicketPrice(context.Background())
	if err != nil || price != 25 {
		t.Fatalf("expected updated price 25 immediately after write, got (%d, %v)", price, err)
	}
}
