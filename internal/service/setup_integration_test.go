//go:build integration

package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	testcontainers "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/isd-sgcu/cucm25-backend/internal/model"
	"github.com/isd-sgcu/cucm25-backend/internal/repository"
	"github.com/isd-sgcu/cucm25-backend/internal/repository/postgres"
	"github.com/isd-sgcu/cucm25-backend/internal/service"
)

type integrationEnv struct {
	pool *pgxpool.Pool

	userRepo   repository.UserRepository
	walletRepo repository.WalletRepository

	systemSvc      *service.SystemService
	walletSvc      *service.WalletService
	giftSvc        *service.GiftService
	codeSvc        *service.CodeService
	ticketSvc      *service.TicketService
	transactionSvc *service.TransactionService
	leaderboardSvc *service.LeaderboardService
	userSvc        *service.UserService
}

var suite *integrationEnv

func TestMain(m *testing.M) {
	env, err := buildIntegrationEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "integration setup failed: %v\n", err)
		os.Exit(1)
	}
	suite = env

	code := m.Run()

	if suite != nil && suite.pool != nil {
		suite.pool.Close()
	}

	os.Exit(code)
}

func buildIntegrationEnv() (*integrationEnv, error) {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "cucm_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, err
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/cucm_test?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(30 * time.Second)
	for {
		if pingErr := pool.Ping(ctx); pingErr == nil {
			break
		}
		if time.Now().After(deadline) {
			return nil, errors.New("postgres did not become ready")
		}
		time.Sleep(500 * time.Millisecond)
	}

	if err := applyAllMigrations(ctx, pool); err != nil {
		return nil, err
	}

	logger := zap.NewNop()
	userRepo := postgres.NewUserRepository(pool)
	walletRepo := postgres.NewWalletRepository(pool)
	txRepo := postgres.NewTransactionRepository(pool)
	codeRepo := postgres.NewCodeRepository(pool)
	ticketRepo := postgres.NewTicketRepository(pool)
	settingRepo := postgres.NewSettingRepository(pool)

	// A short TTL so setting updates made by tests become visible quickly.
	systemSvc := service.NewSystemService(settingRepo, 50*time.Millisecond, logger)
	walletSvc := service.NewWalletService(pool, walletRepo, txRepo, logger)
	giftSvc := service.NewGiftService(pool, userRepo, walletRepo, txRepo, systemSvc, logger)
	codeSvc := service.NewCodeService(pool, codeRepo, walletRepo, txRepo, logger)
	ticketSvc := service.NewTicketService(pool, walletRepo, ticketRepo, txRepo, systemSvc, logger)
	transactionSvc := service.NewTransactionService(txRepo, logger)
	leaderboardSvc := service.NewLeaderboardService(userRepo, logger)
	userSvc := service.NewUserService(userRepo, systemSvc, logger)

	return &integrationEnv{
		pool:           pool,
		userRepo:       userRepo,
		walletRepo:     walletRepo,
		systemSvc:      systemSvc,
		walletSvc:      walletSvc,
		giftSvc:        giftSvc,
		codeSvc:        codeSvc,
		ticketSvc:      ticketSvc,
		transactionSvc: transactionSvc,
		leaderboardSvc: leaderboardSvc,
		userSvc:        userSvc,
	}, nil
}

func applyAllMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir, err := findMigrationsDir()
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return err
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, file := range files {
		// #nosec G304 -- migration file list comes from controlled test directory.
		raw, err := os.ReadFile(filepath.Join(migrationsDir, file))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(raw)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(raw)); err != nil {
			return err
		}
	}

	return nil
}

func findMigrationsDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, "migrations")
		if stat, err := os.Stat(candidate); err == nil && stat.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("could not locate migrations directory")
		}
		dir = parent
	}
}

func getEnv(t *testing.T) *integrationEnv {
	t.Helper()
	if suite == nil {
		t.Fatal("integration environment not initialized")
	}
	return suite
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

// seedPrincipal registers a fresh account (with its wallet) and returns the
// principal a verified token for that account would carry.
func seedPrincipal(t *testing.T, role model.Role) model.Principal {
	t.Helper()

	username := uniqueName("user")
	user, err := getEnv(t).userSvc.Register(context.Background(), service.RegisterInput{
		UserID:    uuid.New(),
		Username:  username,
		Nickname:  "Nick",
		Firstname: "First",
		Lastname:  "Last",
		Role:      role,
	})
	if err != nil {
		t.Fatalf("seed user failed: %v", err)
	}

	return model.Principal{ID: user.ID, Username: user.Username, Role: user.Role}
}

func fundWallet(t *testing.T, userID uuid.UUID, amount int64) {
	t.Helper()

	if _, err := getEnv(t).walletSvc.Credit(
		context.Background(), userID, amount, model.TransactionAdminAdjustment, service.CreditMeta{},
	); err != nil {
		t.Fatalf("fund wallet failed: %v", err)
	}
}

func walletOf(t *testing.T, userID uuid.UUID) *model.Wallet {
	t.Helper()

	wallet, err := getEnv(t).walletSvc.GetWallet(context.Background(), userID)
	if err != nil {
		t.Fatalf("read wallet failed: %v", err)
	}
	return wallet
}

func createCode(t *testing.T, creator model.Principal, target model.TargetRole, reward int64, expiresAt time.Time) *model.Code {
	t.Helper()

	code, err := getEnv(t).codeSvc.CreateCode(context.Background(), creator, service.CreateCodeInput{
		TargetRole:   target,
		ActivityName: uniqueName("activity"),
		RewardCoin:   reward,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		t.Fatalf("create code failed: %v", err)
	}
	return code
}
