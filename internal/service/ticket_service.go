package service

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/isd-sgcu/cucm25-backend/internal/metrics"
	"github.com/isd-sgcu/cucm25-backend/internal/model"
	"github.com/isd-sgcu/cucm25-backend/internal/repository"
)

var (
	ErrInvalidQuantity     = errors.New("quantity must be greater than zero")
	ErrInvalidExportFilter = errors.New("export needs either a full time window or an event name")
)

type TicketPriceInfo struct {
	Price       int64     `json:"price"`
	LastUpdated time.Time `json:"last_updated"`
}

type BuyTicketsInput struct {
	EventName *string
	Count     int
}

type ExportFilter struct {
	StartTime *time.Time
	EndTime   *time.Time
	EventName *string
	// Shuffle randomizes line order for draw fairness.
	Shuffle bool
}

// TicketService sells tickets against wallet balance and exports sold
// tickets as draw entries. A purchase snapshots the price; changing the
// price later never rewrites history.
type TicketService struct {
	pool       *pgxpool.Pool
	walletRepo repository.WalletRepository
	ticketRepo repository.TicketRepository
	txRepo     repository.TransactionRepository
	system     *SystemService
	logger     *zap.Logger

	now     func() time.Time
	shuffle func(n int, swap func(i, j int))
}

func NewTicketService(
	pool *pgxpool.Pool,
	walletRepo repository.WalletRepository,
	ticketRepo repository.TicketRepository,
	txRepo repository.TransactionRepository,
	system *SystemService,
	logger *zap.Logger,
) *TicketService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TicketService{
		pool:       pool,
		walletRepo: walletRepo,
		ticketRepo: ticketRepo,
		txRepo:     txRepo,
		system:     system,
		logger:     logger,
		now:        time.Now,
		shuffle:    rand.Shuffle,
	}
}

func (s *TicketService) GetPrice(ctx context.Context) (*TicketPriceInfo, error) {
	price, updatedAt, err := s.system.TicketPrice(ctx)
	if err != nil {
		return nil, err
	}
	return &TicketPriceInfo{Price: price, LastUpdated: updatedAt}, nil
}

// Buy debits count*price from the buyer and records the purchase with a
// price snapshot, all in one transaction.
func (s *TicketService) Buy(ctx context.Context, principal model.Principal, input BuyTicketsInput) (*model.TicketPurchase, error) {
	if input.Count <= 0 {
		return nil, ErrInvalidQuantity
	}

	price, _, err := s.system.TicketPrice(ctx)
	if err != nil {
		return nil, err
	}
	total := price * int64(input.Count)

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ok, err := s.walletRepo.DebitTx(ctx, tx, principal.ID, total)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientFunds
	}

	purchase := &model.TicketPurchase{
		UserID:      principal.ID,
		EventName:   input.EventName,
		Count:       input.Count,
		TicketPrice: price,
		TotalPrice:  total,
		PurchaseAt:  s.now().UTC(),
	}
	if err := s.ticketRepo.CreateTx(ctx, tx, purchase); err != nil {
		return nil, err
	}

	if err := s.txRepo.CreateTx(ctx, tx, &model.Transaction{
		SenderUserID: &principal.ID,
		Type:         model.TransactionTicketPurchase,
		CoinAmount:   total,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.AddTicketsSold(int64(input.Count))
	metrics.AddCoinsMoved(string(model.TransactionTicketPurchase), metrics.DirectionOut, total)

	s.logger.Info("tickets purchased",
		zap.String("buyer", principal.Username),
		zap.Int("count", input.Count),
		zap.Int64("total_price", total),
	)
	return purchase, nil
}

var exportHeader = []string{
	"purchase_id",
	"event_name",
	"ticket_price",
	"user_id",
	"username",
	"nickname",
	"fullname",
	"purchase_at",
}

// Export writes one CSV line per ticket: a purchase of count N expands to N
// identical lines so each ticket is one entry in the draw.
func (s *TicketService) Export(ctx context.Context, principal model.Principal, filter ExportFilter, w io.Writer) error {
	if principal.Role != model.RoleAdmin {
		return ErrForbidden
	}

	hasWindow := filter.StartTime != nil && filter.EndTime != nil
	if !hasWindow && filter.EventName == nil {
		return ErrInvalidExportFilter
	}
	if (filter.StartTime == nil) != (filter.EndTime == nil) {
		return ErrInvalidExportFilter
	}

	purchases, err := s.ticketRepo.List(ctx, repository.TicketPurchaseFilter{
		StartTime: filter.StartTime,
		EndTime:   filter.EndTime,
		EventName: filter.EventName,
	})
	if err != nil {
		return err
	}

	lines := make([][]string, 0, len(purchases))
	for _, p := range purchases {
		line := exportLine(p)
		for i := 0; i < p.Count; i++ {
			lines = append(lines, line)
		}
	}

	if filter.Shuffle {
		s.shuffle(len(lines), func(i, j int) {
			lines[i], lines[j] = lines[j], lines[i]
		})
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, line := range lines {
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportLine(p *model.TicketPurchaseWithUser) []string {
	eventName := ""
	if p.EventName != nil {
		eventName = *p.EventName
	}
	return []string{
		p.ID.String(),
		eventName,
		strconv.FormatInt(p.TicketPrice, 10),
		p.UserID.String(),
		p.Username,
		p.Nickname,
		p.Firstname + " " + p.Lastname,
		p.PurchaseAt.UTC().Format(time.RFC3339),
	}
}
