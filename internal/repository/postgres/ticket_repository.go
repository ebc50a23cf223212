package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/isd-sgcu/cucm25-backend/internal/model"
	"github.com/isd-sgcu/cucm25-backend/internal/repository"
)

type ticketRepository struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) repository.TicketRepository {
	return &ticketRepository{pool: pool}
}

var _ repository.TicketRepository = (*ticketRepository)(nil)

func (r *ticketRepository) CreateTx(ctx context.Context, tx pgx.Tx, purchase *model.TicketPurchase) error {
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	if purchase.PurchaseAt.IsZero() {
		purchase.PurchaseAt = time.Now().UTC()
	}

	_, err := tx.Exec(
		ctx,
		`INSERT INTO ticket_purchases (id, user_id, event_name, count, ticket_price, total_price, purchase_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		purchase.ID,
		purchase.UserID,
		purchase.EventName,
		purchase.Count,
		purchase.TicketPrice,
		purchase.TotalPrice,
		purchase.PurchaseAt,
	)
	return err
}

func (r *ticketRepository) List(ctx context.Context, filter repository.TicketPurchaseFilter) ([]*model.TicketPurchaseWithUser, error) {
	args := make([]any, 0, 3)
	conditions := make([]string, 0, 2)

	if filter.StartTime != nil && filter.EndTime != nil {
		args = append(args, *filter.StartTime)
		conditions = append(conditions, fmt.Sprintf("p.purchase_at >= $%d", len(args)))
		args = append(args, *filter.EndTime)
		conditions = append(conditions, fmt.Sprintf("p.purchase_at <= $%d", len(args)))
	}
	if filter.EventName != nil {
		args = append(args, *filter.EventName)
		conditions = append(conditions, fmt.Sprintf("p.event_name = $%d", len(args)))
	}

	query := `SELECT p.id, p.user_id, p.event_name, p.count, p.ticket_price, p.total_price, p.purchase_at,
	                 u.username, u.nickname, u.firstname, u.lastname
	            FROM ticket_purchases p
	            JOIN users u ON u.id = p.user_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY p.purchase_at ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := make([]*model.TicketPurchaseWithUser, 0, 32)
	for rows.Next() {
		purchase := &model.TicketPurchaseWithUser{}
		if err := rows.Scan(
			&purchase.ID,
			&purchase.UserID,
			&purchase.EventName,
			&purchase.Count,
			&purchase.TicketPrice,
			&purchase.TotalPrice,
			&purchase.PurchaseAt,
			&purchase.Username,
			&purchase.Nickname,
			&purchase.Firstname,
			&purchase.Lastname,
		); err != nil {
			return nil, err
		}
		purchases = append(purchases, purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return purchases, nil
}
