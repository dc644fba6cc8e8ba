// Package ledger persists carts and orders in Postgres via bun. The ledger is
// append-only per order: rows are never deleted, status is last-write-wins,
// and writes to one cart id go through single UPDATE statements so concurrent
// writers to the same id serialize in the database.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/ordino-ai/ordino/agent/contract"
)

type Config struct {
	DSN string `envconfig:"DSN" split_words:"true" required:"true"`
}

// Order is the trackable record: created on cart creation, mutated by
// checkout and tracker polls.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID           int64     `bun:"id,pk,autoincrement"`
	UserID       string    `bun:"user_id,notnull"`
	CartID       string    `bun:"cart_id"`
	RestaurantID string    `bun:"restaurant_id"`
	Items        string    `bun:"items"`
	Status       string    `bun:"status"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Cart is the strictly historical record of every cart ever created; it is
// never updated after insert.
type Cart struct {
	bun.BaseModel `bun:"table:carts"`

	ID           int64     `bun:"id,pk,autoincrement"`
	UserID       string    `bun:"user_id,notnull"`
	CartID       string    `bun:"cart_id"`
	RestaurantID string    `bun:"restaurant_id"`
	Items        string    `bun:"items"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Store implements contract.Ledger on bun/Postgres.
type Store struct {
	db *bun.DB
}

var _ contractx.Ledger = (*Store)(nil)

func NewStore(cfg Config) (*Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("ledger dsn is required")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &Store{db: db}, nil
}

// Init creates the tables when absent.
func (s *Store) Init(ctx context.Context) error {
	for _, model := range []any{(*Order)(nil), (*Cart)(nil)} {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) RecordCartCreated(ctx context.Context, userID, cartID, restaurantID string, items []contractx.CartItem) error {
	encoded, err := json.Marshal(items)
	if err != nil {
		encoded = []byte("[]")
	}
	now := time.Now().UTC()

	order := &Order{
		UserID:       userID,
		CartID:       cartID,
		RestaurantID: restaurantID,
		Items:        string(encoded),
		Status:       string(contractx.StatusCreated),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.db.NewInsert().Model(order).Exec(ctx); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	cart := &Cart{
		UserID:       userID,
		CartID:       cartID,
		RestaurantID: restaurantID,
		Items:        string(encoded),
		CreatedAt:    now,
	}
	if _, err := s.db.NewInsert().Model(cart).Exec(ctx); err != nil {
		return fmt.Errorf("insert cart: %w", err)
	}
	return nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, cartID string, status contractx.OrderStatus) error {
	if strings.TrimSpace(cartID) == "" {
		return fmt.Errorf("cart id is empty")
	}
	_, err := s.db.NewUpdate().
		Model((*Order)(nil)).
		Set("status = ?", string(status)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("cart_id = ?", cartID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

func (s *Store) ListRecentOrders(ctx context.Context, userID string, limit int) ([]contractx.OrderRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []Order
	err := s.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	records := make([]contractx.OrderRecord, 0, len(rows))
	for _, row := range rows {
		var items []contractx.CartItem
		if row.Items != "" {
			_ = json.Unmarshal([]byte(row.Items), &items)
		}
		records = append(records, contractx.OrderRecord{
			CartID:       row.CartID,
			RestaurantID: row.RestaurantID,
			Items:        items,
			Status:       contractx.OrderStatus(row.Status),
			CreatedAt:    row.CreatedAt,
			UpdatedAt:    row.UpdatedAt,
		})
	}
	return records, nil
}
