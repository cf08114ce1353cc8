package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/rexeee/mai-protocol/pkg/types"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Test connection
	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// StoreSettlement inserts one settled leg into the settlements table.
// Amounts are stored as NUMERIC so base-unit integers survive round trips.
func (p *PostgresStorage) StoreSettlement(ctx context.Context, event *types.SettlementEvent) error {
	query := `
		INSERT INTO settlements (
			id, match_id, market_contract, mode,
			taker, maker, taker_order_hash, maker_order_hash,
			fill_amount, price, taker_fee, maker_fee, maker_rebate,
			settled_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		event.ID,
		event.MatchID,
		event.MarketContract,
		event.Mode,
		event.Taker,
		event.Maker,
		event.TakerOrderHash,
		event.MakerOrderHash,
		event.FillAmount.String(),
		event.Price.String(),
		event.TakerFee.String(),
		event.MakerFee.String(),
		event.MakerRebate.String(),
		event.SettledAt,
	)

	if err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}

	p.logger.Debug("settlement-stored",
		zap.String("settlement-id", event.ID),
		zap.String("match-id", event.MatchID),
		zap.String("mode", event.Mode))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
