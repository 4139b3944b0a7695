package storage

import (
	"context"
	"fmt"
	"time"

	"dumpster-quote/internal/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	ChannelForm = "form"
	ChannelSMS  = "sms"
)

type PostgresStorage struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// Lead is a contact left under an estimate, kept for the staff follow-up call.
type Lead struct {
	ID           int64           `db:"id"`
	SessionID    string          `db:"session_id"`
	Contact      string          `db:"contact"`
	ContactKind  string          `db:"contact_kind"`
	Channel      string          `db:"channel"`
	ZipCode      string          `db:"zip_code"`
	Size         int             `db:"size"`
	DurationDays int             `db:"duration_days"`
	IsVeteran    bool            `db:"is_veteran"`
	DeliveryDate *time.Time      `db:"delivery_date"`
	FinalPrice   decimal.Decimal `db:"final_price"`
	CreatedAt    time.Time       `db:"created_at"`
}

func NewPostgresStorage(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	const operation = "storage.NewPostgresStorage"

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	var db *sqlx.DB
	var err error

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = cfg.ConnectTimeout
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to PostgreSQL...")

	err = backoff.RetryNotify(
		func() error {
			db, err = sqlx.ConnectContext(ctx, "postgres", connStr)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}

			if err = db.PingContext(ctx); err != nil {
				_ = db.Close()
				return fmt.Errorf("ping: %w", err)
			}
			return nil
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, duration time.Duration) {
			logger.Warn("PostgreSQL connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)

	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logger.Info("Successfully connected to PostgreSQL")
	return NewWithDB(db, logger), nil
}

// NewWithDB wraps an existing connection, used by tests and tooling.
func NewWithDB(db *sqlx.DB, logger *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:     db,
		logger: logger,
	}
}

func (s *PostgresStorage) DB() *sqlx.DB {
	return s.db
}

func (s *PostgresStorage) SaveLead(ctx context.Context, lead Lead) (int64, error) {
	const query = `
        INSERT INTO leads (
            session_id, contact, contact_kind, channel, zip_code,
            size, duration_days, is_veteran, delivery_date, final_price, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id
    `

	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now()
	}

	var leadID int64
	err := s.db.QueryRowContext(ctx, query,
		lead.SessionID,
		lead.Contact,
		lead.ContactKind,
		lead.Channel,
		lead.ZipCode,
		lead.Size,
		lead.DurationDays,
		lead.IsVeteran,
		lead.DeliveryDate,
		lead.FinalPrice,
		lead.CreatedAt,
	).Scan(&leadID)
	if err != nil {
		return 0, fmt.Errorf("failed to save lead: %w", err)
	}

	return leadID, nil
}

// ListLeads returns leads created at or after since, newest first.
func (s *PostgresStorage) ListLeads(ctx context.Context, since time.Time) ([]Lead, error) {
	const query = `
        SELECT id, session_id::text, contact, contact_kind, channel, zip_code,
               size, duration_days, is_veteran, delivery_date, final_price, created_at
        FROM leads
        WHERE created_at >= $1
        ORDER BY created_at DESC
    `

	var leads []Lead
	if err := s.db.SelectContext(ctx, &leads, query, since); err != nil {
		return nil, fmt.Errorf("failed to fetch leads: %w", err)
	}
	return leads, nil
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
