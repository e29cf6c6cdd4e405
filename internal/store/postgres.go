package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/BEASTY2K3/marathon-registration/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// PostgresStore is the relational Store backed by sqlx
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new database store
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Migrate creates the tables if they do not exist
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SavePayment inserts the payment, leaving an existing order/payment pair untouched
func (s *PostgresStore) SavePayment(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (order_id, payment_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id, payment_id) DO NOTHING
		RETURNING created_at`

	err := s.db.GetContext(ctx, &payment.CreatedAt, query,
		payment.OrderID, payment.PaymentID, payment.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

// FindPayment retrieves a payment by provider order and payment id
func (s *PostgresStore) FindPayment(ctx context.Context, orderID, paymentID string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment,
		"SELECT order_id, payment_id, status, created_at FROM payments WHERE order_id = $1 AND payment_id = $2",
		orderID, paymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *PostgresStore) MaxChestNumber(ctx context.Context) (int64, error) {
	var max int64
	err := s.db.GetContext(ctx, &max, "SELECT COALESCE(MAX(chest_number), 0) FROM participants")
	return max, err
}

// InsertParticipant creates a participant row; a taken chest number maps to ErrDuplicateChestNumber
func (s *PostgresStore) InsertParticipant(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO participants (name, email, phone, age, gender, category, payment_id, chest_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := s.db.GetContext(ctx, &p.CreatedAt, query,
		p.Name, p.Email, p.Phone, p.Age, p.Gender, p.Category, p.PaymentID, p.ChestNumber)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %d", ErrDuplicateChestNumber, p.ChestNumber)
	}
	return err
}
