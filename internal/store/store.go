package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/BEASTY2K3/marathon-registration/config"
	"github.com/BEASTY2K3/marathon-registration/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches nothing
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateChestNumber is returned when the unique chest number constraint rejects an insert
	ErrDuplicateChestNumber = errors.New("chest number already assigned")
)

// Store persists payments and participants
type Store interface {
	// SavePayment records a verified payment. Saving the same order/payment pair again is a no-op.
	SavePayment(ctx context.Context, payment *models.Payment) error
	FindPayment(ctx context.Context, orderID, paymentID string) (*models.Payment, error)
	// MaxChestNumber returns the highest assigned chest number, or 0 when there are no participants.
	MaxChestNumber(ctx context.Context) (int64, error)
	InsertParticipant(ctx context.Context, participant *models.Participant) error
	Ping(ctx context.Context) error
	Close() error
}

// Open connects the store selected by cfg.Driver and prepares its schema
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "mongo", "mongodb":
		s, err := NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgresStore(cfg.URL)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Driver)
	}
}
