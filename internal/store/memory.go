package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BEASTY2K3/marathon-registration/internal/models"
)

// MemoryStore is a process-local Store for development and tests
type MemoryStore struct {
	mu           sync.Mutex
	payments     map[paymentKey]models.Payment
	participants []models.Participant
	taken        map[int64]bool
}

type paymentKey struct {
	orderID   string
	paymentID string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		payments: make(map[paymentKey]models.Payment),
		taken:    make(map[int64]bool),
	}
}

func (s *MemoryStore) SavePayment(ctx context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := paymentKey{payment.OrderID, payment.PaymentID}
	if _, ok := s.payments[key]; ok {
		return nil
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	s.payments[key] = *payment
	return nil
}

func (s *MemoryStore) FindPayment(ctx context.Context, orderID, paymentID string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[paymentKey{orderID, paymentID}]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) MaxChestNumber(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var max int64
	for _, p := range s.participants {
		if p.ChestNumber > max {
			max = p.ChestNumber
		}
	}
	return max, nil
}

func (s *MemoryStore) InsertParticipant(ctx context.Context, p *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.taken[p.ChestNumber] {
		return fmt.Errorf("%w: %d", ErrDuplicateChestNumber, p.ChestNumber)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.taken[p.ChestNumber] = true
	s.participants = append(s.participants, *p)
	return nil
}

// Participants returns a snapshot of stored participants in insertion order
func (s *MemoryStore) Participants() []models.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Participant, len(s.participants))
	copy(out, s.participants)
	return out
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
