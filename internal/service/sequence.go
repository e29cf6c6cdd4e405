package service

import (
	"context"
	"fmt"

	"github.com/BEASTY2K3/marathon-registration/internal/models"
)

// SequenceAllocator hands out chest numbers
type SequenceAllocator interface {
	Next(ctx context.Context) (int64, error)
}

type maxChestNumberReader interface {
	MaxChestNumber(ctx context.Context) (int64, error)
}

type chestNumberCounter interface {
	AllocateChestNumber(ctx context.Context, floor int64) (int64, error)
}

// StoreSequence derives the next number from the highest stored one. Two concurrent
// callers can get the same number; the unique index on chest numbers catches that.
type StoreSequence struct {
	store maxChestNumberReader
}

func NewStoreSequence(store maxChestNumberReader) *StoreSequence {
	return &StoreSequence{store: store}
}

func (s *StoreSequence) Next(ctx context.Context) (int64, error) {
	max, err := s.store.MaxChestNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read max chest number: %w", err)
	}
	return nextAfter(max), nil
}

// RedisSequence increments a shared counter, seeded from the store so numbering
// continues after the counter key is lost.
type RedisSequence struct {
	store   maxChestNumberReader
	counter chestNumberCounter
}

func NewRedisSequence(store maxChestNumberReader, counter chestNumberCounter) *RedisSequence {
	return &RedisSequence{store: store, counter: counter}
}

func (s *RedisSequence) Next(ctx context.Context) (int64, error) {
	max, err := s.store.MaxChestNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read max chest number: %w", err)
	}
	n, err := s.counter.AllocateChestNumber(ctx, nextAfter(max)-1)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func nextAfter(max int64) int64 {
	if max <= 0 {
		return models.FirstChestNumber
	}
	return max + 1
}
