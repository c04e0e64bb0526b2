package positions

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"nightstalker/internal/domain"
)

// MemoryStore is an in-memory position store used for tests and dry runs.
// It implements the same contract as GormStore.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID uint
	items  map[uint]domain.Position
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		items:  make(map[uint]domain.Position),
	}
}

func (s *MemoryStore) Create(_ context.Context, p *domain.Position) error {
	if p == nil {
		return errors.New("position cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextID
	s.nextID++
	s.items[p.ID] = *p
	return nil
}

func (s *MemoryStore) ListOpen(_ context.Context) ([]domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Position
	for _, p := range s.items {
		if p.Status == domain.PositionStatusOpen {
			result = append(result, p)
		}
	}

	// stable order: oldest first, ties by ID
	for i := 1; i < len(result); i++ {
		for j := i; j > 0 && earlier(result[j], result[j-1]); j-- {
			result[j], result[j-1] = result[j-1], result[j]
		}
	}

	return result, nil
}

func earlier(a, b domain.Position) bool {
	if !a.OpenedAt.Equal(b.OpenedAt) {
		return a.OpenedAt.Before(b.OpenedAt)
	}
	return a.ID < b.ID
}

func (s *MemoryStore) CountOpen(ctx context.Context) (int, error) {
	open, err := s.ListOpen(ctx)
	if err != nil {
		return 0, err
	}
	return len(open), nil
}

func (s *MemoryStore) UpdateTracking(_ context.Context, id uint, apex decimal.Decimal, dropStartedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.items[id]
	if !ok || p.Status != domain.PositionStatusOpen {
		return errors.Wrapf(ErrNotOpen, "position %d", id)
	}

	p.ApexPrice = apex
	p.DropStartedAt = dropStartedAt
	s.items[id] = p
	return nil
}

func (s *MemoryStore) Close(_ context.Context, id uint, details domain.CloseDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.items[id]
	if !ok || p.Status != domain.PositionStatusOpen {
		return errors.Wrapf(ErrNotOpen, "position %d", id)
	}

	closedAt := details.ClosedAt
	p.Status = domain.PositionStatusClosed
	p.ClosedAt = &closedAt
	p.ClosePrice = details.ClosePrice
	p.Profit = details.Profit
	p.ProfitPct = details.ProfitPct
	s.items[id] = p
	return nil
}

// Get returns a copy of the stored position, open or closed.
func (s *MemoryStore) Get(id uint) (domain.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.items[id]
	return p, ok
}
