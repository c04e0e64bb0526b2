// Package positions persists the portfolio: open and closed trades. Closed
// positions are retained with their close details, never deleted.
package positions

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"nightstalker/internal/domain"
)

// ErrNotOpen is returned when closing a position that is missing or already closed.
var ErrNotOpen = errors.New("position is not open")

type positionRecord struct {
	ID            uint            `gorm:"primaryKey"`
	Symbol        string          `gorm:"index;not null"`
	EntryPrice    decimal.Decimal `gorm:"type:numeric;not null"`
	Amount        decimal.Decimal `gorm:"type:numeric;not null"`
	OpenedAt      time.Time       `gorm:"not null"`
	Status        string          `gorm:"index;not null"`
	ApexPrice     decimal.Decimal `gorm:"type:numeric;not null"`
	DropStartedAt *time.Time
	ClosedAt      *time.Time
	ClosePrice    decimal.Decimal `gorm:"type:numeric"`
	Profit        decimal.Decimal `gorm:"type:numeric"`
	ProfitPct     decimal.Decimal `gorm:"type:numeric"`
}

func (positionRecord) TableName() string { return "positions" }

func toRecord(p *domain.Position) positionRecord {
	return positionRecord{
		ID:            p.ID,
		Symbol:        p.Symbol,
		EntryPrice:    p.EntryPrice,
		Amount:        p.Amount,
		OpenedAt:      p.OpenedAt,
		Status:        string(p.Status),
		ApexPrice:     p.ApexPrice,
		DropStartedAt: p.DropStartedAt,
		ClosedAt:      p.ClosedAt,
		ClosePrice:    p.ClosePrice,
		Profit:        p.Profit,
		ProfitPct:     p.ProfitPct,
	}
}

func (r positionRecord) toDomain() domain.Position {
	return domain.Position{
		ID:            r.ID,
		Symbol:        r.Symbol,
		EntryPrice:    r.EntryPrice,
		Amount:        r.Amount,
		OpenedAt:      r.OpenedAt,
		Status:        domain.PositionStatus(r.Status),
		ApexPrice:     r.ApexPrice,
		DropStartedAt: r.DropStartedAt,
		ClosedAt:      r.ClosedAt,
		ClosePrice:    r.ClosePrice,
		Profit:        r.Profit,
		ProfitPct:     r.ProfitPct,
	}
}

// GormStore is the Postgres-backed position store.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore connects to Postgres and migrates the positions table.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "connect to postgres")
	}
	if err := db.AutoMigrate(&positionRecord{}); err != nil {
		return nil, errors.Wrap(err, "migrate positions table")
	}
	return &GormStore{db: db}, nil
}

// Create persists a freshly opened position and fills in its ID.
func (s *GormStore) Create(ctx context.Context, p *domain.Position) error {
	if p == nil {
		return errors.New("position cannot be nil")
	}

	rec := toRecord(p)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return errors.Wrapf(err, "create position for %s", p.Symbol)
	}
	p.ID = rec.ID
	return nil
}

// ListOpen returns all open positions, oldest first.
func (s *GormStore) ListOpen(ctx context.Context) ([]domain.Position, error) {
	var records []positionRecord
	err := s.db.WithContext(ctx).
		Where("status = ?", string(domain.PositionStatusOpen)).
		Order("opened_at asc").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(err, "list open positions")
	}

	result := make([]domain.Position, len(records))
	for i, r := range records {
		result[i] = r.toDomain()
	}
	return result, nil
}

// CountOpen returns the number of open positions.
func (s *GormStore) CountOpen(ctx context.Context) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&positionRecord{}).
		Where("status = ?", string(domain.PositionStatusOpen)).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "count open positions")
	}
	return int(count), nil
}

// UpdateTracking persists the monitor's apex/drop fields for one position.
func (s *GormStore) UpdateTracking(ctx context.Context, id uint, apex decimal.Decimal, dropStartedAt *time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&positionRecord{}).
		Where("id = ? AND status = ?", id, string(domain.PositionStatusOpen)).
		Updates(map[string]any{
			"apex_price":      apex,
			"drop_started_at": dropStartedAt,
		}).Error
	if err != nil {
		return errors.Wrapf(err, "update tracking for position %d", id)
	}
	return nil
}

// Close transitions an open position to closed with its close details. The
// status change and bookkeeping are applied in one transaction so the
// portfolio and the trade history cannot diverge.
func (s *GormStore) Close(ctx context.Context, id uint, details domain.CloseDetails) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&positionRecord{}).
			Where("id = ? AND status = ?", id, string(domain.PositionStatusOpen)).
			Updates(map[string]any{
				"status":      string(domain.PositionStatusClosed),
				"closed_at":   details.ClosedAt,
				"close_price": details.ClosePrice,
				"profit":      details.Profit,
				"profit_pct":  details.ProfitPct,
			})
		if res.Error != nil {
			return errors.Wrapf(res.Error, "close position %d", id)
		}
		if res.RowsAffected == 0 {
			return errors.Wrapf(ErrNotOpen, "position %d", id)
		}
		return nil
	})
}
