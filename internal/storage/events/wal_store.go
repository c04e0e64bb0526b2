// Package events persists strategy events in an append-only WAL and serves
// the query surface used by statistics and dashboards.
package events

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"nightstalker/internal/domain"
)

const (
	DefaultDir = "./wal/events"

	segmentThreshold = 1000
	maxSegments      = 100
	dirPermissions   = 0o755

	eventKeyPrefix = "event_"
	resetKeyPrefix = "reset_"
)

// Filter narrows a query over the event log. Zero values match everything.
type Filter struct {
	Type       domain.EventType
	Symbol     string
	Since      time.Time
	Limit      int
	SinceReset bool
}

// Log is a WAL-backed append-only event store. Events are never mutated or
// deleted; ResetAggregates only writes a marker that later aggregation
// respects, raw rows are retained.
type Log struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

type resetMarker struct {
	Strategy string    `json:"strategy"`
	ResetAt  time.Time `json:"reset_at"`
}

// NewLog opens (or creates) the event WAL in dir.
func NewLog(dir string) (*Log, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, errors.Wrapf(err, "failed to ensure event log directory %s", dir)
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "log_",
		SegmentThreshold: segmentThreshold,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init event WAL")
	}

	return &Log{wal: wal}, nil
}

// Append writes one strategy event.
func (l *Log) Append(event domain.StrategyEvent) error {
	if l == nil || l.wal == nil {
		return errors.New("event log is not initialized")
	}
	if event.Strategy == "" {
		return errors.New("event strategy name is required")
	}
	switch event.Type {
	case domain.EventBuy, domain.EventSell, domain.EventMonitor, domain.EventError:
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal strategy event")
	}

	key := fmt.Sprintf("%s%s", eventKeyPrefix, event.Strategy)

	l.mu.Lock()
	defer l.mu.Unlock()

	nextIndex := l.wal.CurrentIndex() + 1
	return l.wal.Write(nextIndex, key, payload)
}

// Query returns the events of one strategy matching the filter, oldest first.
func (l *Log) Query(strategy string, filter Filter) ([]domain.StrategyEvent, error) {
	if l == nil || l.wal == nil {
		return nil, errors.New("event log is not initialized")
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	start := uint64(1)
	if filter.SinceReset {
		if resetIdx := l.latestResetIndex(strategy); resetIdx > 0 {
			start = resetIdx + 1
		}
	}

	eventKey := fmt.Sprintf("%s%s", eventKeyPrefix, strategy)
	symbol := domain.NormalizeSymbol(filter.Symbol)

	var result []domain.StrategyEvent
	for idx := start; idx <= l.wal.CurrentIndex(); idx++ {
		key, payload, err := l.wal.Get(idx)
		if err != nil {
			continue
		}
		if key != eventKey {
			continue
		}

		var event domain.StrategyEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, errors.Wrap(err, "decode strategy event")
		}

		if filter.Type != "" && event.Type != filter.Type {
			continue
		}
		if symbol != "" && event.Symbol != symbol {
			continue
		}
		if !filter.Since.IsZero() && event.Timestamp.Before(filter.Since) {
			continue
		}

		result = append(result, event)
	}

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[len(result)-filter.Limit:]
	}

	return result, nil
}

// ResetAggregates writes a reset marker for the strategy. Subsequent
// aggregate queries only consider events appended after the marker; the
// historical rows stay in the log.
func (l *Log) ResetAggregates(strategy string) error {
	if l == nil || l.wal == nil {
		return errors.New("event log is not initialized")
	}
	if strategy == "" {
		return errors.New("strategy name is required")
	}

	payload, err := json.Marshal(resetMarker{Strategy: strategy, ResetAt: time.Now()})
	if err != nil {
		return errors.Wrap(err, "marshal reset marker")
	}

	key := fmt.Sprintf("%s%s", resetKeyPrefix, strategy)

	l.mu.Lock()
	defer l.mu.Unlock()

	nextIndex := l.wal.CurrentIndex() + 1
	return l.wal.Write(nextIndex, key, payload)
}

// latestResetIndex returns the WAL index of the newest reset marker for the
// strategy, or 0 when none exists. Callers must hold at least a read lock.
func (l *Log) latestResetIndex(strategy string) uint64 {
	resetKey := fmt.Sprintf("%s%s", resetKeyPrefix, strategy)

	var latest uint64
	for idx := uint64(1); idx <= l.wal.CurrentIndex(); idx++ {
		key, _, err := l.wal.Get(idx)
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, resetKeyPrefix) && key == resetKey {
			latest = idx
		}
	}

	return latest
}

// Close closes the underlying WAL.
func (l *Log) Close() error {
	if l == nil || l.wal == nil {
		return errors.New("event log is not initialized")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.wal.Close()
}
