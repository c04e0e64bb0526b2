package gateway

import (
	"sync"
	"time"
)

// discoveryTracker records when a symbol was first observed. Feeds that
// carry no listing date (CoinGecko markets, exchange tickers) derive the
// coin age from discovery time instead: a symbol seen for the first time
// has age zero and ages from there.
type discoveryTracker struct {
	mu        sync.Mutex
	firstSeen map[string]time.Time
}

func newDiscoveryTracker() *discoveryTracker {
	return &discoveryTracker{firstSeen: make(map[string]time.Time)}
}

// ageHours returns the hours since the symbol was first observed, recording
// the first observation at now.
func (d *discoveryTracker) ageHours(symbol string, now time.Time) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	seen, ok := d.firstSeen[symbol]
	if !ok {
		d.firstSeen[symbol] = now
		return 0
	}

	return now.Sub(seen).Hours()
}
