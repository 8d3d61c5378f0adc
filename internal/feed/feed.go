// Package feed hosts market data sources that produce book snapshots for
// the engine: a deterministic stub for tests and offline work, and a
// websocket adapter for live venues.
package feed

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mmengine-go/internal/breaker"
	"mmengine-go/internal/config"
	"mmengine-go/internal/marketdata"
)

const (
	// ProviderStub emits deterministic synthetic snapshots.
	ProviderStub = "stub"
	// ProviderWebsocket streams a book ticker over a websocket.
	ProviderWebsocket = "websocket"
)

// Source produces snapshots for the engine's poll loop. Poll returns
// (nil, false, nil) on an empty poll; the engine uses those for freshness
// accounting.
type Source interface {
	Poll(ctx context.Context) (*marketdata.Snapshot, bool, error)
	Name() string
	Close() error
}

// New constructs a source from config. Unknown providers fall back to
// the stub so a bad config degrades to paper data instead of crashing.
func New(cfg config.Feed, conn *breaker.Connection, log zerolog.Logger) Source {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderWebsocket:
		wcfg := WSConfig{
			URL:    cfg.URL,
			Symbol: cfg.Symbol,
		}
		if cfg.ReconnectMaxIntervalMs > 0 {
			wcfg.ReconnectMaxInterval = time.Duration(cfg.ReconnectMaxIntervalMs) * time.Millisecond
		}
		return NewWS(wcfg, conn, log)
	default:
		return NewStub(DefaultStubConfig(), log)
	}
}
