// Command live runs the engine against a live websocket book feed. Order
// execution stays simulated; the live transport boundary is the feed.
package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"mmengine-go/internal/breaker"
	"mmengine-go/internal/config"
	"mmengine-go/internal/engine"
	"mmengine-go/internal/executor"
	"mmengine-go/internal/feed"
	"mmengine-go/internal/journal"
	"mmengine-go/internal/marketdata"
	"mmengine-go/internal/metrics"
	"mmengine-go/internal/position"
	"mmengine-go/internal/strategy"
	"mmengine-go/internal/util"
)

func main() {
	_ = godotenv.Load() // best-effort

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		boot := util.NewLogger("info")
		boot.Fatal().Err(err).Str("path", path).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)

	if cfg.Feed.URL == "" {
		log.Fatal().Msg("feed.url is required for live mode")
	}

	if cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	eng, src, jw, err := wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("wire engine")
	}
	defer src.Close()
	if jw != nil {
		defer jw.Close()
	}

	log.Info().Str("market", cfg.Engine.Market).Str("feed", src.Name()).Msg("live session starting")
	if err := eng.Run(ctx, src.Poll); err != nil {
		log.Error().Err(err).Msg("engine stopped")
		os.Exit(1)
	}
	final := eng.Position().Snapshot()
	log.Info().
		Str("quantity", final.Quantity.String()).
		Str("realized_pnl", final.RealizedPnL.String()).
		Uint64("trades", final.TradeCount).
		Msg("session summary")
}

// wire assembles the engine from config with the configured feed source.
func wire(cfg *config.Config, log zerolog.Logger) (*engine.Engine, feed.Source, *journal.Writer, error) {
	floor, err := cfg.Engine.DailyLossFloorPoint()
	if err != nil {
		return nil, nil, nil, err
	}
	orderSize, err := cfg.Strategy.OrderSizePoint()
	if err != nil {
		return nil, nil, nil, err
	}
	target, err := cfg.Strategy.TargetInventoryPoint()
	if err != nil {
		return nil, nil, nil, err
	}
	limits, err := cfg.Risk.Limits()
	if err != nil {
		return nil, nil, nil, err
	}

	strat := strategy.Build(cfg.Strategy.Mode, strategy.Params{
		SpreadBps:       cfg.Strategy.SpreadBps,
		MinMarketBps:    cfg.Strategy.MinMarketBps,
		OrderSize:       orderSize,
		TargetInventory: target,
		RiskAversion:    cfg.Strategy.RiskAversion,
		Volatility:      cfg.Strategy.Volatility,
		HorizonSecs:     cfg.Strategy.HorizonSecs,
	})

	mode := executor.FillOnCross
	if cfg.Executor.Mode == "immediate" {
		mode = executor.FillImmediate
	}
	exec := executor.NewSimulated(executor.SimulatedConfig{
		Mode:          mode,
		FeeBps:        cfg.Executor.FeeBps,
		QueueCapacity: cfg.Executor.QueueCapacity,
		Limits:        limits,
	}, log)

	brkCfg := breaker.DefaultMarketConfig()
	if cfg.Breaker.MaxSpreadBps > 0 {
		brkCfg.MaxSpreadBps = cfg.Breaker.MaxSpreadBps
	}
	if cfg.Breaker.MaxMovePct > 0 {
		brkCfg.MaxMovePct = cfg.Breaker.MaxMovePct
	}
	if cfg.Breaker.ViolationThreshold > 0 {
		brkCfg.ViolationThreshold = uint32(cfg.Breaker.ViolationThreshold)
	}

	staleCfg := marketdata.DefaultStaleConfig()
	if cfg.Feed.MaxAgeMs > 0 {
		staleCfg.MaxAge = time.Duration(cfg.Feed.MaxAgeMs) * time.Millisecond
	}
	if cfg.Feed.MaxEmptyPolls > 0 {
		staleCfg.MaxEmptyPolls = cfg.Feed.MaxEmptyPolls
	}

	connCfg := breaker.DefaultConnConfig()
	if cfg.Connection.FailureThreshold > 0 {
		connCfg.FailureThreshold = uint32(cfg.Connection.FailureThreshold)
	}
	if cfg.Connection.SuccessThreshold > 0 {
		connCfg.SuccessThreshold = uint32(cfg.Connection.SuccessThreshold)
	}
	if cfg.Connection.CooldownMs > 0 {
		connCfg.Cooldown = time.Duration(cfg.Connection.CooldownMs) * time.Millisecond
	}
	conn := breaker.NewConnection(connCfg, log)

	eng := engine.New(
		engine.Config{Market: cfg.Engine.Market, DailyLossFloor: floor},
		position.New(),
		breaker.NewMarket(brkCfg, log),
		strat,
		exec,
		marketdata.NewValidator(),
		marketdata.NewStaleDetector(staleCfg),
		log,
	)

	src := feed.New(cfg.Feed, conn, log)

	var jw *journal.Writer
	if cfg.Journal.Enabled {
		jw, err = journal.NewWriter(cfg.Journal.Path, cfg.Engine.Market)
		if err != nil {
			return nil, nil, nil, err
		}
		eng.OnFill(jw.Record)
	}
	return eng, src, jw, nil
}
