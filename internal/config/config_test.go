package config

import (
	"path/filepath"
	"testing"

	"mmengine-go/internal/fixed"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "mmengine-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.App.MetricsAddr != ":9100" {
		t.Fatalf("unexpected metrics addr: %s", cfg.App.MetricsAddr)
	}
	if cfg.Engine.Market != "BTCUSDT" {
		t.Fatalf("unexpected market: %s", cfg.Engine.Market)
	}
	if cfg.Breaker.MaxSpreadBps != 100 || cfg.Breaker.MaxMovePct != 10 || cfg.Breaker.ViolationThreshold != 3 {
		t.Fatalf("unexpected breaker config: %+v", cfg.Breaker)
	}
	if cfg.Connection.FailureThreshold != 5 || cfg.Connection.SuccessThreshold != 2 || cfg.Connection.CooldownMs != 30000 {
		t.Fatalf("unexpected connection config: %+v", cfg.Connection)
	}
	if cfg.Strategy.Mode != "inventory_skew" {
		t.Fatalf("unexpected strategy mode: %s", cfg.Strategy.Mode)
	}
	if cfg.Strategy.SpreadBps != 20 || cfg.Strategy.MinMarketBps != 2 {
		t.Fatalf("unexpected strategy spreads: %+v", cfg.Strategy)
	}
	if cfg.Strategy.RiskAversion != 0.1 || cfg.Strategy.Volatility != 2.0 || cfg.Strategy.HorizonSecs != 1.0 {
		t.Fatalf("unexpected skew params: %+v", cfg.Strategy)
	}
	if cfg.Feed.Provider != "websocket" || cfg.Feed.Symbol != "BTCUSDT" {
		t.Fatalf("unexpected feed config: %+v", cfg.Feed)
	}
	if cfg.Feed.MaxAgeMs != 5000 || cfg.Feed.MaxEmptyPolls != 1000 || cfg.Feed.ReconnectMaxIntervalMs != 15000 {
		t.Fatalf("unexpected feed tuning: %+v", cfg.Feed)
	}
	if cfg.Executor.Mode != "cross" || cfg.Executor.FeeBps != 10 || cfg.Executor.QueueCapacity != 1024 {
		t.Fatalf("unexpected executor config: %+v", cfg.Executor)
	}
	if !cfg.Journal.Enabled || cfg.Journal.Path != "fills.jsonl" {
		t.Fatalf("unexpected journal config: %+v", cfg.Journal)
	}
}

func TestDecimalAccessors(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	floor, err := cfg.Engine.DailyLossFloorPoint()
	if err != nil {
		t.Fatalf("DailyLossFloorPoint: %v", err)
	}
	want, err := fixed.FromString("-2500.50")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if floor != want {
		t.Fatalf("floor = %v, want %v", floor, want)
	}

	size, err := cfg.Strategy.OrderSizePoint()
	if err != nil {
		t.Fatalf("OrderSizePoint: %v", err)
	}
	quarter, err := fixed.FromString("0.25")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if size != quarter {
		t.Fatalf("order size = %v, want %v", size, quarter)
	}

	target, err := cfg.Strategy.TargetInventoryPoint()
	if err != nil {
		t.Fatalf("TargetInventoryPoint: %v", err)
	}
	if target != 0 {
		t.Fatalf("target inventory = %v, want 0", target)
	}

	limits, err := cfg.Risk.Limits()
	if err != nil {
		t.Fatalf("Limits: %v", err)
	}
	notional, err := fixed.FromString("25000")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if limits.MaxNotionalPerTrade != notional {
		t.Fatalf("max notional = %v, want %v", limits.MaxNotionalPerTrade, notional)
	}
	maxSize, err := fixed.FromString("1.5")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if limits.MaxOrderSize != maxSize {
		t.Fatalf("max order size = %v, want %v", limits.MaxOrderSize, maxSize)
	}
}

func TestDecimalAccessorDefaults(t *testing.T) {
	var e Engine
	floor, err := e.DailyLossFloorPoint()
	if err != nil || floor != 0 {
		t.Fatalf("empty floor = (%v, %v), want (0, nil)", floor, err)
	}

	var s Strategy
	if _, err := s.OrderSizePoint(); err == nil {
		t.Fatal("expected error parsing empty order size")
	}

	var r Risk
	limits, err := r.Limits()
	if err != nil {
		t.Fatalf("empty limits: %v", err)
	}
	if limits.MaxNotionalPerTrade != 0 || limits.MaxOrderSize != 0 {
		t.Fatalf("empty risk section must disable limits: %+v", limits)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join("testdata", "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	out := filepath.Join(t.TempDir(), "config.yaml")
	if err := Save(out, cfg); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	back, err := Load(out)
	if err != nil {
		t.Fatalf("Load after Save: %v", err)
	}
	if *back != *cfg {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", back, cfg)
	}
}
