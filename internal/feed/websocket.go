package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"mmengine-go/internal/breaker"
	"mmengine-go/internal/fixed"
	"mmengine-go/internal/marketdata"
	"mmengine-go/internal/metrics"
)

// WSConfig configures the websocket source.
type WSConfig struct {
	URL    string
	Symbol string
	// ReconnectMaxInterval caps the exponential reconnect backoff.
	ReconnectMaxInterval time.Duration
	// HandshakeTimeout bounds the dial.
	HandshakeTimeout time.Duration
	// ReadDeadline bounds silence on an open connection; pongs extend it.
	ReadDeadline time.Duration
	// Buffer is the snapshot channel depth between reader and Poll.
	Buffer int
}

const (
	defaultReconnectMax     = 30 * time.Second
	defaultHandshakeTimeout = 10 * time.Second
	defaultReadDeadline     = 30 * time.Second
	defaultBuffer           = 256
	pollWait                = 250 * time.Millisecond
)

// wsBookTicker is the top-of-book stream payload: sequence plus four
// decimal strings.
type wsBookTicker struct {
	Sequence uint64 `json:"u"`
	Symbol   string `json:"s"`
	BidPrice string `json:"b"`
	BidSize  string `json:"B"`
	AskPrice string `json:"a"`
	AskSize  string `json:"A"`
}

// WS streams book ticker updates from a websocket into a buffered channel
// that Poll drains. Reconnects with exponential backoff, gated by the
// connection breaker; sequence gaps and conversion failures are counted
// and the offending message dropped.
type WS struct {
	cfg  WSConfig
	log  zerolog.Logger
	conn *breaker.Connection
	gaps *marketdata.GapDetector

	out     chan *marketdata.Snapshot
	cancel  context.CancelFunc
	done    chan struct{}
	started atomic.Bool
}

// NewWS returns a websocket source. The reader goroutine starts on the
// first Poll so a constructed-but-unused source costs nothing.
func NewWS(cfg WSConfig, conn *breaker.Connection, log zerolog.Logger) *WS {
	if cfg.ReconnectMaxInterval <= 0 {
		cfg.ReconnectMaxInterval = defaultReconnectMax
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	if cfg.ReadDeadline <= 0 {
		cfg.ReadDeadline = defaultReadDeadline
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = defaultBuffer
	}
	if conn == nil {
		conn = breaker.NewConnection(breaker.DefaultConnConfig(), log)
	}
	return &WS{
		cfg:  cfg,
		log:  log.With().Str("component", "ws_feed").Str("symbol", cfg.Symbol).Logger(),
		conn: conn,
		gaps: marketdata.NewGapDetector(),
		out:  make(chan *marketdata.Snapshot, cfg.Buffer),
		done: make(chan struct{}),
	}
}

// Name implements Source.
func (w *WS) Name() string { return ProviderWebsocket }

// Poll implements Source. Returns the next buffered snapshot, or an empty
// poll after a short wait so the engine's staleness tracking advances
// while the stream is quiet.
func (w *WS) Poll(ctx context.Context) (*marketdata.Snapshot, bool, error) {
	if w.started.CompareAndSwap(false, true) {
		runCtx, cancel := context.WithCancel(context.Background())
		w.cancel = cancel
		go w.run(runCtx)
	}

	timer := time.NewTimer(pollWait)
	defer timer.Stop()
	select {
	case snap := <-w.out:
		return snap, true, nil
	case <-timer.C:
		return nil, false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Close implements Source. Stops the reader and waits for it to exit.
func (w *WS) Close() error {
	if w.started.Load() && w.cancel != nil {
		w.cancel()
		<-w.done
	}
	return nil
}

// run owns the connect-consume-reconnect loop until the context ends.
func (w *WS) run(ctx context.Context) {
	defer close(w.done)

	policy := backoff.NewExponentialBackOff()
	policy.MaxInterval = w.cfg.ReconnectMaxInterval
	policy.MaxElapsedTime = 0 // retry forever, the breaker does the gating

	for {
		if ctx.Err() != nil {
			return
		}
		if !w.conn.Allow() {
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		err := w.consume(ctx)
		if ctx.Err() != nil {
			return
		}
		w.conn.RecordFailure()
		wait := policy.NextBackOff()
		w.log.Warn().Err(err).Dur("retry_in", wait).Msg("stream disconnected")
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
	}
}

// consume dials once and reads until the connection dies. A successful
// dial resets the backoff credit via the breaker; the sequence tracker is
// re-seeded so the reconnect boundary is not misread as a gap.
func (w *WS) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: w.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, w.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", w.cfg.URL, err)
	}
	defer conn.Close()

	w.conn.RecordSuccess()
	w.gaps.Reset()
	w.log.Info().Str("url", w.cfg.URL).Msg("stream connected")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(w.cfg.ReadDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(w.cfg.ReadDeadline))
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(w.cfg.ReadDeadline / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		snap, err := decodeBookTicker(message, time.Now().UnixNano())
		if err != nil {
			metrics.ConversionErrorsTotal.WithLabelValues(w.cfg.Symbol).Inc()
			w.log.Warn().Err(err).Msg("dropped unconvertible message")
			continue
		}

		if gap := w.gaps.Check(snap.Sequence); gap > 0 {
			metrics.SequenceGapsTotal.WithLabelValues(w.cfg.Symbol).Inc()
			metrics.GappedMessagesTotal.WithLabelValues(w.cfg.Symbol).Add(float64(gap))
			w.log.Warn().Uint64("gap", gap).Uint64("seq", snap.Sequence).Msg("sequence gap")
		}

		select {
		case w.out <- snap:
		default:
			// Poll side is behind; newest-wins beats blocking the reader.
			select {
			case <-w.out:
			default:
			}
			w.out <- snap
		}
	}
}

// decodeBookTicker converts one stream payload into a snapshot, exactly.
// Any unparseable or non-positive decimal rejects the whole message.
func decodeBookTicker(message []byte, recvNs int64) (*marketdata.Snapshot, error) {
	var tick wsBookTicker
	if err := json.Unmarshal(message, &tick); err != nil {
		return nil, fmt.Errorf("decode book ticker: %w", err)
	}
	if tick.Sequence == 0 {
		return nil, fmt.Errorf("book ticker missing sequence")
	}

	snap := &marketdata.Snapshot{
		MarketID:       1,
		Sequence:       tick.Sequence,
		ExchangeTimeNs: recvNs,
		LocalRecvNs:    recvNs,
	}
	fields := []struct {
		name string
		raw  string
		dst  *fixed.Point
	}{
		{"bid_price", tick.BidPrice, &snap.BestBidPrice},
		{"bid_size", tick.BidSize, &snap.BestBidSize},
		{"ask_price", tick.AskPrice, &snap.BestAskPrice},
		{"ask_size", tick.AskSize, &snap.BestAskSize},
	}
	for _, f := range fields {
		p, err := fixed.FromString(f.raw)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", f.name, f.raw, err)
		}
		if p <= 0 {
			return nil, fmt.Errorf("%s %q: not positive", f.name, f.raw)
		}
		*f.dst = p
	}
	return snap, nil
}
