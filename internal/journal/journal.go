// Package journal appends fills as JSON lines for later analysis. Each
// process run gets a session id so overlapping runs writing to the same
// file stay distinguishable.
package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"mmengine-go/internal/executor"
)

// Entry is one journaled fill.
type Entry struct {
	Session     string `json:"session"`
	Market      string `json:"market"`
	OrderID     string `json:"order_id"`
	Side        string `json:"side"`
	Price       string `json:"price"`
	Size        string `json:"size"`
	Fee         string `json:"fee"`
	TimestampNs int64  `json:"ts_ns"`
}

// Writer appends fills to a JSONL file.
type Writer struct {
	mu      sync.Mutex
	file    *os.File
	enc     *json.Encoder
	session string
	market  string
}

// NewWriter creates/opens the target file in append mode.
func NewWriter(path, market string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Writer{
		file:    file,
		enc:     json.NewEncoder(file),
		session: uuid.NewString(),
		market:  market,
	}, nil
}

// Session returns this writer's run identifier.
func (w *Writer) Session() string { return w.session }

// Record writes a single fill. Errors are swallowed: journaling must
// never take the trading path down.
func (w *Writer) Record(fill executor.Fill) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return
	}
	_ = w.enc.Encode(Entry{
		Session:     w.session,
		Market:      w.market,
		OrderID:     fill.OrderID.String(),
		Side:        fill.Side.String(),
		Price:       fill.Price.String(),
		Size:        fill.Size.String(),
		Fee:         fill.Fee.String(),
		TimestampNs: fill.TimestampNs,
	})
}

// Close flushes and closes the file handle.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
