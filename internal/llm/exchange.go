package llm

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultExchangeLogPath is where exchanges land unless configured away.
const DefaultExchangeLogPath = "llm_log.jsonl"

// Exchange is one logged request/response pair.
type Exchange struct {
	Timestamp time.Time         `json:"timestamp"`
	Model     string            `json:"model"`
	Endpoint  string            `json:"endpoint"`
	Messages  []Message         `json:"messages"`
	Response  *ExchangeResponse `json:"response,omitempty"`
	Error     *ExchangeError    `json:"error,omitempty"`
}

// ExchangeResponse captures what a successful completion produced.
type ExchangeResponse struct {
	Content       string `json:"content"`
	Thinking      string `json:"thinking,omitempty"`
	RawChunkCount int    `json:"rawChunkCount"`
	RawFirstChunk string `json:"rawFirstChunk,omitempty"`
}

// ExchangeError captures an upstream rejection or transport failure.
type ExchangeError struct {
	Status  int    `json:"status,omitempty"`
	Body    string `json:"body,omitempty"`
	Message string `json:"message"`
}

// ExchangeLog appends one JSON line per upstream exchange. Logging is
// best-effort: a write failure is reported and swallowed, never surfaced
// to the move in flight.
type ExchangeLog struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// NewExchangeLog writes to path; an empty path disables recording.
func NewExchangeLog(path string, logger *zap.Logger) *ExchangeLog {
	return &ExchangeLog{path: path, logger: logger}
}

// Record appends the exchange as one JSON line.
func (e *ExchangeLog) Record(x Exchange) {
	if e == nil || e.path == "" {
		return
	}

	line, err := json.Marshal(x)
	if err != nil {
		e.logger.Warn("marshaling llm exchange", zap.Error(err))
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := os.OpenFile(e.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		e.logger.Warn("opening llm exchange log", zap.String("path", e.path), zap.Error(err))
		return
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		e.logger.Warn("writing llm exchange log", zap.String("path", e.path), zap.Error(err))
	}
}
