// Package eventlog appends one JSON object per processed message to a
// JSON-lines file.
package eventlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileName is the log file created inside the configured log directory.
const FileName = "processed_messages.jsonl"

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Log is safe for concurrent use.
type Log struct {
	mu   sync.Mutex
	path string
	enc  zapcore.Encoder
	now  func() time.Time
}

func Open(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &Log{
		path: filepath.Join(dir, FileName),
		enc: zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			MessageKey:     "status",
			LevelKey:       zapcore.OmitKey,
			NameKey:        zapcore.OmitKey,
			CallerKey:      zapcore.OmitKey,
			StacktraceKey:  zapcore.OmitKey,
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		}),
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (l *Log) Path() string {
	return l.path
}

// Record appends one event. Callers decide whether a failure matters.
func (l *Log) Record(status Status, fields ...zap.Field) error {
	buf, err := l.enc.EncodeEntry(zapcore.Entry{Time: l.now(), Message: string(status)}, fields)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	defer buf.Free()

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("append event: %w", err)
	}
	return f.Close()
}
