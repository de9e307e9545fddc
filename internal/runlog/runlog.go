// Package runlog implements spec.md §6's "Log file": UTC-timestamped
// diagnostic lines, truncated at the start of a run and flushed at a
// fixed interval rather than on every write.
package runlog

import (
	"bufio"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"asmtune/internal/errs"
)

// Logger wraps a zap.Logger writing UTC-timestamped JSON lines to a
// truncated file, flushed by a background ticker instead of per write
// so a long run doesn't pay an fsync per log call.
type Logger struct {
	*zap.Logger

	file   *os.File
	syncer *flushSyncer
	stop   chan struct{}
}

// flushSyncer adapts a bufio.Writer to zapcore.WriteSyncer, so Sync
// means "flush the buffer" rather than "fsync the file" — the logged
// lines are diagnostics, not a durability guarantee.
type flushSyncer struct {
	w *bufio.Writer
}

func (s *flushSyncer) Write(p []byte) (int, error) { return s.w.Write(p) }
func (s *flushSyncer) Sync() error                 { return s.w.Flush() }

// New opens (truncating) the log file at path and starts a background
// flush loop at the given interval. comment, if non-empty, is attached
// as a field on every subsequent log line (spec.md §6's logComment).
func New(path string, flushInterval time.Duration, comment string) (*Logger, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errs.Wrap(errs.BadConfig, "runlog: failed to create log file "+path, err)
	}
	sw := &flushSyncer{w: bufio.NewWriter(f)}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = utcISO8601

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(sw), zap.InfoLevel)
	base := zap.New(core)
	if comment != "" {
		base = base.With(zap.String("comment", comment))
	}

	l := &Logger{Logger: base, file: f, syncer: sw, stop: make(chan struct{})}
	if flushInterval <= 0 {
		flushInterval = 500 * time.Millisecond
	}
	go l.flushLoop(flushInterval)
	return l, nil
}

func (l *Logger) flushLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.syncer.Sync()
		case <-l.stop:
			return
		}
	}
}

// Close stops the flush loop, flushes any remaining buffered lines,
// and closes the underlying file.
func (l *Logger) Close() error {
	close(l.stop)
	if err := l.Logger.Sync(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}

func utcISO8601(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format("2006-01-02T15:04:05.000Z"))
}
