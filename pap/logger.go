package pap

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Logger receives printf-style protocol diagnostics.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Level is the lowest severity a FileLogger records.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// FileLogger appends timestamped lines to a log file. It records every
// level until SetLevel raises the threshold.
type FileLogger struct {
	mu    sync.Mutex
	out   io.Writer
	file  *os.File
	level Level
}

// NewFileLogger opens path for appending, creating it if needed.
func NewFileLogger(path string) (*FileLogger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &FileLogger{out: file, file: file, level: LevelDebug}, nil
}

// newStreamLogger logs to w, which the caller keeps ownership of.
func newStreamLogger(w io.Writer, level Level) *FileLogger {
	return &FileLogger{out: w, level: level}
}

// SetLevel drops lines below level from then on.
func (l *FileLogger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *FileLogger) record(level Level, format string, args []interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out == nil || level < l.level {
		return
	}
	fmt.Fprintf(l.out, "%s %-5s %s\n", time.Now().Format("2006-01-02T15:04:05.000"), level, fmt.Sprintf(format, args...))
}

func (l *FileLogger) Debug(format string, args ...interface{}) { l.record(LevelDebug, format, args) }
func (l *FileLogger) Info(format string, args ...interface{})  { l.record(LevelInfo, format, args) }
func (l *FileLogger) Error(format string, args ...interface{}) { l.record(LevelError, format, args) }

// Close closes the log file. Later calls to the logger are dropped.
func (l *FileLogger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = nil
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// NoopLogger discards everything.
type NoopLogger struct{}

func (NoopLogger) Debug(format string, args ...interface{}) {}
func (NoopLogger) Info(format string, args ...interface{})  {}
func (NoopLogger) Error(format string, args ...interface{}) {}

// sessionLog tags every line with a short session id so interleaved
// connections can be told apart in one log.
type sessionLog struct {
	id     string
	logger Logger
}

func (l sessionLog) tag(format string, args []interface{}) (string, []interface{}) {
	return "[%s] " + format, append([]interface{}{l.id}, args...)
}

func (l sessionLog) Debug(format string, args ...interface{}) {
	f, a := l.tag(format, args)
	l.logger.Debug(f, a...)
}

func (l sessionLog) Info(format string, args ...interface{}) {
	f, a := l.tag(format, args)
	l.logger.Info(f, a...)
}

func (l sessionLog) Error(format string, args ...interface{}) {
	f, a := l.tag(format, args)
	l.logger.Error(f, a...)
}

// trace wraps rw so the bytes crossing it are dumped at Debug level.
func (l sessionLog) trace(rw io.ReadWriter) io.ReadWriter {
	return &tracedStream{rw: rw, log: l}
}

type tracedStream struct {
	rw  io.ReadWriter
	log sessionLog
}

func (t *tracedStream) Read(p []byte) (int, error) {
	n, err := t.rw.Read(p)
	t.record("<-", p[:n], err)
	return n, err
}

func (t *tracedStream) Write(p []byte) (int, error) {
	n, err := t.rw.Write(p)
	t.record("->", p[:n], err)
	return n, err
}

func (t *tracedStream) record(dir string, data []byte, err error) {
	if len(data) > 0 {
		t.log.Debug("%s %d bytes %s", dir, len(data), hexPreview(data, 32))
	}
	if err != nil && err != io.EOF {
		t.log.Error("%s %v", dir, err)
	}
}

func hexPreview(b []byte, max int) string {
	if len(b) <= max {
		return fmt.Sprintf("% x", b)
	}
	return fmt.Sprintf("% x ..", b[:max])
}

// frameSummary describes a frame payload for OnEvent.
func frameSummary(direction string, payload []byte) string {
	msg := fmt.Sprintf("%s frame len=%d", direction, len(payload))
	if len(payload) == 0 {
		return msg + " (sentinel)"
	}
	if len(payload) > 128 {
		return msg + fmt.Sprintf(", data=%q...", payload[:128])
	}
	return msg + fmt.Sprintf(", data=%q", payload)
}
