package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Format represents the log output format
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// FileLoggerConfig holds configuration for file logging
type FileLoggerConfig struct {
	// Path is the log file path
	Path string
	// Format is the output format (json or text)
	Format Format
	// Level is the minimum log level
	Level Level
	// MaxSize is the maximum size in bytes before rotation (0 = no rotation)
	MaxSize int64
	// MaxBackups is the maximum number of backup files to keep
	MaxBackups int
}

// logSink is the destination shared by a logger and everything derived from it
type logSink struct {
	mu          sync.Mutex
	path        string
	file        *os.File
	writer      io.Writer
	currentSize int64
	maxSize     int64
	maxBackups  int
}

// FileLogger implements Logger interface with file output
type FileLogger struct {
	format Format
	level  Level
	out    *logSink
	fields Fields
}

// NewFileLogger creates a new file logger
func NewFileLogger(config FileLoggerConfig) (*FileLogger, error) {
	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(config.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	return &FileLogger{
		format: config.Format,
		level:  config.Level,
		out: &logSink{
			path:        config.Path,
			file:        file,
			writer:      file,
			currentSize: info.Size(),
			maxSize:     config.MaxSize,
			maxBackups:  config.MaxBackups,
		},
	}, nil
}

// NewWriterLogger creates a logger on an arbitrary writer, without rotation
func NewWriterLogger(w io.Writer, format Format, level Level) *FileLogger {
	return &FileLogger{
		format: format,
		level:  level,
		out:    &logSink{writer: w},
	}
}

// Debug logs a debug message
func (l *FileLogger) Debug(ctx context.Context, msg string, fields Fields) {
	if l.level <= DebugLevel {
		l.log(ctx, DebugLevel, msg, nil, fields)
	}
}

// Info logs an info message
func (l *FileLogger) Info(ctx context.Context, msg string, fields Fields) {
	if l.level <= InfoLevel {
		l.log(ctx, InfoLevel, msg, nil, fields)
	}
}

// Warn logs a warning message
func (l *FileLogger) Warn(ctx context.Context, msg string, fields Fields) {
	if l.level <= WarnLevel {
		l.log(ctx, WarnLevel, msg, nil, fields)
	}
}

// Error logs an error message
func (l *FileLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	if l.level <= ErrorLevel {
		l.log(ctx, ErrorLevel, msg, err, fields)
	}
}

// WithFields returns a logger with additional fields.
// The returned logger writes to the same destination.
func (l *FileLogger) WithFields(fields Fields) Logger {
	return &FileLogger{
		format: l.format,
		level:  l.level,
		out:    l.out,
		fields: mergeFields(l.fields, fields),
	}
}

// Close flushes and closes the logger
func (l *FileLogger) Close() error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	if l.out.file != nil {
		err := l.out.file.Close()
		l.out.file = nil
		l.out.writer = io.Discard
		return err
	}
	return nil
}

// log writes a log entry
func (l *FileLogger) log(ctx context.Context, level Level, msg string, err error, fields Fields) {
	allFields := mergeFields(l.fields, FieldsFromContext(ctx))
	allFields = mergeFields(allFields, fields)

	var line []byte
	var fmtErr error
	if l.format == FormatJSON {
		line, fmtErr = formatJSON(level, msg, err, allFields)
	} else {
		line = formatText(level, msg, err, allFields)
	}
	if fmtErr != nil {
		return
	}

	l.out.write(line)
}

func (s *logSink) write(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxSize > 0 && s.currentSize >= s.maxSize {
		s.rotate()
	}

	n, _ := s.writer.Write(line)
	s.currentSize += int64(n)
}

func mergeFields(base, extra Fields) Fields {
	merged := make(Fields, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// formatJSON formats a log entry as JSON
func formatJSON(level Level, msg string, err error, fields Fields) ([]byte, error) {
	entry := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"level":     levelString(level),
		"message":   msg,
	}

	if err != nil {
		entry["error"] = err.Error()
	}

	for k, v := range fields {
		entry[k] = v
	}

	data, jsonErr := json.Marshal(entry)
	if jsonErr != nil {
		return nil, jsonErr
	}

	return append(data, '\n'), nil
}

// formatText formats a log entry as plain text, fields in key order
func formatText(level Level, msg string, err error, fields Fields) []byte {
	var b strings.Builder
	b.WriteString(time.Now().UTC().Format("2006-01-02T15:04:05.000Z"))
	b.WriteString(" [")
	b.WriteString(levelString(level))
	b.WriteString("] ")
	b.WriteString(msg)

	if err != nil {
		fmt.Fprintf(&b, " error=%q", err.Error())
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}

	b.WriteByte('\n')
	return []byte(b.String())
}

// rotate rotates the log file
func (s *logSink) rotate() {
	if s.file == nil {
		return
	}

	s.file.Close()

	for i := s.maxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", s.path, i)
		newPath := fmt.Sprintf("%s.%d", s.path, i+1)
		os.Rename(oldPath, newPath)
	}

	os.Rename(s.path, s.path+".1")

	if s.maxBackups > 0 {
		oldestPath := fmt.Sprintf("%s.%d", s.path, s.maxBackups+1)
		os.Remove(oldestPath)
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		s.file = nil
		s.writer = io.Discard
		return
	}

	s.file = file
	s.writer = file
	s.currentSize = 0
}

// levelString returns the string representation of a log level
func levelString(level Level) string {
	switch level {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a log level string
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}
