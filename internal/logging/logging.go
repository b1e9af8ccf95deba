package logging

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process logger. An empty File logs to stderr only.
type Options struct {
	Level      string // debug|info|warn|error
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

var (
	mu  sync.Mutex
	std = newLogger(os.Stderr, logrus.InfoLevel)
)

func newLogger(w io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

// InitFromEnv reads LOG_LEVEL (debug|info|warn|error) and the optional
// rotating file settings LOG_FILE, LOG_MAX_SIZE_MB and LOG_MAX_BACKUPS.
func InitFromEnv() {
	opts := Options{
		Level:      os.Getenv("LOG_LEVEL"),
		File:       os.Getenv("LOG_FILE"),
		MaxSizeMB:  envInt("LOG_MAX_SIZE_MB", 50),
		MaxBackups: envInt("LOG_MAX_BACKUPS", 5),
		MaxAgeDays: envInt("LOG_MAX_AGE_DAYS", 14),
		Compress:   true,
	}
	if err := Init(opts); err != nil {
		Errorf("[logging] file output disabled: %v", err)
	}
}

// Init replaces the process logger. Console output is always kept; the file
// writer is added only when it can be created.
func Init(opts Options) error {
	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil {
		level = logrus.InfoLevel
	}

	writers := []io.Writer{os.Stderr}
	var fileErr error
	if opts.File != "" {
		if fileErr = os.MkdirAll(filepath.Dir(opts.File), 0o755); fileErr == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    opts.MaxSizeMB,
				MaxBackups: opts.MaxBackups,
				MaxAge:     opts.MaxAgeDays,
				Compress:   opts.Compress,
			})
		}
	}

	mu.Lock()
	std = newLogger(io.MultiWriter(writers...), level)
	mu.Unlock()
	return fileErr
}

// SetOutput redirects the logger, keeping the current level.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	std = newLogger(w, std.GetLevel())
}

// SetLevel changes the minimum level without touching the output.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	std.SetLevel(lvl)
}

// Logger exposes the underlying logrus logger for structured fields.
func Logger() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	return std
}

func Debugf(format string, args ...interface{}) {
	Logger().Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	Logger().Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Logger().Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Logger().Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	Logger().Fatalf(format, args...)
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
