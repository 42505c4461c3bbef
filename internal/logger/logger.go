package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var Logger *log.Logger

// LogRetention is how long daily log files are kept
const LogRetention = 7 * 24 * time.Hour

var (
	outputMu sync.Mutex
	console  io.Writer = os.Stderr
	logFile  *dailyFile

	// now is the clock that picks the daily log file
	now = time.Now
)

func init() {
	Logger = log.New(os.Stderr)

	// Set log level from environment variable
	if err := SetLevel(os.Getenv("LOG_LEVEL")); err != nil {
		Logger.SetLevel(log.InfoLevel)
	}
}

// SetLevel sets the level by name. An empty name selects INFO.
func SetLevel(level string) error {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "":
		Logger.SetLevel(log.InfoLevel)
	case "DEBUG":
		Logger.SetLevel(log.DebugLevel)
	case "INFO":
		Logger.SetLevel(log.InfoLevel)
	case "WARN", "WARNING":
		Logger.SetLevel(log.WarnLevel)
	case "ERROR":
		Logger.SetLevel(log.ErrorLevel)
	case "FATAL":
		Logger.SetLevel(log.FatalLevel)
	default:
		return fmt.Errorf("unknown log level %q", level)
	}
	return nil
}

// SetConsole replaces the console writer. Pass io.Discard while a
// full-screen UI owns the terminal.
func SetConsole(w io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	console = w
	applyOutput()
}

// LogFileName returns the daily log file name for t
func LogFileName(t time.Time) string {
	return fmt.Sprintf("noreveal_%s.log", t.Format("20060102"))
}

// dailyFile appends to dir/noreveal_YYYYMMDD.log and moves on to the next
// day's file on the first write after midnight
type dailyFile struct {
	dir string

	mu   sync.Mutex
	name string
	f    *os.File
}

func openDailyFile(dir string) (*dailyFile, error) {
	d := &dailyFile{dir: dir}
	if err := d.open(now()); err != nil {
		return nil, err
	}
	return d, nil
}

// open must be called with d.mu held, or before d is shared
func (d *dailyFile) open(t time.Time) error {
	name := LogFileName(t)
	f, err := os.OpenFile(filepath.Join(d.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	if d.f != nil {
		_ = d.f.Close()
	}
	d.f, d.name = f, name
	return nil
}

func (d *dailyFile) path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return filepath.Join(d.dir, d.name)
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f == nil {
		return 0, os.ErrClosed
	}

	// Runs under the logger's own lock, so failures here cannot be logged.
	// A failed switch keeps writing to the previous file.
	t := now()
	if LogFileName(t) != d.name && d.open(t) == nil {
		_, _ = CleanupOldLogs(d.dir, t)
	}
	return d.f.Write(p)
}

func (d *dailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	return err
}

// SetupFileLogging appends to the current day's log file in dir in addition
// to the console, and removes files older than LogRetention. It returns the
// path of the file opened now; later days get their own file.
func SetupFileLogging(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := openDailyFile(dir)
	if err != nil {
		return "", err
	}
	path := f.path()

	outputMu.Lock()
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = f
	applyOutput()
	outputMu.Unlock()

	if removed, err := CleanupOldLogs(dir, now()); err != nil {
		Warnf("Log cleanup failed: %v", err)
	} else if removed > 0 {
		Debugf("Removed %d old log file(s)", removed)
	}
	return path, nil
}

// CloseFileLogging stops writing to the log file
func CloseFileLogging() error {
	outputMu.Lock()
	defer outputMu.Unlock()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	applyOutput()
	return err
}

// CleanupOldLogs deletes noreveal_*.log files in dir last modified more than
// LogRetention before now
func CleanupOldLogs(dir string, now time.Time) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "noreveal_*.log"))
	if err != nil {
		return 0, err
	}

	removed := 0
	cutoff := now.Add(-LogRetention)
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// applyOutput must be called with outputMu held
func applyOutput() {
	if logFile == nil {
		Logger.SetOutput(console)
		return
	}
	if console == io.Discard {
		Logger.SetOutput(logFile)
		return
	}
	Logger.SetOutput(io.MultiWriter(console, logFile))
}

// Convenience functions for common operations
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

func Fatal(msg interface{}, keyvals ...interface{}) {
	Logger.Fatal(msg, keyvals...)
}

func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
}

func Debugf(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Logger.Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	Logger.Fatalf(format, args...)
}
