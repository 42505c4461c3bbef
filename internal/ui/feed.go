package ui

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

// LogEntry represents a single log entry with timestamp and content
type LogEntry struct {
	Timestamp time.Time
	Level     string
	Message   string
}

// Message types for reactive updates
type (
	LogMsg    struct{ Entry LogEntry }
	StatusMsg struct{ Text string }
)

// levelNames maps the charmbracelet/log short level names
var levelNames = map[string]string{
	"DEBU": "DEBUG",
	"INFO": "INFO",
	"WARN": "WARN",
	"ERRO": "ERROR",
	"FATA": "FATAL",
}

// Feed forwards log output and engine status messages to a running program
// without blocking the writer. Entries are dropped when the buffer is full.
type Feed struct {
	ch   chan tea.Msg
	done chan struct{}
	once sync.Once
	now  func() time.Time
}

// NewFeed creates a feed buffering up to size messages
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 256
	}
	return &Feed{
		ch:   make(chan tea.Msg, size),
		done: make(chan struct{}),
		now:  time.Now,
	}
}

// Write implements io.Writer so the feed can be a logger console
func (f *Feed) Write(p []byte) (int, error) {
	for _, line := range strings.Split(string(p), "\n") {
		if entry, ok := f.parseLine(line); ok {
			f.push(LogMsg{Entry: entry})
		}
	}
	return len(p), nil
}

// Status queues an engine status message
func (f *Feed) Status(text string) {
	f.push(StatusMsg{Text: text})
}

func (f *Feed) push(msg tea.Msg) {
	select {
	case <-f.done:
		return
	default:
	}
	select {
	case f.ch <- msg:
	default:
	}
}

// Run delivers queued messages with send until Close is called
func (f *Feed) Run(send func(tea.Msg)) {
	for {
		select {
		case msg := <-f.ch:
			send(msg)
		case <-f.done:
			return
		}
	}
}

// Close stops Run. Later writes are discarded.
func (f *Feed) Close() {
	f.once.Do(func() { close(f.done) })
}

func (f *Feed) parseLine(line string) (LogEntry, bool) {
	line = strings.TrimSpace(ansi.Strip(line))
	if line == "" {
		return LogEntry{}, false
	}

	entry := LogEntry{Timestamp: f.now(), Message: line}
	head, rest, _ := strings.Cut(line, " ")
	if level, ok := levelNames[head]; ok {
		entry.Level = level
		entry.Message = strings.TrimSpace(rest)
	}
	return entry, true
}
