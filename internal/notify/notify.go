// Package notify delivers user-facing notifications. Failures reach the
// user through a Notifier; the Gateway decorator in this package is how the
// API gateway's errors get there.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is one message shown to the user.
type Notification struct {
	Level   Level     `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Notifier shows notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Success builds a success notification.
func Success(title, message string) Notification {
	return Notification{Level: LevelSuccess, Title: title, Message: message, Time: time.Now()}
}

// Warning builds a warning notification.
func Warning(title, message string) Notification {
	return Notification{Level: LevelWarning, Title: title, Message: message, Time: time.Now()}
}

// Error builds an error notification.
func Error(title, message string) Notification {
	return Notification{Level: LevelError, Title: title, Message: message, Time: time.Now()}
}

// ============================================================
// Log
// ============================================================

// LogNotifier writes notifications to the developer log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) {
	fields := []zap.Field{
		zap.String("level", string(n.Level)),
		zap.String("title", n.Title),
		zap.String("message", n.Message),
	}
	if n.Level == LevelError {
		l.logger.Warn("notification", fields...)
		return
	}
	l.logger.Info("notification", fields...)
}

// ============================================================
// Feed
// ============================================================

// Feed keeps the most recent notifications in memory until drained.
// The console server exposes it at /notifications.
type Feed struct {
	mu    sync.Mutex
	items []Notification
	limit int
}

// NewFeed creates a Feed holding at most limit notifications.
func NewFeed(limit int) *Feed {
	if limit < 1 {
		limit = 1
	}
	return &Feed{limit: limit}
}

func (f *Feed) Notify(_ context.Context, n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) == f.limit {
		f.items = f.items[1:]
	}
	f.items = append(f.items, n)
}

// Drain returns and forgets the pending notifications, oldest first.
func (f *Feed) Drain() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.items
	f.items = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

// Len reports how many notifications are pending.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// ============================================================
// Terminal
// ============================================================

// Terminal prints notifications as coloured lines.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminal creates a Terminal writing to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

var levelColors = map[Level]*color.Color{
	LevelSuccess: color.New(color.FgGreen, color.Bold),
	LevelInfo:    color.New(color.FgCyan),
	LevelWarning: color.New(color.FgYellow),
	LevelError:   color.New(color.FgRed, color.Bold),
}

func (t *Terminal) Notify(_ context.Context, n Notification) {
	c, ok := levelColors[n.Level]
	if !ok {
		c = color.New(color.Reset)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	c.Fprintf(t.out, "%s: ", n.Title)
	fmt.Fprintln(t.out, n.Message)
}

// ============================================================
// Multi
// ============================================================

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, nt := range m {
		nt.Notify(ctx, n)
	}
}

// ============================================================
// Discard
// ============================================================

type discard struct{}

func (discard) Notify(context.Context, Notification) {}

// Discard drops every notification.
var Discard Notifier = discard{}
