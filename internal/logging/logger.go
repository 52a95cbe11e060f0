package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Logger is a leveled, structured logger. It is created once by the
// driver and passed to whatever needs it; there is no global instance.
type Logger struct {
	level Level
	sl    *slog.Logger
}

// New writes "LEVEL || message key=value ..." lines to w, dropping
// messages less severe than level.
func New(w io.Writer, level Level) *Logger {
	h := &lineHandler{
		mu:    &sync.Mutex{},
		w:     w,
		level: level,
		tags:  tagStyles(lipgloss.NewRenderer(w)),
	}
	return &Logger{level: level, sl: slog.New(h)}
}

// Discard returns a logger that prints nothing.
func Discard() *Logger {
	return New(io.Discard, LevelFatal-1)
}

func (l *Logger) Level() Level { return l.level }

func (l *Logger) Enabled(level Level) bool { return level <= l.level }

// Slog exposes the underlying *slog.Logger.
func (l *Logger) Slog() *slog.Logger { return l.sl }

// With returns a logger that adds args to every message.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{level: l.level, sl: l.sl.With(args...)}
}

func (l *Logger) Log(level Level, msg string, args ...any) {
	l.sl.Log(context.Background(), level.slogLevel(), msg, args...)
}

func (l *Logger) Fatal(msg string, args ...any)   { l.Log(LevelFatal, msg, args...) }
func (l *Logger) Error(msg string, args ...any)   { l.Log(LevelError, msg, args...) }
func (l *Logger) Warning(msg string, args ...any) { l.Log(LevelWarning, msg, args...) }
func (l *Logger) Info(msg string, args ...any)    { l.Log(LevelInfo, msg, args...) }
func (l *Logger) Debug(msg string, args ...any)   { l.Log(LevelDebug, msg, args...) }

func tagStyles(r *lipgloss.Renderer) map[Level]lipgloss.Style {
	base := r.NewStyle().Bold(true)
	return map[Level]lipgloss.Style{
		LevelFatal:   base.Foreground(lipgloss.Color("#ff4444")),
		LevelError:   base.Foreground(lipgloss.Color("#ff7744")),
		LevelWarning: base.Foreground(lipgloss.Color("#ffaa00")),
		LevelInfo:    base.Foreground(lipgloss.Color("#00ccff")),
		LevelDebug:   r.NewStyle().Foreground(lipgloss.Color("#666688")),
	}
}

type lineHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  Level
	tags   map[Level]lipgloss.Style
	attrs  []slog.Attr
	prefix string
}

func (h *lineHandler) Enabled(_ context.Context, l slog.Level) bool {
	return fromSlog(l) <= h.level
}

func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	lvl := fromSlog(r.Level)

	var b strings.Builder
	b.WriteString(h.tags[lvl].Render(lvl.String()))
	b.WriteString(" || ")
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		appendAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, h.prefix, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	nh.attrs = append(nh.attrs, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		nh.attrs = append(nh.attrs, a)
	}
	return &nh
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.prefix = h.prefix + name + "."
	return &nh
}

func appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			appendAttr(b, prefix+a.Key+".", ga)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(a.Value.String())
}
