package log

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// slogHandler forwards slog records from the camsim library packages to a go-logging logger.
type slogHandler struct {
	logger Logger
	attrs  []slog.Attr
	group  string
}

// NewSlogHandler returns a slog.Handler that writes through the given named logger.
// Install it with common.SetLogger(slog.New(log.NewSlogHandler(logger))).
func NewSlogHandler(logger Logger) slog.Handler {
	return &slogHandler{logger: logger}
}

func (h *slogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return IsEnabled(fromSlogLevel(level))
}

func (h *slogHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.WriteString(r.Message)
	write := func(a slog.Attr) {
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		fmt.Fprintf(&sb, " %s=%v", key, a.Value.Resolve())
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		write(a)
		return true
	})

	msg := sb.String()
	switch fromSlogLevel(r.Level) {
	case Debug:
		h.logger.Debug(msg)
	case Info:
		h.logger.Info(msg)
	case Warning:
		h.logger.Warning(msg)
	default:
		h.logger.Error(msg)
	}
	return nil
}

func (h *slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

func (h *slogHandler) WithGroup(name string) slog.Handler {
	next := *h
	if next.group != "" {
		name = next.group + "." + name
	}
	next.group = name
	return &next
}

func fromSlogLevel(level slog.Level) Level {
	switch {
	case level < slog.LevelInfo:
		return Debug
	case level < slog.LevelWarn:
		return Info
	case level < slog.LevelError:
		return Warning
	default:
		return Error
	}
}
