package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/go-ports/stencil/internal/redaction"
)

var (
	tagVerbose = color.New(color.FgGreen)
	tagInfo    = color.New(color.FgHiGreen)
	tagWarn    = color.New(color.FgHiYellow, color.Bold)
	tagError   = color.New(color.FgHiRed, color.Bold)
)

// handler writes one "<tag>  <message> key=value ..." line per record, with
// credentials redacted.
type handler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

func newHandler(w io.Writer, level slog.Leveler) *handler {
	return &handler{mu: &sync.Mutex{}, w: w, level: level}
}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})

	tag, c := tagFor(r.Level)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, line := range strings.Split(redaction.Redact(b.String()), "\n") {
		if _, err := fmt.Fprintf(h.w, "%s  %s\n", c.Sprint(tag), line); err != nil {
			return err
		}
	}
	return nil
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		next.attrs = append(next.attrs, a)
	}
	return &next
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(b, prefix+a.Key+".", ga)
		}
		return
	}
	fmt.Fprintf(b, " %s%s=%v", prefix, a.Key, a.Value.Any())
}

func tagFor(level slog.Level) (string, *color.Color) {
	switch {
	case level < LevelInfo:
		return "verb", tagVerbose
	case level < LevelWarn:
		return "info", tagInfo
	case level < LevelError:
		return "WARN", tagWarn
	default:
		return "ERR!", tagError
	}
}
