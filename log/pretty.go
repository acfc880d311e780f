package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

//nolint:gochecknoglobals
var (
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	stringStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	numberStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	trueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	falseStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	msgStyle    = lipgloss.NewStyle().Bold(true)

	levelStyle = map[Level]lipgloss.Style{
		LevelTrace: lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
		LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
)

func styleLevel(l slog.Level) string {
	lv := Level(l)

	var key Level

	switch {
	case lv >= LevelError:
		key = LevelError
	case lv >= LevelWarn:
		key = LevelWarn
	case lv >= LevelInfo:
		key = LevelInfo
	case lv >= LevelDebug:
		key = LevelDebug
	default:
		key = LevelTrace
	}

	return levelStyle[key].Render(fmt.Sprintf("%-5s", strings.ToUpper(lv.String())))
}

// prettyTextHandler writes one colorized line per record:
//
//	3:04PM INFO  message key=value ...
type prettyTextHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr
	groups []string
}

func newPrettyTextHandler(w io.Writer, opts *slog.HandlerOptions) *prettyTextHandler {
	return &prettyTextHandler{opts: *opts, mu: &sync.Mutex{}, w: w}
}

func (h *prettyTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	if t := h.replace(slog.Time(slog.TimeKey, r.Time)); !r.Time.IsZero() && t.Key != "" {
		buf.WriteString(timeStyle.Render(t.Value.String()))
		buf.WriteByte(' ')
	}

	buf.WriteString(styleLevel(r.Level))
	buf.WriteByte(' ')

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			buf.WriteString(keyStyle.Render(fmt.Sprintf("%s:%d", src.File, src.Line)))
			buf.WriteByte(' ')
		}
	}

	buf.WriteString(msgStyle.Render(r.Message))

	prefix := strings.Join(h.groups, ".")

	for _, a := range h.attrs {
		h.writeAttr(&buf, "", a)
	}

	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&buf, prefix, a)

		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(c.attrs[:len(c.attrs):len(c.attrs)], attrs...)

	return &c
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.groups = append(c.groups[:len(c.groups):len(c.groups)], name)

	return &c
}

func (h *prettyTextHandler) replace(a slog.Attr) slog.Attr {
	if h.opts.ReplaceAttr == nil {
		return a
	}

	return h.opts.ReplaceAttr(nil, a)
}

func (h *prettyTextHandler) writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, g := range a.Value.Group() {
			h.writeAttr(buf, key, g)
		}

		return
	}

	buf.WriteByte(' ')
	buf.WriteString(keyStyle.Render(key + "="))
	buf.WriteString(renderValue(a.Value))
}

func renderValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindInt64:
		return numberStyle.Render(strconv.FormatInt(v.Int64(), 10))
	case slog.KindUint64:
		return numberStyle.Render(strconv.FormatUint(v.Uint64(), 10))
	case slog.KindFloat64:
		return numberStyle.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	case slog.KindBool:
		if v.Bool() {
			return trueStyle.Render("true")
		}

		return falseStyle.Render("false")
	case slog.KindDuration:
		return numberStyle.Render(v.Duration().String())
	case slog.KindTime:
		return timeStyle.Render(v.Time().String())
	default:
		s := v.String()
		if strings.ContainsAny(s, " \t\n\"") {
			s = strconv.Quote(s)
		}

		return stringStyle.Render(s)
	}
}

// prettyJSONHandler writes indented JSON objects.
type prettyJSONHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr
	groups []string
}

func newPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions) *prettyJSONHandler {
	return &prettyJSONHandler{opts: *opts, mu: &sync.Mutex{}, w: w}
}

func (h *prettyJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	obj := make(map[string]any)

	if !r.Time.IsZero() {
		t := slog.Time(slog.TimeKey, r.Time)
		if h.opts.ReplaceAttr != nil {
			t = h.opts.ReplaceAttr(nil, t)
		}

		if t.Key != "" {
			obj[t.Key] = t.Value.Any()
		}
	}

	obj[slog.LevelKey] = strings.ToUpper(Level(r.Level).String())
	obj[slog.MessageKey] = r.Message

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			obj[slog.SourceKey] = fmt.Sprintf("%s:%d", src.File, src.Line)
		}
	}

	for _, a := range h.attrs {
		putJSON(obj, a)
	}

	dst := obj
	for _, g := range h.groups {
		sub := make(map[string]any)
		dst[g] = sub
		dst = sub
	}

	r.Attrs(func(a slog.Attr) bool {
		putJSON(dst, a)

		return true
	})

	data, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err = h.w.Write(append(data, '\n'))

	return err
}

func (h *prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(c.attrs[:len(c.attrs):len(c.attrs)], attrs...)

	return &c
}

func (h *prettyJSONHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.groups = append(c.groups[:len(c.groups):len(c.groups)], name)

	return &c
}

func putJSON(obj map[string]any, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Key == "" && a.Value.Kind() != slog.KindGroup {
		return
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		sub := obj
		if a.Key != "" {
			sub = make(map[string]any)
			obj[a.Key] = sub
		}

		for _, g := range a.Value.Group() {
			putJSON(sub, g)
		}

	case slog.KindDuration:
		obj[a.Key] = a.Value.Duration().String()

	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			obj[a.Key] = err.Error()
		} else {
			obj[a.Key] = a.Value.Any()
		}

	default:
		obj[a.Key] = a.Value.Any()
	}
}
