// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/TylerBrock/colorjson"
	"github.com/matt-FFFFFF/childproc/internal/color"
)

// TimeFormat is the timestamp layout used by PrettyHandler.
const TimeFormat = "[15:04:05.000]"

var (
	// ErrMarshalAttribute is returned when the record attributes cannot be rendered.
	ErrMarshalAttribute = errors.New("error when marshaling attribute")
	// ErrIoWrite is returned when the rendered line cannot be written.
	ErrIoWrite = errors.New("error when writing to output")
)

// PrettyHandler renders records as "time LEVEL: message {attrs}" lines.
//
// Attribute handling (groups, WithAttrs, ReplaceAttr) is delegated to an inner
// slog.JSONHandler writing into a scratch buffer; the resulting object is then
// re-encoded with colorjson.
type PrettyHandler struct {
	inner     slog.Handler
	replace   func([]string, slog.Attr) slog.Attr
	scratch   *bytes.Buffer
	mu        *sync.Mutex
	writer    io.Writer
	colour    bool
	showEmpty bool
}

// Option configures a PrettyHandler.
type Option func(h *PrettyHandler)

// WithDestinationWriter sets where rendered lines are written. The default is stderr.
func WithDestinationWriter(w io.Writer) Option {
	return func(h *PrettyHandler) {
		h.writer = w
	}
}

// WithColour forces coloured output.
func WithColour() Option {
	return func(h *PrettyHandler) {
		h.colour = true
	}
}

// WithAutoColour colours output when the color package is enabled.
func WithAutoColour() Option {
	return func(h *PrettyHandler) {
		h.colour = color.Enabled()
	}
}

// WithOutputEmptyAttrs renders "{}" for records without attributes.
func WithOutputEmptyAttrs() Option {
	return func(h *PrettyHandler) {
		h.showEmpty = true
	}
}

// NewPrettyHandler returns a handler honouring opts.Level, opts.AddSource and opts.ReplaceAttr.
func NewPrettyHandler(opts *slog.HandlerOptions, options ...Option) *PrettyHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}

	scratch := &bytes.Buffer{}
	h := &PrettyHandler{
		inner: slog.NewJSONHandler(scratch, &slog.HandlerOptions{
			Level:       opts.Level,
			AddSource:   opts.AddSource,
			ReplaceAttr: dropBuiltins(opts.ReplaceAttr),
		}),
		replace: opts.ReplaceAttr,
		scratch: scratch,
		mu:      &sync.Mutex{},
		writer:  os.Stderr,
	}

	for _, opt := range options {
		opt(h)
	}

	return h
}

// Enabled implements slog.Handler.
func (h *PrettyHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// WithAttrs implements slog.Handler.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.inner = h.inner.WithAttrs(attrs)

	return &c
}

// WithGroup implements slog.Handler.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.inner = h.inner.WithGroup(name)

	return &c
}

// Handle implements slog.Handler.
func (h *PrettyHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs, err := h.attrs(ctx, r)
	if err != nil {
		return err
	}

	var line strings.Builder

	if ts, ok := h.builtin(slog.TimeKey, slog.StringValue(r.Time.Format(TimeFormat))); ok {
		line.WriteString(h.paint(ts, color.FgWhite))
		line.WriteByte(' ')
	}

	if lvl, ok := h.builtin(slog.LevelKey, slog.AnyValue(r.Level)); ok {
		line.WriteString(h.paint(lvl+":", levelColour(r.Level)))
		line.WriteByte(' ')
	}

	if msg, ok := h.builtin(slog.MessageKey, slog.StringValue(r.Message)); ok {
		line.WriteString(h.paint(msg, color.FgHiWhite))
		line.WriteByte(' ')
	}

	if len(attrs) > 0 || h.showEmpty {
		f := colorjson.NewFormatter()
		f.Indent = 0
		f.DisabledColor = !h.colour

		b, err := f.Marshal(attrs)
		if err != nil {
			return errors.Join(ErrMarshalAttribute, err)
		}

		line.Write(b)
	}

	line.WriteByte('\n')

	if _, err := io.WriteString(h.writer, line.String()); err != nil {
		return errors.Join(ErrIoWrite, err)
	}

	return nil
}

// attrs runs the record through the inner JSON handler and decodes the result.
func (h *PrettyHandler) attrs(ctx context.Context, r slog.Record) (map[string]any, error) {
	h.mu.Lock()
	defer func() {
		h.scratch.Reset()
		h.mu.Unlock()
	}()

	if err := h.inner.Handle(ctx, r); err != nil {
		return nil, errors.Join(ErrMarshalAttribute, err)
	}

	var attrs map[string]any
	if err := json.Unmarshal(h.scratch.Bytes(), &attrs); err != nil {
		return nil, errors.Join(ErrMarshalAttribute, err)
	}

	return attrs, nil
}

// builtin applies ReplaceAttr to a time, level or message attribute.
// It reports false when ReplaceAttr removed the attribute.
func (h *PrettyHandler) builtin(key string, v slog.Value) (string, bool) {
	a := slog.Attr{Key: key, Value: v}
	if h.replace != nil {
		a = h.replace(nil, a)
	}

	if a.Equal(slog.Attr{}) {
		return "", false
	}

	return a.Value.String(), true
}

func (h *PrettyHandler) paint(s string, c color.Code) string {
	if !h.colour {
		return s
	}

	return color.Colorize(s, c)
}

func levelColour(l slog.Level) color.Code {
	switch {
	case l <= slog.LevelDebug:
		return color.FgWhite
	case l <= slog.LevelInfo:
		return color.FgCyan
	case l < slog.LevelWarn:
		return color.FgBlue
	case l < slog.LevelError:
		return color.FgYellow
	case l <= slog.LevelError+1:
		return color.FgRed
	default:
		return color.FgHiMagenta
	}
}

// dropBuiltins removes the attributes PrettyHandler renders itself.
func dropBuiltins(next func([]string, slog.Attr) slog.Attr) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) == 0 {
			switch a.Key {
			case slog.TimeKey, slog.LevelKey, slog.MessageKey:
				return slog.Attr{}
			}
		}

		if next == nil {
			return a
		}

		return next(groups, a)
	}
}
