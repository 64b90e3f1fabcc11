package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Poster is the subset of *fluent.Fluent used by FluentHandler.
type Poster interface {
	Post(tag string, message interface{}) error
}

// FluentHandler is a slog.Handler that ships records to Fluent Bit. The tag is
// the lower-case level name; the client adds its own tag prefix.
type FluentHandler struct {
	client Poster
	level  slog.Leveler
	fields map[string]interface{}
	group  string
}

func NewFluentHandler(client Poster, level slog.Leveler) *FluentHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &FluentHandler{
		client: client,
		level:  level,
		fields: map[string]interface{}{},
	}
}

func (h *FluentHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *FluentHandler) Handle(_ context.Context, r slog.Record) error {
	data := make(map[string]interface{}, len(h.fields)+r.NumAttrs()+3)
	for k, v := range h.fields {
		data[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		flatten(data, h.group, a)
		return true
	})

	level := strings.ToLower(r.Level.String())
	data["level"] = level
	data["message"] = r.Message
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	data["timestamp"] = ts.UTC().Format(time.RFC3339Nano)

	return h.client.Post(level, data)
}

func (h *FluentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	fields := make(map[string]interface{}, len(h.fields)+len(attrs))
	for k, v := range h.fields {
		fields[k] = v
	}
	for _, a := range attrs {
		flatten(fields, h.group, a)
	}
	return &FluentHandler{client: h.client, level: h.level, fields: fields, group: h.group}
}

func (h *FluentHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &FluentHandler{client: h.client, level: h.level, fields: h.fields, group: h.group + name + "."}
}

// flatten writes a into data with dotted keys for groups. Values are reduced to
// types the msgpack encoder understands.
func flatten(data map[string]interface{}, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	v := a.Value
	switch v.Kind() {
	case slog.KindGroup:
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range v.Group() {
			flatten(data, p, ga)
		}
	case slog.KindString:
		data[prefix+a.Key] = v.String()
	case slog.KindInt64:
		data[prefix+a.Key] = v.Int64()
	case slog.KindUint64:
		data[prefix+a.Key] = v.Uint64()
	case slog.KindFloat64:
		data[prefix+a.Key] = v.Float64()
	case slog.KindBool:
		data[prefix+a.Key] = v.Bool()
	case slog.KindDuration:
		data[prefix+a.Key] = v.Duration().String()
	case slog.KindTime:
		data[prefix+a.Key] = v.Time().UTC().Format(time.RFC3339Nano)
	default:
		if err, ok := v.Any().(error); ok {
			data[prefix+a.Key] = err.Error()
			return
		}
		data[prefix+a.Key] = fmt.Sprint(v.Any())
	}
}
