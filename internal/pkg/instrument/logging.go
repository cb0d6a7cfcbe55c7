package instrument

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const masked = "***"

func initLogging(serviceName string, lp *sdklog.LoggerProvider, maskFields []string) {
	slog.SetDefault(slog.New(newHandler(os.Stdout, serviceName, lp, maskFields)))
}

// newHandler writes JSON records to out and, when lp is set, mirrors them to
// the OpenTelemetry log pipeline. Every record is tagged with the service name
// and the correlation id from its context; masked keys never reach a sink.
func newHandler(out io.Writer, serviceName string, lp *sdklog.LoggerProvider, maskFields []string) slog.Handler {
	sinks := []slog.Handler{slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:       slog.LevelInfo,
		AddSource:   true,
		ReplaceAttr: renameAttr,
	})}
	if lp != nil {
		sinks = append(sinks, otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(lp)))
	}

	return &handler{sinks: sinks, service: serviceName, maskKeys: BuildMaskKeys(maskFields)}
}

// renameAttr shortens the built-in keys and trims source paths to the module's internal tree.
func renameAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}

	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		_, rel, found := strings.Cut(src.File, "/internal/")
		if !found {
			return slog.Attr{}
		}
		return slog.String("file", "internal/"+rel+":"+strconv.Itoa(src.Line))
	}
	return a
}

type handler struct {
	sinks    []slog.Handler
	service  string
	maskKeys map[string]struct{}
}

func (h *handler) Enabled(ctx context.Context, level slog.Level) bool {
	return lo.SomeBy(h.sinks, func(s slog.Handler) bool { return s.Enabled(ctx, level) })
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.mask(a))
		return true
	})
	if cid := GetCorrelationID(ctx); cid != "" {
		out.AddAttrs(slog.String("correlation_id", cid))
	}
	out.AddAttrs(slog.String("service", h.service))

	var errs []error
	for _, s := range h.sinks {
		if s.Enabled(ctx, r.Level) {
			errs = append(errs, s.Handle(ctx, out.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	attrs = lo.Map(attrs, func(a slog.Attr, _ int) slog.Attr { return h.mask(a) })
	return h.derive(func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) })
}

func (h *handler) WithGroup(name string) slog.Handler {
	return h.derive(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}

func (h *handler) derive(fn func(slog.Handler) slog.Handler) *handler {
	return &handler{
		sinks:    lo.Map(h.sinks, func(s slog.Handler, _ int) slog.Handler { return fn(s) }),
		service:  h.service,
		maskKeys: h.maskKeys,
	}
}

func (h *handler) mask(a slog.Attr) slog.Attr {
	if len(h.maskKeys) == 0 {
		return a
	}
	if _, hit := h.maskKeys[strings.ToLower(a.Key)]; hit {
		return slog.String(a.Key, masked)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(lo.Map(v.Group(), func(ga slog.Attr, _ int) slog.Attr {
			return h.mask(ga)
		})...)}
	case slog.KindString:
		if s, ok := h.maskJSON([]byte(v.String())); ok {
			return slog.String(a.Key, s)
		}
	case slog.KindAny:
		switch x := v.Any().(type) {
		case map[string]any, []any:
			return slog.Any(a.Key, MaskData(x, h.maskKeys))
		case map[string]string:
			return slog.Any(a.Key, MaskData(lo.MapValues(x, func(s, _ string) any { return s }), h.maskKeys))
		case []byte:
			if s, ok := h.maskJSON(x); ok {
				return slog.String(a.Key, s)
			}
		}
	}

	return slog.Attr{Key: a.Key, Value: v}
}

// maskJSON masks payload when it holds a JSON object or array.
func (h *handler) maskJSON(payload []byte) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}

	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return "", false
	}
	b, err := json.Marshal(MaskData(doc, h.maskKeys))
	if err != nil {
		return "", false
	}
	return string(b), true
}

// BuildMaskKeys normalizes field names into a lookup set used for masking.
func BuildMaskKeys(fields []string) map[string]struct{} {
	normalized := lo.Compact(lo.Map(fields, func(f string, _ int) string {
		return strings.TrimSpace(strings.ToLower(f))
	}))
	return lo.SliceToMap(normalized, func(f string) (string, struct{}) {
		return f, struct{}{}
	})
}

// MaskData returns a copy of a decoded JSON document with the values of masked keys replaced.
func MaskData(v any, maskKeys map[string]struct{}) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			if _, hit := maskKeys[strings.ToLower(k)]; hit {
				out[k] = masked
				continue
			}
			out[k] = MaskData(child, maskKeys)
		}
		return out
	case []any:
		return lo.Map(val, func(child any, _ int) any { return MaskData(child, maskKeys) })
	default:
		return v
	}
}
