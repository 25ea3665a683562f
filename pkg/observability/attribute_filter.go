package observability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// MaxAttributeLen caps exported string attribute values. Series names and
// labels come from user input and can be arbitrarily long.
const MaxAttributeLen = 128

// exportedNamespaces lists the attribute key namespaces that reach the exporter.
var exportedNamespaces = []string{
	"tsfold", "fold", "series", "model", "tree", "cut", "run",
	"mcp", "http", "url", "error",
}

// attributeFilter drops span attributes outside exportedNamespaces and
// truncates long string values before handing spans to the delegate.
type attributeFilter struct {
	delegate sdktrace.SpanProcessor
	logger   *slog.Logger
	warned   sync.Map
}

// NewAttributeFilter wraps delegate with the export allow-list. A non-nil
// logger receives one warning per dropped key.
func NewAttributeFilter(delegate sdktrace.SpanProcessor, logger *slog.Logger) sdktrace.SpanProcessor {
	return &attributeFilter{delegate: delegate, logger: logger}
}

func (f *attributeFilter) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	f.delegate.OnStart(parent, s)
}

func (f *attributeFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	f.delegate.OnEnd(&filteredSpan{ReadOnlySpan: s, attrs: f.filter(s.Attributes())})
}

func (f *attributeFilter) Shutdown(ctx context.Context) error {
	err := f.delegate.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("attribute filter shutdown: %w", err)
	}

	return nil
}

func (f *attributeFilter) ForceFlush(ctx context.Context) error {
	err := f.delegate.ForceFlush(ctx)
	if err != nil {
		return fmt.Errorf("attribute filter flush: %w", err)
	}

	return nil
}

func (f *attributeFilter) filter(in []attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(in))

	for _, kv := range in {
		key := string(kv.Key)

		if !exported(key) {
			f.warnOnce(key)

			continue
		}

		if kv.Value.Type() == attribute.STRING {
			kv.Value = attribute.StringValue(truncate(kv.Value.AsString(), MaxAttributeLen))
		}

		out = append(out, kv)
	}

	return out
}

// exported reports whether key is a namespace root or lies under one.
func exported(key string) bool {
	namespace, _, _ := strings.Cut(key, ".")

	for _, ns := range exportedNamespaces {
		if namespace == ns {
			return true
		}
	}

	return false
}

func (f *attributeFilter) warnOnce(key string) {
	if f.logger == nil {
		return
	}

	if _, seen := f.warned.LoadOrStore(key, struct{}{}); !seen {
		f.logger.Warn("span attribute dropped before export", "key", key)
	}
}

// truncate shortens s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut]
}

// filteredSpan is a read-only span view with a replaced attribute set.
type filteredSpan struct {
	sdktrace.ReadOnlySpan

	attrs []attribute.KeyValue
}

func (s *filteredSpan) Attributes() []attribute.KeyValue {
	return s.attrs
}
