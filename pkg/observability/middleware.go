package observability

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// HTTPMiddleware gives every request a server span named "METHOD /path",
// joined to any W3C trace context in its headers, and tracks it in red under
// the same name. Only 5xx responses count as errors; a rejected fold request
// is the client's failure and shows up solely in the status code attribute.
// A nil red records no metrics.
func HTTPMiddleware(tracer trace.Tracer, red *REDMetrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		op := r.Method + " " + r.URL.Path

		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		ctx, span := tracer.Start(ctx, op,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(semconv.HTTPRequestMethodKey.String(r.Method), semconv.URLPath(r.URL.Path)),
		)
		defer span.End()

		finish := red.Track(ctx, op)

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		span.SetAttributes(
			semconv.HTTPResponseStatusCode(rec.status),
			semconv.HTTPResponseBodySize(rec.bytes),
		)

		if rec.status < http.StatusInternalServerError {
			finish(StatusOK)

			return
		}

		span.SetStatus(codes.Error, http.StatusText(rec.status))
		finish(StatusError)
	})
}

// responseRecorder remembers the status code and body size of a response.
type responseRecorder struct {
	http.ResponseWriter

	status      int
	bytes       int
	wroteHeader bool
}

func (rr *responseRecorder) WriteHeader(code int) {
	if !rr.wroteHeader {
		rr.status = code
		rr.wroteHeader = true
	}

	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(buf []byte) (int, error) {
	rr.wroteHeader = true

	n, err := rr.ResponseWriter.Write(buf)
	rr.bytes += n

	return n, err //nolint:wrapcheck // io.Writer contract
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rr *responseRecorder) Unwrap() http.ResponseWriter {
	return rr.ResponseWriter
}
