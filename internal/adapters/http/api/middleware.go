// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/examboard/pkg/metrics"
)

// Error severities recorded with every 4xx/5xx response.
const (
	severityLow    = "low"
	severityMedium = "medium"
	severityHigh   = "high"
)

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics.
// Error responses written through writeError are labelled with their API
// error code, so a 409 for a run still processing is told apart from one
// for a run that failed.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, float64(time.Since(start).Milliseconds()))

		if rec.status >= http.StatusBadRequest {
			kind, severity := classifyError(rec.status, rec.code)
			metrics.RecordHTTPError(endpoint, r.Method, kind, severity)
		}
	}
}

// classifyError picks the error_type and severity labels. The API error
// code wins over the status class when the handler supplied one.
func classifyError(status int, code string) (string, string) {
	switch code {
	case "run_pending":
		// clients poll results while a run is still queued or running
		return code, severityLow
	case "not_found", "unknown_view", "bad_request", "bad_format", "too_large", "unsupported_file":
		return code, severityLow
	case "run_failed", "backpressure":
		return code, severityMedium
	case "unavailable", "internal_error":
		return code, severityHigh
	}

	switch {
	case status >= http.StatusInternalServerError:
		return "server_error", severityHigh
	case status == http.StatusTooManyRequests:
		return "backpressure", severityMedium
	case status == http.StatusNotFound:
		return "not_found", severityLow
	case status == http.StatusConflict:
		return "conflict", severityMedium
	default:
		return "client_error", severityMedium
	}
}

// codeRecorder is implemented by writers that want the API error code.
type codeRecorder interface {
	recordErrorCode(code string)
}

// statusRecorder captures the status and error code of a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	code   string
}

func (rw *statusRecorder) recordErrorCode(code string) {
	rw.code = code
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}
