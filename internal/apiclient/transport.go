package apiclient

import (
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// RequestIDHeader correlates client log lines with backend logs.
const RequestIDHeader = "X-Request-ID"

// loggingTransport tags each request with an id and logs its outcome.
type loggingTransport struct {
	next http.RoundTripper
	log  *zap.Logger
}

func (t loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	req = req.Clone(req.Context())
	if req.Header.Get(RequestIDHeader) == "" {
		if id, err := uuid.NewV4(); err == nil {
			req.Header.Set(RequestIDHeader, id.String())
		}
	}

	resp, err := t.next.RoundTrip(req)

	// no payloads, metadata only
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.String("request_id", req.Header.Get(RequestIDHeader)),
		zap.Duration("dur", time.Since(start)),
	}
	if err != nil {
		t.log.Warn("http", append(fields, zap.Error(err))...)
		return nil, err
	}
	t.log.Debug("http", append(fields, zap.Int("status", resp.StatusCode))...)
	return resp, nil
}
