package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/time/rate"

	"github.com/V4T54L/restnav/internal/domain"
)

// maxBodySize caps how much of a response is read into the log.
const maxBodySize = 32 << 20

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTPTransport sends requests with net/http, paced by a token bucket.
// Each Send runs on its own goroutine and reports through the callback.
type HTTPTransport struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewHTTPTransport creates a transport. A non-positive rps disables pacing.
func NewHTTPTransport(client *http.Client, rps float64, burst int, logger *slog.Logger) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst <= 0 {
		burst = 1
	}
	return &HTTPTransport{
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.With("component", "http_transport"),
	}
}

func (t *HTTPTransport) Send(ctx context.Context, req domain.Request, done func(*domain.Response, error)) {
	go func() {
		resp, err := t.do(ctx, req)
		done(resp, err)
	}()
}

func (t *HTTPTransport) do(ctx context.Context, req domain.Request) (*domain.Response, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if req.Accept != "" {
		httpReq.Header.Set("Accept", req.Accept)
	}
	if req.Body != "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	t.logger.Debug("sending request", "method", req.Method, "url", req.URL)
	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(httpResp.Body, maxBodySize)); err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: httpResp.StatusCode, Body: truncate(buf.String(), 256)}
	}

	return &domain.Response{
		StatusCode:  httpResp.StatusCode,
		ContentType: httpResp.Header.Get("Content-Type"),
		Body:        buf.Bytes(),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ domain.Transport = (*HTTPTransport)(nil)
