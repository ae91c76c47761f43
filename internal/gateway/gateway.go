// Package gateway is the only path by which the client talks to the
// Banking Simulator API. Every call goes through Do, which attaches the
// session credentials, applies the circuit breaker and bulkhead, and turns
// every failure into a *domain.APIError.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/infra/observability"
	"github.com/boddenberg/banksim-client-go/internal/infra/resilience"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("gateway")

// DefaultBaseURL is where the simulator listens out of the box.
const DefaultBaseURL = "http://localhost:8080/bank-simulator/api"

// errServerStatus marks a 5xx answer inside the breaker so it counts as a failure.
var errServerStatus = errors.New("server returned 5xx")

// Sessions is the part of the session store the gateway needs.
type Sessions interface {
	Get() (*domain.Session, bool)
	Clear() error
}

// Gateway issues authenticated JSON calls against the remote API.
type Gateway struct {
	httpClient *http.Client
	baseURL    string
	sessions   Sessions
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	cfg        resilience.Config
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// New creates a Gateway. A nil cb gets the default breaker from NewBreaker.
func New(httpClient *http.Client, baseURL string, sessions Sessions, cb *gobreaker.CircuitBreaker, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *Gateway {
	if cb == nil {
		cb = NewBreaker()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Gateway{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		sessions:   sessions,
		cb:         cb,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger,
	}
}

// NewBreaker returns the circuit breaker used for API calls. Only transport
// failures and 5xx answers count against it; a 4xx is a healthy server
// saying no.
func NewBreaker() *gobreaker.CircuitBreaker {
	return resilience.NewCircuitBreaker("banksim-api", func(err error) bool {
		return err == nil
	})
}

// BaseURL returns the API root the gateway is pointed at.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// Do sends method+path with body encoded as JSON (nil for none). It returns
// the response for 2xx answers and for statuses declared with Expect;
// anything else is a *domain.APIError.
//
// A 401 on a credentialed call ends the current session before returning.
func (g *Gateway) Do(ctx context.Context, method, path string, body any, opts ...CallOption) (*Response, error) {
	o := ResolveOptions(opts)
	op := o.Operation
	if op == "" {
		op = method + " " + path
	}

	ctx, span := tracer.Start(ctx, "Gateway.Do")
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("banksim.path", path),
		attribute.String("banksim.operation", op),
	)

	start := time.Now()
	resp, err := g.do(ctx, method, path, body, o)
	g.metrics.RecordCallDuration(op, time.Since(start))

	if err != nil {
		var apiErr *domain.APIError
		if errors.As(err, &apiErr) {
			g.metrics.IncrGatewayError(apiErr.Kind)
			span.SetAttributes(attribute.String("banksim.error_kind", string(apiErr.Kind)))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Warn("api call failed",
			zap.String("operation", op),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	g.logger.Debug("api call",
		zap.String("operation", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

func (g *Gateway) do(ctx context.Context, method, path string, body any, o CallOptions) (*Response, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, unexpected(method, path, fmt.Errorf("encode body: %w", err))
		}
	}

	var token string
	if sess, ok := g.sessions.Get(); ok {
		token = sess.Token
	}

	if err := g.bulkhead.Acquire(ctx); err != nil {
		return nil, unreachable(method, path, err)
	}
	defer g.bulkhead.Release()

	var raw *Response
	_, err := g.cb.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		if payload == nil {
			req.Body = http.NoBody
		} else {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", uuid.NewString())
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

		httpResp, err := g.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, err
		}
		raw = &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: data}
		if httpResp.StatusCode >= 500 {
			return nil, errServerStatus
		}
		return nil, nil
	})

	if raw == nil {
		if err == nil {
			err = errors.New("no response")
		}
		return nil, unreachable(method, path, err)
	}

	if raw.OK() || o.Expects(raw.StatusCode) {
		return raw, nil
	}

	apiErr := classifyStatus(method, path, raw.StatusCode, raw.Body)
	if raw.StatusCode == http.StatusUnauthorized && !o.KeepSession {
		g.resetSession()
	}
	return nil, apiErr
}

func (g *Gateway) resetSession() {
	if _, ok := g.sessions.Get(); !ok {
		return
	}
	if err := g.sessions.Clear(); err != nil {
		g.logger.Error("failed to clear session after 401", zap.Error(err))
		return
	}
	g.metrics.IncrSessionReset()
	g.logger.Info("session cleared: token rejected by API")
}
