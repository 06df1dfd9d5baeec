// Package connection implements the request-dispatch protocol of the OTRS
// GenericInterface client: session acquisition, URL template expansion,
// transport, error envelope classification and the single retry after an
// authentication failure.
package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goatkit/otrsclient/pkg/apierrors"
	"github.com/goatkit/otrsclient/pkg/session"
)

const instrumentationName = "github.com/goatkit/otrsclient/pkg/connection"

// Request describes one GenericInterface operation.
type Request struct {
	// Method is GET, POST or PATCH.
	Method string
	// Template is the path below the service URL with {Name} placeholders,
	// e.g. "Ticket/{TicketID}?SessionID={SessionID}".
	Template string
	// Params supplies every placeholder except {SessionID}.
	Params map[string]string
	// Body is JSON-encoded for POST and PATCH.
	Body map[string]any
}

// Connection dispatches requests to one GenericInterface webservice.
type Connection struct {
	endpoint  Endpoint
	sessions  *session.Manager
	transport *restTransport
	logger    *slog.Logger
	metrics   *requestMetrics
	tracer    trace.Tracer

	store      session.Store
	httpClient *http.Client
	now        func() time.Time
	tp         trace.TracerProvider
}

// Option is a functional option for Connection.
type Option func(*Connection)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connection) {
		c.logger = logger
	}
}

// WithSessionStore replaces the default file-backed session store.
func WithSessionStore(store session.Store) Option {
	return func(c *Connection) {
		c.store = store
	}
}

// WithHTTPClient replaces the http.Client built from the endpoint timeouts.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Connection) {
		c.httpClient = hc
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider (default: global).
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Connection) {
		c.tp = tp
	}
}

// WithClock replaces time.Now for session freshness checks.
func WithClock(now func() time.Time) Option {
	return func(c *Connection) {
		c.now = now
	}
}

// New validates cfg and builds a Connection.
func New(cfg Config, opts ...Option) (*Connection, error) {
	endpoint, err := NewEndpoint(cfg)
	if err != nil {
		return nil, err
	}

	c := &Connection{
		endpoint: endpoint,
		logger:   slog.Default(),
		metrics:  globalRequestMetrics(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.tp == nil {
		c.tp = otel.GetTracerProvider()
	}
	c.tracer = c.tp.Tracer(instrumentationName)

	if c.store == nil {
		path := cfg.SessionCacheFile
		if path == "" {
			if strings.ContainsAny(endpoint.Login(), `/\`) || endpoint.Login() == ".." {
				return nil, configError("login %q cannot name a cache file; set SessionCacheFile", endpoint.Login())
			}
			path = session.DefaultCachePath(endpoint.Login())
		}
		c.store = session.NewFileStore(filepath.Clean(path))
	}

	c.sessions = session.NewManager(c.store,
		session.WithExpiry(endpoint.SessionTimeout()),
		session.WithReadTimeout(endpoint.ReadTimeout()),
		session.WithClock(c.now),
		session.WithLogger(c.logger),
		session.WithSession(cfg.SessionID, cfg.SessionCreatedAt),
	)
	c.transport = newRESTTransport(endpoint, c.httpClient, c.logger)
	return c, nil
}

// Endpoint returns the validated configuration.
func (c *Connection) Endpoint() Endpoint { return c.endpoint }

// Sessions returns the session manager.
func (c *Connection) Sessions() *session.Manager { return c.sessions }

// Send performs req and returns the success payload.
//
// If the service rejects the session (an error code containing "AuthFail"),
// the cached session is cleared and the request is repeated once with a new
// session. Every other error is returned as is.
func (c *Connection) Send(ctx context.Context, req Request) (map[string]any, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if !supportedMethod(method) {
		return nil, apierrors.New(apierrors.KindUnsupportedMethod, "HTTP method %q is not supported", req.Method)
	}
	if err := checkTemplate(req.Template, req.Params); err != nil {
		return nil, err
	}

	token, err := c.sessionToken(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := c.call(ctx, method, req, token)
	if !errors.Is(err, apierrors.ErrAuthenticationFailed) {
		return payload, err
	}

	c.logger.Warn("otrs session rejected, retrying with a new session", "method", method, "error", err)
	c.metrics.recordAuthRetry()
	if err := c.sessions.Clear(ctx); err != nil {
		return nil, err
	}

	token, err = c.sessionToken(ctx)
	if err != nil {
		return nil, err
	}
	return c.call(ctx, method, req, token)
}

// sessionToken returns the cached token or creates a session.
func (c *Connection) sessionToken(ctx context.Context) (string, error) {
	token, err := c.sessions.Token(ctx)
	if err != nil || token != "" {
		return token, err
	}
	return c.createSession(ctx)
}

func (c *Connection) createSession(ctx context.Context) (string, error) {
	body := map[string]any{
		"UserLogin": c.endpoint.Login(),
		"Password":  c.endpoint.password,
	}
	payload, err := c.do(ctx, MethodPost, c.endpoint.ServiceURL()+"Session", body)
	if err != nil {
		return "", err
	}

	if e := envelopeError(payload); e != nil {
		c.metrics.recordSessionRejected()
		return "", &apierrors.Error{
			Kind:    apierrors.KindAuthenticationFailed,
			Code:    e.Code,
			Message: "session not created: " + e.Message,
		}
	}

	id, _ := payload["SessionID"].(string)
	if id == "" {
		return "", apierrors.New(apierrors.KindProtocolError, "session not created: response has no SessionID")
	}
	c.metrics.recordSessionCreated()
	c.logger.Info("created otrs session", "login", c.endpoint.Login(), "session_id", c.redactToken(id))

	return c.sessions.SetToken(ctx, id)
}

// call runs template expansion, transport and envelope classification.
func (c *Connection) call(ctx context.Context, method string, req Request, token string) (map[string]any, error) {
	rawURL, err := expandTemplate(c.endpoint.ServiceURL()+req.Template, token, req.Params)
	if err != nil {
		return nil, err
	}

	payload, err := c.do(ctx, method, rawURL, req.Body)
	if err != nil {
		return nil, err
	}
	if e := envelopeError(payload); e != nil {
		return nil, e
	}
	return payload, nil
}

// do performs one HTTP exchange and decodes the envelope.
func (c *Connection) do(ctx context.Context, method, rawURL string, body map[string]any) (payload map[string]any, err error) {
	requestID := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, "otrs."+strings.ToLower(method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("otrs.request_id", requestID),
		))
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = string(apierrors.KindOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		c.metrics.recordRequest(method, outcome, time.Since(start))
		span.End()
	}()

	c.logger.Info("otrs request",
		"method", method,
		"url", c.redactURL(rawURL),
		"data", c.redactBody(body),
		"verify", c.endpoint.VerifyTLS(),
		"request_id", requestID)

	// ResponseHeaderTimeout does not cover the body, so the whole exchange
	// gets a deadline.
	attemptCtx, cancel := context.WithTimeout(ctx, c.endpoint.ConnectTimeout()+c.endpoint.ReadTimeout())
	defer cancel()
	resp, err := c.transport.Execute(attemptCtx, method, rawURL, body, requestID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apierrors.Error{
			Kind:       apierrors.KindBadResponse,
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
			Message:    fmt.Sprintf("unexpected status from %s", c.redactURL(rawURL)),
		}
	}
	return decodeEnvelope(resp.Body)
}

var sessionIDQuery = regexp.MustCompile(`(SessionID=)[^&]*`)

func (c *Connection) redactURL(rawURL string) string {
	if c.endpoint.LogCredentials() {
		return rawURL
	}
	return sessionIDQuery.ReplaceAllString(rawURL, "${1}***")
}

func (c *Connection) redactToken(token string) string {
	if c.endpoint.LogCredentials() {
		return token
	}
	return "***"
}

func (c *Connection) redactBody(body map[string]any) map[string]any {
	if body == nil || c.endpoint.LogCredentials() {
		return body
	}
	if _, ok := body["Password"]; !ok {
		return body
	}
	redacted := make(map[string]any, len(body))
	for k, v := range body {
		redacted[k] = v
	}
	redacted["Password"] = "***"
	return redacted
}
