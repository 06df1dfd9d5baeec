package connection

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/goatkit/otrsclient/pkg/apierrors"
)

// Supported HTTP methods. GenericInterface REST operations only map to these.
const (
	MethodGet   = http.MethodGet
	MethodPost  = http.MethodPost
	MethodPatch = http.MethodPatch
)

func supportedMethod(method string) bool {
	switch method {
	case MethodGet, MethodPost, MethodPatch:
		return true
	}
	return false
}

// restTransport performs GenericInterface HTTP calls.
type restTransport struct {
	client *resty.Client
}

// newRESTTransport builds the transport for e. A non-nil hc is used as is,
// otherwise an http.Client with the endpoint's timeouts and TLS settings.
func newRESTTransport(e Endpoint, hc *http.Client, logger *slog.Logger) *restTransport {
	if hc == nil {
		dialer := &net.Dialer{Timeout: e.ConnectTimeout()}
		hc = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           dialer.DialContext,
				TLSHandshakeTimeout:   e.ConnectTimeout(),
				ResponseHeaderTimeout: e.ReadTimeout(),
				TLSClientConfig:       &tls.Config{InsecureSkipVerify: !e.VerifyTLS()}, //nolint:gosec // opt-in via config
			},
		}
	}

	client := resty.NewWithClient(hc).
		SetLogger(restyLogger{logger}).
		SetHeader("Accept", "application/json")
	if e.Proxy() != "" {
		client.SetProxy(e.Proxy())
	}
	return &restTransport{client: client}
}

// response is the raw outcome of one call.
type response struct {
	StatusCode int
	Body       []byte
}

// Execute sends body as JSON for POST and PATCH; GET carries no body.
func (t *restTransport) Execute(ctx context.Context, method, rawURL string, body map[string]any, requestID string) (*response, error) {
	req := t.client.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", requestID)

	if method == MethodPost || method == MethodPatch {
		if body == nil {
			body = map[string]any{}
		}
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, apierrors.Wrap(apierrors.KindInvalidArgument, err, "failed to marshal request body")
		}
		req.SetHeader("Content-Type", "application/json").SetBody(payload)
	}

	resp, err := req.Execute(method, rawURL)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindTransport, err, "%s request failed", method)
	}

	return &response{StatusCode: resp.StatusCode(), Body: resp.Body()}, nil
}

// decodeEnvelope parses a 2xx body. Numbers are kept as json.Number so
// ticket and article ids survive unchanged.
func decodeEnvelope(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, &apierrors.Error{Kind: apierrors.KindProtocolError, Message: "response is not a JSON object", Body: truncate(body), Err: err}
	}
	if payload == nil {
		return nil, &apierrors.Error{Kind: apierrors.KindProtocolError, Message: "empty response envelope", Body: truncate(body)}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &apierrors.Error{Kind: apierrors.KindProtocolError, Message: "trailing data after response envelope", Body: truncate(body), Err: err}
	}
	return payload, nil
}

// envelopeError returns the classified error of an error envelope, or nil
// for a success payload. An empty Error member ("", false, 0, {} or [])
// counts as absent.
func envelopeError(payload map[string]any) *apierrors.Error {
	raw, ok := payload["Error"]
	if !ok || emptyMember(raw) {
		return nil
	}

	fields, ok := raw.(map[string]any)
	if !ok {
		return &apierrors.Error{Kind: apierrors.KindServiceError, Message: fmt.Sprint(raw), Envelope: payload}
	}
	code, _ := fields["ErrorCode"].(string)
	message, _ := fields["ErrorMessage"].(string)
	return apierrors.FromEnvelope(code, message, payload)
}

func emptyMember(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	case map[string]any:
		return len(x) == 0
	case []any:
		return len(x) == 0
	}
	return false
}

const maxBodyInError = 4096

func truncate(body []byte) string {
	if len(body) > maxBodyInError {
		return string(body[:maxBodyInError]) + "..."
	}
	return string(body)
}

// restyLogger routes resty's own diagnostics to slog.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error("resty: " + strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn("resty: " + strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug("resty: " + strings.TrimSpace(fmt.Sprintf(format, v...)))
}
