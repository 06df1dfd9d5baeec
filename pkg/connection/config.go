package connection

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goatkit/otrsclient/internal/constants"
	"github.com/goatkit/otrsclient/pkg/apierrors"
)

// Config holds the client construction arguments. Zero values select the
// defaults noted on each field.
type Config struct {
	// URL is the OTRS base URL, e.g. "https://helpdesk.example.com".
	URL string
	// Login and Password authenticate the agent.
	Login    string
	Password string
	// Interface is the GenericInterface webservice name.
	Interface string
	// WebserviceURL overrides the URL derived from URL and Interface.
	WebserviceURL string

	// SessionTimeout is the lifetime the service grants a session (default 8h).
	SessionTimeout time.Duration
	// ConnectTimeout bounds dialing and the TLS handshake (default 60s).
	ConnectTimeout time.Duration
	// ReadTimeout bounds the wait for response headers and is the minimum
	// remaining validity of a usable session (default 60s).
	ReadTimeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
	// Proxy is an optional proxy URL for outbound requests.
	Proxy string
	// Priority is an ordering hint for callers that hold several endpoints (default 1).
	Priority int

	// SessionCacheFile overrides the default cache file path.
	SessionCacheFile string
	// SessionID and SessionCreatedAt pre-seed the session (both required).
	SessionID        string
	SessionCreatedAt int64

	// LogCredentials includes the password and session id in request logs.
	LogCredentials bool
}

// Endpoint is the validated, immutable form of Config.
type Endpoint struct {
	baseURL        string
	iface          string
	serviceURL     string
	login          string
	password       string
	sessionTimeout time.Duration
	connectTimeout time.Duration
	readTimeout    time.Duration
	verifyTLS      bool
	proxy          string
	priority       int
	logCredentials bool
}

// NewEndpoint validates cfg, applies defaults and computes the service URL.
func NewEndpoint(cfg Config) (Endpoint, error) {
	e := Endpoint{
		baseURL:        strings.TrimSuffix(strings.TrimSpace(cfg.URL), "/"),
		iface:          strings.TrimSpace(cfg.Interface),
		login:          cfg.Login,
		password:       cfg.Password,
		sessionTimeout: cfg.SessionTimeout,
		connectTimeout: cfg.ConnectTimeout,
		readTimeout:    cfg.ReadTimeout,
		verifyTLS:      !cfg.InsecureSkipVerify,
		proxy:          strings.TrimSpace(cfg.Proxy),
		priority:       cfg.Priority,
		logCredentials: cfg.LogCredentials,
	}

	if e.sessionTimeout == 0 {
		e.sessionTimeout = constants.DefaultSessionTimeout * time.Second
	}
	if e.connectTimeout == 0 {
		e.connectTimeout = constants.Seconds(constants.DefaultConnectTimeout)
	}
	if e.readTimeout == 0 {
		e.readTimeout = constants.Seconds(constants.DefaultReadTimeout)
	}
	if e.priority == 0 {
		e.priority = constants.DefaultPriority
	}

	switch {
	case e.login == "":
		return Endpoint{}, configError("login is required")
	case e.password == "":
		return Endpoint{}, configError("password is required")
	case e.sessionTimeout < 0:
		return Endpoint{}, configError("session timeout %s must be positive", e.sessionTimeout)
	case e.connectTimeout < 0:
		return Endpoint{}, configError("connect timeout %s must be positive", e.connectTimeout)
	case e.readTimeout < 0:
		return Endpoint{}, configError("read timeout %s must be positive", e.readTimeout)
	case e.priority < 0:
		return Endpoint{}, configError("priority %d must be positive", e.priority)
	}

	if ws := strings.TrimSpace(cfg.WebserviceURL); ws != "" {
		e.serviceURL = ws
	} else {
		if e.baseURL == "" {
			return Endpoint{}, configError("url is required")
		}
		if e.iface == "" {
			return Endpoint{}, configError("interface is required")
		}
		e.serviceURL = e.baseURL + constants.GenericInterfacePath + url.PathEscape(e.iface) + "/"
	}
	if !strings.HasSuffix(e.serviceURL, "/") {
		e.serviceURL += "/"
	}

	u, err := url.Parse(e.serviceURL)
	if err != nil {
		return Endpoint{}, configError("invalid webservice url %q: %v", e.serviceURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Endpoint{}, configError("webservice url %q must use http or https", e.serviceURL)
	}
	if e.proxy != "" {
		if _, err := url.Parse(e.proxy); err != nil {
			return Endpoint{}, configError("invalid proxy url %q: %v", e.proxy, err)
		}
	}

	return e, nil
}

func configError(format string, args ...any) error {
	return apierrors.New(apierrors.KindConfiguration, format, args...)
}

// URL returns the base URL.
func (e Endpoint) URL() string { return e.baseURL }

// Interface returns the webservice name.
func (e Endpoint) Interface() string { return e.iface }

// ServiceURL returns the webservice root, always ending in "/".
func (e Endpoint) ServiceURL() string { return e.serviceURL }

// Login returns the agent login.
func (e Endpoint) Login() string { return e.login }

func (e Endpoint) SessionTimeout() time.Duration { return e.sessionTimeout }
func (e Endpoint) ConnectTimeout() time.Duration { return e.connectTimeout }
func (e Endpoint) ReadTimeout() time.Duration    { return e.readTimeout }

// VerifyTLS reports whether server certificates are verified.
func (e Endpoint) VerifyTLS() bool { return e.verifyTLS }

func (e Endpoint) Proxy() string { return e.proxy }
func (e Endpoint) Priority() int { return e.priority }

// LogCredentials reports whether credentials may appear in logs.
func (e Endpoint) LogCredentials() bool { return e.logCredentials }

func (e Endpoint) String() string {
	return fmt.Sprintf("%s (login=%s)", e.serviceURL, e.login)
}
