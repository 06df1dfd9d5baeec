package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goatkit/otrsclient/pkg/apierrors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "otrsctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	s, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, BackendFile, s.Backend)
	assert.Equal(t, OutputJSON, s.Output)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, "auto", s.LogFormat)
	assert.Equal(t, 8*time.Hour, s.Connection.SessionTimeout)
	assert.Equal(t, time.Minute, s.Connection.ConnectTimeout)
	assert.Equal(t, time.Minute, s.Connection.ReadTimeout)
	assert.Equal(t, 1, s.Connection.Priority)
	assert.Equal(t, "otrs:session:", s.Redis.KeyPrefix)
	assert.Equal(t, "otrs_session_cache", s.SQL.Table)
}

func TestLoad_FileEnvFlagPrecedence(t *testing.T) {
	path := writeConfig(t, `
url: https://file.example.com
login: file-agent
password: file-pass
interface: GenericTicketConnectorREST
read_timeout: 30
session_backend: redis
redis_addr: redis.internal:6379
`)
	t.Setenv("OTRS_LOGIN", "env-agent")
	t.Setenv("OTRS_CONNECT_TIMEOUT", "2.5")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--password=flag-pass", "--output=yaml"}))

	v := New()
	require.NoError(t, BindFlags(v, fs))
	s, err := Load(v, path)
	require.NoError(t, err)

	assert.Equal(t, "https://file.example.com", s.Connection.URL)
	assert.Equal(t, "env-agent", s.Connection.Login)
	assert.Equal(t, "flag-pass", s.Connection.Password)
	assert.Equal(t, "GenericTicketConnectorREST", s.Connection.Interface)
	assert.Equal(t, 30*time.Second, s.Connection.ReadTimeout)
	assert.Equal(t, 2500*time.Millisecond, s.Connection.ConnectTimeout)
	assert.Equal(t, BackendRedis, s.Backend)
	assert.Equal(t, "redis.internal:6379", s.Redis.Addr)
	assert.Equal(t, OutputYAML, s.Output)
	// unset flags keep the defaults
	assert.Equal(t, "info", s.LogLevel)
}

func TestLoad_SessionAndPriorityFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--priority=3", "--session-id=seeded", "--session-created-at=1700000000"}))

	v := New()
	require.NoError(t, BindFlags(v, fs))
	s, err := Load(v, "")
	require.NoError(t, err)

	assert.Equal(t, 3, s.Connection.Priority)
	assert.Equal(t, "seeded", s.Connection.SessionID)
	assert.Equal(t, int64(1700000000), s.Connection.SessionCreatedAt)

	fs = pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(nil))
	v = New()
	require.NoError(t, BindFlags(v, fs))
	s, err = Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Connection.Priority, "unset flag keeps the default")
	assert.Empty(t, s.Connection.SessionID)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown backend", env: map[string]string{"OTRS_SESSION_BACKEND": "etcd"}},
		{name: "sql without dsn", env: map[string]string{"OTRS_SESSION_BACKEND": "sql"}},
		{name: "redis without addr", env: map[string]string{"OTRS_SESSION_BACKEND": "redis", "OTRS_REDIS_ADDR": " "}},
		{name: "unknown output", env: map[string]string{"OTRS_OUTPUT": "xml"}},
		{name: "bad timeout", env: map[string]string{"OTRS_READ_TIMEOUT": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(New(), "")
			assert.ErrorIs(t, err, apierrors.ErrConfiguration)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, apierrors.ErrConfiguration)
}

func TestSeconds(t *testing.T) {
	v := New()
	cases := map[string]time.Duration{
		"90s":  90 * time.Second,
		"1h":   time.Hour,
		"90":   90 * time.Second,
		"0.25": 250 * time.Millisecond,
		"":     0,
	}
	for raw, want := range cases {
		v.Set("probe", raw)
		got, err := seconds(v, "probe")
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}
