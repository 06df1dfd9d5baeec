// Package config loads otrsctl settings from a YAML file, OTRS_* environment
// variables and command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/goatkit/otrsclient/internal/constants"
	"github.com/goatkit/otrsclient/pkg/apierrors"
	"github.com/goatkit/otrsclient/pkg/connection"
)

// EnvPrefix prefixes every environment variable, e.g. OTRS_URL.
const EnvPrefix = "OTRS"

// Session backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendSQL   = "sql"
)

// Output formats.
const (
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Keys. Flags use the same names with dashes.
const (
	KeyURL              = "url"
	KeyLogin            = "login"
	KeyPassword         = "password"
	KeyInterface        = "interface"
	KeyWebserviceURL    = "webservice_url"
	KeySessionTimeout   = "session_timeout"
	KeyConnectTimeout   = "connect_timeout"
	KeyReadTimeout      = "read_timeout"
	KeyInsecure         = "insecure"
	KeyProxy            = "proxy"
	KeyPriority         = "priority"
	KeySessionBackend   = "session_backend"
	KeySessionCacheFile = "session_cache_file"
	KeySessionID        = "session_id"
	KeySessionCreatedAt = "session_created_at"
	KeyRedisAddr        = "redis_addr"
	KeyRedisPassword    = "redis_password"
	KeyRedisDB          = "redis_db"
	KeyRedisKeyPrefix   = "redis_key_prefix"
	KeySQLDriver        = "sql_driver"
	KeySQLDSN           = "sql_dsn"
	KeySQLTable         = "sql_table"
	KeyLogLevel         = "log_level"
	KeyLogFormat        = "log_format"
	KeyLogCredentials   = "log_credentials"
	KeyOutput           = "output"
)

// Settings is everything otrsctl needs.
type Settings struct {
	Connection connection.Config

	Backend string
	Redis   RedisSettings
	SQL     SQLSettings

	LogLevel  string
	LogFormat string
	Output    string
}

type RedisSettings struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type SQLSettings struct {
	Driver string
	DSN    string
	Table  string
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeySessionTimeout, "28800s")
	v.SetDefault(KeyConnectTimeout, "60s")
	v.SetDefault(KeyReadTimeout, "60s")
	v.SetDefault(KeyPriority, constants.DefaultPriority)
	v.SetDefault(KeySessionBackend, BackendFile)
	v.SetDefault(KeyRedisAddr, "localhost:6379")
	v.SetDefault(KeyRedisKeyPrefix, constants.DefaultRedisKeyPrefix)
	v.SetDefault(KeySQLDriver, "sqlite3")
	v.SetDefault(KeySQLTable, constants.DefaultSessionTable)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "auto")
	v.SetDefault(KeyOutput, OutputJSON)
	return v
}

// RegisterFlags declares the connection and backend flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(flagName(KeyURL), "", "OTRS base URL")
	fs.String(flagName(KeyLogin), "", "agent login")
	fs.String(flagName(KeyPassword), "", "agent password")
	fs.String(flagName(KeyInterface), "", "GenericInterface webservice name")
	fs.String(flagName(KeyWebserviceURL), "", "full webservice URL, overrides url and interface")
	fs.String(flagName(KeySessionTimeout), "", "session lifetime (e.g. 8h or seconds)")
	fs.String(flagName(KeyConnectTimeout), "", "connect timeout (e.g. 60s or seconds)")
	fs.String(flagName(KeyReadTimeout), "", "read timeout (e.g. 60s or seconds)")
	fs.Bool(flagName(KeyInsecure), false, "skip TLS certificate verification")
	fs.String(flagName(KeyProxy), "", "HTTP proxy URL")
	fs.Int(flagName(KeyPriority), 0, "connection priority (default 1)")
	fs.String(flagName(KeySessionID), "", "use this session id instead of creating one")
	fs.Int64(flagName(KeySessionCreatedAt), 0, "creation time of --session-id in unix seconds")
	fs.String(flagName(KeySessionBackend), "", "session cache backend: file, redis or sql")
	fs.String(flagName(KeySessionCacheFile), "", "session cache file for the file backend")
	fs.String(flagName(KeyRedisAddr), "", "redis address for the redis backend")
	fs.Int(flagName(KeyRedisDB), 0, "redis database number")
	fs.String(flagName(KeySQLDriver), "", "database driver for the sql backend: mysql, postgres or sqlite3")
	fs.String(flagName(KeySQLDSN), "", "database DSN for the sql backend")
	fs.String(flagName(KeySQLTable), "", "session table for the sql backend")
	fs.String(flagName(KeyLogLevel), "", "log level: debug, info, warn or error")
	fs.String(flagName(KeyLogFormat), "", "log format: auto, text or json")
	fs.Bool(flagName(KeyLogCredentials), false, "log session credentials in request logs")
	fs.StringP(flagName(KeyOutput), "o", "", "output format: json or yaml")
}

// BindFlags binds every flag of fs that names a known key. Flags the user
// did not set do not override file or environment values.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if !knownKey(key) {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}

// Load reads configFile when given and resolves the settings.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, apierrors.Wrap(apierrors.KindConfiguration, err, "read config %s", configFile)
		}
	}

	s := &Settings{
		Backend: strings.ToLower(v.GetString(KeySessionBackend)),
		Redis: RedisSettings{
			Addr:      v.GetString(KeyRedisAddr),
			Password:  v.GetString(KeyRedisPassword),
			DB:        v.GetInt(KeyRedisDB),
			KeyPrefix: v.GetString(KeyRedisKeyPrefix),
		},
		SQL: SQLSettings{
			Driver: v.GetString(KeySQLDriver),
			DSN:    v.GetString(KeySQLDSN),
			Table:  v.GetString(KeySQLTable),
		},
		LogLevel:  v.GetString(KeyLogLevel),
		LogFormat: v.GetString(KeyLogFormat),
		Output:    strings.ToLower(v.GetString(KeyOutput)),
	}

	var err error
	cfg := connection.Config{
		URL:                v.GetString(KeyURL),
		Login:              v.GetString(KeyLogin),
		Password:           v.GetString(KeyPassword),
		Interface:          v.GetString(KeyInterface),
		WebserviceURL:      v.GetString(KeyWebserviceURL),
		InsecureSkipVerify: v.GetBool(KeyInsecure),
		Proxy:              v.GetString(KeyProxy),
		Priority:           v.GetInt(KeyPriority),
		SessionCacheFile:   v.GetString(KeySessionCacheFile),
		SessionID:          v.GetString(KeySessionID),
		SessionCreatedAt:   v.GetInt64(KeySessionCreatedAt),
		LogCredentials:     v.GetBool(KeyLogCredentials),
	}
	if cfg.SessionTimeout, err = seconds(v, KeySessionTimeout); err != nil {
		return nil, err
	}
	if cfg.ConnectTimeout, err = seconds(v, KeyConnectTimeout); err != nil {
		return nil, err
	}
	if cfg.ReadTimeout, err = seconds(v, KeyReadTimeout); err != nil {
		return nil, err
	}
	s.Connection = cfg

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) validate() error {
	switch s.Backend {
	case BackendFile:
	case BackendRedis:
		if strings.TrimSpace(s.Redis.Addr) == "" {
			return apierrors.New(apierrors.KindConfiguration, "redis backend requires %s", KeyRedisAddr)
		}
	case BackendSQL:
		if strings.TrimSpace(s.SQL.DSN) == "" {
			return apierrors.New(apierrors.KindConfiguration, "sql backend requires %s", KeySQLDSN)
		}
	default:
		return apierrors.New(apierrors.KindConfiguration, "unknown session backend %q", s.Backend)
	}

	switch s.Output {
	case OutputJSON, OutputYAML:
	default:
		return apierrors.New(apierrors.KindConfiguration, "unknown output format %q", s.Output)
	}
	return nil
}

// seconds reads a duration written either as a Go duration ("90s") or as a
// number of seconds ("90", "0.5").
func seconds(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apierrors.New(apierrors.KindConfiguration, "%s: %q is neither a duration nor seconds", key, raw)
	}
	return constants.Seconds(f), nil
}

func flagName(key string) string { return strings.ReplaceAll(key, "_", "-") }

var keys = map[string]bool{
	KeyURL: true, KeyLogin: true, KeyPassword: true, KeyInterface: true,
	KeyWebserviceURL: true, KeySessionTimeout: true, KeyConnectTimeout: true,
	KeyReadTimeout: true, KeyInsecure: true, KeyProxy: true, KeyPriority: true,
	KeySessionBackend: true, KeySessionCacheFile: true, KeySessionID: true,
	KeySessionCreatedAt: true, KeyRedisAddr: true, KeyRedisPassword: true,
	KeyRedisDB: true, KeyRedisKeyPrefix: true, KeySQLDriver: true, KeySQLDSN: true,
	KeySQLTable: true, KeyLogLevel: true, KeyLogFormat: true,
	KeyLogCredentials: true, KeyOutput: true,
}

func knownKey(key string) bool { return keys[key] }

