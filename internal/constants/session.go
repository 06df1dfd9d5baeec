package constants

import "time"

// Session defaults (in seconds unless noted)
const (
	DefaultSessionTimeout = 28800 // 8 hours, OTRS SessionMaxTime default
	DefaultConnectTimeout = 60.0
	DefaultReadTimeout    = 60.0
	DefaultPriority       = 1
)

// DefaultSessionCacheDir holds one cache file per login.
const DefaultSessionCacheDir = "/tmp/.otrs-sessid"

// DefaultRedisKeyPrefix namespaces session records stored in Redis.
const DefaultRedisKeyPrefix = "otrs:session:"

// DefaultSessionTable is the table used by the SQL session store.
const DefaultSessionTable = "otrs_session_cache"

// GenericInterfacePath is appended to the base URL, followed by the
// webservice (interface) name.
const GenericInterfacePath = "/otrs/nph-genericinterface.pl/Webservice/"

// Seconds converts a float number of seconds to a duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
