package httpapi

import "time"

// maxUploadBytes controls the maximum allowed upload size.
// Default matches the historical 50 MiB document cap.
var maxUploadBytes int64 = 50 << 20

// SetMaxUploadBytes allows configuring the maximum upload size.
func SetMaxUploadBytes(n int64) {
	if n <= 0 {
		maxUploadBytes = 50 << 20
		return
	}
	maxUploadBytes = n
}

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
var maxBodyBytes int64 = 1 << 20

// heartbeatInterval is the idle keepalive period for event streams. Proxies
// and TVs with aggressive idle timeouts are the reason this exists.
var heartbeatInterval = 25 * time.Second

// SetHeartbeatInterval configures the SSE keepalive period.
func SetHeartbeatInterval(d time.Duration) {
	if d <= 0 {
		heartbeatInterval = 25 * time.Second
		return
	}
	heartbeatInterval = d
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
)

// SetCORSOptions configures CORS behavior for the HTTP server. Display
// clients hosted on other origins need this for the event stream. An empty
// origin list with CORS enabled allows any origin.
func SetCORSOptions(enabled bool, origins []string) {
	corsEnabled = enabled
	if enabled && len(origins) == 0 {
		origins = []string{"*"}
	}
	corsAllowedOrigins = append([]string(nil), origins...)
}
