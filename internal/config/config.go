package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is prepended to every configuration key read from the environment.
const EnvPrefix = "BOOKMARKD_"

// Backend names accepted by STORE_BACKEND.
const (
	BackendRedis     = "redis"
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout for non-streaming routes

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	StoreBackend string // "redis" | "firestore" | "memory"
	Collection   string // collection path holding the bookmarks

	ImportFile         string        // path to a homepage bookmarks.yaml (optional, empty = import disabled)
	ImportInterval     time.Duration // interval to re-run the import (default: 24h)
	StreamPingInterval time.Duration // websocket keepalive interval

	RateLimitBurst  int // write requests allowed in a burst per client IP
	RateLimitPerMin int // token refill per client IP per minute

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Firestore
	FirestoreProject         string // GCP project id
	FirestoreCredentialsFile string // optional service account JSON, default credentials otherwise

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

// Load reads .env (if present), the optional TOML file named by
// BOOKMARKD_CONFIG_FILE, then the environment. Environment values win.
// Invalid or missing required settings panic.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Sprintf("❌ FATAL: failed to read .env: %v", err))
	}

	src := source{}
	if path := os.Getenv(EnvPrefix + "CONFIG_FILE"); path != "" {
		file, err := readFile(path)
		if err != nil {
			panic(fmt.Sprintf("❌ FATAL: %v", err))
		}
		src.file = file
	}

	cfg := load(src)

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

func load(src source) *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      src.getenv("LISTEN_PORT", ":8080"),
		ShutdownTimeout: src.mustDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  src.mustDuration("REQUEST_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  src.getenv("LOG_LEVEL", "info"),
		PrettyLog: src.mustBool("PRETTY_LOG", true),

		// Store
		StoreBackend: strings.ToLower(src.getenv("STORE_BACKEND", BackendRedis)),
		Collection:   src.getenv("COLLECTION", "bookmarks"),

		// Import and streaming
		ImportFile:         src.getenv("IMPORT_FILE", ""), // Optional, empty = import disabled
		ImportInterval:     src.mustDuration("IMPORT_INTERVAL", 24*time.Hour),
		StreamPingInterval: src.mustDuration("STREAM_PING_INTERVAL", 30*time.Second),

		RateLimitBurst:  src.getenvInt("RATE_LIMIT_BURST", 20),
		RateLimitPerMin: src.getenvInt("RATE_LIMIT_PER_MIN", 60),

		// Redis settings
		RedisAddr:             src.getenv("REDIS_ADDR", ""),
		RedisUser:             src.getenv("REDIS_USERNAME", "default"),
		RedisPasswordRequired: src.mustBool("REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         src.getenv("REDIS_PASSWORD", ""),
		RedisDT:               src.mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               src.mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               src.mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          src.mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      src.mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         src.getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   src.mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    src.mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    src.getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Firestore settings
		FirestoreProject:         src.getenv("FIRESTORE_PROJECT", ""),
		FirestoreCredentialsFile: src.getenv("FIRESTORE_CREDENTIALS_FILE", ""),

		// Access restrictions
		AllowedHosts: splitAndTrim(src.getenv("ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(src.getenv("ALLOWED_CIDRS", "")),
		TrustProxy:   src.mustBool("TRUST_PROXY", true),
	}

	switch cfg.StoreBackend {
	case BackendRedis:
		cfg.RedisAddr = src.requireEnv("REDIS_ADDR")
		cfg.RedisDB = src.requireEnvInt("REDIS_DB")
		// Validate Redis password configuration
		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("❌ FATAL: BOOKMARKD_REDIS_PASSWORD is required when BOOKMARKD_REDIS_PASSWORD_REQUIRED=true")
		}
	case BackendFirestore:
		cfg.FirestoreProject = src.requireEnv("FIRESTORE_PROJECT")
	case BackendMemory:
	default:
		panic(fmt.Sprintf("❌ FATAL: Unknown store backend %q (want redis, firestore or memory)", cfg.StoreBackend))
	}

	return cfg
}

// source resolves a key from the environment first, then the config file.
type source struct {
	file map[string]string
}

func (s source) lookup(key string) (string, bool) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return v, true
	}
	if v := s.file[strings.ToLower(key)]; v != "" {
		return v, true
	}
	return "", false
}

// readFile flattens a TOML file into strings keyed like the environment
// names, lower cased and without prefix. Arrays become comma separated lists.
func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case []any:
			parts := make([]string, 0, len(t))
			for _, item := range t {
				parts = append(parts, fmt.Sprint(item))
			}
			values[strings.ToLower(k)] = strings.Join(parts, ",")
		case map[string]any:
			return nil, fmt.Errorf("config file %s: key %q: tables are not supported", path, k)
		default:
			values[strings.ToLower(k)] = fmt.Sprint(t)
		}
	}
	return values, nil
}

// helpers
func (s source) getenv(key, def string) string {
	if v, ok := s.lookup(key); ok {
		return v
	}
	return def
}

func (s source) requireEnv(key string) string {
	v, ok := s.lookup(key)
	if !ok {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s%s is not set", EnvPrefix, key))
	}
	return v
}

func (s source) requireEnvInt(key string) int {
	v := s.requireEnv(key)
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s%s: %s", EnvPrefix, key, v))
	}
	return i
}

func (s source) getenvInt(key string, def int) int {
	if v, ok := s.lookup(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func (s source) mustBool(key string, def bool) bool {
	if v, ok := s.lookup(key); ok {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func (s source) mustDuration(key string, def time.Duration) time.Duration {
	if v, ok := s.lookup(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
