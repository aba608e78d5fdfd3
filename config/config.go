package config

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/cppla/inkpost/calendar"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	DatabaseURI        string
	DBHost             string
	DBPort             string
	DBUser             string
	DBPassword         string
	DBName             string
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Registration throttling per client IP
	RegisterCooldownSec    int
	RegisterMaxPerIPPerDay int
	// Gin framework configuration
	GinMode string
	GinPath string
	// Redis for caching and the token blacklist
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Gamification
	CivilUTCOffset     string
	ChallengeMilestone int
	ChallengeSelection string
	ChallengeShuffle   bool
	LeaderboardSize    int
	MaxTxRetries       int
	// Cache
	CacheTTLSeconds         int
	CacheBreakerMaxFailures int
	CacheBreakerTimeoutSec  int
}

// ErrMissingJWTSecret is returned when no signing secret is configured.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set in environment variables")

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}
	c, err := LoadFrom(filepath.Join("config", "config.json"))
	if err != nil {
		log.Fatal(err)
	}
	cfg = c
	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// Set replaces the cached configuration. Used by tests and tools that build
// their own AppConfig.
func Set(c AppConfig) {
	cfg = c
	loaded = true
}

// LoadFrom builds a configuration without touching the cached copy.
// Precedence: JSON file -> defaults -> environment variable overrides.
func LoadFrom(path string) (AppConfig, error) {
	var c AppConfig
	if err := loadJSONConfig(path, &c); err != nil {
		return c, err
	}
	applyDefaults(&c)
	applyEnvOverrides(&c)

	if c.JWTSecret == "" {
		return c, ErrMissingJWTSecret
	}
	if _, err := c.CivilOffset(); err != nil {
		return c, err
	}
	return c, nil
}

// CivilOffset parses CivilUTCOffset; the civil day boundary is computed at this offset.
func (c AppConfig) CivilOffset() (time.Duration, error) {
	return calendar.ParseOffset(c.CivilUTCOffset)
}

// CacheTTL returns the default lifetime of cached views.
func (c AppConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getInt(m map[string]any, key string) int {
	if v, ok := m[key]; ok {
		switch t := v.(type) {
		case float64:
			return int(t)
		case int:
			return t
		case json.Number:
			i, _ := t.Int64()
			return int(i)
		}
	}
	return 0
}

func getBool(m map[string]any, key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

func getStringSlice(m map[string]any, key string) []string {
	if v, ok := m[key]; ok {
		if arr, ok := v.([]any); ok {
			res := make([]string, 0, len(arr))
			for _, it := range arr {
				if s, ok := it.(string); ok {
					res = append(res, s)
				}
			}
			return res
		}
	}
	return nil
}

// loadJSONConfig reads JSON file into out if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.JWTSecret = getString(app, "JWTSecret")
		if v := getInt(app, "RateLimitPerMinute"); v != 0 {
			out.RateLimitPerMinute = v
		}
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
		out.RegisterCooldownSec = getInt(app, "RegisterCooldownSec")
		out.RegisterMaxPerIPPerDay = getInt(app, "RegisterMaxPerIPPerDay")
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
		if v := getInt(dbs, "MaxTxRetries"); v != 0 {
			out.MaxTxRetries = v
		}
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.RedisHost = getString(rds, "RedisHost")
		if v := getInt(rds, "RedisPort"); v != 0 {
			out.RedisPort = v
		}
		if v := getInt(rds, "RedisDB"); v != 0 {
			out.RedisDB = v
		}
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		if v := getString(lg, "Level"); v != "" {
			out.LogLevel = v
		}
		if v := getString(lg, "Path"); v != "" {
			out.LogPath = v
		}
		// Gin settings under log
		if v := getString(lg, "GinMode"); v != "" {
			out.GinMode = v
		}
		if v := getString(lg, "GinPath"); v != "" {
			out.GinPath = v
		}
		if v := getInt(lg, "MaxSizeMB"); v != 0 {
			out.LogMaxSizeMB = v
		}
		if v := getInt(lg, "MaxBackups"); v != 0 {
			out.LogMaxBackups = v
		}
		if v := getInt(lg, "MaxAgeDays"); v != 0 {
			out.LogMaxAgeDays = v
		}
		out.LogCompress = getBool(lg, "Compress")
	}

	if gm, ok := raw["gamification"].(map[string]any); ok {
		out.CivilUTCOffset = getString(gm, "CivilUTCOffset")
		if v := getInt(gm, "ChallengeMilestone"); v != 0 {
			out.ChallengeMilestone = v
		}
		out.ChallengeSelection = getString(gm, "ChallengeSelection")
		out.ChallengeShuffle = getBool(gm, "ChallengeShuffle")
		if v := getInt(gm, "LeaderboardSize"); v != 0 {
			out.LeaderboardSize = v
		}
	}

	if ch, ok := raw["cache"].(map[string]any); ok {
		if v := getInt(ch, "TTLSeconds"); v != 0 {
			out.CacheTTLSeconds = v
		}
		if v := getInt(ch, "BreakerMaxFailures"); v != 0 {
			out.CacheBreakerMaxFailures = v
		}
		if v := getInt(ch, "BreakerTimeoutSec"); v != 0 {
			out.CacheBreakerTimeoutSec = v
		}
	}

	// flat keys for backward compatibility
	if out.AppPort == "" {
		out.AppPort = getString(raw, "AppPort")
	}
	if out.JWTSecret == "" {
		out.JWTSecret = getString(raw, "JWTSecret")
	}
	if out.DatabaseURI == "" {
		out.DatabaseURI = getString(raw, "DatabaseURI")
	}
	if out.CivilUTCOffset == "" {
		out.CivilUTCOffset = getString(raw, "CivilUTCOffset")
	}

	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if c.RegisterCooldownSec == 0 {
		c.RegisterCooldownSec = 10
	}
	if c.RegisterMaxPerIPPerDay == 0 {
		c.RegisterMaxPerIPPerDay = 5
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "inkpost"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.CivilUTCOffset == "" {
		c.CivilUTCOffset = "+05:30"
	}
	if c.ChallengeMilestone == 0 {
		c.ChallengeMilestone = 5
	}
	if c.ChallengeSelection == "" {
		c.ChallengeSelection = "random"
	}
	if c.LeaderboardSize == 0 {
		c.LeaderboardSize = 20
	}
	if c.MaxTxRetries == 0 {
		c.MaxTxRetries = 3
	}
	if c.CacheTTLSeconds == 0 {
		c.CacheTTLSeconds = 3600
	}
	if c.CacheBreakerMaxFailures == 0 {
		c.CacheBreakerMaxFailures = 5
	}
	if c.CacheBreakerTimeoutSec == 0 {
		c.CacheBreakerTimeoutSec = 30
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("JWT_SECRET", ""); v != "" {
		c.JWTSecret = v
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("DB_HOST", ""); v != "" {
		c.DBHost = v
	}
	if v := getEnv("DB_PORT", ""); v != "" {
		c.DBPort = v
	}
	if v := getEnv("DB_USER", ""); v != "" {
		c.DBUser = v
	}
	if v := getEnv("DB_PASSWORD", ""); v != "" {
		c.DBPassword = v
	}
	if v := getEnv("DB_NAME", ""); v != "" {
		c.DBName = v
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		c.RateLimitPerMinute = mustParseInt(v)
	}
	if v := getEnv("REGISTER_COOLDOWN_SEC", ""); v != "" {
		c.RegisterCooldownSec = mustParseInt(v)
	}
	if v := getEnv("REGISTER_MAX_PER_IP_PER_DAY", ""); v != "" {
		c.RegisterMaxPerIPPerDay = mustParseInt(v)
	}
	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = readListEnv("CORS_ALLOWED_ORIGINS", c.AllowedOrigins)
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		c.RedisPort = mustParseInt(v)
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		c.RedisDB = mustParseInt(v)
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	// Logging env overrides
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("LOG_MAX_SIZE_MB", ""); v != "" {
		c.LogMaxSizeMB = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_BACKUPS", ""); v != "" {
		c.LogMaxBackups = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_AGE_DAYS", ""); v != "" {
		c.LogMaxAgeDays = mustParseInt(v)
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "true"
	}
	// Gamification env overrides
	if v := getEnv("CIVIL_UTC_OFFSET", ""); v != "" {
		c.CivilUTCOffset = v
	}
	if v := getEnv("CHALLENGE_MILESTONE", ""); v != "" {
		c.ChallengeMilestone = mustParseInt(v)
	}
	if v := getEnv("CHALLENGE_SELECTION", ""); v != "" {
		c.ChallengeSelection = strings.ToLower(v)
	}
	if v := getEnv("CHALLENGE_SHUFFLE", ""); v != "" {
		c.ChallengeShuffle = v == "true"
	}
	if v := getEnv("LEADERBOARD_SIZE", ""); v != "" {
		c.LeaderboardSize = mustParseInt(v)
	}
	if v := getEnv("MAX_TX_RETRIES", ""); v != "" {
		c.MaxTxRetries = mustParseInt(v)
	}
	if v := getEnv("CACHE_TTL_SECONDS", ""); v != "" {
		c.CacheTTLSeconds = mustParseInt(v)
	}
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
