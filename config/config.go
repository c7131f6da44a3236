package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"

	StorageCloudinary = "cloudinary"
	StorageGCS        = "gcs"
)

// Config holds application configuration loaded from environment variables
// Provide sane defaults for local development.
type Config struct {
	AppName string
	Env     string // development, production
	Port    string
	GinMode string

	// Database
	DBDriver           string // mongo or postgres
	DBConnectionString string
	DBName             string // mongo database
	DBMaxConns         int32
	DBMinConns         int32
	DBMaxConnLife      time.Duration
	MigrationsDir      string

	// Redis
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Object storage
	StorageProvider     string // cloudinary or gcs
	CloudinaryCloud     string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	GCSBucket           string
	GCSCredentialsJSON  string // optional; if empty, Application Default Credentials are used
	UploadTmpDir        string

	// JWT
	JWTSecret string

	// CORS
	ClientURL string // comma-separated

	// Proxies whose X-Forwarded-For is honoured for the client IP, comma-separated
	TrustedProxies string

	// Elasticsearch, disabled when no addresses are set
	ElasticsearchAddrs string // comma-separated
	ElasticsearchUser  string
	ElasticsearchPass  string
	ESUsersIndex       string

	LogFile string

	// Debug metrics (/api/debug/vars and /api/debug/metrics)
	DebugMetricsEnabled bool

	// HTTP access log toggle (Gin logger)
	HTTPLogEnabled bool
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getbool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid boolean for %s: %v, using default %v", key, err, def)
			return def
		}
		return b
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid int for %s: %v, using default %d", key, err, def)
			return def
		}
		return i
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using default %v", key, err, def)
			return def
		}
		return d
	}
	return def
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		AppName: getenv("APP_NAME", "user-account-api"),
		Env:     getenv("ENV", "development"),
		Port:    getenv("PORT", "3000"),
		GinMode: getenv("GIN_MODE", "release"),

		DBDriver:           strings.ToLower(getenv("DB_DRIVER", DriverMongo)),
		DBConnectionString: getenv("DB_CONNECTION_STRING", "mongodb://localhost:27017"),
		DBName:             getenv("DB_NAME", "user_accounts"),
		DBMaxConns:         int32(getint("DB_MAX_CONNS", 10)),
		DBMinConns:         int32(getint("DB_MIN_CONNS", 2)),
		DBMaxConnLife:      getdur("DB_MAX_CONN_LIFETIME", time.Hour),
		MigrationsDir:      getenv("MIGRATIONS_DIR", "db/migrations"),

		RedisHost:     getenv("REDIS_HOST", "localhost"),
		RedisPort:     getint("REDIS_PORT", 6379),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getint("REDIS_DB", 0),

		StorageProvider:     strings.ToLower(getenv("STORAGE_PROVIDER", StorageCloudinary)),
		CloudinaryCloud:     getenv("CLOUDINARY_CLOUD", ""),
		CloudinaryAPIKey:    getenv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getenv("CLOUDINARY_API_SECRET", ""),
		GCSBucket:           getenv("GCS_BUCKET", ""),
		GCSCredentialsJSON:  getenv("GCS_CREDENTIALS_JSON", ""),
		UploadTmpDir:        getenv("UPLOAD_TMP_DIR", ""),

		JWTSecret: getenv("JWT_SECRET", ""),

		ClientURL:      getenv("CLIENT_URL", "http://localhost:5173"),
		TrustedProxies: getenv("TRUSTED_PROXIES", ""),

		ElasticsearchAddrs: getenv("ELASTICSEARCH_ADDRS", ""),
		ElasticsearchUser:  getenv("ELASTICSEARCH_USERNAME", ""),
		ElasticsearchPass:  getenv("ELASTICSEARCH_PASSWORD", ""),
		ESUsersIndex:       getenv("ES_USERS_INDEX", "users"),

		LogFile: getenv("LOG_FILE", ""),

		DebugMetricsEnabled: getbool("DEBUG_METRICS_ENABLED", false),
		HTTPLogEnabled:      getbool("HTTP_LOG_ENABLED", false),
	}
}

// devJWTSecret signs tokens outside production when JWT_SECRET is unset.
const devJWTSecret = "dev-only-insecure-jwt-secret"

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" && c.IsProduction() {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	switch c.DBDriver {
	case DriverMongo, DriverPostgres:
	default:
		errs = append(errs, errors.New("DB_DRIVER must be mongo or postgres, got "+strconv.Quote(c.DBDriver)))
	}
	switch c.StorageProvider {
	case StorageCloudinary, StorageGCS:
	default:
		errs = append(errs, errors.New("STORAGE_PROVIDER must be cloudinary or gcs, got "+strconv.Quote(c.StorageProvider)))
	}
	if len(c.CORSOrigins()) == 0 {
		errs = append(errs, errors.New("CLIENT_URL must list at least one origin"))
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		errs = append(errs, errors.New("REDIS_PORT out of range"))
	}
	return errors.Join(errs...)
}

// TokenSecret returns JWT_SECRET, or a fixed development secret when unset.
// Validate guarantees it is set in production.
func (c *Config) TokenSecret() string {
	if c.JWTSecret != "" {
		return c.JWTSecret
	}
	return devJWTSecret
}

// CORSOrigins returns the allowed origins as slice
func (c *Config) CORSOrigins() []string {
	return splitList(c.ClientURL)
}

// TrustedProxyList returns the trusted proxies as slice, nil when none.
func (c *Config) TrustedProxyList() []string {
	if l := splitList(c.TrustedProxies); len(l) > 0 {
		return l
	}
	return nil
}

// ESAddrs returns Elasticsearch addresses as a slice
func (c *Config) ESAddrs() []string {
	return splitList(c.ElasticsearchAddrs)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			res = append(res, p)
		}
	}
	return res
}
