// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, database and table names, the disaster vocabularies, report time
// windows, caching, image uploads, notifications, auth and observability.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/petabencana/sitioss-server/internal/sysutil"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
	ExposeHeaders  []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN         string
	Environment string
}

// DBConfig selects and addresses the store.
type DBConfig struct {
	Driver      string        // postgres|sqlite
	URL         string        // DATABASE_URL; built from PG* when empty
	Path        string        // DB_PATH for sqlite
	Timeout     time.Duration // PGTIMEOUT, bounds every store call
	AutoMigrate bool
}

// TablesConfig carries the (schema-qualified) table names.
type TablesConfig struct {
	Cards        string
	Log          string
	Reports      string
	RemStatus    string
	RemStatusLog string
	LocalAreas   string
	AllReports   string
	PointsLog    string
	Partners     string
	Idempotency  string
}

// ReportsConfig holds the aggregation windows and limits.
type ReportsConfig struct {
	Windows   map[string]time.Duration // disaster_type -> W
	WindowMax time.Duration            // API_REPORTS_TIME_WINDOW_MAX
	Limit     int                      // API_REPORTS_LIMIT, 0 = unlimited
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	Enabled      bool
	Cards        time.Duration
	Floods       time.Duration
	FloodsStates time.Duration
}

// ImagesConfig addresses the upload bucket.
type ImagesConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Endpoint        string // S3-compatible endpoint override, e.g. MinIO
	Host            string
	UploadExpiry    time.Duration
	MimeTypes       []string
}

// NotifyConfig addresses the notification service and sizes its workers.
type NotifyConfig struct {
	Endpoint string
	APIKey   string
	Workers  int
	Queue    int
	Timeout  time.Duration
}

// AuthConfig verifies bearer tokens on protected writes. An empty Secret
// disables verification.
type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test
	BodyLimit         int64  // bytes
	Compress          bool

	// Logging / Docs
	LogLevel       string
	LogPretty      bool
	SwaggerEnabled bool
	APIBasePath    string

	DB     DBConfig
	Tables TablesConfig

	// Vocabularies
	DisasterTypes    []string
	ReportTypes      []string
	DamageComponents []string
	RegionCodes      []string

	Reports ReportsConfig
	Cache   CacheConfig
	Images  ImagesConfig
	Notify  NotifyConfig
	Auth    AuthConfig

	// Rate limiting
	RateRPS   float64
	RateBurst int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	IdempotencyTTL time.Duration

	// Observability
	OTEL   OTELConfig
	Sentry SentryConfig
}

const defaultRegionCodes = "ID-BA,ID-NB,ID-BT,ID-JT,ID-JB,ID-KT,ID-KS,ID-KB,ID-ST,ID-GO,ID-SA,ID-SN,ID-SG,ID-SR,ID-AC,ID-BE,ID-JA,ID-LA,ID-RI,ID-SB,ID-SS,ID-SU,ID-NT,ID-MA,ID-MU,ID-JI,ID-BB,ID-KR,ID-PA,ID-PB,ID-KI,ID-KU,ID-YO,ID-JK," +
	"PH-QC,PH-PG,PH-01,PH-02,PH-03,PH-04,PH-05,PH-06,PH-07,PH-08,PH-09,PH-10,PH-11,PH-12,PH-13,PH-14,PH-15,PH-16,PH-40,PH-41,PH-00"

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "8001"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),
		BodyLimit:         int64(getint("BODY_LIMIT", 100*1024)),
		Compress:          getbool("COMPRESS", false),

		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/")),

		DB: DBConfig{
			Driver:      strings.ToLower(getenv("DB_DRIVER", "postgres")),
			URL:         getenv("DATABASE_URL", ""),
			Path:        getenv("DB_PATH", "sitioss.db"),
			Timeout:     getmillis("PGTIMEOUT", 10*time.Second),
			AutoMigrate: getbool("AUTO_MIGRATE", false),
		},
		Tables: TablesConfig{
			Cards:        getenv("TABLE_GRASP_CARDS", "grasp.cards"),
			Log:          getenv("TABLE_GRASP_LOG", "grasp.log"),
			Reports:      getenv("TABLE_GRASP_REPORTS", "grasp.reports"),
			RemStatus:    getenv("TABLE_REM_STATUS", "cognicity.rem_status"),
			RemStatusLog: getenv("TABLE_REM_STATUS_LOG", "cognicity.rem_status_log"),
			LocalAreas:   getenv("TABLE_LOCAL_AREAS", "cognicity.local_areas"),
			AllReports:   getenv("TABLE_REPORTS", "cognicity.all_reports"),
			PointsLog:    getenv("TABLE_REPORTS_POINTS_LOG", "cognicity.reports_points_log"),
			Partners:     getenv("TABLE_COGNICITY_PARTNERS", "cognicity.partners"),
			Idempotency:  getenv("TABLE_GRASP_IDEMPOTENCY", "grasp.idempotency_keys"),
		},

		DisasterTypes:    splitCSV(getenv("DISASTER_TYPES", "flood,earthquake,prep,assessment,fire,haze,volcano,wind")),
		ReportTypes:      splitCSV(getenv("REPORT_TYPES", "drain,damage,power,treeclearing,flood,assessment,earthquake,road,structure,fire,wind,volcano,haze")),
		DamageComponents: splitCSV(getenv("DAMAGE_COMPONENT", "roof,walls,plinth,nonstructural")),
		RegionCodes:      splitCSV(getenv("REGION_CODES", defaultRegionCodes)),

		Reports: ReportsConfig{
			Windows: map[string]time.Duration{
				"flood":      getseconds("FLOOD_REPORTS_TIME_WINDOW", 10800*time.Second),
				"earthquake": getseconds("EQ_REPORTS_TIME_WINDOW", 43200*time.Second),
				"wind":       getseconds("WIND_REPORTS_TIME_WINDOW", 7200*time.Second),
				"haze":       getseconds("HAZE_REPORTS_TIME_WINDOW", 21600*time.Second),
				"volcano":    getseconds("VOLCANO_REPORTS_TIME_WINDOW", 43200*time.Second),
				"fire":       getseconds("FIRE_REPORTS_TIME_WINDOW", 21600*time.Second),
			},
			WindowMax: getseconds("API_REPORTS_TIME_WINDOW_MAX", 18748800*time.Second),
			Limit:     getint("API_REPORTS_LIMIT", 0),
		},
		Cache: CacheConfig{
			Enabled:      getbool("CACHE", false),
			Cards:        getdur("CACHE_DURATION_CARDS", time.Minute),
			Floods:       getdur("CACHE_DURATION_FLOODS", time.Hour),
			FloodsStates: getdur("CACHE_DURATION_FLOODS_STATES", time.Hour),
		},
		Images: ImagesConfig{
			Region:          getenv("AWS_REGION", "ap-southeast-1"),
			AccessKeyID:     getenv("AWS_S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getenv("AWS_S3_SECRET_ACCESS_KEY", ""),
			Bucket:          getenv("IMAGES_BUCKET", "petabencana-image-uploads"),
			Endpoint:        getenv("AWS_S3_ENDPOINT", ""),
			Host:            getenv("IMAGES_HOST", "images.petabencana.id"),
			UploadExpiry:    getdur("IMAGE_UPLOAD_EXPIRY", time.Minute),
			MimeTypes:       splitCSV(getenv("IMAGE_MIME_TYPES", "image/png,image/jpeg,image/gif")),
		},
		Notify: NotifyConfig{
			Endpoint: getenv("NOTIFY_ENDPOINT", "https://api.petabencana.id/notify"),
			APIKey:   getenv("NOTIFY_API_KEY", ""),
			Workers:  getint("NOTIFY_WORKERS", 2),
			Queue:    getint("NOTIFY_QUEUE", 256),
			Timeout:  getdur("NOTIFY_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			Secret:   getenv("AUTH_SECRET", ""),
			Issuer:   getenv("AUTH_ISSUER", ""),
			Audience: getenv("AUTH_AUDIENCE", ""),
		},

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
			ExposeHeaders:  splitCSV(getenv("CORS_HEADERS", "Link")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "sitioss-server"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
		Sentry: SentryConfig{
			DSN:         getenv("SENTRY_DSN", ""),
			Environment: getenv("SENTRY_ENVIRONMENT", "development"),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DB.Driver == "postgres" && cfg.DB.URL == "" {
		cfg.DB.URL = postgresURL()
	}

	// --- validation ---
	if _, err := sysutil.ParseLevel(cfg.LogLevel); err != nil {
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.BodyLimit <= 0 {
		return cfg, errors.New("BODY_LIMIT must be > 0")
	}
	switch cfg.DB.Driver {
	case "postgres":
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: postgres, sqlite")
	}
	if cfg.DB.Timeout <= 0 {
		return cfg, errors.New("PGTIMEOUT must be > 0")
	}
	if len(cfg.DisasterTypes) == 0 || len(cfg.ReportTypes) == 0 {
		return cfg, errors.New("DISASTER_TYPES and REPORT_TYPES must not be empty")
	}
	for name, w := range cfg.Reports.Windows {
		if w <= 0 {
			return cfg, fmt.Errorf("%s report window must be > 0", name)
		}
	}
	if cfg.Reports.WindowMax <= 0 {
		return cfg, errors.New("API_REPORTS_TIME_WINDOW_MAX must be > 0")
	}
	if cfg.Reports.Limit < 0 {
		return cfg, errors.New("API_REPORTS_LIMIT must be >= 0")
	}
	if cfg.Notify.Workers < 1 || cfg.Notify.Queue < 1 {
		return cfg, errors.New("NOTIFY_WORKERS and NOTIFY_QUEUE must be >= 1")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// postgresURL assembles a connection URL from the libpq-style PG* variables.
func postgresURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(getenv("PGUSER", "postgres"), getenv("PGPASSWORD", "")),
		Host:   getenv("PGHOST", "127.0.0.1") + ":" + getenv("PGPORT", "5432"),
		Path:   "/" + getenv("PGDATABASE", "cognicity"),
	}
	q := url.Values{}
	if getbool("PGSSL", false) {
		q.Set("sslmode", "require")
	} else {
		q.Set("sslmode", "disable")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if b, ok := sysutil.ParseBool(os.Getenv(k)); ok {
		return b
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// getseconds reads a bare integer number of seconds; a Go duration string
// is accepted too.
func getseconds(k string, def time.Duration) time.Duration {
	return getunit(k, time.Second, def)
}

// getmillis reads a bare integer number of milliseconds (PGTIMEOUT style).
func getmillis(k string, def time.Duration) time.Duration {
	return getunit(k, time.Millisecond, def)
}

func getunit(k string, unit, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return def
	}
	if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
		return time.Duration(n) * unit
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
