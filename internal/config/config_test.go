package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "8001" || cfg.APIBasePath != "/" || cfg.BodyLimit != 100*1024 {
		t.Fatalf("server defaults unexpected: port=%q base=%q body=%d", cfg.Port, cfg.APIBasePath, cfg.BodyLimit)
	}
	if cfg.DB.Driver != "postgres" || cfg.DB.Timeout != 10*time.Second {
		t.Fatalf("db defaults unexpected: %+v", cfg.DB)
	}
	if !strings.HasPrefix(cfg.DB.URL, "postgres://postgres") || !strings.Contains(cfg.DB.URL, "/cognicity?sslmode=disable") {
		t.Fatalf("postgres url not assembled from PG* defaults: %q", cfg.DB.URL)
	}
	if cfg.Tables.Cards != "grasp.cards" || cfg.Tables.RemStatusLog != "cognicity.rem_status_log" || cfg.Tables.AllReports != "cognicity.all_reports" {
		t.Fatalf("table defaults unexpected: %+v", cfg.Tables)
	}
	if cfg.Reports.Windows["flood"] != 3*time.Hour || cfg.Reports.Windows["wind"] != 2*time.Hour || cfg.Reports.Windows["earthquake"] != 12*time.Hour {
		t.Fatalf("window defaults unexpected: %v", cfg.Reports.Windows)
	}
	if cfg.Reports.WindowMax != 18748800*time.Second || cfg.Reports.Limit != 0 {
		t.Fatalf("report limits unexpected: %+v", cfg.Reports)
	}
	if len(cfg.RegionCodes) != 55 || cfg.RegionCodes[0] != "ID-BA" || cfg.RegionCodes[len(cfg.RegionCodes)-1] != "PH-00" {
		t.Fatalf("region codes unexpected: %d %v", len(cfg.RegionCodes), cfg.RegionCodes)
	}
	if !reflect.DeepEqual(cfg.Images.MimeTypes, []string{"image/png", "image/jpeg", "image/gif"}) {
		t.Fatalf("mime types unexpected: %v", cfg.Images.MimeTypes)
	}
	if cfg.Cache.Enabled || cfg.Cache.Cards != time.Minute || cfg.Cache.Floods != time.Hour {
		t.Fatalf("cache defaults unexpected: %+v", cfg.Cache)
	}
	if cfg.Auth.Secret != "" || cfg.Sentry.DSN != "" {
		t.Fatalf("auth and sentry must be off by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("GIN_MODE", "weird")
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("API_BASE_PATH", "api/")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_PATH", "dev.db")
	t.Setenv("PGTIMEOUT", "2500")
	t.Setenv("TABLE_GRASP_CARDS", "grasp_cards")
	t.Setenv("FLOOD_REPORTS_TIME_WINDOW", "600")
	t.Setenv("FIRE_REPORTS_TIME_WINDOW", "2h")
	t.Setenv("API_REPORTS_LIMIT", "50")
	t.Setenv("DISASTER_TYPES", " flood , fire ")
	t.Setenv("CACHE", "true")
	t.Setenv("CACHE_DURATION_CARDS", "30s")
	t.Setenv("RATE_RPS", "x")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("AUTH_SECRET", "s3cret")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "9000" || cfg.GinMode != "release" || cfg.LogLevel != "warn" || cfg.APIBasePath != "/api" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}
	if cfg.DB.Driver != "sqlite" || cfg.DB.Path != "dev.db" || cfg.DB.URL != "" || cfg.DB.Timeout != 2500*time.Millisecond {
		t.Fatalf("db fields unexpected: %+v", cfg.DB)
	}
	if cfg.Tables.Cards != "grasp_cards" {
		t.Fatalf("table override ignored: %q", cfg.Tables.Cards)
	}
	if cfg.Reports.Windows["flood"] != 10*time.Minute || cfg.Reports.Windows["fire"] != 2*time.Hour || cfg.Reports.Limit != 50 {
		t.Fatalf("reports unexpected: %+v", cfg.Reports)
	}
	if !reflect.DeepEqual(cfg.DisasterTypes, []string{"flood", "fire"}) {
		t.Fatalf("disaster types unexpected: %#v", cfg.DisasterTypes)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Cards != 30*time.Second {
		t.Fatalf("cache unexpected: %+v", cfg.Cache)
	}
	if cfg.RateRPS != 5.0 {
		t.Fatalf("bad RATE_RPS should fall back to default, got %v", cfg.RateRPS)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Auth.Secret != "s3cret" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("auth/otel unexpected: %+v %+v", cfg.Auth, cfg.OTEL)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		env, val, want string
	}{
		{"LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"PORT", "   ", "PORT must not be empty"},
		{"READ_TIMEOUT", "0s", "timeouts must be positive"},
		{"MAX_HEADER_BYTES", "0", "MAX_HEADER_BYTES"},
		{"BODY_LIMIT", "-1", "BODY_LIMIT"},
		{"DB_DRIVER", "mysql", "DB_DRIVER"},
		{"PGTIMEOUT", "0", "PGTIMEOUT"},
		{"EQ_REPORTS_TIME_WINDOW", "0", "earthquake report window"},
		{"API_REPORTS_TIME_WINDOW_MAX", "-5", "API_REPORTS_TIME_WINDOW_MAX"},
		{"API_REPORTS_LIMIT", "-1", "API_REPORTS_LIMIT"},
		{"NOTIFY_WORKERS", "0", "NOTIFY_WORKERS"},
		{"RATE_RPS", "-1", "RATE_RPS"},
		{"RATE_BURST", "0", "RATE_BURST"},
		{"HSTS_MAX_AGE", "-1s", "HSTS_MAX_AGE"},
		{"IDEMPOTENCY_TTL", "0s", "IDEMPOTENCY_TTL"},
		{"OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.env, func(t *testing.T) {
			t.Setenv(tc.env, tc.val)
			if _, err := Load(); err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q error, got: %v", tc.want, err)
			}
		})
	}

	t.Run("sqlite needs a path", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "sqlite")
		t.Setenv("DB_PATH", "   ")
		if _, err := Load(); err == nil || !strings.Contains(err.Error(), "DB_PATH") {
			t.Fatalf("expected DB_PATH error, got: %v", err)
		}
	})
}

func TestPostgresURL_FromPGVars(t *testing.T) {
	t.Setenv("PGUSER", "grasp")
	t.Setenv("PGPASSWORD", "p@ss")
	t.Setenv("PGHOST", "db")
	t.Setenv("PGPORT", "6432")
	t.Setenv("PGDATABASE", "cog")
	t.Setenv("PGSSL", "true")
	got := postgresURL()
	want := "postgres://grasp:p%40ss@db:6432/cog?sslmode=require"
	if got != want {
		t.Fatalf("postgresURL=%q want %q", got, want)
	}
}

func TestHelpers_getseconds_getmillis(t *testing.T) {
	t.Setenv("S_INT", "90")
	if getseconds("S_INT", 0) != 90*time.Second {
		t.Fatalf("integer seconds not parsed")
	}
	t.Setenv("S_DUR", "1m")
	if getseconds("S_DUR", 0) != time.Minute {
		t.Fatalf("duration string not parsed")
	}
	t.Setenv("S_BAD", "soon")
	if getseconds("S_BAD", time.Hour) != time.Hour {
		t.Fatalf("bad value should fall back")
	}
	t.Setenv("M_INT", "1500")
	if getmillis("M_INT", 0) != 1500*time.Millisecond {
		t.Fatalf("integer millis not parsed")
	}
}

func TestHelpers_getbool(t *testing.T) {
	for i, v := range []string{"1", "true", "TRUE", " yes ", "Y", "on"} {
		k := "B_T_" + string(rune('a'+i))
		t.Setenv(k, v)
		if !getbool(k, false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	for i, v := range []string{"0", "false", " no ", "N", "off"} {
		k := "B_F_" + string(rune('a'+i))
		t.Setenv(k, v)
		if getbool(k, true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
	t.Setenv("B_EMPTY", "")
	if !getbool("B_EMPTY", true) {
		t.Fatalf("getbool default behavior unexpected")
	}
}

func TestHelpers_splitCSV_and_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	if got := splitCSV(" a, ,b ,  c  ,"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("splitCSV mismatch: %#v", got)
	}
	for in, want := range map[string]string{"": "/", "v1": "/v1", "/v1/": "/v1", " / ": "/"} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q)=%q want %q", in, got, want)
		}
	}
}

func TestMain(m *testing.M) {
	for _, k := range []string{"PORT", "DB_DRIVER", "DATABASE_URL", "PGHOST", "PGUSER", "PGPASSWORD", "PGDATABASE", "PGPORT", "PGSSL", "CACHE", "AUTH_SECRET", "SENTRY_DSN"} {
		os.Unsetenv(k)
	}
	os.Exit(m.Run())
}
