package observability

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/petabencana/sitioss-server/internal/config"
)

// SetupSentry initialises the global Sentry client. With an empty DSN
// reporting stays disabled and the returned shutdown is a no-op.
func SetupSentry(cfg config.SentryConfig, b Build) (ShutdownFunc, error) {
	if cfg.DSN == "" {
		return noopShutdown, nil
	}
	env := cfg.Environment
	if env == "" {
		env = b.Environment
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: env,
		Release:     b.Version,
	})
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) error {
		timeout := 2 * time.Second
		if dl, ok := ctx.Deadline(); ok {
			timeout = time.Until(dl)
		}
		sentry.Flush(timeout)
		return nil
	}, nil
}

// CaptureError reports err with the given tags. It is a no-op when Sentry
// is not initialised.
func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := sentry.CurrentHub().Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			if v != "" {
				scope.SetTag(k, v)
			}
		}
		hub.CaptureException(err)
	})
}

// CapturePanic reports a recovered panic value.
func CapturePanic(v any, tags map[string]string) {
	hub := sentry.CurrentHub().Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		for k, val := range tags {
			if val != "" {
				scope.SetTag(k, val)
			}
		}
		hub.Recover(v)
	})
}
