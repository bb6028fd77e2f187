package monitoring

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

func InitSentry(dsn, environment string) error {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		TracesSampleRate: 0.2,
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}

	return nil
}

// FlushSentry drains buffered events; called on shutdown.
func FlushSentry() {
	sentry.Flush(2 * time.Second)
}

func CaptureError(err error, context map[string]interface{}) {
	hub := sentry.CurrentHub()
	if hub == nil {
		return
	}

	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range context {
			scope.SetExtra(k, v)
		}
		hub.CaptureException(err)
	})
}
