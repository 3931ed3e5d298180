// ratelimit.go — ограничение частоты запросов по IP клиента (ulule/limiter, in-memory store).
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/ulule/limiter/v3"
	limiterhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	apierrors "github.com/Aryan-dev-enth/certificate-manager/internal/api/errors"
)

// RateLimit возвращает middleware, ограничивающий число запросов с одного IP.
// Превышение лимита — 429 TOO_MANY_REQUESTS, заголовки X-RateLimit-* выставляются всегда.
func RateLimit(rate limiter.Rate, logger *slog.Logger) func(http.Handler) http.Handler {
	log := logger.With(slog.String("component", "rate_limit"))
	instance := limiter.New(memory.NewStore(), rate)

	mw := limiterhttp.NewMiddleware(instance,
		limiterhttp.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			log.Warn("Превышен лимит запросов",
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
			)
			apierrors.TooManyRequests(w, "Слишком много попыток, повторите позже")
		}),
		limiterhttp.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			log.Error("Ошибка ограничителя запросов", slog.String("error", err.Error()))
			apierrors.InternalError(w, "Внутренняя ошибка")
		}),
	)
	return mw.Handler
}
