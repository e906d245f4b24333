// cmd/api/middleware.go
package main

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"campuslend/internal/membership"
)

// principalResolver maps the gateway-provided identity headers to a
// patron, creating one on first sight. Requests without headers run as
// the anonymous principal.
func principalResolver(members membership.Service, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := r.Header.Get("X-Auth-Subject")
			if subject == "" {
				ctx := membership.WithPrincipal(r.Context(), membership.AnonymousPrincipal)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			patron, err := members.ResolvePrincipal(r.Context(),
				subject,
				r.Header.Get("X-Auth-Name"),
				r.Header.Get("X-Auth-Email"),
			)
			if err != nil {
				log.Warn("resolve principal", zap.String("subject", subject), zap.Error(err))
				http.Error(w, "identity resolution failed", http.StatusUnauthorized)
				return
			}

			ctx := membership.WithPrincipal(r.Context(), membership.PrincipalFor(patron))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// rateLimit applies a single process-wide token bucket. Per-patron
// fairness is left to the gateway in front of us.
func rateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			)
		})
	}
}
