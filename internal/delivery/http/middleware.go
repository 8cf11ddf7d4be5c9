package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/metrics"
)

// Identity headers set by the upstream auth gateway.
const (
	HeaderUserEmail = "X-User-Email"
	HeaderUserRoles = "X-User-Roles"
)

const roleAdmin = "ADMIN"

type principal struct {
	Email string
	Admin bool
}

type principalKey struct{}

func principalFrom(ctx context.Context) principal {
	p, _ := ctx.Value(principalKey{}).(principal)
	return p
}

// authenticate requires an email header and records the caller's roles.
func authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimSpace(r.Header.Get(HeaderUserEmail))
		if email == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		p := principal{Email: email}
		for _, role := range strings.Split(r.Header.Get(HeaderUserRoles), ",") {
			role = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(role)), "ROLE_")
			if role == roleAdmin {
				p.Admin = true
			}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, p)))
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !principalFrom(r.Context()).Admin {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// observe writes an access log and records request metrics by route
// pattern.
func observe(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			m.ObserveHTTP(route, strconv.Itoa(status), elapsed)

			slog.InfoContext(r.Context(), "http_access",
				"method", r.Method,
				"route", route,
				"path", r.URL.Path,
				"status", status,
				"latency_ms", elapsed.Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
