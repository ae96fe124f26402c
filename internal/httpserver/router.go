package httpserver

import (
	"net/http"

	"log/slog"

	"tokengate/internal/audit"
	"tokengate/internal/auth"
)

type RouterDeps struct {
	Logger     *slog.Logger
	Auth       *auth.Service
	Policy     *auth.Policy
	Audit      audit.Recorder
	CORSOrigin string
}

func NewRouter(d RouterDeps) http.Handler {
	a := &api{
		logger: d.Logger,
		auth:   d.Auth,
		audit:  d.Audit,
	}
	mux := http.NewServeMux()

	root := only(http.MethodGet, http.HandlerFunc(a.root))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			notFound(w, r)
			return
		}
		root.ServeHTTP(w, r)
	}))
	mux.Handle("/healthz", only(http.MethodGet, http.HandlerFunc(a.healthz)))
	mux.Handle("/login", only(http.MethodPost, http.HandlerFunc(a.login)))

	secured := auth.JWTMiddleware(d.Auth, a.reject)
	mux.Handle("/protected", only(http.MethodGet, secured(http.HandlerFunc(a.protected))))
	mux.Handle("/profile", only(http.MethodGet, secured(http.HandlerFunc(a.profile))))

	// Role-gated routes exist only when the policy is enforced.
	if d.Policy.Enabled {
		gated := func(route string, h http.HandlerFunc) http.Handler {
			if !d.Policy.Gated(route) {
				return secured(h)
			}
			return secured(auth.RequireRoute(d.Policy, route, a.reject)(h))
		}
		mux.Handle("/moderator", only(http.MethodGet, gated(auth.RouteModerator, a.moderatorDashboard)))
		mux.Handle("/admin", only(http.MethodGet, gated(auth.RouteAdmin, a.adminDashboard)))
		mux.Handle("/moderation/action", only(http.MethodPost, gated(auth.RouteModerationAction, a.moderationAction)))
		mux.Handle("/admin/audit", only(http.MethodGet, gated(auth.RouteAudit, a.auditLog)))
	}

	return withRequestLogging(d.Logger, withCORS(d.CORSOrigin, mux))
}
