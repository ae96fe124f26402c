package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"tokengate/internal/audit"
	"tokengate/internal/auth"
)

const maxLoginBody = 1 << 20

type api struct {
	logger *slog.Logger
	auth   *auth.Service
	audit  audit.Recorder
}

func (a *api) record(r *http.Request, kind audit.Kind, username string, status int, reason string, tags ...string) {
	if a.audit == nil {
		return
	}
	e := &audit.Event{
		RequestID: requestIDFromContext(r.Context()),
		Kind:      kind,
		Username:  username,
		Path:      r.URL.Path,
		Outcome:   status,
		Reason:    reason,
		Tags:      tags,
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 2*time.Second)
	defer cancel()
	if err := a.audit.Record(ctx, e); err != nil {
		a.logger.Error("record audit event", "err", err, "kind", kind)
	}
}

func (a *api) reject(w http.ResponseWriter, r *http.Request, rej auth.Rejection) {
	kind := audit.KindTokenRejected
	username := ""
	if rej.Status == http.StatusForbidden {
		kind = audit.KindAccessDenied
		if c, ok := auth.ClaimsFromContext(r.Context()); ok {
			username = c.Username
		}
		a.logger.Warn("authorization denied", "path", r.URL.Path, "username", username, "details", rej.Details)
	} else {
		a.logger.Debug("authentication rejected", "path", r.URL.Path, "reason", rej.Message, "details", rej.Details)
	}
	a.record(r, kind, username, rej.Status, rej.Message, rej.Tags...)
	writeError(w, rej.Status, rej.Message, rej.Details)
}

func (a *api) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": "Token auth service is running",
	})
}

func (a *api) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string           `json:"token"`
	ExpiresIn string           `json:"expiresIn"`
	User      auth.UserSummary `json:"user"`
}

func (a *api) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required", "")
		return
	}

	cred, err := a.auth.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		a.record(r, audit.KindLoginFailure, req.Username, http.StatusUnauthorized, err.Error())
		writeError(w, http.StatusUnauthorized, "Invalid credentials", "")
		return
	}
	if err != nil {
		a.logger.Error("authenticate", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", "")
		return
	}

	token, _, err := a.auth.IssueToken(cred)
	if err != nil {
		a.logger.Error("issue token", "err", err, "username", cred.Username)
		writeError(w, http.StatusInternalServerError, "Internal server error", "")
		return
	}
	a.record(r, audit.KindLoginSuccess, cred.Username, http.StatusOK, "", auth.RoleTag(cred.Role))
	a.logger.Info("login succeeded", "username", cred.Username)

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresIn: a.auth.ExpiresIn(),
		User:      a.auth.Summary(cred),
	})
}

// claims returns the verified claims of the request. A route mounted
// without JWTMiddleware gets a 401 instead of reaching its handler body.
func (a *api) claims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	c, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		a.reject(w, r, auth.Rejection{
			Status:  http.StatusUnauthorized,
			Message: "Authorization header required",
			Tags:    []string{auth.TagHeaderMissing},
		})
	}
	return c, ok
}

func (a *api) protected(w http.ResponseWriter, r *http.Request) {
	c, ok := a.claims(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Access granted to protected resource",
		"user":    c.Summary(),
	})
}

type profileResponse struct {
	auth.UserSummary
	IssuedAt  *time.Time `json:"issuedAt,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func (a *api) profile(w http.ResponseWriter, r *http.Request) {
	c, ok := a.claims(w, r)
	if !ok {
		return
	}
	resp := profileResponse{UserSummary: c.Summary()}
	if c.IssuedAt != nil {
		resp.IssuedAt = &c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		resp.ExpiresAt = &c.ExpiresAt.Time
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) moderatorDashboard(w http.ResponseWriter, r *http.Request) {
	c, ok := a.claims(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to the moderator dashboard, " + c.Name,
		"user":    c.Summary(),
	})
}

func (a *api) adminDashboard(w http.ResponseWriter, r *http.Request) {
	c, ok := a.claims(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to the admin dashboard, " + c.Name,
		"user":    c.Summary(),
	})
}

func (a *api) moderationAction(w http.ResponseWriter, r *http.Request) {
	c, ok := a.claims(w, r)
	if !ok {
		return
	}
	a.logger.Info("moderation action", "username", c.Username, "role", c.Role)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Moderation action performed",
		"performedBy": c.Username,
	})
}

func (a *api) auditLog(w http.ResponseWriter, r *http.Request) {
	if a.audit == nil {
		writeJSON(w, http.StatusOK, map[string]any{"events": []audit.Event{}})
		return
	}
	q := r.URL.Query()
	f := audit.Filter{
		Kind:     audit.Kind(q.Get("kind")),
		Username: q.Get("username"),
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = l
	}
	if since := q.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid since parameter", err.Error())
			return
		}
		f.Since = t
	}
	events, err := a.audit.List(r.Context(), f)
	if err != nil {
		a.logger.Error("list audit events", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", "")
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
