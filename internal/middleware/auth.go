package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/devrev/bizdir/internal/auth"
	apierrors "github.com/devrev/bizdir/internal/errors"
	"github.com/devrev/bizdir/internal/model"
	"github.com/devrev/bizdir/internal/store"
	"go.uber.org/zap"
)

// PrincipalFrom returns the authenticated caller, or nil.
func PrincipalFrom(ctx context.Context) *auth.Principal {
	p, _ := ctx.Value(PrincipalKey).(*auth.Principal)
	return p
}

// WithPrincipal returns ctx carrying p.
func WithPrincipal(ctx context.Context, p *auth.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// ProfileFrom returns the profile loaded by RequireAuth or RequireRole, or nil.
func ProfileFrom(ctx context.Context) *model.Profile {
	p, _ := ctx.Value(ProfileKey).(*model.Profile)
	return p
}

// WithProfile returns ctx carrying profile.
func WithProfile(ctx context.Context, profile *model.Profile) context.Context {
	return context.WithValue(ctx, ProfileKey, profile)
}

// Authenticator resolves the caller from the request token.
type Authenticator struct {
	parser           *auth.Parser
	profiles         store.ProfileStore
	errorHandler     *apierrors.Handler
	loginRedirectURL string
	logger           *zap.Logger
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(parser *auth.Parser, profiles store.ProfileStore, errorHandler *apierrors.Handler, loginRedirectURL string, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		parser:           parser,
		profiles:         profiles,
		errorHandler:     errorHandler,
		loginRedirectURL: loginRedirectURL,
		logger:           logger,
	}
}

// Authenticate attaches the principal when the request carries a valid token.
// Anonymous and invalid-token requests pass through without one.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := a.parser.FromRequest(r)
		if err != nil {
			if !errors.Is(err, auth.ErrNoToken) {
				a.logger.Debug("ignoring invalid token",
					zap.String("request_id", r.Header.Get("X-Request-ID")),
					zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireAuth rejects anonymous requests with 401.
// The caller's profile is created on first sight and attached to the context.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := PrincipalFrom(r.Context())
		if principal == nil {
			a.unauthenticated(w, r)
			return
		}
		profile, ok := a.loadProfile(w, r, principal)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(WithProfile(r.Context(), profile)))
	})
}

// RequireRole admits callers whose profile holds one of roles.
// The profile is read on every request and attached to the context.
func (a *Authenticator) RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFrom(r.Context())
			if principal == nil {
				a.unauthenticated(w, r)
				return
			}

			profile, ok := a.loadProfile(w, r, principal)
			if !ok {
				return
			}
			if !profile.HasRole(roles...) {
				a.logger.Warn("role check failed",
					zap.String("user_id", principal.UserID),
					zap.String("role", string(profile.Role)),
					zap.String("path", r.URL.Path),
					zap.String("request_id", r.Header.Get("X-Request-ID")))
				a.errorHandler.WriteForbidden(w, "insufficient permissions", r.Header.Get("X-Request-ID"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithProfile(r.Context(), profile)))
		})
	}
}

// loadProfile resolves the principal's profile, writing the error response itself
// when it cannot. Tokens without an email can only reach existing profiles.
func (a *Authenticator) loadProfile(w http.ResponseWriter, r *http.Request, principal *auth.Principal) (*model.Profile, bool) {
	var profile *model.Profile
	var err error
	if principal.Email != "" {
		profile, err = a.profiles.EnsureProfile(r.Context(), principal.UserID, principal.Email)
	} else {
		profile, err = a.profiles.GetProfile(r.Context(), principal.UserID)
	}

	requestID := r.Header.Get("X-Request-ID")
	switch {
	case err == nil:
		return profile, true
	case errors.Is(err, store.ErrNotFound):
		a.errorHandler.WriteForbidden(w, "profile not found", requestID)
	case errors.Is(err, store.ErrConflict):
		a.logger.Warn("token email belongs to another profile",
			zap.String("user_id", principal.UserID),
			zap.String("request_id", requestID))
		a.errorHandler.WriteForbidden(w, "email is linked to another account", requestID)
	default:
		a.errorHandler.HandleError(w, r, err)
	}
	return nil, false
}

func (a *Authenticator) unauthenticated(w http.ResponseWriter, r *http.Request) {
	if a.loginRedirectURL != "" && acceptsHTML(r) {
		http.Redirect(w, r, a.loginRedirectURL, http.StatusSeeOther)
		return
	}
	a.errorHandler.WriteUnauthorized(w, auth.ErrNoToken.Error(), r.Header.Get("X-Request-ID"))
}

func acceptsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
