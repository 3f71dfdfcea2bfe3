package auth

import (
	"context"
	"net/http"
	"strings"
)

// ContextKey is used to store values in request context
type ContextKey string

const (
	ClaimsContextKey ContextKey = "claims"

	// CookieName holds the session token in browsers
	CookieName = "avdash_session"
	// LoginPath is where unauthenticated page requests are sent
	LoginPath = "/login"
)

// Middleware rejects requests without a valid session. Browser page loads
// are redirected to the login form, everything else gets a 401.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		tokenString := tokenFromRequest(r)
		if tokenString == "" {
			s.reject(w, r, "Authorization is required")
			return
		}

		claims, err := s.ValidateToken(tokenString)
		if err != nil {
			s.log.Debug("rejected session token")
			s.reject(w, r, "Invalid or expired session")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetSessionCookie stores token in the session cookie
func (s *Service) SetSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie expires the session cookie
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClaimsFromContext retrieves the session claims from request context
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok && claims != nil
}

func tokenFromRequest(r *http.Request) string {
	// Expect format: "Bearer <token>"
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) == 2 && tokenParts[0] == "Bearer" {
			return tokenParts[1]
		}
		return ""
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (s *Service) reject(w http.ResponseWriter, r *http.Request, msg string) {
	if r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
		return
	}
	http.Error(w, msg, http.StatusUnauthorized)
}
