package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
)

// AdminCookie is the cookie that carries the admin session token.
const AdminCookie = "binsorter_admin"

// adminPrefixes are the paths that need an admin session.
var adminPrefixes = []string{
	"/logs/",
	"/api/history/delete",
	"/api/history/clear",
}

// AdminToken derives the cookie value for password. An empty password has no token.
func AdminToken(password string) string {
	if password == "" {
		return ""
	}
	sum := sha256.Sum256([]byte("binsorter-admin:" + password))
	return hex.EncodeToString(sum[:])
}

// ValidToken reports whether token matches password in constant time.
func ValidToken(password, token string) bool {
	want := AdminToken(password)
	if want == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(token)) == 1
}

// IsAdminPath reports whether path is behind the admin session.
func IsAdminPath(path string) bool {
	for _, prefix := range adminPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// AuthMiddleware guards the admin paths. Everything else, classification
// included, is public. With no admin password configured the admin paths
// stay locked.
func AuthMiddleware(password string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdminPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(AdminCookie)
		if err != nil || !ValidToken(password, cookie.Value) {
			// API and AJAX callers get 401, browsers go back to the login form
			if r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
				r.Method != http.MethodGet ||
				strings.Contains(r.Header.Get("Accept"), "application/json") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/?login=1", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CORS allows cross-origin calls to the public API.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/health" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
