package handler

import (
	"net/http"

	"binsorter/internal/config"
	"binsorter/internal/logger"
	"binsorter/internal/middleware"
)

// LoginHandler handles POST /auth/login by validating the admin password and issuing a session cookie.
func LoginHandler(config *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if config.AdminPassword == "" {
			http.Error(w, "Admin access is disabled", http.StatusForbidden)
			return
		}

		token := middleware.AdminToken(r.FormValue("password"))
		if !middleware.ValidToken(config.AdminPassword, token) {
			logger.Warning("Failed admin login from %s", r.RemoteAddr)
			http.Error(w, "Invalid password", http.StatusUnauthorized)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.AdminCookie,
			Value:    token,
			Path:     "/",
			MaxAge:   2592000, // 30 days
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		logger.Info("Admin logged in from %s", r.RemoteAddr)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// LogoutHandler drops the admin session cookie.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
