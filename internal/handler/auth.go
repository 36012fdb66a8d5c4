package handler

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

const adminTokenHeader = "X-Admin-Token"

// requireAdmin checks the admin token header against the configured bcrypt
// hash. With no hash configured, admin routes are disabled entirely.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.config.AdminTokenHash == "" {
			slog.Warn("admin route hit with no admin token configured", "path", r.URL.Path)
			respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", "")
			return
		}

		token := r.Header.Get(adminTokenHeader)
		if token == "" {
			respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", "")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(h.config.AdminTokenHash), []byte(token)); err != nil {
			slog.Warn("admin token rejected", "path", r.URL.Path)
			respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", "")
			return
		}

		next.ServeHTTP(w, r)
	})
}
