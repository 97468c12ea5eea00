package api

import (
	"errors"
	"net/http"
	"strings"

	"practicestats/pkg/auth"

	log "github.com/sirupsen/logrus"
)

// Paths reachable without a session.
var publicPaths = map[string]bool{
	"/":          true,
	"/api/login": true,
	"/healthz":   true,
}

type loginRequest struct {
	Password string `json:"password"`
}

func (s *Server) postLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ok, err := s.password.Check(req.Password)
	if errors.Is(err, auth.ErrNotConfigured) {
		log.Error("Login attempted but no admin password is configured")
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: "Password is not configured."})
		return
	}
	if err != nil {
		log.WithError(err).Error("Failed to verify password")
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: "Password is not configured."})
		return
	}
	if !ok {
		log.WithField("remote", r.RemoteAddr).Warn("Failed login attempt")
		sendJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid password."})
		return
	}
	if err := s.sessions.Issue(w); err != nil {
		log.WithError(err).Error("Failed to issue session")
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}
	sendJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) postLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)
	sendJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// requireSession gates everything outside publicPaths. Pages redirect to
// the login page and API calls get a 401. A signed-in visit to the login
// page goes straight to the dashboard.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		signedIn := s.sessions.Valid(r)

		if publicPaths[path] {
			if signedIn && path == "/" {
				http.Redirect(w, r, "/dashboard", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		if signedIn {
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(path, "/api/") {
			sendJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	})
}
