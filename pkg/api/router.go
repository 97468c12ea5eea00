package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// GetRouter initialises a new http router and applies all routes
func GetRouter(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(s.requireSession)
	return applyRoutes(r, s)
}

func applyRoutes(r chi.Router, s *Server) chi.Router {
	r.Get("/", servePage(indexPage))
	r.Get("/dashboard", servePage(dashboardPage))
	r.Get("/manager-docs", servePage(managerDocsPage))
	r.Get("/healthz", getHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.postLogin)
		r.Post("/logout", s.postLogout)

		r.Get("/addStat", s.getConnection)
		r.Post("/addStat", s.postStat)
		r.Get("/last-stat", s.getLastStat)
		r.Post("/delete-last-stat", s.deleteLastStat)
		r.Post("/attendance", s.postAttendance)
		r.Get("/attendance-check", s.getAttendanceCheck)
		r.Get("/loadPlayers", s.getPlayers)
		r.Get("/loadSheets", s.getSheets)
		r.Get("/cumulativeStats", s.getLeaders)
	})

	return r
}
