package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/facemark/facemark/internal/web/handlers"
	"github.com/facemark/facemark/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	recognizeHandler := handlers.NewRecognizeHandler(s.service, s.logger)
	attendanceHandler := handlers.NewAttendanceHandler(s.service)
	identitiesHandler := handlers.NewIdentitiesHandler(s.service, s.logger)
	indexHandler := handlers.NewIndexHandler(s.service)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Kiosk routes: the recognition camera runs unauthenticated.
		r.Post("/recognize", recognizeHandler.Recognize)
		r.Post("/attendance/mark", recognizeHandler.MarkAttendance)
		r.Get("/index/health", indexHandler.Health)

		// Admin routes mutate the gallery or read roster data.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireToken(s.config.Web.AdminToken))

			r.Get("/attendance", attendanceHandler.ByDate)
			r.Get("/attendance/today", attendanceHandler.Today)
			r.Get("/attendance/stats", attendanceHandler.Stats)

			r.Get("/identities", identitiesHandler.List)
			r.Post("/identities", identitiesHandler.Enroll)
			r.Get("/identities/{id}", identitiesHandler.Get)
			r.Put("/identities/{id}", identitiesHandler.Update)
			r.Delete("/identities/{id}", identitiesHandler.Delete)
			r.Get("/identities/{id}/profile", identitiesHandler.Profile)

			r.Post("/index/rebuild", indexHandler.Rebuild)
		})
	})
}
