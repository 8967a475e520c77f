package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/loopmind-api/internal/api"
	apiMiddleware "github.com/phrazzld/loopmind-api/internal/api/middleware"
	"github.com/phrazzld/loopmind-api/internal/service"
	"github.com/phrazzld/loopmind-api/internal/service/auth"
)

// newRouter creates the application router with all routes and middleware.
func newRouter(topics service.TopicService, jwtService auth.JWTService, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(logger))
	r.Use(middleware.Recoverer)

	topicHandler := api.NewTopicHandler(topics, logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Post("/topics", topicHandler.GenerateTopic)
		r.Get("/topics", topicHandler.ListTopics)
		r.Get("/topics/{topicID}", topicHandler.GetTopic)
		r.Post("/topics/{topicID}/cards/{cardID}/learnt", topicHandler.MarkLearnt)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
