package server

import (
	"net/http"

	"cricket-tracker/internal/config"
	"cricket-tracker/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func NewRouter(handler *Handler, feedServer *FeedServer, cfg *config.Config, logger zerolog.Logger) http.Handler {
	r := mux.NewRouter()

	path, rpc := feedServer.Handler()
	r.Handle(path, rpc)

	handler.Routes(r)

	if static, ok := StaticHandler(cfg.StaticDir); ok {
		logger.Info().Str("dir", cfg.StaticDir).Msg("serving frontend build")
		r.PathPrefix("/").Handler(static)
	} else {
		logger.Debug().Str("dir", cfg.StaticDir).Msg("frontend build not found, static serving disabled")
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	})

	return middleware.RequestID(logger)(c.Handler(r))
}
