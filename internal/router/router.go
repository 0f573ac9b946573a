package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cliphub/internal/config"
	"cliphub/internal/handler"
	"cliphub/internal/middleware"
)

type pinger interface {
	Health(ctx context.Context) error
}

func New(cfg *config.Config, db pinger, authMiddleware *middleware.AuthMiddleware, userHandler *handler.UserHandler) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := db.Health(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unreachable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1/users", func(users chi.Router) {
		users.Use(middleware.Timeout(cfg.RequestTimeout))

		users.Post("/register", userHandler.Register)
		users.Post("/login", userHandler.Login)
		users.Post("/refresh-token", userHandler.Refresh)
		users.With(authMiddleware.OptionalAuth).Get("/channel/{username}", userHandler.ChannelProfile)

		users.Group(func(authed chi.Router) {
			authed.Use(authMiddleware.RequireAuth)

			authed.Post("/logout", userHandler.Logout)
			authed.Post("/change-password", userHandler.ChangePassword)
			authed.Get("/current", userHandler.Current)
			authed.Patch("/update-account", userHandler.UpdateAccount)
			authed.Patch("/avatar", userHandler.UpdateAvatar)
			authed.Patch("/cover-image", userHandler.UpdateCoverImage)
			authed.Get("/watch-history", userHandler.WatchHistory)
			authed.Post("/watch-history", userHandler.AddWatchHistory)
			authed.Post("/channel/{username}/subscribe", userHandler.Subscribe)
			authed.Delete("/channel/{username}/subscribe", userHandler.Unsubscribe)
		})
	})

	return r
}
