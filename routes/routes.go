package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jominki354/hotstinder/handlers"
	"github.com/jominki354/hotstinder/middleware"
	"github.com/jominki354/hotstinder/models"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	matchHandler *handlers.MatchHandler,
	userHandler *handlers.UserHandler,
	webSocketHandler *handlers.WebsocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate([]byte(jwtSecret))
	maybeAuthenticate := middleware.MaybeAuthenticate([]byte(jwtSecret))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Get("/leaderboard", userHandler.Leaderboard)
	router.Get("/users/{userID}", userHandler.Profile)

	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/me", userHandler.Me)
	})

	router.Route("/matches", func(r chi.Router) {
		// Публичные маршруты: просмотр матчей и подписка на обновления.
		r.Get("/", matchHandler.List)
		r.Get("/{matchID}", matchHandler.Get)
		r.Get("/{matchID}/events", matchHandler.Events)
		r.Get("/{matchID}/ws", webSocketHandler.Subscribe)

		// Состав: доступно и гостям, и зарегистрированным игрокам —
		// токен необязателен, но если предъявлен, определяет участника.
		r.Group(func(r chi.Router) {
			r.Use(maybeAuthenticate)

			r.Post("/{matchID}/join", matchHandler.Join)
			r.Post("/{matchID}/leave", matchHandler.Leave)
			r.Post("/{matchID}/events", matchHandler.RecordEvent)
		})

		// Управление жизненным циклом требует аутентификации.
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", matchHandler.Create)
			r.Post("/{matchID}/start", matchHandler.Start)
			r.Post("/{matchID}/complete", matchHandler.Complete)
			r.Post("/{matchID}/cancel", matchHandler.Cancel)
		})

		// Загрузка реплеев — только администраторам.
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.Authorize(models.RoleAdmin))

			r.Post("/{matchID}/replay", matchHandler.UploadReplay)
		})
	})
}
