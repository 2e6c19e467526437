package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kipr/colosseum-sub001/handlers"
	"github.com/kipr/colosseum-sub001/middleware"
	"github.com/kipr/colosseum-sub001/models"
)

// SetupRoutes wires every handler onto the router. Reads are public;
// mutations require an authenticated operator, and destructive force
// regeneration is admin-only.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret []byte,
	authHandler *handlers.AuthHandler,
	eventHandler *handlers.EventHandler,
	teamHandler *handlers.TeamHandler,
	rankingHandler *handlers.RankingHandler,
	bracketHandler *handlers.BracketHandler,
	gameHandler *handlers.GameHandler,
	queueHandler *handlers.QueueHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)
	operatorOnly := middleware.Authorize(models.RoleAdmin, models.RoleOperator)
	adminOnly := middleware.Authorize(models.RoleAdmin)

	router.Post("/auth/register", authHandler.RegisterHandler)
	router.Post("/auth/login", authHandler.LoginHandler)

	router.Route("/events", func(r chi.Router) {
		r.Get("/", eventHandler.ListHandler)
		r.Get("/{eventID}", eventHandler.GetByIDHandler)
		r.Get("/{eventID}/teams", teamHandler.ListByEventHandler)
		r.Get("/{eventID}/brackets", bracketHandler.ListByEventHandler)
		r.Get("/{eventID}/seeding/scores", rankingHandler.ListScoresHandler)
		r.Get("/{eventID}/rankings", rankingHandler.ListRankingsHandler)
		r.Get("/{eventID}/queue", queueHandler.ListHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(operatorOnly)

			r.Post("/", eventHandler.CreateHandler)
			r.Patch("/{eventID}/status", eventHandler.UpdateStatusHandler)
			r.Post("/{eventID}/rankings/recalculate", rankingHandler.RecalculateHandler)

			r.Post("/{eventID}/queue", queueHandler.AddHandler)
			r.Put("/{eventID}/queue/order", queueHandler.ReorderHandler)
			r.Post("/{eventID}/queue/populate/bracket", queueHandler.PopulateFromBracketHandler)
			r.Post("/{eventID}/queue/populate/seeding", queueHandler.PopulateFromSeedingHandler)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/{teamID}", teamHandler.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(operatorOnly)

			r.Post("/", teamHandler.CreateHandler)
			r.Patch("/{teamID}", teamHandler.UpdateNameHandler)
			r.Put("/{teamID}/logo", teamHandler.UploadLogoHandler)
		})
	})

	router.Route("/brackets", func(r chi.Router) {
		r.Get("/{bracketID}", bracketHandler.GetDetailHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(operatorOnly)

			r.Post("/", bracketHandler.CreateHandler)
		})

		// Regeneration is destructive once force=true is passed; only
		// admins confirm it.
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)

			r.Post("/{bracketID}/entries", bracketHandler.GenerateEntriesHandler)
			r.Post("/{bracketID}/games", bracketHandler.GenerateGamesHandler)
		})
	})

	router.Route("/games", func(r chi.Router) {
		r.Get("/{gameID}", gameHandler.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(operatorOnly)

			r.Post("/{gameID}/start", gameHandler.StartHandler)
			r.Post("/{gameID}/result", gameHandler.SubmitResultHandler)
		})
	})

	router.Route("/seeding", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(operatorOnly)

			r.Put("/scores", rankingHandler.UpsertScoreHandler)
		})
	})

	router.Route("/queue", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(operatorOnly)

			r.Post("/{itemID}/call", queueHandler.CallHandler)
			r.Post("/{itemID}/uncall", queueHandler.UncallHandler)
			r.Post("/{itemID}/skip", queueHandler.SkipHandler)
			r.Post("/{itemID}/complete", queueHandler.CompleteHandler)
		})
	})

	router.Get("/ws/events/{eventID}", webSocketHandler.ServeWs)
}
