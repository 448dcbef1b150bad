package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/dkovac/parcelo/internal/config"
	"github.com/dkovac/parcelo/internal/database"
	"github.com/dkovac/parcelo/internal/logging"
	"github.com/dkovac/parcelo/internal/metrics"
	postgresrepo "github.com/dkovac/parcelo/internal/repository/postgres"
	"github.com/dkovac/parcelo/internal/service"
	"github.com/dkovac/parcelo/internal/transport/http/handlers"
	"github.com/dkovac/parcelo/internal/transport/http/middleware"
	"github.com/dkovac/parcelo/internal/transport/ws"
)

func main() {
	cfg := config.Load()

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()
	log.Info().Msg("connected to database")

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	listingRepo := postgresrepo.NewListingRepo(pool)
	convRepo := postgresrepo.NewConversationRepo(pool)
	msgRepo := postgresrepo.NewMessageRepo(pool)

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret)
	userService := service.NewUserService(userRepo)
	listingService := service.NewListingService(listingRepo)
	messagingService := service.NewMessagingService(convRepo, msgRepo, userRepo, listingRepo, log)

	// WebSocket hub feeds off the messaging service and pushes back into it
	// (passive read marking), so it is wired after the service exists.
	hub := ws.NewHub(messagingService, log)
	messagingService.SetNotifier(ws.NewHubNotifier(hub))
	go hub.Run()

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, log)
	userHandler := handlers.NewUserHandler(userService, log)
	listingHandler := handlers.NewListingHandler(listingService, log)
	convHandler := handlers.NewConversationHandler(messagingService, log)

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("GET /ws", ws.ServeWS(hub, cfg.JWTSecret))

	// Protected - Users
	mux.Handle("GET /api/v1/me", auth(http.HandlerFunc(userHandler.Me)))
	mux.Handle("GET /api/v1/users", auth(http.HandlerFunc(userHandler.List)))

	// Protected - Listings
	mux.Handle("POST /api/v1/parcels", auth(http.HandlerFunc(listingHandler.CreateParcel)))
	mux.Handle("GET /api/v1/parcels", auth(http.HandlerFunc(listingHandler.ListParcels)))
	mux.Handle("GET /api/v1/parcels/mine", auth(http.HandlerFunc(listingHandler.MyParcels)))
	mux.Handle("POST /api/v1/trips", auth(http.HandlerFunc(listingHandler.CreateTrip)))
	mux.Handle("GET /api/v1/trips", auth(http.HandlerFunc(listingHandler.ListTrips)))
	mux.Handle("GET /api/v1/trips/mine", auth(http.HandlerFunc(listingHandler.MyTrips)))

	// Protected - Conversations
	mux.Handle("POST /api/v1/conversations", auth(http.HandlerFunc(convHandler.StartOrGet)))
	mux.Handle("GET /api/v1/conversations", auth(http.HandlerFunc(convHandler.List)))
	mux.Handle("POST /api/v1/conversations/{id}/messages", auth(http.HandlerFunc(convHandler.SendMessage)))
	mux.Handle("GET /api/v1/conversations/{id}/messages", auth(http.HandlerFunc(convHandler.ListMessages)))
	mux.Handle("POST /api/v1/conversations/{id}/read", auth(http.HandlerFunc(convHandler.MarkRead)))

	// Start server with CORS
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Info().Str("addr", addr).Msg("starting server")
	if err := http.ListenAndServe(addr, middleware.CORS(mux)); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
