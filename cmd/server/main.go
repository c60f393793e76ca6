package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"parkhaus/internal/api"
	"parkhaus/internal/auth"
	"parkhaus/internal/config"
	"parkhaus/internal/repository/postgres"
	"parkhaus/internal/scheduler"
	"parkhaus/internal/service"
)

func main() {
	cfg := config.Load()

	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL not set")
	}
	sqlDB, err := postgres.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to DB", zap.Error(err))
	}
	defer sqlDB.Close()

	ctx := context.Background()
	if err := postgres.Migrate(ctx, sqlDB); err != nil {
		logger.Fatal("Failed to migrate DB", zap.Error(err))
	}

	store := postgres.NewStore(sqlDB)
	clock := service.RealClock{}
	notifier := service.NewNotifyService(logger)

	conflicts := service.NewConflictService(store, logger)
	matcher := service.NewMatcherService(store, conflicts, logger)
	waitlist := service.NewWaitlistService(store, notifier, clock, cfg.WaitlistTTL, logger)
	reservations := service.NewReservationService(store, matcher, conflicts, waitlist, notifier, clock, cfg.CancellationLead, logger)
	reclaimer := service.NewReclaimerService(store, reservations, waitlist, clock, cfg.NoShowGrace, logger)

	sched, err := scheduler.New(reclaimer, cfg.ReclaimInterval, logger)
	if err != nil {
		logger.Fatal("Failed to build scheduler", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	reservationHandler := api.NewReservationHandler(reservations, waitlist)
	adminHandler := api.NewAdminHandler(reservations, reclaimer)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/availability", reservationHandler.CheckAvailability).Methods("POST")
	r.HandleFunc("/api/reservations", reservationHandler.CreateReservation).Methods("POST")
	r.HandleFunc("/api/reservations/{id}", reservationHandler.GetReservation).Methods("GET")
	r.HandleFunc("/api/reservations/{id}", reservationHandler.CancelReservation).Methods("DELETE")
	r.HandleFunc("/api/reservations/{id}/checkin", reservationHandler.CheckInReservation).Methods("POST")
	r.HandleFunc("/api/reservations/{id}/complete", reservationHandler.CompleteReservation).Methods("POST")
	r.HandleFunc("/api/users/{id}/reservations", reservationHandler.GetUserReservations).Methods("GET")
	r.HandleFunc("/api/waitlist", reservationHandler.JoinWaitlist).Methods("POST")

	// Admin endpoints (protected)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.AdminAuthMiddleware(cfg.AdminToken))
	admin.HandleFunc("/stats", adminHandler.GetStats).Methods("GET")
	admin.HandleFunc("/spots", adminHandler.ListSpots).Methods("GET")
	admin.HandleFunc("/reclaim", adminHandler.RunReclamation).Methods("POST")

	handler := handlers.LoggingHandler(os.Stdout, handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(r))

	srv := &http.Server{Addr: ":" + cfg.ServerPort, Handler: handler}
	go func() {
		logger.Info("Server running", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}

func initLogger(debug bool) *zap.Logger {
	if debug {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}
