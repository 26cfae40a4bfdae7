package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	database "github.com/rgodlewski/LedgerLoop/db"
	"github.com/rgodlewski/LedgerLoop/internal/auth"
	"github.com/rgodlewski/LedgerLoop/internal/ledger/application"
	"github.com/rgodlewski/LedgerLoop/internal/ledger/infrastructure"
	"github.com/rgodlewski/LedgerLoop/internal/ledger/interfaces"
)

const defaultSweepSchedule = "@every 24h"

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("Started %s %s", r.Method, r.URL.Path)

		next.ServeHTTP(w, r)

		log.Printf("Completed %s in %v", r.URL.Path, time.Since(start))
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	})
}

type Server struct {
	router             *http.ServeMux
	transactionHandler *interfaces.TransactionHandler
	jwtManager         auth.JWTManagerInterface
	dbService          *database.DBService
}

func NewServer(transactionHandler *interfaces.TransactionHandler, jwtManager auth.JWTManagerInterface, dbService *database.DBService) *Server {
	return &Server{
		router:             http.NewServeMux(),
		transactionHandler: transactionHandler,
		jwtManager:         jwtManager,
		dbService:          dbService,
	}
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	respondError(w, http.StatusNotFound, "Path not found")
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.dbService.Health())
}

func (s *Server) RegisterRoutes() {
	protect := auth.JWTAccessTokenMiddleware(s.jwtManager)

	publicRoutes := http.NewServeMux()
	publicRoutes.Handle("GET /api/ready", http.HandlerFunc(s.handleReady))

	protectedRoutes := http.NewServeMux()
	protectedRoutes.Handle("POST /api/protected/transactions",
		protect(http.HandlerFunc(s.transactionHandler.CreateTransaction)))
	protectedRoutes.Handle("GET /api/protected/transactions",
		protect(http.HandlerFunc(s.transactionHandler.GetUserTransactions)))
	protectedRoutes.Handle("PUT /api/protected/transactions/{id}/stop",
		protect(http.HandlerFunc(s.transactionHandler.StopRecurring)))
	protectedRoutes.Handle("GET /api/protected/transactions/next-occurrence",
		protect(http.HandlerFunc(s.transactionHandler.NextOccurrencePreview)))
	protectedRoutes.Handle("GET /api/protected/transactions/summary/monthly",
		protect(http.HandlerFunc(s.transactionHandler.GetMonthlyIncomeSummary)))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/api/", publicRoutes)
	mainRouter.Handle("/api/protected/", protectedRoutes)
	mainRouter.Handle("/", http.HandlerFunc(notFoundHandler))

	s.router = mainRouter
}

func checkConfiguration() error {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, continuing with system environment variables")
	}

	if os.Getenv("JWT_SECRET") == "" {
		return errors.New("no JWT_SECRET Provided")
	}
	if os.Getenv("DB_CONNECTION_STRING") == "" {
		return errors.New("no DB_CONNECTION_STRING Provided")
	}
	return nil
}

// StartSweepScheduler triggers the recurring-transaction sweep on a fixed
// schedule. The sweep itself refuses to overlap a still-running cycle, so a
// late tick is simply skipped.
func StartSweepScheduler(sweepService *application.SweepService) error {
	schedule := os.Getenv("SWEEP_SCHEDULE")
	if schedule == "" {
		schedule = defaultSweepSchedule
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		report, err := sweepService.RunSweep(context.Background())
		if err != nil {
			if application.IsSweepInProgress(err) {
				log.Println("Previous sweep still running, skipping this trigger")
				return
			}
			log.Printf("Sweep failed: %v", err)
			return
		}
		log.Printf("Sweep finished: selected=%d materialized=%d advanced=%d failures=%d",
			report.Selected, report.Materialized, report.Advanced, len(report.Failures))
		for _, failure := range report.Failures {
			log.Printf("Sweep failure on template %s at %s: %v", failure.TemplateID, failure.Stage, failure.Err)
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	return nil
}

func main() {
	if err := checkConfiguration(); err != nil {
		log.Fatalf("Missing configuration, update to start server")
	}

	dbService, err := database.NewDBService()
	if err != nil {
		log.Fatalf("Could not initialize database: %v", err)
	}
	defer dbService.Close()

	jwtManager := auth.NewJWTManager()

	ledgerRepo := infrastructure.NewLedgerRepository(dbService.DB)
	transactionService := application.NewTransactionService(ledgerRepo, time.Now)
	recurringService := application.NewRecurringService(ledgerRepo)
	sweepService := application.NewSweepService(ledgerRepo, time.Now)

	transactionHandler := interfaces.NewTransactionHandler(
		transactionService,
		recurringService,
		respondJSON,
		respondError,
	)

	server := NewServer(transactionHandler, jwtManager, dbService)
	server.RegisterRoutes()

	if err := StartSweepScheduler(sweepService); err != nil {
		log.Fatalf("Scheduler didn't start, stoping the app ...")
	}

	handler := loggingMiddleware(server.router)
	log.Println("Server starting on port 8080...")
	if err := http.ListenAndServe(":8080", handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
