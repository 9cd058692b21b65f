// billtrack is a multi-tenant bill-tracking backend: users authenticate with
// email and password (with progressive account lockout), then manage bill
// records scoped strictly to their own account, with an email notification
// dispatched on creation.
//
// @title BillTrack API
// @version 1.0
// @description Multi-tenant bill-tracking backend with JWT authentication.
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/user/billtrack-go/apperror"
	"github.com/user/billtrack-go/auth"
	"github.com/user/billtrack-go/bills"
	"github.com/user/billtrack-go/config"
	"github.com/user/billtrack-go/db"
	_ "github.com/user/billtrack-go/docs" // generated swagger spec
	"github.com/user/billtrack-go/email"
	"github.com/user/billtrack-go/health"
)

func main() {
	// .env loading is a development convenience; production sets variables
	// directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading it: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pool, err := db.NewPool(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to create database pool: %v", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(cfg.DB, "./migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Manual constructor injection, leaves first.
	credStore := auth.NewPostgresCredentialStore(pool)
	authService := auth.NewAuthService(credStore, *cfg.Auth)
	authHandlers := auth.NewHandlers(authService)

	notifier, err := email.NewService(*cfg.Mail)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	billStore := bills.NewPostgresBillStore(pool)
	billService := bills.NewBillService(billStore, credStore, notifier)
	billHandlers := bills.NewHandlers(billService)

	healthHandlers := health.NewHandlers(pool)

	r := chi.NewRouter()

	// Global middleware; chi requires these before any routes.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Panic recovery that still answers with the standard error envelope.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				if rvr := recover(); rvr != nil {
					log.Printf("Panic: %+v", rvr)
					writeError(ww, apperror.NewInternalError("internal server error", nil))
				}
			}()
			next.ServeHTTP(ww, r)
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandlers.HandleStatus())
		r.Get("/db", healthHandlers.HandleDBCheck())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", authHandlers.HandleLogin())
		r.Post("/register", authHandlers.HandleRegister())
		r.Post("/refresh", authHandlers.HandleRefresh())
	})

	r.Route("/api/v1/bills", func(r chi.Router) {
		// Every bill operation requires a verified identity.
		r.Use(auth.JWTMiddleware(cfg.Auth))
		billHandlers.RegisterRoutes(r)
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped gracefully")
}

// writeError is a local helper for the panic recovery middleware; it avoids
// an import cycle with the handler packages.
func writeError(w http.ResponseWriter, appErr *apperror.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	if err := json.NewEncoder(w).Encode(appErr.ToResponse()); err != nil {
		http.Error(w, `{"success":false,"message":"failed to encode error response"}`, http.StatusInternalServerError)
	}
}
