package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"frameline/internal/auth"
	"frameline/internal/config"
	"frameline/internal/handler"
	"frameline/internal/handler/sse"
	"frameline/internal/middleware"
	"frameline/internal/service"
	"frameline/internal/store"
	memorystore "frameline/internal/store/memory"
	postgresstore "frameline/internal/store/postgres"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging: stdout plus a rotating file
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logOut := io.Writer(os.Stdout)
	logFile, err := config.SetupLogFile(cfg.LogDir, cfg.LogMaxFiles)
	if err != nil {
		log.Printf("warning: file logging disabled: %v", err)
	} else {
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// JWT verification is optional in dev: without a JWKS URL every
	// request runs as an anonymous guest.
	var verifier auth.TokenVerifier
	if cfg.JWKSURL != "" {
		verifier, err = auth.NewJWKSVerifier(cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer verifier.Close()
	} else {
		logger.Warn("JWKS_URL not set, running without token verification")
	}

	// Document store: Postgres when a database is configured, otherwise
	// the in-memory store for local development.
	ctx := context.Background()
	var docStore store.DocumentStore
	if cfg.DatabaseURL != "" {
		pool, err := postgresstore.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		pg := postgresstore.New(postgresstore.Config{
			Pool:        pool,
			TablePrefix: cfg.TablePrefix,
			Logger:      logger,
		})
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
		docStore = pg

		logger.Info("database connected",
			"max_conns", 25,
			"min_conns", 5,
		)
	} else {
		docStore = memorystore.New()
		logger.Warn("DATABASE_URL not set, using in-memory store (data is not persisted)")
	}

	// Services and handlers
	storyboards := service.NewStoryboardService(docStore, logger)
	storyboardHandler := handler.NewStoryboardHandler(storyboards, logger)
	streamHandler := handler.NewStreamHandler(docStore, sse.Config{
		KeepAliveInterval: cfg.KeepAliveInterval,
	}, logger)

	origins := strings.Split(cfg.CORSOrigins, ",")
	checkOrigin := func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if strings.TrimSpace(o) == origin || o == "*" {
				return true
			}
		}
		return false
	}
	sessionHandler := handler.NewSessionHandler(docStore, cfg.AutosaveWindow, checkOrigin, logger)

	logger.Info("services initialized")

	// HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", storyboardHandler.HealthCheck)

	// Storyboard routes
	mux.HandleFunc("GET /api/storyboards", storyboardHandler.ListStoryboards)
	mux.HandleFunc("POST /api/storyboards", storyboardHandler.CreateStoryboard)
	mux.HandleFunc("GET /api/storyboards/{id}", storyboardHandler.GetStoryboard)
	mux.HandleFunc("PATCH /api/storyboards/{id}", storyboardHandler.UpdateStoryboard)
	mux.HandleFunc("PUT /api/storyboards/{id}/sharing", storyboardHandler.UpdateSharing)

	// Scene routes
	mux.HandleFunc("POST /api/storyboards/{id}/scenes", storyboardHandler.AddScene)
	mux.HandleFunc("PATCH /api/storyboards/{id}/scenes/{sceneID}", storyboardHandler.RenameScene)
	mux.HandleFunc("DELETE /api/storyboards/{id}/scenes/{sceneID}", storyboardHandler.DeleteScene)
	mux.HandleFunc("POST /api/storyboards/{id}/scenes/{sceneID}/move", storyboardHandler.MoveScene)
	mux.HandleFunc("POST /api/storyboards/{id}/scenes/{sceneID}/frames", storyboardHandler.AddFrame)

	// Frame routes
	mux.HandleFunc("PATCH /api/storyboards/{id}/frames/{frameID}", storyboardHandler.UpdateFrame)
	mux.HandleFunc("DELETE /api/storyboards/{id}/frames/{frameID}", storyboardHandler.DeleteFrame)
	mux.HandleFunc("POST /api/storyboards/{id}/frames/{frameID}/move", storyboardHandler.MoveFrame)
	mux.HandleFunc("POST /api/storyboards/{id}/frames/{frameID}/comments", storyboardHandler.AddComment)

	// Live sync routes: SSE snapshot feed and websocket editing session
	mux.HandleFunc("GET /api/storyboards/{id}/stream", streamHandler.StreamSnapshots)
	mux.HandleFunc("GET /api/storyboards/{id}/session", sessionHandler.EditSession)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	root = middleware.Auth(verifier)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams and websockets
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
