// Package server provides the HTTP REST API for the handwriting pipeline.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/jonathan/swrite/internal/classify"
	"github.com/jonathan/swrite/internal/config"
	"github.com/jonathan/swrite/internal/db"
	"github.com/jonathan/swrite/internal/extract"
	"github.com/jonathan/swrite/internal/imagegen"
	"github.com/jonathan/swrite/internal/ocr"
	"github.com/jonathan/swrite/internal/pdf"
	"github.com/jonathan/swrite/internal/plan"
	"github.com/jonathan/swrite/internal/render"
	"github.com/jonathan/swrite/internal/server/middleware"
	"github.com/jonathan/swrite/internal/server/ratelimit"
	"github.com/jonathan/swrite/internal/storage"
)

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	db          *db.DB
	settings    *config.Settings
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	userService *UserService
	authHandler *AuthHandler

	classifier *classify.Classifier
	extractor  *extract.Service
	planner    *plan.Service
	renderer   *render.Service
}

// Config holds server configuration
type Config struct {
	Port     int
	Settings *config.Settings
}

// New creates a new server instance and wires the pipeline stages.
func New(cfg Config) (*Server, error) {
	ctx := context.Background()

	database, err := db.Connect(ctx, cfg.Settings.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Server{
		db:       database,
		settings: cfg.Settings,
	}

	// Initialize rate limiter
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())

	// Initialize authentication services
	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	s.userService = NewUserService(database, passwordConfig)

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}
	s.jwtService = NewJWTService(jwtConfig)
	s.authHandler = NewAuthHandler(s.userService, s.jwtService)

	// Pipeline collaborators
	if cfg.Settings.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required but not set")
	}
	geminiClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Settings.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	converter := pdf.NewConverter()
	s.classifier = classify.New(converter)

	ocrEngine, err := ocr.NewEngine(ocr.Config{
		Engine: cfg.Settings.OCREngine,
		Model:  cfg.Settings.OCRModel,
	}, ocr.NewGeminiEngine(geminiClient, cfg.Settings.OCRModel))
	if err != nil {
		return nil, fmt.Errorf("failed to create OCR engine: %w", err)
	}
	s.extractor = extract.NewService(database, converter, ocrEngine)

	visionPlanner := plan.NewGeminiPlanner(geminiClient, cfg.Settings.PlannerModel)
	s.planner = plan.NewService(database, converter, visionPlanner, cfg.Settings.ReferenceSampleURL)

	blobs, err := newBlobStore(ctx, cfg.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob store: %w", err)
	}
	if cfg.Settings.ReplicateToken == "" {
		return nil, fmt.Errorf("REPLICATE_API_TOKEN is required but not set")
	}
	generator := imagegen.NewReplicateClient(cfg.Settings.ReplicateToken, cfg.Settings.ImageModel)
	s.renderer = render.NewService(database, generator, blobs)

	// Setup router
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("GET /health", s.handleHealth)

	auth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())
	mux.Handle("POST /auth/password", auth(http.HandlerFunc(s.handleUpdatePassword)))
	mux.Handle("POST /jobs", auth(http.HandlerFunc(s.handleCreateJob)))
	mux.Handle("GET /jobs/{id}/status", auth(http.HandlerFunc(s.handleJobStatus)))
	mux.Handle("POST /jobs/{id}/plan", auth(http.HandlerFunc(s.handlePlanJob)))
	mux.Handle("POST /jobs/{id}/replan", auth(http.HandlerFunc(s.handleReplanJob)))
	mux.Handle("POST /jobs/{id}/render", auth(http.HandlerFunc(s.handleRenderJob)))
	mux.Handle("GET /jobs/{id}/render/stream", auth(http.HandlerFunc(s.handleRenderStream)))
	mux.Handle("POST /jobs/{id}/pages/{n}/approve", auth(http.HandlerFunc(s.handleApprovePage)))
	mux.Handle("POST /jobs/{id}/pages/{n}/retry", auth(http.HandlerFunc(s.handleRetryPage)))

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 600 * time.Second, // Long timeout for extraction, planning, rendering
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// newBlobStore selects the configured blob store backend.
func newBlobStore(ctx context.Context, settings *config.Settings) (storage.BlobStore, error) {
	switch settings.StorageBackend {
	case "gcs":
		return storage.NewGCSStore(ctx, settings.GCSBucket)
	case "local":
		return storage.NewLocalStore(settings.LocalStorageDir, settings.LocalStorageBaseURL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", settings.StorageBackend)
	}
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	s.db.Close()
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Extract client identifier (IP address)
		clientID := s.extractClientID(r)

		// Check rate limit
		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)

		if !allowed {
			s.setRateLimitHeaders(w, info)
			s.rateLimitResponse(w, info)
			return
		}

		// Set rate limit headers for successful requests
		s.setRateLimitHeaders(w, info)
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// handleRegister handles user registration requests.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	s.authHandler.Register(w, r)
}

// handleLogin handles user login requests.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.authHandler.Login(w, r)
}

// handleUpdatePassword handles password update requests.
func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	s.authHandler.UpdatePasswordWithUserID(w, r, userID)
}

// extractClientID extracts the client identifier from the request.
// For MVP, this uses the IP address from RemoteAddr.
// In the future, this could use X-Forwarded-For header (only from trusted proxies).
func (s *Server) extractClientID(r *http.Request) string {
	// Get IP from RemoteAddr (format: "IP:port")
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// If parsing fails, use the whole RemoteAddr
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
