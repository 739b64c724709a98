package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jonathan/interview-conductor/internal/config"
	"github.com/jonathan/interview-conductor/internal/engine"
	"github.com/jonathan/interview-conductor/internal/llm"
)

// Server hosts interview sessions behind an HTTP and WebSocket API.
type Server struct {
	httpServer *http.Server
	jwtService *JWTService

	client           llm.Client
	recorder         engine.Recorder
	variant          engine.VariantKind
	reasoningTimeout time.Duration

	mu       sync.RWMutex
	sessions map[string]*engine.Engine
}

// Config holds server configuration.
type Config struct {
	Port             int
	JWT              *config.JWTConfig
	Client           llm.Client
	Recorder         engine.Recorder
	Variant          engine.VariantKind
	ReasoningTimeout time.Duration
}

// New creates a new server instance.
func New(cfg Config) (*Server, error) {
	if cfg.JWT == nil {
		return nil, fmt.Errorf("jwt config is required")
	}
	if err := cfg.JWT.Validate(); err != nil {
		return nil, fmt.Errorf("invalid jwt config: %w", err)
	}

	s := &Server{
		jwtService:       NewJWTService(cfg.JWT),
		client:           cfg.Client,
		recorder:         cfg.Recorder,
		variant:          cfg.Variant,
		reasoningTimeout: cfg.ReasoningTimeout,
		sessions:         make(map[string]*engine.Engine),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("GET /v1/sessions/{id}/kickoff", s.handleKickoff)
	mux.HandleFunc("POST /v1/sessions/{id}/turns", s.handleTurn)
	mux.HandleFunc("POST /v1/sessions/{id}/finalize", s.handleFinalize)
	mux.HandleFunc("GET /v1/sessions/{id}/transcript", s.handleTranscript)
	mux.HandleFunc("GET /v1/sessions/{id}/ws", s.handleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start begins listening for requests and blocks until shutdown.
func (s *Server) Start() error {
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
	return nil
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) registerSession(e *engine.Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[e.ID()] = e
}

func (s *Server) session(id string) (*engine.Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, &ErrSessionNotFound{SessionID: id}
	}
	return e, nil
}

// authorize checks the bearer token against the session in the path. The
// token also rides a query parameter for WebSocket clients that cannot set
// headers.
func (s *Server) authorize(r *http.Request, sessionID string) error {
	tokenString := ""
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		tokenString = strings.TrimPrefix(header, "Bearer ")
	} else if q := r.URL.Query().Get("token"); q != "" {
		tokenString = q
	}
	if tokenString == "" {
		return &ErrUnauthorized{Reason: "missing bearer token"}
	}

	claims, err := s.jwtService.ValidateToken(tokenString)
	if err != nil {
		return &ErrUnauthorized{Reason: err.Error()}
	}
	if claims.SessionID != sessionID {
		return &ErrUnauthorized{Reason: "token is for a different session"}
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response with the given status code.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
