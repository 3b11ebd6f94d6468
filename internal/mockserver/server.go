// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockserver

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
)

const (
	// DefaultAddr is where `volzer serve-mock` listens.
	DefaultAddr = "127.0.0.1:3000"

	// DefaultLoginRateLimit is the number of POST /api/login per minute and IP.
	DefaultLoginRateLimit = 20

	// DefaultSessionTTL is the lifetime of a session without "remember me".
	DefaultSessionTTL = 24 * time.Hour
)

// Server is an in-memory stand-in for the Volzer backend. It implements the
// same endpoints the client calls, with real password hashing and signed
// session cookies.
type Server struct {
	users      *UserStore
	sessions   *sessions
	validate   *validator.Validate
	loginLimit int
	latency    time.Duration
	origins    []string
	logger     *slog.Logger
	handler    http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithSecret sets the HMAC key for session tokens.
func WithSecret(secret []byte) Option {
	return func(s *Server) {
		if len(secret) > 0 {
			s.sessions.secret = secret
		}
	}
}

// WithLoginRateLimit sets the per-IP login budget per minute. Zero disables it.
func WithLoginRateLimit(perMinute int) Option {
	return func(s *Server) { s.loginLimit = perMinute }
}

// WithLatency delays every API response.
func WithLatency(d time.Duration) Option {
	return func(s *Server) { s.latency = d }
}

// WithAllowedOrigins sets the CORS origins. Defaults to any http(s) origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithUserStore shares an account table, for tests.
func WithUserStore(users *UserStore) Option {
	return func(s *Server) {
		if users != nil {
			s.users = users
		}
	}
}

// WithClock replaces time.Now for session issuance and validation.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.sessions.now = now
			s.users.now = now
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds the server and its router.
func New(opts ...Option) *Server {
	secret := make([]byte, 32)
	_, _ = rand.Read(secret)

	s := &Server{
		users:      NewUserStore(0),
		sessions:   &sessions{secret: secret, ttl: DefaultSessionTTL, now: time.Now},
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		loginLimit: DefaultLoginRateLimit,
		origins:    []string{"https://*", "http://*"},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	return s
}

// Users exposes the account table.
func (s *Server) Users() *UserStore { return s.users }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		if s.latency > 0 {
			r.Use(s.delay)
		}

		r.Post("/register", s.handleRegister)
		if s.loginLimit > 0 {
			r.With(s.loginRateLimit()).Post("/login", s.handleLogin)
		} else {
			r.Post("/login", s.handleLogin)
		}
		r.Get("/auth/check", s.handleAuthCheck)
		r.Post("/auth/logout", s.handleLogout)
		r.Get("/users/{id}", s.handleGetUser)
	})
	return r
}

func (s *Server) loginRateLimit() func(http.Handler) http.Handler {
	return httprate.Limit(
		s.loginLimit,
		time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, envelope{Success: false, Message: MsgTooManyRequests})
		}),
	)
}

// ListenAndServe runs the server on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mock backend listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
