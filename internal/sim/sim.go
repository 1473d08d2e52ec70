// Package sim is a local stand-in for the production backend. It serves the
// two endpoints the probes hit, with CORS behavior selectable per run, so
// every verdict tier can be reproduced without touching a real deployment.
package sim

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// CORS modes. allowlist mirrors a correctly configured backend, open answers
// every origin with *, off runs without any CORS middleware at all.
const (
	ModeAllowlist = "allowlist"
	ModeOpen      = "open"
	ModeOff       = "off"
)

type Options struct {
	Mode           string
	AllowedOrigins []string
	AuthPath       string
	Logger         *zap.Logger
}

// Handler builds the simulator router for the given options.
func Handler(opts Options) http.Handler {
	if opts.Mode == "" {
		opts.Mode = ModeAllowlist
	}
	if opts.AuthPath == "" {
		opts.AuthPath = "/api/v1/auth/login"
	}
	// chi panics on route patterns without a leading slash
	if !strings.HasPrefix(opts.AuthPath, "/") {
		opts.AuthPath = "/" + opts.AuthPath
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(requestLogger(opts.Logger))
	switch opts.Mode {
	case ModeOpen:
		r.Use(cors.AllowAll().Handler)
	case ModeAllowlist:
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	case ModeOff:
		// no middleware, preflights fall through to chi's 405
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Post(opts.AuthPath, handleLogin)

	return r
}

// requestLogger sits outside the CORS middleware so rejected preflights are
// still visible in the log.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			log.Debug("sim_request",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.String("origin", req.Header.Get("Origin")))
			next.ServeHTTP(w, req)
		})
	}
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// handleLogin mimics the auth endpoint's validation: placeholder credentials
// come back 422, plausible ones get a token.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var p loginPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "malformed JSON body"})
		return
	}
	if problems := validateLogin(p); len(problems) > 0 {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string][]string{"detail": problems})
		return
	}
	_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "sim-token", TokenType: "bearer"})
}

func validateLogin(p loginPayload) []string {
	var problems []string
	at := strings.Index(p.Email, "@")
	if at <= 0 || at == len(p.Email)-1 {
		problems = append(problems, "email is not a valid address")
	}
	if len(p.Password) < 8 {
		problems = append(problems, "password must be at least 8 characters")
	}
	return problems
}

// Serve runs the simulator until ctx is cancelled, then shuts down cleanly.
func Serve(ctx context.Context, addr string, opts Options) error {
	if opts.Mode == "" {
		opts.Mode = ModeAllowlist
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
		opts.Logger = log
	}
	srv := &http.Server{Addr: addr, Handler: Handler(opts)}

	errCh := make(chan error, 1)
	go func() {
		log.Info("simulator listening",
			zap.String("addr", addr),
			zap.String("mode", opts.Mode),
			zap.Strings("allowed_origins", opts.AllowedOrigins))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down simulator")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
