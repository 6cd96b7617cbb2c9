package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/worklog/internal/api"
	"github.com/mmynk/worklog/internal/auth"
	"github.com/mmynk/worklog/internal/middleware"
	"github.com/mmynk/worklog/internal/service"
)

// newHandler routes the Connect services, metrics and the OAuth callback.
func newHandler(recordSvc *service.RecordService, authSvc *service.AuthService, jwtManager *auth.JWTManager, logger *slog.Logger) http.Handler {
	// Auth runs first so the logging interceptor sees the user.
	interceptors := connect.WithInterceptors(
		middleware.NewAuthInterceptor(jwtManager,
			api.CreateRecordProcedure,
			api.UpdateRecordProcedure,
			api.DeleteRecordProcedure,
			api.GetCurrentUserProcedure,
		),
		middleware.NewLoggingInterceptor(logger),
	)

	mux := http.NewServeMux()

	// Register Connect services
	mux.Handle(api.NewRecordServiceHandler(recordSvc, interceptors))
	mux.Handle(api.NewAuthServiceHandler(authSvc, interceptors))

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/oauth/callback", oauthCallback)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	// Add logging and CORS middleware
	return loggingMiddleware(logger, corsMiddleware(mux))
}

// oauthCallback shows the authorization code so it can be pasted into
// "worklog login --oauth".
func oauthCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Sign-in failed: %s\n", e)
		return
	}
	code := q.Get("code")
	if code == "" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintln(w, "Missing code parameter")
		return
	}
	fmt.Fprintf(w, "Paste this code into worklog:\n\n%s\n", code)
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		logger.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		logger.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	allowHeaders := strings.Join([]string{
		"Content-Type",
		"Authorization",
		"Connect-Protocol-Version",
		"Connect-Timeout-Ms",
	}, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
