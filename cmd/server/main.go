package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/worklog/internal/auth"
	"github.com/mmynk/worklog/internal/changefeed"
	"github.com/mmynk/worklog/internal/config"
	"github.com/mmynk/worklog/internal/models"
	"github.com/mmynk/worklog/internal/service"
	"github.com/mmynk/worklog/internal/storage/sqlite"
	"github.com/mmynk/worklog/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("Server failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "worklog-server",
		Short: "Serve work records over Connect RPC",
		Long: `worklog-server stores work records in SQLite and serves them to worklog
clients, with a live change stream.

Configuration comes from the environment: PORT, DB_PATH, LOG_LEVEL,
JWT_SECRET, TOKEN_TTL, OAUTH_GITHUB_CLIENT_ID, OAUTH_GITHUB_CLIENT_SECRET,
OAUTH_GOOGLE_CLIENT_ID, OAUTH_GOOGLE_CLIENT_SECRET and OAUTH_REDIRECT_URL.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	})

	var count int
	issue := &cobra.Command{
		Use:   "issue-code",
		Short: "Create single-use approval codes for registration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ServerFromEnv()
			if err != nil && !errors.Is(err, config.ErrMissingSecret) {
				return err
			}
			logger := logging.Setup(cfg.LogLevel)
			codes, err := issueCodes(cmd.Context(), cfg.DBPath, count, logger)
			if err != nil {
				return err
			}
			for _, code := range codes {
				fmt.Fprintln(cmd.OutOrStdout(), code)
			}
			return nil
		},
	}
	issue.Flags().IntVarP(&count, "count", "n", 1, "number of codes")
	root.AddCommand(issue)

	return root
}

// issueCodes stores n fresh approval codes. Codes are secrets: only the
// count is logged.
func issueCodes(ctx context.Context, dbPath string, n int, logger *slog.Logger) ([]string, error) {
	if n < 1 {
		return nil, fmt.Errorf("count must be positive, got %d", n)
	}
	store, err := sqlite.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	codes := make([]string, 0, n)
	for i := 0; i < n; i++ {
		code := &models.ApprovalCode{Code: uuid.NewString(), CreatedAt: time.Now().Unix()}
		if err := store.CreateApprovalCode(ctx, code); err != nil {
			return codes, err
		}
		codes = append(codes, code.Code)
	}
	logger.Info("Approval codes issued", "count", len(codes))
	return codes, nil
}

// oauthAuthenticator returns nil when no provider is configured.
func oauthAuthenticator(cfg config.Server, store *sqlite.SQLiteStore) *auth.OAuthAuthenticator {
	var providers []*auth.OAuthProvider
	if cfg.GitHubEnabled() {
		providers = append(providers, auth.GitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.OAuthRedirectURL))
	}
	if cfg.GoogleEnabled() {
		providers = append(providers, auth.GoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL))
	}
	if len(providers) == 0 {
		return nil
	}
	return auth.NewOAuthAuthenticator(store, providers...)
}

func runServe(ctx context.Context) error {
	cfg, err := config.ServerFromEnv()
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel)

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.DBPath)

	hub := changefeed.NewHub(logger)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	oauth := oauthAuthenticator(cfg, store)
	if oauth != nil {
		logger.Info("OAuth enabled", "providers", oauth.Providers(), "redirect_url", cfg.OAuthRedirectURL)
	}

	recordSvc := service.NewRecordService(store, hub, logger)
	authSvc := service.NewAuthService(auth.NewPasswordAuthenticator(store), oauth, store, jwtManager, logger)

	// Wrap with h2c for HTTP/2 without TLS (required for Connect streaming)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(newHandler(recordSvc, authSvc, jwtManager, logger), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Connect server starting", "address", srv.Addr, "url", fmt.Sprintf("http://localhost%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		// Watch streams never finish on their own; end them before draining.
		recordSvc.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
