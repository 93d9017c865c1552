package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"recruitexport/internal/bucket"
	"recruitexport/internal/config"
	"recruitexport/internal/dav"
	"recruitexport/internal/export"
	"recruitexport/internal/extract"
	"recruitexport/internal/google"
	"recruitexport/internal/luxid"
	"recruitexport/internal/pipeline"
	"recruitexport/internal/server"
	"recruitexport/internal/telemetry"
)

const serviceName = "recruitexport"

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  serviceName,
		Usage: "Export recruitment event participants to CSV.",
		Commands: []*cli.Command{
			serveCommand(),
			exportCommand(),
			authCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

// app holds the wired components shared by the commands.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	provider *luxid.CredentialProvider
	service  *export.Service
	shutdown func(context.Context) error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	logger := setupLogger(cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	policy, err := extract.ParsePolicy(cfg.Events.TypePolicy)
	if err != nil {
		return nil, err
	}

	shutdown, err := telemetry.Setup(ctx, serviceName, cfg.Telemetry.Endpoint, cfg.Telemetry.Enabled)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.API.HTTPTimeout}
	store := luxid.NewTokenStore()
	auth := luxid.NewAuthenticator(logger, httpClient, cfg.API.BaseURL, store, cfg.API.TokenTTL)
	provider := luxid.NewCredentialProvider(logger, cfg.API.Username, cfg.API.Password, store, auth)
	client := luxid.NewClient(logger, httpClient, cfg.API.BaseURL, provider)

	p := pipeline.New(logger, client, extract.New(logger, policy))
	publishers := setupPublishers(ctx, logger, cfg)
	service := export.NewService(logger, p, cfg.Export.CSVPath, cfg.Export.ICSPath, publishers...)

	return &app{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		service:  service,
		shutdown: shutdown,
	}, nil
}

// setupPublishers creates the configured mirrors. A mirror that cannot be
// created is logged and left out.
func setupPublishers(ctx context.Context, logger *slog.Logger, cfg config.Config) []export.Publisher {
	var publishers []export.Publisher

	if cfg.S3.Bucket != "" {
		p, err := bucket.NewPublisher(ctx, logger, bucket.Config{
			Bucket:   cfg.S3.Bucket,
			Region:   cfg.S3.Region,
			Endpoint: cfg.S3.Endpoint,
			Prefix:   cfg.S3.Prefix,
		})
		if err != nil {
			logger.Error("Failed to create S3 publisher", "error", err)
		} else {
			publishers = append(publishers, p)
		}
	}

	if cfg.WebDAV.Endpoint != "" {
		p, err := dav.NewPublisher(logger, cfg.WebDAV.Endpoint, cfg.WebDAV.Username, cfg.WebDAV.Password, cfg.WebDAV.Dir)
		if err != nil {
			logger.Error("Failed to create WebDAV publisher", "error", err)
		} else {
			publishers = append(publishers, p)
		}
	}

	if cfg.Drive.Account != "" {
		p, err := google.NewDrivePublisher(ctx, logger, cfg.Drive.ClientID, cfg.Drive.ClientSecret, cfg.Drive.Account, cfg.Drive.FolderID)
		if err != nil {
			logger.Error("Failed to create Google Drive publisher", "error", err)
		} else {
			publishers = append(publishers, p)
		}
	}

	if len(publishers) > 0 {
		logger.Info("Initialized export mirrors.", "count", len(publishers))
	}
	return publishers
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the export HTTP endpoints.",
		Action: func(c *cli.Context) error {
			a, err := newApp(c.Context)
			if err != nil {
				return err
			}
			defer a.closeTelemetry()

			// Warm the token cache; the first export re-authenticates on failure.
			if _, err := a.provider.Credential(c.Context); err != nil {
				a.logger.Warn("Initial authentication failed", "principal", a.provider.Principal(), "error", err)
			} else {
				a.logger.Info("Token cache warmed.", "principal", a.provider.Principal())
			}

			addr := a.cfg.Server.Addr()
			httpServer := &http.Server{
				Addr:              addr,
				Handler:           server.NewRouter(a.logger, a.service),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("Server listening.", "addr", addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			return waitForShutdown(a.logger, httpServer, errCh)
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Run a single export and write the CSV file.",
		Action: func(c *cli.Context) error {
			a, err := newApp(c.Context)
			if err != nil {
				return err
			}
			defer a.closeTelemetry()

			res, err := a.service.Export(c.Context)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			a.logger.Info(res.Message, "records", res.Records, "events", res.Events, "runID", res.RunID)
			return nil
		},
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to mirror exports to Drive.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			logger := setupLogger(cfg.Log.Level)
			logger.Info("Starting Google authentication flow.")

			oauthConfig, err := google.GetOAuthConfigForAuthFlow(cfg.Drive.ClientID, cfg.Drive.ClientSecret)
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(c.Context, oauthConfig, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			accountName := cfg.Drive.Account
			if accountName == "" {
				fmt.Print("Enter a name for this account (e.g., 'personal', 'work'): ")
				accountName, _ = reader.ReadString('\n')
				accountName = strings.TrimSpace(accountName)
			}
			tokenFile := google.TokenFile(accountName)

			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func (a *app) closeTelemetry() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.shutdown(ctx); err != nil {
		a.logger.Error("Failed to flush traces", "error", err)
	}
}

func waitForShutdown(logger *slog.Logger, httpServer *http.Server, errCh <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("Shutting down.")
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
