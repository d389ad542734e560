package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/cli/config"
	httpctrl "github.com/pawnotes/pawnotes/pkg/controller/http"
	"github.com/pawnotes/pawnotes/pkg/service/soap"
	"github.com/pawnotes/pawnotes/pkg/usecase"
	"github.com/pawnotes/pawnotes/pkg/utils/logging"
	"github.com/pawnotes/pawnotes/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

func cmdServe() *cli.Command {
	var addr string
	var baseURL string
	var staticDir string
	var allowedOrigins []string
	var appCfg config.App
	var repoCfg config.Repository
	var authCfg config.Auth
	var geminiCfg config.Gemini
	var deepgramCfg config.Deepgram
	var sendgridCfg config.SendGrid
	var slackCfg config.Slack
	var storageCfg config.Storage

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("PAWNOTES_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "Base URL for the application (e.g., https://your-domain.com)",
			Sources:     cli.EnvVars("PAWNOTES_BASE_URL"),
			Destination: &baseURL,
		},
		&cli.StringFlag{
			Name:        "static-dir",
			Usage:       "Directory of the built frontend to serve",
			Sources:     cli.EnvVars("PAWNOTES_STATIC_DIR"),
			Destination: &staticDir,
		},
		&cli.StringSliceFlag{
			Name:        "allowed-origin",
			Usage:       "Additional origin allowed to open capture websockets (repeatable)",
			Sources:     cli.EnvVars("PAWNOTES_ALLOWED_ORIGINS"),
			Destination: &allowedOrigins,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, deepgramCfg.Flags()...)
	flags = append(flags, sendgridCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, storageCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			app, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load configuration")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			authUC, err := authCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure authentication")
			}
			if authCfg.IsNoAuthMode() {
				logger.Warn("Running in no-auth mode (development only)", "auth", authCfg)
			}

			ucOpts := []usecase.Option{
				usecase.WithAuth(authUC),
				usecase.WithTemplates(app.TemplateRegistry()),
			}

			var soapOpts []soap.Option
			if app.Assistant.Prompt != "" {
				soapOpts = append(soapOpts, soap.WithAssistantPrompt(app.Assistant.Prompt))
			}
			soapClient, err := geminiCfg.ConfigureSOAP(ctx, soapOpts...)
			if err != nil {
				return err
			}
			if soapClient != nil {
				ucOpts = append(ucOpts, usecase.WithNoteGenerator(soapClient), usecase.WithAssistant(soapClient))
				logger.Info("SOAP note generation enabled", "gemini", slog.GroupValue(geminiCfg.LogAttrs()...))
			} else {
				logger.Info("Gemini not configured, SOAP generation and assistant are disabled")
			}

			provider, err := deepgramCfg.Configure()
			if err != nil {
				return err
			}
			if provider != nil {
				ucOpts = append(ucOpts, usecase.WithTranscriptionProvider(provider))
				logger.Info("Live transcription enabled", "deepgram", deepgramCfg)
			}

			sender, err := sendgridCfg.Configure()
			if err != nil {
				return err
			}
			if sender != nil {
				ucOpts = append(ucOpts, usecase.WithEmailSender(sender, sendgridCfg.From()))
				logger.Info("Email enabled", "sendgrid", sendgridCfg)
			}

			notifier, err := slackCfg.Configure(baseURL)
			if err != nil {
				return err
			}
			if notifier != nil {
				ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
				logger.Info("Slack notifications enabled", "slack", slackCfg)
			}

			gcs, err := storageCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if gcs != nil {
				defer safe.Close(ctx, gcs)
				ucOpts = append(ucOpts, usecase.WithArchiver(gcs))
				logger.Info("Case export enabled", "storage", storageCfg)
			}

			uc := usecase.New(repo, ucOpts...)

			httpOpts := []httpctrl.Options{
				httpctrl.WithAllowedOrigins(allowedOrigins...),
			}
			if staticDir != "" {
				httpOpts = append(httpOpts, httpctrl.WithStaticFS(os.DirFS(staticDir)))
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				if err := uc.Dispatcher().Wait(shutdownCtx); err != nil {
					logger.Warn("background notifications did not finish", "error", err)
				}

				logger.Info("Server shutdown completed")
				return nil
			}
		},
	}
}
