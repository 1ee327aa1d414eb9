package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapthttp "weighttracker/internal/adapter/http"
	"weighttracker/internal/app"
	"weighttracker/internal/metrics"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, closeLogs, err := loadConfig()
	if err != nil {
		return err
	}
	defer closeLogs()

	log.Warnf("---->> running in [%s] environment", envName)

	ttl, err := cfg.SessionTTL()
	if err != nil {
		return err
	}
	shutdownTimeout, err := cfg.GetShutdownTimeout()
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	weightSvc := app.NewWeightService(st.weights)
	chartsSvc := app.NewChartsService(st.weights)
	authSvc := app.NewAuthService(cfg.Auth.PasswordHash, st.sessions, ttl)

	srv := adapthttp.New(weightSvc, chartsSvc, authSvc, cfg.WebDir)
	if cfg.MetricsEnabled {
		reg := metrics.SetupPrometheus()
		srv.WithMetrics(metrics.NewManager("weighttracker", "api", reg), reg)
	}
	if cfg.SSOEnabled() {
		o := cfg.Auth.OIDC
		oidcCfg, err := adapthttp.NewOIDCConfig(ctx, o.Issuer, o.ClientID, o.ClientSecret, o.RedirectURL, o.AllowedSubject)
		if err != nil {
			return multierr.Append(err, st.close(ctx))
		}
		srv.WithOIDC(oidcCfg)
	}
	if cfg.AuthEnabled() {
		log.Info("authentication enabled")
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(chOsInterrupt)

	var runErr error
	select {
	case sig := <-chOsInterrupt:
		log.Warnf("signal [%s] received, shutting down ...", sig)
	case runErr = <-serveErr:
		log.WithError(runErr).Error("http server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	runErr = multierr.Append(runErr, httpServer.Shutdown(shutdownCtx))
	runErr = multierr.Append(runErr, st.close(shutdownCtx))
	if runErr == nil {
		log.Info("server stopped")
	}
	return runErr
}
