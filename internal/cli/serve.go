package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	httpapi "github.com/denisok6893-rgb/crm-lead-matching/internal/http"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/notify"
)

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the HTTP API on API_ADDRESS. SIGINT or SIGTERM stops accepting
new requests and waits up to SHUTDOWN_TIMEOUT for in-flight ones.`,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) (err error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var a *app
	a, err = newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	pub := a.publisher()
	defer func() { _ = pub.Close() }()

	srv := httpapi.NewServer(a.engine, a.store, notify.NewNotifier(pub, a.thresholds()), a.logger, httpapi.Options{
		DefaultLimit: a.cfg.Match.DefaultLimit,
		CORSOrigins:  a.cfg.Server.CORSOrigins,
	})
	httpServer := &http.Server{
		Addr:              a.cfg.Server.Address,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("API listening", "addr", a.cfg.Server.Address, "env", a.cfg.Server.Env)
		if serr := httpServer.ListenAndServe(); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
		}
		close(errCh)
	}()

	select {
	case serr := <-errCh:
		if serr != nil {
			err = errors.Wrap(serr, "http server failed")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down", "timeout", a.cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	err = httpServer.Shutdown(shutdownCtx)
	if err != nil {
		err = errors.Wrap(err, "graceful shutdown failed")
		return err
	}
	a.logger.Info("server stopped")
	return nil
}
