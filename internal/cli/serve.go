package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"spendlog/internal/core"
	apphttp "spendlog/internal/http"
	applog "spendlog/internal/log"
	"spendlog/internal/middleware/ratelimit"
)

const (
	shutdownTimeout  = 30 * time.Second
	limiterSweepTick = 5 * time.Minute
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the expense page and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := SignalContext(cmd.Context())
			defer stop()

			rt, err := opts.open(ctx, opts, applog.ComponentApp)
			if err != nil {
				return err
			}
			defer rt.Close()
			if port != "" {
				rt.cfg.Port = port
			}
			return serve(ctx, rt)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "override PORT")
	return cmd
}

func serve(ctx context.Context, rt *runtime) error {
	logger := rt.logger
	rt.svc.Load(ctx)

	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: rt.cfg.RateLimitPerMinute})
	srv, err := apphttp.NewServer(":"+rt.cfg.Port, rt.svc, apphttp.Options{
		Categories:     rt.cfg.CategoryList(core.DefaultCategories),
		CurrencySymbol: rt.cfg.CurrencySymbol,
		Logger:         logger.WithComponent(applog.ComponentHTTP),
		Limiter:        limiter,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting spendlog server", "port", rt.cfg.Port, applog.FieldBackend, rt.backend.Type.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return limiter.Run(gctx, limiterSweepTick)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", applog.FieldOperation, applog.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		return err
	}
	m := srv.Metrics()
	logger.Info("Server stopped gracefully", "requests", m.TotalRequests)
	return nil
}
