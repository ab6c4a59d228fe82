package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/saas-classifier/internal/api"
	"github.com/sells-group/saas-classifier/internal/monitoring"
)

const shutdownTimeout = 10 * time.Second

var (
	servePort     int
	serveTaxonomy string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the classification HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initEnv(ctx, serveTaxonomy, true)
		if err != nil {
			return err
		}
		defer env.Close()

		metrics := monitoring.NewMetrics()
		if env.Store != nil {
			go monitoring.NewJanitor(env.Store, metrics, monitoring.DefaultJanitorInterval).Run(ctx)
		}

		timeout := time.Duration(cfg.Server.RequestTimeoutSecs) * time.Second
		srv := &http.Server{
			Addr: fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: api.NewServer(api.Options{
				Pipeline:       env.Pipeline,
				Extractor:      env.Extractor,
				Metrics:        metrics,
				CORSOrigins:    cfg.Server.CORSOrigins,
				RequestTimeout: timeout,
			}).Router(),
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      timeout + 5*time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Error("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server",
			zap.Int("port", cfg.Server.Port),
			zap.Bool("text_cache", env.Store != nil),
			zap.Int("categories", env.Pipeline.Taxonomy().Len()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveTaxonomy, "taxonomy", "", "taxonomy YAML file (default from config)")
	rootCmd.AddCommand(serveCmd)
}
