package cmd

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-feed/internal/feed"
	jlog "github.com/spigell/job-feed/internal/logger"
	"github.com/spigell/job-feed/internal/metrics"
	"github.com/spigell/job-feed/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the feed ranking over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default is :8080)")

	viper.BindPFlag("serve.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := jlog.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the job-feed server", zap.String("version", version))

	reg, m, err := newRegistry()
	if err != nil {
		logger.Fatal("registering metrics", zap.Error(err))
	}

	srv := server.New(feed.New(logger, feed.WithMetrics(m)), reg, logger)
	if err := srv.Run(ctx, config.Serve.Listen); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newRegistry() (*prometheus.Registry, *metrics.Metrics, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, nil, fmt.Errorf("go collector: %w", err)
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, nil, fmt.Errorf("process collector: %w", err)
	}

	m := metrics.New()
	if err := m.Register(reg); err != nil {
		return nil, nil, fmt.Errorf("feed metrics: %w", err)
	}

	return reg, m, nil
}
