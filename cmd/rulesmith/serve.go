package main

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/rulesmith/internal/api"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the rule lifecycle over HTTP/JSON: proposals, approvals, rules,
history, promotion, enhancements and reviewer feedback. Prometheus metrics
are exposed at /metrics.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default :8000)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	eng := newEngine(store, cfg, reg)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(eng, api.Options{
		Gatherer: reg,
		CORS: api.CORSOptions{
			Origins:          cfg.Server.CORSOrigins,
			Methods:          cfg.Server.CORSMethods,
			Headers:          cfg.Server.CORSHeaders,
			AllowCredentials: cfg.Server.CORSAllowCredentials,
		},
	})

	slog.Info("Starting rulesmith server", "addr", cfg.Server.Addr, "database", cfg.Database.Path)
	return api.NewServer(cfg.Server.Addr, router).Run(ctx)
}
