package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cazamitos/cazamitos/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the results endpoint",
	Long: `Serve POST /api/guardar-resultados, which validates a quiz result and
appends it to the collection on the configured blob backend. Also serves
/healthz, /metrics and, when the materials directory exists,
/api/materials.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		logger, err := newLogger(cfg, true)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		svc, err := openResults(ctx, cfg, logger)
		if err != nil {
			return err
		}

		serverCfg := cfg.Server
		if info, err := os.Stat(cfg.Materials.Dir); err == nil && info.IsDir() {
			serverCfg.MaterialsDir = cfg.Materials.Dir
		}

		logger.Info("results backend ready",
			zap.String("backend", cfg.Blob.Backend),
			zap.String("key", cfg.Blob.Key),
		)
		handler := api.NewRouter(serverCfg, api.Deps{
			Results: svc,
			Metrics: api.NewMetrics(),
			Logger:  logger,
		})
		return api.Serve(ctx, serverCfg, handler, logger)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
