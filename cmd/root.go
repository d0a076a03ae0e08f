package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cazamitos/cazamitos/internal/blobstore"
	"github.com/cazamitos/cazamitos/internal/config"
	"github.com/cazamitos/cazamitos/internal/logging"
	"github.com/cazamitos/cazamitos/internal/results"
	"github.com/cazamitos/cazamitos/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "cazamitos",
	Short: "Economics myth-busting quiz",
	Long: `Cazamitos generates a multiple-choice quiz from course material, grades it
with an AI model and records the result in a shared collection.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuiz(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a cazamitos.yaml config file")
	rootCmd.PersistentFlags().String("db", "", "Path to the SQLite AI request log (overrides CAZAMITOS_DB)")
	addQuizFlags(rootCmd)

	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(materialsCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads configuration, honouring --config and --db.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Store.Path = p
	}
	return cfg, nil
}

// newLogger builds the logger. The terminal client must not write to
// stdout, so console output is only kept for non-interactive commands.
func newLogger(cfg *config.Config, console bool) (*zap.Logger, error) {
	lc := cfg.Log
	lc.Console = lc.Console && console
	logger, err := logging.New(lc)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}

// openStore opens the AI request log using --db, store.path, then the
// default XDG location.
func openStore(cfg *config.Config) (*store.Store, error) {
	p := cfg.Store.Path
	if p == "" {
		var err error
		if p, err = store.DefaultDBPath(); err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
	} else if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	s, err := store.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// openResults opens the results collection on the configured backend.
func openResults(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*results.Service, error) {
	bucket, err := blobstore.Open(ctx, cfg.Blob)
	if err != nil {
		return nil, fmt.Errorf("open %s blob backend: %w", cfg.Blob.Backend, err)
	}
	coll := blobstore.NewCollection[results.Record](bucket, cfg.Blob.Key, logger)
	return results.NewService(coll, logger), nil
}

func userAgent() string {
	return "cazamitos/" + version
}
