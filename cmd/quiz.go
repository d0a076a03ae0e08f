package cmd

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cazamitos/cazamitos/internal/app"
	"github.com/cazamitos/cazamitos/internal/config"
	"github.com/cazamitos/cazamitos/internal/llm"
	"github.com/cazamitos/cazamitos/internal/materials"
	"github.com/cazamitos/cazamitos/internal/quiz"
	"github.com/cazamitos/cazamitos/internal/results"
	"github.com/cazamitos/cazamitos/internal/session"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Take a quiz in the terminal (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuiz(cmd)
	},
}

func init() {
	addQuizFlags(quizCmd)
}

func addQuizFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-welcome", false, "Skip the welcome animation")
	cmd.Flags().String("name", "", "Student name")
	cmd.Flags().String("email", "", "Student email")
	cmd.Flags().String("subject", "", "Subject (asignatura)")
	cmd.Flags().String("topic", "", "Topic (tema)")
}

func identityFromFlags(cmd *cobra.Command) session.Identity {
	get := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return strings.TrimSpace(v)
	}
	return session.Identity{
		Name:    get("name"),
		Email:   strings.ToLower(get("email")),
		Subject: get("subject"),
		Topic:   get("topic"),
	}
}

// runQuiz wires the session to its collaborators and launches the TUI.
func runQuiz(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	submitter, err := newSubmitter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	machine := session.New(session.Options{Submitter: submitter, Logger: logger})
	machine.SetIdentity(identityFromFlags(cmd))

	hasKey := false
	gw, err := newGateway(ctx, cfg.LLM, cfg.Quiz, st, logger)
	switch {
	case err == nil:
		machine.SetGateway(gw)
		hasKey = true
	case errors.Is(err, llm.ErrMissingAPIKey):
		logger.Info("no api key configured, asking for one")
	default:
		return err
	}

	catalog, err := materials.Scan(cfg.Materials.Dir)
	if err != nil {
		logger.Warn("materials catalog unavailable", zap.String("dir", cfg.Materials.Dir), zap.Error(err))
	}

	save := func(key string) error {
		llmCfg := cfg.LLM
		llmCfg.SetAPIKey(strings.TrimSpace(key))
		gw, err := newGateway(ctx, llmCfg, cfg.Quiz, st, logger)
		if err != nil {
			return err
		}
		creds := config.Credentials{Provider: llmCfg.Provider, APIKey: key}
		if err := config.SaveCredentials(cfg.CredentialsFile, creds); err != nil {
			return err
		}
		cfg.LLM = llmCfg
		machine.SetGateway(gw)
		return nil
	}
	forget := func() error {
		cfg.LLM.SetAPIKey("")
		return config.RemoveCredentials(cfg.CredentialsFile)
	}

	skip, _ := cmd.Flags().GetBool("no-welcome")
	return app.Run(app.Options{
		Machine:      machine,
		Provider:     providerLabel(cfg.LLM.Provider),
		HasKey:       hasKey,
		SaveKey:      save,
		ForgetKey:    forget,
		MaterialsDir: cfg.Materials.Dir,
		Catalog:      catalog,
		SkipWelcome:  skip,
		Logger:       logger,
	})
}

// newGateway builds the provider chain with the request log as recorder.
func newGateway(ctx context.Context, lc llm.Config, qc quiz.Config, rec llm.Recorder, logger *zap.Logger) (*quiz.Gateway, error) {
	provider, err := llm.NewProvider(ctx, lc, rec, logger)
	if err != nil {
		return nil, err
	}
	return quiz.NewGateway(provider, qc, logger), nil
}

// newSubmitter posts to results.endpoint when set, otherwise appends to
// the collection in process.
func newSubmitter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (results.Submitter, error) {
	if cfg.Results.Endpoint != "" {
		return results.NewClient(cfg.Results.Endpoint, userAgent(), cfg.Results.Timeout), nil
	}
	svc, err := openResults(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &results.LocalSubmitter{Service: svc, UserAgent: userAgent()}, nil
}

func providerLabel(p string) string {
	switch p {
	case "gemini":
		return "Gemini"
	case "openai":
		return "OpenAI"
	case "anthropic":
		return "Anthropic"
	case "openrouter":
		return "OpenRouter"
	}
	return p
}
