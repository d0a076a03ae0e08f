package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cazamitos/cazamitos/internal/config"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the locally stored AI provider key",
}

var keySetCmd = &cobra.Command{
	Use:   "set <api-key>",
	Short: "Store an API key for the configured provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		provider, _ := cmd.Flags().GetString("provider")
		if provider == "" {
			provider = cfg.LLM.Provider
		}

		llmCfg := cfg.LLM
		llmCfg.Provider = provider
		llmCfg.SetAPIKey(strings.TrimSpace(args[0]))
		if err := llmCfg.Validate(); err != nil {
			return err
		}

		creds := config.Credentials{Provider: provider, APIKey: args[0]}
		if err := config.SaveCredentials(cfg.CredentialsFile, creds); err != nil {
			return err
		}
		fmt.Printf("Saved %s key to %s\n", providerLabel(provider), cfg.CredentialsFile)
		return nil
	},
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the stored API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := config.RemoveCredentials(cfg.CredentialsFile); err != nil {
			return err
		}
		fmt.Println("Stored API key removed.")
		return nil
	},
}

var keyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which provider key is in use",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		key := cfg.LLM.APIKey()
		if key == "" {
			return errors.New("no API key configured: run `cazamitos key set <key>` or start the quiz")
		}
		fmt.Printf("Provider: %s\nKey:      %s\n", providerLabel(cfg.LLM.Provider), maskKey(key))
		return nil
	},
}

// maskKey keeps only the last four characters.
func maskKey(k string) string {
	if len(k) <= 4 {
		return strings.Repeat("*", len(k))
	}
	return strings.Repeat("*", len(k)-4) + k[len(k)-4:]
}

func init() {
	keySetCmd.Flags().String("provider", "", "Provider the key belongs to (gemini, openai, anthropic, openrouter)")

	keyCmd.AddCommand(keySetCmd)
	keyCmd.AddCommand(keyClearCmd)
	keyCmd.AddCommand(keyStatusCmd)
}
