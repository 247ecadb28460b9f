package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/mailmind/internal/credential"
	"github.com/nhle/mailmind/internal/model"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "mailmind",
		Short: "Index your mailbox and ask questions about it",
		Long: `mailmind fetches email over a date range via IMAP, cleans each
message down to plain text, embeds it into a persistent vector index,
and answers natural-language questions using retrieved email context.`,
	}

	rootCmd.PersistentFlags().StringVar(
		&configPath, "config", model.DefaultConfigPath(),
		"path to the configuration file",
	)

	rootCmd.AddCommand(newIndexCmd())
	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration file and fills in secrets from
// the system keyring when the file leaves them blank.
func loadConfig() (*model.Config, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if cfg.Mailbox.Password == "" {
		if pw, err := credential.Get(credential.KeyMailboxPassword); err == nil {
			cfg.Mailbox.Password = pw
		}
	}
	if cfg.Provider.Name == "gemini" && cfg.Provider.Gemini.APIKey == "" {
		if key, err := credential.Get(credential.KeyGeminiAPIKey); err == nil {
			cfg.Provider.Gemini.APIKey = key
		}
	}

	return cfg, nil
}
