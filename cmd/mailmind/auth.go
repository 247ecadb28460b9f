package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/mailmind/internal/credential"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored credentials",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key>",
		Short: "Store a credential in the system keyring",
		Long: fmt.Sprintf(
			"set reads a secret from stdin and stores it in the system keyring.\n"+
				"Known keys: %s, %s.",
			credential.KeyMailboxPassword, credential.KeyGeminiAPIKey,
		),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(os.Stderr, "Value for %s: ", args[0])

			reader := bufio.NewReader(os.Stdin)
			value, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading secret: %w", err)
			}

			value = strings.TrimRight(value, "\r\n")
			if value == "" {
				return fmt.Errorf("empty value for credential %q", args[0])
			}

			if err := credential.Set(args[0], value); err != nil {
				return err
			}

			fmt.Printf("Stored credential %q.\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a credential from the system keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := credential.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted credential %q.\n", args[0])
			return nil
		},
	})

	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and report any problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Printf("Configuration at %s is valid.\n", configPath)
			return nil
		},
	})

	return cmd
}
