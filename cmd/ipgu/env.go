package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hrishioa/ipgu/internal/auth"
)

type envOptions struct {
	service string
}

func newEnvCmd() *cobra.Command {
	opts := envOptions{}
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage API keys in the OS keychain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvStatus(cmd, &opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.service, "service", "gemini",
		fmt.Sprintf("Service to manage (%s)", strings.Join(auth.Services(), ", ")))

	cmd.AddCommand(
		newEnvSetupCmd(&opts),
		newEnvDeleteCmd(&opts),
		newEnvStatusCmd(&opts),
	)
	return cmd
}

func newEnvSetupCmd(opts *envOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Save an API key to the keychain (prompt only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvSetup(cmd, opts)
		},
	}
}

func newEnvDeleteCmd(opts *envOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete a key from the keychain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvDelete(cmd, opts)
		},
	}
}

func newEnvStatusCmd(opts *envOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show key status (default if no action given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvStatus(cmd, opts)
		},
	}
}

func validService(opts *envOptions) (string, error) {
	svc := strings.ToLower(opts.service)
	if !auth.Known(svc) {
		return "", fmt.Errorf("invalid service %q (must be one of: %s)", opts.service, strings.Join(auth.Services(), ", "))
	}
	return svc, nil
}

func runEnvSetup(cmd *cobra.Command, opts *envOptions) error {
	svc, err := validService(opts)
	if err != nil {
		return err
	}
	key, err := auth.PromptForAPIKey(fmt.Sprintf("%s API key: ", svc))
	if err != nil {
		return fmt.Errorf("error reading key: %w", err)
	}
	if key == "" {
		return fmt.Errorf("API key is required for setup")
	}
	if err := auth.SaveKey(svc, key); err != nil {
		return fmt.Errorf("error saving key: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s API key to keychain.\n", svc)
	return nil
}

func runEnvDelete(cmd *cobra.Command, opts *envOptions) error {
	svc, err := validService(opts)
	if err != nil {
		return err
	}
	if err := auth.DeleteKey(svc); err != nil {
		return fmt.Errorf("error deleting key: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s API key from keychain.\n", svc)
	return nil
}

func runEnvStatus(cmd *cobra.Command, opts *envOptions) error {
	svc, err := validService(opts)
	if err != nil {
		return err
	}
	if auth.HasStoredKey(svc) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s API key: found (source=Keychain)\n", svc)
		return nil
	}
	if key, source := auth.GetKey(svc); key != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s API key: found (source=%s)\n", svc, source)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s API key: not found\n", svc)
	return nil
}
