package main

import (
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"gazelleops/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigShowCommand(ctx))
	cmd.AddCommand(newConfigValidateCommand(ctx))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a commented sample configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			cmd.Printf("wrote sample configuration to %s\n", path)
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			redacted := *cfg
			if strings.TrimSpace(redacted.Tracker.APIKey) != "" {
				redacted.Tracker.APIKey = "(set)"
			}
			if strings.TrimSpace(redacted.Tracker.AnnounceURL) != "" {
				redacted.Tracker.AnnounceURL = "(set)"
			}
			encoded, err := toml.Marshal(redacted)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			cmd.Print(string(encoded))
			return nil
		},
	}
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration for problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			cmd.Println("configuration is valid")
			return nil
		},
	}
}
