package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/quictun/quictund/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long: `Manage quictund configuration files.

Configuration is loaded from multiple sources in order of precedence:
1. Command line flags
2. Environment variables (QUICTUND_*)
3. Configuration file
4. Default values

The configuration file is searched in:
- Current directory (quictund.yaml)
- ~/.config/quictund/quictund.yaml (XDG config home)
- /etc/quictund/quictund.yaml (system-wide)`,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a configuration file with default values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigInit(cmd, args)
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigValidate(cmd, args)
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
	configInitCmd.Flags().BoolP("force", "f", false, "overwrite an existing config file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	outputPath := config.DefaultConfigPath()
	if len(args) == 1 {
		outputPath = args[0]
	}

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(outputPath); err == nil && !force {
		return fmt.Errorf("%s already exists; pass --force to overwrite", outputPath)
	}

	if err := config.WriteExampleConfig(outputPath); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	fmt.Printf("Configuration file created: %s\n", outputPath)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	var configPath string
	if len(args) == 1 {
		configPath = args[0]
	}

	cfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	errs := config.ValidateServerConfig(cfg)
	if len(errs) > 0 {
		fmt.Fprintln(os.Stderr, "Configuration validation errors:")
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "  - %s\n", e.Error())
		}
		return fmt.Errorf("configuration validation failed (%d error(s))", len(errs))
	}

	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(2)
	defer encoder.Close()
	fmt.Println("Configuration is valid:")
	return encoder.Encode(cfg)
}
