// Package app provides the command line interface of the marketplace hub.
package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/marketplace-hub/internal/config"
	"github.com/stacklok/marketplace-hub/internal/versions"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "marketplace-hub",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Plugin marketplace hub",
		Long: `marketplace-hub serves a curated registry of plugin marketplaces, enriched with
each marketplace's manifest and repository statistics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAggregateCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// addConfigFlags registers the flags that select a configuration
func addConfigFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to configuration file (YAML format)")
	flags.String("registry", "", "Path to the marketplace registry file, overriding the configuration")
}

// newViper binds cmd's flags and MARKETPLACE_HUB_* environment variables
func newViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}
	return v, nil
}

// loadConfig reads --config when given, otherwise serves --registry with defaults
func loadConfig(v *viper.Viper) (*config.Config, error) {
	registryPath := v.GetString("registry")

	configPath := v.GetString("config")
	if configPath == "" {
		return config.Default(registryPath), nil
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if registryPath != "" {
		cfg.Registry.Path = registryPath
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case formatJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			case formatYAML:
				return yaml.NewEncoder(out).Encode(info)
			default:
				_, err := fmt.Fprintf(out, "marketplace-hub %s (commit %s, built %s, %s, %s)\n",
					info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Platform)
				return err
			}
		},
	}
	cmd.Flags().String("format", "", "Output format (json, yaml)")
	return cmd
}
