package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"showaudit/internal/catalog/tvdb"
	"showaudit/internal/config"
	"showaudit/internal/preflight"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set tvdb.api_key (or export TVDB_API_KEY) and paths.library_dir before scanning.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			if ctx.configPath != "" {
				fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			}
			if !ctx.configExists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, settingRows(cfg), nil))
			for _, warning := range configWarnings(cfg) {
				fmt.Fprintf(out, "Warning: %s\n", warning)
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func settingRows(cfg *config.Config) [][]string {
	return [][]string{
		{"paths.library_dir", cfg.Paths.LibraryDir},
		{"state database", cfg.DatabasePath()},
		{"report", cfg.ReportPath()},
		{"tvdb.base_url", cfg.TVDB.BaseURL},
		{"tvdb.api_key", maskSecret(cfg.TVDB.APIKey)},
		{"tvdb.pin", yesNo(cfg.TVDB.PIN != "")},
		{"tvdb.request_timeout_seconds", cfg.RequestTimeout().String()},
		{"tvdb.search_limit", strconv.Itoa(cfg.TVDB.SearchLimit)},
		{"matching.confidence_threshold", strconv.Itoa(cfg.Matching.ConfidenceThreshold)},
		{"scan.show_delay_ms", cfg.ShowDelay().String()},
	}
}

// looseThreshold is the score below which automatic acceptance starts to
// pick sequels and spin-offs over the intended show.
const looseThreshold = 70

// configWarnings lists settings that are valid but likely to produce a poor
// scan.
func configWarnings(cfg *config.Config) []string {
	var warnings []string
	if result := preflight.CheckDirectoryReadable("Library directory", cfg.Paths.LibraryDir); !result.Passed {
		warnings = append(warnings, "paths.library_dir: "+result.Detail)
	}
	if strings.TrimRight(cfg.TVDB.BaseURL, "/") != tvdb.DefaultBaseURL {
		warnings = append(warnings, "tvdb.base_url is not the public TheTVDB endpoint")
	}
	if cfg.Matching.ConfidenceThreshold < looseThreshold {
		warnings = append(warnings, fmt.Sprintf("matching.confidence_threshold %d accepts loose matches without confirmation", cfg.Matching.ConfidenceThreshold))
	}
	if cfg.Scan.ShowDelayMillis == 0 {
		warnings = append(warnings, "scan.show_delay_ms is 0; catalog requests are not paced")
	}
	return warnings
}

func maskSecret(secret string) string {
	secret = strings.TrimSpace(secret)
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
