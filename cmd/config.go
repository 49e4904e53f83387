package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zeronorth-oss/znctl/internal/metrics"
	"github.com/zeronorth-oss/znctl/pkg/types"
	"github.com/zeronorth-oss/znctl/pkg/zn"
)

// metricsNamespace prefixes every metric the CLI emits.
const metricsNamespace = "znctl"

// Config is the resolved configuration for one invocation. It is built
// once from flags (overlaid on an optional YAML file) and threaded down;
// nothing below this layer reads flags or the environment.
type Config struct {
	APIURL     string        `yaml:"apiUrl" validate:"required,url"`
	APIKeyFile string        `yaml:"apiKeyFile"`
	PageSize   int           `yaml:"pageSize" validate:"gt=0,lte=10000"`
	Interval   time.Duration `yaml:"interval" validate:"gte=0"`
	Timeout    time.Duration `yaml:"timeout" validate:"gte=0"`
}

// getConfigFromFlags builds the Config for the invocation. Precedence:
// flag values explicitly set on the command line, then the YAML config
// file, then flag defaults.
func getConfigFromFlags(cmd *cobra.Command) (*Config, error) {
	apiURL, _ := cmd.Flags().GetString("api-url")          //nolint:errcheck
	apiKeyFile, _ := cmd.Flags().GetString("api-key-file") //nolint:errcheck
	configFile, _ := cmd.Flags().GetString("config")       //nolint:errcheck
	pageSize, _ := cmd.Flags().GetInt("page-size")         //nolint:errcheck

	config := &Config{
		APIURL:     apiURL,
		APIKeyFile: apiKeyFile,
		PageSize:   pageSize,
		Interval:   10 * time.Second,
		Timeout:    time.Hour,
	}

	if configFile != "" {
		raw, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		var fileConfig Config
		if err := yaml.Unmarshal(raw, &fileConfig); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
		applyFileConfig(cmd, config, &fileConfig)
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// applyFileConfig copies file values into config for every field whose
// flag was not explicitly set on the command line.
func applyFileConfig(cmd *cobra.Command, config, fileConfig *Config) {
	if fileConfig.APIURL != "" && !cmd.Flags().Changed("api-url") {
		config.APIURL = fileConfig.APIURL
	}
	if fileConfig.APIKeyFile != "" && !cmd.Flags().Changed("api-key-file") {
		config.APIKeyFile = fileConfig.APIKeyFile
	}
	if fileConfig.PageSize != 0 && !cmd.Flags().Changed("page-size") {
		config.PageSize = fileConfig.PageSize
	}
	if fileConfig.Interval != 0 {
		config.Interval = fileConfig.Interval
	}
	if fileConfig.Timeout != 0 {
		config.Timeout = fileConfig.Timeout
	}
}

// newAPIClient resolves the credential and builds the API client every
// subcommand talks through.
func newAPIClient(ctx context.Context, config *Config, logger types.Logger) (*zn.Client, error) {
	token, err := zn.ResolveCredential(config.APIKeyFile)
	if err != nil {
		return nil, err
	}
	collector := metrics.FromContext(ctx, metricsNamespace)
	client := zn.NewClient(config.APIURL, token,
		zn.WithLogger(logger),
		zn.WithMetrics(ctx, collector),
	)
	return client, nil
}
