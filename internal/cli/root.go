package cli

import (
	"context"

	"cvpilot/internal/config"
	"cvpilot/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "cvpilot",
	Short: "A CLI tool for optimizing CVs against job postings using AI",
	Long: `Cvpilot is a command-line tool that analyzes a job posting, scores
your CV against it, and rewrites individual sections or the whole document
without fabricating experience. Every rewrite is grounded in the source CV
and lists any claims that still need verification.`,
}

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

func init() {
	rootCmd.AddCommand(analyzeJobCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(positionCmd)
	rootCmd.AddCommand(optimizeCVCmd)
	rootCmd.AddCommand(coverLetterCmd)
	rootCmd.AddCommand(metaCmd)
	rootCmd.AddCommand(pipelineCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
