package cli

import (
	"context"
	"fmt"

	"cvpilot/internal/ai"
	"cvpilot/internal/analysis"
	"cvpilot/internal/common"
	"cvpilot/internal/types"

	"github.com/spf13/cobra"
)

var analyzeJobCmd = &cobra.Command{
	Use:   "analyze-job [job-description-file]",
	Short: "Extract requirements and skills from a job posting",
	Long: `Analyze a job posting and extract its title, key requirements,
suggested skills, cultural fit signals, and recommended highlights.

Extraction runs in two passes: one quoting requirements stated verbatim in
the posting, one inferring unstated expectations from industry context.
Every extracted item carries its provenance.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if analyzeJobConfig.OutputFormat == "" {
			analyzeJobConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(analyzeJobConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runAnalyzeJob,
}

var analyzeJobConfig common.CommandConfig

func init() {
	analyzeJobCmd.Flags().StringVarP(&analyzeJobConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeJobCmd.Flags().StringVar(&analyzeJobConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = analyzeJobCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

func runAnalyzeJob(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	extractAIConfig := cfg.GetExtractConfig()
	aiService, err := ai.NewService(&extractAIConfig, "extract", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	extractor := analysis.NewExtractor(aiService.Provider, logger)

	createInput := func(contents []string) (string, error) {
		if len(contents) != 1 {
			return "", fmt.Errorf("expected 1 file path, got %d", len(contents))
		}
		return contents[0], nil
	}

	logDetails := func(jobDescription string, cfg common.CommandConfig) {
		logger.Info("Starting job posting analysis",
			"job_chars", len(jobDescription),
			"output_format", cfg.OutputFormat)
	}

	extractOperation := func(ctx context.Context, jobDescription string) (types.JobAnalysis, *ai.TokenUsage, error) {
		result, err := extractor.Extract(ctx, jobDescription)
		return result, nil, err
	}

	err = common.RunAICommand(
		cmd.Context(),
		logger,
		analyzeJobConfig,
		args,
		createInput,
		extractOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to analyze job posting: %w", err)
	}
	logger.Info("Job posting analysis completed successfully")
	return nil
}
