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

var metaCmd = &cobra.Command{
	Use:   "meta [job-description-file]",
	Short: "Extract the job title and employer from a posting",
	Long: `Extract the job title and employer name from a job posting. This is a
best-effort lookup used to label saved applications; when the posting does
not state a title or employer, placeholders are returned instead of an
error.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if metaConfig.OutputFormat == "" {
			metaConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(metaConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runMeta,
}

var metaConfig common.CommandConfig

func init() {
	metaCmd.Flags().StringVarP(&metaConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	metaCmd.Flags().StringVar(&metaConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
}

func runMeta(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	metaAIConfig := cfg.GetMetaConfig()
	aiService, err := ai.NewService(&metaAIConfig, "meta", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	metaExtractor := analysis.NewMetaExtractor(aiService.Provider, logger)

	createInput := func(contents []string) (string, error) {
		if len(contents) != 1 {
			return "", fmt.Errorf("expected 1 file path, got %d", len(contents))
		}
		return contents[0], nil
	}

	logDetails := func(jobDescription string, cfg common.CommandConfig) {
		logger.Info("Starting job metadata extraction",
			"job_chars", len(jobDescription),
			"output_format", cfg.OutputFormat)
	}

	metaOperation := func(ctx context.Context, jobDescription string) (types.JobMeta, *ai.TokenUsage, error) {
		result, err := metaExtractor.Extract(ctx, jobDescription)
		return result, nil, err
	}

	err = common.RunAICommand(
		cmd.Context(),
		logger,
		metaConfig,
		args,
		createInput,
		metaOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to extract job metadata: %w", err)
	}
	logger.Info("Job metadata extraction completed successfully")
	return nil
}
