package cli

import (
	"context"
	"fmt"

	"cvpilot/internal/ai"
	"cvpilot/internal/common"
	"cvpilot/internal/optimize"
	"cvpilot/internal/types"

	"github.com/spf13/cobra"
)

var optimizeCVCmd = &cobra.Command{
	Use:   "optimize-cv [cv-file] [job-description-file]",
	Short: "Rewrite a whole CV for a job posting in one pass",
	Long: `Rewrite the whole CV for a job posting in a single pass, without the
per-section refinement loop. The rewrite reorders and rephrases what the CV
already contains; it never invents employers, titles, dates, or skills.
The output includes improvement suggestions and the strongest CV-to-job
matches alongside the rewritten document.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if optimizeCVConfig.OutputFormat == "" {
			optimizeCVConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(optimizeCVConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runOptimizeCV,
}

var optimizeCVConfig common.CommandConfig

type optimizeCVInput struct {
	cv             types.CVDocument
	jobDescription string
}

func init() {
	optimizeCVCmd.Flags().StringVarP(&optimizeCVConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	optimizeCVCmd.Flags().StringVar(&optimizeCVConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = optimizeCVCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

func runOptimizeCV(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	optimizeCVAIConfig := cfg.GetOptimizeCVConfig()
	aiService, err := ai.NewService(&optimizeCVAIConfig, "optimizeCv", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	cvOptimizer := optimize.NewCVOptimizer(aiService.Provider, logger)

	createInput := func(contents []string) (optimizeCVInput, error) {
		if len(contents) != 2 {
			return optimizeCVInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		cv, err := common.ParseCVDocument(contents[0])
		if err != nil {
			return optimizeCVInput{}, err
		}
		return optimizeCVInput{cv: cv, jobDescription: contents[1]}, nil
	}

	logDetails := func(input optimizeCVInput, cfg common.CommandConfig) {
		logger.Info("Starting whole-CV optimization",
			"cv_positions", len(input.cv.Experience),
			"job_chars", len(input.jobDescription),
			"output_format", cfg.OutputFormat)
	}

	optimizeOperation := func(ctx context.Context, input optimizeCVInput) (types.OptimizedCV, *ai.TokenUsage, error) {
		result, err := cvOptimizer.Optimize(ctx, input.cv, input.jobDescription)
		return result, nil, err
	}

	err = common.RunAICommand(
		cmd.Context(),
		logger,
		optimizeCVConfig,
		args,
		createInput,
		optimizeOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to optimize CV: %w", err)
	}
	logger.Info("CV optimization completed successfully")
	return nil
}
