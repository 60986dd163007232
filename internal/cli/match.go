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

var matchCmd = &cobra.Command{
	Use:   "match [cv-file] [job-description-file]",
	Short: "Score a CV against a job posting",
	Long: `Score a CV against a job posting across four rubrics (summary, skills,
experience, education) plus overall fit and seniority fit. Every score is an
integer from 1 to 5. Seniority fit measures distance from the ideal level,
so over-qualification degrades the score the same way under-qualification does.

The CV file must be a JSON document.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if matchConfig.OutputFormat == "" {
			matchConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(matchConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runMatch,
}

var matchConfig common.CommandConfig
var matchOptimizedPass bool

type matchInput struct {
	cv             types.CVDocument
	jobDescription string
}

func init() {
	matchCmd.Flags().StringVarP(&matchConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	matchCmd.Flags().StringVar(&matchConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	matchCmd.Flags().BoolVar(&matchOptimizedPass, "optimized", false, "Score an already-optimized CV (post-optimization pass)")

	// Add completion for format flag
	_ = matchCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	matchAIConfig := cfg.GetMatchConfig()
	aiService, err := ai.NewService(&matchAIConfig, "match", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	gapAnalyzer := analysis.NewGapAnalyzer(aiService.Provider, logger)

	createInput := func(contents []string) (matchInput, error) {
		if len(contents) != 2 {
			return matchInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		cv, err := common.ParseCVDocument(contents[0])
		if err != nil {
			return matchInput{}, err
		}
		return matchInput{cv: cv, jobDescription: contents[1]}, nil
	}

	logDetails := func(input matchInput, cfg common.CommandConfig) {
		logger.Info("Starting CV match analysis",
			"cv_positions", len(input.cv.Experience),
			"job_chars", len(input.jobDescription),
			"optimized_pass", matchOptimizedPass,
			"output_format", cfg.OutputFormat)
	}

	matchOperation := func(ctx context.Context, input matchInput) (types.MatchAnalysis, *ai.TokenUsage, error) {
		result, err := gapAnalyzer.AnalyzeMatch(ctx, input.cv, input.jobDescription, matchOptimizedPass)
		return result, nil, err
	}

	err = common.RunAICommand(
		cmd.Context(),
		logger,
		matchConfig,
		args,
		createInput,
		matchOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to analyze CV match: %w", err)
	}
	logger.Info("CV match analysis completed successfully")
	return nil
}
